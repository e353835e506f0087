package domain_test

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/granjapro/granja/internal/domain"
)

func fakeDigest(p string) string {
	return strings.Repeat("f", 64-len(p)) + strings.Repeat("0", len(p))
}

func TestParseRole(t *testing.T) {
	for in, want := range map[string]domain.Role{
		"Admin":      domain.RoleAdmin,
		"admin":      domain.RoleAdmin,
		" OPERATOR ": domain.RoleOperator,
	} {
		got, err := domain.ParseRole(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}

	for _, in := range []string{"", "root", "Administrador"} {
		_, err := domain.ParseRole(in)
		assert.ErrorIs(t, err, domain.ErrValidation, in)
	}
}

func TestNewIdentity(t *testing.T) {
	called := false
	digest := func(p string) string {
		called = true
		return fakeDigest(p)
	}

	id, err := domain.NewIdentity(" alice ", "secret1", "operator", digest)
	require.NoError(t, err)
	assert.True(t, called)
	assert.Equal(t, "alice", id.Name)
	assert.Equal(t, domain.RoleOperator, id.Role)
	assert.True(t, id.Active)
	assert.Empty(t, id.ID)
	assert.NotContains(t, id.PasswordDigest, "secret1")
	assert.NotContains(t, id.String(), id.PasswordDigest)
}

func TestNewIdentityRejectsBeforeHashing(t *testing.T) {
	digest := func(string) string {
		t.Fatal("digest must not run for invalid input")
		return ""
	}

	cases := []struct {
		name, password string
		role           domain.Role
	}{
		{"", "secret1", domain.RoleAdmin},
		{"   ", "secret1", domain.RoleAdmin},
		{"al", "secret1", domain.RoleAdmin},
		{"alice", "", domain.RoleAdmin},
		{"alice", "      ", domain.RoleAdmin},
		{"alice", "short", domain.RoleAdmin},
		{"alice", "secret1", "Guest"},
	}
	for _, tc := range cases {
		_, err := domain.NewIdentity(tc.name, tc.password, tc.role, digest)
		assert.ErrorIs(t, err, domain.ErrValidation, "%q/%q/%q", tc.name, tc.password, tc.role)
	}
}

func TestRestoreIdentity(t *testing.T) {
	digest := strings.Repeat("ab", 32)

	id, err := domain.RestoreIdentity("u1", "alice", digest, "ADMIN", false)
	require.NoError(t, err)
	assert.Equal(t, digest, id.PasswordDigest)
	assert.Equal(t, domain.RoleAdmin, id.Role)
	assert.False(t, id.Active)
	assert.True(t, id.IsAdmin())
	assert.False(t, id.IsOperator())

	_, err = domain.RestoreIdentity("u1", "alice", "secret1", domain.RoleAdmin, true)
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = domain.RestoreIdentity("u1", "alice", strings.ToUpper(digest), domain.RoleAdmin, true)
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = domain.RestoreIdentity("", "alice", digest, domain.RoleAdmin, true)
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = domain.RestoreIdentity("u1", "alice", digest, "superuser", true)
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestParseEnumerations(t *testing.T) {
	et, err := domain.ParseEntityType("production")
	require.NoError(t, err)
	assert.Equal(t, domain.EntityProduction, et)

	_, err = domain.ParseEntityType("LOTE")
	assert.ErrorIs(t, err, domain.ErrValidation)

	a, err := domain.ParseAction("UPDATE")
	require.NoError(t, err)
	assert.Equal(t, domain.ActionUpdate, a)

	_, err = domain.ParseAction("Upsert")
	assert.ErrorIs(t, err, domain.ErrValidation)

	k, err := domain.ParseAlertKind("critical")
	require.NoError(t, err)
	assert.Equal(t, domain.AlertCritical, k)

	_, err = domain.ParseAlertStatus("Open")
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestAuditEntryValidate(t *testing.T) {
	actor := domain.Identity{ID: "u1", Name: "root"}
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	upd := domain.NewUpdateEntry(actor, "p1", domain.EntityProduction, domain.FieldTotalEggs, "95", "105", "miscount", now)
	require.NoError(t, upd.Validate())
	assert.Equal(t, domain.ActionUpdate, upd.Action)
	assert.Equal(t, "root", upd.ActorName)

	// Old and new may legitimately be empty strings.
	upd.Change.OldValue = ""
	assert.NoError(t, upd.Validate())

	upd.Change = nil
	assert.ErrorIs(t, upd.Validate(), domain.ErrValidation)

	create := domain.NewActionEntry(actor, "l1", domain.EntityLot, domain.ActionCreate, "lot created", now)
	assert.NoError(t, create.Validate())

	bad := create
	bad.ActorID = ""
	assert.ErrorIs(t, bad.Validate(), domain.ErrValidation)

	bad = create
	bad.Timestamp = time.Time{}
	assert.ErrorIs(t, bad.Validate(), domain.ErrValidation)

	bad = create
	bad.EntityType = "Pen"
	assert.ErrorIs(t, bad.Validate(), domain.ErrValidation)
}

func TestLotBirdCounts(t *testing.T) {
	lot, err := domain.NewLot("L-01", "Isa Brown", 500, "G1", time.Date(2026, 1, 10, 15, 30, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, 500, lot.CurrentBirds)
	assert.Equal(t, time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC), lot.IntakeDate)

	require.NoError(t, lot.RecordDeaths(20))
	assert.Equal(t, 480, lot.CurrentBirds)

	assert.ErrorIs(t, lot.RecordDeaths(0), domain.ErrValidation)
	assert.ErrorIs(t, lot.RecordDeaths(481), domain.ErrValidation)
	assert.ErrorIs(t, lot.SetCurrentBirds(501), domain.ErrValidation)
	assert.ErrorIs(t, lot.SetCurrentBirds(-1), domain.ErrValidation)
	assert.Equal(t, 480, lot.CurrentBirds)

	_, err = domain.NewLot("", "Isa Brown", 500, "G1", time.Now())
	assert.ErrorIs(t, err, domain.ErrValidation)
	_, err = domain.NewLot("L-02", "Isa Brown", 0, "G1", time.Now())
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestProductionFields(t *testing.T) {
	rec, err := domain.NewProductionRecord("l1", time.Now(), 95, 3)
	require.NoError(t, err)

	v, err := rec.FieldValue(domain.FieldTotalEggs)
	require.NoError(t, err)
	assert.Equal(t, "95", v)

	require.NoError(t, rec.SetField(domain.FieldTotalEggs, "105"))
	assert.Equal(t, 105, rec.TotalEggs)

	assert.ErrorIs(t, rec.SetField(domain.FieldTotalEggs, "-1"), domain.ErrValidation)
	assert.ErrorIs(t, rec.SetField(domain.FieldTotalEggs, "2"), domain.ErrValidation)
	assert.ErrorIs(t, rec.SetField(domain.FieldBrokenEggs, "106"), domain.ErrValidation)
	assert.ErrorIs(t, rec.SetField(domain.FieldBrokenEggs, "many"), domain.ErrValidation)
	assert.ErrorIs(t, rec.SetField("lotId", "l2"), domain.ErrValidation)
	assert.Equal(t, 105, rec.TotalEggs)
	assert.Equal(t, 3, rec.BrokenEggs)

	_, err = rec.FieldValue("date")
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = domain.NewProductionRecord("l1", time.Now(), 5, 6)
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestBrokenRate(t *testing.T) {
	rec := domain.ProductionRecord{TotalEggs: 200, BrokenEggs: 5}
	assert.InDelta(t, 2.5, rec.BrokenRate(), 1e-9)
	assert.Zero(t, domain.ProductionRecord{}.BrokenRate())
}

func TestAlertLifecycle(t *testing.T) {
	a, err := domain.NewAlert("l1", domain.AlertWarning, "low laying rate", time.Now())
	require.NoError(t, err)
	assert.True(t, a.IsPending())
	assert.False(t, a.IsCritical())

	a.Resolve()
	assert.False(t, a.IsPending())

	_, err = domain.NewAlert("l1", "Severe", "x", time.Now())
	assert.ErrorIs(t, err, domain.ErrValidation)
	_, err = domain.NewAlert("l1", domain.AlertInfo, " ", time.Now())
	assert.ErrorIs(t, err, domain.ErrValidation)
}
