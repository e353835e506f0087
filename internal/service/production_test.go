package service_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/granjapro/granja/internal/domain"
	"github.com/granjapro/granja/internal/service"
)

func TestCorrectFieldMiscountScenario(t *testing.T) {
	f := newFixture(t)
	admin := f.asAdmin(t)
	lot := f.newLot(t, admin, 150)

	rec, err := f.prodSvc.RecordProduction(admin, lot.ID, 95, 2)
	require.NoError(t, err)

	changed, err := f.prodSvc.CorrectField(admin, rec.ID, domain.FieldTotalEggs, "105", "miscount")
	require.NoError(t, err)
	assert.True(t, changed)

	history, err := f.audit.FindByEntity(rec.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	e := history[0]
	assert.Equal(t, "95", e.Change.OldValue)
	assert.Equal(t, "105", e.Change.NewValue)
	assert.Equal(t, "miscount", e.Reason)
	assert.Equal(t, domain.ActionUpdate, e.Action)
	assert.Equal(t, domain.EntityProduction, e.EntityType)
	assert.Equal(t, "root", e.ActorName)
	assert.True(t, f.now.Equal(e.Timestamp))

	stored, err := f.prodSvc.GetRecord(rec.ID)
	require.NoError(t, err)
	assert.Equal(t, 105, stored.TotalEggs)
}

func TestCorrectFieldUnchangedValueIsNoOp(t *testing.T) {
	f := newFixture(t)
	admin := f.asAdmin(t)
	lot := f.newLot(t, admin, 150)
	rec, err := f.prodSvc.RecordProduction(admin, lot.ID, 95, 2)
	require.NoError(t, err)

	for _, v := range []string{"95", " 95", "095"} {
		changed, err := f.prodSvc.CorrectField(admin, rec.ID, domain.FieldTotalEggs, v, "double check")
		require.NoError(t, err, v)
		assert.False(t, changed, v)
	}

	n, err := f.audit.CountForEntity(rec.ID)
	require.NoError(t, err)
	assert.Zero(t, n)

	stored, err := f.prodSvc.GetRecord(rec.ID)
	require.NoError(t, err)
	assert.Equal(t, rec, stored)
}

func TestCorrectFieldRejections(t *testing.T) {
	f := newFixture(t)
	admin := f.asAdmin(t)
	lot := f.newLot(t, admin, 150)
	rec, err := f.prodSvc.RecordProduction(admin, lot.ID, 95, 2)
	require.NoError(t, err)

	_, err = f.prodSvc.CorrectField(admin, rec.ID, domain.FieldTotalEggs, "100", "  ")
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = f.prodSvc.CorrectField(domain.Identity{}, rec.ID, domain.FieldTotalEggs, "100", "miscount")
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = f.prodSvc.CorrectField(admin, "missing", domain.FieldTotalEggs, "100", "miscount")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = f.prodSvc.CorrectField(admin, rec.ID, "lotId", "x", "miscount")
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = f.prodSvc.CorrectField(admin, rec.ID, domain.FieldTotalEggs, "-5", "miscount")
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = f.prodSvc.CorrectField(admin, rec.ID, domain.FieldBrokenEggs, "96", "miscount")
	assert.ErrorIs(t, err, domain.ErrValidation)

	operator := domain.Identity{ID: "op", Name: "alice", Role: domain.RoleOperator, Active: true}
	_, err = f.prodSvc.CorrectField(operator, rec.ID, domain.FieldTotalEggs, "100", "miscount")
	assert.ErrorIs(t, err, domain.ErrForbidden)

	n, err := f.audit.CountForEntity(rec.ID)
	require.NoError(t, err)
	assert.Zero(t, n, "rejected corrections must not be audited")
}

func TestCorrectRecordAppliesPrefixOnFailure(t *testing.T) {
	f := newFixture(t)
	admin := f.asAdmin(t)
	lot := f.newLot(t, admin, 150)
	rec, err := f.prodSvc.RecordProduction(admin, lot.ID, 95, 2)
	require.NoError(t, err)

	// totalEggs succeeds, brokenEggs then exceeds the new total.
	applied, err := f.prodSvc.CorrectRecord(admin, rec.ID, service.Correction{
		TotalEggs:  intPtr(90),
		BrokenEggs: intPtr(91),
	}, "recount")
	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.Equal(t, 1, applied)

	stored, err := f.prodSvc.GetRecord(rec.ID)
	require.NoError(t, err)
	assert.Equal(t, 90, stored.TotalEggs)
	assert.Equal(t, 2, stored.BrokenEggs)

	history, err := f.audit.FindByEntity(rec.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, domain.FieldTotalEggs, history[0].Change.Field)
}

func TestCorrectRecordBothFields(t *testing.T) {
	f := newFixture(t)
	admin := f.asAdmin(t)
	lot := f.newLot(t, admin, 150)
	rec, err := f.prodSvc.RecordProduction(admin, lot.ID, 100, 10)
	require.NoError(t, err)

	// The new total is below the old broken count, so broken has to move first.
	applied, err := f.prodSvc.CorrectRecord(admin, rec.ID, service.Correction{
		TotalEggs:  intPtr(8),
		BrokenEggs: intPtr(2),
	}, "wrong tray")
	require.NoError(t, err)
	assert.Equal(t, 2, applied)

	stored, err := f.prodSvc.GetRecord(rec.ID)
	require.NoError(t, err)
	assert.Equal(t, 8, stored.TotalEggs)
	assert.Equal(t, 2, stored.BrokenEggs)

	history, err := f.audit.FindByEntity(rec.ID)
	require.NoError(t, err)
	assert.Len(t, history, 2)

	_, err = f.prodSvc.CorrectRecord(admin, rec.ID, service.Correction{}, "nothing")
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestRecordProduction(t *testing.T) {
	f := newFixture(t)
	admin := f.asAdmin(t)
	lot := f.newLot(t, admin, 150)

	operator := domain.Identity{ID: "op", Name: "alice", Role: domain.RoleOperator, Active: true}
	rec, err := f.prodSvc.RecordProduction(operator, lot.ID, 120, 6)
	require.NoError(t, err)
	assert.Equal(t, domain.DateOf(f.now), rec.Date)

	_, err = f.prodSvc.RecordProduction(operator, "missing", 10, 0)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = f.prodSvc.RecordProduction(operator, lot.ID, 10, 11)
	assert.ErrorIs(t, err, domain.ErrValidation)
	_, err = f.prodSvc.RecordProduction(domain.Identity{}, lot.ID, 10, 1)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = f.prodSvc.RecordProduction(operator, lot.ID, 80, 2)
	require.NoError(t, err)

	pct, err := f.prodSvc.BrokenPercentage(lot.ID)
	require.NoError(t, err)
	assert.InDelta(t, 4.0, pct, 1e-9)

	pct, err = f.prodSvc.BrokenPercentage("other")
	require.NoError(t, err)
	assert.Zero(t, pct)

	records, err := f.prodSvc.RecordsForLot(lot.ID)
	require.NoError(t, err)
	assert.Len(t, records, 2)

	all, err := f.prodSvc.ListRecords()
	require.NoError(t, err)
	assert.Len(t, all, 2)
}
