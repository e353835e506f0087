package service_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/granjapro/granja/internal/domain"
)

func TestAuditServiceIsAdminOnly(t *testing.T) {
	f := newFixture(t)
	admin := f.asAdmin(t)
	lot := f.newLot(t, admin, 100)
	rec, err := f.prodSvc.RecordProduction(admin, lot.ID, 95, 0)
	require.NoError(t, err)
	f.now = f.now.Add(time.Minute)
	_, err = f.prodSvc.CorrectField(admin, rec.ID, domain.FieldTotalEggs, "105", "miscount")
	require.NoError(t, err)

	byEntity, err := f.auditQuery.ByEntity(admin, rec.ID)
	require.NoError(t, err)
	assert.Len(t, byEntity, 1)

	byActor, err := f.auditQuery.ByActor(admin, admin.ID)
	require.NoError(t, err)
	require.Len(t, byActor, 3)
	assert.Equal(t, domain.EntityProduction, byActor[0].EntityType, "most recent first")

	byType, err := f.auditQuery.ByEntityType(admin, domain.EntityUser)
	require.NoError(t, err)
	assert.Len(t, byType, 1)

	inRange, err := f.auditQuery.ByDateRange(admin, f.now, f.now)
	require.NoError(t, err)
	assert.Len(t, inRange, 1)

	all, err := f.auditQuery.All(admin)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	n, err := f.auditQuery.CountForEntity(admin, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	operator := domain.Identity{ID: "op", Name: "alice", Role: domain.RoleOperator, Active: true}
	_, err = f.auditQuery.All(operator)
	assert.ErrorIs(t, err, domain.ErrForbidden)
	_, err = f.auditQuery.ByEntity(operator, rec.ID)
	assert.ErrorIs(t, err, domain.ErrForbidden)
	_, err = f.auditQuery.CountForEntity(domain.Identity{}, rec.ID)
	assert.ErrorIs(t, err, domain.ErrForbidden)
}
