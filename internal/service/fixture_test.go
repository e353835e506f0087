package service_test

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/granjapro/granja/internal/domain"
	"github.com/granjapro/granja/internal/engine"
	"github.com/granjapro/granja/internal/repository"
	"github.com/granjapro/granja/internal/service"
	"github.com/granjapro/granja/internal/session"
	"github.com/granjapro/granja/internal/vault"
)

// flakyPersister fails writes to the collections listed in failing.
type flakyPersister struct {
	failing map[string]bool
}

func (p *flakyPersister) SaveCollection(name string, _ map[string]json.RawMessage) error {
	if p.failing[name] {
		return errors.New("disk full")
	}
	return nil
}

func (p *flakyPersister) LoadAll() (map[string]map[string]json.RawMessage, error) {
	return map[string]map[string]json.RawMessage{}, nil
}

type fixture struct {
	now  time.Time
	disk *flakyPersister

	holder     *session.Holder
	users      *repository.UserRepository
	audit      *repository.AuditRepository
	lots       *repository.LotRepository
	production *repository.ProductionRepository
	alerts     *repository.AlertRepository

	auth       *service.AuthService
	lotSvc     *service.LotService
	prodSvc    *service.ProductionService
	analytics  *service.AnalyticsService
	auditQuery *service.AuditService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	disk := &flakyPersister{failing: map[string]bool{}}
	store := engine.NewMemStore(nil, disk)
	f := &fixture{
		now:        time.Date(2026, 3, 10, 9, 30, 0, 0, time.UTC),
		disk:       disk,
		holder:     session.NewHolder(),
		users:      repository.NewUserRepository(store),
		audit:      repository.NewAuditRepository(store),
		lots:       repository.NewLotRepository(store),
		production: repository.NewProductionRepository(store),
		alerts:     repository.NewAlertRepository(store),
	}
	clock := service.WithClock(func() time.Time { return f.now })

	f.auth = service.NewAuthService(f.users, f.audit, vault.NewDigester("test-pepper"), f.holder, clock)
	f.lotSvc = service.NewLotService(f.lots, f.audit, clock)
	f.prodSvc = service.NewProductionService(f.production, f.lots, f.audit, clock)
	f.analytics = service.NewAnalyticsService(f.lots, f.production, f.alerts, service.DefaultThresholds(), clock)
	f.auditQuery = service.NewAuditService(f.audit)
	return f
}

// asAdmin bootstraps the first Admin and logs in as them.
func (f *fixture) asAdmin(t *testing.T) domain.Identity {
	t.Helper()
	_, err := f.auth.BootstrapAdmin("root", "rootpass")
	require.NoError(t, err)
	admin, err := f.auth.Login("root", "rootpass")
	require.NoError(t, err)
	return admin
}

func (f *fixture) newLot(t *testing.T, admin domain.Identity, birds int) domain.Lot {
	t.Helper()
	lot, err := f.lotSvc.CreateLot(admin, "L-01", "Isa Brown", birds, "G1")
	require.NoError(t, err)
	return lot
}

func intPtr(n int) *int { return &n }
