// Package service implements GranjaPro's use cases on top of the repositories.
// The console talks to these services only, never to a store.
package service

import (
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/granjapro/granja/internal/domain"
)

// CredentialStore persists identities.
type CredentialStore interface {
	FindByName(name string) (domain.Identity, bool, error)
	FindByID(id string) (domain.Identity, bool, error)
	ExistsByName(name string) (bool, error)
	Insert(identity domain.Identity) (domain.Identity, error)
	Update(identity domain.Identity) error
	ListAll() ([]domain.Identity, error)
	Count() (int, error)
}

// AuditLog is the append-only log of changes.
type AuditLog interface {
	Append(entry domain.AuditEntry) (domain.AuditEntry, error)
	FindByActor(actorID string) ([]domain.AuditEntry, error)
	FindByEntity(entityID string) ([]domain.AuditEntry, error)
	FindByDateRange(from, to time.Time) ([]domain.AuditEntry, error)
	FindByEntityType(t domain.EntityType) ([]domain.AuditEntry, error)
	ListAll() ([]domain.AuditEntry, error)
	CountForEntity(entityID string) (int, error)
}

type LotStore interface {
	Save(lot domain.Lot) (domain.Lot, error)
	FindByID(id string) (domain.Lot, bool, error)
	FindAll() ([]domain.Lot, error)
}

type ProductionStore interface {
	Save(record domain.ProductionRecord) (domain.ProductionRecord, error)
	FindByID(id string) (domain.ProductionRecord, bool, error)
	FindAll() ([]domain.ProductionRecord, error)
	FindByLot(lotID string) ([]domain.ProductionRecord, error)
}

type AlertStore interface {
	Save(alert domain.Alert) (domain.Alert, error)
	FindByLot(lotID string) ([]domain.Alert, error)
	FindPendingByLot(lotID string) ([]domain.Alert, error)
	FindCriticalPending() ([]domain.Alert, error)
	Resolve(id string) error
	CountPending() (int, error)
}

// PasswordDigester is the one-way password function.
type PasswordDigester interface {
	Digest(plaintext string) string
	Matches(digest, plaintext string) bool
}

// Option configures a service.
type Option func(*options)

type options struct {
	nowFn  func() time.Time
	logger *zap.Logger
}

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.nowFn = now }
}

func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{nowFn: time.Now, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// requireRole checks an explicitly passed actor.
func requireRole(actor domain.Identity, role domain.Role) error {
	if actor.ID == "" {
		return fmt.Errorf("%w: login required", domain.ErrForbidden)
	}
	if !actor.HasRole(role) {
		return fmt.Errorf("%w: %s role required", domain.ErrForbidden, role)
	}
	return nil
}

func requireAuthenticated(actor domain.Identity) error {
	if actor.ID == "" {
		return fmt.Errorf("%w: login required", domain.ErrForbidden)
	}
	return nil
}

func requireID(kind, id string) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("%w: %s id must not be blank", domain.ErrValidation, kind)
	}
	return nil
}
