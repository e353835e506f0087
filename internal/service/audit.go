package service

import (
	"time"

	"github.com/granjapro/granja/internal/domain"
)

// AuditService is the read side of the audit log, restricted to Admins.
type AuditService struct {
	audit AuditLog
}

func NewAuditService(audit AuditLog) *AuditService {
	return &AuditService{audit: audit}
}

func (s *AuditService) ByEntity(actor domain.Identity, entityID string) ([]domain.AuditEntry, error) {
	if err := requireRole(actor, domain.RoleAdmin); err != nil {
		return nil, err
	}
	return s.audit.FindByEntity(entityID)
}

func (s *AuditService) ByActor(actor domain.Identity, actorID string) ([]domain.AuditEntry, error) {
	if err := requireRole(actor, domain.RoleAdmin); err != nil {
		return nil, err
	}
	return s.audit.FindByActor(actorID)
}

// ByDateRange includes both ends.
func (s *AuditService) ByDateRange(actor domain.Identity, from, to time.Time) ([]domain.AuditEntry, error) {
	if err := requireRole(actor, domain.RoleAdmin); err != nil {
		return nil, err
	}
	return s.audit.FindByDateRange(from, to)
}

func (s *AuditService) ByEntityType(actor domain.Identity, t domain.EntityType) ([]domain.AuditEntry, error) {
	if err := requireRole(actor, domain.RoleAdmin); err != nil {
		return nil, err
	}
	return s.audit.FindByEntityType(t)
}

func (s *AuditService) All(actor domain.Identity) ([]domain.AuditEntry, error) {
	if err := requireRole(actor, domain.RoleAdmin); err != nil {
		return nil, err
	}
	return s.audit.ListAll()
}

func (s *AuditService) CountForEntity(actor domain.Identity, entityID string) (int, error) {
	if err := requireRole(actor, domain.RoleAdmin); err != nil {
		return 0, err
	}
	return s.audit.CountForEntity(entityID)
}
