package repository

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/granjapro/granja/internal/domain"
	"github.com/granjapro/granja/pkg/docstore"
)

type auditDoc struct {
	ID         string    `json:"id"`
	Timestamp  time.Time `json:"timestamp"`
	ActorID    string    `json:"actorId"`
	ActorName  string    `json:"actorName"`
	EntityID   string    `json:"entityId"`
	EntityType string    `json:"entityType"`
	FieldName  *string   `json:"fieldName,omitempty"`
	OldValue   *string   `json:"oldValue,omitempty"`
	NewValue   *string   `json:"newValue,omitempty"`
	Reason     string    `json:"reason"`
	Action     string    `json:"action"`
}

func (d auditDoc) toDomain() (domain.AuditEntry, error) {
	et, err := domain.ParseEntityType(d.EntityType)
	if err != nil {
		return domain.AuditEntry{}, corrupt(CollectionAudit, d.ID, err)
	}
	action, err := domain.ParseAction(d.Action)
	if err != nil {
		return domain.AuditEntry{}, corrupt(CollectionAudit, d.ID, err)
	}
	e := domain.AuditEntry{
		ID:         d.ID,
		Timestamp:  d.Timestamp,
		ActorID:    d.ActorID,
		ActorName:  d.ActorName,
		EntityID:   d.EntityID,
		EntityType: et,
		Reason:     d.Reason,
		Action:     action,
	}
	if d.FieldName != nil {
		e.Change = &domain.FieldChange{Field: *d.FieldName}
		if d.OldValue != nil {
			e.Change.OldValue = *d.OldValue
		}
		if d.NewValue != nil {
			e.Change.NewValue = *d.NewValue
		}
	}
	if err := e.Validate(); err != nil {
		return domain.AuditEntry{}, corrupt(CollectionAudit, d.ID, err)
	}
	return e, nil
}

func auditToDoc(e domain.AuditEntry) auditDoc {
	d := auditDoc{
		ID:         e.ID,
		Timestamp:  e.Timestamp.UTC(),
		ActorID:    e.ActorID,
		ActorName:  e.ActorName,
		EntityID:   e.EntityID,
		EntityType: string(e.EntityType),
		Reason:     e.Reason,
		Action:     string(e.Action),
	}
	if e.Change != nil {
		field, oldValue, newValue := e.Change.Field, e.Change.OldValue, e.Change.NewValue
		d.FieldName, d.OldValue, d.NewValue = &field, &oldValue, &newValue
	}
	return d
}

// AuditRepository is the append-only audit log. It has no update or delete.
type AuditRepository struct {
	store docstore.Store
}

func NewAuditRepository(s docstore.Store) *AuditRepository {
	return &AuditRepository{store: s}
}

// Append validates and stores a new entry, returning it with its assigned id.
func (r *AuditRepository) Append(e domain.AuditEntry) (domain.AuditEntry, error) {
	if err := e.Validate(); err != nil {
		return domain.AuditEntry{}, err
	}
	if e.ID == "" {
		e.ID = newID()
	} else {
		_, err := r.store.Get(CollectionAudit, e.ID)
		if err == nil {
			return domain.AuditEntry{}, fmt.Errorf("audit entry %s already exists", e.ID)
		}
		if !errors.Is(err, docstore.ErrDocumentNotFound) {
			return domain.AuditEntry{}, err
		}
	}
	if err := docstore.Put(r.store, CollectionAudit, e.ID, auditToDoc(e)); err != nil {
		return domain.AuditEntry{}, err
	}
	return e, nil
}

// ListAll returns every entry in chronological order.
func (r *AuditRepository) ListAll() ([]domain.AuditEntry, error) {
	return r.filter(func(domain.AuditEntry) bool { return true })
}

// FindByActor returns the actor's entries, most recent first.
func (r *AuditRepository) FindByActor(actorID string) ([]domain.AuditEntry, error) {
	out, err := r.filter(func(e domain.AuditEntry) bool { return e.ActorID == actorID })
	if err != nil {
		return nil, err
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

// FindByEntity returns the history of one entity in chronological order.
func (r *AuditRepository) FindByEntity(entityID string) ([]domain.AuditEntry, error) {
	return r.filter(func(e domain.AuditEntry) bool { return e.EntityID == entityID })
}

// FindByDateRange returns entries with from <= timestamp <= to.
func (r *AuditRepository) FindByDateRange(from, to time.Time) ([]domain.AuditEntry, error) {
	return r.filter(func(e domain.AuditEntry) bool {
		return !e.Timestamp.Before(from) && !e.Timestamp.After(to)
	})
}

func (r *AuditRepository) FindByEntityType(t domain.EntityType) ([]domain.AuditEntry, error) {
	return r.filter(func(e domain.AuditEntry) bool { return e.EntityType == t })
}

func (r *AuditRepository) CountForEntity(entityID string) (int, error) {
	entries, err := r.FindByEntity(entityID)
	return len(entries), err
}

// filter decodes the whole log and keeps matching entries, oldest first.
// The result is never nil.
func (r *AuditRepository) filter(keep func(domain.AuditEntry) bool) ([]domain.AuditEntry, error) {
	docs, err := docstore.All[auditDoc](r.store, CollectionAudit)
	if err != nil {
		return nil, err
	}
	out := make([]domain.AuditEntry, 0)
	for _, d := range docs {
		e, err := d.toDomain()
		if err != nil {
			return nil, err
		}
		if keep(e) {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(a, b int) bool {
		if !out[a].Timestamp.Equal(out[b].Timestamp) {
			return out[a].Timestamp.Before(out[b].Timestamp)
		}
		return out[a].ID < out[b].ID
	})
	return out, nil
}
