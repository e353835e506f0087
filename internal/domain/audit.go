package domain

import (
	"strings"
	"time"
)

// EntityType is the closed set of entities an audit entry can refer to.
type EntityType string

const (
	EntityLot        EntityType = "Lot"
	EntityProduction EntityType = "Production"
	EntityUser       EntityType = "User"
)

// ParseEntityType decodes an entity type, ignoring case.
func ParseEntityType(s string) (EntityType, error) {
	for _, t := range []EntityType{EntityLot, EntityProduction, EntityUser} {
		if strings.EqualFold(strings.TrimSpace(s), string(t)) {
			return t, nil
		}
	}
	return "", invalid("unknown entity type %q", s)
}

// Action is the closed set of audited actions.
type Action string

const (
	ActionCreate Action = "Create"
	ActionUpdate Action = "Update"
	ActionDelete Action = "Delete"
)

// ParseAction decodes an action, ignoring case.
func ParseAction(s string) (Action, error) {
	for _, a := range []Action{ActionCreate, ActionUpdate, ActionDelete} {
		if strings.EqualFold(strings.TrimSpace(s), string(a)) {
			return a, nil
		}
	}
	return "", invalid("unknown audit action %q", s)
}

// FieldChange is the before/after of a single field.
type FieldChange struct {
	Field    string
	OldValue string
	NewValue string
}

// AuditEntry records one change. Entries are written once and never modified.
type AuditEntry struct {
	ID         string
	Timestamp  time.Time
	ActorID    string
	ActorName  string
	EntityID   string
	EntityType EntityType
	// Change is required for updates and optional otherwise.
	Change *FieldChange
	Reason string
	Action Action
}

// NewUpdateEntry describes a field correction made by actor.
func NewUpdateEntry(actor Identity, entityID string, entityType EntityType, field, oldValue, newValue, reason string, at time.Time) AuditEntry {
	return AuditEntry{
		Timestamp:  at,
		ActorID:    actor.ID,
		ActorName:  actor.Name,
		EntityID:   entityID,
		EntityType: entityType,
		Change:     &FieldChange{Field: field, OldValue: oldValue, NewValue: newValue},
		Reason:     reason,
		Action:     ActionUpdate,
	}
}

// NewActionEntry describes a create or delete made by actor.
func NewActionEntry(actor Identity, entityID string, entityType EntityType, action Action, reason string, at time.Time) AuditEntry {
	return AuditEntry{
		Timestamp:  at,
		ActorID:    actor.ID,
		ActorName:  actor.Name,
		EntityID:   entityID,
		EntityType: entityType,
		Reason:     reason,
		Action:     action,
	}
}

// Validate enforces the fields each action requires.
func (e AuditEntry) Validate() error {
	if strings.TrimSpace(e.ActorID) == "" {
		return invalid("audit entry needs an actor")
	}
	if strings.TrimSpace(e.EntityID) == "" {
		return invalid("audit entry needs an entity id")
	}
	if e.Timestamp.IsZero() {
		return invalid("audit entry needs a timestamp")
	}
	if _, err := ParseEntityType(string(e.EntityType)); err != nil {
		return err
	}
	if _, err := ParseAction(string(e.Action)); err != nil {
		return err
	}
	if e.Action == ActionUpdate && (e.Change == nil || strings.TrimSpace(e.Change.Field) == "") {
		return invalid("update audit entry needs a field with old and new values")
	}
	return nil
}
