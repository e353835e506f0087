// Package repository maps GranjaPro's entities onto document store collections.
// Every repository owns the persisted shape of its documents and decodes them
// strictly into domain types.
package repository

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/granjapro/granja/pkg/docstore"
)

// Collection names.
const (
	CollectionIdentities = "identities"
	CollectionAudit      = "audit_entries"
	CollectionLots       = "lots"
	CollectionProduction = "production_records"
	CollectionAlerts     = "alerts"
)

// newID returns a time-ordered UUID so ties on timestamps still sort in insertion order.
func newID() string {
	return uuid.Must(uuid.NewV7()).String()
}

// lookup fetches one document. A missing document (or an id the store cannot
// address) is reported as not found rather than as an error.
func lookup[T any](s docstore.DocumentReader, collection, id string) (T, bool, error) {
	v, err := docstore.Get[T](s, collection, id)
	switch {
	case errors.Is(err, docstore.ErrDocumentNotFound), errors.Is(err, docstore.ErrInvalidName):
		var zero T
		return zero, false, nil
	case err != nil:
		return v, false, err
	}
	return v, true, nil
}

func corrupt(collection, id string, err error) error {
	return fmt.Errorf("stored document %s/%s is invalid: %w", collection, id, err)
}
