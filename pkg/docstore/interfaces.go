// Package docstore provides the document store contract used by GranjaPro and
// the client-side library for reaching a remote store daemon.
// It supports both remote connections via TCP/TLS and local embedded mode.
package docstore

import (
	"encoding/json"
	"errors"
)

var (
	// ErrDocumentNotFound is returned when a requested document does not exist.
	ErrDocumentNotFound = errors.New("document not found")
	// ErrInvalidName is returned for collection or document ids the wire protocol cannot carry.
	ErrInvalidName = errors.New("invalid collection or document name")
)

// --- Functional Interfaces (Interface Segregation) ---

// DocumentReader defines the basic read operations for the store.
type DocumentReader interface {
	Get(collection, id string) (json.RawMessage, error)
}

// DocumentWriter defines the basic write and delete operations for the store.
type DocumentWriter interface {
	Put(collection, id string, doc json.RawMessage) error
	Delete(collection, id string) error
}

// CollectionLister allows retrieving whole collections and discovering them.
type CollectionLister interface {
	// List returns every document of a collection keyed by id.
	// An unknown collection yields an empty map.
	List(collection string) (map[string]json.RawMessage, error)
	Collections() ([]string, error)
}

// --- Composite Interfaces ---

// Store is the primary interface for interacting with the document store.
// Both the embedded engine and the remote client implement it.
type Store interface {
	DocumentReader
	DocumentWriter
	CollectionLister

	// Collection returns a CollectionScope pinned to one collection.
	Collection(name string) CollectionScope
}

// CollectionScope provides a simplified, scoped interface for a single collection.
type CollectionScope interface {
	Get(id string) (json.RawMessage, error)
	Put(id string, doc json.RawMessage) error
	Delete(id string) error
	All() (map[string]json.RawMessage, error)
}

// Scope returns a CollectionScope over any store.
func Scope(s Store, collection string) CollectionScope {
	return &scope{store: s, collection: collection}
}

type scope struct {
	store      Store
	collection string
}

func (c *scope) Get(id string) (json.RawMessage, error) { return c.store.Get(c.collection, id) }

func (c *scope) Put(id string, doc json.RawMessage) error {
	return c.store.Put(c.collection, id, doc)
}

func (c *scope) Delete(id string) error { return c.store.Delete(c.collection, id) }

func (c *scope) All() (map[string]json.RawMessage, error) { return c.store.List(c.collection) }
