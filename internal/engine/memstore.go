package engine

import (
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/granjapro/granja/pkg/docstore"
)

var _ docstore.Store = (*MemStore)(nil)

// MemStore is the thread-safe in-memory document engine.
// Every write is handed to the persister before the call returns.
type MemStore struct {
	mu sync.RWMutex
	// Structure: [collection][id]document
	data      map[string]map[string]json.RawMessage
	persister Persister
}

// Persister stores whole collections. Implementations must be safe to call
// while the MemStore write lock is held.
type Persister interface {
	SaveCollection(name string, docs map[string]json.RawMessage) error
	LoadAll() (map[string]map[string]json.RawMessage, error)
}

// NewMemStore initializes a store.
// It accepts existing data (from LoadAll) and an optional persister.
func NewMemStore(initialData map[string]map[string]json.RawMessage, p Persister) *MemStore {
	if initialData == nil {
		initialData = make(map[string]map[string]json.RawMessage)
	}
	return &MemStore{
		data:      initialData,
		persister: p,
	}
}

// Open loads everything the persister holds and returns a store backed by it.
func Open(p Persister) (*MemStore, error) {
	initial, err := p.LoadAll()
	if err != nil {
		return nil, fmt.Errorf("load documents: %w", err)
	}
	return NewMemStore(initial, p), nil
}

// --- Interface Implementation ---

func (m *MemStore) Get(collection, id string) (json.RawMessage, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	doc, ok := m.data[collection][id]
	if !ok {
		return nil, docstore.ErrDocumentNotFound
	}
	return cloneDoc(doc), nil
}

func (m *MemStore) Put(collection, id string, doc json.RawMessage) error {
	if err := docstore.ValidName(collection); err != nil {
		return err
	}
	if err := docstore.ValidName(id); err != nil {
		return err
	}
	if !json.Valid(doc) {
		return fmt.Errorf("put %s/%s: document is not valid JSON", collection, id)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.data[collection] == nil {
		m.data[collection] = make(map[string]json.RawMessage)
	}
	prev, existed := m.data[collection][id]
	m.data[collection][id] = cloneDoc(doc)

	if err := m.persist(collection); err != nil {
		if existed {
			m.data[collection][id] = prev
		} else {
			delete(m.data[collection], id)
		}
		return err
	}
	return nil
}

func (m *MemStore) Delete(collection, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	prev, ok := m.data[collection][id]
	if !ok {
		return nil
	}
	delete(m.data[collection], id)

	if err := m.persist(collection); err != nil {
		m.data[collection][id] = prev
		return err
	}
	return nil
}

// persist MUST be called while holding m.mu.Lock.
func (m *MemStore) persist(collection string) error {
	if m.persister == nil {
		return nil
	}
	if err := m.persister.SaveCollection(collection, m.copyCollection(collection)); err != nil {
		return fmt.Errorf("persist collection %s: %w", collection, err)
	}
	return nil
}

// copyCollection creates a deep copy of a collection.
// It MUST be called while holding m.mu.Lock or m.mu.RLock.
func (m *MemStore) copyCollection(collection string) map[string]json.RawMessage {
	original := m.data[collection]
	out := make(map[string]json.RawMessage, len(original))
	for id, doc := range original {
		out[id] = cloneDoc(doc)
	}
	return out
}

func (m *MemStore) List(collection string) (map[string]json.RawMessage, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.copyCollection(collection), nil
}

func (m *MemStore) Collections() ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	list := make([]string, 0, len(m.data))
	for name, docs := range m.data {
		if len(docs) > 0 {
			list = append(list, name)
		}
	}
	sort.Strings(list)
	return list, nil
}

func (m *MemStore) Collection(name string) docstore.CollectionScope {
	return docstore.Scope(m, name)
}

func cloneDoc(doc json.RawMessage) json.RawMessage {
	out := make(json.RawMessage, len(doc))
	copy(out, doc)
	return out
}
