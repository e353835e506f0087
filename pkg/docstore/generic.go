package docstore

import (
	"encoding/json"
	"fmt"
	"strings"
	"unicode"
)

// ValidName reports whether a collection or document id can be stored and
// carried over the line protocol.
func ValidName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty", ErrInvalidName)
	}
	if strings.IndexFunc(name, unicode.IsSpace) >= 0 {
		return fmt.Errorf("%w: %q contains whitespace", ErrInvalidName, name)
	}
	return nil
}

// --- Generics Support ---

// Get retrieves a document and decodes it into T.
func Get[T any](s DocumentReader, collection, id string) (T, error) {
	var target T
	raw, err := s.Get(collection, id)
	if err != nil {
		return target, err
	}
	if err := json.Unmarshal(raw, &target); err != nil {
		return target, fmt.Errorf("decode %s/%s: %w", collection, id, err)
	}
	return target, nil
}

// Put encodes val and stores it under collection/id.
func Put[T any](s DocumentWriter, collection, id string, val T) error {
	raw, err := json.Marshal(val)
	if err != nil {
		return fmt.Errorf("encode %s/%s: %w", collection, id, err)
	}
	return s.Put(collection, id, raw)
}

// All decodes every document of a collection. Documents are returned keyed by id.
func All[T any](s CollectionLister, collection string) (map[string]T, error) {
	docs, err := s.List(collection)
	if err != nil {
		return nil, err
	}
	out := make(map[string]T, len(docs))
	for id, raw := range docs {
		var v T
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, fmt.Errorf("decode %s/%s: %w", collection, id, err)
		}
		out[id] = v
	}
	return out, nil
}
