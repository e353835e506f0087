package engine

import (
	"fmt"

	"github.com/granjapro/granja/pkg/docstore"
)

// Migrate copies every document from src into dst.
// This works for:
// - JSON files -> SQLite (moving to a single database file)
// - Embedded -> Remote (seeding a daemon from a local copy)
// It returns the number of documents written.
func Migrate(src, dst docstore.Store) (int, error) {
	collections, err := src.Collections()
	if err != nil {
		return 0, fmt.Errorf("failed to list collections: %w", err)
	}

	written := 0
	for _, name := range collections {
		docs, err := src.List(name)
		if err != nil {
			return written, fmt.Errorf("failed to list collection %s: %w", name, err)
		}

		for id, doc := range docs {
			if err := dst.Put(name, id, doc); err != nil {
				return written, fmt.Errorf("failed to put %s/%s in destination: %w", name, id, err)
			}
			written++
		}
	}

	return written, nil
}
