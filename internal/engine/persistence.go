// Package engine implements the embedded document engine and its on-disk persistence.
package engine

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// Persistence handles the disk I/O for the MemStore, one JSON file per collection.
type Persistence struct {
	DataDir string
	mu      sync.Mutex // Protects concurrent writes to the filesystem
	logger  *zap.Logger
}

// NewPersistence initializes a persistence handler.
func NewPersistence(dir string, logger *zap.Logger) (*Persistence, error) {
	// Ensure the data directory exists
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Persistence{DataDir: dir, logger: logger}, nil
}

// SaveCollection writes a single collection to a JSON file atomically.
func (p *Persistence) SaveCollection(name string, docs map[string]json.RawMessage) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	filePath := filepath.Join(p.DataDir, name+".json")
	tempPath := filePath + ".tmp"

	data, err := json.MarshalIndent(docs, "", "  ")
	if err != nil {
		return err
	}

	if err := os.WriteFile(tempPath, data, 0o644); err != nil {
		return err
	}

	// Readers see either the old file or the new one, never a partial write.
	return os.Rename(tempPath, filePath)
}

// LoadAll returns all collections found in the data directory.
// Unreadable or corrupt files are skipped with a warning.
func (p *Persistence) LoadAll() (map[string]map[string]json.RawMessage, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	allData := make(map[string]map[string]json.RawMessage)

	files, err := os.ReadDir(p.DataDir)
	if err != nil {
		return nil, err
	}

	for _, file := range files {
		if file.IsDir() || filepath.Ext(file.Name()) != ".json" {
			continue
		}
		collection := strings.TrimSuffix(file.Name(), ".json")

		content, err := os.ReadFile(filepath.Join(p.DataDir, file.Name()))
		if err != nil {
			p.logger.Warn("could not read collection file", zap.String("file", file.Name()), zap.Error(err))
			continue
		}

		var docs map[string]json.RawMessage
		if err := json.Unmarshal(content, &docs); err != nil {
			p.logger.Warn("could not decode collection file", zap.String("file", file.Name()), zap.Error(err))
			continue
		}
		// MarshalIndent in SaveCollection re-indents every document; undo it so
		// reloaded bytes match what was stored.
		for id, doc := range docs {
			var buf bytes.Buffer
			if err := json.Compact(&buf, doc); err != nil {
				p.logger.Warn("could not compact document", zap.String("collection", collection), zap.String("id", id), zap.Error(err))
				continue
			}
			docs[id] = buf.Bytes()
		}
		allData[collection] = docs
	}
	return allData, nil
}

func (p *Persistence) String() string {
	return fmt.Sprintf("json:%s", p.DataDir)
}
