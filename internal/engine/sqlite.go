package engine

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite" // pure-Go SQLite driver (no CGO required)
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS documents (
    collection TEXT NOT NULL,
    id         TEXT NOT NULL,
    body       TEXT NOT NULL,
    PRIMARY KEY (collection, id)
);
CREATE INDEX IF NOT EXISTS idx_documents_collection ON documents(collection);
`

// SQLitePersistence keeps every collection in a single SQLite table.
type SQLitePersistence struct {
	path string
	db   *sql.DB
	mu   sync.Mutex
}

// NewSQLitePersistence opens (and creates if needed) the database at path.
func NewSQLitePersistence(path string) (*SQLitePersistence, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %q: %w", path, err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(`PRAGMA journal_mode=WAL`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable WAL: %w", err)
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &SQLitePersistence{path: path, db: db}, nil
}

// SaveCollection replaces the stored collection in one transaction.
func (s *SQLitePersistence) SaveCollection(name string, docs map[string]json.RawMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.Exec(`DELETE FROM documents WHERE collection = ?`, name); err != nil {
		return fmt.Errorf("clear collection %s: %w", name, err)
	}

	stmt, err := tx.Prepare(`INSERT INTO documents (collection, id, body) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for id, body := range docs {
		if _, err := stmt.Exec(name, id, string(body)); err != nil {
			return fmt.Errorf("insert %s/%s: %w", name, id, err)
		}
	}
	return tx.Commit()
}

// LoadAll reads every stored document.
func (s *SQLitePersistence) LoadAll() (map[string]map[string]json.RawMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Query(`SELECT collection, id, body FROM documents`)
	if err != nil {
		return nil, fmt.Errorf("query documents: %w", err)
	}
	defer rows.Close()

	all := make(map[string]map[string]json.RawMessage)
	for rows.Next() {
		var collection, id, body string
		if err := rows.Scan(&collection, &id, &body); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		if all[collection] == nil {
			all[collection] = make(map[string]json.RawMessage)
		}
		all[collection][id] = json.RawMessage(body)
	}
	return all, rows.Err()
}

// Close releases the database handle.
func (s *SQLitePersistence) Close() error {
	return s.db.Close()
}

func (s *SQLitePersistence) String() string {
	return fmt.Sprintf("sqlite:%s", s.path)
}
