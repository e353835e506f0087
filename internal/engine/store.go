package engine

import (
	"errors"
	"fmt"
	"io"

	"go.uber.org/zap"
)

// Backend names accepted by NewPersister.
const (
	BackendJSON   = "json"
	BackendSQLite = "sqlite"
)

// ErrUnknownBackend is returned for a backend name NewPersister does not know.
var ErrUnknownBackend = errors.New("unknown storage backend")

// NewPersister builds the persister for a local backend. The returned closer
// must be called on shutdown; it is a no-op for the JSON backend.
func NewPersister(backend, dataDir, sqlitePath string, logger *zap.Logger) (Persister, io.Closer, error) {
	switch backend {
	case BackendJSON:
		p, err := NewPersistence(dataDir, logger)
		if err != nil {
			return nil, nil, err
		}
		return p, nopCloser{}, nil
	case BackendSQLite:
		p, err := NewSQLitePersistence(sqlitePath)
		if err != nil {
			return nil, nil, err
		}
		return p, p, nil
	default:
		return nil, nil, fmt.Errorf("%w: %q", ErrUnknownBackend, backend)
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
