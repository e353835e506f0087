// Package storage opens the document store the configuration asks for: the
// embedded engine over JSON files or SQLite, or a remote store daemon.
package storage

import (
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/granjapro/granja/internal/config"
	"github.com/granjapro/granja/internal/engine"
	"github.com/granjapro/granja/pkg/docstore"
)

// Open returns the configured store and a closer to release it on shutdown.
// A remote daemon that cannot be reached is an error; there is no silent
// fallback to local files, which would hold different data.
func Open(cfg config.StoreConfig, logger *zap.Logger) (docstore.Store, io.Closer, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	if cfg.Backend == config.BackendRemote {
		client, err := docstore.Connect(cfg.Addr, docstore.WithTLS(cfg.TLS), docstore.WithLogger(logger))
		if err != nil {
			return nil, nil, fmt.Errorf("connect to store at %s: %w", cfg.Addr, err)
		}
		if err := client.Ping(); err != nil {
			_ = client.Close()
			return nil, nil, fmt.Errorf("ping store at %s: %w", cfg.Addr, err)
		}
		logger.Info("using remote store", zap.String("addr", cfg.Addr), zap.Bool("tls", cfg.TLS))
		return client, client, nil
	}

	p, closer, err := engine.NewPersister(cfg.Backend, cfg.DataDir, cfg.SQLitePath, logger)
	if err != nil {
		return nil, nil, err
	}
	store, err := engine.Open(p)
	if err != nil {
		_ = closer.Close()
		return nil, nil, err
	}
	logger.Info("using embedded store", zap.String("backend", cfg.Backend), zap.String("persister", fmt.Sprint(p)))
	return store, closer, nil
}
