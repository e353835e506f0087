package logging

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/granjapro/granja/internal/config"
)

func TestNewWritesJSONLines(t *testing.T) {
	cfg := config.Default().Log
	cfg.Path = filepath.Join(t.TempDir(), "logs", "granja.log")
	cfg.Level = "info"

	logger, closeFn, err := New(cfg, false)
	require.NoError(t, err)

	logger.Debug("hidden")
	logger.Named("auth").Info("login", zap.String("name", "alice"))
	require.NoError(t, closeFn())

	raw, err := os.ReadFile(cfg.Path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	require.Len(t, lines, 1)

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "auth", entry["logger"])
	assert.Equal(t, "login", entry["message"])
	assert.Equal(t, "alice", entry["name"])
	assert.Contains(t, entry, "timestamp")
}

func TestNewRejectsUnknownLevel(t *testing.T) {
	cfg := config.Default().Log
	cfg.Level = "chatty"
	_, _, err := New(cfg, false)
	assert.Error(t, err)
}
