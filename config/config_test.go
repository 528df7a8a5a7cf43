package config

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFileDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("logging:\n  level: debug\n"), 0o644))

	cfg, err := LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Address)
	assert.Equal(t, 10*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, BackendFile, cfg.Storage.Backend)
	assert.Equal(t, "Classes", filepath.Base(cfg.Storage.ClassesDir))
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.False(t, cfg.Catalog.Sort)
	assert.False(t, cfg.Selector.ResetLuckyOnLoad)
}

func TestLoadFileOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
storage:
  backend: redis
redis:
  addr: redis:6379
  db: 3
catalog:
  sort: true
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	t.Setenv("SELECTOR_RESET_LUCKY_ON_LOAD", "true")

	cfg, err := LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, BackendRedis, cfg.Storage.Backend)
	assert.Equal(t, "redis:6379", cfg.Redis.Addr)
	assert.Equal(t, 3, cfg.Redis.DB)
	assert.True(t, cfg.Catalog.Sort)
	assert.True(t, cfg.Selector.ResetLuckyOnLoad)
}

func TestLoadFileUnknownBackend(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("storage:\n  backend: s3\n"), 0o644))

	_, err := LoadFile(path)
	assert.ErrorContains(t, err, "unknown storage backend")
}

func TestDefaultClassesDirUsesDataHome(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("uses LOCALAPPDATA")
	}
	dataHome := t.TempDir()
	t.Setenv("XDG_DATA_HOME", dataHome)

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("logging:\n  level: info\n"), 0o644))

	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dataHome, "Classes"), cfg.Storage.ClassesDir)
}
