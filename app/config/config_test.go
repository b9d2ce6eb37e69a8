package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.App.Port)
	assert.Equal(t, "address_parser", cfg.Mongo.Database)
	assert.Equal(t, 24*time.Hour, cfg.Cache.TTL)
	assert.Equal(t, 8, cfg.Batch.Workers)
	assert.InDelta(t, 0.7, cfg.Suggest.JWWeight, 1e-9)
	assert.False(t, cfg.IsProduction())
	assert.Equal(t, 1500*time.Millisecond, RequestTimeout())
}

func TestLoad_FileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.yaml")
	content := "app:\n  env: production\n  request_timeout: 3s\nbatch:\n  workers: 3\nmeilisearch:\n  index: book\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	t.Setenv("REDIS_URL", "redis://cache:6379/2")
	t.Setenv("CACHE_L1_SIZE", "42")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.True(t, cfg.IsProduction())
	assert.Equal(t, 3, cfg.Batch.Workers)
	assert.Equal(t, "book", cfg.Meilisearch.Index)
	assert.Equal(t, "redis://cache:6379/2", cfg.Redis.URL)
	assert.Equal(t, 42, cfg.Cache.L1Size)
	assert.Equal(t, 3*time.Second, RequestTimeout())
	assert.Equal(t, *cfg, C)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("batch:\n  workers: 0\n"), 0o644))
	_, err = Load(path)
	assert.ErrorContains(t, err, "batch.workers")
}
