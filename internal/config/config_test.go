package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("MEDIASCOPE_CONFIG", "")
	t.Setenv("MEDIASCOPE_HTTP_ADDR", "")

	cfg := Load()

	assert.Equal(t, ":8080", cfg.HTTP.Addr)
	assert.Equal(t, int64(50<<20), cfg.Pipeline.MaxDownloadBytes)
	assert.Equal(t, 20*time.Second, cfg.Pipeline.FetchTimeout)
	assert.Equal(t, 12, cfg.Pipeline.FrameCap)
	assert.Equal(t, 10, cfg.Pipeline.PageCap)
	assert.Equal(t, 4, cfg.Pipeline.BatchWorkers)
	assert.Equal(t, 720, cfg.YouTube.MaxHeight)
	assert.Equal(t, "id", cfg.Translation.Language)
	assert.Zero(t, cfg.History.MaxAge)
}

func TestLoadFileAndEnvOverrides(t *testing.T) {
	raw := `
http:
  addr: ":9090"
pipeline:
  frameCap: 6
  batchWorkers: 2
history:
  maxAge: 720h
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(raw), 0o644))

	t.Setenv("MEDIASCOPE_CONFIG", path)
	t.Setenv("MEDIASCOPE_HTTP_ADDR", ":7070")
	t.Setenv("CLASSIFIER_URL", "http://inference.local/classify")

	cfg := Load()

	// Env beats file, file beats defaults.
	assert.Equal(t, ":7070", cfg.HTTP.Addr)
	assert.Equal(t, "http://inference.local/classify", cfg.Classifier.Endpoint)
	assert.Equal(t, 6, cfg.Pipeline.FrameCap)
	assert.Equal(t, 2, cfg.Pipeline.BatchWorkers)
	assert.Equal(t, 720*time.Hour, cfg.History.MaxAge)
	// Untouched values keep their defaults.
	assert.Equal(t, 10, cfg.Pipeline.PageCap)
}

func TestLoadIgnoresUnreadableFile(t *testing.T) {
	t.Setenv("MEDIASCOPE_CONFIG", filepath.Join(t.TempDir(), "missing.yaml"))

	cfg := Load()
	assert.Equal(t, ":8080", cfg.HTTP.Addr)
}
