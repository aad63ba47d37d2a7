package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omnicraft/sig"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		cfg, err := Load("")
		require.NoError(t, err)
		assert.Equal(t, DefaultConfig(), cfg)
	})

	t.Run("yaml file", func(t *testing.T) {
		path := writeFile(t, "sig.yaml", `
runtime:
  name: editor
  max_flush_passes: 10
log:
  level: debug
`)

		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, "editor", cfg.Runtime.Name)
		assert.Equal(t, 10, cfg.Runtime.MaxFlushPasses)
		assert.True(t, cfg.Runtime.GoroutineCheck)
		assert.Equal(t, "debug", cfg.Log.Level)
		assert.Equal(t, "text", cfg.Log.Format)
	})

	t.Run("json file", func(t *testing.T) {
		path := writeFile(t, "sig.json", `{"log": {"format": "json"}, "metrics": {"enabled": true}}`)

		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, "json", cfg.Log.Format)
		assert.True(t, cfg.Metrics.Enabled)
	})

	t.Run("env overrides file", func(t *testing.T) {
		path := writeFile(t, "sig.yaml", "runtime:\n  max_flush_passes: 10\n")
		t.Setenv("SIG_RUNTIME_MAX_FLUSH_PASSES", "25")
		t.Setenv("SIG_RUNTIME_GOROUTINE_CHECK", "false")

		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, 25, cfg.Runtime.MaxFlushPasses)
		assert.False(t, cfg.Runtime.GoroutineCheck)
	})

	t.Run("unsupported format", func(t *testing.T) {
		_, err := Load(writeFile(t, "sig.toml", ""))
		assert.ErrorContains(t, err, "unsupported config file format: .toml")
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
		assert.ErrorIs(t, err, os.ErrNotExist)
	})

	t.Run("invalid values", func(t *testing.T) {
		path := writeFile(t, "sig.yaml", "runtime:\n  max_flush_passes: 0\nlog:\n  level: loud\n")

		_, err := Load(path)

		var details ValidationErrors
		require.True(t, errors.As(err, &details))
		require.Len(t, details, 2)
		assert.Equal(t, "Config.Runtime.MaxFlushPasses", details[0].Field)
		assert.Equal(t, "must be at least 1", details[0].Message)
		assert.Equal(t, "Config.Log.Level", details[1].Field)
	})
}

func TestRuntimeOptions(t *testing.T) {
	t.Run("metrics register when enabled", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Runtime.Name = "configured"
		cfg.Metrics.Enabled = true
		reg := prometheus.NewRegistry()

		rt, err := sig.NewRuntime(cfg.RuntimeOptions(reg)...)
		require.NoError(t, err)
		defer rt.Dispose()

		assert.Equal(t, "configured", rt.Name())

		families, err := reg.Gather()
		require.NoError(t, err)
		assert.NotEmpty(t, families)
	})

	t.Run("metrics stay off by default", func(t *testing.T) {
		reg := prometheus.NewRegistry()

		rt, err := sig.NewRuntime(DefaultConfig().RuntimeOptions(reg)...)
		require.NoError(t, err)
		defer rt.Dispose()

		families, err := reg.Gather()
		require.NoError(t, err)
		assert.Empty(t, families)
	})
}
