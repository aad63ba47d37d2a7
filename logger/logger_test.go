package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omnicraft/sig/config"
)

func TestNew(t *testing.T) {
	t.Run("filters by level", func(t *testing.T) {
		var buf bytes.Buffer
		log, closer, err := NewWithWriter(config.LogConfig{Level: "warn", Format: "text"}, &buf)
		require.NoError(t, err)
		defer closer()

		log.Info("hidden")
		log.Warn("shown", "n", 1)

		assert.NotContains(t, buf.String(), "hidden")
		assert.Contains(t, buf.String(), "msg=shown n=1")
	})

	t.Run("json format", func(t *testing.T) {
		var buf bytes.Buffer
		log, closer, err := NewWithWriter(config.LogConfig{Level: "info", Format: "json"}, &buf)
		require.NoError(t, err)
		defer closer()

		log.Info("flush", "passes", 2)

		var record map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
		assert.Equal(t, "flush", record["msg"])
		assert.Equal(t, 2.0, record["passes"])
	})

	t.Run("fans out to the log file", func(t *testing.T) {
		var buf bytes.Buffer
		path := filepath.Join(t.TempDir(), "sig.log")

		log, closer, err := NewWithWriter(config.LogConfig{Level: "debug", Format: "text", File: path}, &buf)
		require.NoError(t, err)

		log.Debug("both")
		require.NoError(t, closer())

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Contains(t, string(data), `"msg":"both"`)
		assert.Contains(t, buf.String(), "msg=both")
	})

	t.Run("bad level", func(t *testing.T) {
		_, _, err := New(config.LogConfig{Level: "loud"})
		assert.ErrorContains(t, err, `log level "loud"`)
	})
}

func TestParseLevel(t *testing.T) {
	level, err := ParseLevel("error")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelError, level)
}
