package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out, logs bytes.Buffer
	cmd := (&app{logOut: &logs}).rootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&logs)
	cmd.SetArgs(args)

	err := cmd.Execute()
	return out.String(), err
}

func TestPlan(t *testing.T) {
	out, err := execute(t, "plan", "testdata/counter.yaml")
	require.NoError(t, err)

	assert.Contains(t, out, "component Counter")
	assert.Contains(t, out, "template[0] <circle>")
	assert.Contains(t, out, "r {doubled}")
	assert.Contains(t, out, "fill static")
	assert.Contains(t, out, "on:click")
	assert.Contains(t, out, "template[1] if {count}")
	assert.Contains(t, out, "count (signal) -> doubled, template[1], template[1].then[0]")
	assert.Contains(t, out, "order: count doubled")
	assert.NotContains(t, out, "unused:")
}

func TestCheck(t *testing.T) {
	bad := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{
		"name": "Bad",
		"script": [{"kind": "signal", "name": "s", "init": 0}],
		"template": [{"kind": "text", "content": {"kind": "call", "callee": {"kind": "ident", "name": "s"}, "args": [1]}}]
	}`), 0o600))

	out, err := execute(t, "check", "testdata/counter.yaml", bad)

	assert.EqualError(t, err, "1 of 2 components failed")
	assert.Contains(t, out, "testdata/counter.yaml: ok")
	assert.Contains(t, out, "called with arguments")
}

func TestRun(t *testing.T) {
	t.Run("prints the tree after each write", func(t *testing.T) {
		out, err := execute(t, "run", "testdata/counter.yaml", "--set", "count=5")
		require.NoError(t, err)

		assert.Equal(t, "circle fill=red r=0\n"+
			"text content=1\n"+
			"text content=2\n"+
			"\n> count=5\n"+
			"circle fill=red r=10\n"+
			"text content=big 5\n"+
			"text content=1\n"+
			"text content=2\n", out)
	})

	t.Run("rejects writes to computeds", func(t *testing.T) {
		_, err := execute(t, "run", "testdata/counter.yaml", "--set", "doubled=1")
		assert.EqualError(t, err, "--set doubled: not a signal")
	})

	t.Run("prints metrics when enabled", func(t *testing.T) {
		t.Setenv("SIG_METRICS_ENABLED", "true")

		out, err := execute(t, "run", "testdata/counter.yaml", "--set", "count=1")
		require.NoError(t, err)
		assert.Contains(t, out, "metrics:")
		assert.Contains(t, out, "sig_flushes_total{}")
	})

	t.Run("unsupported format", func(t *testing.T) {
		_, err := execute(t, "run", "main.go")
		assert.EqualError(t, err, "unsupported component format: .go")
	})
}

func TestLogOutput(t *testing.T) {
	t.Run("follows the configured output", func(t *testing.T) {
		t.Setenv("SIG_LOG_LEVEL", "debug")
		t.Setenv("SIG_LOG_OUTPUT", "none")

		var out, errOut bytes.Buffer
		cmd := newRootCmd()
		cmd.SetOut(&out)
		cmd.SetErr(&errOut)
		cmd.SetArgs([]string{"run", "testdata/counter.yaml", "--set", "count=1"})

		require.NoError(t, cmd.Execute())
		assert.NotEmpty(t, out.String())
		assert.Empty(t, errOut.String())
	})

	t.Run("can be redirected", func(t *testing.T) {
		t.Setenv("SIG_LOG_LEVEL", "debug")

		var out, logs bytes.Buffer
		cmd := (&app{logOut: &logs}).rootCmd()
		cmd.SetOut(&out)
		cmd.SetArgs([]string{"run", "testdata/counter.yaml", "--set", "count=1"})

		require.NoError(t, cmd.Execute())
		assert.Contains(t, logs.String(), "msg=flushed")
	})
}
