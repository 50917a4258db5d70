package logger

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRejectsBadLevel(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Level = "loud"
	_, err := New(cfg)
	assert.Error(t, err)
}

func TestNewWritesRotatingFile(t *testing.T) {
	dir := t.TempDir()
	cfg := DefaultConfig()
	cfg.Outputs = []string{"file"}
	cfg.OutputFile = filepath.Join(dir, "engine.log")
	cfg.ErrorFile = filepath.Join(dir, "engine.err.log")
	cfg.Level = "debug"

	l, err := New(cfg)
	require.NoError(t, err)
	l.LogTick(100, 2, 4, 812)
	l.LogQuote("KELP", map[string]interface{}{"bid": 2021, "ask": 2023})
	l.LogError(errors.New("boom"), map[string]interface{}{"product": "KELP"})
	l.WithFields(map[string]interface{}{"strategy": "moving_average"}).Info("reloaded")
	_ = l.Close()

	raw, err := os.ReadFile(cfg.OutputFile)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"msg":"tick"`)
	assert.Contains(t, string(raw), `"product":"KELP"`)
	assert.Contains(t, string(raw), `"strategy":"moving_average"`)

	errRaw, err := os.ReadFile(cfg.ErrorFile)
	require.NoError(t, err)
	assert.Contains(t, string(errRaw), "boom")
	assert.NotContains(t, string(errRaw), `"msg":"tick"`)
}

func TestNopLogger(t *testing.T) {
	l := NewNop()
	l.LogTick(1, 1, 2, 100)
	assert.NoError(t, l.Close())
}
