package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel(""))
	assert.Equal(t, slog.LevelInfo, ParseLevel("verbose"))
}

func TestNewJSON(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: "warn", Format: "json"}, &buf)

	l.Info("hidden")
	l.Warn("shown", "db", "blog")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)
	var rec map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &rec))
	assert.Equal(t, "shown", rec["msg"])
	assert.Equal(t, "blog", rec["db"])
}

func TestAdapter(t *testing.T) {
	var buf bytes.Buffer
	a := ClientLogger(New(Config{Level: "debug"}, &buf))

	a.Debugf("GET %s", "/blog")
	a.Warnf("careful %d", 1)
	a.Errorf("failed: %v", "boom")

	out := buf.String()
	assert.Contains(t, out, "level=DEBUG")
	assert.Contains(t, out, `msg="GET /blog"`)
	assert.Contains(t, out, "level=WARN")
	assert.Contains(t, out, `msg="failed: boom"`)
}

func TestGetDefaults(t *testing.T) {
	assert.NotNil(t, Get())
	assert.NotNil(t, ClientLogger(nil))
}
