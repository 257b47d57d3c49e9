package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("verbose"))
}

func TestNewWithWriter_JSON(t *testing.T) {
	var b bytes.Buffer
	l := NewWithWriter(&b, "warn", "json")

	l.Info("dropped")
	l.Warn("kept", "session_id", 4)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(b.Bytes(), &entry))
	assert.Equal(t, "kept", entry["msg"])
	assert.Equal(t, float64(4), entry["session_id"])
}

func TestNewWithWriter_Text(t *testing.T) {
	var b bytes.Buffer
	NewWithWriter(&b, "info", "text").Info("hello")
	assert.Contains(t, b.String(), "msg=hello")
}
