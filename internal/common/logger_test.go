package common

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewLoggerJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, "debug", "json")
	logger.Debug("pool initialized", "pool", "abc")

	assert.Contains(t, buf.String(), `"msg":"pool initialized"`)
	assert.Contains(t, buf.String(), `"pool":"abc"`)
}

func TestNewLoggerLevelFilters(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, "warn", "text")
	logger.Info("dropped")
	assert.Empty(t, buf.String())
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel(""))
}

func TestLoggerMixinDefaults(t *testing.T) {
	var m LoggerMixin
	assert.NotNil(t, m.GetLogger())

	custom := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	m.SetLogger(custom)
	assert.Same(t, custom, m.GetLogger())

	m.SetLogger(nil)
	assert.Same(t, custom, m.GetLogger())
}
