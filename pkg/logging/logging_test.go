package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewJSONRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Config{Level: "WARN", Output: &buf})
	require.NoError(t, err)

	logger.Info().Msg("hidden")
	logger.Warn().Str("widget_id", "w1").Msg("shown")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)
	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "warn", entry["level"])
	assert.Equal(t, "w1", entry["widget_id"])
	assert.Contains(t, entry, "time")
}

func TestNewConsoleFormat(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Config{Format: FormatConsole, Output: &buf})
	require.NoError(t, err)

	logger.Info().Msg("widget mounted")
	assert.Contains(t, buf.String(), "widget mounted")
	assert.Contains(t, buf.String(), "INF")
}

func TestNewRejectsUnknownSettings(t *testing.T) {
	if _, err := New(Config{Level: "loud"}); err == nil {
		t.Fatalf("expected error for unknown level")
	}
	if _, err := New(Config{Format: "xml"}); err == nil {
		t.Fatalf("expected error for unknown format")
	}
}
