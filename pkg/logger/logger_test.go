package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLevelString(t *testing.T) {
	tests := []struct {
		level    Level
		expected string
	}{
		{TraceLevel, "TRACE"},
		{DebugLevel, "DEBUG"},
		{InfoLevel, "INFO"},
		{WarnLevel, "WARN"},
		{ErrorLevel, "ERROR"},
		{Level(999), "UNKNOWN"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, tt.level.String())
	}
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, TraceLevel, ParseLevel("trace"))
	assert.Equal(t, DebugLevel, ParseLevel("DEBUG"))
	assert.Equal(t, WarnLevel, ParseLevel("warning"))
	assert.Equal(t, ErrorLevel, ParseLevel(" error "))
	assert.Equal(t, InfoLevel, ParseLevel("bogus"))
}

func TestLogFiltersBelowLevel(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: WarnLevel, Component: "assetgen"}, &buf)

	l.Log(InfoLevel, "hidden")
	l.Log(WarnLevel, "shown")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "[WARN] assetgen: shown")
}

func TestPrettyFieldsAreSorted(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: InfoLevel}, &buf)

	l.Log(InfoLevel, "summary", String("zeta", "z"), Int("alpha", 1), Bool("mid", true))

	out := strings.TrimSpace(buf.String())
	assert.True(t, strings.HasSuffix(out, "{alpha=1, mid=true, zeta=z}"), out)
}

func TestColorDisabledForNonTerminal(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: InfoLevel, UseColor: true}, &buf)

	l.Log(ErrorLevel, "boom")

	assert.NotContains(t, buf.String(), "\033[")
}

func TestDryRunMarker(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: InfoLevel, DryRun: true}, &buf)

	l.Log(InfoLevel, "would write")

	assert.Contains(t, buf.String(), "[DRY-RUN] would write")
}

func TestJSONOutput(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: InfoLevel, JSON: true, Component: "assetgen"}, &buf)

	l.Log(WarnLevel, "manifest unreadable", String("path", "assets.json"), Err(assert.AnError))

	var entry LogEntry
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry))
	assert.Equal(t, "WARN", entry.Level)
	assert.Equal(t, "manifest unreadable", entry.Message)
	assert.Equal(t, "assetgen", entry.Component)
	assert.Equal(t, "assets.json", entry.Fields["path"])
	assert.Equal(t, assert.AnError.Error(), entry.Fields["error"])
}

func TestDefaultLoggerSetOutput(t *testing.T) {
	require.NoError(t, Initialize(Config{Level: DebugLevel, Component: "assetgen"}))
	var buf bytes.Buffer
	SetOutput(&buf)

	Debug("debug line")
	Info("info line")

	out := buf.String()
	assert.Contains(t, out, "debug line")
	assert.Contains(t, out, "logger_test.go")
	assert.Contains(t, out, "info line")
}
