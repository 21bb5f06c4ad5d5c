package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogrusLogger_JSON(t *testing.T) {
	var buf bytes.Buffer
	log := NewLogrusLoggerTo(&buf, "debug", FormatJSON)

	log.WithField("scenario_id", "LOGIN01").Info(context.Background(), "step passed", map[string]interface{}{
		"step": "navigate",
	})

	var line map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "step passed", line["msg"])
	assert.Equal(t, "LOGIN01", line["scenario_id"])
	assert.Equal(t, "navigate", line["step"])
	assert.Equal(t, "info", line["level"])
}

func TestLogrusLogger_LevelFilter(t *testing.T) {
	var buf bytes.Buffer
	log := NewLogrusLoggerTo(&buf, "warn", FormatText)

	log.Info(context.Background(), "hidden", nil)
	assert.Empty(t, buf.String())

	log.Warn(context.Background(), "shown", nil)
	assert.Contains(t, buf.String(), "shown")
}

func TestLogrusLogger_InvalidLevelFallsBackToInfo(t *testing.T) {
	var buf bytes.Buffer
	log := NewLogrusLoggerTo(&buf, "loud", FormatJSON)

	log.Debug(context.Background(), "debug", nil)
	assert.Empty(t, buf.String())
	log.Info(context.Background(), "info", nil)
	assert.Contains(t, buf.String(), "info")
}

func TestTestLogger_DerivedLoggersShareEntries(t *testing.T) {
	root := NewTestLogger()
	child := root.WithField("run_id", "abc")

	child.Error(context.Background(), "scenario failed", map[string]interface{}{"step": "teardown"})

	entries := root.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, "error", entries[0].Level)
	assert.Equal(t, "abc", entries[0].Fields["run_id"])
	assert.Equal(t, "teardown", entries[0].Fields["step"])

	_, ok := root.Find("scenario failed")
	assert.True(t, ok)

	root.Reset()
	assert.Empty(t, root.Entries())
}
