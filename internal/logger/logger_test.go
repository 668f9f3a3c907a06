package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_JSONCarriesComponentAndFields(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: "debug", Format: FormatJSON, Output: &buf})

	l.WithComponent("artist").Warn("role missing", Fields("artist_id", 3, "role", "artist"))

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "warn", entry["level"])
	assert.Equal(t, "artist", entry[FieldComponent])
	assert.Equal(t, "role missing", entry["message"])
	assert.Equal(t, float64(3), entry["artist_id"])
}

func TestNew_LevelFilters(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: "warn", Format: FormatJSON, Output: &buf})

	l.Info("hidden")
	assert.Zero(t, buf.Len())

	l.Error("shown")
	assert.Contains(t, buf.String(), "shown")
}

func TestNew_InvalidLevelDefaultsToInfo(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: "loud", Format: FormatJSON, Output: &buf})

	l.Debug("hidden")
	l.Info("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}

func TestFields_IgnoresDanglingAndNonStringKeys(t *testing.T) {
	f := Fields("a", 1, 2, "b", "c")
	assert.Equal(t, map[string]interface{}{"a": 1}, f)
}

func TestSetGlobal(t *testing.T) {
	prev := Global()
	t.Cleanup(func() { SetGlobal(prev) })

	var buf bytes.Buffer
	SetGlobal(New(Config{Format: FormatJSON, Output: &buf}))
	WithComponent("x").Info("hello")
	assert.Contains(t, buf.String(), `"component":"x"`)
}
