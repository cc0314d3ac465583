package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_ProductionWritesJSON(t *testing.T) {
	var buf bytes.Buffer
	log, err := New("debug", "production", &buf)
	require.NoError(t, err)

	log.Debug().Str("service", "spotify").Msg("token refreshed")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "debug", line["level"])
	assert.Equal(t, "spotify", line["service"])
	assert.Equal(t, "token refreshed", line["message"])
}

func TestNew_LevelFilters(t *testing.T) {
	var buf bytes.Buffer
	log, err := New("warn", "production", &buf)
	require.NoError(t, err)

	log.Info().Msg("hidden")
	assert.Empty(t, buf.String())

	log.Warn().Msg("shown")
	assert.Contains(t, buf.String(), "shown")
}

func TestNew_DevelopmentIsConsole(t *testing.T) {
	var buf bytes.Buffer
	log, err := New("", "dev", &buf)
	require.NoError(t, err)

	log.Info().Msg("hello")
	assert.Contains(t, buf.String(), "hello")
	assert.False(t, json.Valid(bytes.TrimSpace(buf.Bytes())))
}

func TestNew_InvalidLevel(t *testing.T) {
	_, err := New("loud", "production", &bytes.Buffer{})
	assert.Error(t, err)
}
