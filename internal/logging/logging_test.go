package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"residencehub/internal/config"
)

func TestNewWithWriter(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(config.LoggerConfig{Level: "warn"}, "api", &buf)

	log.Info().Msg("hidden")
	assert.Zero(t, buf.Len())

	log.Warn().Str("reservation_id", "r1").Msg("visible")
	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "api", entry["service"])
	assert.Equal(t, "r1", entry["reservation_id"])
	assert.Equal(t, "visible", entry["message"])
}

func TestWriter(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(config.LoggerConfig{Level: "info"}, "api", &buf)

	n, err := Writer(log).Write([]byte("GET /health 200\n"))
	require.NoError(t, err)
	assert.Equal(t, 16, n)
	assert.Contains(t, buf.String(), `"message":"GET /health 200"`)
}
