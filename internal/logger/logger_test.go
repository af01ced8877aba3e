package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetLevel_FiltersBelowLevel(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(&bytes.Buffer{})

	SetLevel("warn")
	defer SetLevel("info")

	Info("hidden %d", 1)
	Warn("shown %d", 2)

	out := buf.String()
	assert.NotContains(t, out, "hidden 1")
	assert.Contains(t, out, "shown 2")
	assert.Equal(t, "warn", Level())
}

func TestSetLevel_UnknownDefaultsToInfo(t *testing.T) {
	SetLevel("chatty")
	assert.Equal(t, "info", Level())
}

func TestSetJSONOutput(t *testing.T) {
	var buf bytes.Buffer
	SetJSONOutput(&buf)
	defer SetOutput(&bytes.Buffer{})
	SetLevel("debug")
	defer SetLevel("info")

	Debug("decoded %s", "photo.jpg")

	line := strings.TrimSpace(buf.String())
	var rec map[string]any
	require.NoError(t, json.Unmarshal([]byte(line), &rec))
	assert.Equal(t, "debug", rec["level"])
	assert.Equal(t, "decoded photo.jpg", rec["message"])
}
