package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Setup(&buf, "warn", "json"))

	Info("dropped")
	Warn("kept", "line", 12)

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "kept", rec["msg"])
	assert.Equal(t, float64(12), rec["line"])
}

func TestSetupAutoOnNonTerminal(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Setup(&buf, "debug", "auto"))
	Debug("hello")
	assert.True(t, strings.HasPrefix(buf.String(), "{"))
}

func TestSetupText(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Setup(&buf, "INFO", "text"))
	Logger().Info("decoded", "objects", 3)
	assert.Contains(t, buf.String(), "msg=decoded objects=3")
}

func TestSetupRejectsBadInput(t *testing.T) {
	var buf bytes.Buffer
	assert.Error(t, Setup(&buf, "loud", "json"))
	assert.Error(t, Setup(&buf, "info", "xml"))
}
