package log

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInit(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	t.Run("Text", func(t *testing.T) {
		var buf bytes.Buffer
		Init(WithWriter(&buf), WithLevel(WarnLevel))

		Infof("hidden %d", 1)
		Warnf("shown %d", 2)

		out := buf.String()
		assert.NotContains(t, out, "hidden")
		assert.Contains(t, out, "msg=\"shown 2\"")
		assert.Contains(t, out, "source=log_test.go:")
	})

	t.Run("JSON", func(t *testing.T) {
		var buf bytes.Buffer
		Init(WithWriter(&buf), WithJSON(true))

		Errorf("failed: %s", "boom")

		var rec map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
		assert.Equal(t, "ERROR", rec["level"])
		assert.Equal(t, "failed: boom", rec["msg"])
	})

	t.Run("DevMode", func(t *testing.T) {
		var buf bytes.Buffer
		Init(WithWriter(&buf), WithDevMode())

		Debugf("debugging")
		assert.Contains(t, buf.String(), "debugging")
	})
}

func TestParseLevel(t *testing.T) {
	l, err := ParseLevel("warn")
	require.NoError(t, err)
	assert.Equal(t, WarnLevel, l)

	l, err = ParseLevel("DEBUG")
	require.NoError(t, err)
	assert.Equal(t, DebugLevel, l)

	_, err = ParseLevel("loud")
	require.Error(t, err)
}
