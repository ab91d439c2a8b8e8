package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	t.Run("json with attrs", func(t *testing.T) {
		buf := &bytes.Buffer{}
		log := New(WithOutput(buf), WithFormat(FormatJSON), WithAttr(slog.String("sdk", "pushapp")))
		log.Info("hello", "n", 1)

		var entry map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
		assert.Equal(t, "INFO", entry["level"])
		assert.Equal(t, "hello", entry["msg"])
		assert.Equal(t, "pushapp", entry["sdk"])
	})

	t.Run("text filters by level", func(t *testing.T) {
		buf := &bytes.Buffer{}
		log := New(WithOutput(buf), WithLevel(slog.LevelWarn))
		log.Info("quiet")
		log.Warn("loud")
		assert.NotContains(t, buf.String(), "quiet")
		assert.Contains(t, buf.String(), "loud")
	})

	t.Run("unknown format keeps text", func(t *testing.T) {
		buf := &bytes.Buffer{}
		New(WithOutput(buf), WithFormat("xml")).Info("hi")
		assert.Contains(t, buf.String(), "msg=hi")
	})
}

func TestOrDiscard(t *testing.T) {
	assert.NotNil(t, OrDiscard(nil))
	l := New()
	assert.Same(t, l, OrDiscard(l))
}

func TestParseLevel(t *testing.T) {
	l, err := ParseLevel("DEBUG")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, l)

	l, err = ParseLevel("")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelInfo, l)

	_, err = ParseLevel("loud")
	assert.Error(t, err)
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat(" JSON ")
	require.NoError(t, err)
	assert.Equal(t, FormatJSON, f)

	_, err = ParseFormat("xml")
	assert.Error(t, err)
}
