package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TwigBush/kmpolicy/internal/trace"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zerolog.InfoLevel, ParseLevel(""))
	assert.Equal(t, zerolog.InfoLevel, ParseLevel("chatty"))
	assert.Equal(t, zerolog.DebugLevel, ParseLevel("debug"))
	assert.Equal(t, zerolog.WarnLevel, ParseLevel(" WARN "))
}

func TestNew_JSON(t *testing.T) {
	var buf bytes.Buffer
	log := New(Options{JSON: true, Level: "warn", Out: &buf})

	log.Info().Msg("dropped")
	log.Warn().Str("k", "v").Msg("kept")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "kept", line["message"])
	assert.Equal(t, "v", line["k"])
	assert.Equal(t, "warn", line["level"])
}

func TestNew_Console(t *testing.T) {
	var buf bytes.Buffer
	log := New(Options{Out: &buf})
	log.Info().Msg("hello")
	assert.Contains(t, buf.String(), "hello")
	assert.Contains(t, buf.String(), "INF")
}

func TestWithTrace(t *testing.T) {
	var buf bytes.Buffer
	base := New(Options{JSON: true, Out: &buf})

	untraced := WithTrace(context.Background(), base)
	untraced.Info().Msg("untraced")
	assert.NotContains(t, buf.String(), `"trace"`)

	buf.Reset()
	ctx := trace.With(context.Background(), "abc123")
	traced := WithTrace(ctx, base)
	traced.Info().Msg("traced")
	assert.Contains(t, buf.String(), `"trace":"abc123"`)
}
