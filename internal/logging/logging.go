// Package logging builds the zerolog logger handed to every component.
package logging

import (
	"context"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/TwigBush/kmpolicy/internal/trace"
)

// Options mirrors the --log-json and --log-level flags.
type Options struct {
	JSON  bool
	Level string
	Out   io.Writer
}

// New returns a logger writing to stderr unless Out is set. Console output
// is the default; JSON is for piping into a collector. An unknown level falls
// back to info.
func New(opts Options) zerolog.Logger {
	out := opts.Out
	if out == nil {
		out = os.Stderr
	}
	if !opts.JSON {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339, NoColor: !isTerminal(out)}
	}
	return zerolog.New(out).
		Level(ParseLevel(opts.Level)).
		With().
		Timestamp().
		Logger()
}

func ParseLevel(s string) zerolog.Level {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(s)))
	if err != nil || s == "" {
		return zerolog.InfoLevel
	}
	return lvl
}

// WithTrace tags logger with the trace id carried by ctx, if any.
func WithTrace(ctx context.Context, logger zerolog.Logger) zerolog.Logger {
	id := trace.From(ctx)
	if id == "" {
		return logger
	}
	return logger.With().Str("trace", id).Logger()
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	fi, err := f.Stat()
	return err == nil && fi.Mode()&os.ModeCharDevice != 0
}
