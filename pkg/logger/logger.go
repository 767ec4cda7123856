// Package logger builds the process slog logger and carries per-request
// attributes through contexts. Output goes to stderr because stdout carries
// the answers.
package logger

import (
	"context"
	"io"
	"log/slog"
	"strings"

	apperrors "github.com/Adithya-Monish-Kumar-K/corpus-qa/pkg/errors"
)

const (
	FormatText = "text"
	FormatJSON = "json"
)

type requestIDKey struct{}

// New returns a logger writing to w. level accepts the slog names in any case
// with an optional offset ("info", "WARN", "debug+2"); format is text or
// json, and empty picks text.
func New(w io.Writer, level, format string) (*slog.Logger, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: lvl}
	switch strings.ToLower(format) {
	case "", FormatText:
		return slog.New(slog.NewTextHandler(w, opts)), nil
	case FormatJSON:
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	default:
		return nil, apperrors.Invalidf("unknown log format %q", format)
	}
}

// Setup makes New's logger the slog default.
func Setup(w io.Writer, level, format string) error {
	l, err := New(w, level, format)
	if err != nil {
		return err
	}
	slog.SetDefault(l)
	return nil
}

// ParseLevel maps a level name to its slog.Level. Empty means info.
func ParseLevel(level string) (slog.Level, error) {
	var lvl slog.Level
	if level == "" {
		return slog.LevelInfo, nil
	}
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return 0, apperrors.Invalidf("unknown log level %q", level)
	}
	return lvl, nil
}

func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestID returns the id stored by WithRequestID, or "".
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// FromContext is the default logger, tagged with the request id when ctx
// carries one.
func FromContext(ctx context.Context) *slog.Logger {
	if id := RequestID(ctx); id != "" {
		return slog.Default().With("request_id", id)
	}
	return slog.Default()
}

func WithComponent(component string) *slog.Logger {
	return slog.Default().With("component", component)
}
