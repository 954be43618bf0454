//go:build go1.21

package slog

import (
	"context"
	"io"
	stdslog "log/slog"

	"github.com/unkn0wn-root/gridiron"
)

var _ gridiron.Logger = Logger{}

type Logger struct{ L *stdslog.Logger }

// NewText returns a text-handler logger writing to w at level
// ("debug", "info", "warn", "error"; "" means info).
func NewText(w io.Writer, level string) (Logger, error) {
	var lvl stdslog.Level
	if level != "" {
		if err := lvl.UnmarshalText([]byte(level)); err != nil {
			return Logger{}, err
		}
	}
	h := stdslog.NewTextHandler(w, &stdslog.HandlerOptions{Level: lvl})
	return Logger{L: stdslog.New(h).With("component", "gridiron")}, nil
}

func (s Logger) Debug(msg string, f gridiron.Fields) {
	s.L.LogAttrs(context.Background(), stdslog.LevelDebug, msg, attrs(f)...)
}
func (s Logger) Info(msg string, f gridiron.Fields) {
	s.L.LogAttrs(context.Background(), stdslog.LevelInfo, msg, attrs(f)...)
}
func (s Logger) Warn(msg string, f gridiron.Fields) {
	s.L.LogAttrs(context.Background(), stdslog.LevelWarn, msg, attrs(f)...)
}
func (s Logger) Error(msg string, f gridiron.Fields) {
	s.L.LogAttrs(context.Background(), stdslog.LevelError, msg, attrs(f)...)
}

func attrs(f gridiron.Fields) []stdslog.Attr {
	if len(f) == 0 {
		return nil
	}
	out := make([]stdslog.Attr, 0, len(f))
	for k, v := range f {
		out = append(out, stdslog.Any(k, v))
	}
	return out
}
