// Package slog adapts a *slog.Logger to parkcache.Logger.
package slog

import (
	"context"
	"io"
	stdslog "log/slog"

	"github.com/unkn0wn-root/parkcache"
)

var _ parkcache.Logger = Logger{}

type Logger struct{ L *stdslog.Logger }

// New builds a text logger at level writing to w.
func New(w io.Writer, level string) (Logger, error) {
	var lvl stdslog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return Logger{}, err
	}
	return Logger{L: stdslog.New(stdslog.NewTextHandler(w, &stdslog.HandlerOptions{Level: lvl}))}, nil
}

func (s Logger) Debug(msg string, f parkcache.Fields) {
	s.L.LogAttrs(context.Background(), stdslog.LevelDebug, msg, attrs(f)...)
}
func (s Logger) Info(msg string, f parkcache.Fields) {
	s.L.LogAttrs(context.Background(), stdslog.LevelInfo, msg, attrs(f)...)
}
func (s Logger) Warn(msg string, f parkcache.Fields) {
	s.L.LogAttrs(context.Background(), stdslog.LevelWarn, msg, attrs(f)...)
}
func (s Logger) Error(msg string, f parkcache.Fields) {
	s.L.LogAttrs(context.Background(), stdslog.LevelError, msg, attrs(f)...)
}

func attrs(f parkcache.Fields) []stdslog.Attr {
	if len(f) == 0 {
		return nil
	}
	out := make([]stdslog.Attr, 0, len(f))
	for k, v := range f {
		out = append(out, stdslog.Any(k, v))
	}
	return out
}
