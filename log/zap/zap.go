package zap

import (
	"sort"

	"github.com/unkn0wn-root/gridiron"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var _ gridiron.Logger = ZapLogger{}

type ZapLogger struct{ L *zap.Logger }

// New builds a production (JSON) zap logger at level ("debug", "info", ...).
func New(level string) (ZapLogger, error) {
	lvl, err := zapcore.ParseLevel(coalesceLevel(level))
	if err != nil {
		return ZapLogger{}, err
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	l, err := cfg.Build()
	if err != nil {
		return ZapLogger{}, err
	}
	return ZapLogger{L: l.Named("gridiron")}, nil
}

func (z ZapLogger) Debug(msg string, f gridiron.Fields) { z.L.Debug(msg, zf(f)...) }
func (z ZapLogger) Info(msg string, f gridiron.Fields)  { z.L.Info(msg, zf(f)...) }
func (z ZapLogger) Warn(msg string, f gridiron.Fields)  { z.L.Warn(msg, zf(f)...) }
func (z ZapLogger) Error(msg string, f gridiron.Fields) { z.L.Error(msg, zf(f)...) }

// Sync flushes buffered entries.
func (z ZapLogger) Sync() error { return z.L.Sync() }

// zf converts fields in key order so lines for the same event line up.
func zf(f gridiron.Fields) []zap.Field {
	if len(f) == 0 {
		return nil
	}
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]zap.Field, 0, len(f))
	for _, k := range keys {
		switch v := f[k].(type) {
		case error:
			out = append(out, zap.NamedError(k, v))
		default:
			out = append(out, zap.Any(k, v))
		}
	}
	return out
}

func coalesceLevel(l string) string {
	if l == "" {
		return "info"
	}
	return l
}
