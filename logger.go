package gridiron

// Fields carries structured context for a log line. Cell events use the
// keys row, col, fp (short fingerprint), stage and err.
type Fields map[string]any

// Logger is the leveled logger the orchestrator and cache write to.
// Adapters for zap, logrus and slog live under log/; config picks one.
// A nil Logger in Options or CacheOptions disables logging.
type Logger interface {
	Debug(msg string, f Fields)
	Info(msg string, f Fields)
	Warn(msg string, f Fields)
	Error(msg string, f Fields)
}

type NopLogger struct{}

func (NopLogger) Debug(string, Fields) {}
func (NopLogger) Info(string, Fields)  {}
func (NopLogger) Warn(string, Fields)  {}
func (NopLogger) Error(string, Fields) {}
