package logrus

import (
	"io"

	"github.com/sirupsen/logrus"
	"github.com/unkn0wn-root/gridiron"
)

var _ gridiron.Logger = LogrusLogger{}

type LogrusLogger struct{ E *logrus.Entry }

// New returns a text logger writing to w at level ("debug", "info", ...).
func New(w io.Writer, level string) (LogrusLogger, error) {
	if level == "" {
		level = "info"
	}
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return LogrusLogger{}, err
	}
	l := logrus.New()
	l.SetOutput(w)
	l.SetLevel(lvl)
	l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true, DisableColors: true})
	return LogrusLogger{E: logrus.NewEntry(l).WithField("component", "gridiron")}, nil
}

func (l LogrusLogger) Debug(msg string, f gridiron.Fields) {
	l.with(f).Debug(msg)
}
func (l LogrusLogger) Info(msg string, f gridiron.Fields) { l.with(f).Info(msg) }
func (l LogrusLogger) Warn(msg string, f gridiron.Fields) { l.with(f).Warn(msg) }
func (l LogrusLogger) Error(msg string, f gridiron.Fields) {
	l.with(f).Error(msg)
}

// errors go through WithError so formatters render them under "error"
func (l LogrusLogger) with(f gridiron.Fields) *logrus.Entry {
	e := l.E
	for k, v := range f {
		if err, ok := v.(error); ok && k == "err" {
			e = e.WithError(err)
			continue
		}
		e = e.WithField(k, v)
	}
	return e
}
