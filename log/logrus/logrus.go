// Package logrus adapts a *logrus.Entry to parkcache.Logger.
package logrus

import (
	"io"

	"github.com/sirupsen/logrus"
	"github.com/unkn0wn-root/parkcache"
)

var _ parkcache.Logger = LogrusLogger{}

type LogrusLogger struct{ E *logrus.Entry }

// New builds a text logger at level writing to w.
func New(w io.Writer, level string) (LogrusLogger, error) {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return LogrusLogger{}, err
	}
	l := logrus.New()
	l.SetOutput(w)
	l.SetLevel(lvl)
	l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	return LogrusLogger{E: logrus.NewEntry(l)}, nil
}

func (l LogrusLogger) Debug(msg string, f parkcache.Fields) {
	l.with(f).Debug(msg)
}
func (l LogrusLogger) Info(msg string, f parkcache.Fields) { l.with(f).Info(msg) }
func (l LogrusLogger) Warn(msg string, f parkcache.Fields) { l.with(f).Warn(msg) }
func (l LogrusLogger) Error(msg string, f parkcache.Fields) {
	l.with(f).Error(msg)
}

func (l LogrusLogger) with(f parkcache.Fields) *logrus.Entry {
	if err, ok := f["err"].(error); ok {
		rest := make(logrus.Fields, len(f))
		for k, v := range f {
			if k != "err" {
				rest[k] = v
			}
		}
		return l.E.WithError(err).WithFields(rest)
	}
	return l.E.WithFields(logrus.Fields(f))
}
