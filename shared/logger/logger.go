package logger

import (
	"github.com/sirupsen/logrus"
)

// Ctx is the logging context to attach to a log entry.
type Ctx map[string]any

// Logger is the main logging interface.
type Logger interface {
	Panic(msg string, ctx ...Ctx)
	Fatal(msg string, ctx ...Ctx)
	Error(msg string, ctx ...Ctx)
	Warn(msg string, ctx ...Ctx)
	Info(msg string, ctx ...Ctx)
	Debug(msg string, ctx ...Ctx)
	Trace(msg string, ctx ...Ctx)
	AddContext(ctx Ctx) Logger
}

type targetLogger interface {
	Panic(args ...any)
	Fatal(args ...any)
	Error(args ...any)
	Warn(args ...any)
	Info(args ...any)
	Debug(args ...any)
	Trace(args ...any)
	WithFields(fields logrus.Fields) *logrus.Entry
}

type logWrapper struct {
	target targetLogger
}

func newWrapper(target targetLogger) Logger {
	return &logWrapper{target: target}
}

func (lw *logWrapper) Panic(msg string, ctx ...Ctx) {
	lw.handler(msg, ctx).Panic(msg)
}

func (lw *logWrapper) Fatal(msg string, ctx ...Ctx) {
	lw.handler(msg, ctx).Fatal(msg)
}

func (lw *logWrapper) Error(msg string, ctx ...Ctx) {
	lw.handler(msg, ctx).Error(msg)
}

func (lw *logWrapper) Warn(msg string, ctx ...Ctx) {
	lw.handler(msg, ctx).Warn(msg)
}

func (lw *logWrapper) Info(msg string, ctx ...Ctx) {
	lw.handler(msg, ctx).Info(msg)
}

func (lw *logWrapper) Debug(msg string, ctx ...Ctx) {
	lw.handler(msg, ctx).Debug(msg)
}

func (lw *logWrapper) Trace(msg string, ctx ...Ctx) {
	lw.handler(msg, ctx).Trace(msg)
}

// AddContext returns a new logger that always includes the given context.
func (lw *logWrapper) AddContext(ctx Ctx) Logger {
	return &logWrapper{target: lw.target.WithFields(logrus.Fields(ctx))}
}

func (lw *logWrapper) handler(msg string, ctx []Ctx) targetLogger {
	if len(ctx) == 0 {
		return lw.target
	}

	fields := logrus.Fields{}
	for _, c := range ctx {
		for k, v := range c {
			fields[k] = v
		}
	}

	return lw.target.WithFields(fields)
}
