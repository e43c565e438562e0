package logger

import (
	"os"

	"github.com/sirupsen/logrus"
)

// Log contains the logger used by all the logging functions.
var Log Logger

func init() {
	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	logger.SetLevel(logrus.InfoLevel)
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	Log = newWrapper(logger)
}

// InitLogger configures the global logger verbosity.
func InitLogger(verbose bool, debug bool) {
	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	switch {
	case debug:
		logger.SetLevel(logrus.DebugLevel)
	case verbose:
		logger.SetLevel(logrus.InfoLevel)
	default:
		logger.SetLevel(logrus.WarnLevel)
	}

	Log = newWrapper(logger)
}

// AddContext returns a new logger with the given context added.
func AddContext(ctx Ctx) Logger {
	return Log.AddContext(ctx)
}

// Panic logs a panic level message and panics.
func Panic(msg string, ctx ...Ctx) {
	Log.Panic(msg, ctx...)
}

// Fatal logs a fatal level message and exits.
func Fatal(msg string, ctx ...Ctx) {
	Log.Fatal(msg, ctx...)
}

// Error logs an error level message.
func Error(msg string, ctx ...Ctx) {
	Log.Error(msg, ctx...)
}

// Warn logs a warning level message.
func Warn(msg string, ctx ...Ctx) {
	Log.Warn(msg, ctx...)
}

// Info logs an info level message.
func Info(msg string, ctx ...Ctx) {
	Log.Info(msg, ctx...)
}

// Debug logs a debug level message.
func Debug(msg string, ctx ...Ctx) {
	Log.Debug(msg, ctx...)
}

// Trace logs a trace level message.
func Trace(msg string, ctx ...Ctx) {
	Log.Trace(msg, ctx...)
}
