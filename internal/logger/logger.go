// Package logger provides leveled logging for the dashboard process.
// It wraps the gommon logger so that the HTTP server and the application
// write through the same instance.
package logger

import (
	"io"
	"os"
	"strings"

	"github.com/labstack/gommon/log"
)

const textHeader = "${time_rfc3339} ${level}"

var defaultLogger = newLogger("info", "text", os.Stderr)

func newLogger(level, format string, out io.Writer) *log.Logger {
	l := log.New("autodash")
	l.SetOutput(out)
	l.SetLevel(ParseLevel(level))
	if strings.ToLower(format) == "text" {
		l.SetHeader(textHeader)
	}
	return l
}

// ParseLevel maps a config level name to a gommon level. Unknown names map to info.
func ParseLevel(level string) log.Lvl {
	switch strings.ToLower(level) {
	case "debug":
		return log.DEBUG
	case "warn":
		return log.WARN
	case "error":
		return log.ERROR
	default:
		return log.INFO
	}
}

// Init replaces the default logger. format is "json" or "text".
func Init(level string, format string) {
	defaultLogger = newLogger(level, format, os.Stderr)
}

// SetOutput redirects the default logger, mainly for tests.
func SetOutput(w io.Writer) {
	defaultLogger.SetOutput(w)
}

// Default returns the underlying logger. It satisfies echo.Logger.
func Default() *log.Logger {
	return defaultLogger
}

func Debug(format string, args ...interface{}) {
	defaultLogger.Debugf(format, args...)
}

func Info(format string, args ...interface{}) {
	defaultLogger.Infof(format, args...)
}

func Warn(format string, args ...interface{}) {
	defaultLogger.Warnf(format, args...)
}

func Error(format string, args ...interface{}) {
	defaultLogger.Errorf(format, args...)
}

// Fatal logs and exits with status 1.
func Fatal(format string, args ...interface{}) {
	defaultLogger.Fatalf(format, args...)
}
