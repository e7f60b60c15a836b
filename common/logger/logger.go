package logger

import (
	"fmt"
	"log"
	"os"
)

// Leveled logging for the whole engine. The level is process-wide; request
// identifiers go into the message itself.

// LogLevel represents log severity levels
type LogLevel int

const (
	LevelDebug LogLevel = iota
	LevelInfo
	LevelWarn
	LevelError
)

var (
	// CurrentLevel is the current logging level (default: Info)
	CurrentLevel = LevelInfo

	std = log.New(os.Stderr, "", log.LstdFlags|log.Lmicroseconds)
)

// Debugf logs a debug message
func Debugf(format string, args ...interface{}) {
	if CurrentLevel > LevelDebug {
		return
	}
	logf(LevelDebug, format, args...)
}

// Infof logs an info message
func Infof(format string, args ...interface{}) {
	if CurrentLevel > LevelInfo {
		return
	}
	logf(LevelInfo, format, args...)
}

// Warnf logs a warning message
func Warnf(format string, args ...interface{}) {
	if CurrentLevel > LevelWarn {
		return
	}
	logf(LevelWarn, format, args...)
}

// Errorf logs an error message
func Errorf(format string, args ...interface{}) {
	logf(LevelError, format, args...)
}

func logf(level LogLevel, format string, args ...interface{}) {
	std.Output(3, levelPrefix(level)+fmt.Sprintf(format, args...))
}

func levelPrefix(level LogLevel) string {
	switch level {
	case LevelDebug:
		return "[DEBUG] "
	case LevelInfo:
		return "[INFO] "
	case LevelWarn:
		return "[WARN] "
	case LevelError:
		return "[ERROR] "
	default:
		return "[LOG] "
	}
}

// SetLevel sets the minimum log level
func SetLevel(level LogLevel) {
	CurrentLevel = level
}

// ParseLevel maps a level name to a LogLevel, defaulting to info.
func ParseLevel(s string) LogLevel {
	switch s {
	case "debug":
		return LevelDebug
	case "warn":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

// SetOutput redirects log output; tests use this to silence the logger.
func SetOutput(l *log.Logger) {
	if l != nil {
		std = l
	}
}
