// Package logging provides the logging interface and default implementations
// used by durablefs.
//
// The file layer sits on the hot path of a storage engine, so nothing is
// logged on success. Warnings cover network-filesystem write retries and
// fallocate giving up after repeated EINTR. Debug traces cover pre-allocation
// fallbacks, directories created on first use, resizes and short reads.
// Failures are returned to the caller in a Result, not logged.
//
// Fatalf does not exit the process. It logs at FATAL level and calls the
// configured FatalHandler, which the embedding program decides on.
//
// Log format: YYYY/MM/DD HH:MM:SS LEVEL [component] message
//
// Example: 2026/10/18 09:12:44 WARN [write] pwrite EINVAL on fd 7, retrying (attempt 2/3)
package logging

import (
	"fmt"
	"io"
	"log"
	"os"
	"reflect"
	"sync/atomic"
)

// FatalHandler is called when Fatalf is invoked.
// It must be safe for concurrent use and must not call Fatalf.
type FatalHandler func(msg string)

// Level represents the logging level.
type Level int

const (
	// LevelError logs only errors.
	LevelError Level = iota
	// LevelWarn logs warnings and errors.
	LevelWarn
	// LevelInfo logs info, warnings, and errors.
	LevelInfo
	// LevelDebug logs everything including debug messages.
	LevelDebug
)

// String returns the string representation of the level.
func (l Level) String() string {
	switch l {
	case LevelError:
		return "ERROR"
	case LevelWarn:
		return "WARN"
	case LevelInfo:
		return "INFO"
	case LevelDebug:
		return "DEBUG"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel converts a level name into a Level. It accepts the upper-case
// form printed by String and its all-lower-case form.
func ParseLevel(s string) (Level, error) {
	switch s {
	case "ERROR", "error":
		return LevelError, nil
	case "WARN", "warn":
		return LevelWarn, nil
	case "INFO", "info":
		return LevelInfo, nil
	case "DEBUG", "debug":
		return LevelDebug, nil
	default:
		return LevelWarn, fmt.Errorf("logging: unknown level %q", s)
	}
}

// Logger defines the interface for file-layer logging.
//
// Implementations MUST be safe for concurrent use: positional I/O lets many
// goroutines drive the same FileIO at once.
type Logger interface {
	// Errorf logs a formatted error message.
	Errorf(format string, args ...any)

	// Warnf logs a formatted warning message.
	Warnf(format string, args ...any)

	// Infof logs a formatted informational message.
	Infof(format string, args ...any)

	// Debugf logs a formatted debug message.
	Debugf(format string, args ...any)

	// Fatalf logs a fatal error and triggers the fatal handler.
	Fatalf(format string, args ...any)
}

// DefaultLogger writes level-filtered lines to an io.Writer.
// Level is read-only after construction.
type DefaultLogger struct {
	logger       *log.Logger
	level        Level
	fatalHandler atomic.Pointer[FatalHandler]
}

// NewDefaultLogger creates a logger writing to stderr.
func NewDefaultLogger(level Level) *DefaultLogger {
	return NewLogger(os.Stderr, level)
}

// NewLogger creates a logger with the specified output and level.
func NewLogger(w io.Writer, level Level) *DefaultLogger {
	return &DefaultLogger{
		logger: log.New(w, "", log.LstdFlags),
		level:  level,
	}
}

// SetFatalHandler sets the handler called when Fatalf is invoked.
func (l *DefaultLogger) SetFatalHandler(h FatalHandler) {
	l.fatalHandler.Store(&h)
}

// Level returns the logging level.
func (l *DefaultLogger) Level() Level {
	return l.level
}

func (l *DefaultLogger) output(level Level, format string, args []any) {
	if l.level >= level {
		_ = l.logger.Output(3, level.String()+" "+fmt.Sprintf(format, args...))
	}
}

// Errorf logs a formatted error message.
func (l *DefaultLogger) Errorf(format string, args ...any) {
	l.output(LevelError, format, args)
}

// Warnf logs a formatted warning message.
func (l *DefaultLogger) Warnf(format string, args ...any) {
	l.output(LevelWarn, format, args)
}

// Infof logs a formatted informational message.
func (l *DefaultLogger) Infof(format string, args ...any) {
	l.output(LevelInfo, format, args)
}

// Debugf logs a formatted debug message.
func (l *DefaultLogger) Debugf(format string, args ...any) {
	l.output(LevelDebug, format, args)
}

// Fatalf logs at FATAL level regardless of the configured level and then
// calls the fatal handler, if one is set.
func (l *DefaultLogger) Fatalf(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	_ = l.logger.Output(2, "FATAL "+msg)

	if h := l.fatalHandler.Load(); h != nil {
		(*h)(msg)
	}
}

// Namespace prefixes for log messages, one per component.
const (
	// NSWrite is the namespace for durable positional writes.
	NSWrite = "[write] "
	// NSAlloc is the namespace for space allocation.
	NSAlloc = "[alloc] "
	// NSPath is the namespace for directory creation and sync.
	NSPath = "[path] "
	// NSRead is the namespace for exact-range reads.
	NSRead = "[read] "
	// NSResize is the namespace for page-aligned resizing.
	NSResize = "[resize] "
	// NSSmoke is the namespace for the smoketest harness.
	NSSmoke = "[smoke] "
)

// IsNil returns true if the logger is nil or a typed-nil.
//
//	var l *MyLogger = nil
//	opts.Logger = l  // interface is not nil, but the pointer is
func IsNil(l Logger) bool {
	if l == nil {
		return true
	}
	v := reflect.ValueOf(l)
	return v.Kind() == reflect.Ptr && v.IsNil()
}

// OrDiscard returns l if it is usable, otherwise Discard.
func OrDiscard(l Logger) Logger {
	if IsNil(l) {
		return Discard
	}
	return l
}
