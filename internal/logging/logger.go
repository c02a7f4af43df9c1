// Package logging provides structured logging for hookbus.
// It wraps Go's log/slog package to provide JSON-formatted logs with
// context propagation (bus, scope, phase) for debugging listener failures.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Log levels supported by the logger
const (
	LevelDebug = "DEBUG"
	LevelInfo  = "INFO"
	LevelWarn  = "WARN"
	LevelError = "ERROR"
)

// LogFileName is the name of the log file created inside a log directory.
const LogFileName = "debug.log"

// Logger provides structured logging with context propagation.
// It is safe for concurrent use.
type Logger struct {
	logger   *slog.Logger
	closer   io.Closer
	rotation *RotatingWriter // Shared with child loggers; nil without rotation
	mu       sync.Mutex      // Protects closer
	attrs    []slog.Attr     // Persistent attributes (bus, scope, phase)
}

// NewLogger creates a new Logger that writes JSON-formatted logs to
// {logDir}/debug.log.
//
// The level parameter controls which messages are logged:
//   - DEBUG: All messages
//   - INFO: Info, Warn, and Error messages
//   - WARN: Warn and Error messages
//   - ERROR: Only Error messages
//
// If logDir is empty, logs will be written to stderr.
func NewLogger(logDir string, level string) (*Logger, error) {
	if logDir == "" {
		return NewWithWriter(os.Stderr, level), nil
	}

	if err := os.MkdirAll(logDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	logPath := filepath.Join(logDir, LogFileName)
	file, err := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}

	l := NewWithWriter(file, level)
	l.closer = file
	return l, nil
}

// NewLoggerWithRotation is like NewLogger but rotates {logDir}/debug.log
// according to config. If logDir is empty, logs will be written to stderr
// and rotation is not applied.
func NewLoggerWithRotation(logDir string, level string, config RotationConfig) (*Logger, error) {
	if logDir == "" {
		return NewWithWriter(os.Stderr, level), nil
	}

	rw, err := NewRotatingWriter(filepath.Join(logDir, LogFileName), config)
	if err != nil {
		return nil, err
	}

	l := NewWithWriter(rw, level)
	l.closer = rw
	l.rotation = rw
	return l, nil
}

// NewWithWriter creates a Logger writing JSON lines to w. The caller keeps
// ownership of w; Close does not close it.
func NewWithWriter(w io.Writer, level string) *Logger {
	opts := &slog.HandlerOptions{
		Level: parseLevel(level),
	}
	return &Logger{
		logger: slog.New(slog.NewJSONHandler(w, opts)),
		attrs:  make([]slog.Attr, 0),
	}
}

// parseLevel converts a string log level to slog.Level.
// Defaults to INFO if the level string is not recognized.
func parseLevel(level string) slog.Level {
	switch strings.ToUpper(level) {
	case LevelDebug:
		return slog.LevelDebug
	case LevelInfo:
		return slog.LevelInfo
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// WithBus returns a new Logger with the bus name added to all log entries.
func (l *Logger) WithBus(name string) *Logger {
	return l.withAttr(slog.String("bus", name))
}

// WithScope returns a new Logger with the listener scope added to all log entries.
func (l *Logger) WithScope(scope string) *Logger {
	return l.withAttr(slog.String("scope", scope))
}

// WithPhase returns a new Logger with the phase name added to all log entries.
func (l *Logger) WithPhase(phase string) *Logger {
	return l.withAttr(slog.String("phase", phase))
}

// With returns a new Logger with arbitrary key-value attributes.
// Keys and values are provided as alternating arguments.
// This creates a child logger that inherits all existing attributes.
func (l *Logger) With(args ...any) *Logger {
	if len(args) == 0 {
		return l
	}

	newAttrs := make([]slog.Attr, 0, len(l.attrs)+len(args)/2)
	newAttrs = append(newAttrs, l.attrs...)

	for i := 0; i < len(args)-1; i += 2 {
		key, ok := args[i].(string)
		if !ok {
			continue
		}
		newAttrs = append(newAttrs, slog.Any(key, args[i+1]))
	}

	return &Logger{
		logger:   l.logger,
		rotation: l.rotation,
		attrs:    newAttrs,
	}
}

// withAttr creates a new Logger with an additional attribute.
func (l *Logger) withAttr(attr slog.Attr) *Logger {
	newAttrs := make([]slog.Attr, len(l.attrs)+1)
	copy(newAttrs, l.attrs)
	newAttrs[len(l.attrs)] = attr

	return &Logger{
		logger:   l.logger,
		rotation: l.rotation,
		attrs:    newAttrs,
	}
}

// Enabled reports whether messages at level would be written.
func (l *Logger) Enabled(level string) bool {
	return l.logger.Enabled(context.Background(), parseLevel(level))
}

// Debug logs a message at DEBUG level with optional key-value pairs.
func (l *Logger) Debug(msg string, args ...any) {
	l.log(slog.LevelDebug, msg, args...)
}

// Info logs a message at INFO level with optional key-value pairs.
func (l *Logger) Info(msg string, args ...any) {
	l.log(slog.LevelInfo, msg, args...)
}

// Warn logs a message at WARN level with optional key-value pairs.
func (l *Logger) Warn(msg string, args ...any) {
	l.log(slog.LevelWarn, msg, args...)
}

// Error logs a message at ERROR level with optional key-value pairs.
func (l *Logger) Error(msg string, args ...any) {
	l.log(slog.LevelError, msg, args...)
}

// log combines persistent attributes with per-call arguments.
func (l *Logger) log(level slog.Level, msg string, args ...any) {
	allArgs := make([]any, 0, len(l.attrs)*2+len(args))
	for _, attr := range l.attrs {
		allArgs = append(allArgs, attr.Key, attr.Value.Any())
	}
	allArgs = append(allArgs, args...)

	l.logger.Log(context.Background(), level, msg, allArgs...)
}

// Close flushes and closes the log file owned by the logger.
// Loggers writing to stderr or a caller-supplied writer treat this as a no-op.
// Child loggers never own the file.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closer == nil {
		return nil
	}
	if s, ok := l.closer.(interface{ Sync() error }); ok {
		if err := s.Sync(); err != nil {
			return fmt.Errorf("failed to sync log file: %w", err)
		}
	}
	if err := l.closer.Close(); err != nil {
		return fmt.Errorf("failed to close log file: %w", err)
	}
	l.closer = nil
	return nil
}

// NopLogger returns a Logger that discards all log output.
// Useful for testing or when logging is disabled.
func NopLogger() *Logger {
	return NewWithWriter(io.Discard, LevelError)
}

// ParseLevel converts a string level to the corresponding constant.
// Returns LevelInfo if the level string is not recognized.
func ParseLevel(level string) string {
	switch strings.ToUpper(level) {
	case LevelDebug:
		return LevelDebug
	case LevelInfo:
		return LevelInfo
	case LevelWarn:
		return LevelWarn
	case LevelError:
		return LevelError
	default:
		return LevelInfo
	}
}

// ValidLevels returns the list of valid log level strings.
func ValidLevels() []string {
	return []string{LevelDebug, LevelInfo, LevelWarn, LevelError}
}
