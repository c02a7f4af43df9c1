package config

import (
	"fmt"
	"slices"
	"strings"

	errs "github.com/Iron-Ham/hookbus/internal/errors"
)

// ValidationError represents a single validation failure
type ValidationError struct {
	Field   string // The config field path (e.g., "bus.loop_queue_size")
	Value   any    // The invalid value
	Message string // Human-readable error description
}

// Error implements the error interface for ValidationError
func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (got: %v)", e.Field, e.Message, e.Value)
}

// Is reports whether target is ErrInvalidInput.
func (e ValidationError) Is(target error) bool {
	return target == errs.ErrInvalidInput
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

// Error implements the error interface for ValidationErrors
func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	if len(e) == 1 {
		return e[0].Error()
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d validation errors:\n", len(e)))
	for i, err := range e {
		sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, err.Error()))
	}
	return sb.String()
}

// Is reports whether target is ErrInvalidInput.
func (e ValidationErrors) Is(target error) bool {
	return target == errs.ErrInvalidInput
}

// ValidLogLevels returns the list of valid log levels
func ValidLogLevels() []string {
	return []string{"debug", "info", "warn", "error"}
}

// Upper bounds for numeric settings.
const (
	maxLogSizeMB     = 1000 // 1GB
	maxLoopQueueSize = 1 << 20
	maxTickMs        = 60_000
	maxDebounceMs    = 60_000
	maxSimPlayers    = 1000
)

// Validate checks the Config for invalid values and returns all validation errors found
func (c *Config) Validate() []ValidationError {
	var errors []ValidationError

	errors = append(errors, c.validateLogging()...)
	errors = append(errors, c.validateBus()...)
	errors = append(errors, c.validateReload()...)
	errors = append(errors, c.validateSimulate()...)

	return errors
}

// validateLogging validates the LoggingConfig
func (c *Config) validateLogging() []ValidationError {
	var errors []ValidationError

	// Validate log level
	if c.Logging.Level != "" && !slices.Contains(ValidLogLevels(), c.Logging.Level) {
		errors = append(errors, ValidationError{
			Field:   "logging.level",
			Value:   c.Logging.Level,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(ValidLogLevels(), ", ")),
		})
	}

	// Max size must be positive
	if c.Logging.MaxSizeMB <= 0 {
		errors = append(errors, ValidationError{
			Field:   "logging.max_size_mb",
			Value:   c.Logging.MaxSizeMB,
			Message: "must be positive",
		})
	}

	// Reasonable upper bound for log file size
	if c.Logging.MaxSizeMB > maxLogSizeMB {
		errors = append(errors, ValidationError{
			Field:   "logging.max_size_mb",
			Value:   c.Logging.MaxSizeMB,
			Message: fmt.Sprintf("exceeds maximum of %dMB", maxLogSizeMB),
		})
	}

	// Max backups must be non-negative
	if c.Logging.MaxBackups < 0 {
		errors = append(errors, ValidationError{
			Field:   "logging.max_backups",
			Value:   c.Logging.MaxBackups,
			Message: "must be non-negative",
		})
	}

	return errors
}

// validateBus validates the BusConfig
func (c *Config) validateBus() []ValidationError {
	var errors []ValidationError

	if c.Bus.LoopQueueSize <= 0 || c.Bus.LoopQueueSize > maxLoopQueueSize {
		errors = append(errors, ValidationError{
			Field:   "bus.loop_queue_size",
			Value:   c.Bus.LoopQueueSize,
			Message: fmt.Sprintf("must be between 1 and %d", maxLoopQueueSize),
		})
	}

	if c.Bus.TickIntervalMs <= 0 || c.Bus.TickIntervalMs > maxTickMs {
		errors = append(errors, ValidationError{
			Field:   "bus.tick_interval_ms",
			Value:   c.Bus.TickIntervalMs,
			Message: fmt.Sprintf("must be between 1 and %d", maxTickMs),
		})
	}

	return errors
}

// validateReload validates the ReloadConfig
func (c *Config) validateReload() []ValidationError {
	var errors []ValidationError

	if c.Reload.DebounceMs < 0 || c.Reload.DebounceMs > maxDebounceMs {
		errors = append(errors, ValidationError{
			Field:   "reload.debounce_ms",
			Value:   c.Reload.DebounceMs,
			Message: fmt.Sprintf("must be between 0 and %d", maxDebounceMs),
		})
	}

	if strings.ContainsRune(c.Reload.PackDir, 0) {
		errors = append(errors, ValidationError{
			Field:   "reload.pack_dir",
			Value:   c.Reload.PackDir,
			Message: "must not contain NUL bytes",
		})
	}

	return errors
}

// validateSimulate validates the SimulateConfig
func (c *Config) validateSimulate() []ValidationError {
	var errors []ValidationError

	if c.Simulate.Players < 0 || c.Simulate.Players > maxSimPlayers {
		errors = append(errors, ValidationError{
			Field:   "simulate.players",
			Value:   c.Simulate.Players,
			Message: fmt.Sprintf("must be between 0 and %d", maxSimPlayers),
		})
	}

	if c.Simulate.Ticks < 0 {
		errors = append(errors, ValidationError{
			Field:   "simulate.ticks",
			Value:   c.Simulate.Ticks,
			Message: "must be non-negative",
		})
	}

	if c.Simulate.Frames < 0 {
		errors = append(errors, ValidationError{
			Field:   "simulate.frames",
			Value:   c.Simulate.Frames,
			Message: "must be non-negative",
		})
	}

	return errors
}
