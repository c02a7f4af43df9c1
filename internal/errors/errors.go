// Package errors provides centralized error definitions and error handling utilities
// for the hookbus codebase. It defines sentinel errors, typed errors carrying
// dispatch context, and error classification helpers.
//
// # Error Types
//
// Domain-specific errors represent failures in a specific subsystem:
//   - ListenerError: a listener panicked or returned an error during a broadcast
//   - ResourceError: a resource pack file could not be read or decoded
//
// Semantic errors represent common error conditions:
//   - NotFoundError: resource not found
//   - ValidationError: invalid input or configuration
//
// # Usage
//
// Creating errors:
//
//	err := errors.NewListenerError("server", "*events.ChatMessageEvent", "pre", cause).
//	    WithSubscription(7, "chat-filter")
//
// Checking errors:
//
//	if errors.Is(err, errors.ErrListenerPanic) { ... }
//
//	var lerr *errors.ListenerError
//	if errors.As(err, &lerr) { ... }
//
// # Error Classification
//
// Errors can be classified by severity and by whether they are safe to show
// to an operator: see [GetSeverity] and [IsUserFacing].
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Re-export standard library functions for convenience.
// This allows callers to import only this package for all error handling.
var (
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
	New    = errors.New
	Join   = errors.Join
)

// Severity represents the severity level of an error.
type Severity int

const (
	// SeverityDebug is for errors that are useful for debugging but not critical.
	SeverityDebug Severity = iota
	// SeverityInfo is for informational errors that don't indicate a problem.
	SeverityInfo
	// SeverityWarning is for errors that might indicate a problem but aren't critical.
	SeverityWarning
	// SeverityError is for errors that indicate a real problem.
	SeverityError
	// SeverityCritical is for errors that require immediate attention.
	SeverityCritical
)

// String returns the string representation of the severity level.
func (s Severity) String() string {
	switch s {
	case SeverityDebug:
		return "debug"
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	case SeverityCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// -----------------------------------------------------------------------------
// Sentinel Errors
// -----------------------------------------------------------------------------

// Dispatch-related sentinel errors
var (
	// ErrNilListener is the panic value raised when a nil listener is registered.
	ErrNilListener = New("listener cannot be nil")
	// ErrListenerPanic indicates that a listener panicked during a broadcast.
	ErrListenerPanic = New("listener panicked")
	// ErrListenerFailed indicates that a listener returned an error during a broadcast.
	ErrListenerFailed = New("listener failed")
	// ErrInvalidKind is the panic value raised when a listener is registered
	// for an interface type, which no broadcast value can ever have.
	ErrInvalidKind = New("event kind must be a concrete type")
	// ErrEmptyScope is the panic value raised when a scoped operation is given
	// the empty scope.
	ErrEmptyScope = New("scope cannot be empty")
)

// Loop-related sentinel errors
var (
	// ErrLoopStopped indicates that work was submitted to a loop that is not running.
	ErrLoopStopped = New("loop is not running")
	// ErrLoopFull indicates that the loop's work queue cannot accept more tasks.
	ErrLoopFull = New("loop queue is full")
	// ErrLoopRunning indicates that Run was called on a loop that is already running.
	ErrLoopRunning = New("loop is already running")
	// ErrTaskPanic indicates that a task submitted with Do panicked on the loop.
	ErrTaskPanic = New("loop task panicked")
)

// Resource-related sentinel errors
var (
	// ErrPackNotFound indicates that a resource pack directory does not exist.
	ErrPackNotFound = New("resource pack not found")
	// ErrInvalidResource indicates that a resource file could not be decoded.
	ErrInvalidResource = New("invalid resource")
	// ErrUnsupportedFormat indicates that a resource file has an unknown extension.
	ErrUnsupportedFormat = New("unsupported resource format")
)

// General sentinel errors
var (
	// ErrInvalidInput indicates that input validation failed.
	ErrInvalidInput = New("invalid input")
	// ErrNotFound indicates that a named thing could not be found.
	ErrNotFound = New("not found")
)

// -----------------------------------------------------------------------------
// Base Error Interface
// -----------------------------------------------------------------------------

// HookbusError is the base interface for all hookbus errors.
type HookbusError interface {
	error

	// Unwrap returns the underlying error, if any.
	Unwrap() error

	// Severity returns the severity level of this error.
	Severity() Severity

	// IsUserFacing returns true if the error message is safe to display
	// to an operator without further translation.
	IsUserFacing() bool
}

// baseError provides common functionality for all error types.
type baseError struct {
	message    string
	cause      error
	severity   Severity
	userFacing bool
}

// Error returns the error message.
func (e *baseError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.message, e.cause)
	}
	return e.message
}

// Unwrap returns the underlying error.
func (e *baseError) Unwrap() error {
	return e.cause
}

// Severity returns the error severity.
func (e *baseError) Severity() Severity {
	return e.severity
}

// IsUserFacing returns whether the error is safe to show users.
func (e *baseError) IsUserFacing() bool {
	return e.userFacing
}

// format renders "<prefix> [k=v, ...]: message: cause".
func (e *baseError) format(prefix string, parts []string) string {
	if len(parts) > 0 {
		prefix = fmt.Sprintf("%s [%s]", prefix, strings.Join(parts, ", "))
	}
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", prefix, e.message)
}

// -----------------------------------------------------------------------------
// Domain-Specific Errors
// -----------------------------------------------------------------------------

// ListenerError describes a listener that failed while an event was being
// delivered. The dispatcher never returns it to the producer; it is logged and
// handed to the bus failure hook.
//
// Example:
//
//	err := errors.NewListenerError("server", "*events.JoinEvent", "post", cause)
//	err = err.WithSubscription(12, "greeter")
//	fmt.Println(err) // "listener error [bus=server, kind=*events.JoinEvent, phase=post, sub=12, label=greeter]: ..."
type ListenerError struct {
	baseError
	Bus            string
	Kind           string
	Phase          string
	SubscriptionID uint64
	Label          string
	// PanicValue holds the recovered value when the listener panicked.
	PanicValue any
	// Stack is the goroutine stack captured at the panic site.
	Stack string

	panicked bool
}

// NewListenerError creates a ListenerError for a listener that returned cause.
// When cause is itself a HookbusError its severity and user-facing flag carry
// over, so a listener rejecting a bad resource is reported as a warning.
func NewListenerError(bus, kind, phase string, cause error) *ListenerError {
	severity, userFacing := SeverityError, false
	var herr HookbusError
	if cause != nil && As(cause, &herr) {
		severity, userFacing = herr.Severity(), herr.IsUserFacing()
	}
	return &ListenerError{
		baseError: baseError{
			message:    "listener returned an error",
			cause:      cause,
			severity:   severity,
			userFacing: userFacing,
		},
		Bus:   bus,
		Kind:  kind,
		Phase: phase,
	}
}

// NewListenerPanic creates a ListenerError for a listener that panicked.
func NewListenerPanic(bus, kind, phase string, value any, stack string) *ListenerError {
	return &ListenerError{
		baseError: baseError{
			message:  fmt.Sprintf("listener panicked: %v", value),
			severity: SeverityCritical,
		},
		Bus:        bus,
		Kind:       kind,
		Phase:      phase,
		PanicValue: value,
		Stack:      stack,
		panicked:   true,
	}
}

// WithSubscription adds the failing subscription's identity.
func (e *ListenerError) WithSubscription(id uint64, label string) *ListenerError {
	e.SubscriptionID = id
	e.Label = label
	return e
}

// Panicked reports whether the listener panicked rather than returning an error.
func (e *ListenerError) Panicked() bool {
	return e.panicked
}

// Error returns the formatted error message.
func (e *ListenerError) Error() string {
	var parts []string
	if e.Bus != "" {
		parts = append(parts, fmt.Sprintf("bus=%s", e.Bus))
	}
	if e.Kind != "" {
		parts = append(parts, fmt.Sprintf("kind=%s", e.Kind))
	}
	if e.Phase != "" {
		parts = append(parts, fmt.Sprintf("phase=%s", e.Phase))
	}
	if e.SubscriptionID != 0 {
		parts = append(parts, fmt.Sprintf("sub=%d", e.SubscriptionID))
	}
	if e.Label != "" {
		parts = append(parts, fmt.Sprintf("label=%s", e.Label))
	}
	return e.format("listener error", parts)
}

// Is matches any *ListenerError, ErrListenerPanic for panics and
// ErrListenerFailed for returned errors.
func (e *ListenerError) Is(target error) bool {
	if _, ok := target.(*ListenerError); ok {
		return true
	}
	if e.Panicked() {
		return target == ErrListenerPanic
	}
	if target == ErrListenerFailed {
		return true
	}
	return e.cause != nil && errors.Is(e.cause, target)
}

// ResourceError represents a failure to read or decode a resource pack file.
//
// Example:
//
//	err := errors.NewResourceError("decode failed", errors.ErrInvalidResource).WithPath("chat.yaml")
type ResourceError struct {
	baseError
	Path string
}

// NewResourceError creates a new ResourceError.
func NewResourceError(message string, cause error) *ResourceError {
	return &ResourceError{
		baseError: baseError{
			message:    message,
			cause:      cause,
			severity:   SeverityWarning,
			userFacing: true,
		},
	}
}

// WithPath adds the resource path to the error context.
func (e *ResourceError) WithPath(path string) *ResourceError {
	e.Path = path
	return e
}

// Error returns the formatted error message.
func (e *ResourceError) Error() string {
	var parts []string
	if e.Path != "" {
		parts = append(parts, fmt.Sprintf("path=%s", e.Path))
	}
	return e.format("resource error", parts)
}

// Is checks if this error matches the target.
func (e *ResourceError) Is(target error) bool {
	if _, ok := target.(*ResourceError); ok {
		return true
	}
	return e.cause != nil && errors.Is(e.cause, target)
}

// -----------------------------------------------------------------------------
// Semantic Errors
// -----------------------------------------------------------------------------

// NotFoundError represents a missing named resource.
//
// Example:
//
//	err := errors.NewNotFoundError("bus", "render")
type NotFoundError struct {
	baseError
	ResourceType string
	ResourceID   string
}

// NewNotFoundError creates a new NotFoundError.
func NewNotFoundError(resourceType, resourceID string) *NotFoundError {
	return &NotFoundError{
		baseError: baseError{
			message:    fmt.Sprintf("%s not found", resourceType),
			severity:   SeverityWarning,
			userFacing: true,
		},
		ResourceType: resourceType,
		ResourceID:   resourceID,
	}
}

// WithCause adds a cause to the error.
func (e *NotFoundError) WithCause(cause error) *NotFoundError {
	e.cause = cause
	return e
}

// Error returns the formatted error message.
func (e *NotFoundError) Error() string {
	msg := fmt.Sprintf("%s %q not found", e.ResourceType, e.ResourceID)
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", msg, e.cause)
	}
	return msg
}

// Is checks if this error matches the target.
func (e *NotFoundError) Is(target error) bool {
	if _, ok := target.(*NotFoundError); ok {
		return true
	}
	if target == ErrNotFound {
		return true
	}
	return e.cause != nil && errors.Is(e.cause, target)
}

// ValidationError represents invalid input or configuration.
//
// Example:
//
//	err := errors.NewValidationError("must be positive").WithField("bus.loop_queue_size").WithValue(0)
type ValidationError struct {
	baseError
	Field string
	Value any
}

// NewValidationError creates a new ValidationError.
func NewValidationError(message string) *ValidationError {
	return &ValidationError{
		baseError: baseError{
			message:    message,
			severity:   SeverityWarning,
			userFacing: true,
		},
	}
}

// WithField adds a field name to the error context.
func (e *ValidationError) WithField(field string) *ValidationError {
	e.Field = field
	return e
}

// WithValue adds the invalid value to the error context.
func (e *ValidationError) WithValue(value any) *ValidationError {
	e.Value = value
	return e
}

// WithCause adds a cause to the error.
func (e *ValidationError) WithCause(cause error) *ValidationError {
	e.cause = cause
	return e
}

// Error returns the formatted error message.
func (e *ValidationError) Error() string {
	var parts []string
	if e.Field != "" {
		parts = append(parts, fmt.Sprintf("field=%s", e.Field))
	}
	if e.Value != nil {
		parts = append(parts, fmt.Sprintf("value=%v", e.Value))
	}
	return e.format("validation error", parts)
}

// Is checks if this error matches the target.
func (e *ValidationError) Is(target error) bool {
	if _, ok := target.(*ValidationError); ok {
		return true
	}
	if target == ErrInvalidInput {
		return true
	}
	return e.cause != nil && errors.Is(e.cause, target)
}

// -----------------------------------------------------------------------------
// Error Classification Helpers
// -----------------------------------------------------------------------------

// IsListenerFailure reports whether err describes a failed listener.
func IsListenerFailure(err error) bool {
	var lerr *ListenerError
	return As(err, &lerr)
}

// IsUserFacing returns true if the error message is safe to display to an
// operator. Errors implementing HookbusError decide for themselves; anything
// else is treated as internal.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	var herr HookbusError
	if As(err, &herr) {
		return herr.IsUserFacing()
	}
	return false
}

// GetSeverity returns the severity level of the error.
// Returns SeverityError for errors that don't implement HookbusError.
//
// Example:
//
//	switch errors.GetSeverity(err) {
//	case errors.SeverityCritical:
//	    logger.Error("listener crashed", "error", err)
//	case errors.SeverityWarning:
//	    logger.Warn("skipped", "error", err)
//	}
func GetSeverity(err error) Severity {
	if err == nil {
		return SeverityDebug
	}
	var herr HookbusError
	if As(err, &herr) {
		return herr.Severity()
	}
	return SeverityError
}

// -----------------------------------------------------------------------------
// Convenience Constructors
// -----------------------------------------------------------------------------

// Wrap wraps an error with additional context message.
//
// Example:
//
//	err := errors.Wrap(baseErr, "failed to reload pack")
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with a formatted context message.
//
// Example:
//
//	err := errors.Wrapf(baseErr, "failed to read %s", path)
func Wrapf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}
