package event

// Cancellable is implemented by events a listener may cancel. Cancellation
// does not stop delivery; the producer reads IsCancelled after Broadcast
// returns and decides whether to suppress the guarded action.
type Cancellable interface {
	Cancel()
	IsCancelled() bool
}

// TypedResult is implemented by events whose cancellation carries a
// replacement value. Result returns the override once cancelled and the
// producer-supplied default otherwise.
//
// TypedResult has no Cancel method: cancelling without a value does
// not compile.
type TypedResult[T any] interface {
	CancelWith(result T)
	IsCancelled() bool
	Result() T
}

// Cancelable is an embeddable implementation of Cancellable. Embed it by
// value and broadcast a pointer to the enclosing struct.
type Cancelable struct {
	cancelled bool
}

// Cancel marks the event cancelled. Calling it again has no further effect.
func (c *Cancelable) Cancel() {
	c.cancelled = true
}

// IsCancelled reports whether any listener cancelled the event.
func (c *Cancelable) IsCancelled() bool {
	return c.cancelled
}

// CancelableResult is an embeddable implementation of TypedResult. Build it
// with NewCancelableResult so the default is set.
type CancelableResult[T any] struct {
	def       T
	value     T
	cancelled bool
}

// NewCancelableResult returns a CancelableResult whose Result is def until
// cancelled.
func NewCancelableResult[T any](def T) CancelableResult[T] {
	return CancelableResult[T]{def: def}
}

// CancelWith cancels the event and sets the override. A later call replaces
// the override; the event stays cancelled.
func (r *CancelableResult[T]) CancelWith(result T) {
	r.value = result
	r.cancelled = true
}

// IsCancelled reports whether any listener cancelled the event.
func (r *CancelableResult[T]) IsCancelled() bool {
	return r.cancelled
}

// Result returns the override if cancelled, else the default.
func (r *CancelableResult[T]) Result() T {
	if r.cancelled {
		return r.value
	}
	return r.def
}

// Default returns the producer-supplied default, ignoring any override.
func (r *CancelableResult[T]) Default() T {
	return r.def
}

// IsCancelled reports whether ev has been cancelled. Values that expose no
// cancellation state are never cancelled.
func IsCancelled(ev any) bool {
	c, ok := ev.(interface{ IsCancelled() bool })
	return ok && c.IsCancelled()
}

// ResultOr returns ev's typed result, or fallback if ev does not carry a
// result of type T.
func ResultOr[T any](ev any, fallback T) T {
	if r, ok := ev.(interface{ Result() T }); ok {
		return r.Result()
	}
	return fallback
}
