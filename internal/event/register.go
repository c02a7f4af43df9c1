package event

import errs "github.com/Iron-Ham/hookbus/internal/errors"

// Registrar accepts listener registrations. It is implemented by *Bus, which
// registers unscoped listeners, and by *Scoped, which tags every listener with
// its scope.
type Registrar interface {
	register(kind Kind, phase Phase, call func(any) error, cfg registerConfig) Handle
}

type registerConfig struct {
	label string
	scope Scope
}

// RegisterOption configures a single registration.
type RegisterOption func(*registerConfig)

// WithLabel names the listener in logs and failure reports.
func WithLabel(label string) RegisterOption {
	return func(c *registerConfig) {
		c.label = label
	}
}

// InScope tags the listener with scope so UnregisterScope removes it. A
// Scoped registrar overrides this with its own scope.
func InScope(scope Scope) RegisterOption {
	return func(c *registerConfig) {
		c.scope = scope
	}
}

// Register subscribes fn to events of kind E in phase and returns a handle
// for Unregister. Listeners of the same (E, phase) run in registration order.
//
// Registering a nil fn, or an interface type E, is a programming error and
// panics.
func Register[E any](r Registrar, phase Phase, fn func(E), opts ...RegisterOption) Handle {
	if fn == nil {
		panic(errs.ErrNilListener)
	}
	return registerKind[E](r, phase, func(v any) error {
		fn(v.(E))
		return nil
	}, opts)
}

// RegisterErr is like Register for listeners that report failure by
// returning an error. A returned error is logged like a panic and does not
// stop delivery.
func RegisterErr[E any](r Registrar, phase Phase, fn func(E) error, opts ...RegisterOption) Handle {
	if fn == nil {
		panic(errs.ErrNilListener)
	}
	return registerKind[E](r, phase, func(v any) error {
		return fn(v.(E))
	}, opts)
}

func registerKind[E any](r Registrar, phase Phase, call func(any) error, opts []RegisterOption) Handle {
	kind := KindOf[E]()
	if !kind.concrete() {
		panic(errs.ErrInvalidKind)
	}
	var cfg registerConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	return r.register(kind, phase, call, cfg)
}
