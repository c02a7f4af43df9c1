package event

import (
	"github.com/sourcegraph/conc/panics"

	errs "github.com/Iron-Ham/hookbus/internal/errors"
	"github.com/Iron-Ham/hookbus/internal/logging"
)

// Stats counts dispatch activity on a bus.
type Stats struct {
	Broadcasts uint64 // Broadcast calls with a non-nil event
	Deliveries uint64 // listener invocations, successful or not
	Failures   uint64 // listener invocations that panicked or returned an error
}

// FailureHandler observes listener failures after they have been logged.
type FailureHandler func(*errs.ListenerError)

// Option configures a Bus.
type Option func(*Bus)

// WithLogger sets the logger the bus reports listener failures to. The bus
// logs through a child logger tagged with its name.
func WithLogger(l *logging.Logger) Option {
	return func(b *Bus) {
		if l != nil {
			b.logger = l
		}
	}
}

// WithTrace enables DEBUG logging of every dispatched phase.
func WithTrace(enabled bool) Option {
	return func(b *Bus) {
		b.trace = enabled
	}
}

// WithFailureHandler installs a hook that receives every listener failure.
func WithFailureHandler(h FailureHandler) Option {
	return func(b *Bus) {
		b.onFailure = h
	}
}

// Bus is a synchronous, phase-aware event dispatcher for one execution
// context.
//
// A Bus is owned by a single goroutine: Register, Unregister and Broadcast
// must only be called from it. Producers running elsewhere marshal their
// broadcasts onto the owner first (see the loop package).
type Bus struct {
	name      string
	registry  *Registry
	logger    *logging.Logger
	trace     bool
	onFailure FailureHandler
	stats     Stats
}

// NewBus creates an empty bus identified by name.
func NewBus(name string, opts ...Option) *Bus {
	b := &Bus{
		name:     name,
		registry: NewRegistry(),
		logger:   logging.NopLogger(),
	}
	for _, opt := range opts {
		opt(b)
	}
	b.logger = b.logger.WithBus(name)
	return b
}

// Name returns the bus name.
func (b *Bus) Name() string {
	return b.name
}

// Handle identifies one subscription. The zero Handle identifies none.
type Handle struct {
	id  uint64
	reg *Registry
}

// ID returns the subscription's sequence number, unique per bus.
func (h Handle) ID() uint64 {
	return h.id
}

// Valid reports whether h was returned by a registration.
func (h Handle) Valid() bool {
	return h.id != 0
}

func (b *Bus) register(kind Kind, phase Phase, call func(any) error, cfg registerConfig) Handle {
	sub := b.registry.add(kind, phase, cfg.scope, cfg.label, call)
	if b.trace {
		b.logger.WithPhase(sub.phase.Name()).Debug("listener registered",
			"kind", kind.String(),
			"subscription", sub.id,
			"scope", string(sub.scope),
			"label", sub.label)
	}
	return Handle{id: sub.id, reg: b.registry}
}

// Unregister removes the subscription identified by h. It returns false if h
// was already removed, is the zero Handle, or belongs to another bus.
func (b *Bus) Unregister(h Handle) bool {
	if h.reg != b.registry {
		return false
	}
	return b.registry.Remove(h.id)
}

// UnregisterScope removes every subscription tagged with scope and returns
// how many were removed.
func (b *Bus) UnregisterScope(scope Scope) int {
	n := b.registry.RemoveScope(scope)
	if b.trace && n > 0 {
		b.logger.Debug("scope unregistered", "scope", string(scope), "removed", n)
	}
	return n
}

// Broadcast delivers ev to every listener registered for its kind in each of
// phases, in the order given, and within a phase in registration order. With
// no phases, ev is delivered to PhaseDefault only.
//
// Cancelling ev does not stop delivery: every listener of every requested
// phase observes the event. A listener that panics or returns an error is
// logged and skipped; Broadcast always returns normally. The producer reads
// the outcome from ev itself afterwards.
//
// Listeners registered while a phase is being delivered are first invoked by
// the next delivery of that phase. Listeners removed mid-delivery are not
// invoked if they have not been reached yet.
func (b *Bus) Broadcast(ev any, phases ...Phase) {
	if ev == nil {
		b.logger.Warn("ignoring broadcast of nil event")
		return
	}
	kind := KindOfValue(ev)
	b.stats.Broadcasts++

	if len(phases) == 0 {
		phases = defaultPhases
	}
	for _, phase := range phases {
		subs := b.registry.snapshot(kind, phase)
		if b.trace {
			b.logger.WithPhase(phase.Name()).Debug("dispatching",
				"kind", kind.String(),
				"listeners", len(subs))
		}
		for _, sub := range subs {
			if sub.removed {
				continue
			}
			b.invoke(sub, ev)
		}
	}
}

// invoke calls one listener, isolating panics and returned errors.
func (b *Bus) invoke(sub *subscription, ev any) {
	b.stats.Deliveries++

	var err error
	var pc panics.Catcher
	pc.Try(func() { err = sub.call(ev) })

	if r := pc.Recovered(); r != nil {
		b.fail(errs.NewListenerPanic(b.name, sub.kind.String(), sub.phase.Name(), r.Value, string(r.Stack)).
			WithSubscription(sub.id, sub.label))
		return
	}
	if err != nil {
		b.fail(errs.NewListenerError(b.name, sub.kind.String(), sub.phase.Name(), err).
			WithSubscription(sub.id, sub.label))
	}
}

func (b *Bus) fail(lerr *errs.ListenerError) {
	b.stats.Failures++

	logger := b.logger.WithPhase(lerr.Phase)
	args := []any{
		"kind", lerr.Kind,
		"subscription", lerr.SubscriptionID,
		"label", lerr.Label,
		"error", lerr.Error(),
	}
	if lerr.Panicked() {
		args = append(args, "stack", lerr.Stack)
	}
	switch errs.GetSeverity(lerr) {
	case errs.SeverityCritical, errs.SeverityError:
		logger.Error("listener failed", args...)
	default:
		logger.Warn("listener failed", args...)
	}

	if b.onFailure != nil {
		b.onFailure(lerr)
	}
}

// ListenersFor returns the live listeners for (kind, phase) in delivery order.
func (b *Bus) ListenersFor(kind Kind, phase Phase) []SubscriptionInfo {
	return b.registry.Listeners(kind, phase)
}

// Count returns the number of live listeners for (kind, phase).
func (b *Bus) Count(kind Kind, phase Phase) int {
	return b.registry.Count(kind, phase)
}

// Len returns the total number of live subscriptions on the bus.
func (b *Bus) Len() int {
	return b.registry.Len()
}

// Stats returns a copy of the dispatch counters.
func (b *Bus) Stats() Stats {
	return b.stats
}
