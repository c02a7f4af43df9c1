// Package reload applies resource packs to the server bus.
//
// A reload pass broadcasts a ReloadEvent in PhasePre, one ResourceLoadEvent
// per decoded file, and the ReloadEvent again in PhasePost. Listeners that
// only make sense during a pass are installed in a scope around it and
// removed when it ends, however it ends.
package reload

import (
	"github.com/Iron-Ham/hookbus/internal/event"
	"github.com/Iron-Ham/hookbus/internal/events"
	"github.com/Iron-Ham/hookbus/internal/logging"
)

// ScopePrefix prefixes the scope token of every reload pass.
const ScopePrefix = "reload"

// PassHook installs listeners that live for one reload pass.
type PassHook func(s *event.Scoped)

// Reloader runs reload passes for one pack against one bus. Like the bus, it
// must only be used from the bus's owning goroutine.
type Reloader struct {
	bus    *event.Bus
	pack   *Pack
	logger *logging.Logger
	hooks  []PassHook
	passes int
}

// Option configures a Reloader.
type Option func(*Reloader)

// WithLogger sets the reloader's logger.
func WithLogger(l *logging.Logger) Option {
	return func(r *Reloader) {
		if l != nil {
			r.logger = l
		}
	}
}

// New creates a Reloader that broadcasts on bus.
func New(bus *event.Bus, pack *Pack, opts ...Option) *Reloader {
	r := &Reloader{
		bus:    bus,
		pack:   pack,
		logger: logging.NopLogger(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = r.logger.With("pack", pack.Root())
	return r
}

// OnPass adds a hook that installs listeners for the duration of every
// subsequent pass.
func (r *Reloader) OnPass(hook PassHook) {
	if hook != nil {
		r.hooks = append(r.hooks, hook)
	}
}

// Passes returns the number of completed passes.
func (r *Reloader) Passes() int {
	return r.passes
}

// Reload runs one pass and returns the ReloadEvent with its outcome counters
// filled in. Resources that fail to decode are counted and logged, not
// returned; an error is returned only if the pack cannot be listed.
func (r *Reloader) Reload() (*events.ReloadEvent, error) {
	paths, err := r.pack.List()
	if err != nil {
		return nil, err
	}

	ev := events.NewReloadEvent(r.pack.Root(), paths)
	scope := event.NewScope(ScopePrefix)
	log := r.logger.WithScope(string(scope))

	unclaimed := 0
	setup := func(s *event.Scoped) {
		for _, hook := range r.hooks {
			hook(s)
		}
		// Registered after every hook so it sees their consumption.
		event.Register(s, event.PhaseDefault, func(e *events.ResourceLoadEvent) {
			if !e.IsCancelled() && len(e.Consumers()) == 0 {
				unclaimed++
				log.Debug("resource not consumed by any feature", "path", e.Path)
			}
		}, event.WithLabel("reload-unclaimed"))
	}

	err = r.bus.WithScope(scope, setup, func() error {
		r.bus.Broadcast(ev, event.PhasePre)
		for _, p := range paths {
			r.apply(ev, p, log)
		}
		r.bus.Broadcast(ev, event.PhasePost)
		return nil
	})
	if err != nil {
		return ev, err
	}

	r.passes++
	log.Info("reload complete",
		"resources", len(paths),
		"loaded", ev.Loaded,
		"skipped", ev.Skipped,
		"failed", ev.Failed,
		"unclaimed", unclaimed)
	return ev, nil
}

// apply loads one resource and offers it to listeners.
func (r *Reloader) apply(ev *events.ReloadEvent, path string, log *logging.Logger) {
	res, err := r.pack.Load(path)
	if err != nil {
		ev.Failed++
		log.Warn("failed to load resource", "path", path, "error", err.Error())
		return
	}

	load := events.NewResourceLoadEvent(res.Path, res.Format, res.Data)
	r.bus.Broadcast(load)
	if load.IsCancelled() {
		ev.Skipped++
		log.Debug("resource skipped", "path", path)
		return
	}
	ev.Loaded++
}
