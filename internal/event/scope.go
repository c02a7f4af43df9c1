package event

import (
	"github.com/google/uuid"

	errs "github.com/Iron-Ham/hookbus/internal/errors"
)

// NewScope returns a fresh scope token of the form "<prefix>/<uuid>".
func NewScope(prefix string) Scope {
	return Scope(prefix + "/" + uuid.NewString())
}

// Scoped is a Registrar that tags every registration with one scope.
type Scoped struct {
	bus   *Bus
	scope Scope
}

// Scoped returns a registrar for scope on b. It panics if scope is NoScope.
func (b *Bus) Scoped(scope Scope) *Scoped {
	if scope == NoScope {
		panic(errs.ErrEmptyScope)
	}
	return &Scoped{bus: b, scope: scope}
}

// Scope returns the scope this registrar tags listeners with.
func (s *Scoped) Scope() Scope {
	return s.scope
}

// Bus returns the bus listeners are registered on.
func (s *Scoped) Bus() *Bus {
	return s.bus
}

func (s *Scoped) register(kind Kind, phase Phase, call func(any) error, cfg registerConfig) Handle {
	cfg.scope = s.scope
	return s.bus.register(kind, phase, call, cfg)
}

// WithScope runs setup to install listeners tagged with scope, then runs
// body, then removes every listener tagged with scope. Teardown happens even
// if setup or body panics; the panic continues after teardown. WithScope
// returns body's error.
//
//	err := bus.WithScope(event.NewScope("reload"), func(s *event.Scoped) {
//	    event.Register(s, event.PhaseDefault, collect)
//	}, func() error {
//	    return loadAll()
//	})
func (b *Bus) WithScope(scope Scope, setup func(*Scoped), body func() error) error {
	scoped := b.Scoped(scope)
	defer func() {
		n := b.registry.RemoveScope(scope)
		b.logger.Debug("scope closed", "scope", string(scope), "removed", n)
	}()

	if setup != nil {
		setup(scoped)
	}
	if body == nil {
		return nil
	}
	return body()
}
