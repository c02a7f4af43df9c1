package event

import (
	"errors"
	"strings"
	"testing"

	errs "github.com/Iron-Ham/hookbus/internal/errors"
)

type resourceEvent struct {
	Cancelable
	Path string
}

func TestNewScope(t *testing.T) {
	a := NewScope("reload")
	b := NewScope("reload")

	if a == b {
		t.Errorf("NewScope returned the same token twice: %q", a)
	}
	if !strings.HasPrefix(string(a), "reload/") {
		t.Errorf("NewScope() = %q, want prefix %q", a, "reload/")
	}
}

func TestScoped_TagsRegistrations(t *testing.T) {
	bus, _ := newTestBus(t)
	s := bus.Scoped("mod")

	Register(s, PhaseDefault, func(*resourceEvent) {}, InScope("ignored"))
	Register(bus, PhaseDefault, func(*resourceEvent) {})

	infos := bus.ListenersFor(KindOf[*resourceEvent](), PhaseDefault)
	if len(infos) != 2 {
		t.Fatalf("ListenersFor() = %d entries, want 2", len(infos))
	}
	if infos[0].Scope != "mod" {
		t.Errorf("scoped listener scope = %q, want %q", infos[0].Scope, "mod")
	}
	if infos[1].Scope != NoScope {
		t.Errorf("bus listener scope = %q, want none", infos[1].Scope)
	}
	if s.Scope() != "mod" || s.Bus() != bus {
		t.Error("Scoped accessors mismatch")
	}
}

func TestScoped_EmptyScopePanics(t *testing.T) {
	bus, _ := newTestBus(t)
	defer func() {
		if r := recover(); r != errs.ErrEmptyScope {
			t.Errorf("recovered %v, want ErrEmptyScope", r)
		}
	}()
	bus.Scoped(NoScope)
}

func TestWithScope(t *testing.T) {
	bus, _ := newTestBus(t)
	var permanent int
	Register(bus, PhaseDefault, func(*resourceEvent) { permanent++ })

	var loaded []string
	err := bus.WithScope(NewScope("reload"), func(s *Scoped) {
		Register(s, PhaseDefault, func(e *resourceEvent) {
			loaded = append(loaded, e.Path)
		})
	}, func() error {
		bus.Broadcast(&resourceEvent{Path: "a.yaml"})
		bus.Broadcast(&resourceEvent{Path: "b.toml"})
		return nil
	})
	if err != nil {
		t.Fatalf("WithScope() error = %v", err)
	}

	if strings.Join(loaded, ",") != "a.yaml,b.toml" {
		t.Errorf("loaded = %v", loaded)
	}

	bus.Broadcast(&resourceEvent{Path: "c.yaml"})
	if len(loaded) != 2 {
		t.Errorf("scoped listener ran after scope closed: %v", loaded)
	}
	if permanent != 3 {
		t.Errorf("permanent listener ran %d times, want 3", permanent)
	}
	if bus.Len() != 1 {
		t.Errorf("Len() = %d, want 1", bus.Len())
	}
}

func TestWithScope_ReturnsBodyError(t *testing.T) {
	bus, _ := newTestBus(t)
	want := errors.New("pack missing")

	err := bus.WithScope("reload/x", func(s *Scoped) {
		Register(s, PhaseDefault, func(*resourceEvent) {})
	}, func() error { return want })

	if !errors.Is(err, want) {
		t.Errorf("WithScope() error = %v, want %v", err, want)
	}
	if bus.Len() != 0 {
		t.Errorf("Len() = %d after failed body, want 0", bus.Len())
	}
}

func TestWithScope_TeardownOnPanic(t *testing.T) {
	tests := []struct {
		name  string
		setup func(*Scoped)
		body  func() error
	}{
		{
			name: "body panics",
			setup: func(s *Scoped) {
				Register(s, PhaseDefault, func(*resourceEvent) {})
			},
			body: func() error { panic("body") },
		},
		{
			name: "setup panics after registering",
			setup: func(s *Scoped) {
				Register(s, PhaseDefault, func(*resourceEvent) {})
				panic("setup")
			},
			body: func() error { return nil },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bus, _ := newTestBus(t)
			func() {
				defer func() {
					if recover() == nil {
						t.Error("panic did not propagate")
					}
				}()
				_ = bus.WithScope("s", tt.setup, tt.body)
			}()
			if bus.Len() != 0 {
				t.Errorf("Len() = %d after panic, want 0", bus.Len())
			}
		})
	}
}

func TestWithScope_NilFuncs(t *testing.T) {
	bus, _ := newTestBus(t)
	if err := bus.WithScope("s", nil, nil); err != nil {
		t.Errorf("WithScope(nil, nil) error = %v", err)
	}
}

func TestWithScope_NestedScopes(t *testing.T) {
	bus, _ := newTestBus(t)

	var outer, inner int
	_ = bus.WithScope("outer", func(s *Scoped) {
		Register(s, PhaseDefault, func(*resourceEvent) { outer++ })
	}, func() error {
		_ = bus.WithScope("inner", func(s *Scoped) {
			Register(s, PhaseDefault, func(*resourceEvent) { inner++ })
		}, func() error {
			bus.Broadcast(&resourceEvent{})
			return nil
		})
		bus.Broadcast(&resourceEvent{})
		return nil
	})

	if outer != 2 || inner != 1 {
		t.Errorf("outer=%d inner=%d, want 2 and 1", outer, inner)
	}
}
