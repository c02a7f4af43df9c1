package reload

import (
	"bytes"
	"strings"
	"testing"

	"github.com/Iron-Ham/hookbus/internal/event"
	"github.com/Iron-Ham/hookbus/internal/events"
	"github.com/Iron-Ham/hookbus/internal/logging"
)

func TestReloader_Pass(t *testing.T) {
	p := memPack(t, map[string]string{
		"chat/filter.yaml":    "words: [darn]",
		"blocks/protect.toml": "blocks = [\"bedrock\"]",
		"skip/me.yaml":        "x: 1",
		"broken.yaml":         "a: [",
	})
	bus := event.NewBus("server")

	var order []string
	event.Register(bus, event.PhasePre, func(e *events.ReloadEvent) {
		order = append(order, "pre")
		if len(e.Resources) != 4 {
			t.Errorf("pre: Resources = %v", e.Resources)
		}
	})
	event.Register(bus, event.PhaseDefault, func(e *events.ResourceLoadEvent) {
		order = append(order, e.Path)
		if strings.HasPrefix(e.Path, "skip/") {
			e.Cancel()
		}
	})
	event.Register(bus, event.PhasePost, func(e *events.ReloadEvent) {
		order = append(order, "post")
	})

	r := New(bus, p)
	ev, err := r.Reload()
	if err != nil {
		t.Fatalf("Reload() error = %v", err)
	}

	want := "pre,blocks/protect.toml,chat/filter.yaml,skip/me.yaml,post"
	if got := strings.Join(order, ","); got != want {
		t.Errorf("order = %q, want %q", got, want)
	}
	if ev.Loaded != 2 || ev.Skipped != 1 || ev.Failed != 1 {
		t.Errorf("outcome = loaded %d skipped %d failed %d, want 2/1/1", ev.Loaded, ev.Skipped, ev.Failed)
	}
	if r.Passes() != 1 {
		t.Errorf("Passes() = %d, want 1", r.Passes())
	}
}

func TestReloader_PassHooksAreScoped(t *testing.T) {
	p := memPack(t, map[string]string{"a.yaml": "k: v"})
	bus := event.NewBus("server")

	var seen int
	r := New(bus, p)
	r.OnPass(func(s *event.Scoped) {
		event.Register(s, event.PhaseDefault, func(e *events.ResourceLoadEvent) {
			seen++
			e.Consume("test-hook")
		})
	})

	before := bus.Len()
	for i := 0; i < 3; i++ {
		if _, err := r.Reload(); err != nil {
			t.Fatalf("Reload() error = %v", err)
		}
		if bus.Len() != before {
			t.Fatalf("pass %d left %d listeners behind", i, bus.Len()-before)
		}
	}
	if seen != 3 {
		t.Errorf("hook listener ran %d times, want 3", seen)
	}

	// Outside a pass the hook is gone.
	bus.Broadcast(events.NewResourceLoadEvent("x.yaml", FormatYAML, nil))
	if seen != 3 {
		t.Errorf("hook listener ran outside a pass")
	}
}

func TestReloader_TeardownAfterListenerPanic(t *testing.T) {
	p := memPack(t, map[string]string{"a.yaml": "k: v"})
	bus := event.NewBus("server")

	r := New(bus, p)
	r.OnPass(func(s *event.Scoped) {
		event.Register(s, event.PhasePre, func(*events.ReloadEvent) { panic("bad hook") })
	})

	ev, err := r.Reload()
	if err != nil {
		t.Fatalf("Reload() error = %v", err)
	}
	if ev.Loaded != 1 {
		t.Errorf("Loaded = %d, want 1", ev.Loaded)
	}
	if bus.Len() != 0 {
		t.Errorf("Len() = %d, want 0", bus.Len())
	}
	if bus.Stats().Failures != 1 {
		t.Errorf("Failures = %d, want 1", bus.Stats().Failures)
	}
}

func TestReloader_LogsUnclaimed(t *testing.T) {
	p := memPack(t, map[string]string{"orphan.toml": "x = 1"})
	var buf bytes.Buffer
	logger := logging.NewWithWriter(&buf, logging.LevelDebug)

	r := New(event.NewBus("server"), p, WithLogger(logger))
	if _, err := r.Reload(); err != nil {
		t.Fatalf("Reload() error = %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "not consumed") || !strings.Contains(out, "orphan.toml") {
		t.Errorf("unclaimed resource not logged: %s", out)
	}
	if !strings.Contains(out, `"unclaimed":1`) {
		t.Errorf("summary missing unclaimed count: %s", out)
	}
	if !strings.Contains(out, `"scope":"reload/`) {
		t.Errorf("pass logs not tagged with scope: %s", out)
	}
}
