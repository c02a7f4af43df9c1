// Package features holds the gameplay and presentation modules that consume
// host events. Each feature registers its listeners in its own scope so it
// can be removed from a bus in one call, and reads its settings from a
// resource in the pack.
package features

import (
	"github.com/go-viper/mapstructure/v2"

	errs "github.com/Iron-Ham/hookbus/internal/errors"
	"github.com/Iron-Ham/hookbus/internal/event"
	"github.com/Iron-Ham/hookbus/internal/events"
	"github.com/Iron-Ham/hookbus/internal/logging"
)

// Feature is a module that listens on one bus.
type Feature interface {
	// Name identifies the feature in logs and as its scope.
	Name() string
	// Bus names the execution context the feature belongs to.
	Bus() string
	// Install registers the feature's listeners.
	Install(r event.Registrar)
}

// Scope returns the scope a feature's listeners are tagged with.
func Scope(f Feature) event.Scope {
	return event.Scope("feature/" + f.Name())
}

// Install registers f on its bus within the feature's scope.
func Install(buses *event.Buses, f Feature) error {
	bus, err := buses.Get(f.Bus())
	if err != nil {
		return errs.Wrapf(err, "install %s", f.Name())
	}
	f.Install(bus.Scoped(Scope(f)))
	return nil
}

// Uninstall removes every listener f registered and returns how many.
func Uninstall(buses *event.Buses, f Feature) (int, error) {
	bus, err := buses.Get(f.Bus())
	if err != nil {
		return 0, errs.Wrapf(err, "uninstall %s", f.Name())
	}
	return bus.UnregisterScope(Scope(f)), nil
}

// InstallAll installs each feature in order.
func InstallAll(buses *event.Buses, fs ...Feature) error {
	for _, f := range fs {
		if err := Install(buses, f); err != nil {
			return err
		}
	}
	return nil
}

// Defaults returns the standard feature set.
func Defaults(logger *logging.Logger) []Feature {
	return []Feature{
		NewJoinGate(logger),
		NewChatFilter(),
		NewBlockGuard(),
		NewAutosave(logger),
		NewOverlay(),
	}
}

// decodeResource decodes a resource document into out, rejecting unknown keys.
func decodeResource(ev *events.ResourceLoadEvent, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		ErrorUnused:      true,
		WeaklyTypedInput: true,
		TagName:          "resource",
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(ev.Data); err != nil {
		return errs.NewResourceError("invalid settings", errs.Join(errs.ErrInvalidResource, err)).WithPath(ev.Path)
	}
	return nil
}

// onResource registers a listener that applies the resource at path to the
// feature. A resource that does not decode is cancelled so the reload counts
// it as skipped, and the feature keeps its previous settings.
func onResource(r event.Registrar, name, path string, apply func(*events.ResourceLoadEvent) error) {
	event.RegisterErr(r, event.PhaseDefault, func(e *events.ResourceLoadEvent) error {
		if e.Path != path || e.IsCancelled() {
			return nil
		}
		if err := apply(e); err != nil {
			e.Cancel()
			return err
		}
		e.Consume(name)
		return nil
	}, event.WithLabel(name+"/resource"))
}
