package features

import (
	"github.com/Iron-Ham/hookbus/internal/event"
	"github.com/Iron-Ham/hookbus/internal/events"
	"github.com/Iron-Ham/hookbus/internal/logging"
)

// AutosaveResource is the pack resource Autosave reads.
const AutosaveResource = "autosave.toml"

// DefaultAutosaveInterval is the number of ticks between saves.
const DefaultAutosaveInterval = 100

// AutosaveSettings configure Autosave.
type AutosaveSettings struct {
	EveryTicks uint64 `resource:"every_ticks"`
}

// Autosave saves the world every N server ticks.
type Autosave struct {
	logger *logging.Logger
	every  uint64
	saves  []uint64
}

// NewAutosave creates an Autosave with the default interval.
func NewAutosave(logger *logging.Logger) *Autosave {
	if logger == nil {
		logger = logging.NopLogger()
	}
	return &Autosave{
		logger: logger.With("feature", "autosave"),
		every:  DefaultAutosaveInterval,
	}
}

func (a *Autosave) Name() string { return "autosave" }
func (a *Autosave) Bus() string  { return event.ServerBus }

// Install implements Feature.
func (a *Autosave) Install(r event.Registrar) {
	onResource(r, a.Name(), AutosaveResource, func(e *events.ResourceLoadEvent) error {
		var s AutosaveSettings
		if err := decodeResource(e, &s); err != nil {
			return err
		}
		if s.EveryTicks > 0 {
			a.every = s.EveryTicks
		}
		return nil
	})

	event.Register(r, event.PhaseDefault, func(e *events.ServerTickEvent) {
		if e.Tick > 0 && e.Tick%a.every == 0 {
			a.saves = append(a.saves, e.Tick)
			a.logger.Info("world saved", "tick", e.Tick)
		}
	}, event.WithLabel("autosave/tick"))
}

// Saves returns the ticks at which the world was saved.
func (a *Autosave) Saves() []uint64 {
	return a.saves
}
