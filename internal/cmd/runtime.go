package cmd

import (
	"fmt"

	"github.com/spf13/afero"

	"github.com/Iron-Ham/hookbus/internal/config"
	"github.com/Iron-Ham/hookbus/internal/event"
	"github.com/Iron-Ham/hookbus/internal/features"
	"github.com/Iron-Ham/hookbus/internal/host"
	"github.com/Iron-Ham/hookbus/internal/logging"
	"github.com/Iron-Ham/hookbus/internal/reload"
)

// runtime wires the buses, the default features and both producers.
type runtime struct {
	buses    *event.Buses
	server   *host.Server
	client   *host.Client
	journal  *host.Journal
	features []features.Feature
	pack     *reload.Pack
}

// newRuntime assembles a runtime from cfg. When ticking is false the loops
// never tick on their own and the caller drives ticks and frames. onFailure
// may be nil; it runs on the goroutine of the failing bus.
func newRuntime(cfg *config.Config, logger *logging.Logger, packDir string, ticking bool, onFailure event.FailureHandler) (*runtime, error) {
	rt := &runtime{journal: host.NewJournal()}

	rt.buses = event.NewBuses(
		event.WithLogger(logger),
		event.WithTrace(cfg.Bus.Trace),
		event.WithFailureHandler(onFailure),
	)

	rt.features = features.Defaults(logger)
	if err := features.InstallAll(rt.buses, rt.features...); err != nil {
		return nil, err
	}

	hostCfg := host.Config{QueueSize: cfg.Bus.LoopQueueSize}
	if ticking {
		hostCfg.TickInterval = cfg.Bus.TickInterval()
	}
	rt.server = host.NewServer(rt.buses.Server, hostCfg, rt.journal, logger)
	rt.client = host.NewClient(rt.buses.Client, hostCfg, rt.journal, logger)

	if packDir != "" {
		pack, err := reload.OpenPack(afero.NewOsFs(), packDir)
		if err != nil {
			return nil, fmt.Errorf("failed to open resource pack: %w", err)
		}
		rt.pack = pack
		rt.server.SetReloader(reload.New(rt.buses.Server, pack, reload.WithLogger(logger)))
	}

	return rt, nil
}
