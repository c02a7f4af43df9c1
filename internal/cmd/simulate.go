package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/sourcegraph/conc"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Iron-Ham/hookbus/internal/config"
	"github.com/Iron-Ham/hookbus/internal/event"
	"github.com/Iron-Ham/hookbus/internal/events"
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Run a scripted session through both buses",
	Long: `Run a scripted session: reload the resource pack (if one is configured),
have players join and chat, break a few blocks, advance the server by a
number of ticks and render client frames. Every broadcast runs on the loop
that owns its bus.

The journal of producer decisions is printed at the end, followed by the
dispatch counters of each bus.

Examples:
  # Four players, twenty ticks, default features
  hookbus simulate

  # Load settings from a resource pack
  hookbus simulate --pack ./pack --players 2`,
	RunE: runSimulate,
}

func init() {
	rootCmd.AddCommand(simulateCmd)

	simulateCmd.Flags().Int("players", 0, "number of players that join (default from simulate.players)")
	simulateCmd.Flags().Int("ticks", 0, "number of server ticks (default from simulate.ticks)")
	simulateCmd.Flags().Int("frames", 0, "number of client frames (default from simulate.frames)")
	simulateCmd.Flags().String("pack", "", "resource pack directory (default from reload.pack_dir)")
	_ = viper.BindPFlag("simulate.players", simulateCmd.Flags().Lookup("players"))
	_ = viper.BindPFlag("simulate.ticks", simulateCmd.Flags().Lookup("ticks"))
	_ = viper.BindPFlag("simulate.frames", simulateCmd.Flags().Lookup("frames"))
	_ = viper.BindPFlag("reload.pack_dir", simulateCmd.Flags().Lookup("pack"))
}

// playerNames are used for the first players of a simulation.
var playerNames = []string{"Steve", "Alex", "Notch", "Jeb"}

func simulatedPlayer(i int) events.Player {
	if i < len(playerNames) {
		return events.NewOfflinePlayer(playerNames[i])
	}
	return events.NewOfflinePlayer(fmt.Sprintf("player%d", i+1))
}

func runSimulate(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	logger, err := newLogger(cfg)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = logger.Close() }()

	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to get current directory: %w", err)
	}

	rt, err := newRuntime(cfg, logger, cfg.Reload.ResolvePackDir(cwd), false, nil)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	if err := simulate(ctx, rt, cfg.Simulate); err != nil {
		return err
	}
	return printSimulation(cmd.OutOrStdout(), rt)
}

// simulate runs both loops, drives the script through them and waits for
// the loops to exit.
func simulate(ctx context.Context, rt *runtime, sc config.SimulateConfig) error {
	ctx, cancel := context.WithCancel(ctx)
	var wg conc.WaitGroup
	wg.Go(func() { _ = rt.server.Loop().Run(ctx) })
	wg.Go(func() { _ = rt.client.Loop().Run(ctx) })
	defer func() {
		cancel()
		wg.Wait()
	}()

	srv := rt.server
	err := srv.Loop().Do(ctx, func() error {
		if _, err := srv.Reload(); err != nil {
			return fmt.Errorf("reload failed: %w", err)
		}

		var admitted []events.Player
		for i := range sc.Players {
			p := simulatedPlayer(i)
			if ok, _ := srv.Join(p); ok {
				admitted = append(admitted, p)
			}
		}
		for _, p := range admitted {
			srv.Chat(p, "hello from "+p.Name)
		}
		if len(admitted) > 0 {
			p := admitted[0]
			srv.BreakBlock(p, events.BlockPos{X: 0, Y: 64, Z: 0}, "stone")
			srv.BreakBlock(p, events.BlockPos{X: 0, Y: 0, Z: 0}, "bedrock")
		}
		for range sc.Ticks {
			srv.Tick()
		}
		return nil
	})
	if err != nil {
		return err
	}

	return rt.client.Loop().Do(ctx, func() error {
		for range sc.Frames {
			rt.client.Render()
		}
		return nil
	})
}

func printSimulation(w io.Writer, rt *runtime) error {
	entries := rt.journal.Entries()
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, []string{e.Bus, string(e.Type), e.Subject, e.Outcome})
	}
	err := writeTable(w, []string{"BUS", "EVENT", "SUBJECT", "OUTCOME"}, rows, func(row []string) bool {
		return strings.HasPrefix(row[3], "denied") || strings.HasPrefix(row[3], "blocked") || row[3] == "kept"
	})
	if err != nil {
		return err
	}

	fmt.Fprintln(w)
	for _, bus := range rt.buses.All() {
		fmt.Fprintln(w, formatStats(bus))
	}
	return nil
}

func formatStats(bus *event.Bus) string {
	s := bus.Stats()
	return fmt.Sprintf("%s: %d broadcasts, %d deliveries, %d failures, %d listeners",
		bus.Name(), s.Broadcasts, s.Deliveries, s.Failures, bus.Len())
}
