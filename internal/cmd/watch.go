package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/sourcegraph/conc/pool"
	"github.com/spf13/cobra"

	"github.com/Iron-Ham/hookbus/internal/config"
	errs "github.com/Iron-Ham/hookbus/internal/errors"
	"github.com/Iron-Ham/hookbus/internal/logging"
	"github.com/Iron-Ham/hookbus/internal/reload"
)

var watchCmd = &cobra.Command{
	Use:   "watch [pack-dir]",
	Short: "Run the server bus and reload the pack when it changes",
	Long: `Run the server loop at the configured tick rate and reload the resource
pack whenever one of its files changes. Reloads are marshalled onto the
server loop so listeners never run concurrently with a tick.

The pack directory defaults to reload.pack_dir. Press Ctrl+C to stop.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if len(args) == 1 {
		cfg.Reload.PackDir = args[0]
	}

	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to get current directory: %w", err)
	}
	packDir := cfg.Reload.ResolvePackDir(cwd)
	if packDir == "" {
		return fmt.Errorf("no resource pack configured: pass a directory or set reload.pack_dir")
	}

	logger, err := newLogger(cfg)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = logger.Close() }()

	out := cmd.OutOrStdout()
	rt, err := newRuntime(cfg, logger, packDir, true, func(lerr *errs.ListenerError) {
		if errs.IsUserFacing(lerr) {
			fmt.Fprintf(cmd.ErrOrStderr(), "%s rejected: %v\n", lerr.Label, lerr.Unwrap())
			return
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "listener failed: %v\n", lerr)
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Fprintf(out, "Watching %s (Ctrl+C to stop)\n", packDir)
	return watchPack(ctx, rt, packDir, cfg.Reload, out, logger)
}

// watchPack runs the server loop and, when cfg.Watch is set, a file watcher
// that submits a reload to the loop after each burst of changes. It returns
// when ctx is cancelled.
func watchPack(ctx context.Context, rt *runtime, packDir string, cfg config.ReloadConfig, out io.Writer, logger *logging.Logger) error {
	srv := rt.server
	reloadNow := func(reason string) {
		ev, err := srv.Reload()
		if err != nil {
			fmt.Fprintf(out, "reload failed: %v\n", err)
			return
		}
		fmt.Fprintf(out, "reloaded (%s): loaded %d, skipped %d, failed %d\n",
			reason, ev.Loaded, ev.Skipped, ev.Failed)
	}

	p := pool.New().WithErrors().WithContext(ctx)
	p.Go(func(ctx context.Context) error {
		return srv.Loop().Run(ctx)
	})

	if err := srv.Loop().Submit(func() { reloadNow("startup") }); err != nil {
		return err
	}

	if cfg.Watch {
		w, err := reload.NewWatcher(packDir, cfg.Debounce(), func(paths []string) {
			reason := strings.Join(paths, ", ")
			if err := srv.Loop().Submit(func() { reloadNow(reason) }); err != nil {
				fmt.Fprintf(out, "reload skipped: %v\n", err)
			}
		}, logger)
		if err != nil {
			return fmt.Errorf("failed to watch pack: %w", err)
		}
		defer func() { _ = w.Close() }()
		p.Go(func(ctx context.Context) error {
			return w.Run(ctx)
		})
	}

	return p.Wait()
}
