package cmd

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Iron-Ham/hookbus/internal/config"
	"github.com/Iron-Ham/hookbus/internal/features"
	"github.com/Iron-Ham/hookbus/internal/host"
	"github.com/Iron-Ham/hookbus/internal/logging"
	"github.com/Iron-Ham/hookbus/internal/testutil"
)

// executeCommand runs a cobra command with args and returns captured output
func executeCommand(root *cobra.Command, args ...string) (output string, err error) {
	buf := new(bytes.Buffer)
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetArgs(args)
	err = root.Execute()
	return buf.String(), err
}

func outcomes(j *host.Journal) []string {
	entries := j.Entries()
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Outcome
	}
	return out
}

func TestRootCommand(t *testing.T) {
	if rootCmd.Use != "hookbus" {
		t.Errorf("rootCmd.Use = %q, want %q", rootCmd.Use, "hookbus")
	}

	// Check for expected subcommands (compare by Name(), not Use which includes args)
	expectedCmds := []string{"simulate", "watch", "phases", "config", "logs"}
	cmdMap := make(map[string]bool)
	for _, cmd := range rootCmd.Commands() {
		cmdMap[cmd.Name()] = true
	}

	for _, expected := range expectedCmds {
		if !cmdMap[expected] {
			t.Errorf("expected subcommand %q not found", expected)
		}
	}
}

func TestParseConfigValue(t *testing.T) {
	tests := []struct {
		key     string
		value   string
		want    any
		wantErr bool
	}{
		{"bus.trace", "true", true, false},
		{"bus.trace", "yes", nil, true},
		{"bus.loop_queue_size", "512", 512, false},
		{"bus.loop_queue_size", "many", nil, true},
		{"simulate.players", "-1", nil, true},
		{"logging.level", "DEBUG", "debug", false},
		{"logging.level", "loud", nil, true},
		{"reload.pack_dir", "~/packs", "~/packs", false},
		{"bus.unknown", "1", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			got, err := parseConfigValue(tt.key, tt.value)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseConfigValue() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("parseConfigValue() = %v (%T), want %v (%T)", got, got, tt.want, tt.want)
			}
		})
	}
}

func TestConfigKeysHaveDefaults(t *testing.T) {
	config.SetDefaults()
	for key := range configKeys {
		if !viper.IsSet(key) {
			t.Errorf("settable key %q has no default", key)
		}
	}
}

func TestSimulate_Defaults(t *testing.T) {
	cfg := config.Default()
	rt, err := newRuntime(cfg, logging.NopLogger(), "", false, nil)
	if err != nil {
		t.Fatalf("newRuntime: %v", err)
	}

	sc := config.SimulateConfig{Players: 2, Ticks: 5, Frames: 2}
	if err := simulate(context.Background(), rt, sc); err != nil {
		t.Fatalf("simulate: %v", err)
	}

	got := outcomes(rt.journal)
	want := []string{
		"admitted",
		"admitted",
		`sent: "hello from Steve"`,
		`sent: "hello from Alex"`,
		"broken",
		"kept",
		"terrain, hud:frame=1",
		"terrain, hud:frame=2",
	}
	if len(got) != len(want) {
		t.Fatalf("journal outcomes = %q, want %q", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("outcome[%d] = %q, want %q", i, got[i], want[i])
		}
	}

	if rt.server.Ticks() != 5 {
		t.Errorf("server ticks = %d, want 5", rt.server.Ticks())
	}
	if rt.client.Frames() != 2 {
		t.Errorf("client frames = %d, want 2", rt.client.Frames())
	}
	for _, bus := range rt.buses.All() {
		if f := bus.Stats().Failures; f != 0 {
			t.Errorf("%s bus failures = %d, want 0", bus.Name(), f)
		}
	}
}

func TestSimulate_WithPack(t *testing.T) {
	dir := testutil.WritePack(t, map[string]string{
		"join.yaml":        "max_players: 2\n",
		"chat/filter.yaml": "words: [hello]\nreply: no greetings\n",
	})

	rt, err := newRuntime(config.Default(), logging.NopLogger(), dir, false, nil)
	if err != nil {
		t.Fatalf("newRuntime: %v", err)
	}
	if err := simulate(context.Background(), rt, config.SimulateConfig{Players: 3}); err != nil {
		t.Fatalf("simulate: %v", err)
	}

	got := outcomes(rt.journal)
	want := []string{
		"loaded 2, skipped 0, failed 0",
		"admitted",
		"admitted",
		"denied: " + features.ServerFullReason,
		`blocked: "no greetings"`,
		`blocked: "no greetings"`,
		"broken",
		"kept",
	}
	if len(got) != len(want) {
		t.Fatalf("journal outcomes = %q, want %q", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("outcome[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestNewRuntime_MissingPack(t *testing.T) {
	_, err := newRuntime(config.Default(), logging.NopLogger(), filepath.Join(t.TempDir(), "missing"), false, nil)
	if err == nil {
		t.Fatal("expected error for missing pack")
	}
}

func TestPrintSimulation(t *testing.T) {
	rt, err := newRuntime(config.Default(), logging.NopLogger(), "", false, nil)
	if err != nil {
		t.Fatalf("newRuntime: %v", err)
	}
	if err := simulate(context.Background(), rt, config.SimulateConfig{Players: 1, Frames: 1}); err != nil {
		t.Fatalf("simulate: %v", err)
	}

	var buf bytes.Buffer
	if err := printSimulation(&buf, rt); err != nil {
		t.Fatalf("printSimulation: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"BUS", "OUTCOME", "player.join", "Steve", "admitted", "server: ", "client: 1 broadcasts"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestPhasesCommand(t *testing.T) {
	t.Run("all events", func(t *testing.T) {
		out, err := executeCommand(rootCmd, "phases")
		if err != nil {
			t.Fatalf("phases failed: %v", err)
		}
		for _, want := range []string{"player.join", "join_initialized > post", "render_world > render_overlay", "yes (string)"} {
			if !strings.Contains(out, want) {
				t.Errorf("output missing %q:\n%s", want, out)
			}
		}
	})

	t.Run("one event", func(t *testing.T) {
		out, err := executeCommand(rootCmd, "phases", "player.join")
		if err != nil {
			t.Fatalf("phases failed: %v", err)
		}
		for _, want := range []string{"join-gate/admit", "join-gate/greet", "feature/join-gate"} {
			if !strings.Contains(out, want) {
				t.Errorf("output missing %q:\n%s", want, out)
			}
		}
	})

	t.Run("unknown event", func(t *testing.T) {
		if _, err := executeCommand(rootCmd, "phases", "player.quit"); err == nil {
			t.Error("expected error for unknown event type")
		}
	})
}

func TestConfigPathCommand(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	out, err := executeCommand(rootCmd, "config", "path")
	if err != nil {
		t.Fatalf("config path failed: %v", err)
	}
	if !strings.Contains(out, "HOOKBUS_") {
		t.Errorf("output should mention the env prefix:\n%s", out)
	}
}

func TestNewLogQuery(t *testing.T) {
	now := time.Date(2026, 1, 2, 15, 0, 0, 0, time.UTC)

	q, err := newLogQuery("warn", "1h", "fail", "server", "reload", "pre", now)
	if err != nil {
		t.Fatalf("newLogQuery: %v", err)
	}
	if q.filter.Level != logging.LevelWarn {
		t.Errorf("Level = %q, want %q", q.filter.Level, logging.LevelWarn)
	}
	if !q.filter.StartTime.Equal(now.Add(-time.Hour)) {
		t.Errorf("StartTime = %v", q.filter.StartTime)
	}

	if _, err := newLogQuery("", "soon", "", "", "", "", now); err == nil {
		t.Error("expected error for bad duration")
	}
	if _, err := newLogQuery("", "", "(", "", "", "", now); err == nil {
		t.Error("expected error for bad pattern")
	}
}

func TestDisplayLogs(t *testing.T) {
	dir := t.TempDir()
	logger, err := logging.NewLogger(dir, "debug")
	if err != nil {
		t.Fatalf("NewLogger: %v", err)
	}
	logger.WithBus("server").Info("reload complete", "loaded", 2)
	logger.WithBus("server").WithScope("feature/chat-filter").Error("listener failed", "label", "chat-filter/check")
	logger.WithBus("client").Debug("dispatching")
	if err := logger.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	entries, err := logging.AggregateLogs(dir)
	if err != nil {
		t.Fatalf("AggregateLogs: %v", err)
	}

	q, err := newLogQuery("", "", "chat-filter", "server", "", "", time.Now())
	if err != nil {
		t.Fatalf("newLogQuery: %v", err)
	}
	var buf bytes.Buffer
	if err := displayLogs(&buf, q.apply(entries), 0, false); err != nil {
		t.Fatalf("displayLogs: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "[ERROR] listener failed bus=server scope=feature/chat-filter label=chat-filter/check") {
		t.Errorf("unexpected output:\n%s", out)
	}
	if strings.Contains(out, "reload complete") {
		t.Errorf("grep should have dropped the reload entry:\n%s", out)
	}

	buf.Reset()
	if err := displayLogs(&buf, entries, 1, false); err != nil {
		t.Fatalf("displayLogs: %v", err)
	}
	if lines := strings.Count(buf.String(), "\n"); lines != 1 {
		t.Errorf("tail 1 printed %d lines", lines)
	}
}

func TestWatchPack(t *testing.T) {
	dir := testutil.WritePack(t, map[string]string{
		"chat/filter.yaml": "words: [spam]\n",
	})
	cfg := config.Default()
	cfg.Bus.TickIntervalMs = 10

	rt, err := newRuntime(cfg, logging.NopLogger(), dir, true, nil)
	if err != nil {
		t.Fatalf("newRuntime: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var out testutil.SyncBuffer
	done := make(chan error, 1)
	go func() {
		done <- watchPack(ctx, rt, dir, config.ReloadConfig{Watch: true, DebounceMs: 20}, &out, logging.NopLogger())
	}()

	testutil.WaitForOutput(t, &out, "reloaded (startup): loaded 1, skipped 0, failed 0", 5*time.Second)

	testutil.WritePackFile(t, dir, "join.yaml", "max_players: 1\n")
	testutil.WaitForOutput(t, &out, "reloaded (join.yaml): loaded 2", 5*time.Second)

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("watchPack returned %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("watchPack did not stop")
	}

	if rt.server.Ticks() == 0 {
		t.Error("server loop should have ticked")
	}
}
