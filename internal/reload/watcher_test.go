package reload

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Iron-Ham/hookbus/internal/testutil"
)

func TestWatcher_DebouncedChanges(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "chat"), 0o755); err != nil {
		t.Fatal(err)
	}

	changes := make(chan []string, 4)
	w, err := NewWatcher(dir, 50*time.Millisecond, func(paths []string) {
		changes <- paths
	}, nil)
	if err != nil {
		t.Fatalf("NewWatcher() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()
	defer func() {
		cancel()
		<-done
	}()

	write := func(rel, content string) {
		testutil.WritePackFile(t, dir, rel, content)
	}
	write("chat/filter.yaml", "words: [a]")
	write("chat/filter.yaml", "words: [a, b]")
	write("notes.txt", "ignored")
	write("greeting.toml", "text = 'hi'")

	seen := make(map[string]bool)
	deadline := time.After(5 * time.Second)
	for !seen["chat/filter.yaml"] || !seen["greeting.toml"] {
		select {
		case paths := <-changes:
			for _, p := range paths {
				seen[p] = true
			}
		case <-deadline:
			t.Fatalf("changes seen = %v, want chat/filter.yaml and greeting.toml", seen)
		}
	}
	if seen["notes.txt"] {
		t.Error("non-resource file reported")
	}
}

func TestWatcher_NewDirectory(t *testing.T) {
	dir := t.TempDir()

	changes := make(chan []string, 4)
	w, err := NewWatcher(dir, 30*time.Millisecond, func(paths []string) {
		changes <- paths
	}, nil)
	if err != nil {
		t.Fatalf("NewWatcher() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()
	defer func() {
		cancel()
		<-done
	}()

	sub := filepath.Join(dir, "blocks")
	if err := os.Mkdir(sub, 0o755); err != nil {
		t.Fatal(err)
	}
	// Give the watcher a moment to add the new directory.
	deadline := time.After(5 * time.Second)
	for {
		if err := os.WriteFile(filepath.Join(sub, "protect.toml"), []byte("blocks = []"), 0o644); err != nil {
			t.Fatal(err)
		}
		select {
		case paths := <-changes:
			for _, p := range paths {
				if p == "blocks/protect.toml" {
					return
				}
			}
		case <-time.After(200 * time.Millisecond):
		case <-deadline:
			t.Fatal("change in new directory not reported")
		}
	}
}

func TestNewWatcher_MissingRoot(t *testing.T) {
	if _, err := NewWatcher(filepath.Join(t.TempDir(), "missing"), 0, nil, nil); err == nil {
		t.Error("NewWatcher() error = nil for missing root")
	}
}
