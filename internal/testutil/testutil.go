// Package testutil provides testing utilities for hookbus tests.
package testutil

import (
	"bytes"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/spf13/afero"

	"github.com/Iron-Ham/hookbus/internal/logging"
)

// SyncBuffer is a bytes.Buffer safe for concurrent writers, for capturing
// output written from a loop goroutine while the test reads it.
type SyncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *SyncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

// String returns everything written so far.
func (b *SyncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// Reset discards everything written so far.
func (b *SyncBuffer) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.buf.Reset()
}

// CaptureLogger returns a DEBUG logger whose JSON lines are collected in the
// returned buffer.
func CaptureLogger(t *testing.T) (*logging.Logger, *SyncBuffer) {
	t.Helper()
	buf := &SyncBuffer{}
	return logging.NewWithWriter(buf, logging.LevelDebug), buf
}

// WritePack creates a resource pack in a temporary directory. The files map
// contains slash-separated relative paths to file contents. The directory is
// removed when the test completes.
func WritePack(t *testing.T, files map[string]string) string {
	t.Helper()

	dir := t.TempDir()
	for rel, content := range files {
		WritePackFile(t, dir, rel, content)
	}
	return dir
}

// WritePackFile creates or replaces one file in a pack directory.
func WritePackFile(t *testing.T, dir, rel, content string) {
	t.Helper()

	fullPath := filepath.Join(dir, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		t.Fatalf("failed to create directory for %s: %v", rel, err)
	}
	if err := os.WriteFile(fullPath, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write file %s: %v", rel, err)
	}
}

// MemPack builds an in-memory filesystem holding a pack rooted at root.
func MemPack(t *testing.T, root string, files map[string]string) afero.Fs {
	t.Helper()

	fs := afero.NewMemMapFs()
	if err := fs.MkdirAll(root, 0755); err != nil {
		t.Fatalf("failed to create pack root: %v", err)
	}
	for rel, content := range files {
		full := path.Join(root, rel)
		if err := fs.MkdirAll(path.Dir(full), 0755); err != nil {
			t.Fatalf("failed to create directory for %s: %v", rel, err)
		}
		if err := afero.WriteFile(fs, full, []byte(content), 0644); err != nil {
			t.Fatalf("failed to write file %s: %v", rel, err)
		}
	}
	return fs
}

// WaitFor polls cond every 10ms until it returns true, failing the test
// after timeout.
func WaitFor(t *testing.T, timeout time.Duration, what string, cond func() bool) {
	t.Helper()

	deadline := time.Now().Add(timeout)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out after %v waiting for %s", timeout, what)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

// WaitForOutput waits until buf contains want.
func WaitForOutput(t *testing.T, buf *SyncBuffer, want string, timeout time.Duration) {
	t.Helper()

	WaitFor(t, timeout, want, func() bool {
		return strings.Contains(buf.String(), want)
	})
}
