package logging

import (
	"compress/gzip"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/spf13/afero"
)

const memLogPath = "/logs/debug.log"

func newMemWriter(t *testing.T, cfg RotationConfig, maxBytes int64) (*RotatingWriter, afero.Fs) {
	t.Helper()
	fs := afero.NewMemMapFs()
	rw, err := newRotatingWriterFs(fs, memLogPath, cfg)
	if err != nil {
		t.Fatalf("newRotatingWriterFs: %v", err)
	}
	if maxBytes > 0 {
		rw.maxBytes = maxBytes
	}
	t.Cleanup(func() { _ = rw.Close() })
	return rw, fs
}

func readMem(t *testing.T, fs afero.Fs, path string) string {
	t.Helper()
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return string(data)
}

func TestRotatingWriter_AppendsToExistingFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	if err := afero.WriteFile(fs, memLogPath, []byte("old\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	rw, err := newRotatingWriterFs(fs, memLogPath, DefaultRotationConfig())
	if err != nil {
		t.Fatalf("newRotatingWriterFs: %v", err)
	}
	if rw.CurrentSize() != 4 {
		t.Errorf("CurrentSize() = %d, want 4", rw.CurrentSize())
	}
	if _, err := rw.Write([]byte("new\n")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	_ = rw.Close()

	if got := readMem(t, fs, memLogPath); got != "old\nnew\n" {
		t.Errorf("content = %q", got)
	}
	if rw.FilePath() != memLogPath {
		t.Errorf("FilePath() = %q", rw.FilePath())
	}
}

func TestRotatingWriter_Rotation(t *testing.T) {
	line := []byte(strings.Repeat("x", 39) + "\n") // 40 bytes

	tests := []struct {
		name          string
		cfg           RotationConfig
		writes        int
		wantRotations int
		wantExist     []string
		wantMissing   []string
	}{
		{
			name:          "under the limit",
			cfg:           RotationConfig{MaxBackups: 3},
			writes:        2,
			wantRotations: 0,
			wantMissing:   []string{".1"},
		},
		{
			name:          "keeps newest backups",
			cfg:           RotationConfig{MaxBackups: 2},
			writes:        10,
			wantRotations: 4,
			wantExist:     []string{".1", ".2"},
			wantMissing:   []string{".3"},
		},
		{
			name:          "no backups",
			cfg:           RotationConfig{MaxBackups: 0},
			writes:        6,
			wantRotations: 2,
			wantMissing:   []string{".1", ".2"},
		},
		{
			name:          "compressed backups",
			cfg:           RotationConfig{MaxBackups: 2, Compress: true},
			writes:        6,
			wantRotations: 2,
			wantExist:     []string{".1.gz", ".2.gz"},
			wantMissing:   []string{".1", ".2"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Two lines per file.
			rw, fs := newMemWriter(t, tt.cfg, 100)
			for range tt.writes {
				if _, err := rw.Write(line); err != nil {
					t.Fatalf("Write: %v", err)
				}
			}

			if got := rw.Rotations(); got != tt.wantRotations {
				t.Errorf("Rotations() = %d, want %d", got, tt.wantRotations)
			}
			if rw.CurrentSize() > 100 {
				t.Errorf("active file grew to %d bytes", rw.CurrentSize())
			}
			for _, suffix := range tt.wantExist {
				if !exists(fs, memLogPath+suffix) {
					t.Errorf("expected %s to exist", memLogPath+suffix)
				}
			}
			for _, suffix := range tt.wantMissing {
				if exists(fs, memLogPath+suffix) {
					t.Errorf("expected %s to be absent", memLogPath+suffix)
				}
			}
		})
	}
}

func TestRotatingWriter_BackupsShiftInOrder(t *testing.T) {
	rw, fs := newMemWriter(t, RotationConfig{MaxBackups: 3}, 10)
	for _, s := range []string{"first\n", "second\n", "third\n", "fourth\n"} {
		if _, err := rw.Write([]byte(s)); err != nil {
			t.Fatalf("Write: %v", err)
		}
	}

	want := map[string]string{
		memLogPath:        "fourth\n",
		memLogPath + ".1": "third\n",
		memLogPath + ".2": "second\n",
		memLogPath + ".3": "first\n",
	}
	for path, content := range want {
		if got := readMem(t, fs, path); got != content {
			t.Errorf("%s = %q, want %q", path, got, content)
		}
	}
}

func TestRotatingWriter_CompressedBackupIsReadable(t *testing.T) {
	rw, fs := newMemWriter(t, RotationConfig{MaxBackups: 1, Compress: true}, 10)
	for _, s := range []string{"rotated away\n", "active\n"} {
		if _, err := rw.Write([]byte(s)); err != nil {
			t.Fatalf("Write: %v", err)
		}
	}

	f, err := fs.Open(memLogPath + ".1.gz")
	if err != nil {
		t.Fatalf("open backup: %v", err)
	}
	defer f.Close()
	zr, err := gzip.NewReader(f)
	if err != nil {
		t.Fatalf("gzip.NewReader: %v", err)
	}
	data, err := io.ReadAll(zr)
	if err != nil {
		t.Fatalf("read backup: %v", err)
	}
	if string(data) != "rotated away\n" {
		t.Errorf("backup = %q", data)
	}
}

func TestRotatingWriter_OversizedFirstWriteDoesNotRotate(t *testing.T) {
	rw, _ := newMemWriter(t, RotationConfig{MaxBackups: 1}, 10)
	if _, err := rw.Write([]byte(strings.Repeat("y", 50))); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if rw.Rotations() != 0 {
		t.Errorf("empty file should not be rotated, got %d rotations", rw.Rotations())
	}
}

func TestRotatingWriter_Concurrent(t *testing.T) {
	rw, fs := newMemWriter(t, RotationConfig{MaxBackups: 50}, 500)

	const writers, lines = 8, 50
	var wg sync.WaitGroup
	for range writers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range lines {
				if _, err := rw.Write([]byte("concurrent line\n")); err != nil {
					t.Errorf("Write: %v", err)
					return
				}
			}
		}()
	}
	wg.Wait()
	_ = rw.Close()

	total := strings.Count(readMem(t, fs, memLogPath), "\n")
	for i := 1; i <= 50; i++ {
		path := rw.backupPath(i)
		if !exists(fs, path) {
			break
		}
		total += strings.Count(readMem(t, fs, path), "\n")
	}
	if total != writers*lines {
		t.Errorf("lines written = %d, want %d", total, writers*lines)
	}
}

func TestRotatingWriter_Close(t *testing.T) {
	rw, _ := newMemWriter(t, DefaultRotationConfig(), 0)
	if err := rw.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := rw.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}
	if err := rw.Sync(); err != nil {
		t.Errorf("Sync after Close: %v", err)
	}
	if _, err := rw.Write([]byte("late")); err == nil {
		t.Error("Write after Close should fail")
	}
}

func TestNewLoggerWithRotation(t *testing.T) {
	t.Run("writes JSON to debug.log", func(t *testing.T) {
		dir := t.TempDir()
		logger, err := NewLoggerWithRotation(dir, LevelDebug, DefaultRotationConfig())
		if err != nil {
			t.Fatalf("NewLoggerWithRotation: %v", err)
		}
		logger.WithBus("server").Info("listener failed", "label", "chat-filter/words")
		_ = logger.Close()

		content, err := os.ReadFile(filepath.Join(dir, LogFileName))
		if err != nil {
			t.Fatalf("read log: %v", err)
		}
		var entry map[string]any
		if err := json.Unmarshal(content, &entry); err != nil {
			t.Fatalf("parse entry: %v", err)
		}
		if entry["msg"] != "listener failed" || entry["bus"] != "server" || entry["label"] != "chat-filter/words" {
			t.Errorf("unexpected entry: %v", entry)
		}
	})

	t.Run("stderr without a directory", func(t *testing.T) {
		logger, err := NewLoggerWithRotation("", LevelInfo, DefaultRotationConfig())
		if err != nil {
			t.Fatalf("NewLoggerWithRotation: %v", err)
		}
		if logger.rotation != nil {
			t.Error("expected no rotation writer")
		}
	})

	t.Run("children share the writer", func(t *testing.T) {
		dir := t.TempDir()
		logger, err := NewLoggerWithRotation(dir, LevelDebug, RotationConfig{MaxBackups: 2})
		if err != nil {
			t.Fatalf("NewLoggerWithRotation: %v", err)
		}
		defer func() { _ = logger.Close() }()

		child := logger.WithBus("client").WithScope("feature/overlay")
		if child.rotation != logger.rotation {
			t.Fatal("child logger should share the rotation writer")
		}

		logger.rotation.maxBytes = 200
		for i := range 10 {
			child.Info("frame rendered with a reasonably long message", "frame", i)
		}
		if logger.rotation.Rotations() == 0 {
			t.Error("expected rotation after exceeding the limit")
		}
		if _, err := os.Stat(filepath.Join(dir, LogFileName+".1")); err != nil {
			t.Errorf("backup missing: %v", err)
		}
	})
}
