package logging

import (
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/spf13/afero"
)

const bytesPerMB = 1024 * 1024

// RotationConfig controls size-based rotation of debug.log.
type RotationConfig struct {
	// MaxSizeMB is the size at which the file is rotated. 0 disables rotation.
	MaxSizeMB int
	// MaxBackups is how many rotated files are kept (debug.log.1 is newest).
	MaxBackups int
	// Compress gzips each backup as it is rotated out.
	Compress bool
}

// DefaultRotationConfig mirrors the logging defaults in the config package.
func DefaultRotationConfig() RotationConfig {
	return RotationConfig{MaxSizeMB: 10, MaxBackups: 3}
}

// RotatingWriter is an io.WriteCloser that rolls its file over once it would
// grow past the configured size. It is safe for concurrent use, so the server
// and client loops can share one logger.
type RotatingWriter struct {
	fs   afero.Fs
	path string
	cfg  RotationConfig

	mu        sync.Mutex
	maxBytes  int64
	file      afero.File
	size      int64
	rotations int
}

// NewRotatingWriter opens path on the OS filesystem for appending.
func NewRotatingWriter(path string, cfg RotationConfig) (*RotatingWriter, error) {
	return newRotatingWriterFs(afero.NewOsFs(), path, cfg)
}

func newRotatingWriterFs(fs afero.Fs, path string, cfg RotationConfig) (*RotatingWriter, error) {
	rw := &RotatingWriter{
		fs:       fs,
		path:     path,
		cfg:      cfg,
		maxBytes: int64(cfg.MaxSizeMB) * bytesPerMB,
	}
	if err := rw.open(); err != nil {
		return nil, err
	}
	return rw, nil
}

// open (re)opens the active file. Callers hold mu or own rw exclusively.
func (rw *RotatingWriter) open() error {
	if err := rw.fs.MkdirAll(filepath.Dir(rw.path), 0o755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}
	f, err := rw.fs.OpenFile(rw.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to stat log file: %w", err)
	}
	rw.file = f
	rw.size = info.Size()
	return nil
}

// Write appends p, rotating first when p would push the file past the limit.
// A failed rotation is reported on stderr and the write goes to the old file
// so no log lines are lost.
func (rw *RotatingWriter) Write(p []byte) (int, error) {
	rw.mu.Lock()
	defer rw.mu.Unlock()

	if rw.file == nil {
		return 0, fmt.Errorf("log file is closed")
	}
	if rw.maxBytes > 0 && rw.size > 0 && rw.size+int64(len(p)) > rw.maxBytes {
		if err := rw.rotate(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: log rotation failed: %v\n", err)
		}
	}
	if rw.file == nil {
		return 0, fmt.Errorf("log file is closed")
	}

	n, err := rw.file.Write(p)
	rw.size += int64(n)
	return n, err
}

func (rw *RotatingWriter) rotate() error {
	if err := rw.closeFile(); err != nil {
		return err
	}

	if rw.cfg.MaxBackups <= 0 {
		if err := rw.fs.Remove(rw.path); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to truncate %s: %v\n", rw.path, err)
		}
		rw.removeBackup(1)
		rw.rotations++
		return rw.open()
	}

	rw.shiftBackups()

	first := rw.backupPath(1)
	if err := rw.fs.Rename(rw.path, first); err != nil {
		if openErr := rw.open(); openErr != nil {
			return fmt.Errorf("failed to rename log file and reopen: %w", openErr)
		}
		return fmt.Errorf("failed to rename log file: %w", err)
	}
	if rw.cfg.Compress {
		if err := rw.compress(first); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to compress %s: %v\n", first, err)
		}
	}
	rw.rotations++
	return rw.open()
}

// shiftBackups renames debug.log.N to debug.log.N+1, dropping whatever falls
// off the end.
func (rw *RotatingWriter) shiftBackups() {
	rw.removeBackup(rw.cfg.MaxBackups)
	for i := rw.cfg.MaxBackups - 1; i >= 1; i-- {
		from, to := rw.backupPath(i), rw.backupPath(i+1)
		if exists(rw.fs, from+".gz") {
			_ = rw.fs.Rename(from+".gz", to+".gz")
		} else if exists(rw.fs, from) {
			_ = rw.fs.Rename(from, to)
		}
	}
}

func (rw *RotatingWriter) removeBackup(n int) {
	_ = rw.fs.Remove(rw.backupPath(n))
	_ = rw.fs.Remove(rw.backupPath(n) + ".gz")
}

func (rw *RotatingWriter) backupPath(n int) string {
	return fmt.Sprintf("%s.%d", rw.path, n)
}

// compress replaces path with path.gz. The plain file is only removed once
// the archive has been written completely.
func (rw *RotatingWriter) compress(path string) error {
	src, err := rw.fs.Open(path)
	if err != nil {
		return err
	}
	defer src.Close()

	dst, err := rw.fs.Create(path + ".gz")
	if err != nil {
		return err
	}
	zw := gzip.NewWriter(dst)
	_, copyErr := io.Copy(zw, src)
	closeErr := zw.Close()
	fileErr := dst.Close()
	for _, err := range []error{copyErr, closeErr, fileErr} {
		if err != nil {
			_ = rw.fs.Remove(path + ".gz")
			return err
		}
	}
	return rw.fs.Remove(path)
}

func (rw *RotatingWriter) closeFile() error {
	if rw.file == nil {
		return nil
	}
	if err := rw.file.Sync(); err != nil {
		return fmt.Errorf("failed to sync log file: %w", err)
	}
	err := rw.file.Close()
	rw.file = nil
	if err != nil {
		return fmt.Errorf("failed to close log file: %w", err)
	}
	return nil
}

// Sync flushes the active file.
func (rw *RotatingWriter) Sync() error {
	rw.mu.Lock()
	defer rw.mu.Unlock()
	if rw.file == nil {
		return nil
	}
	return rw.file.Sync()
}

// Close syncs and closes the active file. Further writes fail.
func (rw *RotatingWriter) Close() error {
	rw.mu.Lock()
	defer rw.mu.Unlock()
	return rw.closeFile()
}

// CurrentSize returns the size of the active file in bytes.
func (rw *RotatingWriter) CurrentSize() int64 {
	rw.mu.Lock()
	defer rw.mu.Unlock()
	return rw.size
}

// Rotations returns how many times the file has been rolled over.
func (rw *RotatingWriter) Rotations() int {
	rw.mu.Lock()
	defer rw.mu.Unlock()
	return rw.rotations
}

// FilePath returns the path of the active file.
func (rw *RotatingWriter) FilePath() string {
	return rw.path
}

func exists(fs afero.Fs, path string) bool {
	_, err := fs.Stat(path)
	return err == nil
}
