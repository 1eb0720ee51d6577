package snapshot

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/muurk/wled-backup/internal/discovery"
	"github.com/muurk/wled-backup/internal/logging"
	"github.com/muurk/wled-backup/internal/wled"
)

const (
	// TempPrefix marks in-progress files. They are never published after a
	// crash; Sweep removes them.
	TempPrefix = ".wled-backup-"

	// DefaultSweepAge is how old a temp file must be before Sweep removes it
	DefaultSweepAge = time.Hour

	dirPerm  = 0o755
	filePerm = 0o644
)

// ErrExists is returned when the final file name is already taken
var ErrExists = errors.New("backup file already exists")

// Writer persists artifact payloads into OutDir. A file is only ever visible
// under its final name once it is completely written and synced.
// Writer is safe for concurrent use.
type Writer struct {
	OutDir string

	// Mirror, if set, receives a copy of every published file
	Mirror Mirror

	prepareOnce sync.Once
	prepareErr  error
}

// NewWriter creates a writer for outDir. The directory is not touched until
// Prepare or the first Write.
func NewWriter(outDir string) *Writer {
	return &Writer{OutDir: outDir}
}

// Prepare creates OutDir (and parents) if it does not exist. Only the first
// call does any work.
func (w *Writer) Prepare() error {
	w.prepareOnce.Do(func() {
		if w.OutDir == "" {
			w.prepareErr = &WriteError{Op: "mkdir", Path: w.OutDir, Err: errors.New("output directory not set")}
			return
		}
		if err := os.MkdirAll(w.OutDir, dirPerm); err != nil {
			w.prepareErr = &WriteError{Op: "mkdir", Path: w.OutDir, Err: err}
		}
	})
	return w.prepareErr
}

// Write persists payload under FileName(device, runAt, artifact) and returns
// the final path. The payload is written verbatim.
//
// If a mirror is configured and the upload fails, the returned path is still
// valid (the local file is kept) and the error is a *WriteError with Op
// "mirror".
func (w *Writer) Write(ctx context.Context, device *discovery.Device, runAt time.Time, artifact wled.Artifact, payload []byte) (string, error) {
	if err := w.Prepare(); err != nil {
		return "", err
	}

	name := FileName(device, runAt, artifact)
	path := filepath.Join(w.OutDir, name)

	if err := w.writeAtomic(ctx, path, payload); err != nil {
		return "", err
	}

	if w.Mirror != nil {
		if err := w.Mirror.Put(ctx, name, payload); err != nil {
			return path, &WriteError{Op: "mirror", Path: name, Err: err}
		}
	}

	return path, nil
}

// writeAtomic writes payload to a temp file next to path, syncs it, and
// publishes it under path without ever replacing an existing file
func (w *Writer) writeAtomic(ctx context.Context, path string, payload []byte) error {
	tmp, err := os.CreateTemp(w.OutDir, TempPrefix+"*")
	if err != nil {
		return &WriteError{Op: "create", Path: path, Err: err}
	}
	tmpPath := tmp.Name()

	// The temp file never outlives this call
	defer func() { _ = os.Remove(tmpPath) }()

	if _, err := tmp.Write(payload); err != nil {
		_ = tmp.Close()
		return &WriteError{Op: "write", Path: tmpPath, Err: err}
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return &WriteError{Op: "sync", Path: tmpPath, Err: err}
	}
	if err := tmp.Close(); err != nil {
		return &WriteError{Op: "close", Path: tmpPath, Err: err}
	}
	if err := os.Chmod(tmpPath, filePerm); err != nil {
		return &WriteError{Op: "chmod", Path: tmpPath, Err: err}
	}

	if err := ctx.Err(); err != nil {
		return &WriteError{Op: "publish", Path: path, Err: err}
	}

	if err := publish(tmpPath, path); err != nil {
		return &WriteError{Op: "publish", Path: path, Err: err}
	}
	return nil
}

// publish makes tmpPath visible as path. os.Link fails if path exists, so an
// existing backup is never overwritten. File systems without hard links fall
// back to rename after an existence check.
func publish(tmpPath, path string) error {
	err := os.Link(tmpPath, path)
	if err == nil {
		return nil
	}
	if errors.Is(err, fs.ErrExist) {
		return ErrExists
	}

	if _, statErr := os.Lstat(path); statErr == nil {
		return ErrExists
	} else if !errors.Is(statErr, fs.ErrNotExist) {
		return statErr
	}
	if renameErr := os.Rename(tmpPath, path); renameErr != nil {
		return fmt.Errorf("link: %v; rename: %w", err, renameErr)
	}
	return nil
}

// Sweep removes temp files older than maxAge left behind by interrupted
// runs. A missing OutDir is not an error. It returns the number of files
// removed.
func (w *Writer) Sweep(maxAge time.Duration) (int, error) {
	entries, err := os.ReadDir(w.OutDir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return 0, nil
		}
		return 0, &WriteError{Op: "sweep", Path: w.OutDir, Err: err}
	}

	cutoff := time.Now().Add(-maxAge)
	removed := 0
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasPrefix(entry.Name(), TempPrefix) {
			continue
		}
		info, err := entry.Info()
		if err != nil || info.ModTime().After(cutoff) {
			continue
		}

		path := filepath.Join(w.OutDir, entry.Name())
		if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			logging.Warn("Failed to remove stale temp file", zap.String("path", path), zap.Error(err))
			continue
		}
		logging.Debug("Removed stale temp file", zap.String("path", path))
		removed++
	}
	return removed, nil
}
