package docstore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// FileBackend stores each collection as <dir>/<name>.json.
type FileBackend struct {
	dir string
}

// NewFileBackend creates a file backend rooted at dir. The directory is created on first write.
func NewFileBackend(dir string) *FileBackend {
	if abs, err := filepath.Abs(dir); err == nil {
		dir = abs
	}
	return &FileBackend{dir: dir}
}

// Path returns the file backing the named collection.
func (b *FileBackend) Path(name string) string {
	return filepath.Join(b.dir, name+".json")
}

// Key implements Backend.
func (b *FileBackend) Key(name string) string {
	return "file:" + b.Path(name)
}

// Read implements Backend.
func (b *FileBackend) Read(ctx context.Context, name string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(b.Path(name))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotExist
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read collection %s: %w", name, err)
	}
	return data, nil
}

// Write implements Backend. The document is written to a temporary file in the
// same directory, synced, and renamed over the target.
func (b *FileBackend) Write(ctx context.Context, name string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := os.MkdirAll(b.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	tmp, err := os.CreateTemp(b.dir, "."+name+"-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file for %s: %w", name, err)
	}
	tmpName := tmp.Name()

	cleanup := func() {
		tmp.Close()
		os.Remove(tmpName)
	}

	if _, err := tmp.Write(data); err != nil {
		cleanup()
		return fmt.Errorf("failed to write collection %s: %w", name, err)
	}
	if err := tmp.Sync(); err != nil {
		cleanup()
		return fmt.Errorf("failed to sync collection %s: %w", name, err)
	}
	if err := tmp.Chmod(b.fileMode(name)); err != nil {
		cleanup()
		return fmt.Errorf("failed to set mode on collection %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close collection %s: %w", name, err)
	}

	if err := os.Rename(tmpName, b.Path(name)); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace collection %s: %w", name, err)
	}

	return nil
}

// fileMode keeps the mode of an existing collection file; new files are
// world-readable like the rest of the data directory.
func (b *FileBackend) fileMode(name string) os.FileMode {
	if fi, err := os.Stat(b.Path(name)); err == nil {
		return fi.Mode().Perm()
	}
	return 0o644
}
