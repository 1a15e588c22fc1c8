package upload

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// DiskStorage writes uploads into a local directory.
type DiskStorage struct {
	dir string
}

// NewDiskStorage creates dir if needed.
func NewDiskStorage(dir string) (*DiskStorage, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("upload: creating %s: %w", dir, err)
	}
	return &DiskStorage{dir: dir}, nil
}

// Dir is the directory the server should expose under URLPrefix.
func (d *DiskStorage) Dir() string { return d.dir }

func (d *DiskStorage) Backend() string { return BackendDisk }

// Save writes body to <dir>/<name>. An existing file is never overwritten;
// a partially written file is removed.
func (d *DiskStorage) Save(ctx context.Context, name, _ string, body io.Reader) (string, error) {
	if err := validName(name); err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	path := filepath.Join(d.dir, name)
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("upload: creating %s: %w", name, err)
	}

	if _, err := io.Copy(f, body); err != nil {
		f.Close()
		os.Remove(path)
		return "", fmt.Errorf("upload: writing %s: %w", name, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("upload: closing %s: %w", name, err)
	}

	return URLPrefix + name, nil
}
