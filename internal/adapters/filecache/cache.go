// Package filecache stores raw dataset payloads as files in one directory.
package filecache

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"time"

	"github.com/spf13/afero"

	"github.com/Andrey-Khohlov/rollermap/internal/core/ports"
)

// Cache implements ports.DatasetCache on a filesystem. The file modification
// time is the store time.
type Cache struct {
	fs  afero.Fs
	dir string
}

// New creates a file cache rooted at dir. A nil fs means the host OS
// filesystem.
func New(fs afero.Fs, dir string) *Cache {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &Cache{fs: fs, dir: dir}
}

func (c *Cache) path(key string) string {
	return filepath.Join(c.dir, key+".json")
}

// Load returns the payload stored under key.
func (c *Cache) Load(ctx context.Context, key string) ([]byte, time.Time, error) {
	if err := ctx.Err(); err != nil {
		return nil, time.Time{}, err
	}
	p := c.path(key)
	fi, err := c.fs.Stat(p)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, time.Time{}, ports.ErrCacheMiss
	}
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("stat %s: %w", p, err)
	}
	data, err := afero.ReadFile(c.fs, p)
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("read %s: %w", p, err)
	}
	return data, fi.ModTime(), nil
}

// Store writes data under key, replacing any previous entry atomically.
func (c *Cache) Store(ctx context.Context, key string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := c.fs.MkdirAll(c.dir, 0o755); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}
	p := c.path(key)
	tmp := p + ".tmp"
	if err := afero.WriteFile(c.fs, tmp, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", tmp, err)
	}
	if err := c.fs.Rename(tmp, p); err != nil {
		return fmt.Errorf("rename %s: %w", tmp, err)
	}
	return nil
}
