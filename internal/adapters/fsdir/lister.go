package fsdir

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/Andrey-Khohlov/rollermap/internal/core/ports"
)

// Lister implements ports.DirectoryLister on top of an afero filesystem.
type Lister struct {
	fs afero.Fs
}

// New creates a Lister. A nil fs means the host OS filesystem.
func New(fs afero.Fs) *Lister {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &Lister{fs: fs}
}

// List returns the direct children of dir in name order.
func (l *Lister) List(ctx context.Context, dir string) ([]ports.DirEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	infos, err := afero.ReadDir(l.fs, dir)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", dir, err)
	}
	entries := make([]ports.DirEntry, 0, len(infos))
	for _, fi := range infos {
		entries = append(entries, ports.DirEntry{
			Name:  fi.Name(),
			Path:  filepath.Join(dir, fi.Name()),
			IsDir: fi.IsDir(),
		})
	}
	return entries, nil
}
