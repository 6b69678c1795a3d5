package ports

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/Andrey-Khohlov/rollermap/internal/core/domain"
)

// ErrCacheMiss is returned by DatasetCache.Load when no entry exists.
var ErrCacheMiss = errors.New("dataset cache miss")

// GeometryParser decodes a single track-log file.
type GeometryParser interface {
	Parse(path string, mode domain.ParseMode) (domain.ParseResult, error)
}

// DirEntry is a single listed file.
type DirEntry struct {
	Name  string
	Path  string
	IsDir bool
}

// DirectoryLister lists the direct children of a directory.
type DirectoryLister interface {
	List(ctx context.Context, dir string) ([]DirEntry, error)
}

// RoadworkLoad is the outcome of loading the external dataset.
type RoadworkLoad struct {
	Records   []domain.RoadworkRecord
	FromCache bool
	// Stale is set when a fetch failed and an expired cache entry was used.
	Stale    bool
	StoredAt time.Time
}

// RoadworkSource loads municipal road-work records.
type RoadworkSource interface {
	Load(ctx context.Context) (RoadworkLoad, error)
}

// DatasetCache persists raw dataset payloads together with their store time.
type DatasetCache interface {
	Load(ctx context.Context, key string) (data []byte, storedAt time.Time, err error)
	Store(ctx context.Context, key string, data []byte) error
}

// MapRenderer turns a composed artifact into an interactive document.
type MapRenderer interface {
	Render(ctx context.Context, artifact *domain.MapArtifact, w io.Writer) error
	Save(ctx context.Context, artifact *domain.MapArtifact, path string) error
}
