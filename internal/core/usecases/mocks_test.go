package usecases_test

import (
	"context"
	"io"
	"io/fs"
	"log/slog"
	"path"
	"sync"

	"github.com/Andrey-Khohlov/rollermap/internal/core/domain"
	"github.com/Andrey-Khohlov/rollermap/internal/core/ports"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// --- Mock DirectoryLister ---

type mockLister struct {
	dirs   map[string][]string
	listFn func(ctx context.Context, dir string) ([]ports.DirEntry, error)
}

func (m *mockLister) List(ctx context.Context, dir string) ([]ports.DirEntry, error) {
	if m.listFn != nil {
		return m.listFn(ctx, dir)
	}
	names, ok := m.dirs[dir]
	if !ok {
		return nil, fs.ErrNotExist
	}
	out := make([]ports.DirEntry, 0, len(names))
	for _, n := range names {
		out = append(out, ports.DirEntry{Name: n, Path: path.Join(dir, n)})
	}
	return out, nil
}

// --- Mock GeometryParser ---

type mockParser struct {
	mu      sync.Mutex
	results map[string]domain.ParseResult
	errs    map[string]error
	calls   []string
}

func (m *mockParser) Parse(p string, mode domain.ParseMode) (domain.ParseResult, error) {
	m.mu.Lock()
	m.calls = append(m.calls, p)
	m.mu.Unlock()
	if err, ok := m.errs[p]; ok {
		return domain.ParseResult{}, err
	}
	return m.results[p], nil
}

// --- Mock RoadworkSource ---

type mockSource struct {
	loadFn func(ctx context.Context) (ports.RoadworkLoad, error)
}

func (m *mockSource) Load(ctx context.Context) (ports.RoadworkLoad, error) {
	if m.loadFn != nil {
		return m.loadFn(ctx)
	}
	return ports.RoadworkLoad{}, nil
}

// --- Mock MapRenderer ---

type mockRenderer struct {
	saved    *domain.MapArtifact
	savedTo  string
	saveErr  error
	rendered int
}

func (m *mockRenderer) Render(ctx context.Context, a *domain.MapArtifact, w io.Writer) error {
	m.rendered++
	_, err := io.WriteString(w, "<html></html>")
	return err
}

func (m *mockRenderer) Save(ctx context.Context, a *domain.MapArtifact, p string) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saved = a
	m.savedTo = p
	return nil
}

// --- Fixtures ---

func pointsAlong(n int, lat, lon float64) []domain.GeoPoint {
	out := make([]domain.GeoPoint, n)
	for i := range out {
		out[i] = domain.GeoPoint{Lat: lat + float64(i)*0.001, Lon: lon + float64(i)*0.001}
	}
	return out
}
