package usecases

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/Andrey-Khohlov/rollermap/internal/core/domain"
	"github.com/Andrey-Khohlov/rollermap/internal/core/ports"
	"github.com/Andrey-Khohlov/rollermap/internal/pkg/geospatial"
	"github.com/Andrey-Khohlov/rollermap/internal/pkg/metrics"
)

// DefaultDecimationStride is the stride applied to aggregated track points.
const DefaultDecimationStride = 5

// trackExt is matched case-insensitively.
const trackExt = ".gpx"

// AggregateResult is the decimated point set of a track directory.
type AggregateResult struct {
	Points      []domain.GeoPoint
	RawPoints   int
	FilesParsed int
	Skipped     []domain.SkippedFile
}

// TrackAggregator collects and decimates points from every track file in a
// directory.
type TrackAggregator struct {
	lister ports.DirectoryLister
	parser ports.GeometryParser
	stride int
	log    *slog.Logger
}

// NewTrackAggregator creates a TrackAggregator. A stride below 1 falls back
// to DefaultDecimationStride.
func NewTrackAggregator(lister ports.DirectoryLister, parser ports.GeometryParser, stride int, log *slog.Logger) *TrackAggregator {
	if stride < 1 {
		stride = DefaultDecimationStride
	}
	if log == nil {
		log = slog.Default()
	}
	return &TrackAggregator{lister: lister, parser: parser, stride: stride, log: log}
}

// Aggregate parses every track file in dir, concatenates the points in
// listing order and decimates the result once. Files that fail to parse are
// skipped and reported.
func (a *TrackAggregator) Aggregate(ctx context.Context, dir string) (AggregateResult, error) {
	files, err := trackFiles(ctx, a.lister, dir)
	if err != nil {
		return AggregateResult{}, err
	}

	var res AggregateResult
	var all []domain.GeoPoint
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return AggregateResult{}, err
		}
		parsed, err := a.parser.Parse(f.Path, domain.ModeTrack)
		if err != nil {
			a.skip(&res.Skipped, f.Path, err)
			continue
		}
		res.FilesParsed++
		metrics.FilesParsed.WithLabelValues(domain.ModeTrack.String()).Inc()
		a.log.Debug("track file parsed", "path", f.Path, "points", len(parsed.Points))
		all = append(all, parsed.Points...)
	}

	if len(all) == 0 {
		return AggregateResult{}, &domain.EmptyInputError{Dir: dir}
	}

	res.RawPoints = len(all)
	res.Points = geospatial.Decimate(all, a.stride)
	metrics.PointsIngested.WithLabelValues("raw").Add(float64(res.RawPoints))
	metrics.PointsIngested.WithLabelValues("decimated").Add(float64(len(res.Points)))

	a.log.Info("tracks aggregated",
		"dir", dir,
		"files", res.FilesParsed,
		"skipped", len(res.Skipped),
		"raw_points", res.RawPoints,
		"points", len(res.Points),
		"stride", a.stride,
	)
	return res, nil
}

func (a *TrackAggregator) skip(skipped *[]domain.SkippedFile, path string, err error) {
	*skipped = append(*skipped, domain.SkippedFile{Path: path, Error: err.Error()})
	metrics.ParseErrors.WithLabelValues(domain.ModeTrack.String()).Inc()
	a.log.Warn("skipping unreadable track file", "path", path, "error", err)
}

// trackFiles returns the regular files in dir with a track-log extension.
func trackFiles(ctx context.Context, lister ports.DirectoryLister, dir string) ([]ports.DirEntry, error) {
	entries, err := lister.List(ctx, dir)
	if err != nil {
		return nil, err
	}
	files := make([]ports.DirEntry, 0, len(entries))
	for _, e := range entries {
		if e.IsDir || !strings.EqualFold(filepath.Ext(e.Name), trackExt) {
			continue
		}
		files = append(files, e)
	}
	return files, nil
}
