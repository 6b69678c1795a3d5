package usecases

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Andrey-Khohlov/rollermap/internal/core/domain"
	"github.com/Andrey-Khohlov/rollermap/internal/core/ports"
	"github.com/Andrey-Khohlov/rollermap/internal/pkg/metrics"
)

// PipelineConfig names the inputs and output of one run.
type PipelineConfig struct {
	TracksDir       string
	RestrictionsDir string
	Output          string
}

// RunReport summarises a pipeline run.
type RunReport struct {
	Output           string                           `json:"output"`
	Center           domain.GeoPoint                  `json:"center"`
	Bounds           domain.Bounds                    `json:"bounds"`
	TrackFiles       int                              `json:"track_files"`
	RawPoints        int                              `json:"raw_points"`
	HeatmapPoints    int                              `json:"heatmap_points"`
	RestrictionLines int                              `json:"restriction_lines"`
	Records          map[domain.Bucket]int            `json:"records"`
	Ambiguities      []domain.ClassificationAmbiguity `json:"ambiguities,omitempty"`
	DatasetFromCache bool                             `json:"dataset_from_cache"`
	DatasetStale     bool                             `json:"dataset_stale"`
	DatasetError     string                           `json:"dataset_error,omitempty"`
	Skipped          []domain.SkippedFile             `json:"skipped,omitempty"`
	Duration         time.Duration                    `json:"duration_ns"`
}

// Pipeline wires the aggregator, collector, classifier and composer together
// and hands the artifact to a renderer.
type Pipeline struct {
	cfg        PipelineConfig
	aggregator *TrackAggregator
	collector  *RestrictionCollector
	roadworks  ports.RoadworkSource
	classifier *Classifier
	composer   *Composer
	renderer   ports.MapRenderer
	log        *slog.Logger
}

// NewPipeline creates a Pipeline. roadworks may be nil, in which case the
// classified layers are empty.
func NewPipeline(
	cfg PipelineConfig,
	aggregator *TrackAggregator,
	collector *RestrictionCollector,
	roadworks ports.RoadworkSource,
	classifier *Classifier,
	composer *Composer,
	renderer ports.MapRenderer,
	log *slog.Logger,
) *Pipeline {
	if log == nil {
		log = slog.Default()
	}
	return &Pipeline{
		cfg:        cfg,
		aggregator: aggregator,
		collector:  collector,
		roadworks:  roadworks,
		classifier: classifier,
		composer:   composer,
		renderer:   renderer,
		log:        log,
	}
}

// Build runs every stage except rendering. The track scan, restriction scan
// and dataset load run concurrently and are joined before classification.
func (p *Pipeline) Build(ctx context.Context) (*domain.MapArtifact, *RunReport, error) {
	start := time.Now()

	var (
		tracks       AggregateResult
		restrictions []domain.RestrictionLine
		resSkipped   []domain.SkippedFile
		load         ports.RoadworkLoad
		loadErr      error
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		tracks, err = p.aggregator.Aggregate(gctx, p.cfg.TracksDir)
		return err
	})
	g.Go(func() error {
		var err error
		restrictions, resSkipped, err = p.collector.Collect(gctx, p.cfg.RestrictionsDir)
		if err != nil {
			return fmt.Errorf("collect restrictions: %w", err)
		}
		return nil
	})
	if p.roadworks != nil {
		g.Go(func() error {
			// Dataset failures never abort the run.
			load, loadErr = p.roadworks.Load(gctx)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	report := &RunReport{
		Output:           p.cfg.Output,
		TrackFiles:       tracks.FilesParsed,
		RawPoints:        tracks.RawPoints,
		HeatmapPoints:    len(tracks.Points),
		Bounds:           domain.BoundsOf(tracks.Points),
		RestrictionLines: len(restrictions),
		Records:          make(map[domain.Bucket]int, len(domain.Buckets)),
		DatasetFromCache: load.FromCache,
		DatasetStale:     load.Stale,
		Skipped:          append(append([]domain.SkippedFile(nil), tracks.Skipped...), resSkipped...),
	}

	cls := domain.EmptyClassification()
	switch {
	case p.roadworks == nil:
		p.log.Warn("road-work dataset disabled, classified layers will be empty")
	case loadErr != nil:
		report.DatasetError = loadErr.Error()
		var fe *domain.ExternalFetchError
		if errors.As(loadErr, &fe) {
			p.log.Error("road-work dataset unavailable and no cache, classified layers will be empty", "error", loadErr)
		} else {
			p.log.Error("road-work dataset could not be loaded, classified layers will be empty", "error", loadErr)
		}
	default:
		if load.Stale {
			p.log.Warn("using stale road-work cache", "stored_at", load.StoredAt)
		}
		cls = p.classifier.Classify(load.Records)
	}
	for _, b := range domain.Buckets {
		report.Records[b] = len(cls.Bucket(b).Features)
	}
	report.Ambiguities = cls.Ambiguities

	artifact, err := p.composer.Compose(tracks.Points, cls, restrictions)
	if err != nil {
		return nil, nil, err
	}
	report.Center = artifact.Center
	report.Duration = time.Since(start)
	return artifact, report, nil
}

// Run builds the artifact and saves it to the configured output path.
func (p *Pipeline) Run(ctx context.Context) (*domain.MapArtifact, *RunReport, error) {
	start := time.Now()
	artifact, report, err := p.Build(ctx)
	if err != nil {
		return nil, nil, err
	}

	renderStart := time.Now()
	if err := p.renderer.Save(ctx, artifact, p.cfg.Output); err != nil {
		return nil, nil, fmt.Errorf("save map: %w", err)
	}
	metrics.RenderDuration.Observe(time.Since(renderStart).Seconds())

	report.Duration = time.Since(start)
	p.log.Info("map saved",
		"output", p.cfg.Output,
		"layers", len(artifact.Layers),
		"heatmap_points", report.HeatmapPoints,
		"restriction_lines", report.RestrictionLines,
		"duration", report.Duration.String(),
	)
	return artifact, report, nil
}
