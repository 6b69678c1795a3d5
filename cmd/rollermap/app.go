package main

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/spf13/afero"

	"github.com/Andrey-Khohlov/rollermap/internal/adapters/filecache"
	"github.com/Andrey-Khohlov/rollermap/internal/adapters/fsdir"
	"github.com/Andrey-Khohlov/rollermap/internal/adapters/gpx"
	httpadapter "github.com/Andrey-Khohlov/rollermap/internal/adapters/http"
	"github.com/Andrey-Khohlov/rollermap/internal/adapters/leaflet"
	"github.com/Andrey-Khohlov/rollermap/internal/adapters/roadworks"
	"github.com/Andrey-Khohlov/rollermap/internal/adapters/valkey"
	"github.com/Andrey-Khohlov/rollermap/internal/core/ports"
	"github.com/Andrey-Khohlov/rollermap/internal/core/usecases"
	"github.com/Andrey-Khohlov/rollermap/internal/pkg/config"
)

// app holds the wired pipeline and the resources it owns.
type app struct {
	pipeline *usecases.Pipeline
	renderer *leaflet.Renderer
	pinger   httpadapter.Pinger
	log      *slog.Logger
	closers  []func()
}

func newApp(ctx context.Context, cfg *config.Config, log *slog.Logger) (*app, error) {
	a := &app{log: log}
	fs := afero.NewOsFs()

	lister := fsdir.New(fs)
	parser := gpx.NewParser(fs)

	tables, err := cfg.Classification.Tables()
	if err != nil {
		return nil, err
	}
	for _, amb := range tables.Ambiguous() {
		log.Warn("road-work id listed as both new and degraded, degraded wins", "global_id", amb.GlobalID)
	}

	var source ports.RoadworkSource
	if cfg.Roadworks.URL != "" {
		cache, err := a.datasetCache(ctx, cfg, fs)
		if err != nil {
			return nil, err
		}
		source = roadworks.New(roadworks.Config{
			URL:      cfg.Roadworks.URL,
			APIKey:   cfg.Roadworks.APIKey,
			Filter:   cfg.Roadworks.Filter,
			CacheTTL: cfg.Roadworks.CacheTTL,
			Timeout:  cfg.Roadworks.Timeout,
		}, cache, log.With("component", "roadworks"))
	} else {
		log.Info("roadworks.url not set, road-work layers will be empty")
	}

	if _, err := leaflet.ResolveTiles(cfg.Render.Tiles); err != nil {
		return nil, err
	}
	a.renderer = leaflet.New(fs, cfg.Render.Title, cfg.Render.Minify)

	a.pipeline = usecases.NewPipeline(
		usecases.PipelineConfig{
			TracksDir:       cfg.Paths.TracksDir,
			RestrictionsDir: cfg.Paths.RestrictionsDir,
			Output:          cfg.Paths.Output,
		},
		usecases.NewTrackAggregator(lister, parser, cfg.Pipeline.DecimationStride, log),
		usecases.NewRestrictionCollector(lister, parser, log),
		source,
		usecases.NewClassifier(tables, log),
		usecases.NewComposer(cfg.Render.Zoom, cfg.Render.Tiles),
		a.renderer,
		log,
	)
	return a, nil
}

// datasetCache returns nil when caching is disabled.
func (a *app) datasetCache(ctx context.Context, cfg *config.Config, fs afero.Fs) (ports.DatasetCache, error) {
	switch cfg.Cache.Backend {
	case "file":
		return filecache.New(fs, cfg.Roadworks.CachePath), nil
	case "valkey":
		cache, err := valkey.New(cfg.Valkey.Addr, cfg.Valkey.Prefix, cfg.Valkey.Retention)
		if err != nil {
			a.log.Warn("valkey unavailable, road-work cache disabled", "addr", cfg.Valkey.Addr, "error", err)
			return nil, nil
		}
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		if err := cache.Ping(pingCtx); err != nil {
			a.log.Warn("valkey ping failed", "addr", cfg.Valkey.Addr, "error", err)
		}
		a.pinger = cache
		a.closers = append(a.closers, cache.Close)
		return cache, nil
	default:
		return nil, nil
	}
}

// Close releases the resources opened by newApp.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

// serve runs the pipeline, then serves the rendered page until ctx is done.
func (a *app) serve(ctx context.Context, cfg *config.Config) error {
	artifact, report, err := a.pipeline.Run(ctx)
	if err != nil {
		return err
	}

	var page bytes.Buffer
	if err := a.renderer.Render(ctx, artifact, &page); err != nil {
		return fmt.Errorf("render preview: %w", err)
	}

	srv := fiber.New(fiber.Config{
		ReadTimeout:           time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout:          time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:             64 * 1024,
		AppName:               "Rollermap",
		DisableStartupMessage: true,
	})
	srv.Use(recover.New())

	httpadapter.SetupRoutes(srv, &httpadapter.Dependencies{
		Artifact: artifact,
		Report:   report,
		HTML:     page.Bytes(),
		Cache:    a.pinger,
		Version:  version,
	}, a.log)

	errc := make(chan error, 1)
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		a.log.Info("preview server starting", "addr", addr)
		errc <- srv.Listen(addr)
	}()

	select {
	case err := <-errc:
		return fmt.Errorf("listen: %w", err)
	case <-ctx.Done():
	}

	a.log.Info("shutdown signal received, draining connections...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.ShutdownWithContext(shutdownCtx); err != nil {
		a.log.Error("forced shutdown", "error", err)
	}
	a.log.Info("server stopped")
	return nil
}
