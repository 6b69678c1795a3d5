package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/tdewolff/argp"

	"github.com/Andrey-Khohlov/rollermap/internal/core/domain"
	"github.com/Andrey-Khohlov/rollermap/internal/pkg/config"
	"github.com/Andrey-Khohlov/rollermap/internal/pkg/logging"
	"github.com/Andrey-Khohlov/rollermap/internal/pkg/metrics"
)

var version = "dev"

// Build renders the map once and exits.
type Build struct {
	Config string `short:"c" desc:"Config file (default: ./config.yaml or ./configs/config.yaml)"`
	Tracks string `short:"t" desc:"Tracks directory, overrides paths.tracks_dir"`
	Output string `short:"o" desc:"Output HTML file, overrides paths.output"`
}

// Serve renders the map and serves it with a preview API.
type Serve struct {
	Config string `short:"c" desc:"Config file (default: ./config.yaml or ./configs/config.yaml)"`
	Tracks string `short:"t" desc:"Tracks directory, overrides paths.tracks_dir"`
	Output string `short:"o" desc:"Output HTML file, overrides paths.output"`
	Port   int    `short:"p" default:"0" desc:"Listen port, overrides server.port"`
}

func main() {
	root := argp.NewCmd(&Build{}, "Ride heatmap with road-work and restriction layers")
	root.AddCmd(&Serve{}, "serve", "Build the map and serve it over HTTP")
	root.Parse()
	root.PrintHelp()
}

func (cmd *Build) Run() error {
	cfg, log, err := setup(cmd.Config, cmd.Tracks, cmd.Output)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := newApp(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer app.Close()

	_, report, err := app.pipeline.Run(ctx)
	if err != nil {
		app.Close()
		return fatal(log, err)
	}
	if err := metrics.WriteTextfile(cfg.Metrics.Textfile); err != nil {
		log.Warn("metrics textfile write failed", "path", cfg.Metrics.Textfile, "error", err)
	}
	fmt.Printf("Map saved to %s\n", report.Output)
	return nil
}

func (cmd *Serve) Run() error {
	cfg, log, err := setup(cmd.Config, cmd.Tracks, cmd.Output)
	if err != nil {
		return err
	}
	if cmd.Port > 0 {
		cfg.Server.Port = cmd.Port
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := newApp(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer app.Close()

	if err := app.serve(ctx, cfg); err != nil {
		app.Close()
		return fatal(log, err)
	}
	return nil
}

func setup(configFile, tracks, output string) (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	if tracks != "" {
		cfg.Paths.TracksDir = tracks
	}
	if output != "" {
		cfg.Paths.Output = output
	}
	log := logging.Setup(cfg.Log.Level, cfg.Log.Format)
	return cfg, log, nil
}

// fatal logs a user-facing message for pipeline-level failures.
func fatal(log *slog.Logger, err error) error {
	var empty *domain.EmptyInputError
	if errors.As(err, &empty) {
		log.Error("no tracks found to build the map from", "error", err)
	} else {
		log.Error("map build failed", "error", err)
	}
	os.Exit(1)
	return err
}
