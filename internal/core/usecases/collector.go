package usecases

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/Andrey-Khohlov/rollermap/internal/core/domain"
	"github.com/Andrey-Khohlov/rollermap/internal/core/ports"
	"github.com/Andrey-Khohlov/rollermap/internal/pkg/metrics"
)

// RestrictionCollector loads hand-authored restriction routes from a
// directory. No decimation is applied.
type RestrictionCollector struct {
	lister ports.DirectoryLister
	parser ports.GeometryParser
	log    *slog.Logger
}

// NewRestrictionCollector creates a RestrictionCollector.
func NewRestrictionCollector(lister ports.DirectoryLister, parser ports.GeometryParser, log *slog.Logger) *RestrictionCollector {
	if log == nil {
		log = slog.Default()
	}
	return &RestrictionCollector{lister: lister, parser: parser, log: log}
}

// Collect returns every route of every restriction file in dir. Lines
// without their own name are labeled with the file's base name. A missing
// directory yields no lines.
func (c *RestrictionCollector) Collect(ctx context.Context, dir string) ([]domain.RestrictionLine, []domain.SkippedFile, error) {
	files, err := trackFiles(ctx, c.lister, dir)
	if errors.Is(err, fs.ErrNotExist) {
		c.log.Info("no restrictions directory", "dir", dir)
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, err
	}

	var lines []domain.RestrictionLine
	var skipped []domain.SkippedFile
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}
		parsed, err := c.parser.Parse(f.Path, domain.ModeRestriction)
		if err != nil {
			skipped = append(skipped, domain.SkippedFile{Path: f.Path, Error: err.Error()})
			metrics.ParseErrors.WithLabelValues(domain.ModeRestriction.String()).Inc()
			c.log.Warn("skipping unreadable restriction file", "path", f.Path, "error", err)
			continue
		}
		metrics.FilesParsed.WithLabelValues(domain.ModeRestriction.String()).Inc()

		label := fileLabel(f.Name)
		for _, l := range parsed.Lines {
			if strings.TrimSpace(l.Label) == "" {
				l.Label = label
			}
			lines = append(lines, l)
		}
	}

	c.log.Info("restrictions collected", "dir", dir, "files", len(files)-len(skipped), "lines", len(lines), "skipped", len(skipped))
	return lines, skipped, nil
}

// fileLabel strips the extension from a file name.
func fileLabel(name string) string {
	base := filepath.Base(name)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
