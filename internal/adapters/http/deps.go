package http

import (
	"context"

	"github.com/Andrey-Khohlov/rollermap/internal/core/domain"
	"github.com/Andrey-Khohlov/rollermap/internal/core/usecases"
)

// Pinger is implemented by cache backends that can report connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Dependencies holds everything the preview handlers serve. The artifact is
// built once at startup and never mutated.
type Dependencies struct {
	Artifact *domain.MapArtifact
	Report   *usecases.RunReport
	HTML     []byte
	Cache    Pinger
	Version  string
}
