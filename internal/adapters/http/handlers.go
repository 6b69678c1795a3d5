package http

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/gofiber/fiber/v2"

	"github.com/Andrey-Khohlov/rollermap/internal/core/domain"
	"github.com/Andrey-Khohlov/rollermap/internal/core/usecases"
)

// LayerSummary describes one layer of the served artifact.
type LayerSummary struct {
	Index int              `json:"index"`
	Kind  domain.LayerKind `json:"kind"`
	Name  string           `json:"name"`
	Size  int              `json:"size"`
	Style domain.Style     `json:"style"`
}

// MapHandler serves the rendered HTML document. The body never changes, so
// the ETag is computed once.
func MapHandler(deps *Dependencies) fiber.Handler {
	h := sha256.Sum256(deps.HTML)
	etag := `"` + hex.EncodeToString(h[:8]) + `"`

	return func(c *fiber.Ctx) error {
		if len(deps.HTML) == 0 {
			return errNotFound(c, "map has not been rendered")
		}
		c.Set("ETag", etag)
		if c.Get("If-None-Match") == etag {
			return c.SendStatus(fiber.StatusNotModified)
		}
		c.Set("Cache-Control", "no-cache")
		c.Type("html", "utf-8")
		return c.Send(deps.HTML)
	}
}

// LayersHandler lists the artifact layers in draw order.
func LayersHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if deps.Artifact == nil {
			return errNotFound(c, "map has not been built")
		}
		layers := make([]LayerSummary, 0, len(deps.Artifact.Layers))
		for i, l := range deps.Artifact.Layers {
			layers = append(layers, LayerSummary{Index: i, Kind: l.Kind, Name: l.Name, Size: l.Size(), Style: l.Style})
		}
		return c.JSON(fiber.Map{
			"center": deps.Artifact.Center,
			"zoom":   deps.Artifact.Zoom,
			"tiles":  deps.Artifact.Tiles,
			"layers": layers,
		})
	}
}

// RoadworksHandler returns one classification bucket as GeoJSON.
func RoadworksHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if deps.Artifact == nil {
			return errNotFound(c, "map has not been built")
		}
		bucket := domain.Bucket(c.Params("bucket"))
		name, ok := usecases.BucketLayerName(bucket)
		if !ok {
			return errNotFound(c, "unknown bucket "+string(bucket))
		}
		layer, ok := deps.Artifact.Layer(domain.LayerGeometryCollection, name)
		if !ok || layer.Features == nil {
			return errNotFound(c, "no layer for bucket "+string(bucket))
		}
		body, err := layer.Features.MarshalJSON()
		if err != nil {
			return errInternal(c, err.Error())
		}
		c.Set(fiber.HeaderContentType, "application/geo+json")
		return c.Send(body)
	}
}

// ReportHandler returns the summary of the run that built the artifact.
func ReportHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if deps.Report == nil {
			return errNotFound(c, "no run report")
		}
		return c.JSON(deps.Report)
	}
}
