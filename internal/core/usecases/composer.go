package usecases

import (
	"fmt"

	"github.com/paulmach/orb/geojson"

	"github.com/Andrey-Khohlov/rollermap/internal/core/domain"
)

// Layer names, in draw order.
const (
	LayerNameTiles        = "base"
	LayerNamePlanned      = "Planned road works"
	LayerNameNewPavement  = "New pavement"
	LayerNameDegraded     = "Degraded pavement"
	LayerNameRestrictions = "Restrictions"
	LayerNameHeatmap      = "Ride intensity"
	LayerNameLocate       = "locate"
)

const (
	DefaultZoom  = 12
	DefaultTiles = "CartoDB Positron"
)

// RestrictionPalette is cycled by index across restriction lines.
var RestrictionPalette = []string{"red", "darkred", "purple", "orange"}

var heatmapStyle = domain.Style{
	Radius: 3,
	Blur:   2,
	Gradient: []domain.GradientStop{
		{Offset: 0.4, Color: "blue"},
		{Offset: 0.9, Color: "yellow"},
		{Offset: 1, Color: "red"},
	},
}

var bucketStyles = map[domain.Bucket]domain.Style{
	domain.BucketPlanned: {
		Color: "#f39c12", FillColor: "#f39c12", Weight: 3, Opacity: 0.6,
		TooltipField: PropLabel, TooltipFallback: PropWorksPlace,
	},
	domain.BucketNewPavement: {
		Color: "#27ae60", FillColor: "#27ae60", Weight: 3, Opacity: 0.6,
		TooltipField: PropLabel, TooltipFallback: PropWorksPlace,
	},
	domain.BucketDegraded: {
		Color: "#c0392b", FillColor: "#c0392b", Weight: 4, Opacity: 0.8,
		TooltipField: PropLabel, TooltipFallback: PropWorksPlace,
	},
}

var restrictionStyle = domain.Style{
	Weight:    4,
	Opacity:   0.8,
	DashArray: "10, 5",
}

// Composer assembles pipeline outputs into a MapArtifact.
type Composer struct {
	zoom  int
	tiles string
}

// NewComposer creates a Composer. Zero values fall back to DefaultZoom and
// DefaultTiles.
func NewComposer(zoom int, tiles string) *Composer {
	if zoom <= 0 {
		zoom = DefaultZoom
	}
	if tiles == "" {
		tiles = DefaultTiles
	}
	return &Composer{zoom: zoom, tiles: tiles}
}

// Centroid returns the arithmetic mean of pts.
func Centroid(pts []domain.GeoPoint) (domain.GeoPoint, error) {
	if len(pts) == 0 {
		return domain.GeoPoint{}, &domain.EmptyInputError{}
	}
	var lat, lon float64
	for _, p := range pts {
		lat += p.Lat
		lon += p.Lon
	}
	n := float64(len(pts))
	return domain.GeoPoint{Lat: lat / n, Lon: lon / n}, nil
}

// Compose builds the artifact. Layers are ordered tiles, planned,
// new pavement, degraded, restrictions, heatmap, locate control.
func (c *Composer) Compose(points []domain.GeoPoint, cls domain.Classification, restrictions []domain.RestrictionLine) (*domain.MapArtifact, error) {
	center, err := Centroid(points)
	if err != nil {
		return nil, err
	}

	layers := []domain.Layer{
		{Kind: domain.LayerTiles, Name: LayerNameTiles},
		bucketLayer(domain.BucketPlanned, cls.Planned),
		bucketLayer(domain.BucketNewPavement, cls.NewPavement),
		bucketLayer(domain.BucketDegraded, cls.Degraded),
		{
			Kind:      domain.LayerPolylineSet,
			Name:      LayerNameRestrictions,
			Style:     restrictionStyle,
			Polylines: restrictionPolylines(restrictions),
		},
		{
			Kind:   domain.LayerHeatmap,
			Name:   LayerNameHeatmap,
			Style:  heatmapStyle,
			Points: append([]domain.GeoPoint(nil), points...),
		},
		{Kind: domain.LayerControl, Name: LayerNameLocate},
	}

	return &domain.MapArtifact{
		Center: center,
		Zoom:   c.zoom,
		Tiles:  c.tiles,
		Layers: layers,
	}, nil
}

// BucketLayerName returns the layer name used for bucket b.
func BucketLayerName(b domain.Bucket) (string, bool) {
	switch b {
	case domain.BucketPlanned:
		return LayerNamePlanned, true
	case domain.BucketNewPavement:
		return LayerNameNewPavement, true
	case domain.BucketDegraded:
		return LayerNameDegraded, true
	default:
		return "", false
	}
}

func bucketLayer(b domain.Bucket, fc *geojson.FeatureCollection) domain.Layer {
	name, _ := BucketLayerName(b)
	if fc == nil {
		fc = geojson.NewFeatureCollection()
	}
	return domain.Layer{
		Kind:     domain.LayerGeometryCollection,
		Name:     name,
		Style:    bucketStyles[b],
		Features: fc,
	}
}

func restrictionPolylines(lines []domain.RestrictionLine) []domain.Polyline {
	out := make([]domain.Polyline, 0, len(lines))
	for i, l := range lines {
		out = append(out, domain.Polyline{
			Label:        l.Label,
			Tooltip:      fmt.Sprintf("Restriction %s", l.Label),
			Color:        RestrictionPalette[i%len(RestrictionPalette)],
			LengthMeters: l.LengthMeters(),
			Points:       append([]domain.GeoPoint(nil), l.Points...),
		})
	}
	return out
}
