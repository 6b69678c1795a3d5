package domain

import (
	"fmt"
	"math"

	"github.com/Andrey-Khohlov/rollermap/internal/pkg/geospatial"
)

// GeoPoint represents a geographic coordinate (WGS 84).
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Validate reports an error when the point lies outside the valid lat/lon
// range or either coordinate is not finite.
func (p GeoPoint) Validate() error {
	if math.IsNaN(p.Lat) || math.IsInf(p.Lat, 0) || math.IsNaN(p.Lon) || math.IsInf(p.Lon, 0) {
		return fmt.Errorf("coordinate (%f, %f) is not finite", p.Lat, p.Lon)
	}
	if p.Lat < -90 || p.Lat > 90 {
		return fmt.Errorf("latitude %f out of range [-90, 90]", p.Lat)
	}
	if p.Lon < -180 || p.Lon > 180 {
		return fmt.Errorf("longitude %f out of range [-180, 180]", p.Lon)
	}
	return nil
}

// RestrictionLine is a labeled route drawn as a connected path.
type RestrictionLine struct {
	Label  string     `json:"label"`
	Points []GeoPoint `json:"points"`
}

// LengthMeters returns the great-circle length of the path.
func (l RestrictionLine) LengthMeters() float64 {
	var total float64
	for i := 1; i < len(l.Points); i++ {
		a, b := l.Points[i-1], l.Points[i]
		total += geospatial.Haversine(a.Lat, a.Lon, b.Lat, b.Lon)
	}
	return total
}

// Bounds represents a geographic bounding box.
type Bounds struct {
	MinLat float64 `json:"min_lat"`
	MinLon float64 `json:"min_lon"`
	MaxLat float64 `json:"max_lat"`
	MaxLon float64 `json:"max_lon"`
}

// BoundsOf returns the bounding box of pts. The zero Bounds is returned for
// an empty slice.
func BoundsOf(pts []GeoPoint) Bounds {
	if len(pts) == 0 {
		return Bounds{}
	}
	b := Bounds{MinLat: pts[0].Lat, MinLon: pts[0].Lon, MaxLat: pts[0].Lat, MaxLon: pts[0].Lon}
	for _, p := range pts[1:] {
		b.MinLat = min(b.MinLat, p.Lat)
		b.MinLon = min(b.MinLon, p.Lon)
		b.MaxLat = max(b.MaxLat, p.Lat)
		b.MaxLon = max(b.MaxLon, p.Lon)
	}
	return b
}

// ParseMode selects how a track-log file is interpreted.
type ParseMode int

const (
	// ModeTrack flattens every track segment into one point sequence.
	ModeTrack ParseMode = iota
	// ModeRestriction yields one line per named route.
	ModeRestriction
)

func (m ParseMode) String() string {
	switch m {
	case ModeTrack:
		return "track"
	case ModeRestriction:
		return "restriction"
	default:
		return fmt.Sprintf("ParseMode(%d)", int(m))
	}
}

// ParseResult holds the output of a single file parse. Only the field
// matching the requested mode is populated.
type ParseResult struct {
	Points []GeoPoint
	Lines  []RestrictionLine
}

// SkippedFile records a source file that was dropped during ingestion.
type SkippedFile struct {
	Path  string `json:"path"`
	Error string `json:"error"`
}
