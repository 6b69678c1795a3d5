package domain

import "github.com/paulmach/orb/geojson"

// LayerKind identifies how a layer is rendered.
type LayerKind string

const (
	LayerTiles              LayerKind = "tiles"
	LayerHeatmap            LayerKind = "heatmap"
	LayerGeometryCollection LayerKind = "geometry_collection"
	LayerPolylineSet        LayerKind = "polyline_set"
	LayerControl            LayerKind = "control"
)

// GradientStop is one color stop of a heatmap gradient.
type GradientStop struct {
	Offset float64 `json:"offset"`
	Color  string  `json:"color"`
}

// Style carries the visual parameters of a layer. Unused fields stay zero.
type Style struct {
	Color     string  `json:"color,omitempty"`
	FillColor string  `json:"fill_color,omitempty"`
	Weight    float64 `json:"weight,omitempty"`
	Opacity   float64 `json:"opacity,omitempty"`
	DashArray string  `json:"dash_array,omitempty"`

	// TooltipField names the feature property shown on hover;
	// TooltipFallback is used when that property is empty.
	TooltipField    string `json:"tooltip_field,omitempty"`
	TooltipFallback string `json:"tooltip_fallback,omitempty"`

	Radius   float64        `json:"radius,omitempty"`
	Blur     float64        `json:"blur,omitempty"`
	Gradient []GradientStop `json:"gradient,omitempty"`
}

// Polyline is a single styled path within a polyline set.
type Polyline struct {
	Label        string     `json:"label"`
	Tooltip      string     `json:"tooltip"`
	Color        string     `json:"color"`
	LengthMeters float64    `json:"length_m"`
	Points       []GeoPoint `json:"points"`
}

// Layer is one renderable unit of the map. Payload fields are populated
// according to Kind.
type Layer struct {
	Kind  LayerKind `json:"kind"`
	Name  string    `json:"name"`
	Style Style     `json:"style"`

	Points    []GeoPoint                 `json:"-"`
	Features  *geojson.FeatureCollection `json:"-"`
	Polylines []Polyline                 `json:"-"`
}

// Size returns the number of payload elements the layer carries.
func (l Layer) Size() int {
	switch l.Kind {
	case LayerHeatmap:
		return len(l.Points)
	case LayerGeometryCollection:
		if l.Features == nil {
			return 0
		}
		return len(l.Features.Features)
	case LayerPolylineSet:
		return len(l.Polylines)
	default:
		return 0
	}
}

// MapArtifact is the fully composed map, ready for rendering.
type MapArtifact struct {
	Center GeoPoint `json:"center"`
	Zoom   int      `json:"zoom"`
	Tiles  string   `json:"tiles"`
	Layers []Layer  `json:"layers"`
}

// Layer returns the first layer of the given kind and name.
func (m *MapArtifact) Layer(kind LayerKind, name string) (Layer, bool) {
	for _, l := range m.Layers {
		if l.Kind == kind && (name == "" || l.Name == name) {
			return l, true
		}
	}
	return Layer{}, false
}
