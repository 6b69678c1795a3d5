package domain_test

import (
	"errors"
	"io"
	"math"
	"strings"
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/Andrey-Khohlov/rollermap/internal/core/domain"
)

func TestGeoPoint_Validate(t *testing.T) {
	tests := []struct {
		name    string
		p       domain.GeoPoint
		wantErr bool
	}{
		{"origin", domain.GeoPoint{}, false},
		{"moscow", domain.GeoPoint{Lat: 55.75, Lon: 37.62}, false},
		{"poles", domain.GeoPoint{Lat: -90, Lon: 180}, false},
		{"lat high", domain.GeoPoint{Lat: 90.1, Lon: 0}, true},
		{"lon low", domain.GeoPoint{Lat: 0, Lon: -180.5}, true},
		{"lat NaN", domain.GeoPoint{Lat: math.NaN(), Lon: 37.6}, true},
		{"lon NaN", domain.GeoPoint{Lat: 55.7, Lon: math.NaN()}, true},
		{"lat +Inf", domain.GeoPoint{Lat: math.Inf(1), Lon: 0}, true},
		{"lon -Inf", domain.GeoPoint{Lat: 0, Lon: math.Inf(-1)}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.p.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestRestrictionLine_LengthMeters(t *testing.T) {
	l := domain.RestrictionLine{Points: []domain.GeoPoint{{Lat: 0, Lon: 0}, {Lat: 0, Lon: 1}, {Lat: 0, Lon: 2}}}
	got := l.LengthMeters()
	// One degree of longitude at the equator is about 111.2 km.
	if got < 222000 || got > 223000 {
		t.Errorf("expected ~222.4 km, got %f", got)
	}
	if (domain.RestrictionLine{Points: []domain.GeoPoint{{Lat: 1, Lon: 1}}}).LengthMeters() != 0 {
		t.Error("single-point line should have zero length")
	}
}

func TestBoundsOf(t *testing.T) {
	b := domain.BoundsOf([]domain.GeoPoint{{Lat: 2, Lon: -1}, {Lat: -3, Lon: 4}, {Lat: 1, Lon: 0}})
	want := domain.Bounds{MinLat: -3, MinLon: -1, MaxLat: 2, MaxLon: 4}
	if b != want {
		t.Errorf("expected %+v, got %+v", want, b)
	}
	if domain.BoundsOf(nil) != (domain.Bounds{}) {
		t.Error("expected zero bounds for no points")
	}
}

func TestClassificationTables_Ambiguous(t *testing.T) {
	tables := domain.NewClassificationTables([]int64{1, 2, 3}, map[int64]string{3: "x", 4: "y"})
	amb := tables.Ambiguous()
	if len(amb) != 1 || amb[0].GlobalID != 3 {
		t.Errorf("expected ambiguity for 3, got %v", amb)
	}
	if !strings.Contains(amb[0].Error(), "3") {
		t.Errorf("unexpected message %q", amb[0].Error())
	}
}

func TestClassification_Total(t *testing.T) {
	c := domain.EmptyClassification()
	c.Planned.Append(geojson.NewFeature(orb.Point{1, 1}))
	c.Degraded.Append(geojson.NewFeature(orb.Point{2, 2}))
	if c.Total() != 2 {
		t.Errorf("expected 2, got %d", c.Total())
	}
	if c.Bucket("other") != nil {
		t.Error("unknown bucket should be nil")
	}
}

func TestLayer_Size(t *testing.T) {
	fc := geojson.NewFeatureCollection()
	fc.Append(geojson.NewFeature(orb.Point{0, 0}))

	tests := []struct {
		layer domain.Layer
		want  int
	}{
		{domain.Layer{Kind: domain.LayerHeatmap, Points: make([]domain.GeoPoint, 3)}, 3},
		{domain.Layer{Kind: domain.LayerGeometryCollection, Features: fc}, 1},
		{domain.Layer{Kind: domain.LayerGeometryCollection}, 0},
		{domain.Layer{Kind: domain.LayerPolylineSet, Polylines: make([]domain.Polyline, 2)}, 2},
		{domain.Layer{Kind: domain.LayerTiles}, 0},
	}
	for _, tt := range tests {
		if got := tt.layer.Size(); got != tt.want {
			t.Errorf("%s: expected %d, got %d", tt.layer.Kind, tt.want, got)
		}
	}
}

func TestErrors_Unwrap(t *testing.T) {
	pe := &domain.ParseError{Path: "a.gpx", Err: io.ErrUnexpectedEOF}
	if !errors.Is(pe, io.ErrUnexpectedEOF) {
		t.Error("ParseError should unwrap")
	}
	fe := &domain.ExternalFetchError{URL: "https://example.test", StatusCode: 502}
	if !strings.Contains(fe.Error(), "502") {
		t.Errorf("unexpected message %q", fe.Error())
	}
	if (&domain.EmptyInputError{Dir: "tracks"}).Error() != "no track points found in tracks" {
		t.Error("unexpected EmptyInputError message")
	}
}

func TestParseMode_String(t *testing.T) {
	if domain.ModeTrack.String() != "track" || domain.ModeRestriction.String() != "restriction" {
		t.Error("unexpected mode names")
	}
}
