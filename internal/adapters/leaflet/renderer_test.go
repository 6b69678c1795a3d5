package leaflet_test

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/paulmach/orb"
	"github.com/spf13/afero"

	"github.com/Andrey-Khohlov/rollermap/internal/adapters/leaflet"
	"github.com/Andrey-Khohlov/rollermap/internal/core/domain"
	"github.com/Andrey-Khohlov/rollermap/internal/core/usecases"
)

func artifact(t *testing.T) *domain.MapArtifact {
	t.Helper()
	tables := domain.NewClassificationTables([]int64{2}, map[int64]string{3: "cracks"})
	cls := usecases.NewClassifier(tables, nil).Classify([]domain.RoadworkRecord{
		{GlobalID: 1, Geometry: orb.LineString{{37.6, 55.7}, {37.61, 55.71}}, Attributes: domain.RoadworkAttributes{WorksPlace: "Tverskaya"}},
		{GlobalID: 2, Geometry: orb.Point{37.62, 55.72}},
		{GlobalID: 3, Geometry: orb.LineString{{37.63, 55.73}, {37.64, 55.74}}},
	})
	lines := []domain.RestrictionLine{
		{Label: "Embankment", Points: []domain.GeoPoint{{Lat: 55.74, Lon: 37.61}, {Lat: 55.75, Lon: 37.62}}},
	}
	pts := []domain.GeoPoint{{Lat: 55.70, Lon: 37.60}, {Lat: 55.72, Lon: 37.62}}

	a, err := usecases.NewComposer(12, "CartoDB Positron").Compose(pts, cls, lines)
	if err != nil {
		t.Fatalf("compose: %v", err)
	}
	return a
}

func TestRenderer_Render(t *testing.T) {
	r := leaflet.New(afero.NewMemMapFs(), "Rides", false)

	var buf bytes.Buffer
	if err := r.Render(context.Background(), artifact(t), &buf); err != nil {
		t.Fatalf("render: %v", err)
	}
	out := buf.String()

	for _, want := range []string{
		"<title>Rides</title>",
		"leaflet-heat.js",
		"L.Control.Locate",
		"basemaps.cartocdn.com/light_all",
		`"kind":"heatmap"`,
		`"kind":"polyline_set"`,
		`"dash_array":"10, 5"`,
		"Restriction Embankment",
		"Planned road works (1)",
		"Degraded pavement (1)",
		"cracks",
		"km)",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q", want)
		}
	}
}

func TestRenderer_Minify(t *testing.T) {
	a := artifact(t)

	var plain, small bytes.Buffer
	if err := leaflet.New(nil, "", false).Render(context.Background(), a, &plain); err != nil {
		t.Fatalf("render: %v", err)
	}
	if err := leaflet.New(nil, "", true).Render(context.Background(), a, &small); err != nil {
		t.Fatalf("render minified: %v", err)
	}
	if small.Len() >= plain.Len() {
		t.Errorf("expected minified output to be smaller: %d >= %d", small.Len(), plain.Len())
	}
	for _, want := range []string{"L.heatLayer", "Ride intensity", "Restriction Embankment"} {
		if !strings.Contains(small.String(), want) {
			t.Errorf("minified output missing %q", want)
		}
	}
}

func TestRenderer_Save(t *testing.T) {
	fs := afero.NewMemMapFs()
	r := leaflet.New(fs, "", true)

	if err := r.Save(context.Background(), artifact(t), "out/combined_map.html"); err != nil {
		t.Fatalf("save: %v", err)
	}
	data, err := afero.ReadFile(fs, "out/combined_map.html")
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if !bytes.Contains(data, []byte("leaflet")) {
		t.Error("saved document looks empty")
	}
	if ok, _ := afero.Exists(fs, "out/combined_map.html.tmp"); ok {
		t.Error("temporary file left behind")
	}
}

func TestRenderer_UnknownTiles(t *testing.T) {
	a := artifact(t)
	a.Tiles = "Stamen Nowhere"

	var buf bytes.Buffer
	if err := leaflet.New(nil, "", false).Render(context.Background(), a, &buf); err == nil {
		t.Fatal("expected error for unknown tiles")
	}
}

func TestResolveTiles(t *testing.T) {
	tests := []struct {
		name    string
		wantErr bool
	}{
		{"CartoDB Positron", false},
		{"cartodb positron", false},
		{"OpenStreetMap", false},
		{"https://tiles.example.test/{z}/{x}/{y}.png", false},
		{"nope", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts, err := leaflet.ResolveTiles(tt.name)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ResolveTiles(%q) err = %v, wantErr %v", tt.name, err, tt.wantErr)
			}
			if !tt.wantErr && ts.URL == "" {
				t.Error("expected a tile URL")
			}
		})
	}
}
