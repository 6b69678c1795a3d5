package gpx_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/spf13/afero"

	"github.com/Andrey-Khohlov/rollermap/internal/adapters/gpx"
	"github.com/Andrey-Khohlov/rollermap/internal/core/domain"
)

const twoTracks = `<?xml version="1.0" encoding="UTF-8"?>
<gpx version="1.1" creator="test" xmlns="http://www.topografix.com/GPX/1/1">
  <trk><name>morning</name>
    <trkseg>
      <trkpt lat="55.75" lon="37.61"><ele>150</ele><time>2024-05-01T08:00:00Z</time></trkpt>
      <trkpt lat="55.76" lon="37.62"><ele>151</ele></trkpt>
    </trkseg>
    <trkseg>
      <trkpt lat="55.77" lon="37.63"></trkpt>
    </trkseg>
  </trk>
  <trk><name>evening</name>
    <trkseg>
      <trkpt lat="55.78" lon="37.64"></trkpt>
      <trkpt lat="55.79" lon="37.65"></trkpt>
    </trkseg>
  </trk>
</gpx>`

const twoRoutes = `<?xml version="1.0" encoding="UTF-8"?>
<gpx version="1.1" creator="test" xmlns="http://www.topografix.com/GPX/1/1">
  <rte><name>curb north</name>
    <rtept lat="55.70" lon="37.50"></rtept>
    <rtept lat="55.71" lon="37.51"></rtept>
    <rtept lat="55.72" lon="37.49"></rtept>
  </rte>
  <rte>
    <rtept lat="55.60" lon="37.40"></rtept>
    <rtept lat="55.61" lon="37.41"></rtept>
  </rte>
</gpx>`

const badLatitude = `<?xml version="1.0" encoding="UTF-8"?>
<gpx version="1.1" creator="test" xmlns="http://www.topografix.com/GPX/1/1">
  <trk><trkseg><trkpt lat="95.0" lon="37.61"></trkpt></trkseg></trk>
</gpx>`

const nanLatitude = `<?xml version="1.0" encoding="UTF-8"?>
<gpx version="1.1" creator="test" xmlns="http://www.topografix.com/GPX/1/1">
  <trk><trkseg><trkpt lat="NaN" lon="37.6"></trkpt></trkseg></trk>
</gpx>`

const missingLat = `<?xml version="1.0" encoding="UTF-8"?>
<gpx version="1.1" creator="test" xmlns="http://www.topografix.com/GPX/1/1">
  <trk><trkseg>
    <trkpt lat="55.7" lon="37.6"></trkpt>
    <trkpt lon="37.0"></trkpt>
  </trkseg></trk>
</gpx>`

const missingRouteLon = `<?xml version="1.0" encoding="UTF-8"?>
<gpx version="1.1" creator="test" xmlns="http://www.topografix.com/GPX/1/1">
  <rte><name>curb</name><rtept lat="55.7"></rtept></rte>
</gpx>`

const emptyDoc = `<?xml version="1.0" encoding="UTF-8"?>
<gpx version="1.1" creator="test" xmlns="http://www.topografix.com/GPX/1/1"></gpx>`

func newParser(t *testing.T, files map[string]string) *gpx.Parser {
	t.Helper()
	fs := afero.NewMemMapFs()
	for name, body := range files {
		if err := afero.WriteFile(fs, name, []byte(body), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	return gpx.NewParser(fs)
}

func TestParse_TrackFlattensAllSegments(t *testing.T) {
	p := newParser(t, map[string]string{"/t/a.gpx": twoTracks})

	res, err := p.Parse("/t/a.gpx", domain.ModeTrack)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Points) != 5 {
		t.Fatalf("expected 5 points, got %d", len(res.Points))
	}
	if res.Points[0] != (domain.GeoPoint{Lat: 55.75, Lon: 37.61}) {
		t.Errorf("unexpected first point %+v", res.Points[0])
	}
	if res.Points[4] != (domain.GeoPoint{Lat: 55.79, Lon: 37.65}) {
		t.Errorf("unexpected last point %+v", res.Points[4])
	}
	if res.Lines != nil {
		t.Errorf("track mode should not produce lines")
	}
}

func TestParse_RestrictionPreservesRouteOrder(t *testing.T) {
	p := newParser(t, map[string]string{"/r/curbs.gpx": twoRoutes})

	res, err := p.Parse("/r/curbs.gpx", domain.ModeRestriction)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(res.Lines))
	}
	if res.Lines[0].Label != "curb north" {
		t.Errorf("expected route name label, got %q", res.Lines[0].Label)
	}
	if res.Lines[1].Label != "" {
		t.Errorf("unnamed route should have empty label, got %q", res.Lines[1].Label)
	}
	want := []domain.GeoPoint{{Lat: 55.70, Lon: 37.50}, {Lat: 55.71, Lon: 37.51}, {Lat: 55.72, Lon: 37.49}}
	if len(res.Lines[0].Points) != len(want) {
		t.Fatalf("expected %d points, got %d", len(want), len(res.Lines[0].Points))
	}
	for i, pt := range want {
		if res.Lines[0].Points[i] != pt {
			t.Errorf("point %d: expected %+v, got %+v", i, pt, res.Lines[0].Points[i])
		}
	}
}

func TestParse_OutOfRangeIsParseError(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"latitude 95", badLatitude},
		{"latitude NaN", nanLatitude},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newParser(t, map[string]string{"/t/bad.gpx": tt.body})

			res, err := p.Parse("/t/bad.gpx", domain.ModeTrack)
			var pe *domain.ParseError
			if !errors.As(err, &pe) {
				t.Fatalf("expected ParseError, got %v (points %v)", err, res.Points)
			}
			if pe.Path != "/t/bad.gpx" {
				t.Errorf("expected path in error, got %q", pe.Path)
			}
		})
	}
}

func TestParse_MissingCoordinateIsParseError(t *testing.T) {
	tests := []struct {
		name string
		body string
		mode domain.ParseMode
		want string
	}{
		{"track point without lat", missingLat, domain.ModeTrack, "trkpt 1: missing lat"},
		{"route point without lon", missingRouteLon, domain.ModeRestriction, "rtept 0: missing lon"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newParser(t, map[string]string{"/t/partial.gpx": tt.body})

			res, err := p.Parse("/t/partial.gpx", tt.mode)
			var pe *domain.ParseError
			if !errors.As(err, &pe) {
				t.Fatalf("expected ParseError, got %v (result %+v)", err, res)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("expected %q in error, got %v", tt.want, err)
			}
		})
	}
}

func TestParse_MalformedDocument(t *testing.T) {
	p := newParser(t, map[string]string{"/t/junk.gpx": "this is not a track log"})

	_, err := p.Parse("/t/junk.gpx", domain.ModeTrack)
	var pe *domain.ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("expected ParseError, got %v", err)
	}
}

func TestParse_MissingFile(t *testing.T) {
	p := newParser(t, nil)

	_, err := p.Parse("/nope.gpx", domain.ModeTrack)
	var pe *domain.ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("expected ParseError, got %v", err)
	}
}

func TestParse_EmptyDocumentIsNotAnError(t *testing.T) {
	p := newParser(t, map[string]string{"/t/empty.gpx": emptyDoc})

	res, err := p.Parse("/t/empty.gpx", domain.ModeTrack)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Points) != 0 {
		t.Errorf("expected no points, got %d", len(res.Points))
	}

	res, err = p.Parse("/t/empty.gpx", domain.ModeRestriction)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Lines) != 0 {
		t.Errorf("expected no lines, got %d", len(res.Lines))
	}
}
