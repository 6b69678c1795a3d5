// Package gpx decodes GPX track logs into the domain point/line model.
package gpx

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/afero"
	gpxgo "github.com/tkrajina/gpxgo/gpx"
	"golang.org/x/net/html/charset"

	"github.com/Andrey-Khohlov/rollermap/internal/core/domain"
)

var errNotGPX = errors.New("not a GPX document")

// Parser implements ports.GeometryParser for GPX 1.0/1.1 files.
type Parser struct {
	fs afero.Fs
}

// NewParser creates a Parser reading from fs. A nil fs means the host OS
// filesystem.
func NewParser(fs afero.Fs) *Parser {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &Parser{fs: fs}
}

// Parse reads path and returns its track points (ModeTrack) or its routes
// (ModeRestriction). Elevation and timestamps are not propagated.
func (p *Parser) Parse(path string, mode domain.ParseMode) (domain.ParseResult, error) {
	data, err := afero.ReadFile(p.fs, path)
	if err != nil {
		return domain.ParseResult{}, &domain.ParseError{Path: path, Err: err}
	}
	doc, err := Decode(data)
	if err != nil {
		return domain.ParseResult{}, &domain.ParseError{Path: path, Err: err}
	}

	switch mode {
	case domain.ModeTrack:
		pts, err := trackPoints(doc)
		if err != nil {
			return domain.ParseResult{}, &domain.ParseError{Path: path, Err: err}
		}
		return domain.ParseResult{Points: pts}, nil
	case domain.ModeRestriction:
		lines, err := routeLines(doc)
		if err != nil {
			return domain.ParseResult{}, &domain.ParseError{Path: path, Err: err}
		}
		return domain.ParseResult{Lines: lines}, nil
	default:
		return domain.ParseResult{}, fmt.Errorf("unsupported parse mode %s", mode)
	}
}

// Decode parses raw GPX bytes.
func Decode(data []byte) (*gpxgo.GPX, error) {
	if !bytes.Contains(data, []byte("<gpx")) {
		return nil, errNotGPX
	}
	doc, err := gpxgo.ParseBytes(data)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, errNotGPX
	}
	if err := checkPointAttrs(data); err != nil {
		return nil, err
	}
	return doc, nil
}

// checkPointAttrs requires lat and lon on every trkpt and rtept. gpxgo
// zero-fills missing attributes, which would place points at 0.
func checkPointAttrs(data []byte) error {
	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.CharsetReader = charset.NewReaderLabel

	seen := map[string]int{}
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("scan points: %w", err)
		}
		el, ok := tok.(xml.StartElement)
		if !ok || (el.Name.Local != "trkpt" && el.Name.Local != "rtept") {
			continue
		}
		n := seen[el.Name.Local]
		seen[el.Name.Local]++

		var hasLat, hasLon bool
		for _, a := range el.Attr {
			switch a.Name.Local {
			case "lat":
				hasLat = a.Value != ""
			case "lon":
				hasLon = a.Value != ""
			}
		}
		if !hasLat {
			return fmt.Errorf("%s %d: missing lat attribute", el.Name.Local, n)
		}
		if !hasLon {
			return fmt.Errorf("%s %d: missing lon attribute", el.Name.Local, n)
		}
	}
}

func trackPoints(doc *gpxgo.GPX) ([]domain.GeoPoint, error) {
	n := 0
	for _, trk := range doc.Tracks {
		for _, seg := range trk.Segments {
			n += len(seg.Points)
		}
	}

	pts := make([]domain.GeoPoint, 0, n)
	for ti, trk := range doc.Tracks {
		for si, seg := range trk.Segments {
			for pi, wpt := range seg.Points {
				pt := domain.GeoPoint{Lat: wpt.Latitude, Lon: wpt.Longitude}
				if err := pt.Validate(); err != nil {
					return nil, fmt.Errorf("track %d segment %d point %d: %w", ti, si, pi, err)
				}
				pts = append(pts, pt)
			}
		}
	}
	return pts, nil
}

func routeLines(doc *gpxgo.GPX) ([]domain.RestrictionLine, error) {
	lines := make([]domain.RestrictionLine, 0, len(doc.Routes))
	for ri, rte := range doc.Routes {
		line := domain.RestrictionLine{
			Label:  rte.Name,
			Points: make([]domain.GeoPoint, 0, len(rte.Points)),
		}
		for pi, wpt := range rte.Points {
			pt := domain.GeoPoint{Lat: wpt.Latitude, Lon: wpt.Longitude}
			if err := pt.Validate(); err != nil {
				return nil, fmt.Errorf("route %d (%q) point %d: %w", ri, rte.Name, pi, err)
			}
			line.Points = append(line.Points, pt)
		}
		lines = append(lines, line)
	}
	return lines, nil
}
