// Package leaflet renders a composed map artifact into a self-contained
// Leaflet HTML document.
package leaflet

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"html/template"
	"io"
	"path/filepath"
	"regexp"

	"github.com/spf13/afero"
	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/css"
	"github.com/tdewolff/minify/v2/html"
	"github.com/tdewolff/minify/v2/js"

	"github.com/Andrey-Khohlov/rollermap/internal/core/domain"
)

//go:embed map.html.tmpl
var pageTemplate string

var page = template.Must(template.New("map").Funcs(template.FuncMap{
	"km": func(m float64) string { return fmt.Sprintf("%.2f km", m/1000) },
}).Parse(pageTemplate))

// Renderer implements ports.MapRenderer.
type Renderer struct {
	fs     afero.Fs
	title  string
	minify *minify.M
}

// New creates a Renderer writing to fs. A nil fs means the host OS
// filesystem. When minifyOutput is set the document is minified.
func New(fs afero.Fs, title string, minifyOutput bool) *Renderer {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	if title == "" {
		title = "Rollermap"
	}
	r := &Renderer{fs: fs, title: title}
	if minifyOutput {
		m := minify.New()
		m.AddFunc("text/css", css.Minify)
		m.AddFunc("text/html", html.Minify)
		m.AddFuncRegexp(regexp.MustCompile("^(application|text)/(x-)?(java|ecma)script$"), js.Minify)
		r.minify = m
	}
	return r
}

type docPolyline struct {
	Tooltip string       `json:"tooltip"`
	Color   string       `json:"color"`
	Points  [][2]float64 `json:"points"`
}

type docLayer struct {
	Kind      domain.LayerKind `json:"kind"`
	Name      string           `json:"name"`
	Style     domain.Style     `json:"style"`
	Points    [][2]float64     `json:"points,omitempty"`
	GeoJSON   json.RawMessage  `json:"geojson,omitempty"`
	Polylines []docPolyline    `json:"polylines,omitempty"`
}

type docData struct {
	Center [2]float64 `json:"center"`
	Zoom   int        `json:"zoom"`
	Tiles  TileStyle  `json:"tiles"`
	Layers []docLayer `json:"layers"`
}

type legendEntry struct {
	Name  string
	Color string
	Count int
}

type pageData struct {
	Title        string
	Data         template.JS
	Buckets      []legendEntry
	Gradient     []domain.GradientStop
	Restrictions []domain.Polyline
}

// Render writes the HTML document for artifact to w.
func (r *Renderer) Render(ctx context.Context, artifact *domain.MapArtifact, w io.Writer) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	pd, err := r.pageData(artifact)
	if err != nil {
		return err
	}

	if r.minify == nil {
		return page.Execute(w, pd)
	}
	var buf bytes.Buffer
	if err := page.Execute(&buf, pd); err != nil {
		return err
	}
	if err := r.minify.Minify("text/html", w, &buf); err != nil {
		return fmt.Errorf("minify: %w", err)
	}
	return nil
}

// Save renders artifact and writes it to path, replacing any existing file.
func (r *Renderer) Save(ctx context.Context, artifact *domain.MapArtifact, path string) error {
	var buf bytes.Buffer
	if err := r.Render(ctx, artifact, &buf); err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := r.fs.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}
	tmp := path + ".tmp"
	if err := afero.WriteFile(r.fs, tmp, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", tmp, err)
	}
	if err := r.fs.Rename(tmp, path); err != nil {
		return fmt.Errorf("rename %s: %w", tmp, err)
	}
	return nil
}

func (r *Renderer) pageData(a *domain.MapArtifact) (pageData, error) {
	tiles, err := ResolveTiles(a.Tiles)
	if err != nil {
		return pageData{}, err
	}

	data := docData{
		Center: [2]float64{a.Center.Lat, a.Center.Lon},
		Zoom:   a.Zoom,
		Tiles:  tiles,
		Layers: make([]docLayer, 0, len(a.Layers)),
	}
	pd := pageData{Title: r.title}

	for _, l := range a.Layers {
		dl := docLayer{Kind: l.Kind, Name: l.Name, Style: l.Style}
		switch l.Kind {
		case domain.LayerHeatmap:
			dl.Points = latLngs(l.Points)
			pd.Gradient = l.Style.Gradient
		case domain.LayerGeometryCollection:
			if l.Features != nil {
				raw, err := l.Features.MarshalJSON()
				if err != nil {
					return pageData{}, fmt.Errorf("encode layer %q: %w", l.Name, err)
				}
				dl.GeoJSON = raw
			}
			pd.Buckets = append(pd.Buckets, legendEntry{Name: l.Name, Color: l.Style.Color, Count: l.Size()})
		case domain.LayerPolylineSet:
			for _, p := range l.Polylines {
				dl.Polylines = append(dl.Polylines, docPolyline{Tooltip: p.Tooltip, Color: p.Color, Points: latLngs(p.Points)})
			}
			pd.Restrictions = l.Polylines
		}
		data.Layers = append(data.Layers, dl)
	}

	raw, err := json.Marshal(data)
	if err != nil {
		return pageData{}, fmt.Errorf("encode map data: %w", err)
	}
	pd.Data = template.JS(raw)
	return pd, nil
}

func latLngs(pts []domain.GeoPoint) [][2]float64 {
	out := make([][2]float64, len(pts))
	for i, p := range pts {
		out[i] = [2]float64{p.Lat, p.Lon}
	}
	return out
}
