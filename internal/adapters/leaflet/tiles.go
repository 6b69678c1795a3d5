package leaflet

import (
	"fmt"
	"strings"
)

// TileStyle is a base-map tile source.
type TileStyle struct {
	URL         string `json:"url"`
	Attribution string `json:"attribution"`
}

const osmAttribution = `&copy; <a href="https://www.openstreetmap.org/copyright">OpenStreetMap</a> contributors`

var tileStyles = map[string]TileStyle{
	"cartodb positron": {
		URL:         "https://{s}.basemaps.cartocdn.com/light_all/{z}/{x}/{y}{r}.png",
		Attribution: osmAttribution + ` &copy; <a href="https://carto.com/attributions">CARTO</a>`,
	},
	"cartodb dark_matter": {
		URL:         "https://{s}.basemaps.cartocdn.com/dark_all/{z}/{x}/{y}{r}.png",
		Attribution: osmAttribution + ` &copy; <a href="https://carto.com/attributions">CARTO</a>`,
	},
	"openstreetmap": {
		URL:         "https://tile.openstreetmap.org/{z}/{x}/{y}.png",
		Attribution: osmAttribution,
	},
}

// ResolveTiles maps a named style (case-insensitive) to its tile source. A
// value containing {z} is taken as a raw URL template.
func ResolveTiles(name string) (TileStyle, error) {
	if t, ok := tileStyles[strings.ToLower(strings.TrimSpace(name))]; ok {
		return t, nil
	}
	if strings.Contains(name, "{z}") {
		return TileStyle{URL: name}, nil
	}
	return TileStyle{}, fmt.Errorf("unknown tile style %q", name)
}
