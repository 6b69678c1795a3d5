package domain

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// RoadworkAttributes is the attribute bag of a municipal road-work record.
type RoadworkAttributes struct {
	WorksPlace     string `json:"WorksPlace"`
	WorkYear       int    `json:"WorkYear"`
	AdmArea        string `json:"AdmArea"`
	District       string `json:"District"`
	WorksBeginDate string `json:"WorksBeginDate"`
	PlannedEndDate string `json:"PlannedEndDate"`
	WorksType      string `json:"WorksType"`
	WorksStatus    string `json:"WorksStatus"`
	WorkReason     string `json:"WorkReason"`
	Customer       string `json:"Customer"`
	Contractor     string `json:"Contractor"`
}

// RoadworkRecord is one externally sourced road-work entry keyed by a stable id.
type RoadworkRecord struct {
	GlobalID   int64
	Geometry   orb.Geometry
	Attributes RoadworkAttributes
}

// Bucket is one of the three classification outcomes.
type Bucket string

const (
	BucketPlanned     Bucket = "planned"
	BucketNewPavement Bucket = "new_pavement"
	BucketDegraded    Bucket = "degraded"
)

// Buckets lists every bucket in output order.
var Buckets = []Bucket{BucketPlanned, BucketNewPavement, BucketDegraded}

// ClassificationTables are the id lookups driving classification.
// Degraded maps an id to a human-readable cause/date label.
type ClassificationTables struct {
	NewIDs   map[int64]struct{}
	Degraded map[int64]string
}

// NewClassificationTables builds tables from plain id lists.
func NewClassificationTables(newIDs []int64, degraded map[int64]string) ClassificationTables {
	t := ClassificationTables{
		NewIDs:   make(map[int64]struct{}, len(newIDs)),
		Degraded: make(map[int64]string, len(degraded)),
	}
	for _, id := range newIDs {
		t.NewIDs[id] = struct{}{}
	}
	for id, label := range degraded {
		t.Degraded[id] = label
	}
	return t
}

// Ambiguous returns every id present in both tables.
func (t ClassificationTables) Ambiguous() []ClassificationAmbiguity {
	var out []ClassificationAmbiguity
	for id := range t.NewIDs {
		if _, ok := t.Degraded[id]; ok {
			out = append(out, ClassificationAmbiguity{GlobalID: id})
		}
	}
	return out
}

// Classification is the partition of a record set into the three buckets.
type Classification struct {
	Planned     *geojson.FeatureCollection
	NewPavement *geojson.FeatureCollection
	Degraded    *geojson.FeatureCollection
	Ambiguities []ClassificationAmbiguity
}

// EmptyClassification returns a classification with three empty collections.
func EmptyClassification() Classification {
	return Classification{
		Planned:     geojson.NewFeatureCollection(),
		NewPavement: geojson.NewFeatureCollection(),
		Degraded:    geojson.NewFeatureCollection(),
	}
}

// Bucket returns the collection for b, or nil for an unknown bucket.
func (c Classification) Bucket(b Bucket) *geojson.FeatureCollection {
	switch b {
	case BucketPlanned:
		return c.Planned
	case BucketNewPavement:
		return c.NewPavement
	case BucketDegraded:
		return c.Degraded
	default:
		return nil
	}
}

// Total counts the features across all buckets.
func (c Classification) Total() int {
	n := 0
	for _, b := range Buckets {
		if fc := c.Bucket(b); fc != nil {
			n += len(fc.Features)
		}
	}
	return n
}
