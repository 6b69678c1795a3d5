package usecases

import (
	"log/slog"

	"github.com/paulmach/orb/geojson"

	"github.com/Andrey-Khohlov/rollermap/internal/core/domain"
	"github.com/Andrey-Khohlov/rollermap/internal/pkg/metrics"
)

// Feature property keys of a classified road-work record.
const (
	PropGlobalID       = "global_id"
	PropWorksPlace     = "works_place"
	PropWorkYear       = "work_year"
	PropAdmArea        = "adm_area"
	PropDistrict       = "district"
	PropWorksBeginDate = "works_begin_date"
	PropPlannedEndDate = "planned_end_date"
	PropWorksType      = "works_type"
	PropWorksStatus    = "works_status"
	PropWorkReason     = "work_reason"
	PropCustomer       = "customer"
	PropContractor     = "contractor"
	PropLabel          = "label"
)

// Classifier partitions road-work records into planned, new-pavement and
// degraded buckets by global_id.
type Classifier struct {
	tables domain.ClassificationTables
	log    *slog.Logger
}

// NewClassifier creates a Classifier over the given lookup tables.
func NewClassifier(tables domain.ClassificationTables, log *slog.Logger) *Classifier {
	if log == nil {
		log = slog.Default()
	}
	return &Classifier{tables: tables, log: log}
}

// Bucket returns the bucket and display label for id. The degraded table is
// consulted first, so it wins when an id is listed in both tables.
func (c *Classifier) Bucket(id int64) (domain.Bucket, string, bool) {
	_, isNew := c.tables.NewIDs[id]
	if label, ok := c.tables.Degraded[id]; ok {
		return domain.BucketDegraded, label, isNew
	}
	if isNew {
		return domain.BucketNewPavement, "", false
	}
	return domain.BucketPlanned, "", false
}

// Classify assigns every record to exactly one bucket in a single pass.
func (c *Classifier) Classify(records []domain.RoadworkRecord) domain.Classification {
	out := domain.EmptyClassification()

	for _, r := range records {
		bucket, label, ambiguous := c.Bucket(r.GlobalID)
		if ambiguous {
			amb := domain.ClassificationAmbiguity{GlobalID: r.GlobalID}
			out.Ambiguities = append(out.Ambiguities, amb)
			metrics.ClassificationAmbiguities.Inc()
			c.log.Warn("ambiguous classification resolved as degraded", "global_id", r.GlobalID)
		}
		out.Bucket(bucket).Append(toFeature(r, label))
		metrics.RecordsClassified.WithLabelValues(string(bucket)).Inc()
	}

	c.log.Info("road-work records classified",
		"total", len(records),
		string(domain.BucketPlanned), len(out.Planned.Features),
		string(domain.BucketNewPavement), len(out.NewPavement.Features),
		string(domain.BucketDegraded), len(out.Degraded.Features),
		"ambiguities", len(out.Ambiguities),
	)
	return out
}

func toFeature(r domain.RoadworkRecord, label string) *geojson.Feature {
	f := geojson.NewFeature(r.Geometry)
	f.ID = r.GlobalID
	a := r.Attributes
	f.Properties = geojson.Properties{
		PropGlobalID:       r.GlobalID,
		PropWorksPlace:     a.WorksPlace,
		PropWorkYear:       a.WorkYear,
		PropAdmArea:        a.AdmArea,
		PropDistrict:       a.District,
		PropWorksBeginDate: a.WorksBeginDate,
		PropPlannedEndDate: a.PlannedEndDate,
		PropWorksType:      a.WorksType,
		PropWorksStatus:    a.WorksStatus,
		PropWorkReason:     a.WorkReason,
		PropCustomer:       a.Customer,
		PropContractor:     a.Contractor,
	}
	if label != "" {
		f.Properties[PropLabel] = label
	}
	return f
}
