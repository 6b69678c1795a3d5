package roadworks

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/paulmach/orb/geojson"

	"github.com/Andrey-Khohlov/rollermap/internal/core/domain"
)

// row is one element of the dataset response. Attributes usually sit under
// Cells; flat rows carry them at the top level.
type row struct {
	GlobalID int64           `json:"global_id"`
	Cells    json.RawMessage `json:"Cells"`
}

type cells struct {
	GlobalID int64 `json:"global_id"`
	domain.RoadworkAttributes
	GeoData *geojson.Geometry `json:"geoData"`
}

// Decode parses a raw dataset response into records.
func Decode(data []byte) ([]domain.RoadworkRecord, error) {
	var rows []json.RawMessage
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("decode road-work dataset: %w", err)
	}

	records := make([]domain.RoadworkRecord, 0, len(rows))
	for i, raw := range rows {
		var r row
		if err := json.Unmarshal(raw, &r); err != nil {
			return nil, fmt.Errorf("decode row %d: %w", i, err)
		}

		body := raw
		if len(r.Cells) > 0 && !bytes.Equal(bytes.TrimSpace(r.Cells), []byte("null")) {
			body = r.Cells
		}
		var c cells
		if err := json.Unmarshal(body, &c); err != nil {
			return nil, fmt.Errorf("decode row %d cells: %w", i, err)
		}

		rec := domain.RoadworkRecord{
			GlobalID:   r.GlobalID,
			Attributes: c.RoadworkAttributes,
		}
		if rec.GlobalID == 0 {
			rec.GlobalID = c.GlobalID
		}
		if c.GeoData != nil {
			rec.Geometry = c.GeoData.Geometry()
		}
		records = append(records, rec)
	}
	return records, nil
}
