package export

import (
	"fmt"
	"io"

	"github.com/venicegeo/geojson-go/geojson"

	"github.com/venicegeo/bf-s2reader/model"
)

// WriteGeoJSON writes a table fragment as a feature collection
func WriteGeoJSON(w io.Writer, table *geojson.FeatureCollection) error {
	if table == nil {
		return fmt.Errorf("%w: no table to export", model.ErrInvalidState)
	}
	if _, err := io.WriteString(w, table.String()); err != nil {
		return fmt.Errorf("write feature collection: %w", err)
	}
	return nil
}
