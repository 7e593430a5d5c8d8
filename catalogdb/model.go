// Package catalogdb records loaded products and their band tables in
// PostgreSQL so they can be served without reopening the container.
package catalogdb

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/venicegeo/bf-s2reader/metadata"
	"github.com/venicegeo/bf-s2reader/model"
	"github.com/venicegeo/bf-s2reader/util"
)

//ConnectionProvider is a function that can provide a database connection.
type ConnectionProvider func(util.LogContext) (*sql.DB, error)

// ProductRecord is one row of the products table
type ProductRecord struct {
	ID          string
	Tile        string
	SensingTime time.Time
	CloudCover  float64
	Spacecraft  string
	Baseline    string
	Root        string
	Footprint   [][]float64
}

// BandRecord is one row of the bands table
type BandRecord struct {
	ProductID      string
	Position       int
	Tag            string
	BandID         string
	Physical       string
	Resolution     int
	WavelengthMin  float64
	WavelengthMax  float64
	WavelengthMean float64
	ResponseStep   float64
	Response       []float64
}

// Spec turns the row back into a band table entry
func (b BandRecord) Spec() metadata.BandSpec {
	return metadata.BandSpec{
		ID:           b.BandID,
		Physical:     b.Physical,
		Tag:          b.Tag,
		Resolution:   b.Resolution,
		Wavelength:   metadata.Wavelength{Min: b.WavelengthMin, Max: b.WavelengthMax, Central: b.WavelengthMean},
		Response:     append([]float64(nil), b.Response...),
		ResponseStep: b.ResponseStep,
	}
}

// RecordsFromCatalog flattens a loaded catalog into the rows the importer writes
func RecordsFromCatalog(root string, cat *metadata.Catalog) (ProductRecord, []BandRecord, error) {
	info, err := cat.ProductInfo()
	if err != nil {
		return ProductRecord{}, nil, err
	}
	footprint, err := cat.Footprint()
	if err != nil {
		return ProductRecord{}, nil, err
	}

	product := ProductRecord{
		ID:          info.URI,
		SensingTime: info.SensingTime,
		CloudCover:  info.CloudCover,
		Spacecraft:  info.Spacecraft,
		Baseline:    info.Baseline,
		Root:        root,
		Footprint:   footprint,
	}
	if name, err := model.ParseProductName(root); err == nil {
		product.Tile = name.Tile
		if product.Baseline == "" {
			product.Baseline = name.Baseline
		}
	}
	if product.ID == "" {
		return ProductRecord{}, nil, fmt.Errorf("%w: product has no identifier", model.ErrMalformed)
	}

	specs := cat.Bands()
	bands := make([]BandRecord, len(specs))
	for i, spec := range specs {
		bands[i] = BandRecord{
			ProductID:      product.ID,
			Position:       i,
			Tag:            spec.Tag,
			BandID:         spec.ID,
			Physical:       spec.Physical,
			Resolution:     spec.Resolution,
			WavelengthMin:  spec.Wavelength.Min,
			WavelengthMax:  spec.Wavelength.Max,
			WavelengthMean: spec.Wavelength.Central,
			ResponseStep:   spec.ResponseStep,
			Response:       append([]float64(nil), spec.Response...),
		}
	}
	return product, bands, nil
}
