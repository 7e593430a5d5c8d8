package model

import (
	"time"

	"github.com/venicegeo/geojson-go/geojson"
)

// GeoJSONFeatureCreator is an interface for data that can convert itself to a GeoJSON feature
type GeoJSONFeatureCreator interface {
	GeoJSONFeature() (*geojson.Feature, error)
}

// GeoJSONFeatureCollectionCreator is an interface for data that can convert itself to a GeoJSON feature collection
type GeoJSONFeatureCollectionCreator interface {
	GeoJSONFeatureCollection() (*geojson.FeatureCollection, error)
}

// GeoJSONFeatureMixin is data that augments an existing GeoJSON feature in place
type GeoJSONFeatureMixin interface {
	Apply(*geojson.Feature) error
}

// ProductResult holds the fields describing one Sentinel-2 product as a vector record
type ProductResult struct {
	ID          string
	Geometry    interface{}
	CloudCover  float64
	Resolution  float64
	SensingDate time.Time
	Spacecraft  string
	Tile        string
	Baseline    string
	FileFormat  ProductFileFormat
}

// GeoJSONFeature implements the GeoJSONFeatureCreator interface
func (pr ProductResult) GeoJSONFeature() (*geojson.Feature, error) {
	f := geojson.NewFeature(pr.Geometry, pr.ID, map[string]interface{}{
		"cloudCover":  pr.CloudCover,
		"resolution":  pr.Resolution,
		"sensingDate": pr.SensingDate.Format(StandardTimeLayout),
		"spacecraft":  pr.Spacecraft,
		"tile":        pr.Tile,
		"baseline":    pr.Baseline,
		"fileFormat":  string(pr.FileFormat),
	})
	if pr.Geometry != nil {
		f.Bbox = f.ForceBbox()
	}
	return f, nil
}

// FootprintResult is a product record augmented with the bands it was read with
type FootprintResult struct {
	ProductResult
	*BandList
}

// GeoJSONFeature implements the GeoJSONFeatureCreator interface
func (result FootprintResult) GeoJSONFeature() (*geojson.Feature, error) {
	feature, err := result.ProductResult.GeoJSONFeature()
	if err != nil {
		return nil, err
	}

	if result.BandList != nil {
		if err = result.BandList.Apply(feature); err != nil {
			return nil, err
		}
	}

	return feature, nil
}

// MultiProductResult is a container type for bundling multiple results together,
// e.g. the rows of a companion table or a catalog listing
type MultiProductResult struct {
	FeatureCreators []GeoJSONFeatureCreator
}

// GeoJSONFeatureCollection implements the GeoJSONFeatureCollectionCreator interface
func (result MultiProductResult) GeoJSONFeatureCollection() (*geojson.FeatureCollection, error) {
	var err error
	features := make([]*geojson.Feature, len(result.FeatureCreators))
	for i, creator := range result.FeatureCreators {
		features[i], err = creator.GeoJSONFeature()
		if err != nil {
			return nil, err
		}
	}

	return geojson.NewFeatureCollection(features), nil
}
