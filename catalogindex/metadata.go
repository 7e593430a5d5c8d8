package catalogindex

import (
	"database/sql"

	"github.com/venicegeo/geojson-go/geojson"

	"github.com/venicegeo/bf-s2reader/catalogdb"
	"github.com/venicegeo/bf-s2reader/model"
)

func getMetadata(tx *sql.Tx, productID string) (model.GeoJSONFeatureCreator, error) {
	product, err := catalogdb.GetProductByID(tx, productID)
	if err != nil {
		return nil, err
	}
	bands, err := catalogdb.GetBands(tx, productID)
	if err != nil {
		return nil, err
	}
	return footprintResultFromRecords(*product, bands), nil
}

func discoverProducts(tx *sql.Tx, tile string) (model.GeoJSONFeatureCollectionCreator, error) {
	products, err := catalogdb.ListProducts(tx, tile)
	if err != nil {
		return nil, err
	}
	result := model.MultiProductResult{FeatureCreators: make([]model.GeoJSONFeatureCreator, len(products))}
	for i, product := range products {
		result.FeatureCreators[i] = footprintResultFromRecords(product, nil)
	}
	return result, nil
}

func footprintResultFromRecords(product catalogdb.ProductRecord, bands []catalogdb.BandRecord) model.FootprintResult {
	var bandList *model.BandList
	if len(bands) > 0 {
		bandList = &model.BandList{Resolutions: make(map[string]int, len(bands))}
		for _, band := range bands {
			bandList.Tags = append(bandList.Tags, band.Tag)
			bandList.Resolutions[band.Tag] = band.Resolution
		}
	}

	result := model.FootprintResult{
		ProductResult: model.ProductResult{
			ID:          product.ID,
			CloudCover:  product.CloudCover,
			SensingDate: product.SensingTime,
			Spacecraft:  product.Spacecraft,
			Tile:        product.Tile,
			Baseline:    product.Baseline,
			FileFormat:  model.JPEG2000,
		},
		BandList: bandList,
	}
	if len(product.Footprint) > 0 {
		result.Geometry = geojson.NewPolygon([][][]float64{product.Footprint})
	}
	return result
}
