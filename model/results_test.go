package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/venicegeo/geojson-go/geojson"
)

// General test mocks and utils

var mockPolygon = geojson.NewPolygon([][][]float64{[][]float64{
	[]float64{120.1, 14.4}, []float64{121.1, 14.4}, []float64{121.1, 15.4}, []float64{120.1, 15.4}, []float64{120.1, 14.4},
}})

var mockProductResult = ProductResult{
	ID:          "S2A_MSIL2A_20230926T022331_N0509_R103_T51PUP_20230926T062553",
	Geometry:    mockPolygon,
	CloudCover:  12.5,
	Resolution:  10,
	SensingDate: time.Date(2023, 9, 26, 2, 23, 31, 0, time.UTC),
	Spacecraft:  "Sentinel-2A",
	Tile:        "51PUP",
	Baseline:    "05.09",
	FileFormat:  JPEG2000,
}

var mockBandList = BandList{
	Tags:        []string{"B02", "SCL"},
	Resolutions: map[string]int{"B02": 10, "SCL": 20, "B05": 20},
}

func assertFeatureContainsProductResult(t *testing.T, feature *geojson.Feature, result ProductResult) {
	assert.Equal(t, result.ID, feature.IDStr())
	assert.Equal(t, result.Spacecraft, feature.PropertyString("spacecraft"))
	assert.Equal(t, result.Tile, feature.PropertyString("tile"))
	assert.Equal(t, result.Baseline, feature.PropertyString("baseline"))
	assert.Equal(t, result.SensingDate.Format(StandardTimeLayout), feature.PropertyString("sensingDate"))
	assert.Equal(t, result.CloudCover, feature.PropertyFloat("cloudCover"))
	assert.Equal(t, result.Resolution, feature.PropertyFloat("resolution"))
	assert.Equal(t, string(result.FileFormat), feature.PropertyString("fileFormat"))
}

// Actual tests

func TestProductResult_GeoJSONFeature(t *testing.T) {
	// Mock
	result := mockProductResult

	// Tested code
	feature, err := result.GeoJSONFeature()

	// Asserts
	assert.Nil(t, err)
	assert.NotNil(t, feature)
	assertFeatureContainsProductResult(t, feature, mockProductResult)
	assert.Nil(t, feature.Bbox.Valid())
}

func TestProductResult_GeoJSONFeature_NoGeometry(t *testing.T) {
	result := mockProductResult
	result.Geometry = nil

	feature, err := result.GeoJSONFeature()

	assert.Nil(t, err)
	assert.Equal(t, result.ID, feature.IDStr())
}

func TestFootprintResult_GeoJSONFeature_NoBands(t *testing.T) {
	// Mock
	result := FootprintResult{ProductResult: mockProductResult}

	// Tested code
	feature, err := result.GeoJSONFeature()

	// Asserts
	assert.Nil(t, err)
	assertFeatureContainsProductResult(t, feature, mockProductResult)
	assert.NotContains(t, feature.Properties, "bands")
}

func TestFootprintResult_GeoJSONFeature_WithBands(t *testing.T) {
	// Mock
	bands := mockBandList
	result := FootprintResult{ProductResult: mockProductResult, BandList: &bands}

	// Tested code
	feature, err := result.GeoJSONFeature()

	// Asserts
	assert.Nil(t, err)
	assertFeatureContainsProductResult(t, feature, mockProductResult)
	assert.Equal(t, []string{"B02", "SCL"}, feature.PropertyStringSlice("bands"))
}

func TestMultiProductResult_GeoJSONFeatureCollection(t *testing.T) {
	// Mock
	second := mockProductResult
	second.ID = "S2B_MSIL2A_20230927T022331_N0509_R103_T51PUP_20230927T062553"
	multi := MultiProductResult{FeatureCreators: []GeoJSONFeatureCreator{mockProductResult, second}}

	// Tested code
	fc, err := multi.GeoJSONFeatureCollection()

	// Asserts
	assert.Nil(t, err)
	assert.Len(t, fc.Features, 2)
	assert.Equal(t, mockProductResult.ID, fc.Features[0].IDStr())
	assert.Equal(t, second.ID, fc.Features[1].IDStr())
}
