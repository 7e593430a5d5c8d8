package reader

import (
	"context"
	"fmt"

	"github.com/venicegeo/geojson-go/geojson"

	"github.com/venicegeo/bf-s2reader/calibration"
	"github.com/venicegeo/bf-s2reader/locator"
	"github.com/venicegeo/bf-s2reader/metadata"
	"github.com/venicegeo/bf-s2reader/model"
	"github.com/venicegeo/bf-s2reader/raster"
	"github.com/venicegeo/bf-s2reader/util"
)

// Source is everything a reader needs from the product. It is shared by
// concurrent reads and must not be modified once built.
type Source struct {
	Catalog    *metadata.Catalog
	Locator    *locator.Locator
	Fetcher    raster.Fetcher
	Resolution int
	Grid       raster.Grid
	Name       *model.ProductName
	LogContext util.LogContext
}

// Result carries exactly one of a plane or a table fragment
type Result struct {
	Plane *raster.Plane
	Table *geojson.FeatureCollection
}

// Valid reports whether exactly one of Plane and Table is set
func (r Result) Valid() bool {
	return (r.Plane == nil) != (r.Table == nil)
}

// Reader produces the data for one tag
type Reader interface {
	Read(ctx context.Context, src *Source, tag string) (Result, error)
}

// ReaderFunc adapts a function to Reader
type ReaderFunc func(ctx context.Context, src *Source, tag string) (Result, error)

// Read calls f
func (f ReaderFunc) Read(ctx context.Context, src *Source, tag string) (Result, error) {
	return f(ctx, src, tag)
}

// BandReader locates, fetches, resamples and calibrates a band file
type BandReader struct {
	Calibrate func(src *Source, tag string) (calibration.Coefficients, error)
}

// Read produces a calibrated plane on the source grid
func (r BandReader) Read(ctx context.Context, src *Source, tag string) (Result, error) {
	coefficients := calibration.Identity()
	if r.Calibrate != nil {
		var err error
		if coefficients, err = r.Calibrate(src, tag); err != nil {
			return Result{}, err
		}
	}

	file, err := src.Locator.Locate(tag, src.Resolution)
	if err != nil {
		return Result{}, err
	}
	if err = ctx.Err(); err != nil {
		return Result{}, err
	}
	util.LogDebug(src.LogContext, "Reading band file", "tag", tag, "path", file.Path, "nativeResolution", file.Resolution)

	raw, err := src.Fetcher.Open(ctx, file.Path)
	if err != nil {
		return Result{}, err
	}
	// Georeference the decoded raster when it matches the tile lattice at its
	// native resolution.
	if native, err := src.Catalog.Grid(file.Resolution); err == nil && raw.Grid.Resolution == 0 &&
		native.Width == raw.Grid.Width && native.Height == raw.Grid.Height {
		raw.Grid = native
	}

	resampled, err := src.Fetcher.Resample(raw, src.Grid)
	if err != nil {
		return Result{}, err
	}
	plane, err := raster.NewPlane(tag, src.Grid, coefficients.Apply(resampled.Data))
	if err != nil {
		return Result{}, fmt.Errorf("%w: band %s: %v", model.ErrDecode, tag, err)
	}
	return Result{Plane: &plane}, nil
}

func reflectanceCoefficients(src *Source, tag string) (calibration.Coefficients, error) {
	return calibration.Reflectance(src.Catalog, tag)
}

func atmosphericCoefficients(src *Source, tag string) (calibration.Coefficients, error) {
	return calibration.Atmospheric(src.Catalog, tag)
}

func classificationCoefficients(*Source, string) (calibration.Coefficients, error) {
	return calibration.Identity(), nil
}

// FootprintReader produces a one-feature table with the product footprint
type FootprintReader struct{}

// Read builds the footprint feature
func (FootprintReader) Read(ctx context.Context, src *Source, tag string) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	ring, err := src.Catalog.Footprint()
	if err != nil {
		return Result{}, err
	}
	info, err := src.Catalog.ProductInfo()
	if err != nil {
		return Result{}, err
	}

	result := model.FootprintResult{
		ProductResult: model.ProductResult{
			ID:          info.URI,
			Geometry:    geojson.NewPolygon([][][]float64{ring}),
			CloudCover:  info.CloudCover,
			Resolution:  float64(src.Resolution),
			SensingDate: info.SensingTime,
			Spacecraft:  info.Spacecraft,
			Baseline:    info.Baseline,
			FileFormat:  model.JPEG2000,
		},
		BandList: &model.BandList{
			Tags:        src.Catalog.Tags(),
			Resolutions: src.Catalog.NativeResolutions(),
		},
	}
	if src.Name != nil {
		result.Tile = src.Name.Tile
	}

	feature, err := result.GeoJSONFeature()
	if err != nil {
		return Result{}, err
	}
	if src.Name != nil {
		if err = (model.ProductNameInfo{ProductName: src.Name}).Apply(feature); err != nil {
			return Result{}, err
		}
	}
	feature.Properties["tag"] = tag
	return Result{Table: geojson.NewFeatureCollection([]*geojson.Feature{feature})}, nil
}
