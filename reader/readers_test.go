package reader

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/venicegeo/bf-s2reader/internal/testutil"
	"github.com/venicegeo/bf-s2reader/locator"
	"github.com/venicegeo/bf-s2reader/metadata"
	"github.com/venicegeo/bf-s2reader/model"
	"github.com/venicegeo/bf-s2reader/raster"
	"github.com/venicegeo/bf-s2reader/storage"
	"github.com/venicegeo/bf-s2reader/util"
)

func newSource(t *testing.T, safe *testutil.SAFE, resolution int) *Source {
	testutil.UseTestLogger(t)
	root := safe.Write(t)
	store, err := storage.NewFS(root)
	require.NoError(t, err)
	catalog, err := metadata.Load(context.Background(), store)
	require.NoError(t, err)
	loc, err := locator.New(catalog)
	require.NoError(t, err)
	grid, err := catalog.Grid(resolution)
	require.NoError(t, err)
	name, err := model.ParseProductName(root)
	require.NoError(t, err)

	return &Source{
		Catalog:    catalog,
		Locator:    loc,
		Fetcher:    raster.NewTIFFFetcher(store),
		Resolution: resolution,
		Grid:       grid,
		Name:       name,
		LogContext: &util.BasicLogContext{},
	}
}

func read(t *testing.T, src *Source, tag string) raster.Plane {
	registry, err := Default()
	require.NoError(t, err)
	b, err := registry.Dispatch(tag)
	require.NoError(t, err)
	result, err := b.Reader.Read(context.Background(), src, tag)
	require.NoError(t, err)
	require.True(t, result.Valid())
	require.NotNil(t, result.Plane)
	return *result.Plane
}

func TestReflectance_Calibrated(t *testing.T) {
	src := newSource(t, testutil.DefaultSAFE(), 10)
	plane := read(t, src, "B02")

	raw := testutil.DefaultValue("B02", 10)
	assert.Equal(t, "B02", plane.Tag)
	assert.True(t, src.Grid.Equal(plane.Grid))
	for _, cell := range [][2]int{{0, 0}, {3, 7}, {11, 11}} {
		d := float64(raw(cell[0], cell[1]))
		assert.InDelta(t, (d-1000)/10000, plane.At(cell[0], cell[1]), 1e-12)
	}
}

func TestAtmospheric_Calibrated(t *testing.T) {
	safe := testutil.DefaultSAFE()
	safe.WVPQuantification = 500
	src := newSource(t, safe, 20)
	plane := read(t, src, "WVP")

	raw := testutil.DefaultValue("WVP", 20)
	assert.Equal(t, float64(raw(2, 4))/500, plane.At(2, 4))
}

func TestClassification_PassThroughAndUpsampled(t *testing.T) {
	src := newSource(t, testutil.DefaultSAFE(), 10)
	plane := read(t, src, "SCL")

	raw := testutil.DefaultValue("SCL", 20)
	for row := 0; row < plane.Grid.Height; row++ {
		for col := 0; col < plane.Grid.Width; col++ {
			assert.Equal(t, float64(raw(row/2, col/2)), plane.At(row, col))
		}
	}
}

func TestBandReader_ExactResolutionFile(t *testing.T) {
	src := newSource(t, testutil.DefaultSAFE(), 60)
	plane := read(t, src, "B02")

	raw := testutil.DefaultValue("B02", 60)
	assert.Equal(t, 2, plane.Grid.Width)
	assert.InDelta(t, (float64(raw(1, 1))-1000)/10000, plane.At(1, 1), 1e-12)
}

func TestBandReader_MissingFile(t *testing.T) {
	src := newSource(t, testutil.DefaultSAFE(), 10)
	_, err := BandReader{Calibrate: reflectanceCoefficients}.Read(context.Background(), src, "B10")
	assert.True(t, errors.Is(err, model.ErrNotFound))
}

func TestBandReader_Cancelled(t *testing.T) {
	src := newSource(t, testutil.DefaultSAFE(), 10)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := BandReader{}.Read(ctx, src, "B02")
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestFootprintReader(t *testing.T) {
	src := newSource(t, testutil.DefaultSAFE(), 10)
	result, err := FootprintReader{}.Read(context.Background(), src, "FOOTPRINT")
	require.NoError(t, err)
	require.True(t, result.Valid())
	require.Len(t, result.Table.Features, 1)

	f := result.Table.Features[0]
	assert.Equal(t, "T51PUP", f.Properties["tile"])
	assert.Equal(t, "Sentinel-2A", f.Properties["spacecraft"])
	assert.Equal(t, 12.5, f.Properties["cloudCover"])
	assert.Equal(t, "S2A", f.Properties["mission"])
	assert.Equal(t, "FOOTPRINT", f.Properties["tag"])
	assert.Len(t, f.Properties["bands"], 13)
}
