package product

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/venicegeo/geojson-go/geojson"

	"github.com/venicegeo/bf-s2reader/internal/testutil"
	"github.com/venicegeo/bf-s2reader/mask"
	"github.com/venicegeo/bf-s2reader/model"
	"github.com/venicegeo/bf-s2reader/raster"
	"github.com/venicegeo/bf-s2reader/reader"
	"github.com/venicegeo/bf-s2reader/storage"
)

// countingFetcher counts Open calls and optionally sleeps a random while so
// workers finish out of order
type countingFetcher struct {
	raster.Fetcher
	opens  int32
	jitter bool
}

func (f *countingFetcher) Open(ctx context.Context, key string) (*raster.Raster, error) {
	atomic.AddInt32(&f.opens, 1)
	if f.jitter {
		time.Sleep(time.Duration(rand.Intn(20)) * time.Millisecond)
	}
	return f.Fetcher.Open(ctx, key)
}

func openProduct(t *testing.T, safe *testutil.SAFE, opts ...Option) (*Product, *countingFetcher) {
	testutil.UseTestLogger(t)
	root := safe.Write(t)
	store, err := storage.NewFS(root)
	require.NoError(t, err)
	fetcher := &countingFetcher{Fetcher: raster.NewTIFFFetcher(store)}
	opts = append([]Option{WithFetcher(fetcher), WithWorkers(4)}, opts...)
	p, err := New(context.Background(), root, opts...)
	require.NoError(t, err)
	return p, fetcher
}

func sclAt(row, col int) float64 {
	return float64(testutil.DefaultValue("SCL", 20)(row/2, col/2))
}

func TestNew_Defaults(t *testing.T) {
	p, _ := openProduct(t, testutil.DefaultSAFE())

	assert.Equal(t, model.DefaultTargetResolution, p.Resolution())
	assert.Equal(t, 12, p.Grid().Width)
	assert.Equal(t, "T51PUP", p.Name().Tile)
	assert.Len(t, p.Bands(), 13)
	assert.True(t, p.Stack().Empty())
	assert.Nil(t, p.Table())
	assert.Nil(t, p.Mask())
	assert.Equal(t, testutil.ProductName, filepath.Base(p.Root()))
	assert.NotNil(t, p.Catalog())
}

func TestNew_Errors(t *testing.T) {
	ctx := context.Background()

	_, err := New(ctx, t.TempDir())
	assert.True(t, errors.Is(err, model.ErrInvalidArgument))

	root := testutil.DefaultSAFE().Write(t)
	_, err = New(ctx, root, WithResolution(0))
	assert.True(t, errors.Is(err, model.ErrInvalidArgument))

	safe := testutil.DefaultSAFE()
	safe.OmitProductDocument = true
	_, err = New(ctx, safe.Write(t))
	assert.True(t, errors.Is(err, model.ErrNotFound))

	_, err = New(ctx, filepath.Join(t.TempDir(), "missing.SAFE"))
	assert.True(t, errors.Is(err, model.ErrNotFound))
}

func TestNew_OverlapOnProductTagIsFatal(t *testing.T) {
	noop := reader.ReaderFunc(func(context.Context, *reader.Source, string) (reader.Result, error) {
		return reader.Result{}, nil
	})
	registry, err := reader.NewRegistry(
		reader.Binding{Category: reader.Reflectance, Patterns: []reader.Pattern{reader.MustRegexp(`T.I`)}, Reader: noop},
		reader.Binding{Category: reader.Classification, Patterns: []reader.Pattern{reader.MustRegexp(`TC.`)}, Reader: noop},
	)
	require.NoError(t, err)

	safe := testutil.DefaultSAFE()
	safe.Images = append(safe.Images, testutil.Image{Tag: "TCI", Resolution: 10, Value: testutil.DefaultValue("TCI", 10)})
	_, err = New(context.Background(), safe.Write(t), WithRegistry(registry))
	assert.True(t, errors.Is(err, model.ErrDuplicateRegistration))
	assert.Contains(t, err.Error(), "TCI claimed by Reflectance, Classification")
}

func TestRead_Idempotent(t *testing.T) {
	p, fetcher := openProduct(t, testutil.DefaultSAFE())
	ctx := context.Background()

	require.NoError(t, p.Read(ctx, "B02", "B03"))
	before := p.Stack()
	opens := atomic.LoadInt32(&fetcher.opens)

	require.NoError(t, p.Read(ctx, "B02"))
	require.NoError(t, p.Read(ctx, "B03", "B02"))

	assert.Equal(t, opens, atomic.LoadInt32(&fetcher.opens))
	assert.Equal(t, before.Planes(), p.Stack().Planes())
}

func TestRead_OrderIsFirstOccurrence(t *testing.T) {
	p, fetcher := openProduct(t, testutil.DefaultSAFE())
	fetcher.jitter = true
	ctx := context.Background()

	require.NoError(t, p.Read(ctx, "B04", "B02", "B04", "SCL", "B8A", "AOT"))
	require.NoError(t, p.Read(ctx, "B03", "B02", "B11", "WVP", "B01"))

	assert.Equal(t, []string{"B04", "B02", "SCL", "B8A", "AOT", "B03", "B11", "WVP", "B01"}, p.Tags())
	assert.Equal(t, int32(9), atomic.LoadInt32(&fetcher.opens))
}

func TestRead_CalibrationRoundTrip(t *testing.T) {
	safe := testutil.DefaultSAFE()
	safe.Offset = -1000
	safe.BOAQuantification = 10000
	safe.WVPQuantification = 750
	p, _ := openProduct(t, safe)

	require.NoError(t, p.Read(context.Background(), "B02", "WVP", "SCL"))
	stack := p.Stack()

	b02, _ := stack.Plane("B02")
	wvp, _ := stack.Plane("WVP")
	scl, _ := stack.Plane("SCL")
	d := float64(testutil.DefaultValue("B02", 10)(5, 6))
	dw := float64(testutil.DefaultValue("WVP", 10)(5, 6))
	assert.InDelta(t, (d-1000)/10000, b02.At(5, 6), 1e-12)
	assert.InDelta(t, dw/750, wvp.At(5, 6), 1e-12)
	assert.Equal(t, sclAt(5, 6), scl.At(5, 6))
}

func TestRead_AllOrNothing(t *testing.T) {
	p, _ := openProduct(t, testutil.DefaultSAFE())
	ctx := context.Background()
	require.NoError(t, p.Read(ctx, "B04"))

	err := p.Read(ctx, "B02", "B10", "B03")
	assert.True(t, errors.Is(err, model.ErrNotFound))
	assert.Equal(t, []string{"B04"}, p.Tags())

	err = p.Read(ctx, "B02", "NOPE")
	assert.True(t, errors.Is(err, model.ErrUnrecognized))
	assert.Equal(t, []string{"B04"}, p.Tags())
}

func TestRead_Cancelled(t *testing.T) {
	p, fetcher := openProduct(t, testutil.DefaultSAFE())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := p.Read(ctx, "B02", "B03")
	assert.True(t, errors.Is(err, context.Canceled))
	assert.True(t, p.Stack().Empty())
	assert.Equal(t, int32(0), atomic.LoadInt32(&fetcher.opens))
}

func TestRead_ReaderContract(t *testing.T) {
	plane := raster.Plane{Tag: "B02"}
	cases := map[string]reader.Result{
		"neither": {},
		"both":    {Plane: &plane, Table: geojson.NewFeatureCollection(nil)},
	}
	for name, result := range cases {
		result := result
		t.Run(name, func(t *testing.T) {
			registry, err := reader.NewRegistry(reader.Binding{
				Category: reader.Reflectance,
				Patterns: []reader.Pattern{reader.Literal("B02")},
				Reader: reader.ReaderFunc(func(context.Context, *reader.Source, string) (reader.Result, error) {
					return result, nil
				}),
			})
			require.NoError(t, err)
			p, _ := openProduct(t, testutil.DefaultSAFE(), WithRegistry(registry))

			err = p.Read(context.Background(), "B02")
			assert.True(t, errors.Is(err, model.ErrReaderContract))
			assert.True(t, p.Stack().Empty())
			assert.Nil(t, p.Table())
		})
	}
}

func TestRead_ShortPlaneLeavesProductUnchanged(t *testing.T) {
	var handed []float64
	registry, err := reader.NewRegistry(
		reader.Binding{
			Category: reader.Footprint,
			Patterns: []reader.Pattern{reader.Literal("FOOTPRINT")},
			Reader:   reader.FootprintReader{},
		},
		reader.Binding{
			Category: reader.Reflectance,
			Patterns: []reader.Pattern{reader.Literal("B02"), reader.Literal("B03")},
			Reader: reader.ReaderFunc(func(_ context.Context, src *reader.Source, tag string) (reader.Result, error) {
				data := make([]float64, src.Grid.Len())
				if tag == "B03" {
					data = data[:1]
				} else {
					handed = data
				}
				return reader.Result{Plane: &raster.Plane{Tag: tag, Grid: src.Grid, Data: data}}, nil
			}),
		},
	)
	require.NoError(t, err)
	p, _ := openProduct(t, testutil.DefaultSAFE(), WithRegistry(registry))
	ctx := context.Background()

	err = p.Read(ctx, "FOOTPRINT", "B02", "B03")
	assert.True(t, errors.Is(err, model.ErrReaderContract))
	assert.Empty(t, p.Tags())
	assert.Nil(t, p.Table())

	require.NoError(t, p.Read(ctx, "B02"))
	require.NoError(t, p.Update(&raster.Plane{Tag: "SCL", Grid: p.Grid(), Data: make([]float64, p.Grid().Len())}, nil))
	require.NoError(t, p.AddMask(ctx, "SCL", []float64{0}, false))
	b02, ok := p.Stack().Plane("B02")
	require.True(t, ok)
	assert.True(t, math.IsNaN(b02.At(0, 0)))
	for _, v := range handed {
		assert.False(t, math.IsNaN(v), "the reader's buffer should not be masked")
	}
}

func TestRead_FootprintTable(t *testing.T) {
	p, _ := openProduct(t, testutil.DefaultSAFE())
	ctx := context.Background()

	require.NoError(t, p.Read(ctx, "FOOTPRINT", "B02"))
	require.NoError(t, p.Read(ctx, "FOOTPRINT"))

	table := p.Table()
	require.NotNil(t, table)
	assert.Len(t, table.Features, 1)
	assert.Equal(t, []string{"B02"}, p.Tags())

	table.Features[0].Properties["tile"] = "changed"
	assert.Equal(t, "T51PUP", p.Table().Features[0].Properties["tile"])
}

func TestRemove(t *testing.T) {
	p, _ := openProduct(t, testutil.DefaultSAFE())
	ctx := context.Background()

	err := p.Remove("B02")
	assert.True(t, errors.Is(err, model.ErrInvalidState))

	require.NoError(t, p.Read(ctx, "B02", "B03", "B04", "B08"))
	require.NoError(t, p.Remove("B03", "B08"))
	assert.Equal(t, []string{"B02", "B04"}, p.Tags())

	require.NoError(t, p.Remove("B11"))
	assert.Equal(t, []string{"B02", "B04"}, p.Tags())

	require.NoError(t, p.Remove("B04", "B11", "B02"))
	assert.True(t, p.Stack().Empty())

	err = p.Remove("B02")
	assert.True(t, errors.Is(err, model.ErrInvalidState))

	// A removed band can be read again and goes to the end of the axis
	require.NoError(t, p.Read(ctx, "B03", "B02"))
	assert.Equal(t, []string{"B03", "B02"}, p.Tags())
}

func assertMasked(t *testing.T, plane raster.Plane, excluded func(scl float64) bool) {
	for row := 0; row < plane.Grid.Height; row++ {
		for col := 0; col < plane.Grid.Width; col++ {
			v := plane.At(row, col)
			if excluded(sclAt(row, col)) {
				assert.True(t, math.IsNaN(v), "%s (%d,%d) should be masked", plane.Tag, row, col)
			} else {
				assert.False(t, math.IsNaN(v), "%s (%d,%d) should not be masked", plane.Tag, row, col)
			}
		}
	}
}

func cloudy(scl float64) bool {
	return scl == 0 || scl == 3 || scl == 8 || scl == 9
}

func TestAddMask_ClassificationValues(t *testing.T) {
	p, _ := openProduct(t, testutil.DefaultSAFE())
	ctx := context.Background()
	require.NoError(t, p.Read(ctx, "B02", "B8A"))
	unmasked := p.Stack()

	require.NoError(t, p.AddMask(ctx, "SCL", []float64{0, 3, 8, 9}, false))

	// SCL was only fetched for the mask
	assert.Equal(t, []string{"B02", "B8A"}, p.Tags())
	stack := p.Stack()
	for _, tag := range []string{"B02", "B8A"} {
		plane, _ := stack.Plane(tag)
		assertMasked(t, plane, cloudy)

		before, _ := unmasked.Plane(tag)
		for i, v := range plane.Data {
			if !math.IsNaN(v) {
				assert.Equal(t, before.Data[i], v)
			}
		}
	}

	// Bands read later are masked too
	require.NoError(t, p.Read(ctx, "B03"))
	b03, _ := p.Stack().Plane("B03")
	assertMasked(t, b03, cloudy)
}

func TestAddMask_KeepsRequestedBand(t *testing.T) {
	p, _ := openProduct(t, testutil.DefaultSAFE())
	ctx := context.Background()
	require.NoError(t, p.Read(ctx, "SCL", "B02"))

	require.NoError(t, p.AddMask(ctx, "SCL", []float64{0, 3, 8, 9}, false))
	assert.Equal(t, []string{"SCL", "B02"}, p.Tags())

	scl, _ := p.Stack().Plane("SCL")
	assertMasked(t, scl, cloudy)
}

func TestAddMask_InvertAndAccumulate(t *testing.T) {
	p, _ := openProduct(t, testutil.DefaultSAFE())
	ctx := context.Background()
	require.NoError(t, p.Read(ctx, "B02"))

	// Exclude 0, then everything except 1, 2, 3 and 8
	require.NoError(t, p.AddMask(ctx, "SCL", []float64{0}, false))
	require.NoError(t, p.AddMask(ctx, "SCL", []float64{1, 2, 3, 8}, true))

	b02, _ := p.Stack().Plane("B02")
	assertMasked(t, b02, func(scl float64) bool {
		return scl == 0 || scl == 9
	})
	assert.Equal(t, 144/6*2, p.Mask().Count())
}

func TestAddMask_Errors(t *testing.T) {
	p, _ := openProduct(t, testutil.DefaultSAFE())
	ctx := context.Background()

	err := p.AddMask(ctx, "B10", []float64{0}, false)
	assert.True(t, errors.Is(err, model.ErrNotFound))
	assert.Nil(t, p.Mask())

	err = p.AddMask(ctx, "FOOTPRINT", []float64{0}, false)
	assert.True(t, errors.Is(err, model.ErrInvalidArgument))
	assert.Nil(t, p.Table())
	assert.True(t, p.Stack().Empty())
}

func TestWithMask_AppliedAtConstruction(t *testing.T) {
	req, err := mask.ParseRequest("SCL=0,3,8,9", false)
	require.NoError(t, err)
	p, _ := openProduct(t, testutil.DefaultSAFE(), WithMask(req))

	require.NotNil(t, p.Mask())
	assert.True(t, p.Stack().Empty())

	require.NoError(t, p.Read(context.Background(), "B04"))
	b04, _ := p.Stack().Plane("B04")
	assertMasked(t, b04, cloudy)
}

func TestUpdate(t *testing.T) {
	p, _ := openProduct(t, testutil.DefaultSAFE())
	grid := p.Grid()

	err := p.Update(nil, nil)
	assert.True(t, errors.Is(err, model.ErrInvalidArgument))

	ndvi, err := raster.NewPlane("NDVI", grid, make([]float64, grid.Len()))
	require.NoError(t, err)
	err = p.Update(&ndvi, geojson.NewFeatureCollection(nil))
	assert.True(t, errors.Is(err, model.ErrInvalidArgument))

	require.NoError(t, p.Update(&ndvi, nil))
	require.NoError(t, p.Read(context.Background(), "B02"))
	assert.Equal(t, []string{"NDVI", "B02"}, p.Tags())

	ndvi.Data[0] = 0.5
	require.NoError(t, p.Update(&ndvi, nil))
	assert.Equal(t, []string{"NDVI", "B02"}, p.Tags())
	updated, _ := p.Stack().Plane("NDVI")
	assert.Equal(t, 0.5, updated.Data[0])

	other := grid
	other.Resolution = 20
	bad := raster.Plane{Tag: "X", Grid: other, Data: make([]float64, other.Len())}
	err = p.Update(&bad, nil)
	assert.True(t, errors.Is(err, model.ErrInvalidArgument))

	fragment := geojson.NewFeatureCollection([]*geojson.Feature{geojson.NewFeature(nil, "a", nil), geojson.NewFeature(nil, "b", nil)})
	require.NoError(t, p.Update(nil, fragment))
	require.NoError(t, p.Update(nil, fragment))
	assert.Len(t, p.Table().Features, 4)
}

func TestConcurrentMutationsSerialize(t *testing.T) {
	p, _ := openProduct(t, testutil.DefaultSAFE())
	ctx := context.Background()
	tags := []string{"B02", "B03", "B04", "B08", "B05", "B06"}

	var wg sync.WaitGroup
	for _, tag := range tags {
		wg.Add(1)
		go func(tag string) {
			defer wg.Done()
			assert.NoError(t, p.Read(ctx, tag))
		}(tag)
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		assert.NoError(t, p.AddMask(ctx, "SCL", []float64{0}, false))
	}()
	wg.Wait()

	assert.ElementsMatch(t, tags, p.Tags())
	for _, plane := range p.Stack().Planes() {
		assertMasked(t, plane, func(scl float64) bool { return scl == 0 })
	}
}
