package raster

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"math"
	"path"
	"strings"

	"golang.org/x/image/tiff"

	"github.com/venicegeo/bf-s2reader/model"
	"github.com/venicegeo/bf-s2reader/storage"
)

// Fetcher decodes band files and resamples them onto a target grid
type Fetcher interface {
	Open(ctx context.Context, key string) (*Raster, error)
	Resample(src *Raster, target Grid) (*Raster, error)
}

// TIFFFetcher reads single-band 8 or 16 bit TIFF renditions of the band files.
// A key ending in .jp2 is served from the .tif file next to it.
type TIFFFetcher struct {
	Store storage.Store
}

// NewTIFFFetcher returns a fetcher reading from store
func NewTIFFFetcher(store storage.Store) *TIFFFetcher {
	return &TIFFFetcher{Store: store}
}

// Open decodes the band file at key
func (f *TIFFFetcher) Open(ctx context.Context, key string) (*Raster, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	resolved, err := f.resolve(ctx, key)
	if err != nil {
		return nil, err
	}
	data, err := storage.ReadAll(ctx, f.Store, resolved)
	if err != nil {
		return nil, err
	}
	img, err := tiff.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", model.ErrDecode, resolved, err)
	}
	return fromImage(img), nil
}

// Resample maps src onto target by nearest neighbour
func (f *TIFFFetcher) Resample(src *Raster, target Grid) (*Raster, error) {
	return NearestNeighbour(src, target)
}

func (f *TIFFFetcher) resolve(ctx context.Context, key string) (string, error) {
	candidates := []string{key}
	if ext := path.Ext(key); strings.EqualFold(ext, ".jp2") {
		candidates = []string{strings.TrimSuffix(key, ext) + ".tif", strings.TrimSuffix(key, ext) + ".tiff"}
	}
	for _, candidate := range candidates {
		ok, err := f.Store.Exists(ctx, candidate)
		if err != nil {
			return "", err
		}
		if ok {
			return candidate, nil
		}
	}
	if candidates[0] != key {
		if ok, err := f.Store.Exists(ctx, key); err == nil && ok {
			return "", fmt.Errorf("%w: %s: JPEG2000 band files need a TIFF rendition", model.ErrDecode, key)
		}
	}
	return "", fmt.Errorf("%w: band file %s", model.ErrNotFound, key)
}

func fromImage(img image.Image) *Raster {
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	data := make([]float64, width*height)

	switch src := img.(type) {
	case *image.Gray16:
		for y := 0; y < height; y++ {
			for x := 0; x < width; x++ {
				data[y*width+x] = float64(src.Gray16At(bounds.Min.X+x, bounds.Min.Y+y).Y)
			}
		}
	case *image.Gray:
		for y := 0; y < height; y++ {
			for x := 0; x < width; x++ {
				data[y*width+x] = float64(src.GrayAt(bounds.Min.X+x, bounds.Min.Y+y).Y)
			}
		}
	default:
		for y := 0; y < height; y++ {
			for x := 0; x < width; x++ {
				g := color.Gray16Model.Convert(img.At(bounds.Min.X+x, bounds.Min.Y+y)).(color.Gray16)
				data[y*width+x] = float64(g.Y)
			}
		}
	}
	return &Raster{Grid: Grid{Width: width, Height: height}, Data: data}
}

// NearestNeighbour resamples src onto target. When both grids are
// georeferenced in the same CRS, cells are matched by coordinate and cells
// outside the source are no-data. Otherwise both grids are taken to cover the
// same extent.
func NearestNeighbour(src *Raster, target Grid) (*Raster, error) {
	if src == nil || len(src.Data) != src.Grid.Len() || src.Grid.Len() == 0 {
		return nil, fmt.Errorf("%w: source raster is empty or inconsistent", model.ErrInvalidArgument)
	}
	if err := target.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrInvalidArgument, err)
	}
	if src.Grid.CRS != "" && target.CRS != "" && src.Grid.CRS != target.CRS {
		return nil, fmt.Errorf("%w: cannot resample %s onto %s", model.ErrInvalidArgument, src.Grid.CRS, target.CRS)
	}

	out := make([]float64, target.Len())
	georeferenced := src.Grid.Resolution > 0 && target.Resolution > 0 && src.Grid.CRS == target.CRS

	for row := 0; row < target.Height; row++ {
		for col := 0; col < target.Width; col++ {
			var srcRow, srcCol int
			if georeferenced {
				x, y := target.CellCenter(row, col)
				srcCol = int(math.Floor((x - src.Grid.OriginX) / src.Grid.Resolution))
				srcRow = int(math.Floor((src.Grid.OriginY - y) / src.Grid.Resolution))
			} else {
				srcCol = (2*col + 1) * src.Grid.Width / (2 * target.Width)
				srcRow = (2*row + 1) * src.Grid.Height / (2 * target.Height)
			}
			if srcRow < 0 || srcRow >= src.Grid.Height || srcCol < 0 || srcCol >= src.Grid.Width {
				out[row*target.Width+col] = NoData()
				continue
			}
			out[row*target.Width+col] = src.Data[srcRow*src.Grid.Width+srcCol]
		}
	}
	return &Raster{Grid: target, Data: out}, nil
}
