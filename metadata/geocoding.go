package metadata

import (
	"fmt"
	"math"
	"sort"
	"strconv"

	"github.com/venicegeo/bf-s2reader/model"
	"github.com/venicegeo/bf-s2reader/raster"
)

// Geoposition is the tile lattice at one listed resolution
type Geoposition struct {
	Resolution int
	Rows       int
	Cols       int
	ULX        float64
	ULY        float64
	XDim       float64
	YDim       float64
}

// CRS returns the HORIZONTAL_CS_CODE of the tile, e.g. EPSG:32651
func (c *Catalog) CRS() (string, error) {
	text, ok := childText(&c.tile.Element, ".//Tile_Geocoding/HORIZONTAL_CS_CODE")
	if !ok {
		return "", fmt.Errorf("%w: tile has no HORIZONTAL_CS_CODE", model.ErrNotFound)
	}
	return text, nil
}

// Geopositions returns every Size/Geoposition pair of the tile, finest first
func (c *Catalog) Geopositions() ([]Geoposition, error) {
	var out []Geoposition
	for _, size := range c.tile.FindElements(".//Tile_Geocoding/Size") {
		res, err := strconv.Atoi(size.SelectAttrValue("resolution", ""))
		if err != nil {
			return nil, fmt.Errorf("%w: tile Size without a numeric resolution", model.ErrMalformed)
		}
		geo := c.tile.FindElement(fmt.Sprintf(".//Tile_Geocoding/Geoposition[@resolution='%d']", res))
		if geo == nil {
			return nil, fmt.Errorf("%w: tile has no Geoposition for %dm", model.ErrMalformed, res)
		}

		g := Geoposition{Resolution: res}
		ints := []struct {
			path string
			dst  *int
		}{{"NROWS", &g.Rows}, {"NCOLS", &g.Cols}}
		for _, f := range ints {
			text, ok := childText(size, f.path)
			if !ok {
				return nil, fmt.Errorf("%w: tile Size %dm has no %s", model.ErrMalformed, res, f.path)
			}
			if *f.dst, err = strconv.Atoi(text); err != nil {
				return nil, fmt.Errorf("%w: tile Size %dm %s %q", model.ErrMalformed, res, f.path, text)
			}
		}
		floats := []struct {
			path string
			dst  *float64
		}{{"ULX", &g.ULX}, {"ULY", &g.ULY}, {"XDIM", &g.XDim}, {"YDIM", &g.YDim}}
		for _, f := range floats {
			text, ok := childText(geo, f.path)
			if !ok {
				return nil, fmt.Errorf("%w: tile Geoposition %dm has no %s", model.ErrMalformed, res, f.path)
			}
			if *f.dst, err = strconv.ParseFloat(text, 64); err != nil {
				return nil, fmt.Errorf("%w: tile Geoposition %dm %s %q", model.ErrMalformed, res, f.path, text)
			}
		}
		out = append(out, g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Resolution < out[j].Resolution })
	return out, nil
}

// Grid returns the tile lattice at a target resolution. A resolution the tile
// does not list is derived from the finest listed lattice so that every grid
// shares the same origin and extent.
func (c *Catalog) Grid(resolution int) (raster.Grid, error) {
	if resolution <= 0 {
		return raster.Grid{}, fmt.Errorf("%w: resolution must be positive, got %d", model.ErrInvalidArgument, resolution)
	}
	crs, err := c.CRS()
	if err != nil {
		return raster.Grid{}, err
	}
	positions, err := c.Geopositions()
	if err != nil {
		return raster.Grid{}, err
	}
	if len(positions) == 0 {
		return raster.Grid{}, fmt.Errorf("%w: tile has no geocoding", model.ErrNotFound)
	}

	for _, p := range positions {
		if p.Resolution == resolution {
			return raster.Grid{
				Width:      p.Cols,
				Height:     p.Rows,
				Resolution: float64(resolution),
				OriginX:    p.ULX,
				OriginY:    p.ULY,
				CRS:        crs,
			}, nil
		}
	}

	finest := positions[0]
	extentX := float64(finest.Cols) * math.Abs(finest.XDim)
	extentY := float64(finest.Rows) * math.Abs(finest.YDim)
	return raster.Grid{
		Width:      int(math.Ceil(extentX / float64(resolution))),
		Height:     int(math.Ceil(extentY / float64(resolution))),
		Resolution: float64(resolution),
		OriginX:    finest.ULX,
		OriginY:    finest.ULY,
		CRS:        crs,
	}, nil
}
