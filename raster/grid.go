// Package raster holds the single-band planes the reader produces, the stack
// they are merged into, and the fetch collaborator that decodes band files.
package raster

import (
	"fmt"
	"math"
)

// Grid describes the pixel lattice of a plane. OriginX/OriginY is the upper
// left corner in CRS units; Resolution is the pixel size in metres.
type Grid struct {
	Width      int
	Height     int
	Resolution float64
	OriginX    float64
	OriginY    float64
	CRS        string
}

// Len is the number of cells on the grid
func (g Grid) Len() int {
	return g.Width * g.Height
}

// Equal reports whether two grids describe the same lattice
func (g Grid) Equal(other Grid) bool {
	return g.Width == other.Width &&
		g.Height == other.Height &&
		g.CRS == other.CRS &&
		sameFloat(g.Resolution, other.Resolution) &&
		sameFloat(g.OriginX, other.OriginX) &&
		sameFloat(g.OriginY, other.OriginY)
}

// Validate rejects grids that cannot hold data
func (g Grid) Validate() error {
	if g.Width <= 0 || g.Height <= 0 {
		return fmt.Errorf("grid has no cells (%dx%d)", g.Width, g.Height)
	}
	if g.Resolution < 0 {
		return fmt.Errorf("grid resolution is negative (%g)", g.Resolution)
	}
	return nil
}

// CellCenter returns the CRS coordinate of the centre of a cell
func (g Grid) CellCenter(row, col int) (x float64, y float64) {
	x = g.OriginX + (float64(col)+0.5)*g.Resolution
	y = g.OriginY - (float64(row)+0.5)*g.Resolution
	return x, y
}

func (g Grid) String() string {
	return fmt.Sprintf("%dx%d@%gm %s (%g, %g)", g.Width, g.Height, g.Resolution, g.CRS, g.OriginX, g.OriginY)
}

func sameFloat(a, b float64) bool {
	return math.Abs(a-b) <= 1e-9*math.Max(1, math.Max(math.Abs(a), math.Abs(b)))
}
