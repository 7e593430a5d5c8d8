package raster

import (
	"fmt"
	"math"
)

// Raster is an untagged grid of values, as decoded from a band file
type Raster struct {
	Grid Grid
	Data []float64
}

// Plane is a single band of physical values on a grid
type Plane struct {
	Tag  string
	Grid Grid
	Data []float64
}

// NewPlane checks that data fills the grid exactly
func NewPlane(tag string, grid Grid, data []float64) (Plane, error) {
	if tag == "" {
		return Plane{}, fmt.Errorf("plane has no tag")
	}
	if err := grid.Validate(); err != nil {
		return Plane{}, err
	}
	if len(data) != grid.Len() {
		return Plane{}, fmt.Errorf("plane %s has %d values for a %dx%d grid", tag, len(data), grid.Width, grid.Height)
	}
	return Plane{Tag: tag, Grid: grid, Data: data}, nil
}

// At returns the value of a cell
func (p Plane) At(row, col int) float64 {
	return p.Data[row*p.Grid.Width+col]
}

// Clone returns a deep copy
func (p Plane) Clone() Plane {
	data := make([]float64, len(p.Data))
	copy(data, p.Data)
	return Plane{Tag: p.Tag, Grid: p.Grid, Data: data}
}

// NoData is the value masked or missing cells carry
func NoData() float64 {
	return math.NaN()
}

// IsNoData reports whether v is the no-data value
func IsNoData(v float64) bool {
	return math.IsNaN(v)
}
