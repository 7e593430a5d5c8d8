// Package mask derives boolean exclusion rasters from band values and applies
// them across a whole stack.
package mask

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/venicegeo/bf-s2reader/model"
	"github.com/venicegeo/bf-s2reader/raster"
)

// Request masks the cells of Tag whose value is in Values, or not in Values
// when Invert is set
type Request struct {
	Tag    string
	Values []float64
	Invert bool
}

// ParseRequest parses TAG=v1,v2,... as used on the command line
func ParseRequest(text string, invert bool) (Request, error) {
	tag, list, ok := strings.Cut(text, "=")
	tag = strings.TrimSpace(tag)
	if !ok || tag == "" || strings.TrimSpace(list) == "" {
		return Request{}, fmt.Errorf("%w: mask %q is not TAG=v1,v2,...", model.ErrInvalidArgument, text)
	}
	req := Request{Tag: tag, Invert: invert}
	for _, field := range strings.Split(list, ",") {
		v, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
		if err != nil {
			return Request{}, fmt.Errorf("%w: mask value %q", model.ErrInvalidArgument, field)
		}
		req.Values = append(req.Values, v)
	}
	return req, nil
}

// Mask is an OR-accumulated exclusion grid. True cells are excluded.
type Mask struct {
	grid  raster.Grid
	cells []bool
}

// New returns a mask on grid with nothing excluded
func New(grid raster.Grid) *Mask {
	return &Mask{grid: grid, cells: make([]bool, grid.Len())}
}

// Build marks every cell of plane equal to one of values, inverted on request
func Build(plane raster.Plane, values []float64, invert bool) []bool {
	set := make(map[float64]bool, len(values))
	for _, v := range values {
		set[v] = true
	}
	cells := make([]bool, len(plane.Data))
	for i, v := range plane.Data {
		cells[i] = set[v] != invert
	}
	return cells
}

// Add builds the cells for a request against plane and accumulates them
func (m *Mask) Add(plane raster.Plane, values []float64, invert bool) error {
	if !m.grid.Equal(plane.Grid) {
		return fmt.Errorf("%w: mask band %s grid %s does not match mask grid %s", model.ErrInvalidArgument, plane.Tag, plane.Grid, m.grid)
	}
	return m.Accumulate(Build(plane, values, invert))
}

// Accumulate ORs cells into the mask
func (m *Mask) Accumulate(cells []bool) error {
	if len(cells) != len(m.cells) {
		return fmt.Errorf("%w: %d mask cells for a grid of %d", model.ErrInvalidArgument, len(cells), len(m.cells))
	}
	for i, c := range cells {
		m.cells[i] = m.cells[i] || c
	}
	return nil
}

// Apply sets every excluded cell of every plane to no-data. Planes on another
// grid are an error and nothing is changed.
func (m *Mask) Apply(stack *raster.Stack) error {
	if grid, ok := stack.Grid(); ok && !grid.Equal(m.grid) {
		return fmt.Errorf("%w: stack grid %s does not match mask grid %s", model.ErrInvalidState, grid, m.grid)
	}
	stack.Each(func(p *raster.Plane) {
		for i, excluded := range m.cells {
			if excluded {
				p.Data[i] = raster.NoData()
			}
		}
	})
	return nil
}

// Grid returns the grid the mask is aligned to
func (m *Mask) Grid() raster.Grid {
	return m.grid
}

// Cells returns a copy of the exclusion grid
func (m *Mask) Cells() []bool {
	return append([]bool(nil), m.cells...)
}

// Count returns the number of excluded cells
func (m *Mask) Count() int {
	n := 0
	for _, c := range m.cells {
		if c {
			n++
		}
	}
	return n
}

// Clone returns a deep copy
func (m *Mask) Clone() *Mask {
	return &Mask{grid: m.grid, cells: m.Cells()}
}
