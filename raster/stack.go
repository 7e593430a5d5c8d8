package raster

import "fmt"

// Stack is an ordered set of planes sharing one grid. Tags are unique; the
// first plane fixes the grid.
type Stack struct {
	planes []Plane
	index  map[string]int
}

// NewStack returns an empty stack
func NewStack() *Stack {
	return &Stack{index: map[string]int{}}
}

// Len returns the number of bands
func (s *Stack) Len() int {
	return len(s.planes)
}

// Empty reports whether the stack has no band axis yet
func (s *Stack) Empty() bool {
	return len(s.planes) == 0
}

// Has reports whether a band is present
func (s *Stack) Has(tag string) bool {
	_, ok := s.index[tag]
	return ok
}

// Tags returns the band axis in order
func (s *Stack) Tags() []string {
	tags := make([]string, len(s.planes))
	for i, p := range s.planes {
		tags[i] = p.Tag
	}
	return tags
}

// Grid returns the grid shared by every plane
func (s *Stack) Grid() (Grid, bool) {
	if len(s.planes) == 0 {
		return Grid{}, false
	}
	return s.planes[0].Grid, true
}

// Plane returns a copy of the named band
func (s *Stack) Plane(tag string) (Plane, bool) {
	i, ok := s.index[tag]
	if !ok {
		return Plane{}, false
	}
	return s.planes[i].Clone(), true
}

// Planes returns copies of every band in order
func (s *Stack) Planes() []Plane {
	out := make([]Plane, len(s.planes))
	for i, p := range s.planes {
		out[i] = p.Clone()
	}
	return out
}

// Put appends a plane along the band axis, or replaces the plane with the same
// tag in place. The plane must be on the stack grid.
func (s *Stack) Put(p Plane) error {
	if grid, ok := s.Grid(); ok && !grid.Equal(p.Grid) {
		return fmt.Errorf("plane %s grid %s does not match stack grid %s", p.Tag, p.Grid, grid)
	}
	if len(p.Data) != p.Grid.Len() {
		return fmt.Errorf("plane %s has %d values for a %dx%d grid", p.Tag, len(p.Data), p.Grid.Width, p.Grid.Height)
	}
	if i, ok := s.index[p.Tag]; ok {
		s.planes[i] = p
		return nil
	}
	s.index[p.Tag] = len(s.planes)
	s.planes = append(s.planes, p)
	return nil
}

// Drop removes the named bands, keeping the order of the rest. Unknown tags
// are ignored.
func (s *Stack) Drop(tags ...string) {
	drop := make(map[string]bool, len(tags))
	for _, t := range tags {
		drop[t] = true
	}
	kept := s.planes[:0]
	for _, p := range s.planes {
		if !drop[p.Tag] {
			kept = append(kept, p)
		}
	}
	for i := len(kept); i < len(s.planes); i++ {
		s.planes[i] = Plane{}
	}
	s.planes = kept
	s.reindex()
}

// Each calls fn on every plane in order. fn may modify plane values but not
// the tag or grid.
func (s *Stack) Each(fn func(p *Plane)) {
	for i := range s.planes {
		fn(&s.planes[i])
	}
}

// Clone returns a deep copy
func (s *Stack) Clone() *Stack {
	out := &Stack{planes: make([]Plane, len(s.planes)), index: make(map[string]int, len(s.planes))}
	for i, p := range s.planes {
		out.planes[i] = p.Clone()
		out.index[p.Tag] = i
	}
	return out
}

func (s *Stack) reindex() {
	s.index = make(map[string]int, len(s.planes))
	for i, p := range s.planes {
		s.index[p.Tag] = i
	}
}
