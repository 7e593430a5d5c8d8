// Package reader routes band tags to the category reader that produces them.
package reader

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/venicegeo/bf-s2reader/model"
)

// Category is the closed set of reader variants
type Category int

// Reader categories
const (
	Reflectance Category = iota + 1
	Classification
	Atmospheric
	Footprint
)

func (c Category) String() string {
	switch c {
	case Reflectance:
		return "Reflectance"
	case Classification:
		return "Classification"
	case Atmospheric:
		return "Atmospheric"
	case Footprint:
		return "Footprint"
	default:
		return fmt.Sprintf("Category(%d)", int(c))
	}
}

// Pattern matches a tag either literally or by a whole-tag regular expression
type Pattern struct {
	literal string
	expr    *regexp.Regexp
}

// Literal matches exactly one tag
func Literal(tag string) Pattern {
	return Pattern{literal: tag}
}

// Regexp matches every tag the expression matches in full
func Regexp(expr string) (Pattern, error) {
	re, err := regexp.Compile(`^(?:` + expr + `)$`)
	if err != nil {
		return Pattern{}, fmt.Errorf("%w: tag pattern %q: %v", model.ErrInvalidArgument, expr, err)
	}
	return Pattern{expr: re}, nil
}

// MustRegexp is Regexp for patterns known at compile time
func MustRegexp(expr string) Pattern {
	p, err := Regexp(expr)
	if err != nil {
		panic(err)
	}
	return p
}

// Match reports whether tag satisfies the pattern
func (p Pattern) Match(tag string) bool {
	if p.expr != nil {
		return p.expr.MatchString(tag)
	}
	return p.literal == tag
}

func (p Pattern) String() string {
	if p.expr != nil {
		return p.expr.String()
	}
	return p.literal
}

// Binding gives a category its patterns and the reader that serves them
type Binding struct {
	Category Category
	Patterns []Pattern
	Reader   Reader
}

// Claims reports whether any of the binding's patterns match tag
func (b Binding) Claims(tag string) bool {
	for _, p := range b.Patterns {
		if p.Match(tag) {
			return true
		}
	}
	return false
}

// Registry dispatches tags over pairwise-disjoint bindings
type Registry struct {
	bindings []Binding
}

// NewRegistry validates the bindings. Two categories claiming one tag is
// ErrDuplicateRegistration naming every colliding tag and its owners.
func NewRegistry(bindings ...Binding) (*Registry, error) {
	seen := map[Category]bool{}
	for _, b := range bindings {
		if seen[b.Category] {
			return nil, fmt.Errorf("%w: category %s bound twice", model.ErrDuplicateRegistration, b.Category)
		}
		seen[b.Category] = true
		if len(b.Patterns) == 0 {
			return nil, fmt.Errorf("%w: category %s has no tag patterns", model.ErrInvalidArgument, b.Category)
		}
		if b.Reader == nil {
			return nil, fmt.Errorf("%w: category %s has no reader", model.ErrInvalidArgument, b.Category)
		}
	}

	r := &Registry{bindings: append([]Binding(nil), bindings...)}
	if err := r.Check(); err != nil {
		return nil, err
	}
	return r, nil
}

// Check tests disjointness over the literal patterns, the known tags and any
// extra candidate tags, such as those a product lists. Two expressions that
// overlap only on tags outside this universe are not detected.
func (r *Registry) Check(candidates ...string) error {
	universe := map[string]bool{}
	for _, tag := range model.KnownTags() {
		universe[tag] = true
	}
	for _, tag := range candidates {
		universe[tag] = true
	}
	for _, b := range r.bindings {
		for _, p := range b.Patterns {
			if p.expr == nil {
				universe[p.literal] = true
			}
		}
	}

	tags := make([]string, 0, len(universe))
	for tag := range universe {
		tags = append(tags, tag)
	}
	sort.Strings(tags)

	var collisions []string
	for _, tag := range tags {
		var owners []string
		for _, b := range r.bindings {
			if b.Claims(tag) {
				owners = append(owners, b.Category.String())
			}
		}
		if len(owners) > 1 {
			collisions = append(collisions, fmt.Sprintf("%s claimed by %s", tag, strings.Join(owners, ", ")))
		}
	}
	if len(collisions) > 0 {
		return fmt.Errorf("%w: %s", model.ErrDuplicateRegistration, strings.Join(collisions, "; "))
	}
	return nil
}

// Dispatch returns the binding claiming tag
func (r *Registry) Dispatch(tag string) (Binding, error) {
	for _, b := range r.bindings {
		if b.Claims(tag) {
			return b, nil
		}
	}
	return Binding{}, fmt.Errorf("%w: %s", model.ErrUnrecognized, tag)
}

// Categories returns the bound categories in dispatch order
func (r *Registry) Categories() []Category {
	out := make([]Category, len(r.bindings))
	for i, b := range r.bindings {
		out[i] = b.Category
	}
	return out
}

// DefaultBindings binds the four categories of a Level-2A product
func DefaultBindings() []Binding {
	return []Binding{
		{
			Category: Reflectance,
			Patterns: []Pattern{MustRegexp(`B(0[1-9]|1[0-2]|8A)`)},
			Reader:   BandReader{Calibrate: reflectanceCoefficients},
		},
		{
			Category: Classification,
			Patterns: literals(model.ClassificationTags),
			Reader:   BandReader{Calibrate: classificationCoefficients},
		},
		{
			Category: Atmospheric,
			Patterns: literals(model.AtmosphericTags),
			Reader:   BandReader{Calibrate: atmosphericCoefficients},
		},
		{
			Category: Footprint,
			Patterns: literals(model.FootprintTags),
			Reader:   FootprintReader{},
		},
	}
}

// Default returns a registry over DefaultBindings
func Default() (*Registry, error) {
	return NewRegistry(DefaultBindings()...)
}

func literals(tags []string) []Pattern {
	out := make([]Pattern, len(tags))
	for i, tag := range tags {
		out[i] = Literal(tag)
	}
	return out
}
