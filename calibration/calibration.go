// Package calibration converts raw digital numbers into physical values.
package calibration

import (
	"fmt"

	"github.com/venicegeo/bf-s2reader/metadata"
	"github.com/venicegeo/bf-s2reader/model"
)

// Source supplies per-band offsets and per-quantity quantification values
type Source interface {
	OffsetFor(tag string) (float64, error)
	QuantificationFor(q metadata.Quantity) (float64, error)
}

// Coefficients turn a raw value d into (d + Offset) / Divisor
type Coefficients struct {
	Offset  float64
	Divisor float64
}

// Identity passes values through unchanged
func Identity() Coefficients {
	return Coefficients{Offset: 0, Divisor: 1}
}

// Reflectance coefficients: the band's BOA_ADD_OFFSET over the BOA quantification
func Reflectance(src Source, tag string) (Coefficients, error) {
	offset, err := src.OffsetFor(tag)
	if err != nil {
		return Coefficients{}, err
	}
	q, err := src.QuantificationFor(metadata.BOA)
	if err != nil {
		return Coefficients{}, err
	}
	return newCoefficients(offset, q, tag)
}

// Atmospheric coefficients: no offset, the band's own quantification
func Atmospheric(src Source, tag string) (Coefficients, error) {
	q, err := src.QuantificationFor(metadata.Quantity(tag))
	if err != nil {
		return Coefficients{}, err
	}
	return newCoefficients(0, q, tag)
}

func newCoefficients(offset, divisor float64, tag string) (Coefficients, error) {
	if divisor == 0 {
		return Coefficients{}, fmt.Errorf("%w: zero quantification value for band %s", model.ErrMalformed, tag)
	}
	return Coefficients{Offset: offset, Divisor: divisor}, nil
}

// Value calibrates a single raw value
func (c Coefficients) Value(raw float64) float64 {
	return (raw + c.Offset) / c.Divisor
}

// Apply returns a calibrated copy of raw. NaN cells stay NaN.
func (c Coefficients) Apply(raw []float64) []float64 {
	out := make([]float64, len(raw))
	if c == Identity() {
		copy(out, raw)
		return out
	}
	for i, v := range raw {
		out[i] = c.Value(v)
	}
	return out
}

// Invert recovers the raw value from a calibrated one
func (c Coefficients) Invert(value float64) float64 {
	return value*c.Divisor - c.Offset
}
