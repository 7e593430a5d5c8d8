package calibration

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/venicegeo/bf-s2reader/metadata"
	"github.com/venicegeo/bf-s2reader/model"
)

type mockSource struct {
	offsets map[string]float64
	quant   map[metadata.Quantity]float64
}

func (m mockSource) OffsetFor(tag string) (float64, error) {
	if v, ok := m.offsets[tag]; ok {
		return v, nil
	}
	return 0, model.ErrNotFound
}

func (m mockSource) QuantificationFor(q metadata.Quantity) (float64, error) {
	switch q {
	case metadata.AOT, metadata.WVP, metadata.BOA:
	default:
		return 0, model.ErrInvalidArgument
	}
	if v, ok := m.quant[q]; ok {
		return v, nil
	}
	return 0, model.ErrNotFound
}

var source = mockSource{
	offsets: map[string]float64{"B02": -1000},
	quant:   map[metadata.Quantity]float64{metadata.BOA: 10000, metadata.WVP: 1000, metadata.AOT: 0},
}

func TestReflectance_RoundTrip(t *testing.T) {
	c, err := Reflectance(source, "B02")
	require.NoError(t, err)

	d := 2345.0
	assert.Equal(t, (d-1000)/10000, c.Value(d))
	assert.InDelta(t, d, c.Invert(c.Value(d)), 1e-9)
}

func TestAtmospheric_RoundTrip(t *testing.T) {
	c, err := Atmospheric(source, "WVP")
	require.NoError(t, err)
	assert.Equal(t, 1.5, c.Value(1500))
}

func TestIdentity_PassesThrough(t *testing.T) {
	raw := []float64{0, 3, 8, math.NaN()}
	out := Identity().Apply(raw)
	assert.Equal(t, raw[:3], out[:3])
	assert.True(t, math.IsNaN(out[3]))

	out[0] = 99
	assert.Equal(t, 0.0, raw[0])
}

func TestApply_KeepsNaN(t *testing.T) {
	c := Coefficients{Offset: -1000, Divisor: 10000}
	out := c.Apply([]float64{1000, math.NaN()})
	assert.Equal(t, 0.0, out[0])
	assert.True(t, math.IsNaN(out[1]))
}

func TestErrors(t *testing.T) {
	_, err := Reflectance(source, "B03")
	assert.True(t, errors.Is(err, model.ErrNotFound))

	_, err = Atmospheric(source, "SCL")
	assert.True(t, errors.Is(err, model.ErrInvalidArgument))

	_, err = Atmospheric(source, "AOT")
	assert.True(t, errors.Is(err, model.ErrMalformed))
}
