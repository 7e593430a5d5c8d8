package reader

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/venicegeo/bf-s2reader/model"
)

var noopReader = ReaderFunc(func(context.Context, *Source, string) (Result, error) {
	return Result{}, nil
})

func TestDefault_Dispatch(t *testing.T) {
	registry, err := Default()
	require.NoError(t, err)

	cases := map[string]Category{
		"B01": Reflectance, "B08": Reflectance, "B8A": Reflectance, "B12": Reflectance,
		"SCL": Classification, "AOT": Atmospheric, "WVP": Atmospheric, "FOOTPRINT": Footprint,
	}
	for tag, want := range cases {
		b, err := registry.Dispatch(tag)
		require.NoError(t, err, tag)
		assert.Equal(t, want, b.Category, tag)
	}
	assert.Equal(t, []Category{Reflectance, Classification, Atmospheric, Footprint}, registry.Categories())
}

func TestDispatch_Unrecognized(t *testing.T) {
	registry, err := Default()
	require.NoError(t, err)

	for _, tag := range []string{"B13", "B00", "b02", "TCI", "", "B8AX"} {
		_, err := registry.Dispatch(tag)
		assert.True(t, errors.Is(err, model.ErrUnrecognized), tag)
	}
}

func TestNewRegistry_OverlapNamesBothCategories(t *testing.T) {
	_, err := NewRegistry(
		Binding{Category: Reflectance, Patterns: []Pattern{MustRegexp(`B0[1-9]`)}, Reader: noopReader},
		Binding{Category: Classification, Patterns: []Pattern{Literal("SCL"), Literal("B08")}, Reader: noopReader},
	)
	require.Error(t, err)
	assert.True(t, errors.Is(err, model.ErrDuplicateRegistration))
	assert.Contains(t, err.Error(), "B08 claimed by Reflectance, Classification")
}

func TestNewRegistry_EnumeratesEveryCollision(t *testing.T) {
	_, err := NewRegistry(
		Binding{Category: Reflectance, Patterns: []Pattern{Literal("B02"), Literal("B03")}, Reader: noopReader},
		Binding{Category: Atmospheric, Patterns: []Pattern{MustRegexp(`B0[23]`)}, Reader: noopReader},
		Binding{Category: Footprint, Patterns: []Pattern{Literal("B03")}, Reader: noopReader},
	)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "B02 claimed by Reflectance, Atmospheric")
	assert.Contains(t, err.Error(), "B03 claimed by Reflectance, Atmospheric, Footprint")
}

func TestRegistry_CheckCandidates(t *testing.T) {
	registry, err := NewRegistry(
		Binding{Category: Reflectance, Patterns: []Pattern{MustRegexp(`X[0-9]+`)}, Reader: noopReader},
		Binding{Category: Atmospheric, Patterns: []Pattern{MustRegexp(`X1[0-9]`)}, Reader: noopReader},
	)
	require.NoError(t, err)

	err = registry.Check("X15")
	assert.True(t, errors.Is(err, model.ErrDuplicateRegistration))
}

func TestNewRegistry_InvalidBindings(t *testing.T) {
	_, err := NewRegistry(
		Binding{Category: Reflectance, Patterns: []Pattern{Literal("B02")}, Reader: noopReader},
		Binding{Category: Reflectance, Patterns: []Pattern{Literal("B03")}, Reader: noopReader},
	)
	assert.True(t, errors.Is(err, model.ErrDuplicateRegistration))

	_, err = NewRegistry(Binding{Category: Classification, Reader: noopReader})
	assert.True(t, errors.Is(err, model.ErrInvalidArgument))

	_, err = NewRegistry(Binding{Category: Classification, Patterns: []Pattern{Literal("SCL")}})
	assert.True(t, errors.Is(err, model.ErrInvalidArgument))

	_, err = Regexp(`B(`)
	assert.True(t, errors.Is(err, model.ErrInvalidArgument))
}

func TestPattern_FullMatchOnly(t *testing.T) {
	p := MustRegexp(`B0[1-9]`)
	assert.True(t, p.Match("B02"))
	assert.False(t, p.Match("B023"))
	assert.False(t, p.Match("XB02"))
	assert.Equal(t, "SCL", Literal("SCL").String())
}
