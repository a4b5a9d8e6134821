package geo

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProject_ZeroOffsetIsCenter(t *testing.T) {
	t.Parallel()

	p := NewProjector(0, 0)
	for _, c := range []LatLon{{0, 0}, {28.6, 77.2}, {-33.9, 151.2}, {89.9, -179.9}} {
		got, err := p.Project(PixelOffset{}, c)
		require.NoError(t, err)
		assert.Equal(t, c, got)
	}
}

func TestProject_Symmetry(t *testing.T) {
	t.Parallel()

	p := NewProjector(DefaultPixelSizeMeters, DefaultKmPerDegree)
	c := LatLon{Lat: 19.07, Lon: 72.87}

	a, err := p.Project(PixelOffset{Y: 12, X: -7}, c)
	require.NoError(t, err)
	b, err := p.Project(PixelOffset{Y: -12, X: 7}, c)
	require.NoError(t, err)

	assert.InDelta(t, 2*c.Lat, a.Lat+b.Lat, 1e-9)
	assert.InDelta(t, 2*c.Lon, a.Lon+b.Lon, 1e-9)
}

func TestProject_KnownValue(t *testing.T) {
	t.Parallel()

	p := NewProjector(0, 0)
	got, err := p.Project(PixelOffset{Y: 10, X: 10}, LatLon{Lat: 0, Lon: 0})
	require.NoError(t, err)

	want := 10 * 463.83 / 1000 / 111
	assert.InDelta(t, want, got.Lat, 1e-12)
	assert.InDelta(t, want, got.Lon, 1e-12)

	got, err = p.Project(PixelOffset{X: 10}, LatLon{Lat: 60})
	require.NoError(t, err)
	assert.InDelta(t, 2*want, got.Lon, 1e-9)
}

func TestProject_Poles(t *testing.T) {
	t.Parallel()

	p := NewProjector(0, 0)
	for _, lat := range []float64{90, -90} {
		_, err := p.Project(PixelOffset{Y: 1, X: 1}, LatLon{Lat: lat})
		require.ErrorIs(t, err, ErrDegenerateLongitude)
	}

	got, err := p.Project(PixelOffset{X: 1}, LatLon{Lat: 89})
	require.NoError(t, err)
	assert.False(t, math.IsInf(got.Lon, 0))
}
