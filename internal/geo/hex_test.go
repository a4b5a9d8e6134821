package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHexLayer(t *testing.T) {
	t.Parallel()

	p := NewProjector(0, 0)
	center := LatLon{Lat: 10, Lon: 20}
	coords := [][2]float64{{0, 0}, {5, -5}}
	weights := []float64{2, 8, 4}

	layer, err := p.HexLayer(coords, center, weights, 1)
	require.NoError(t, err)
	require.Len(t, layer.Points, 2)

	first := layer.Points[0]
	assert.Equal(t, [2]float64{20, 10}, first.Position)
	assert.Equal(t, 8.0, first.Weight)
	assert.Equal(t, 40.0, first.Elevation)
	assert.Equal(t, [3]uint8{249, 115, 22}, first.Color)
	assert.Equal(t, 8.0, layer.Max)

	pos, err := p.Project(PixelOffset{Y: 5, X: -5}, center)
	require.NoError(t, err)
	assert.Equal(t, [2]float64{pos.Lon, pos.Lat}, layer.Points[1].Position)
}

func TestHexLayer_ClampsIndex(t *testing.T) {
	t.Parallel()

	p := NewProjector(0, 0)
	coords := [][2]float64{{1, 1}}

	layer, err := p.HexLayer(coords, LatLon{}, []float64{1, 3}, 99)
	require.NoError(t, err)
	assert.Equal(t, 1, layer.Index)
	assert.Equal(t, 3.0, layer.Points[0].Weight)

	layer, err = p.HexLayer(coords, LatLon{}, []float64{1, 3}, -4)
	require.NoError(t, err)
	assert.Equal(t, 0, layer.Index)

	layer, err = p.HexLayer(coords, LatLon{}, nil, 3)
	require.NoError(t, err)
	assert.Equal(t, 0.0, layer.Points[0].Weight)
	assert.Equal(t, [3]uint8{59, 130, 246}, layer.Points[0].Color)
}

func TestHexLayer_PoleCenter(t *testing.T) {
	t.Parallel()

	_, err := NewProjector(0, 0).HexLayer([][2]float64{{1, 1}}, LatLon{Lat: 90}, []float64{1}, 0)
	require.ErrorIs(t, err, ErrDegenerateLongitude)
}

func TestFilterHex(t *testing.T) {
	t.Parallel()

	points := []HexPoint{{Weight: 10}, {Weight: 7.5}, {Weight: 5}, {Weight: 3}, {Weight: 1}}

	weights := func(pts []HexPoint) []float64 {
		out := make([]float64, len(pts))
		for i, p := range pts {
			out[i] = p.Weight
		}
		return out
	}

	assert.Equal(t, []float64{10, 7.5, 5, 3, 1}, weights(FilterHex(points, 10, ViewAll)))
	assert.Equal(t, []float64{10}, weights(FilterHex(points, 10, ViewHigh)))
	assert.Equal(t, []float64{7.5, 5}, weights(FilterHex(points, 10, ViewMedium)))
	assert.Equal(t, []float64{3, 1}, weights(FilterHex(points, 10, ViewLow)))
}

func TestParseView(t *testing.T) {
	t.Parallel()

	v, err := ParseView("")
	require.NoError(t, err)
	assert.Equal(t, ViewAll, v)

	v, err = ParseView(" HIGH ")
	require.NoError(t, err)
	assert.Equal(t, ViewHigh, v)

	_, err = ParseView("extreme")
	require.Error(t, err)
}

func TestColorFor(t *testing.T) {
	t.Parallel()

	assert.Equal(t, [3]uint8{59, 130, 246}, ColorFor(0, 0, 1))
	assert.Equal(t, [3]uint8{139, 92, 246}, ColorFor(0.5, 0, 1))
	assert.Equal(t, [3]uint8{249, 115, 22}, ColorFor(1, 0, 1))
	assert.Equal(t, [3]uint8{99, 111, 246}, ColorFor(0.25, 0, 1))
}
