package geo

import (
	"fmt"
	"math"
	"strings"
)

// View selects a band of hexagon weights
type View string

const (
	ViewAll    View = "all"
	ViewHigh   View = "high"
	ViewMedium View = "medium"
	ViewLow    View = "low"
)

// ParseView validates a view name. Empty means all.
func ParseView(name string) (View, error) {
	v := View(strings.ToLower(strings.TrimSpace(name)))
	switch v {
	case "":
		return ViewAll, nil
	case ViewAll, ViewHigh, ViewMedium, ViewLow:
		return v, nil
	}
	return "", fmt.Errorf("unknown view %q", name)
}

// HexPoint is one hexagon map point
type HexPoint struct {
	Position  [2]float64 `json:"position"` // lon, lat
	Weight    float64    `json:"weight"`
	Elevation float64    `json:"elevation"`
	Color     [3]uint8   `json:"color"`
}

// HexLayer holds the points of one time step and the maximum weight of the series
type HexLayer struct {
	Index  int        `json:"index"`
	Max    float64    `json:"max"`
	Points []HexPoint `json:"points"`
}

// HexLayer projects each coordinate pair (y, x) around center and weights it
// with the series value at index. The index is clamped into the series.
func (p Projector) HexLayer(coords [][2]float64, center LatLon, weights []float64, index int) (HexLayer, error) {
	layer := HexLayer{Points: make([]HexPoint, 0, len(coords))}

	var weight float64
	if len(weights) > 0 {
		index = min(max(index, 0), len(weights)-1)
		weight = weights[index]
		if math.IsNaN(weight) {
			weight = 0
		}
	} else {
		index = 0
	}
	layer.Index = index
	layer.Max = maxOf(weights)

	scale := layer.Max
	if scale == 0 {
		scale = 1
	}
	color := ColorFor(weight, 0, scale)

	for _, c := range coords {
		pos, err := p.Project(PixelOffset{Y: c[0], X: c[1]}, center)
		if err != nil {
			return HexLayer{}, err
		}
		layer.Points = append(layer.Points, HexPoint{
			Position:  [2]float64{pos.Lon, pos.Lat},
			Weight:    weight,
			Elevation: weight * 5,
			Color:     color,
		})
	}
	return layer, nil
}

// Filter keeps the points whose weight falls in view, relative to the layer maximum
func (l HexLayer) Filter(view View) []HexPoint {
	return FilterHex(l.Points, l.Max, view)
}

// FilterHex keeps points in the weight band of view. high is above 0.75 of max,
// medium above 0.3 up to 0.75, low at most 0.3.
func FilterHex(points []HexPoint, maxWeight float64, view View) []HexPoint {
	keep := func(w float64) bool {
		switch view {
		case ViewHigh:
			return w > maxWeight*0.75
		case ViewMedium:
			return w > maxWeight*0.3 && w <= maxWeight*0.75
		case ViewLow:
			return w <= maxWeight*0.3
		default:
			return true
		}
	}

	out := make([]HexPoint, 0, len(points))
	for _, pt := range points {
		if keep(pt.Weight) {
			out = append(out, pt)
		}
	}
	return out
}

// ColorFor interpolates blue to purple to orange over [lo, hi]
func ColorFor(value, lo, hi float64) [3]uint8 {
	ratio := 0.0
	if hi != lo {
		ratio = (value - lo) / (hi - lo)
	}
	if ratio < 0.5 {
		t := ratio * 2
		return [3]uint8{lerp(59, 139, t), lerp(130, 92, t), lerp(246, 246, t)}
	}
	t := (ratio - 0.5) * 2
	return [3]uint8{lerp(139, 249, t), lerp(92, 115, t), lerp(246, 22, t)}
}

func lerp(a, b, t float64) uint8 {
	v := math.Round(a + (b-a)*t)
	return uint8(math.Min(255, math.Max(0, v)))
}

func maxOf(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	m := math.Inf(-1)
	for _, v := range values {
		if v > m {
			m = v
		}
	}
	return m
}
