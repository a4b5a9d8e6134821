// Package geo converts pixel offsets around a scene center into coordinates.
package geo

import (
	"errors"
	"fmt"
	"math"
)

// Sensor constants of the night-time lights product
const (
	DefaultPixelSizeMeters = 463.83
	DefaultKmPerDegree     = 111.0
)

// minCos is the smallest usable cosine of the center latitude
const minCos = 1e-9

// ErrDegenerateLongitude is returned when the center sits on a pole
var ErrDegenerateLongitude = errors.New("longitude offset undefined at the poles")

// LatLon is a geographic coordinate in degrees
type LatLon struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// PixelOffset is a displacement in pixels, Y towards north and X towards east
type PixelOffset struct {
	Y float64 `json:"y"`
	X float64 `json:"x"`
}

// Projector maps pixel offsets to coordinates with a flat-earth approximation
type Projector struct {
	PixelSizeMeters float64
	KmPerDegree     float64
}

// NewProjector returns a projector with the given constants. Zero values fall back to the defaults.
func NewProjector(pixelSizeMeters, kmPerDegree float64) Projector {
	if pixelSizeMeters == 0 {
		pixelSizeMeters = DefaultPixelSizeMeters
	}
	if kmPerDegree == 0 {
		kmPerDegree = DefaultKmPerDegree
	}
	return Projector{PixelSizeMeters: pixelSizeMeters, KmPerDegree: kmPerDegree}
}

// Project returns the coordinate at offset from center
func (p Projector) Project(offset PixelOffset, center LatLon) (LatLon, error) {
	dyKm := offset.Y * p.PixelSizeMeters / 1000
	dxKm := offset.X * p.PixelSizeMeters / 1000
	dLat := dyKm / p.KmPerDegree

	cos := math.Cos(center.Lat * math.Pi / 180)
	if math.Abs(cos) < minCos {
		return LatLon{}, fmt.Errorf("%w: center latitude %g", ErrDegenerateLongitude, center.Lat)
	}
	dLon := dxKm / (p.KmPerDegree * cos)

	return LatLon{Lat: center.Lat + dLat, Lon: center.Lon + dLon}, nil
}
