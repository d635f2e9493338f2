package spatial

import (
	"fmt"
	"math"
)

// Bounds is the rectangular geographic region being rendered.
// Fixed for the whole run.
type Bounds struct {
	MinLat float64 `json:"minLat"`
	MinLon float64 `json:"minLon"`
	MaxLat float64 `json:"maxLat"`
	MaxLon float64 `json:"maxLon"`
}

// Validate checks that both spans are positive. Degenerate bounds are a
// configuration error and must be rejected before any processing starts.
func (b Bounds) Validate() error {
	if b.MaxLat <= b.MinLat {
		return fmt.Errorf("invalid bounds: min-lat %v must be less than max-lat %v", b.MinLat, b.MaxLat)
	}
	if b.MaxLon <= b.MinLon {
		return fmt.Errorf("invalid bounds: min-lon %v must be less than max-lon %v", b.MinLon, b.MaxLon)
	}
	return nil
}

// LatSpan returns the latitude extent in degrees.
func (b Bounds) LatSpan() float64 { return b.MaxLat - b.MinLat }

// LonSpan returns the longitude extent in degrees.
func (b Bounds) LonSpan() float64 { return b.MaxLon - b.MinLon }

// MeanLat returns the latitude of the center of the bounds.
func (b Bounds) MeanLat() float64 { return (b.MinLat + b.MaxLat) / 2 }

// Contains reports whether the point lies within the bounds.
func (b Bounds) Contains(lat, lon float64) bool {
	return lat >= b.MinLat && lat <= b.MaxLat && lon >= b.MinLon && lon <= b.MaxLon
}

// Pixel is a coordinate in the output grid, 0 <= X < width, 0 <= Y < height.
type Pixel struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Projector maps geographic coordinates into a fixed pixel grid using an
// equirectangular projection. The grid height is derived from the requested
// width so that the geographic aspect ratio is preserved at the bounds'
// mean latitude: one degree of longitude covers cos(meanLat) of the ground
// distance a degree of latitude does, so the vertical axis is stretched by
// 1/cos(meanLat) to approximate the familiar web-Mercator proportion.
type Projector struct {
	bounds Bounds
	width  int
	height int
}

// NewProjector builds a projector for the given bounds and pixel width.
func NewProjector(bounds Bounds, width int) (*Projector, error) {
	if err := bounds.Validate(); err != nil {
		return nil, err
	}
	if width <= 0 {
		return nil, fmt.Errorf("invalid width %d: must be positive", width)
	}

	correction := math.Cos(bounds.MeanLat() * math.Pi / 180)
	if correction <= 0 {
		return nil, fmt.Errorf("invalid bounds: mean latitude %v too close to a pole", bounds.MeanLat())
	}

	height := int(math.Round(float64(width) * bounds.LatSpan() / bounds.LonSpan() / correction))
	if height < 1 {
		height = 1
	}

	return &Projector{bounds: bounds, width: width, height: height}, nil
}

// Width returns the pixel grid width.
func (p *Projector) Width() int { return p.width }

// Height returns the derived pixel grid height.
func (p *Projector) Height() int { return p.height }

// Bounds returns the geographic bounds the projector was built from.
func (p *Projector) Bounds() Bounds { return p.bounds }

// Project maps a geographic point to a pixel coordinate. Points outside the
// bounds are dropped: the second return value is false and the pixel is not
// meaningful. North maps to y=0.
func (p *Projector) Project(lat, lon float64) (Pixel, bool) {
	if !p.bounds.Contains(lat, lon) {
		return Pixel{}, false
	}

	xOffset := (lon - p.bounds.MinLon) / p.bounds.LonSpan()
	yOffset := (p.bounds.MaxLat - lat) / p.bounds.LatSpan()

	x := int(xOffset * float64(p.width))
	y := int(yOffset * float64(p.height))

	// Points exactly on the east/south edge land on the last pixel.
	if x >= p.width {
		x = p.width - 1
	}
	if y >= p.height {
		y = p.height - 1
	}

	return Pixel{X: x, Y: y}, true
}
