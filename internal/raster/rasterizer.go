package raster

import (
	"github.com/tracklab/trackheat/internal/models"
	"github.com/tracklab/trackheat/internal/spatial"
)

// Rasterizer draws tracks into a shared accumulation buffer. It holds no
// per-track state, so a single instance can be used from multiple workers.
type Rasterizer struct {
	projector *spatial.Projector
	buffer    *Buffer
}

// NewRasterizer creates a rasterizer over the given projector and buffer.
// The buffer dimensions must match the projector grid.
func NewRasterizer(projector *spatial.Projector, buffer *Buffer) *Rasterizer {
	return &Rasterizer{projector: projector, buffer: buffer}
}

// DrawTrack rasterizes every consecutive point pair of the track.
// It returns the number of points that projected outside the bounds.
//
// Segments with either endpoint outside the bounds are skipped entirely;
// there is no partial clipping against the bounds edge. A track reduced to
// a single in-bounds point still marks that one pixel.
func (r *Rasterizer) DrawTrack(track *models.Track) (dropped int) {
	var prevPx spatial.Pixel
	seeded := false
	for _, p := range track.Points {
		px, ok := r.projector.Project(p.Latitude, p.Longitude)
		if !ok {
			dropped++
			// Both segments touching an out-of-bounds point are skipped.
			seeded = false
			continue
		}
		if seeded {
			r.drawSegment(prevPx, px)
		} else {
			r.buffer.Add(px.X, px.Y, 1.0)
			seeded = true
		}
		prevPx = px
	}
	return dropped
}

// DrawPoints rasterizes an already-projected batch of points as isolated
// segments between consecutive points of the same track. Used by the
// animation path, where points arrive in global timestamp order and each
// batch may interleave many tracks.
func (r *Rasterizer) DrawPoints(points []models.TimedPoint, last map[int]spatial.Pixel) (dropped int) {
	for _, tp := range points {
		px, ok := r.projector.Project(tp.Point.Latitude, tp.Point.Longitude)
		if !ok {
			dropped++
			// An out-of-bounds point breaks the track's polyline: the
			// segments on both sides of it are skipped.
			delete(last, tp.Track)
			continue
		}
		if prev, seen := last[tp.Track]; seen {
			r.drawSegment(prev, px)
		} else {
			r.buffer.Add(px.X, px.Y, 1.0)
		}
		last[tp.Track] = px
	}
	return dropped
}

// drawSegment walks the discrete line between two pixels with Bresenham's
// algorithm, adding one unit of raw weight to every pixel it crosses.
// The starting pixel is excluded when it differs from the end pixel, so a
// polyline accumulates each interior vertex exactly once.
func (r *Rasterizer) drawSegment(from, to spatial.Pixel) {
	x0, y0 := from.X, from.Y
	x1, y1 := to.X, to.Y

	dx := abs(x1 - x0)
	dy := -abs(y1 - y0)
	sx := 1
	if x0 > x1 {
		sx = -1
	}
	sy := 1
	if y0 > y1 {
		sy = -1
	}
	err := dx + dy

	first := true
	for {
		if !first || (x0 == x1 && y0 == y1) {
			r.buffer.Add(x0, y0, 1.0)
		}
		first = false
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
