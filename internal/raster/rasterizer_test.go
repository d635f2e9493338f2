package raster

import (
	"testing"
	"time"

	"github.com/tracklab/trackheat/internal/models"
	"github.com/tracklab/trackheat/internal/spatial"
)

func testGrid(t *testing.T) (*spatial.Projector, *Buffer) {
	t.Helper()
	p, err := spatial.NewProjector(spatial.Bounds{MinLat: 0, MinLon: 0, MaxLat: 10, MaxLon: 10}, 10)
	if err != nil {
		t.Fatal(err)
	}
	b, err := NewBuffer(p.Width(), p.Height(), 1)
	if err != nil {
		t.Fatal(err)
	}
	return p, b
}

func litPixels(b *Buffer) []spatial.Pixel {
	var lit []spatial.Pixel
	for y := 0; y < b.Height(); y++ {
		for x := 0; x < b.Width(); x++ {
			if b.At(x, y) > 0 {
				lit = append(lit, spatial.Pixel{X: x, Y: y})
			}
		}
	}
	return lit
}

func track(points ...[2]float64) *models.Track {
	tr := &models.Track{Name: "test"}
	base := time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)
	for i, p := range points {
		tr.Points = append(tr.Points, models.GeoPoint{
			Latitude:  p[0],
			Longitude: p[1],
			Timestamp: base.Add(time.Duration(i) * time.Second),
		})
	}
	return tr
}

func TestDrawTrackHorizontalLine(t *testing.T) {
	p, b := testGrid(t)
	r := NewRasterizer(p, b)

	dropped := r.DrawTrack(track([2]float64{9.5, 0.5}, [2]float64{9.5, 9.5}))
	if dropped != 0 {
		t.Fatalf("dropped = %d, want 0", dropped)
	}

	lit := litPixels(b)
	if len(lit) != 10 {
		t.Fatalf("lit %d pixels, want a contiguous 10-pixel row: %v", len(lit), lit)
	}
	for i, px := range lit {
		if px.Y != 0 || px.X != i {
			t.Fatalf("unexpected lit pixel %+v at position %d", px, i)
		}
	}
}

func TestDrawTrackDiagonalIsContiguous(t *testing.T) {
	p, b := testGrid(t)
	r := NewRasterizer(p, b)

	r.DrawTrack(track([2]float64{0.5, 0.5}, [2]float64{9.5, 9.5}))

	lit := litPixels(b)
	if len(lit) == 0 {
		t.Fatal("no pixels lit")
	}
	// Every step between consecutive lit pixels of a Bresenham line moves
	// at most one cell in each direction.
	for i := 1; i < len(lit); i++ {
		dx := lit[i].X - lit[i-1].X
		dy := lit[i].Y - lit[i-1].Y
		if dx < -1 || dx > 1 || dy < -1 || dy > 1 {
			t.Fatalf("gap between %+v and %+v", lit[i-1], lit[i])
		}
	}
}

func TestDrawTrackSinglePoint(t *testing.T) {
	p, b := testGrid(t)
	r := NewRasterizer(p, b)

	r.DrawTrack(track([2]float64{5, 5}))

	if lit := litPixels(b); len(lit) != 1 {
		t.Fatalf("lit %d pixels, want 1", len(lit))
	}
}

func TestDrawTrackSkipsOutOfBoundsSegments(t *testing.T) {
	p, b := testGrid(t)
	r := NewRasterizer(p, b)

	// Three colinear points crossing the west bound: the segment touching
	// the outside point contributes nothing, the inside segment is a
	// contiguous horizontal run.
	dropped := r.DrawTrack(track(
		[2]float64{5, -5},
		[2]float64{5, 2},
		[2]float64{5, 8},
	))
	if dropped != 1 {
		t.Fatalf("dropped = %d, want 1", dropped)
	}

	lit := litPixels(b)
	if len(lit) != 7 {
		t.Fatalf("lit %d pixels, want 7 (x=2..8): %v", len(lit), lit)
	}
	for i, px := range lit {
		if px.Y != 5 || px.X != 2+i {
			t.Fatalf("unexpected lit pixel %+v", px)
		}
	}
}

func TestDrawTrackAllOutside(t *testing.T) {
	p, b := testGrid(t)
	r := NewRasterizer(p, b)

	dropped := r.DrawTrack(track([2]float64{-5, -5}, [2]float64{-5, 20}))
	if dropped != 2 {
		t.Fatalf("dropped = %d, want 2", dropped)
	}
	if lit := litPixels(b); len(lit) != 0 {
		t.Fatalf("out-of-bounds track lit %d pixels", len(lit))
	}
}

func TestDrawTrackInteriorVertexCountedOnce(t *testing.T) {
	p, b := testGrid(t)
	r := NewRasterizer(p, b)

	// Two segments share the vertex at (5,5); the shared pixel must
	// accumulate a single hit, like every other pixel on the polyline.
	r.DrawTrack(track(
		[2]float64{5, 0.5},
		[2]float64{5, 5},
		[2]float64{5, 9.5},
	))

	first := b.At(0, 5)
	corner := b.At(5, 5)
	if corner != first {
		t.Errorf("interior vertex value %v differs from line value %v", corner, first)
	}
}

func TestDrawPointsSeedsPerTrack(t *testing.T) {
	p, b := testGrid(t)
	r := NewRasterizer(p, b)

	base := time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)
	batch := []models.TimedPoint{
		{Track: 0, Index: 0, Point: models.GeoPoint{Latitude: 9.5, Longitude: 0.5, Timestamp: base}},
		{Track: 1, Index: 0, Point: models.GeoPoint{Latitude: 0.5, Longitude: 0.5, Timestamp: base}},
	}
	last := make(map[int]spatial.Pixel)
	if dropped := r.DrawPoints(batch, last); dropped != 0 {
		t.Fatalf("dropped = %d", dropped)
	}
	if lit := litPixels(b); len(lit) != 2 {
		t.Fatalf("lit %d pixels, want 2 isolated seeds", len(lit))
	}

	// The next batch continues both polylines from their remembered pixels.
	batch = []models.TimedPoint{
		{Track: 0, Index: 1, Point: models.GeoPoint{Latitude: 9.5, Longitude: 9.5, Timestamp: base.Add(time.Second)}},
		{Track: 1, Index: 1, Point: models.GeoPoint{Latitude: 0.5, Longitude: 9.5, Timestamp: base.Add(time.Second)}},
	}
	if dropped := r.DrawPoints(batch, last); dropped != 0 {
		t.Fatalf("dropped = %d", dropped)
	}
	if lit := litPixels(b); len(lit) != 20 {
		t.Fatalf("lit %d pixels, want two full 10-pixel rows", len(lit))
	}
}

func TestDrawPointsOutOfBoundsBreaksPolyline(t *testing.T) {
	p, b := testGrid(t)
	r := NewRasterizer(p, b)

	base := time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)
	last := make(map[int]spatial.Pixel)
	batch := []models.TimedPoint{
		{Track: 0, Index: 0, Point: models.GeoPoint{Latitude: 5, Longitude: 2, Timestamp: base}},
		{Track: 0, Index: 1, Point: models.GeoPoint{Latitude: 5, Longitude: 15, Timestamp: base.Add(time.Second)}},
		{Track: 0, Index: 2, Point: models.GeoPoint{Latitude: 5, Longitude: 8, Timestamp: base.Add(2 * time.Second)}},
	}
	if dropped := r.DrawPoints(batch, last); dropped != 1 {
		t.Fatalf("dropped = %d, want 1", dropped)
	}

	// Only the two isolated seeds are lit: both segments touching the
	// out-of-bounds point were skipped.
	if lit := litPixels(b); len(lit) != 2 {
		t.Fatalf("lit %d pixels, want 2: %v", len(lit), lit)
	}
}
