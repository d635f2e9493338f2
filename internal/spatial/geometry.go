package spatial

// Point represents a 2D point with latitude and longitude
type Point struct {
	Lat float64
	Lon float64
}

// BoundingBox calculates the bounding box of a set of points
// Returns (minLat, minLon, maxLat, maxLon)
func BoundingBox(points []Point) (float64, float64, float64, float64) {
	if len(points) == 0 {
		return 0, 0, 0, 0
	}

	minLat, maxLat := points[0].Lat, points[0].Lat
	minLon, maxLon := points[0].Lon, points[0].Lon

	for _, p := range points[1:] {
		if p.Lat < minLat {
			minLat = p.Lat
		}
		if p.Lat > maxLat {
			maxLat = p.Lat
		}
		if p.Lon < minLon {
			minLon = p.Lon
		}
		if p.Lon > maxLon {
			maxLon = p.Lon
		}
	}

	return minLat, minLon, maxLat, maxLon
}

// PathLength calculates the total length of a path (sequence of points) in meters
func PathLength(points []Point) float64 {
	if len(points) < 2 {
		return 0
	}

	var totalDist float64
	for i := 1; i < len(points); i++ {
		dist := HaversineDistance(points[i-1].Lat, points[i-1].Lon, points[i].Lat, points[i].Lon)
		totalDist += dist
	}

	return totalDist
}

// ExpandBounds grows a bounding box by the given fraction of each span,
// used when bounds are derived from the tracks themselves so edge points
// don't sit exactly on the border.
func ExpandBounds(b Bounds, fraction float64) Bounds {
	latMargin := b.LatSpan() * fraction
	lonMargin := b.LonSpan() * fraction
	if latMargin == 0 {
		latMargin = 0.001
	}
	if lonMargin == 0 {
		lonMargin = 0.001
	}
	return Bounds{
		MinLat: b.MinLat - latMargin,
		MinLon: b.MinLon - lonMargin,
		MaxLat: b.MaxLat + latMargin,
		MaxLon: b.MaxLon + lonMargin,
	}
}
