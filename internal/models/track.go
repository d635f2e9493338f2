package models

import "time"

// GeoPoint represents a single recorded GPS fix
type GeoPoint struct {
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Timestamp time.Time `json:"timestamp"`
}

// Track represents one activity: a time-ordered sequence of GPS fixes
// decoded from a single input file. Timestamps are non-decreasing.
type Track struct {
	Name   string     `json:"name"`
	Source string     `json:"source"` // path of the file the track was decoded from
	Points []GeoPoint `json:"points"`
}

// Span returns the recorded time span of the track. Tracks with fewer
// than two points have a zero span.
func (t *Track) Span() time.Duration {
	if len(t.Points) < 2 {
		return 0
	}
	return t.Points[len(t.Points)-1].Timestamp.Sub(t.Points[0].Timestamp)
}

// TimedPoint is a track point tagged with its origin for stable global
// ordering: track index in ingest order, then point index within the track.
type TimedPoint struct {
	Track int
	Index int
	Point GeoPoint
}
