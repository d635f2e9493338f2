package models

import (
	"sync/atomic"
	"time"
)

// RunStats collects counters for a single rendering run. All counters are
// safe to update from multiple goroutines.
type RunStats struct {
	FilesSeen      atomic.Int64
	TracksDecoded  atomic.Int64
	DecodeFailures atomic.Int64
	PointsTotal    atomic.Int64
	PointsDropped  atomic.Int64
	FramesWritten  atomic.Int64

	StartedAt  time.Time
	FinishedAt time.Time
}

// RunStatsSnapshot is the JSON-friendly view of RunStats served by the
// status endpoint and stored in the catalog.
type RunStatsSnapshot struct {
	FilesSeen      int64     `json:"filesSeen"`
	TracksDecoded  int64     `json:"tracksDecoded"`
	DecodeFailures int64     `json:"decodeFailures"`
	PointsTotal    int64     `json:"pointsTotal"`
	PointsDropped  int64     `json:"pointsDropped"`
	FramesWritten  int64     `json:"framesWritten"`
	StartedAt      time.Time `json:"startedAt"`
	FinishedAt     time.Time `json:"finishedAt"`
	ElapsedSeconds float64   `json:"elapsedSeconds"`
}

// Snapshot captures the current counter values.
func (s *RunStats) Snapshot() RunStatsSnapshot {
	finished := s.FinishedAt
	elapsed := 0.0
	if !s.StartedAt.IsZero() {
		end := finished
		if end.IsZero() {
			end = time.Now()
		}
		elapsed = end.Sub(s.StartedAt).Seconds()
	}
	return RunStatsSnapshot{
		FilesSeen:      s.FilesSeen.Load(),
		TracksDecoded:  s.TracksDecoded.Load(),
		DecodeFailures: s.DecodeFailures.Load(),
		PointsTotal:    s.PointsTotal.Load(),
		PointsDropped:  s.PointsDropped.Load(),
		FramesWritten:  s.FramesWritten.Load(),
		StartedAt:      s.StartedAt,
		FinishedAt:     finished,
		ElapsedSeconds: elapsed,
	}
}

// IngestRecord describes the outcome of decoding one input file.
type IngestRecord struct {
	Path   string  `json:"path"`
	Status string  `json:"status"` // "ok" or "failed"
	Points int     `json:"points"`
	Meters float64 `json:"meters,omitempty"` // great-circle path length of the track
	Error  string  `json:"error,omitempty"`
}
