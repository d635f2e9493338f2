// Package timeline orders track points globally by timestamp and
// partitions them into animation frames.
package timeline

import (
	"fmt"
	"sort"
	"time"

	"github.com/tracklab/trackheat/internal/models"
)

// Timeline is the global timestamp-ordered sequence of every point of
// every track, partitioned into frames that each cover an equal fraction
// of the recorded time span. Frames near a burst of closely-spaced samples
// therefore contain more points than frames during sparse periods.
//
// Building a timeline requires every track to be ingested first: the
// global sort cannot finalize any frame until the last track is known
// (batch mode).
type Timeline struct {
	points []models.TimedPoint
	frames [][]models.TimedPoint
	start  time.Time
	span   time.Duration
}

// New merges the tracks into one ordered sequence and splits it into
// frameCount frames. Ties are broken stably: track ingest order first,
// then point order within the track. If the whole corpus spans zero time
// (a single point, or all points simultaneous) the timeline collapses to
// a single frame carrying every point.
func New(tracks []*models.Track, frameCount int) (*Timeline, error) {
	if frameCount <= 0 {
		return nil, fmt.Errorf("invalid frame count %d: must be positive", frameCount)
	}

	var points []models.TimedPoint
	for ti, track := range tracks {
		for pi, p := range track.Points {
			points = append(points, models.TimedPoint{Track: ti, Index: pi, Point: p})
		}
	}
	if len(points) == 0 {
		return nil, fmt.Errorf("no points to animate")
	}

	// The gather order is already track order then point order, so a
	// stable sort by timestamp gives the documented tie-break.
	sort.SliceStable(points, func(i, j int) bool {
		return points[i].Point.Timestamp.Before(points[j].Point.Timestamp)
	})

	start := points[0].Point.Timestamp
	span := points[len(points)-1].Point.Timestamp.Sub(start)
	if span == 0 {
		frameCount = 1
	}

	tl := &Timeline{points: points, start: start, span: span}
	tl.partition(frameCount)
	return tl, nil
}

// partition slices the ordered sequence into frameCount sub-slices.
// Frame i covers timestamps in [start+i·span/N, start+(i+1)·span/N); the
// last frame additionally includes the final instant, so every point lands
// in exactly one frame.
func (tl *Timeline) partition(frameCount int) {
	tl.frames = make([][]models.TimedPoint, frameCount)
	cursor := 0
	for i := 0; i < frameCount; i++ {
		if i == frameCount-1 {
			tl.frames[i] = tl.points[cursor:]
			break
		}
		boundary := tl.start.Add(time.Duration(float64(tl.span) * float64(i+1) / float64(frameCount)))
		from := cursor
		for cursor < len(tl.points) && tl.points[cursor].Point.Timestamp.Before(boundary) {
			cursor++
		}
		tl.frames[i] = tl.points[from:cursor]
	}
}

// FrameCount returns the number of frames.
func (tl *Timeline) FrameCount() int { return len(tl.frames) }

// Frame returns the point batch for frame i. Batches are views into the
// shared ordered sequence; callers must not mutate them.
func (tl *Timeline) Frame(i int) []models.TimedPoint { return tl.frames[i] }

// Span returns the recorded time span covered by the timeline.
func (tl *Timeline) Span() time.Duration { return tl.span }

// Start returns the timestamp of the earliest point.
func (tl *Timeline) Start() time.Time { return tl.start }
