// Package metrics bundles Prometheus instrumentation for the rendering
// pipeline.
package metrics

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector holds the pipeline's Prometheus metrics. A nil *Collector is
// valid and records nothing, so the pipeline can run uninstrumented.
type Collector struct {
	gatherer prometheus.Gatherer

	TracksIngested  prometheus.Counter
	DecodeFailures  prometheus.Counter
	PointsProjected prometheus.Counter
	PointsDropped   prometheus.Counter
	FramesWritten   prometheus.Counter
	FrameWriteTime  prometheus.Histogram
}

// NewCollector registers the pipeline metrics against the provided
// registerer, defaulting to the global Prometheus registry when nil.
func NewCollector(reg prometheus.Registerer) (*Collector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	tracks, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "trackheat_tracks_ingested_total",
		Help: "Number of input files successfully decoded into tracks.",
	}), "trackheat_tracks_ingested_total")
	if err != nil {
		return nil, err
	}
	failures, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "trackheat_decode_failures_total",
		Help: "Number of input files that failed to decode and were skipped.",
	}), "trackheat_decode_failures_total")
	if err != nil {
		return nil, err
	}
	projected, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "trackheat_points_projected_total",
		Help: "Number of track points that projected inside the bounds.",
	}), "trackheat_points_projected_total")
	if err != nil {
		return nil, err
	}
	dropped, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "trackheat_points_dropped_total",
		Help: "Number of track points dropped for falling outside the bounds.",
	}), "trackheat_points_dropped_total")
	if err != nil {
		return nil, err
	}
	frames, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "trackheat_frames_written_total",
		Help: "Number of animation frames written to the stream destination.",
	}), "trackheat_frames_written_total")
	if err != nil {
		return nil, err
	}

	writeTime := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "trackheat_frame_write_seconds",
		Help:    "Time spent writing one frame to the stream destination.",
		Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 10},
	})
	if err := reg.Register(writeTime); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Histogram); ok {
				writeTime = existing
			} else {
				return nil, fmt.Errorf("collector trackheat_frame_write_seconds already registered with incompatible type")
			}
		} else {
			return nil, err
		}
	}

	return &Collector{
		gatherer:        gatherer,
		TracksIngested:  tracks,
		DecodeFailures:  failures,
		PointsProjected: projected,
		PointsDropped:   dropped,
		FramesWritten:   frames,
		FrameWriteTime:  writeTime,
	}, nil
}

// Handler exposes a ready-to-use /metrics handler.
func (c *Collector) Handler() http.Handler {
	gatherer := prometheus.DefaultGatherer
	if c != nil && c.gatherer != nil {
		gatherer = c.gatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// IncTracksIngested records one successfully decoded track.
func (c *Collector) IncTracksIngested() {
	if c != nil && c.TracksIngested != nil {
		c.TracksIngested.Inc()
	}
}

// IncDecodeFailures records one skipped input file.
func (c *Collector) IncDecodeFailures() {
	if c != nil && c.DecodeFailures != nil {
		c.DecodeFailures.Inc()
	}
}

// AddPointsProjected records points that landed inside the bounds.
func (c *Collector) AddPointsProjected(n int) {
	if c != nil && c.PointsProjected != nil && n > 0 {
		c.PointsProjected.Add(float64(n))
	}
}

// AddPointsDropped records points that fell outside the bounds.
func (c *Collector) AddPointsDropped(n int) {
	if c != nil && c.PointsDropped != nil && n > 0 {
		c.PointsDropped.Add(float64(n))
	}
}

// ObserveFrameWrite records one written frame and its write duration.
func (c *Collector) ObserveFrameWrite(seconds float64) {
	if c == nil {
		return
	}
	if c.FramesWritten != nil {
		c.FramesWritten.Inc()
	}
	if c.FrameWriteTime != nil {
		c.FrameWriteTime.Observe(seconds)
	}
}

func registerCounter(reg prometheus.Registerer, c prometheus.Counter, name string) (prometheus.Counter, error) {
	if err := reg.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Counter); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return c, nil
}
