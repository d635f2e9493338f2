// Package pipeline orchestrates a rendering run: scan, decode, rasterize,
// animate, and write outputs.
package pipeline

import (
	"context"
	"fmt"
	"image"
	"log"
	"sync"
	"time"

	"github.com/tracklab/trackheat/internal/catalog"
	"github.com/tracklab/trackheat/internal/config"
	"github.com/tracklab/trackheat/internal/gpx"
	"github.com/tracklab/trackheat/internal/metrics"
	"github.com/tracklab/trackheat/internal/models"
	"github.com/tracklab/trackheat/internal/raster"
	"github.com/tracklab/trackheat/internal/render"
	"github.com/tracklab/trackheat/internal/sink"
	"github.com/tracklab/trackheat/internal/spatial"
	"github.com/tracklab/trackheat/internal/timeline"
)

// Engine runs the full pipeline for one configuration. The accumulation
// buffer is owned by the engine and threaded explicitly through the
// stages: the rasterizer is the only writer, the color mapper and sinks
// only ever see snapshots.
type Engine struct {
	cfg       *config.Config
	palette   render.Palette
	collector *metrics.Collector
	cat       *catalog.Catalog

	stats models.RunStats

	mu         sync.Mutex
	finalImage *image.RGBA
}

// New creates an engine. collector and cat may be nil to disable metrics
// and the run catalog.
func New(cfg *config.Config, palette render.Palette, collector *metrics.Collector, cat *catalog.Catalog) *Engine {
	return &Engine{cfg: cfg, palette: palette, collector: collector, cat: cat}
}

// Stats returns a snapshot of the run counters.
func (e *Engine) Stats() models.RunStatsSnapshot {
	return e.stats.Snapshot()
}

// FinalImage returns the rendered static heatmap, or nil before the run
// finishes (or when no static output was requested).
func (e *Engine) FinalImage() *image.RGBA {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.finalImage
}

// Run executes the pipeline. It returns the first fatal error; per-file
// decode failures are logged and skipped. Cancelling the context stops
// ingestion and rasterization promptly and closes the stream destination
// after the last fully-written frame.
func (e *Engine) Run(ctx context.Context) error {
	e.stats.StartedAt = time.Now()
	defer func() { e.stats.FinishedAt = time.Now() }()

	paths, err := gpx.ScanDir(e.cfg.InputDir)
	if err != nil {
		return err
	}
	e.stats.FilesSeen.Store(int64(len(paths)))
	log.Printf("[Pipeline] found %d candidate files in %s", len(paths), e.cfg.InputDir)

	tracks, records, err := e.decodeAll(ctx, paths)
	if err != nil {
		return err
	}
	if len(tracks) == 0 {
		return fmt.Errorf("no tracks decoded from %s: nothing to render", e.cfg.InputDir)
	}

	bounds := e.cfg.Bounds
	if e.cfg.AutoBounds {
		bounds = autoBounds(tracks)
		log.Printf("[Pipeline] derived bounds from tracks: %+v", bounds)
	}

	projector, err := spatial.NewProjector(bounds, e.cfg.Width)
	if err != nil {
		return err
	}
	log.Printf("[Pipeline] grid %dx%d for bounds %+v", projector.Width(), projector.Height(), bounds)

	buffer, err := raster.NewBuffer(projector.Width(), projector.Height(), e.cfg.Intensity)
	if err != nil {
		return err
	}

	var runID int64
	if e.cat != nil {
		runID, err = e.cat.BeginRun(bounds, projector.Width(), projector.Height())
		if err != nil {
			return err
		}
		for _, rec := range records {
			if err := e.cat.RecordFile(runID, rec); err != nil {
				return err
			}
		}
	}

	rasterizer := raster.NewRasterizer(projector, buffer)

	if e.cfg.PPMStream != "" {
		if err := e.streamFrames(ctx, rasterizer, buffer, tracks); err != nil {
			return err
		}
	} else {
		if err := e.rasterizeAll(ctx, rasterizer, tracks); err != nil {
			return err
		}
	}

	if e.cfg.Output != "" {
		if err := e.writeStatic(buffer); err != nil {
			return err
		}
	}

	e.stats.FinishedAt = time.Now()
	if e.cat != nil {
		if err := e.cat.FinishRun(runID, e.stats.Snapshot()); err != nil {
			return err
		}
	}

	s := e.stats.Snapshot()
	log.Printf("[Pipeline] done: %d tracks, %d points (%d dropped), %d frames, %.1fs",
		s.TracksDecoded, s.PointsTotal, s.PointsDropped, s.FramesWritten, s.ElapsedSeconds)
	return nil
}

// decodeAll decodes every candidate file on a bounded worker pool.
// Results keep file order so track indices (and animation tie-breaking)
// are deterministic regardless of worker scheduling.
func (e *Engine) decodeAll(ctx context.Context, paths []string) ([]*models.Track, []models.IngestRecord, error) {
	decoded := make([]*models.Track, len(paths))
	records := make([]models.IngestRecord, len(paths))

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < e.cfg.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				records[i] = e.decodeOne(paths[i], &decoded[i])
			}
		}()
	}

feed:
	for i := range paths {
		select {
		case jobs <- i:
		case <-ctx.Done():
			break feed
		}
	}
	close(jobs)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	var tracks []*models.Track
	for _, t := range decoded {
		if t != nil {
			tracks = append(tracks, t)
		}
	}
	return tracks, records[:len(paths)], nil
}

func (e *Engine) decodeOne(path string, out **models.Track) models.IngestRecord {
	rec := models.IngestRecord{Path: path}

	src, err := gpx.DetectSource(path)
	if err == nil {
		var track *models.Track
		track, err = src.Decode(path)
		if err == nil {
			*out = track
			rec.Status = "ok"
			rec.Points = len(track.Points)
			rec.Meters = trackDistance(track)
			e.stats.TracksDecoded.Add(1)
			e.stats.PointsTotal.Add(int64(len(track.Points)))
			e.collector.IncTracksIngested()
			log.Printf("[Pipeline] decoded %s: %d points, %.1f km", path, rec.Points, rec.Meters/1000)
			return rec
		}
	}

	rec.Status = "failed"
	rec.Error = err.Error()
	e.stats.DecodeFailures.Add(1)
	e.collector.IncDecodeFailures()
	log.Printf("[Pipeline] skipping %s: %v", path, err)
	return rec
}

// rasterizeAll draws tracks into the buffer in parallel. Tracks are
// independent and cell updates are atomic, so the final buffer state does
// not depend on worker interleaving.
func (e *Engine) rasterizeAll(ctx context.Context, rasterizer *raster.Rasterizer, tracks []*models.Track) error {
	jobs := make(chan *models.Track)
	var wg sync.WaitGroup
	for w := 0; w < e.cfg.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for track := range jobs {
				dropped := rasterizer.DrawTrack(track)
				e.stats.PointsDropped.Add(int64(dropped))
				e.collector.AddPointsDropped(dropped)
				e.collector.AddPointsProjected(len(track.Points) - dropped)
			}
		}()
	}

feed:
	for _, track := range tracks {
		select {
		case jobs <- track:
		case <-ctx.Done():
			break feed
		}
	}
	close(jobs)
	wg.Wait()

	return ctx.Err()
}

// streamFrames runs the animation path: build the global timeline, then
// rasterize one frame batch at a time, snapshot, colorize by the
// maximum-so-far, and hand the frame to the capacity-one streamer. The
// send blocks while the consumer is behind, which is the backpressure
// contract: production stalls instead of buffering frames.
func (e *Engine) streamFrames(ctx context.Context, rasterizer *raster.Rasterizer, buffer *raster.Buffer, tracks []*models.Track) error {
	tl, err := timeline.New(tracks, e.cfg.FrameCount())
	if err != nil {
		return err
	}
	log.Printf("[Pipeline] animating %d frames over %s of recorded time", tl.FrameCount(), tl.Span())

	writer, err := sink.OpenPPMStream(e.cfg.PPMStream)
	if err != nil {
		return err
	}
	streamer := sink.NewStreamer(writer)

	lastPixel := make(map[int]spatial.Pixel)
	for i := 0; i < tl.FrameCount(); i++ {
		if err := ctx.Err(); err != nil {
			streamer.Finish()
			return err
		}

		dropped := rasterizer.DrawPoints(tl.Frame(i), lastPixel)
		e.stats.PointsDropped.Add(int64(dropped))
		e.collector.AddPointsDropped(dropped)
		e.collector.AddPointsProjected(len(tl.Frame(i)) - dropped)

		snapshot := buffer.Snapshot()
		img := render.RenderImage(snapshot, buffer.Width(), buffer.Height(), e.palette, buffer.MaxValue())

		start := time.Now()
		if err := streamer.Send(ctx, sink.Frame{Index: i, Image: img}); err != nil {
			streamer.Finish()
			return err
		}
		e.stats.FramesWritten.Add(1)
		e.collector.ObserveFrameWrite(time.Since(start).Seconds())
	}

	if err := streamer.Finish(); err != nil {
		return err
	}
	return nil
}

// writeStatic renders the final buffer state normalized by the global
// maximum and encodes it as PNG.
func (e *Engine) writeStatic(buffer *raster.Buffer) error {
	img := render.RenderImage(buffer.Snapshot(), buffer.Width(), buffer.Height(), e.palette, buffer.MaxValue())
	img = render.Upscale(img, e.cfg.Scale)

	e.mu.Lock()
	e.finalImage = img
	e.mu.Unlock()

	if err := render.WritePNG(e.cfg.Output, img); err != nil {
		return err
	}
	log.Printf("[Pipeline] wrote %s (%dx%d)", e.cfg.Output, img.Bounds().Dx(), img.Bounds().Dy())
	return nil
}

// trackDistance sums the great-circle length of the track's segments.
func trackDistance(t *models.Track) float64 {
	pts := make([]spatial.Point, len(t.Points))
	for i, p := range t.Points {
		pts[i] = spatial.Point{Lat: p.Latitude, Lon: p.Longitude}
	}
	return spatial.PathLength(pts)
}

// autoBounds derives bounds from the corpus itself, with a small margin
// so edge points are not pinned to the border.
func autoBounds(tracks []*models.Track) spatial.Bounds {
	var pts []spatial.Point
	for _, t := range tracks {
		for _, p := range t.Points {
			pts = append(pts, spatial.Point{Lat: p.Latitude, Lon: p.Longitude})
		}
	}
	minLat, minLon, maxLat, maxLon := spatial.BoundingBox(pts)
	return spatial.ExpandBounds(spatial.Bounds{
		MinLat: minLat, MinLon: minLon, MaxLat: maxLat, MaxLon: maxLon,
	}, 0.02)
}
