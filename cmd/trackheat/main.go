package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math"
	"os"
	"os/signal"
	"syscall"

	"github.com/tracklab/trackheat/internal/api"
	"github.com/tracklab/trackheat/internal/catalog"
	"github.com/tracklab/trackheat/internal/config"
	"github.com/tracklab/trackheat/internal/metrics"
	"github.com/tracklab/trackheat/internal/pipeline"
	"github.com/tracklab/trackheat/internal/render"
	"github.com/tracklab/trackheat/internal/spatial"
)

func main() {
	cfg := config.Defaults()

	minLat := flag.Float64("min-lat", math.NaN(), "south edge of the rendered region (degrees)")
	minLon := flag.Float64("min-lon", math.NaN(), "west edge of the rendered region (degrees)")
	maxLat := flag.Float64("max-lat", math.NaN(), "north edge of the rendered region (degrees)")
	maxLon := flag.Float64("max-lon", math.NaN(), "east edge of the rendered region (degrees)")
	flag.IntVar(&cfg.Width, "width", cfg.Width, "output width in pixels; height follows the bounds' aspect ratio")
	flag.StringVar(&cfg.Output, "output", "", "static heatmap PNG path")
	flag.StringVar(&cfg.PPMStream, "ppm-stream", "", "destination (file or named pipe) for the raw PPM frame stream")
	flag.Float64Var(&cfg.FrameRate, "frame-rate", cfg.FrameRate, "animation frames per second of output video")
	flag.Float64Var(&cfg.VideoDuration, "video-duration", cfg.VideoDuration, "seconds of output video the animation spans")
	flag.Float64Var(&cfg.Intensity, "intensity", cfg.Intensity, "saturation constant for density accumulation")
	flag.IntVar(&cfg.Scale, "scale", cfg.Scale, "integer upscale factor for the static image")
	flag.IntVar(&cfg.Workers, "workers", cfg.Workers, "decode/rasterize worker count")
	flag.StringVar(&cfg.PalettePath, "palette", "", "YAML palette file (default: built-in heat gradient)")
	flag.StringVar(&cfg.CatalogPath, "catalog", cfg.CatalogPath, "SQLite run catalog path (empty: disabled)")
	flag.StringVar(&cfg.ServeAddr, "serve", cfg.ServeAddr, "serve the rendered artifact and status API on this address after the run")
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() != 1 {
		usage()
		os.Exit(2)
	}
	cfg.InputDir = flag.Arg(0)

	boundsSet := 0
	for _, v := range []float64{*minLat, *minLon, *maxLat, *maxLon} {
		if !math.IsNaN(v) {
			boundsSet++
		}
	}
	switch boundsSet {
	case 0:
		cfg.AutoBounds = true
	case 4:
		cfg.Bounds = spatial.Bounds{MinLat: *minLat, MinLon: *minLon, MaxLat: *maxLat, MaxLon: *maxLon}
	default:
		log.Fatal("either all four bounds flags must be set, or none (bounds are then derived from the tracks)")
	}

	if err := cfg.Validate(); err != nil {
		log.Fatal(err)
	}

	palette := render.Default()
	if cfg.PalettePath != "" {
		var err error
		palette, err = render.LoadPalette(cfg.PalettePath)
		if err != nil {
			log.Fatal(err)
		}
	}

	collector, err := metrics.NewCollector(nil)
	if err != nil {
		log.Fatal(err)
	}

	var cat *catalog.Catalog
	if cfg.CatalogPath != "" {
		cat, err = catalog.Open(cfg.CatalogPath)
		if err != nil {
			log.Fatal(err)
		}
		defer cat.Close()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	engine := pipeline.New(cfg, palette, collector, cat)
	if err := engine.Run(ctx); err != nil {
		if ctx.Err() != nil {
			log.Printf("interrupted: %v", err)
			return
		}
		log.Fatal(err)
	}

	if cfg.ServeAddr != "" {
		router := api.SetupRouter(engine, cat, collector)
		log.Printf("serving rendered artifact on %s", cfg.ServeAddr)
		if err := router.Run(cfg.ServeAddr); err != nil {
			log.Fatal(err)
		}
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, `trackheat - render activity-track heatmaps

Usage:
  trackheat [flags] <input-directory>

The input directory is scanned for track files (GPX). At least one of
-output and -ppm-stream must be given. The PPM stream can be piped into a
video encoder:

  mkfifo frames.ppm
  trackheat -ppm-stream frames.ppm -frame-rate 30 -video-duration 45 ./tracks &
  ffmpeg -f image2pipe -vcodec ppm -i frames.ppm heatmap.mp4

Flags:
`)
	flag.PrintDefaults()
}
