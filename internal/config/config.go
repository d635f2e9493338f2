// Package config holds the renderer's run configuration, assembled from
// command-line flags with environment fallbacks for the optional service
// surfaces.
package config

import (
	"fmt"
	"os"
	"runtime"

	"github.com/go-playground/validator/v10"

	"github.com/tracklab/trackheat/internal/spatial"
)

// Config is the full run configuration. All values are fixed before any
// processing starts.
type Config struct {
	// Region and grid
	Bounds     spatial.Bounds
	AutoBounds bool // bounds derived from the tracks when none were given
	Width      int  `validate:"gt=0"`

	// Outputs
	Output        string  // static PNG path, optional
	PPMStream     string  // streaming destination path, optional
	FrameRate     float64 // frames per second of output video
	VideoDuration float64 // seconds of output video the animation spans
	Scale         int     `validate:"gte=1"` // integer upscale of the static image

	// Rasterization
	Intensity float64 `validate:"gt=0"`
	Workers   int     `validate:"gte=1"`

	// Inputs
	InputDir    string `validate:"required"`
	PalettePath string

	// Optional service surfaces
	CatalogPath string
	ServeAddr   string
}

// Defaults returns a config with every tunable at its default value.
func Defaults() *Config {
	return &Config{
		Width:         1000,
		FrameRate:     30,
		VideoDuration: 60,
		Scale:         1,
		Intensity:     1.0,
		Workers:       runtime.NumCPU(),
		CatalogPath:   os.Getenv("TRACKHEAT_CATALOG"),
		ServeAddr:     os.Getenv("TRACKHEAT_SERVE"),
	}
}

// Validate rejects configurations that cannot produce output. Called once
// at startup; any error is fatal before processing begins.
func (c *Config) Validate() error {
	v := validator.New()
	if err := v.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if !c.AutoBounds {
		if err := c.Bounds.Validate(); err != nil {
			return err
		}
	}

	if c.Output == "" && c.PPMStream == "" {
		return fmt.Errorf("nothing to do: set at least one of -output and -ppm-stream")
	}

	if c.PPMStream != "" {
		if c.FrameRate <= 0 {
			return fmt.Errorf("invalid frame rate %v: must be positive when -ppm-stream is set", c.FrameRate)
		}
		if c.VideoDuration <= 0 {
			return fmt.Errorf("invalid video duration %v: must be positive when -ppm-stream is set", c.VideoDuration)
		}
	}

	return nil
}

// FrameCount returns the number of animation frames the run will emit.
func (c *Config) FrameCount() int {
	n := int(c.FrameRate*c.VideoDuration + 0.5)
	if n < 1 {
		n = 1
	}
	return n
}
