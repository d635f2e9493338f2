package config

import (
	"testing"

	"github.com/tracklab/trackheat/internal/spatial"
)

func validConfig() *Config {
	c := Defaults()
	c.InputDir = "/tmp/tracks"
	c.Output = "/tmp/heatmap.png"
	c.Bounds = spatial.Bounds{MinLat: 0, MinLon: 0, MaxLat: 10, MaxLon: 10}
	return c
}

func TestValidateAcceptsCompleteConfig(t *testing.T) {
	if err := validConfig().Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}
}

func TestValidateRejections(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing input dir", func(c *Config) { c.InputDir = "" }},
		{"zero width", func(c *Config) { c.Width = 0 }},
		{"zero scale", func(c *Config) { c.Scale = 0 }},
		{"zero intensity", func(c *Config) { c.Intensity = 0 }},
		{"zero workers", func(c *Config) { c.Workers = 0 }},
		{"no outputs", func(c *Config) { c.Output, c.PPMStream = "", "" }},
		{"inverted bounds", func(c *Config) { c.Bounds.MaxLat = -5 }},
		{"stream without frame rate", func(c *Config) {
			c.PPMStream = "/tmp/stream.ppm"
			c.FrameRate = 0
		}},
		{"stream without duration", func(c *Config) {
			c.PPMStream = "/tmp/stream.ppm"
			c.VideoDuration = 0
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validConfig()
			tt.mutate(c)
			if err := c.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestValidateAutoBoundsSkipsBoundsCheck(t *testing.T) {
	c := validConfig()
	c.Bounds = spatial.Bounds{}
	c.AutoBounds = true
	if err := c.Validate(); err != nil {
		t.Fatalf("auto-bounds config rejected: %v", err)
	}
}

func TestFrameCount(t *testing.T) {
	tests := []struct {
		rate, duration float64
		want           int
	}{
		{30, 60, 1800},
		{24, 10, 240},
		{29.97, 10, 300},
		{0.5, 0.5, 1}, // rounds down to zero, clamped to one frame
	}
	for _, tt := range tests {
		c := &Config{FrameRate: tt.rate, VideoDuration: tt.duration}
		if got := c.FrameCount(); got != tt.want {
			t.Errorf("FrameCount(%v fps, %vs) = %d, want %d", tt.rate, tt.duration, got, tt.want)
		}
	}
}
