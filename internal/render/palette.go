package render

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// RGB is an 8-bit-per-channel color.
type RGB struct {
	R uint8 `yaml:"r"`
	G uint8 `yaml:"g"`
	B uint8 `yaml:"b"`
}

// Stop is one gradient stop: the color the palette takes at a normalized
// intensity threshold.
type Stop struct {
	Threshold float64 `yaml:"threshold" validate:"gte=0,lte=1"`
	Color     RGB     `yaml:"color"`
}

// Palette is an ordered color gradient mapping normalized density to
// visible color. Thresholds are strictly increasing, the first stop is at
// 0.0 and the last at 1.0.
type Palette struct {
	Stops []Stop `yaml:"stops" validate:"required,min=2,dive"`
}

// Default returns the built-in heat gradient: black through deep red and
// orange to white.
func Default() Palette {
	return Palette{Stops: []Stop{
		{Threshold: 0.0, Color: RGB{0, 0, 0}},
		{Threshold: 0.15, Color: RGB{96, 0, 8}},
		{Threshold: 0.4, Color: RGB{208, 48, 0}},
		{Threshold: 0.7, Color: RGB{255, 160, 16}},
		{Threshold: 0.9, Color: RGB{255, 232, 128}},
		{Threshold: 1.0, Color: RGB{255, 255, 255}},
	}}
}

// Validate enforces the palette invariants beyond what struct tags cover.
func (p Palette) Validate() error {
	v := validator.New()
	if err := v.Struct(p); err != nil {
		return err
	}
	if p.Stops[0].Threshold != 0 {
		return fmt.Errorf("invalid palette: first stop must be at threshold 0.0, got %v", p.Stops[0].Threshold)
	}
	if p.Stops[len(p.Stops)-1].Threshold != 1 {
		return fmt.Errorf("invalid palette: last stop must be at threshold 1.0, got %v", p.Stops[len(p.Stops)-1].Threshold)
	}
	for i := 1; i < len(p.Stops); i++ {
		if p.Stops[i].Threshold <= p.Stops[i-1].Threshold {
			return fmt.Errorf("invalid palette: thresholds must be strictly increasing (stop %d)", i)
		}
	}
	return nil
}

// LoadPalette reads and validates a palette definition from a YAML file.
func LoadPalette(path string) (Palette, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Palette{}, fmt.Errorf("failed to read palette file: %w", err)
	}
	var p Palette
	if err := yaml.Unmarshal(data, &p); err != nil {
		return Palette{}, fmt.Errorf("failed to parse palette file: %w", err)
	}
	if err := p.Validate(); err != nil {
		return Palette{}, err
	}
	return p, nil
}

// Colorize maps a raw accumulator value to a color. value/max is clamped
// into [0,1], the bracketing pair of stops is found, and each channel is
// linearly interpolated by the position between the two thresholds.
// A zero max (empty buffer) maps everything to the 0.0 stop.
func (p Palette) Colorize(value, max float64) RGB {
	var norm float64
	if max > 0 {
		norm = value / max
	}
	if norm <= 0 {
		return p.Stops[0].Color
	}
	if norm >= 1 {
		return p.Stops[len(p.Stops)-1].Color
	}

	for i := 1; i < len(p.Stops); i++ {
		if norm <= p.Stops[i].Threshold {
			lo, hi := p.Stops[i-1], p.Stops[i]
			t := (norm - lo.Threshold) / (hi.Threshold - lo.Threshold)
			return RGB{
				R: lerpChannel(lo.Color.R, hi.Color.R, t),
				G: lerpChannel(lo.Color.G, hi.Color.G, t),
				B: lerpChannel(lo.Color.B, hi.Color.B, t),
			}
		}
	}
	return p.Stops[len(p.Stops)-1].Color
}

func lerpChannel(a, b uint8, t float64) uint8 {
	return uint8(float64(a) + (float64(b)-float64(a))*t + 0.5)
}
