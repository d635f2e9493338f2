package render

import (
	"image/color"
	"testing"
)

func TestRenderImageMapsCells(t *testing.T) {
	// 2x2 buffer: empty, half, full, over.
	snapshot := []float64{0, 5, 10, 20}
	p := Palette{Stops: []Stop{
		{Threshold: 0.0, Color: RGB{0, 0, 0}},
		{Threshold: 1.0, Color: RGB{200, 100, 50}},
	}}

	img := RenderImage(snapshot, 2, 2, p, 10)

	tests := []struct {
		x, y int
		want color.RGBA
	}{
		{0, 0, color.RGBA{0, 0, 0, 255}},
		{1, 0, color.RGBA{100, 50, 25, 255}},
		{0, 1, color.RGBA{200, 100, 50, 255}},
		{1, 1, color.RGBA{200, 100, 50, 255}},
	}
	for _, tt := range tests {
		if got := img.RGBAAt(tt.x, tt.y); got != tt.want {
			t.Errorf("pixel (%d,%d) = %+v, want %+v", tt.x, tt.y, got, tt.want)
		}
	}
}

func TestRenderImageOpaque(t *testing.T) {
	img := RenderImage(make([]float64, 9), 3, 3, Default(), 0)
	for y := 0; y < 3; y++ {
		for x := 0; x < 3; x++ {
			if img.RGBAAt(x, y).A != 255 {
				t.Fatalf("pixel (%d,%d) not opaque", x, y)
			}
		}
	}
}

func TestUpscaleDimensions(t *testing.T) {
	img := RenderImage(make([]float64, 12), 4, 3, Default(), 0)

	if got := Upscale(img, 1); got != img {
		t.Error("scale 1 should return the image unchanged")
	}

	up := Upscale(img, 3)
	if up.Bounds().Dx() != 12 || up.Bounds().Dy() != 9 {
		t.Fatalf("upscaled bounds = %v, want 12x9", up.Bounds())
	}
}
