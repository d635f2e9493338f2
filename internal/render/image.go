package render

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"

	xdraw "golang.org/x/image/draw"
)

// RenderImage colorizes a buffer snapshot into an RGBA image. max is the
// normalization ceiling; the caller decides whether it is the global
// maximum (static output) or the maximum-so-far (animation frames) and
// must not mix the two within one run.
func RenderImage(snapshot []float64, width, height int, palette Palette, max float64) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		row := y * width
		for x := 0; x < width; x++ {
			c := palette.Colorize(snapshot[row+x], max)
			img.SetRGBA(x, y, color.RGBA{R: c.R, G: c.G, B: c.B, A: 255})
		}
	}
	return img
}

// Upscale resamples the image by an integer factor with Catmull-Rom
// interpolation, for display-sized static output. scale 1 returns the
// image unchanged.
func Upscale(img *image.RGBA, scale int) *image.RGBA {
	if scale <= 1 {
		return img
	}
	b := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx()*scale, b.Dy()*scale))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), img, b, xdraw.Over, nil)
	return dst
}

// WritePNG encodes the image to the given path.
func WritePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create image file: %w", err)
	}
	defer f.Close()

	if err := png.Encode(f, img); err != nil {
		return fmt.Errorf("failed to encode png: %w", err)
	}
	return nil
}
