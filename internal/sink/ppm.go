// Package sink writes rendered pixels to their destinations: a PNG file
// for the static heatmap and a raw PPM frame stream for video encoding.
package sink

import (
	"bufio"
	"fmt"
	"image"
	"io"
	"os"
)

// PPMWriter emits binary PPM (P6) frames back-to-back with no inter-frame
// delimiter: a minimal "P6\n<width> <height>\n255\n" header followed by
// row-major RGB triplets. The stream can be piped directly into a video
// encoder, e.g.
//
//	ffmpeg -f image2pipe -vcodec ppm -i stream.ppm out.mp4
type PPMWriter struct {
	w      *bufio.Writer
	closer io.Closer
	buf    []byte
}

// NewPPMWriter wraps a destination stream.
func NewPPMWriter(w io.Writer) *PPMWriter {
	pw := &PPMWriter{w: bufio.NewWriterSize(w, 1<<20)}
	if c, ok := w.(io.Closer); ok {
		pw.closer = c
	}
	return pw
}

// OpenPPMStream opens the destination path for writing. Opening a named
// pipe blocks until a reader attaches, which is the intended backpressure
// behavior.
func OpenPPMStream(path string) (*PPMWriter, error) {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open ppm stream destination: %w", err)
	}
	return NewPPMWriter(f), nil
}

// WriteFrame assembles one complete frame in memory and hands it to the
// destination in a single Write followed by a flush, so the consumer never
// observes a partially written frame. The write blocks while the consumer
// is slower than production.
func (pw *PPMWriter) WriteFrame(img *image.RGBA) error {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()

	need := len(fmt.Sprintf("P6\n%d %d\n255\n", w, h)) + w*h*3
	if cap(pw.buf) < need {
		pw.buf = make([]byte, 0, need)
	}
	frame := pw.buf[:0]
	frame = append(frame, fmt.Sprintf("P6\n%d %d\n255\n", w, h)...)
	for y := 0; y < h; y++ {
		row := img.Pix[y*img.Stride : y*img.Stride+w*4]
		for x := 0; x < w; x++ {
			frame = append(frame, row[x*4], row[x*4+1], row[x*4+2])
		}
	}
	pw.buf = frame[:0]

	if _, err := pw.w.Write(frame); err != nil {
		return fmt.Errorf("failed to write frame: %w", err)
	}
	if err := pw.w.Flush(); err != nil {
		return fmt.Errorf("failed to flush frame: %w", err)
	}
	return nil
}

// Close flushes buffered output and closes the destination when it is
// closable.
func (pw *PPMWriter) Close() error {
	if err := pw.w.Flush(); err != nil {
		return err
	}
	if pw.closer != nil {
		return pw.closer.Close()
	}
	return nil
}
