package sink

import (
	"context"
	"fmt"
	"image"
	"log"
)

// Frame is one rendered animation frame, tagged with its position in the
// timeline. Frames must reach the destination in index order.
type Frame struct {
	Index int
	Image *image.RGBA
}

// Streamer moves frames from the render loop to a FrameWriter through a
// channel of capacity one. Production blocks as soon as one frame is in
// flight and the consumer stalls, so memory stays bounded at O(1) frames
// and no frame is ever dropped or reordered.
type Streamer struct {
	frames chan Frame
	failed chan struct{}
	done   chan struct{}
	err    error
}

// FrameWriter is the destination side of the stream.
type FrameWriter interface {
	WriteFrame(img *image.RGBA) error
	Close() error
}

// NewStreamer starts the writer goroutine over the given destination.
func NewStreamer(w FrameWriter) *Streamer {
	s := &Streamer{
		frames: make(chan Frame, 1),
		failed: make(chan struct{}),
		done:   make(chan struct{}),
	}

	go func() {
		defer close(s.done)
		next := 0
		for frame := range s.frames {
			if frame.Index != next {
				s.fail(fmt.Errorf("frame %d arrived out of order, expected %d", frame.Index, next))
				continue
			}
			next++
			if s.err != nil {
				continue // drain so the producer never deadlocks
			}
			if err := w.WriteFrame(frame.Image); err != nil {
				s.fail(err)
			}
		}
		if err := w.Close(); err != nil && s.err == nil {
			s.err = fmt.Errorf("failed to close stream destination: %w", err)
		}
	}()

	return s
}

func (s *Streamer) fail(err error) {
	if s.err == nil {
		s.err = err
		close(s.failed)
		log.Printf("[Streamer] write failed: %v", err)
	}
}

// Send hands a frame to the writer, blocking until the writer has room.
// It returns early when the context is cancelled or the writer has
// already failed.
func (s *Streamer) Send(ctx context.Context, frame Frame) error {
	select {
	case s.frames <- frame:
		return nil
	case <-s.failed:
		return s.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Finish signals that no more frames are coming, waits for the writer to
// flush and close the destination, and reports the first write error.
func (s *Streamer) Finish() error {
	close(s.frames)
	<-s.done
	return s.err
}
