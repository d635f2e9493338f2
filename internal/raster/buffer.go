package raster

import (
	"fmt"
	"math"
	"sync/atomic"
)

// Buffer is the per-pixel density grid underlying the heatmap: a dense
// width×height grid of non-negative float64 accumulators. Dimensions are
// fixed at construction and the grid never reallocates. Cell updates are
// lock-free compare-and-swap on the float bits, so rasterizer workers can
// add to distinct or shared cells concurrently without lost updates, and
// readers never observe a torn value.
type Buffer struct {
	width     int
	height    int
	intensity float64
	cells     []uint64 // float64 bits
}

// NewBuffer creates an all-zero buffer. intensity is the saturation
// constant K described in Add; it must be positive.
func NewBuffer(width, height int, intensity float64) (*Buffer, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid buffer dimensions %dx%d", width, height)
	}
	if intensity <= 0 {
		return nil, fmt.Errorf("invalid intensity constant %v: must be positive", intensity)
	}
	return &Buffer{
		width:     width,
		height:    height,
		intensity: intensity,
		cells:     make([]uint64, width*height),
	}, nil
}

// Width returns the grid width.
func (b *Buffer) Width() int { return b.width }

// Height returns the grid height.
func (b *Buffer) Height() int { return b.height }

// Intensity returns the saturation constant.
func (b *Buffer) Intensity() float64 { return b.intensity }

// Add accumulates raw weight into a cell with diminishing returns.
//
// A cell that has received total raw weight A holds exactly K·ln(1+A),
// where K is the intensity constant. The update is the closed form
//
//	v' = K·ln(exp(v/K) + amount)
//
// which is associative: the final value depends only on the total weight
// delivered, not on how it was split across hits or which worker delivered
// it. Per-hit deltas are strictly decreasing, and the marginal contribution
// at value v is K/exp(v/K) ≈ K/(1+v/K), so heavily-traveled cells keep
// ranking highest without blowing out the dynamic range.
//
// amount must be positive; values are monotonically non-decreasing.
func (b *Buffer) Add(x, y int, amount float64) {
	if x < 0 || x >= b.width || y < 0 || y >= b.height || amount <= 0 {
		return
	}
	addr := &b.cells[y*b.width+x]
	for {
		oldBits := atomic.LoadUint64(addr)
		old := math.Float64frombits(oldBits)
		next := b.intensity * math.Log(math.Exp(old/b.intensity)+amount)
		if next <= old {
			// Guard against float rounding on huge accumulations.
			return
		}
		if atomic.CompareAndSwapUint64(addr, oldBits, math.Float64bits(next)) {
			return
		}
	}
}

// At returns the current value of a cell.
func (b *Buffer) At(x, y int) float64 {
	return math.Float64frombits(atomic.LoadUint64(&b.cells[y*b.width+x]))
}

// Snapshot returns a point-in-time copy of the grid in row-major order.
// Individual cells are read atomically, so a snapshot taken while writers
// are still running contains no torn values.
func (b *Buffer) Snapshot() []float64 {
	out := make([]float64, len(b.cells))
	for i := range b.cells {
		out[i] = math.Float64frombits(atomic.LoadUint64(&b.cells[i]))
	}
	return out
}

// MaxValue returns the current maximum cell value, used for normalization.
func (b *Buffer) MaxValue() float64 {
	var max float64
	for i := range b.cells {
		v := math.Float64frombits(atomic.LoadUint64(&b.cells[i]))
		if v > max {
			max = v
		}
	}
	return max
}
