// Package smoothing implements a moving-average jitter filter for screen
// positions.
package smoothing

import "github.com/Alia5/wiituio/calibration"

// DefaultSize is the window size used when none is configured.
const DefaultSize = 3

// Buffer is a fixed-capacity window over the most recent points.
// It is not safe for concurrent use.
type Buffer struct {
	window []calibration.Vector
	next   int
	count  int
}

// New returns a Buffer holding up to size points. Sizes below 1 are
// treated as 1, which disables smoothing.
func New(size int) *Buffer {
	if size < 1 {
		size = 1
	}
	return &Buffer{window: make([]calibration.Vector, size)}
}

// Cap returns the window capacity.
func (b *Buffer) Cap() int { return len(b.window) }

// Len returns the number of points currently in the window.
func (b *Buffer) Len() int { return b.count }

// Reset empties the window. It must be called whenever tracking is
// re-acquired so that points from before the gap are not blended in.
func (b *Buffer) Reset() {
	b.next = 0
	b.count = 0
}

// Push adds p, evicting the oldest point once the window is full, and
// returns the mean of the window.
func (b *Buffer) Push(p calibration.Vector) calibration.Vector {
	b.window[b.next] = p
	b.next = (b.next + 1) % len(b.window)
	if b.count < len(b.window) {
		b.count++
	}
	return b.mean()
}

// mean averages relative to the oldest sample so a window of identical
// points yields that point bit-for-bit.
func (b *Buffer) mean() calibration.Vector {
	oldest := (b.next - b.count + len(b.window)) % len(b.window)
	anchor := b.window[oldest]
	var dx, dy float64
	for i := 1; i < b.count; i++ {
		p := b.window[(oldest+i)%len(b.window)]
		dx += p.X - anchor.X
		dy += p.Y - anchor.Y
	}
	n := float64(b.count)
	return calibration.Vector{X: anchor.X + dx/n, Y: anchor.Y + dy/n}
}
