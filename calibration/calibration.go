// Package calibration maps raw pointer sensor coordinates to screen space
// using a user-defined quadrilateral.
package calibration

import (
	"errors"
	"fmt"
	"math"
)

// ErrDegenerate is returned for rectangles that cannot be inverted.
var ErrDegenerate = errors.New("degenerate calibration rectangle")

const epsilon = 1e-9

// Vector is a 2-D coordinate.
type Vector struct {
	X float64 `json:"x" yaml:"x" toml:"x"`
	Y float64 `json:"y" yaml:"y" toml:"y"`
}

func (v Vector) Add(o Vector) Vector { return Vector{v.X + o.X, v.Y + o.Y} }
func (v Vector) Sub(o Vector) Vector { return Vector{v.X - o.X, v.Y - o.Y} }
func (v Vector) Scale(f float64) Vector { return Vector{v.X * f, v.Y * f} }
func (v Vector) cross(o Vector) float64 { return v.X*o.Y - v.Y*o.X }
func (v Vector) Finite() bool { return !math.IsNaN(v.X) && !math.IsNaN(v.Y) && !math.IsInf(v.X, 0) && !math.IsInf(v.Y, 0) }
func (v Vector) String() string { return fmt.Sprintf("(%.4f, %.4f)", v.X, v.Y) }
func (v Vector) Equal(o Vector) bool { return v.X == o.X && v.Y == o.Y }
func (v Vector) lerp(o Vector, t float64) Vector {
	return Vector{v.X + (o.X-v.X)*t, v.Y + (o.Y-v.Y)*t}
}

// Rect holds the four sensor-space corners that correspond to the
// screen corners. The zero value is not usable; see Default.
type Rect struct {
	TopLeft     Vector `json:"topLeft" yaml:"topLeft" toml:"topLeft"`
	TopRight    Vector `json:"topRight" yaml:"topRight" toml:"topRight"`
	BottomLeft  Vector `json:"bottomLeft" yaml:"bottomLeft" toml:"bottomLeft"`
	BottomRight Vector `json:"bottomRight" yaml:"bottomRight" toml:"bottomRight"`
}

// Default returns the unit square, which maps sensor space 1:1.
func Default() Rect {
	return Rect{
		TopLeft:     Vector{0, 0},
		TopRight:    Vector{1, 0},
		BottomLeft:  Vector{0, 1},
		BottomRight: Vector{1, 1},
	}
}

// Validate reports whether the corners describe an invertible quadrilateral.
func (r Rect) Validate() error {
	for _, c := range []Vector{r.TopLeft, r.TopRight, r.BottomLeft, r.BottomRight} {
		if !c.Finite() {
			return fmt.Errorf("%w: non-finite corner %v", ErrDegenerate, c)
		}
	}
	// Shoelace over TL, TR, BR, BL.
	area := r.TopLeft.cross(r.TopRight) + r.TopRight.cross(r.BottomRight) +
		r.BottomRight.cross(r.BottomLeft) + r.BottomLeft.cross(r.TopLeft)
	if math.Abs(area) < epsilon {
		return fmt.Errorf("%w: zero area", ErrDegenerate)
	}
	return nil
}

// Point evaluates the bilinear patch at (u, v) in the unit square.
func (r Rect) Point(u, v float64) Vector {
	top := r.TopLeft.lerp(r.TopRight, u)
	bottom := r.BottomLeft.lerp(r.BottomRight, u)
	return top.lerp(bottom, v)
}

// Normalize inverts the bilinear patch: it returns the unit-square
// coordinate (u, v) whose Point equals p. When the patch has two
// preimages the one closest to the unit square wins, so points just
// outside the calibrated area still map to the nearest edge. ok is false
// when p has no real preimage.
//
// The input must be a valid (non-negative) sensor coordinate; rejecting
// out-of-range samples is the caller's job.
func (r Rect) Normalize(p Vector) (uv Vector, ok bool) {
	a, b, c, d := r.TopLeft, r.TopRight, r.BottomRight, r.BottomLeft
	e := b.Sub(a)
	f := d.Sub(a)
	g := a.Sub(b).Add(c).Sub(d)
	h := p.Sub(a)

	k2 := g.cross(f)
	k1 := e.cross(f) + h.cross(g)
	k0 := h.cross(e)

	var roots []float64
	if math.Abs(k2) < epsilon {
		if math.Abs(k1) < epsilon {
			return Vector{}, false
		}
		roots = append(roots, -k0/k1)
	} else {
		disc := k1*k1 - 4*k0*k2
		if disc < 0 {
			return Vector{}, false
		}
		// Stable form; avoids cancellation between k1 and the root.
		q := -0.5 * (k1 + math.Copysign(math.Sqrt(disc), k1))
		roots = append(roots, q/k2)
		if q != 0 {
			roots = append(roots, k0/q)
		}
	}

	best := math.Inf(1)
	for _, v := range roots {
		u, solved := solveU(h, e, f, g, v)
		if !solved {
			continue
		}
		cand := Vector{u, v}
		if dist := cand.outside(); dist < best {
			uv, best, ok = cand, dist, true
		}
	}
	return uv, ok
}

// outside is the L1 distance from v to the unit square, zero inside it.
func (v Vector) outside() float64 {
	dx := math.Max(0, math.Max(-v.X, v.X-1))
	dy := math.Max(0, math.Max(-v.Y, v.Y-1))
	return dx + dy
}

func solveU(h, e, f, g Vector, v float64) (float64, bool) {
	dx := e.X + g.X*v
	dy := e.Y + g.Y*v
	if math.Abs(dx) >= math.Abs(dy) {
		if math.Abs(dx) < epsilon {
			return 0, false
		}
		return (h.X - f.X*v) / dx, true
	}
	return (h.Y - f.Y*v) / dy, true
}

// Mapper converts raw sensor coordinates to screen pixels.
type Mapper struct {
	rect   Rect
	screen Vector
}

// NewMapper validates rect and returns a Mapper targeting a screen of
// the given size.
func NewMapper(rect Rect, screen Vector) (*Mapper, error) {
	if err := rect.Validate(); err != nil {
		return nil, err
	}
	if screen.X <= 0 || screen.Y <= 0 || !screen.Finite() {
		return nil, fmt.Errorf("invalid screen size %v", screen)
	}
	return &Mapper{rect: rect, screen: screen}, nil
}

// Rect returns the active calibration rectangle.
func (m *Mapper) Rect() Rect { return m.rect }

// Screen returns the target screen size.
func (m *Mapper) Screen() Vector { return m.screen }

// Map transforms a raw sensor coordinate to screen space. Results are
// clamped to the screen bounds. ok is false when the coordinate cannot be
// mapped through the calibration patch.
func (m *Mapper) Map(raw Vector) (Vector, bool) {
	uv, ok := m.rect.Normalize(raw)
	if !ok || !uv.Finite() {
		return Vector{}, false
	}
	return Vector{
		X: clamp(uv.X, 0, 1) * m.screen.X,
		Y: clamp(uv.Y, 0, 1) * m.screen.Y,
	}, true
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
