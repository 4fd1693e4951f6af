// Package buttons models the remote's button set and turns successive
// state snapshots into press/release edges.
package buttons

import (
	"fmt"
	"strings"
)

// Button identifies one physical button.
type Button uint8

const (
	Up Button = iota
	Down
	Left
	Right
	Home
	Plus
	Minus
	One
	Two
	A
	B

	// Count is the number of buttons.
	Count = int(B) + 1
)

var buttonNames = [Count]string{
	Up:    "Up",
	Down:  "Down",
	Left:  "Left",
	Right: "Right",
	Home:  "Home",
	Plus:  "Plus",
	Minus: "Minus",
	One:   "One",
	Two:   "Two",
	A:     "A",
	B:     "B",
}

// All lists every button in canonical order.
func All() []Button {
	out := make([]Button, Count)
	for i := range out {
		out[i] = Button(i)
	}
	return out
}

func (b Button) String() string {
	if int(b) < Count {
		return buttonNames[b]
	}
	return fmt.Sprintf("Button(%d)", uint8(b))
}

// Valid reports whether b is one of the known buttons.
func (b Button) Valid() bool { return int(b) < Count }

// Parse resolves a button name case-insensitively.
func Parse(name string) (Button, error) {
	n := strings.TrimSpace(name)
	for i, s := range buttonNames {
		if strings.EqualFold(s, n) {
			return Button(i), nil
		}
	}
	return 0, fmt.Errorf("unknown button %q", name)
}

// State is an immutable snapshot of all button states, one bit per Button.
type State uint16

// Of builds a State with the given buttons pressed.
func Of(pressed ...Button) State {
	var s State
	for _, b := range pressed {
		s = s.With(b, true)
	}
	return s
}

// Pressed reports whether b is down in s.
func (s State) Pressed(b Button) bool { return s&(1<<b) != 0 }

// With returns a copy of s with b set to down.
func (s State) With(b Button, down bool) State {
	if down {
		return s | 1<<b
	}
	return s &^ (1 << b)
}

// Buttons returns the pressed buttons in canonical order.
func (s State) Buttons() []Button {
	var out []Button
	for i := 0; i < Count; i++ {
		if s.Pressed(Button(i)) {
			out = append(out, Button(i))
		}
	}
	return out
}

func (s State) String() string {
	names := make([]string, 0, Count)
	for _, b := range s.Buttons() {
		names = append(names, b.String())
	}
	return "[" + strings.Join(names, " ") + "]"
}

// Edge is a single button transition.
type Edge struct {
	Button Button
	Down   bool
}

func (e Edge) String() string {
	if e.Down {
		return e.Button.String() + " down"
	}
	return e.Button.String() + " up"
}

// Detector remembers the previous snapshot and reports what changed.
// It is not safe for concurrent use.
type Detector struct {
	prev State
}

// Update compares cur against the previous snapshot and returns one edge
// per changed button in canonical order, then stores cur.
func (d *Detector) Update(cur State) []Edge {
	changed := d.prev ^ cur
	if changed == 0 {
		return nil
	}
	var edges []Edge
	for i := 0; i < Count; i++ {
		b := Button(i)
		if changed&(1<<b) != 0 {
			edges = append(edges, Edge{Button: b, Down: cur.Pressed(b)})
		}
	}
	d.prev = cur
	return edges
}

// Release forces synthetic up edges for every button currently down.
func (d *Detector) Release() []Edge { return d.Update(0) }

// Pressed returns the last stored snapshot.
func (d *Detector) Pressed() State { return d.prev }
