package touchpad

import "sync"

// Touchpad tracks contact slots and assigns tracking ids. It is safe
// for concurrent use.
type Touchpad struct {
	mu     sync.Mutex
	state  InputState
	nextID uint8
}

// New returns an idle Touchpad.
func New() *Touchpad { return &Touchpad{} }

// Touch places slot at (x, y). A slot that was not active starts a new
// touch with a fresh tracking id.
func (t *Touchpad) Touch(slot int, x, y uint16) {
	if slot < 0 || slot >= Contacts {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	c := &t.state.Contacts[slot]
	if !c.Active {
		c.ID = t.nextID & trackingIDMask
		t.nextID++
		c.Active = true
	}
	c.X, c.Y = x, y
}

// Lift ends the touch on slot, keeping its last coordinates.
func (t *Touchpad) Lift(slot int) {
	if slot < 0 || slot >= Contacts {
		return
	}
	t.mu.Lock()
	t.state.Contacts[slot].Active = false
	t.mu.Unlock()
}

// SetHover updates the hover pointer.
func (t *Touchpad) SetHover(on bool, x, y uint16) {
	t.mu.Lock()
	t.state.Hover = on
	if on {
		t.state.HoverX, t.state.HoverY = x, y
	}
	t.mu.Unlock()
}

// State returns a snapshot of the surface.
func (t *Touchpad) State() InputState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}
