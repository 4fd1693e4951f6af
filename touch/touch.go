// Package touch synthesizes up to two touch contacts from a single
// pointer position and two hold signals.
package touch

import (
	"fmt"
	"time"

	"github.com/Alia5/wiituio/calibration"
)

// Slot identifies one of the two contact slots.
type Slot uint8

const (
	Master Slot = iota
	Slave
	// Slots is the number of contact slots.
	Slots = 2
)

func (s Slot) String() string {
	switch s {
	case Master:
		return "master"
	case Slave:
		return "slave"
	}
	return fmt.Sprintf("slot(%d)", uint8(s))
}

// Phase is the lifecycle stage of a contact within a frame.
type Phase uint8

const (
	Begin Phase = iota
	Move
	End
)

func (p Phase) String() string {
	switch p {
	case Begin:
		return "begin"
	case Move:
		return "move"
	case End:
		return "end"
	}
	return fmt.Sprintf("phase(%d)", uint8(p))
}

// Contact is one slot's entry in a frame.
type Contact struct {
	Slot  Slot
	Phase Phase
	Pos   calibration.Vector
}

func (c Contact) String() string { return fmt.Sprintf("%s %s %v", c.Slot, c.Phase, c.Pos) }

// Frame is the output of one update. Contacts are ordered master first.
type Frame struct {
	Seq       uint64
	Timestamp time.Duration // since the synthesizer was created
	Contacts  []Contact
	Hover     bool
	HoverPos  calibration.Vector
}

// Contact returns the entry for slot, if present.
func (f Frame) Contact(slot Slot) (Contact, bool) {
	for _, c := range f.Contacts {
		if c.Slot == slot {
			return c, true
		}
	}
	return Contact{}, false
}

// Input is the per-update state fed to the synthesizer.
type Input struct {
	Pos        calibration.Vector
	MasterHeld bool
	SlaveHeld  bool
	// HoverValid is true when the pointer is in sensor range.
	HoverValid bool
}

func (in Input) held(s Slot) bool {
	if s == Master {
		return in.MasterHeld
	}
	return in.SlaveHeld
}

// Synthesizer tracks the two slots across updates. It is not safe for
// concurrent use; the provider serializes access.
type Synthesizer struct {
	hover  bool
	start  time.Time
	seq    uint64
	active [Slots]bool
	last   [Slots]calibration.Vector
}

// New returns a synthesizer with both slots dormant. hover enables the
// auxiliary hover signal for in-range, non-held pointers.
func New(hover bool) *Synthesizer {
	return &Synthesizer{hover: hover, start: time.Now()}
}

// Active reports whether slot has an ongoing contact.
func (s *Synthesizer) Active(slot Slot) bool { return slot < Slots && s.active[slot] }

// AnyActive reports whether any slot has an ongoing contact.
func (s *Synthesizer) AnyActive() bool { return s.active[Master] || s.active[Slave] }

// Update advances both slots and returns the frame for this update. A
// frame is produced on every call, even with no contacts.
func (s *Synthesizer) Update(in Input) Frame {
	f := s.frame()
	for slot := Master; slot < Slots; slot++ {
		switch {
		case in.held(slot) && !s.active[slot]:
			s.active[slot] = true
			s.last[slot] = in.Pos
			f.Contacts = append(f.Contacts, Contact{Slot: slot, Phase: Begin, Pos: in.Pos})
		case in.held(slot):
			s.last[slot] = in.Pos
			f.Contacts = append(f.Contacts, Contact{Slot: slot, Phase: Move, Pos: in.Pos})
		case s.active[slot]:
			s.active[slot] = false
			f.Contacts = append(f.Contacts, Contact{Slot: slot, Phase: End, Pos: s.last[slot]})
		}
	}
	if s.hover && in.HoverValid && !in.MasterHeld && !in.SlaveHeld {
		f.Hover = true
		f.HoverPos = in.Pos
	}
	return f
}

// Release ends every active contact at its last position. The returned
// frame has no contacts when nothing was active.
func (s *Synthesizer) Release() Frame {
	f := s.frame()
	for slot := Master; slot < Slots; slot++ {
		if s.active[slot] {
			s.active[slot] = false
			f.Contacts = append(f.Contacts, Contact{Slot: slot, Phase: End, Pos: s.last[slot]})
		}
	}
	return f
}

func (s *Synthesizer) frame() Frame {
	s.seq++
	return Frame{Seq: s.seq, Timestamp: time.Since(s.start)}
}
