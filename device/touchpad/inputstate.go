// Package touchpad models a two-contact absolute touch surface with an
// auxiliary hover pointer.
package touchpad

import (
	"encoding/binary"
	"io"
)

// Contact is one slot of the surface.
type Contact struct {
	ID     uint8 // 7-bit tracking id, bumped on every new touch
	X, Y   uint16
	Active bool
}

// InputState is the surface state a report is built from.
type InputState struct {
	Contacts       [Contacts]Contact
	Hover          bool
	HoverX, HoverY uint16
}

// BuildReport encodes the state into a 13-byte report.
//
//	Byte 0: Report ID
//	Byte 1: Flags (bit 0 = hover)
//	Bytes 2-4: Hover X/Y, 12 bits each
//	Byte 5: Contact 0 tracking id | inactive bit
//	Bytes 6-8: Contact 0 X/Y
//	Byte 9: Contact 1 tracking id | inactive bit
//	Bytes 10-12: Contact 1 X/Y
func (s InputState) BuildReport() []byte {
	b := make([]byte, InputReportSize)
	b[0] = ReportIDTouch
	if s.Hover {
		b[1] |= FlagHover
	}
	encodeCoords(b[2:5], s.HoverX, s.HoverY)
	for i, c := range s.Contacts {
		off := 5 + i*4
		b[off] = c.ID & trackingIDMask
		if !c.Active {
			b[off] |= TouchInactiveMask
		}
		encodeCoords(b[off+1:off+4], c.X, c.Y)
	}
	return b
}

// MarshalBinary encodes the state with full 16-bit coordinates:
// flags:u8 hoverX:u16 hoverY:u16 then per contact id:u8 active:u8 x:u16 y:u16.
func (s InputState) MarshalBinary() ([]byte, error) {
	b := make([]byte, 5+Contacts*6)
	if s.Hover {
		b[0] = FlagHover
	}
	binary.LittleEndian.PutUint16(b[1:3], s.HoverX)
	binary.LittleEndian.PutUint16(b[3:5], s.HoverY)
	for i, c := range s.Contacts {
		off := 5 + i*6
		b[off] = c.ID
		if c.Active {
			b[off+1] = 1
		}
		binary.LittleEndian.PutUint16(b[off+2:off+4], c.X)
		binary.LittleEndian.PutUint16(b[off+4:off+6], c.Y)
	}
	return b, nil
}

// UnmarshalBinary decodes the format produced by MarshalBinary.
func (s *InputState) UnmarshalBinary(data []byte) error {
	if len(data) < 5+Contacts*6 {
		return io.ErrUnexpectedEOF
	}
	s.Hover = data[0]&FlagHover != 0
	s.HoverX = binary.LittleEndian.Uint16(data[1:3])
	s.HoverY = binary.LittleEndian.Uint16(data[3:5])
	for i := range s.Contacts {
		off := 5 + i*6
		s.Contacts[i] = Contact{
			ID:     data[off],
			Active: data[off+1] != 0,
			X:      binary.LittleEndian.Uint16(data[off+2 : off+4]),
			Y:      binary.LittleEndian.Uint16(data[off+4 : off+6]),
		}
	}
	return nil
}

func encodeCoords(b []byte, x, y uint16) {
	if x > MaxCoord {
		x = MaxCoord
	}
	if y > MaxCoord {
		y = MaxCoord
	}
	b[0] = uint8(x & 0xFF)
	b[1] = uint8((x>>8)&0x0F) | uint8((y&0x0F)<<4)
	b[2] = uint8(y >> 4)
}
