// Package mouse models a five-button HID mouse with relative motion and wheels.
package mouse

import (
	"encoding/binary"
	"io"
	"math"
)

// InputState is the mouse state a report is built from. Deltas are
// relative and consumed by each report; buttons persist.
type InputState struct {
	Buttons Button
	DX, DY  int16
	Wheel   int16
	Pan     int16
}

// Set presses or releases a button.
func (m *InputState) Set(b Button, down bool) {
	if down {
		m.Buttons |= b
	} else {
		m.Buttons &^= b
	}
}

// Move accumulates a relative motion, saturating at the int16 range.
func (m *InputState) Move(dx, dy int) {
	m.DX = saturate(int(m.DX) + dx)
	m.DY = saturate(int(m.DY) + dy)
}

// Consume returns the current state and clears the relative fields.
func (m *InputState) Consume() InputState {
	st := *m
	m.DX, m.DY, m.Wheel, m.Pan = 0, 0, 0, 0
	return st
}

// BuildReport encodes the state into the 9-byte HID report.
//
//	Byte 0: Buttons (bits 5-7 padding)
//	Bytes 1-2: DX, 3-4: DY, 5-6: Wheel, 7-8: Pan (int16 little-endian)
func (m InputState) BuildReport() []byte {
	b, _ := m.MarshalBinary()
	b[0] &= 0x1F
	return b
}

// MarshalBinary encodes the state to 9 bytes.
func (m InputState) MarshalBinary() ([]byte, error) {
	b := make([]byte, InputReportSize)
	b[0] = uint8(m.Buttons)
	binary.LittleEndian.PutUint16(b[1:3], uint16(m.DX))
	binary.LittleEndian.PutUint16(b[3:5], uint16(m.DY))
	binary.LittleEndian.PutUint16(b[5:7], uint16(m.Wheel))
	binary.LittleEndian.PutUint16(b[7:9], uint16(m.Pan))
	return b, nil
}

// UnmarshalBinary decodes 9 bytes into the state.
func (m *InputState) UnmarshalBinary(data []byte) error {
	if len(data) < InputReportSize {
		return io.ErrUnexpectedEOF
	}
	m.Buttons = Button(data[0])
	m.DX = int16(binary.LittleEndian.Uint16(data[1:3]))
	m.DY = int16(binary.LittleEndian.Uint16(data[3:5]))
	m.Wheel = int16(binary.LittleEndian.Uint16(data[5:7]))
	m.Pan = int16(binary.LittleEndian.Uint16(data[7:9]))
	return nil
}

func saturate(v int) int16 {
	if v > math.MaxInt16 {
		return math.MaxInt16
	}
	if v < math.MinInt16 {
		return math.MinInt16
	}
	return int16(v)
}
