// Package keyboard models a boot-protocol HID keyboard with full N-key rollover.
package keyboard

import (
	"fmt"
	"io"
)

// InputReportSize is the length of a report built by BuildReport.
const InputReportSize = 34

// InputState is the keyboard state a report is built from.
// Key presses are kept in a 256-bit bitmap for N-key rollover.
type InputState struct {
	Modifiers Modifiers
	KeyBitmap [32]uint8
}

// Set presses or releases k. Modifier keys update the modifier byte.
func (st *InputState) Set(k Key, down bool) {
	if k.IsModifier() {
		if down {
			st.Modifiers |= k.Modifier()
		} else {
			st.Modifiers &^= k.Modifier()
		}
		return
	}
	if down {
		st.KeyBitmap[k/8] |= 1 << (k % 8)
	} else {
		st.KeyBitmap[k/8] &^= 1 << (k % 8)
	}
}

// IsDown reports whether k is pressed.
func (st *InputState) IsDown(k Key) bool {
	if k.IsModifier() {
		return st.Modifiers&k.Modifier() != 0
	}
	return st.KeyBitmap[k/8]&(1<<(k%8)) != 0
}

// Keys lists the pressed non-modifier keys in ascending usage order.
func (st *InputState) Keys() []Key {
	var keys []Key
	for i := 0; i < 256; i++ {
		if st.KeyBitmap[i/8]&(1<<uint(i%8)) != 0 {
			keys = append(keys, Key(i))
		}
	}
	return keys
}

// BuildReport encodes the state into the 34-byte HID report.
//
//	Byte 0: Modifiers
//	Byte 1: Reserved (0x00)
//	Bytes 2-33: Key bitmap
func (st InputState) BuildReport() []byte {
	b := make([]byte, InputReportSize)
	b[0] = uint8(st.Modifiers)
	copy(b[2:], st.KeyBitmap[:])
	return b
}

// MarshalBinary encodes the state as [modifiers, count, keys...].
func (st *InputState) MarshalBinary() ([]byte, error) {
	keys := st.Keys()
	b := make([]byte, 2+len(keys))
	b[0] = uint8(st.Modifiers)
	b[1] = uint8(len(keys))
	for i, k := range keys {
		b[2+i] = uint8(k)
	}
	return b, nil
}

// UnmarshalBinary decodes the format produced by MarshalBinary.
func (st *InputState) UnmarshalBinary(data []byte) error {
	if len(data) < 2 {
		return io.ErrUnexpectedEOF
	}
	n := int(data[1])
	if len(data) < 2+n {
		return io.ErrUnexpectedEOF
	}
	*st = InputState{Modifiers: Modifiers(data[0])}
	for _, c := range data[2 : 2+n] {
		if Key(c).IsModifier() {
			return fmt.Errorf("modifier key 0x%02x in key list", c)
		}
		st.Set(Key(c), true)
	}
	return nil
}
