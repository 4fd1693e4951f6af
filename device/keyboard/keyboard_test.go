package keyboard_test

import (
	"testing"

	"github.com/Alia5/wiituio/device/keyboard"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInputReports(t *testing.T) {
	type testCase struct {
		name      string
		press     []keyboard.Key
		modifiers keyboard.Modifiers
		bitmap    map[int]uint8
	}

	cases := []testCase{
		{name: "empty"},
		{
			name:      "ctrl plus equal",
			press:     []keyboard.Key{keyboard.KeyLeftCtrl, keyboard.KeyEqual},
			modifiers: keyboard.ModLeftCtrl,
			bitmap:    map[int]uint8{int(keyboard.KeyEqual) / 8: 1 << (keyboard.KeyEqual % 8)},
		},
		{
			name:      "gui and arrows",
			press:     []keyboard.Key{keyboard.KeyRightGUI, keyboard.KeyLeft, keyboard.KeyRight},
			modifiers: keyboard.ModRightGUI,
			bitmap:    map[int]uint8{0x50 / 8: 1 << (0x50 % 8), 0x4F / 8: 1 << (0x4F % 8)},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var st keyboard.InputState
			for _, k := range tc.press {
				st.Set(k, true)
			}
			want := make([]byte, keyboard.InputReportSize)
			want[0] = byte(tc.modifiers)
			for i, v := range tc.bitmap {
				want[2+i] = v
			}
			assert.Equal(t, want, st.BuildReport())
		})
	}
}

func TestSetRelease(t *testing.T) {
	var st keyboard.InputState
	st.Set(keyboard.KeyA, true)
	st.Set(keyboard.KeyLeftShift, true)
	assert.True(t, st.IsDown(keyboard.KeyA))
	assert.True(t, st.IsDown(keyboard.KeyLeftShift))
	assert.Equal(t, []keyboard.Key{keyboard.KeyA}, st.Keys())

	st.Set(keyboard.KeyA, false)
	st.Set(keyboard.KeyLeftShift, false)
	assert.Equal(t, keyboard.InputState{}, st)
}

func TestBinaryRoundTrip(t *testing.T) {
	var in keyboard.InputState
	in.Set(keyboard.KeyLeftAlt, true)
	in.Set(keyboard.KeyF4, true)

	data, err := in.MarshalBinary()
	require.NoError(t, err)
	var out keyboard.InputState
	require.NoError(t, out.UnmarshalBinary(data))
	assert.Equal(t, in, out)
}
