package keymap_test

import (
	"encoding/json"
	"testing"

	"github.com/Alia5/wiituio/buttons"
	"github.com/Alia5/wiituio/device/keyboard"
	"github.com/Alia5/wiituio/device/mouse"
	htesting "github.com/Alia5/wiituio/internal/testing"
	"github.com/Alia5/wiituio/keymap"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestCompile(t *testing.T) {
	type testCase struct {
		name  string
		entry keymap.Entry
		want  keymap.Action
	}

	cases := []testCase{
		{
			name:  "single key",
			entry: keymap.Entry{"LWin"},
			want:  keymap.Action{Kind: keymap.KindKey, Text: "LWin", Key: keyboard.KeyLeftGUI},
		},
		{
			name:  "letter without prefix",
			entry: keymap.Entry{"a"},
			want:  keymap.Action{Kind: keymap.KindKey, Text: "a", Key: keyboard.KeyA},
		},
		{
			name:  "letter with prefix",
			entry: keymap.Entry{"VK_Z"},
			want:  keymap.Action{Kind: keymap.KindKey, Text: "VK_Z", Key: keyboard.KeyZ},
		},
		{
			name:  "mouse button",
			entry: keymap.Entry{"MouseRight"},
			want:  keymap.Action{Kind: keymap.KindMouse, Text: "MouseRight", Mouse: mouse.BtnRight},
		},
		{
			name:  "modified key",
			entry: keymap.Entry{"LControl", "OEM_Plus"},
			want: keymap.Action{
				Kind: keymap.KindModified, Text: "LControl+OEM_Plus",
				Key: keyboard.KeyEqual, Mods: []keyboard.Key{keyboard.KeyLeftCtrl},
			},
		},
		{
			name:  "unknown modifier dropped",
			entry: keymap.Entry{"Hyper", "LShift", "F5"},
			want: keymap.Action{
				Kind: keymap.KindModified, Text: "Hyper+LShift+F5",
				Key: keyboard.KeyF5, Mods: []keyboard.Key{keyboard.KeyLeftShift},
			},
		},
		{
			name:  "unknown main key",
			entry: keymap.Entry{"LControl", "Nope"},
			want:  keymap.Action{Kind: keymap.KindOpaque, Text: "LControl+Nope"},
		},
		{
			name:  "verb",
			entry: keymap.Entry{"touchmaster"},
			want:  keymap.Action{Kind: keymap.KindOpaque, Text: "touchmaster", Verb: keymap.VerbTouchMaster},
		},
		{
			name:  "arbitrary text",
			entry: keymap.Entry{"launch-browser"},
			want:  keymap.Action{Kind: keymap.KindOpaque, Text: "launch-browser"},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := keymap.Compile(tc.entry)
			assert.Equal(t, tc.want, got)
			assert.Equal(t, tc.want.Kind != keymap.KindOpaque, got.Handled())
		})
	}
}

func TestLookupKeyNumbers(t *testing.T) {
	k, ok := keymap.LookupKey("VK_0")
	require.True(t, ok)
	assert.Equal(t, keyboard.Key0, k)

	k, ok = keymap.LookupKey("7")
	require.True(t, ok)
	assert.Equal(t, keyboard.Key7, k)

	k, ok = keymap.LookupKey("numpad9")
	require.True(t, ok)
	assert.Equal(t, keyboard.KeyKp9, k)

	k, ok = keymap.LookupKey("F24")
	require.True(t, ok)
	assert.Equal(t, keyboard.KeyF24, k)
}

func TestEntryDecoding(t *testing.T) {
	var fromJSON map[string]keymap.Entry
	require.NoError(t, json.Unmarshal([]byte(`{"A":"TouchMaster","Plus":["LControl","OEM_Plus"]}`), &fromJSON))
	assert.Equal(t, keymap.Entry{"TouchMaster"}, fromJSON["A"])
	assert.Equal(t, keymap.Entry{"LControl", "OEM_Plus"}, fromJSON["Plus"])

	var fromYAML map[string]keymap.Entry
	require.NoError(t, yaml.Unmarshal([]byte("A: TouchMaster\nPlus: [LControl, OEM_Plus]\n"), &fromYAML))
	assert.Equal(t, fromJSON, fromYAML)

	var bad keymap.Entry
	assert.Error(t, json.Unmarshal([]byte(`{"x":1}`), &bad))

	out, err := json.Marshal(keymap.Entry{"Home"})
	require.NoError(t, err)
	assert.JSONEq(t, `"Home"`, string(out))
}

func TestMappingValidate(t *testing.T) {
	assert.NoError(t, keymap.Mapping{buttons.A: {"TouchMaster"}}.Validate())

	err := keymap.Mapping{buttons.A: {}}.Validate()
	assert.ErrorIs(t, err, keymap.ErrInvalidMapping)

	err = keymap.Mapping{buttons.B: {"LControl", " "}}.Validate()
	assert.ErrorIs(t, err, keymap.ErrInvalidMapping)

	err = keymap.Mapping{buttons.Button(42): {"A"}}.Validate()
	assert.ErrorIs(t, err, keymap.ErrInvalidMapping)
}

func TestMappingMerge(t *testing.T) {
	base := keymap.Mapping{buttons.A: {"TouchMaster"}, buttons.Home: {"LWin"}}
	merged := base.Merge(keymap.Mapping{buttons.Home: {"Escape"}, buttons.Two: {"Space"}})

	assert.Equal(t, keymap.Mapping{
		buttons.A:    {"TouchMaster"},
		buttons.Home: {"Escape"},
		buttons.Two:  {"Space"},
	}, merged)
	assert.Equal(t, keymap.Entry{"LWin"}, base[buttons.Home], "merge must not modify the base")
}

func TestResolverModifiedKeySequence(t *testing.T) {
	sink := &htesting.RecordingSink{}
	r := keymap.NewResolver(sink, nil)
	require.NoError(t, r.SetMapping(keymap.Mapping{buttons.Plus: {"LControl", "OEM_Plus"}}))

	ev, ok := r.ResolveDown(buttons.Plus)
	require.True(t, ok)
	assert.True(t, ev.Handled)
	assert.Equal(t, "LControl+OEM_Plus", ev.Action)
	assert.Equal(t, []htesting.SinkCall{
		{Kind: "key", Key: keyboard.KeyLeftCtrl, Down: true},
		{Kind: "key", Key: keyboard.KeyEqual, Down: true},
	}, sink.Calls())

	sink.Reset()
	_, ok = r.ResolveUp(buttons.Plus)
	require.True(t, ok)
	assert.Equal(t, []htesting.SinkCall{
		{Kind: "key", Key: keyboard.KeyEqual, Down: false},
	}, sink.Calls())
}

func TestResolverForms(t *testing.T) {
	sink := &htesting.RecordingSink{}
	r := keymap.NewResolver(sink, nil)
	require.NoError(t, r.SetMapping(keymap.Mapping{
		buttons.Home: {"LWin"},
		buttons.Two:  {"MouseLeft"},
		buttons.A:    {"TouchMaster"},
	}))

	_, ok := r.ResolveDown(buttons.B)
	assert.False(t, ok, "unmapped button")
	assert.Empty(t, sink.Calls())

	ev, ok := r.Resolve(buttons.Edge{Button: buttons.A, Down: true})
	require.True(t, ok)
	assert.False(t, ev.Handled)
	assert.Equal(t, "TouchMaster", ev.Action)
	assert.Equal(t, keymap.VerbTouchMaster, ev.Verb)
	assert.Empty(t, sink.Calls(), "opaque actions produce no output")

	_, ok = r.ResolveDown(buttons.Two)
	require.True(t, ok)
	_, ok = r.ResolveUp(buttons.Home)
	require.True(t, ok)
	assert.Equal(t, []htesting.SinkCall{
		{Kind: "mouse", Mouse: mouse.BtnLeft, Down: true},
		{Kind: "key", Key: keyboard.KeyLeftGUI, Down: false},
	}, sink.Calls())
}

func TestSetMappingRejectsInvalid(t *testing.T) {
	r := keymap.NewResolver(&htesting.RecordingSink{}, nil)
	good := keymap.Mapping{buttons.A: {"Space"}}
	require.NoError(t, r.SetMapping(good))

	err := r.SetMapping(keymap.Mapping{buttons.A: {}})
	require.ErrorIs(t, err, keymap.ErrInvalidMapping)
	assert.Equal(t, good, r.Mapping())
}
