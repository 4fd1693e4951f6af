package keyboard

// Key is a HID keyboard/keypad usage code.
type Key uint8

// Modifiers is the HID modifier byte.
type Modifiers uint8

const (
	ModLeftCtrl Modifiers = 1 << iota
	ModLeftShift
	ModLeftAlt
	ModLeftGUI // Windows/Command key
	ModRightCtrl
	ModRightShift
	ModRightAlt
	ModRightGUI
)

// Letters A-Z.
const (
	KeyA Key = 0x04 + iota
	KeyB
	KeyC
	KeyD
	KeyE
	KeyF
	KeyG
	KeyH
	KeyI
	KeyJ
	KeyK
	KeyL
	KeyM
	KeyN
	KeyO
	KeyP
	KeyQ
	KeyR
	KeyS
	KeyT
	KeyU
	KeyV
	KeyW
	KeyX
	KeyY
	KeyZ
)

// Top row digits. Key0 follows Key9 as on the HID usage page.
const (
	Key1 Key = 0x1E + iota
	Key2
	Key3
	Key4
	Key5
	Key6
	Key7
	Key8
	Key9
	Key0
)

const (
	KeyEnter      Key = 0x28
	KeyEscape     Key = 0x29
	KeyBackspace  Key = 0x2A
	KeyTab        Key = 0x2B
	KeySpace      Key = 0x2C
	KeyMinus      Key = 0x2D // - and _
	KeyEqual      Key = 0x2E // = and +
	KeyLeftBrace  Key = 0x2F
	KeyRightBrace Key = 0x30
	KeyBackslash  Key = 0x31
	KeySemicolon  Key = 0x33
	KeyApostrophe Key = 0x34
	KeyGrave      Key = 0x35
	KeyComma      Key = 0x36
	KeyPeriod     Key = 0x37
	KeySlash      Key = 0x38
	KeyCapsLock   Key = 0x39

	KeyPrintScreen Key = 0x46
	KeyScrollLock  Key = 0x47
	KeyPause       Key = 0x48
	KeyInsert      Key = 0x49
	KeyHome        Key = 0x4A
	KeyPageUp      Key = 0x4B
	KeyDelete      Key = 0x4C
	KeyEnd         Key = 0x4D
	KeyPageDown    Key = 0x4E

	KeyRight Key = 0x4F
	KeyLeft  Key = 0x50
	KeyDown  Key = 0x51
	KeyUp    Key = 0x52

	KeyNumLock    Key = 0x53
	KeyKpSlash    Key = 0x54
	KeyKpAsterisk Key = 0x55
	KeyKpMinus    Key = 0x56
	KeyKpPlus     Key = 0x57
	KeyKpEnter    Key = 0x58
	KeyKpDot      Key = 0x63

	KeyNonUSBackslash Key = 0x64
	KeyApplication    Key = 0x65

	KeyHelp       Key = 0x75
	KeySelect     Key = 0x77
	KeyMute       Key = 0x7F
	KeyVolumeUp   Key = 0x80
	KeyVolumeDown Key = 0x81

	KeyMediaPlayPause Key = 0xE8
	KeyMediaStop      Key = 0xE9
	KeyMediaNext      Key = 0xEB
	KeyMediaPrevious  Key = 0xEC
)

// Keypad digits 1-9 then 0.
const (
	KeyKp1 Key = 0x59 + iota
	KeyKp2
	KeyKp3
	KeyKp4
	KeyKp5
	KeyKp6
	KeyKp7
	KeyKp8
	KeyKp9
	KeyKp0
)

// F1-F12 and F13-F24 sit in two separate runs.
const (
	KeyF1 Key = 0x3A + iota
	KeyF2
	KeyF3
	KeyF4
	KeyF5
	KeyF6
	KeyF7
	KeyF8
	KeyF9
	KeyF10
	KeyF11
	KeyF12
)

const (
	KeyF13 Key = 0x68 + iota
	KeyF14
	KeyF15
	KeyF16
	KeyF17
	KeyF18
	KeyF19
	KeyF20
	KeyF21
	KeyF22
	KeyF23
	KeyF24
)

// Modifier keys occupy 0xE0-0xE7; they are reported through the
// modifier byte rather than the key bitmap.
const (
	KeyLeftCtrl Key = 0xE0 + iota
	KeyLeftShift
	KeyLeftAlt
	KeyLeftGUI
	KeyRightCtrl
	KeyRightShift
	KeyRightAlt
	KeyRightGUI
)

// IsModifier reports whether k is one of the eight modifier keys.
func (k Key) IsModifier() bool { return k >= KeyLeftCtrl && k <= KeyRightGUI }

// Modifier returns the modifier bit for k, or 0 for ordinary keys.
func (k Key) Modifier() Modifiers {
	if !k.IsModifier() {
		return 0
	}
	return Modifiers(1) << (k - KeyLeftCtrl)
}
