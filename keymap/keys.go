package keymap

import (
	"strconv"
	"strings"

	"github.com/Alia5/wiituio/device/keyboard"
	"github.com/Alia5/wiituio/device/mouse"
)

// keyNames maps virtual-key names, as found in keymap documents, to HID
// usage codes. Lookups are case-insensitive.
var keyNames = map[string]keyboard.Key{
	"BACK": keyboard.KeyBackspace, "TAB": keyboard.KeyTab, "RETURN": keyboard.KeyEnter,
	"PAUSE": keyboard.KeyPause, "CAPITAL": keyboard.KeyCapsLock, "ESCAPE": keyboard.KeyEscape,
	"SPACE": keyboard.KeySpace, "PRIOR": keyboard.KeyPageUp, "NEXT": keyboard.KeyPageDown,
	"END": keyboard.KeyEnd, "HOME": keyboard.KeyHome,
	"LEFT": keyboard.KeyLeft, "UP": keyboard.KeyUp, "RIGHT": keyboard.KeyRight, "DOWN": keyboard.KeyDown,
	"SELECT": keyboard.KeySelect, "SNAPSHOT": keyboard.KeyPrintScreen, "PRINT": keyboard.KeyPrintScreen,
	"INSERT": keyboard.KeyInsert, "DELETE": keyboard.KeyDelete, "HELP": keyboard.KeyHelp,
	"APPS": keyboard.KeyApplication, "NUMLOCK": keyboard.KeyNumLock, "SCROLL": keyboard.KeyScrollLock,

	"SHIFT": keyboard.KeyLeftShift, "CONTROL": keyboard.KeyLeftCtrl, "MENU": keyboard.KeyLeftAlt,
	"LSHIFT": keyboard.KeyLeftShift, "RSHIFT": keyboard.KeyRightShift,
	"LCONTROL": keyboard.KeyLeftCtrl, "RCONTROL": keyboard.KeyRightCtrl,
	"LMENU": keyboard.KeyLeftAlt, "RMENU": keyboard.KeyRightAlt,
	"LWIN": keyboard.KeyLeftGUI, "RWIN": keyboard.KeyRightGUI,

	"MULTIPLY": keyboard.KeyKpAsterisk, "ADD": keyboard.KeyKpPlus, "SUBTRACT": keyboard.KeyKpMinus,
	"DECIMAL": keyboard.KeyKpDot, "DIVIDE": keyboard.KeyKpSlash, "SEPARATOR": keyboard.KeyKpEnter,

	"VOLUME_MUTE": keyboard.KeyMute, "VOLUME_DOWN": keyboard.KeyVolumeDown, "VOLUME_UP": keyboard.KeyVolumeUp,
	"MEDIA_NEXT_TRACK": keyboard.KeyMediaNext, "MEDIA_PREV_TRACK": keyboard.KeyMediaPrevious,
	"MEDIA_STOP": keyboard.KeyMediaStop, "MEDIA_PLAY_PAUSE": keyboard.KeyMediaPlayPause,

	"OEM_1": keyboard.KeySemicolon, "OEM_PLUS": keyboard.KeyEqual, "OEM_COMMA": keyboard.KeyComma,
	"OEM_MINUS": keyboard.KeyMinus, "OEM_PERIOD": keyboard.KeyPeriod, "OEM_2": keyboard.KeySlash,
	"OEM_3": keyboard.KeyGrave, "OEM_4": keyboard.KeyLeftBrace, "OEM_5": keyboard.KeyBackslash,
	"OEM_6": keyboard.KeyRightBrace, "OEM_7": keyboard.KeyApostrophe, "OEM_102": keyboard.KeyNonUSBackslash,
}

var mouseNames = map[string]mouse.Button{
	"MOUSELEFT":    mouse.BtnLeft,
	"MOUSERIGHT":   mouse.BtnRight,
	"MOUSEMIDDLE":  mouse.BtnMiddle,
	"MOUSEBACK":    mouse.BtnBack,
	"MOUSEFORWARD": mouse.BtnForward,
}

func init() {
	for i := 0; i < 26; i++ {
		keyNames["VK_"+string(rune('A'+i))] = keyboard.KeyA + keyboard.Key(i)
	}
	// VK_0 is the last of the digit run on the HID usage page.
	keyNames["VK_0"] = keyboard.Key0
	keyNames["NUMPAD0"] = keyboard.KeyKp0
	for i := 1; i <= 9; i++ {
		d := strconv.Itoa(i)
		keyNames["VK_"+d] = keyboard.Key1 + keyboard.Key(i-1)
		keyNames["NUMPAD"+d] = keyboard.KeyKp1 + keyboard.Key(i-1)
	}
	for i := 0; i < 12; i++ {
		keyNames["F"+strconv.Itoa(i+1)] = keyboard.KeyF1 + keyboard.Key(i)
		keyNames["F"+strconv.Itoa(i+13)] = keyboard.KeyF13 + keyboard.Key(i)
	}
}

func normalizeName(name string) string {
	return strings.ToUpper(strings.TrimSpace(name))
}

// LookupKey returns the HID usage code for a virtual-key name. Single
// letters and digits are accepted with or without the VK_ prefix.
func LookupKey(name string) (keyboard.Key, bool) {
	n := normalizeName(name)
	if k, ok := keyNames[n]; ok {
		return k, true
	}
	k, ok := keyNames["VK_"+n]
	return k, ok
}

// LookupMouse returns the mouse button for a mouse-button name.
func LookupMouse(name string) (mouse.Button, bool) {
	b, ok := mouseNames[normalizeName(name)]
	return b, ok
}
