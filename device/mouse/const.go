package mouse

// Button is a bit in the mouse button field.
type Button uint8

const (
	BtnLeft Button = 1 << iota
	BtnRight
	BtnMiddle
	BtnBack
	BtnForward
)

// InputReportSize is the length of a report built by BuildReport.
const InputReportSize = 9

// ButtonNames maps each button to its name.
var ButtonNames = map[Button]string{
	BtnLeft:    "Left",
	BtnRight:   "Right",
	BtnMiddle:  "Middle",
	BtnBack:    "Back",
	BtnForward: "Forward",
}

func (b Button) String() string {
	if n, ok := ButtonNames[b]; ok {
		return n
	}
	return "Unknown"
}
