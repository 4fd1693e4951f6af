package touchpad

const (
	// Contacts is the number of contact slots.
	Contacts = 2

	ReportIDTouch uint8 = 0x01

	// InputReportSize is the length of a report built by BuildReport.
	InputReportSize = 13

	// MaxCoord is the largest coordinate a packed 12-bit field can carry.
	MaxCoord uint16 = 0x0FFF

	FlagHover uint8 = 0x01

	// TouchInactiveMask marks a slot without contact; the low 7 bits
	// carry the tracking id.
	TouchInactiveMask uint8 = 0x80
	trackingIDMask    uint8 = 0x7F
)
