package provider

import (
	"fmt"

	"github.com/Alia5/wiituio/buttons"
	"github.com/Alia5/wiituio/calibration"
	"github.com/Alia5/wiituio/keymap"
	"github.com/Alia5/wiituio/touch"
)

// ReportMode selects what the device includes in its input reports.
type ReportMode uint8

const (
	ReportIRAccel ReportMode = iota
	ReportIRExtensionAccel
)

func (m ReportMode) String() string {
	switch m {
	case ReportIRAccel:
		return "ir+accel"
	case ReportIRExtensionAccel:
		return "ir+extension+accel"
	}
	return fmt.Sprintf("mode(%d)", uint8(m))
}

// Update is one hardware report. A negative coordinate means the
// sensor lost the pointer.
type Update struct {
	Pos     calibration.Vector
	Buttons buttons.State
	Battery int
}

// Valid reports whether the sample is in sensor range.
func (u Update) Valid() bool {
	return u.Pos.X >= 0 && u.Pos.Y >= 0 && u.Pos.Finite()
}

// Device is a connected pointing device. Implementations must invoke the
// registered handlers asynchronously, never from within a Device method.
type Device interface {
	Connect() error
	Disconnect() error
	SetReportMode(mode ReportMode) error
	SetRumble(on bool) error
	// Rumbling reports whether the motor is still running.
	Rumbling() bool
	SetLEDs(leds [4]bool) error
	// SetHandlers registers the report callbacks; nil clears them.
	SetHandlers(onUpdate func(Update), onExtension func(inserted bool))
}

// Opener acquires a fresh device handle.
type Opener func() (Device, error)

// Sink consumes the pipeline's output.
type Sink interface {
	keymap.KeySink
	PublishFrame(f touch.Frame)
	MovePointer(x, y float64)
}
