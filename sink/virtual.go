// Package sink implements an in-process output device that folds the
// pipeline's output into keyboard, mouse and touchpad reports.
package sink

import (
	"context"
	"log/slog"
	"math"
	"sync"

	"github.com/Alia5/wiituio/calibration"
	"github.com/Alia5/wiituio/device"
	"github.com/Alia5/wiituio/device/keyboard"
	"github.com/Alia5/wiituio/device/mouse"
	"github.com/Alia5/wiituio/device/touchpad"
	"github.com/Alia5/wiituio/internal/log"
	"github.com/Alia5/wiituio/touch"
)

// Virtual keeps the state of a virtual keyboard, mouse and touchpad and
// dumps a report through the raw logger on every change.
//
// Modifier keys pressed directly before a main key are bound to it and
// released together with it.
type Virtual struct {
	screen calibration.Vector
	raw    log.RawLogger
	logger *slog.Logger

	stateMu  sync.Mutex
	kb       keyboard.InputState
	ms       mouse.InputState
	tp       *touchpad.Touchpad
	pointer  calibration.Vector
	tracking bool
	pending  []keyboard.Key
	bound    map[keyboard.Key][]keyboard.Key
}

// NewVirtual returns a sink for a screen of the given size. raw may be
// nil to disable report dumps.
func NewVirtual(screen calibration.Vector, raw log.RawLogger, logger *slog.Logger) *Virtual {
	if raw == nil {
		raw = log.NewRaw(nil)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Virtual{
		screen: screen,
		raw:    raw,
		logger: logger,
		tp:     touchpad.New(),
		bound:  map[keyboard.Key][]keyboard.Key{},
	}
}

func (v *Virtual) emit(kind string, r device.ReportBuilder) {
	v.raw.Log(kind, r.BuildReport())
}

func (v *Virtual) SendKey(code keyboard.Key, down bool) {
	v.stateMu.Lock()
	defer v.stateMu.Unlock()

	switch {
	case down && code.IsModifier():
		v.kb.Set(code, true)
		v.pending = append(v.pending, code)
	case down:
		v.kb.Set(code, true)
		if len(v.pending) > 0 {
			v.bound[code] = v.pending
			v.pending = nil
		}
	default:
		v.pending = nil
		v.kb.Set(code, false)
		for _, m := range v.bound[code] {
			v.kb.Set(m, false)
		}
		delete(v.bound, code)
	}
	v.logger.Log(context.Background(), log.LevelTrace, "Key", "key", code, "down", down)
	v.emit("keyboard", v.kb)
}

func (v *Virtual) SendMouseButton(b mouse.Button, down bool) {
	v.stateMu.Lock()
	defer v.stateMu.Unlock()
	v.pending = nil
	v.ms.Set(b, down)
	v.emit("mouse", v.ms.Consume())
}

// MovePointer converts absolute screen positions into relative mouse
// motion. The first position after a touch frame only sets the origin.
func (v *Virtual) MovePointer(x, y float64) {
	v.stateMu.Lock()
	defer v.stateMu.Unlock()
	v.pending = nil

	if !v.tracking {
		v.pointer = calibration.Vector{X: x, Y: y}
		v.tracking = true
		return
	}
	dx := math.Round(x - v.pointer.X)
	dy := math.Round(y - v.pointer.Y)
	if dx == 0 && dy == 0 {
		return
	}
	// Keep the sub-pixel remainder for the next move.
	v.pointer.X += dx
	v.pointer.Y += dy
	v.ms.Move(int(dx), int(dy))
	v.emit("mouse", v.ms.Consume())
}

// PublishFrame applies the frame's contacts and hover to the touchpad.
func (v *Virtual) PublishFrame(f touch.Frame) {
	v.stateMu.Lock()
	defer v.stateMu.Unlock()
	v.pending = nil
	v.tracking = false

	for _, c := range f.Contacts {
		x, y := v.scale(c.Pos)
		switch c.Phase {
		case touch.Begin, touch.Move:
			v.tp.Touch(int(c.Slot), x, y)
		case touch.End:
			v.tp.Lift(int(c.Slot))
		}
	}
	hx, hy := v.scale(f.HoverPos)
	v.tp.SetHover(f.Hover, hx, hy)
	v.emit("touchpad", v.tp.State())
}

func (v *Virtual) scale(p calibration.Vector) (uint16, uint16) {
	conv := func(c, size float64) uint16 {
		if size <= 0 {
			return 0
		}
		n := math.Round(c / size * float64(touchpad.MaxCoord))
		return uint16(min(max(n, 0), float64(touchpad.MaxCoord)))
	}
	return conv(p.X, v.screen.X), conv(p.Y, v.screen.Y)
}

// Keyboard returns a snapshot of the keyboard state.
func (v *Virtual) Keyboard() keyboard.InputState {
	v.stateMu.Lock()
	defer v.stateMu.Unlock()
	return v.kb
}

// MouseButtons returns the pressed mouse buttons.
func (v *Virtual) MouseButtons() mouse.Button {
	v.stateMu.Lock()
	defer v.stateMu.Unlock()
	return v.ms.Buttons
}

// Touchpad returns a snapshot of the touchpad state.
func (v *Virtual) Touchpad() touchpad.InputState { return v.tp.State() }
