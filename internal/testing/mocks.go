package testing

import (
	"fmt"
	"sync"

	"github.com/Alia5/wiituio/device/keyboard"
	"github.com/Alia5/wiituio/device/mouse"
	"github.com/Alia5/wiituio/provider"
	"github.com/Alia5/wiituio/touch"
)

// MockDevice is a scripted provider.Device. Reports are injected with
// Send and Extension from the calling goroutine.
type MockDevice struct {
	ConnectErr    error
	ReportModeErr error
	LEDErr        error
	DisconnectErr error
	// StuckRumble is the number of disable requests ignored before the
	// motor stops.
	StuckRumble int

	mu          sync.Mutex
	calls       []string
	connected   bool
	rumbling    bool
	leds        [4]bool
	mode        provider.ReportMode
	onUpdate    func(provider.Update)
	onExtension func(bool)
}

func (m *MockDevice) record(format string, args ...any) {
	m.calls = append(m.calls, fmt.Sprintf(format, args...))
}

func (m *MockDevice) Connect() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("connect")
	if m.ConnectErr != nil {
		return m.ConnectErr
	}
	m.connected = true
	return nil
}

func (m *MockDevice) Disconnect() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("disconnect")
	m.connected = false
	return m.DisconnectErr
}

func (m *MockDevice) SetReportMode(mode provider.ReportMode) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("mode %s", mode)
	if m.ReportModeErr != nil {
		return m.ReportModeErr
	}
	m.mode = mode
	return nil
}

func (m *MockDevice) SetRumble(on bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("rumble %t", on)
	if on {
		m.rumbling = true
		return nil
	}
	if m.StuckRumble > 0 {
		m.StuckRumble--
		return nil
	}
	m.rumbling = false
	return nil
}

func (m *MockDevice) Rumbling() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rumbling
}

func (m *MockDevice) SetLEDs(leds [4]bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("leds %v", leds)
	if m.LEDErr != nil {
		return m.LEDErr
	}
	m.leds = leds
	return nil
}

func (m *MockDevice) SetHandlers(onUpdate func(provider.Update), onExtension func(bool)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onUpdate = onUpdate
	m.onExtension = onExtension
}

// Send delivers u to the registered update handler, if any.
func (m *MockDevice) Send(u provider.Update) {
	m.mu.Lock()
	h := m.onUpdate
	m.mu.Unlock()
	if h != nil {
		h(u)
	}
}

// Extension delivers an extension change, if a handler is registered.
func (m *MockDevice) Extension(inserted bool) {
	m.mu.Lock()
	h := m.onExtension
	m.mu.Unlock()
	if h != nil {
		h(inserted)
	}
}

// Calls returns the recorded device commands in order.
func (m *MockDevice) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

func (m *MockDevice) Connected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.connected
}

func (m *MockDevice) LEDs() [4]bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.leds
}

func (m *MockDevice) Mode() provider.ReportMode {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.mode
}

// HasHandlers reports whether update and extension handlers are set.
func (m *MockDevice) HasHandlers() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.onUpdate != nil && m.onExtension != nil
}

// SinkCall is one recorded sink invocation.
type SinkCall struct {
	Kind  string // "key", "mouse", "move" or "frame"
	Key   keyboard.Key
	Mouse mouse.Button
	Down  bool
	X, Y  float64
	Frame touch.Frame
}

// RecordingSink records every call in order.
type RecordingSink struct {
	mu    sync.Mutex
	calls []SinkCall
}

func (s *RecordingSink) add(c SinkCall) {
	s.mu.Lock()
	s.calls = append(s.calls, c)
	s.mu.Unlock()
}

func (s *RecordingSink) SendKey(code keyboard.Key, down bool) {
	s.add(SinkCall{Kind: "key", Key: code, Down: down})
}

func (s *RecordingSink) SendMouseButton(b mouse.Button, down bool) {
	s.add(SinkCall{Kind: "mouse", Mouse: b, Down: down})
}

func (s *RecordingSink) MovePointer(x, y float64) {
	s.add(SinkCall{Kind: "move", X: x, Y: y})
}

func (s *RecordingSink) PublishFrame(f touch.Frame) {
	s.add(SinkCall{Kind: "frame", Frame: f})
}

// Calls returns a copy of the recorded calls.
func (s *RecordingSink) Calls() []SinkCall {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]SinkCall(nil), s.calls...)
}

// Of returns the recorded calls of one kind.
func (s *RecordingSink) Of(kind string) []SinkCall {
	var out []SinkCall
	for _, c := range s.Calls() {
		if c.Kind == kind {
			out = append(out, c)
		}
	}
	return out
}

// Frames returns the published frames.
func (s *RecordingSink) Frames() []touch.Frame {
	var out []touch.Frame
	for _, c := range s.Of("frame") {
		out = append(out, c.Frame)
	}
	return out
}

// LastFrame returns the most recent frame.
func (s *RecordingSink) LastFrame() (touch.Frame, bool) {
	f := s.Frames()
	if len(f) == 0 {
		return touch.Frame{}, false
	}
	return f[len(f)-1], true
}

// Reset forgets all recorded calls.
func (s *RecordingSink) Reset() {
	s.mu.Lock()
	s.calls = nil
	s.mu.Unlock()
}

// UpdateHandler returns the currently registered update callback.
func (m *MockDevice) UpdateHandler() func(provider.Update) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.onUpdate
}
