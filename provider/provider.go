// Package provider drives the pointer pipeline: it owns the device
// lifecycle and turns each hardware update into touch frames, pointer
// moves and key output.
package provider

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/Alia5/wiituio/buttons"
	"github.com/Alia5/wiituio/calibration"
	"github.com/Alia5/wiituio/internal/log"
	"github.com/Alia5/wiituio/keymap"
	"github.com/Alia5/wiituio/smoothing"
	"github.com/Alia5/wiituio/touch"
	"github.com/dustin/go-broadcast"
	"github.com/google/uuid"
)

// State is the lifecycle state of a Provider.
type State uint8

const (
	Stopped State = iota
	Starting
	Running
)

func (s State) String() string {
	switch s {
	case Stopped:
		return "stopped"
	case Starting:
		return "starting"
	case Running:
		return "running"
	}
	return fmt.Sprintf("state(%d)", uint8(s))
}

// Provider serializes device updates against Start, Stop and mapping
// changes under a single mutex.
type Provider struct {
	cfg    Config
	open   Opener
	sink   Sink
	logger *slog.Logger
	done   chan struct{}

	// evMu orders Register, Submit and Unregister against events.Close;
	// the broadcaster is live while closed is false.
	evMu   sync.RWMutex
	events broadcast.Broadcaster
	closed bool

	mu          sync.Mutex
	state       State
	dev         Device
	conn        uint64
	session     string
	mapper      *calibration.Mapper
	smooth      *smoothing.Buffer
	detector    buttons.Detector
	resolver    *keymap.Resolver
	synth       *touch.Synthesizer
	lastPos     calibration.Vector
	tracking    bool
	mouseMode   bool
	held        [touch.Slots]bool
	battery     int
	rumbleTimer *time.Timer
}

// New validates cfg and returns a stopped Provider. open is called on
// every Start to acquire a fresh device handle.
func New(cfg Config, open Opener, sink Sink, logger *slog.Logger) (*Provider, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid provider config: %w", err)
	}
	if open == nil || sink == nil {
		return nil, errors.New("provider needs a device opener and a sink")
	}
	if logger == nil {
		logger = slog.Default()
	}
	mapper, err := calibration.NewMapper(cfg.Calibration, cfg.Screen)
	if err != nil {
		return nil, err
	}
	p := &Provider{
		cfg:     cfg,
		open:    open,
		sink:    sink,
		logger:  logger,
		events:  broadcast.NewBroadcaster(16),
		done:    make(chan struct{}),
		mapper:  mapper,
		smooth:  smoothing.New(cfg.Smoothing),
		synth:   touch.New(cfg.Hover),
		battery: -1,
	}
	p.resolver = keymap.NewResolver(sink, logger)
	return p, nil
}

// State returns the lifecycle state.
func (p *Provider) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Session returns the id of the current connection, or "" when stopped.
func (p *Provider) Session() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.session
}

// Battery returns the last clamped battery level, or -1 if none was seen.
func (p *Provider) Battery() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.battery
}

// MouseMode reports whether pointer moves replace touch synthesis.
func (p *Provider) MouseMode() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.mouseMode
}

// Held reports the latched hold flag of slot.
func (p *Provider) Held(slot touch.Slot) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return slot < touch.Slots && p.held[slot]
}

// Mapping returns a copy of the active mapping.
func (p *Provider) Mapping() keymap.Mapping { return p.resolver.Mapping() }

// Start connects a fresh device. On failure any partially set up handle
// is torn down, the provider stays stopped and a *ConnectError is returned.
func (p *Provider) Start() error {
	p.mu.Lock()
	if p.state != Stopped {
		p.mu.Unlock()
		return ErrAlreadyRunning
	}
	p.state = Starting
	p.logger.Info("Connecting device")

	dev, err := p.connectLocked()
	if err != nil {
		p.state = Stopped
		p.mu.Unlock()
		p.logger.Error("Device connect failed", "error", err)
		return &ConnectError{Err: err}
	}

	p.dev = dev
	p.session = uuid.NewString()
	p.resetPipelineLocked()
	p.state = Running
	session := p.session
	p.rumbleTimer = time.AfterFunc(p.cfg.RumbleDuration, func() { p.stopRumble(dev) })
	p.mu.Unlock()

	p.logger.Info("Device connected", "session", session)
	p.publish([]Event{{Kind: EventConnected, Session: session}})
	return nil
}

func (p *Provider) connectLocked() (Device, error) {
	dev, err := p.open()
	if err != nil {
		return nil, fmt.Errorf("open device: %w", err)
	}
	// Handlers are bound to this connection so reports still in flight
	// from a previous one are dropped.
	p.conn++
	conn := p.conn
	dev.SetHandlers(
		func(u Update) { p.handleUpdate(conn, u) },
		func(inserted bool) { p.handleExtensionChanged(conn, inserted) },
	)

	fail := func(step string, err error) (Device, error) {
		dev.SetHandlers(nil, nil)
		if terr := dev.Disconnect(); terr != nil {
			p.logger.Debug("Teardown after failed connect", "error", terr)
		}
		return nil, fmt.Errorf("%s: %w", step, err)
	}
	if err := dev.Connect(); err != nil {
		return fail("connect", err)
	}
	if err := dev.SetReportMode(ReportIRAccel); err != nil {
		return fail("set report mode", err)
	}
	if err := dev.SetRumble(true); err != nil {
		return fail("start rumble", err)
	}
	if err := dev.SetLEDs(p.cfg.LEDs); err != nil {
		return fail("set leds", err)
	}
	return dev, nil
}

// stopRumble runs on the rumble timer, outside the provider lock. Some
// devices ignore the first disable requests.
func (p *Provider) stopRumble(dev Device) {
	for attempt := 1; attempt <= p.cfg.RumbleRetries; attempt++ {
		if !p.isCurrent(dev) {
			return
		}
		if err := dev.SetRumble(false); err != nil {
			p.logger.Debug("Rumble disable failed", "attempt", attempt, "error", err)
		}
		if !dev.Rumbling() {
			return
		}
		time.Sleep(p.cfg.RumbleInterval)
	}
	p.logger.Warn("Device kept rumbling after disable requests", "attempts", p.cfg.RumbleRetries)
}

func (p *Provider) isCurrent(dev Device) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state == Running && p.dev == dev
}

// Stop releases every pressed button and active contact, turns the
// device outputs off and disconnects. It is a no-op unless running and
// blocks until an in-flight update has finished.
func (p *Provider) Stop() error {
	p.mu.Lock()
	if p.state != Running {
		p.mu.Unlock()
		return nil
	}
	if p.rumbleTimer != nil {
		p.rumbleTimer.Stop()
		p.rumbleTimer = nil
	}

	events := p.releaseButtonsLocked()
	if f := p.synth.Release(); len(f.Contacts) > 0 {
		p.sink.PublishFrame(f)
	}
	p.held = [touch.Slots]bool{}

	dev := p.dev
	dev.SetHandlers(nil, nil)
	err := errors.Join(
		dev.SetLEDs([4]bool{}),
		dev.SetRumble(false),
		dev.Disconnect(),
	)
	session := p.session
	p.dev = nil
	p.session = ""
	p.state = Stopped
	p.resetPipelineLocked()
	p.mu.Unlock()

	if err != nil {
		p.logger.Warn("Device shutdown incomplete", "session", session, "error", err)
	}
	p.logger.Info("Device disconnected", "session", session)
	p.publish(append(events, Event{Kind: EventDisconnected, Session: session}))
	return err
}

// Close stops the provider and shuts down event delivery.
func (p *Provider) Close() error {
	err := p.Stop()
	p.evMu.Lock()
	defer p.evMu.Unlock()
	if !p.closed {
		p.closed = true
		_ = p.events.Close()
		close(p.done)
	}
	return err
}

func (p *Provider) resetPipelineLocked() {
	p.smooth.Reset()
	p.detector = buttons.Detector{}
	p.tracking = false
	p.mouseMode = false
	p.held = [touch.Slots]bool{}
	p.battery = -1
	p.lastPos = calibration.Vector{}
}

// HandleUpdate processes one hardware report for the current connection.
// Reports arriving while the provider is not running are dropped.
func (p *Provider) HandleUpdate(u Update) { p.handleUpdate(0, u) }

// handleUpdate drops the report unless conn is zero or the current
// connection.
func (p *Provider) handleUpdate(conn uint64, u Update) {
	p.mu.Lock()
	if p.state != Running || (conn != 0 && conn != p.conn) {
		p.mu.Unlock()
		return
	}

	valid := u.Valid()
	if valid {
		mapped, ok := p.mapper.Map(u.Pos)
		if ok {
			if !p.tracking {
				p.smooth.Reset()
			}
			p.lastPos = p.smooth.Push(mapped)
		}
		valid = ok
	}
	p.tracking = valid
	pos := p.lastPos

	var events []Event
	for _, e := range p.detector.Update(u.Buttons) {
		events = p.applyEdgeLocked(e, events)
	}

	if p.mouseMode {
		if p.synth.AnyActive() {
			p.sink.PublishFrame(p.synth.Release())
		}
		if valid {
			p.sink.MovePointer(pos.X, pos.Y)
		}
	} else {
		f := p.synth.Update(touch.Input{
			Pos:        pos,
			MasterHeld: p.held[touch.Master],
			SlaveHeld:  p.held[touch.Slave],
			HoverValid: valid,
		})
		p.sink.PublishFrame(f)
	}

	level := min(max(u.Battery, 0), p.cfg.BatteryCeiling)
	if level != p.battery {
		p.battery = level
		events = append(events, Event{Kind: EventBattery, Session: p.session, Battery: level})
	}
	p.logger.Log(context.Background(), log.LevelTrace, "Update",
		"raw", u.Pos, "valid", valid, "pos", pos, "buttons", u.Buttons)
	p.mu.Unlock()

	p.publish(events)
}

func (p *Provider) applyEdgeLocked(e buttons.Edge, events []Event) []Event {
	ev, ok := p.resolver.Resolve(e)
	if !ok {
		return events
	}
	events = append(events, Event{Kind: EventButton, Session: p.session, Button: ev})

	switch ev.Verb {
	case keymap.VerbTouchMaster:
		p.held[touch.Master] = e.Down
	case keymap.VerbTouchSlave:
		p.held[touch.Slave] = e.Down
	case keymap.VerbMouseToggle:
		if !e.Down {
			p.mouseMode = !p.mouseMode
			p.logger.Info("Pointer mode changed", "mouse", p.mouseMode)
			events = append(events, Event{Kind: EventMouseMode, Session: p.session, MouseMode: p.mouseMode})
		}
	}
	return events
}

func (p *Provider) releaseButtonsLocked() []Event {
	var events []Event
	for _, e := range p.detector.Release() {
		events = p.applyEdgeLocked(e, events)
	}
	return events
}

// HandleExtensionChanged switches the report mode when an extension is
// plugged in or removed.
func (p *Provider) HandleExtensionChanged(inserted bool) {
	p.handleExtensionChanged(0, inserted)
}

func (p *Provider) handleExtensionChanged(conn uint64, inserted bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state != Running || (conn != 0 && conn != p.conn) {
		return
	}
	mode := ReportIRAccel
	if inserted {
		mode = ReportIRExtensionAccel
	}
	if err := p.dev.SetReportMode(mode); err != nil {
		p.logger.Warn("Failed to switch report mode", "mode", mode, "error", err)
		return
	}
	p.logger.Debug("Extension changed", "inserted", inserted, "mode", mode)
}

// SetMapping validates m and makes it the active mapping. Buttons held
// under the old mapping are released through it first. An invalid
// mapping is rejected and the previous one stays active.
func (p *Provider) SetMapping(m keymap.Mapping) error {
	t, err := keymap.NewTable(m)
	if err != nil {
		p.logger.Warn("Rejected mapping", "error", err)
		return err
	}

	p.mu.Lock()
	var events []Event
	if p.state == Running {
		events = p.releaseButtonsLocked()
	}
	p.resolver.Swap(t)
	p.mu.Unlock()

	p.publish(events)
	return nil
}

// ForegroundChanged installs the mapping resolved for the application
// that just gained focus.
func (p *Provider) ForegroundChanged(app string, m keymap.Mapping) error {
	p.logger.Debug("Foreground application changed", "app", app)
	return p.SetMapping(m)
}

func (p *Provider) publish(events []Event) {
	if len(events) == 0 {
		return
	}
	p.evMu.RLock()
	defer p.evMu.RUnlock()
	if p.closed {
		return
	}
	for _, ev := range events {
		p.events.Submit(ev)
	}
}
