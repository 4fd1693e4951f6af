// Package replay provides a device that plays back a recorded session
// of hardware reports.
package replay

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/Alia5/wiituio/provider"
)

// Device implements provider.Device on top of a Script. Playback starts
// from the top on every Connect and runs on its own goroutine.
type Device struct {
	script *Script
	logger *slog.Logger

	mu          sync.Mutex
	connected   bool
	rumbling    bool
	leds        [4]bool
	mode        provider.ReportMode
	onUpdate    func(provider.Update)
	onExtension func(bool)
	cancel      context.CancelFunc
	finished    chan struct{}
}

func New(script *Script, logger *slog.Logger) *Device {
	if logger == nil {
		logger = slog.Default()
	}
	return &Device{script: script, logger: logger, finished: make(chan struct{})}
}

// Opener returns a provider.Opener that hands out d.
func (d *Device) Opener() provider.Opener {
	return func() (provider.Device, error) { return d, nil }
}

// Finished is closed once a non-looping script has played to the end.
// Every Connect starts a new playback with its own channel, so call
// Finished after connecting.
func (d *Device) Finished() <-chan struct{} {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.finished
}

func (d *Device) Connect() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.connected {
		return errors.New("replay device already connected")
	}
	if d.script == nil || d.script.Len() == 0 {
		return errors.New("replay device has no script")
	}
	ctx, cancel := context.WithCancel(context.Background())
	d.cancel = cancel
	d.connected = true
	d.finished = make(chan struct{})
	go d.play(ctx, d.finished)
	d.logger.Debug("Replay started", "events", d.script.Len(), "loop", d.script.loop)
	return nil
}

// Disconnect stops playback. It does not wait for the playback goroutine,
// which may be blocked delivering an update to the provider; once
// cancelled it delivers nothing further.
func (d *Device) Disconnect() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.connected = false
	d.rumbling = false
	return nil
}

func (d *Device) SetReportMode(mode provider.ReportMode) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.mode = mode
	d.logger.Debug("Report mode", "mode", mode)
	return nil
}

func (d *Device) SetRumble(on bool) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.rumbling = on
	return nil
}

func (d *Device) Rumbling() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.rumbling
}

func (d *Device) SetLEDs(leds [4]bool) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.leds = leds
	return nil
}

// LEDs returns the last LED pattern.
func (d *Device) LEDs() [4]bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.leds
}

// Mode returns the last report mode.
func (d *Device) Mode() provider.ReportMode {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.mode
}

func (d *Device) SetHandlers(onUpdate func(provider.Update), onExtension func(bool)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.onUpdate = onUpdate
	d.onExtension = onExtension
}

func (d *Device) play(ctx context.Context, finished chan struct{}) {
	timer := time.NewTimer(0)
	defer timer.Stop()
	<-timer.C

	for {
		for _, ev := range d.script.events {
			timer.Reset(ev.delay)
			select {
			case <-ctx.Done():
				return
			case <-timer.C:
			}
			d.deliver(ctx, ev)
		}
		if !d.script.loop {
			close(finished)
			return
		}
	}
}

func (d *Device) deliver(ctx context.Context, ev event) {
	d.mu.Lock()
	if ctx.Err() != nil {
		d.mu.Unlock()
		return
	}
	onUpdate, onExtension := d.onUpdate, d.onExtension
	d.mu.Unlock()

	if ev.extension != nil {
		if onExtension != nil {
			onExtension(*ev.extension)
		}
		return
	}
	if onUpdate != nil {
		onUpdate(ev.update)
	}
}
