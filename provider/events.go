package provider

import (
	"context"
	"fmt"

	"github.com/Alia5/wiituio/keymap"
)

// EventKind discriminates status events.
type EventKind uint8

const (
	EventConnected EventKind = iota
	EventDisconnected
	EventBattery
	EventButton
	EventMouseMode
)

func (k EventKind) String() string {
	switch k {
	case EventConnected:
		return "connected"
	case EventDisconnected:
		return "disconnected"
	case EventBattery:
		return "battery"
	case EventButton:
		return "button"
	case EventMouseMode:
		return "mouse-mode"
	}
	return fmt.Sprintf("event(%d)", uint8(k))
}

// Event is a status notification. Only the fields relevant to Kind are set.
type Event struct {
	Kind      EventKind
	Session   string
	Battery   int
	Button    keymap.ButtonEvent
	MouseMode bool
}

// Events streams status events until ctx is done or the provider is
// closed. Events submitted before the call are not replayed. The
// receiver must keep draining the returned channel until it is closed.
func (p *Provider) Events(ctx context.Context) <-chan Event {
	out := make(chan Event, 16)
	raw := make(chan interface{}, 16)

	p.evMu.RLock()
	if p.closed {
		p.evMu.RUnlock()
		close(out)
		return out
	}
	p.events.Register(raw)
	p.evMu.RUnlock()

	go func() {
		defer close(out)
		for {
			select {
			case <-p.done:
				return
			case <-ctx.Done():
				p.unregister(raw)
				return
			case v := <-raw:
				ev, ok := v.(Event)
				if !ok {
					continue
				}
				select {
				case out <- ev:
				case <-ctx.Done():
				case <-p.done:
					return
				}
			}
		}
	}()
	return out
}

// unregister detaches raw from the broadcaster. raw is drained for the
// whole call so a pending broadcast cannot stall the removal or a
// concurrent Close. After Close there is nothing to detach from.
func (p *Provider) unregister(raw chan interface{}) {
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		for {
			select {
			case <-raw:
			case <-stop:
				return
			}
		}
	}()

	p.evMu.RLock()
	defer p.evMu.RUnlock()
	if !p.closed {
		p.events.Unregister(raw)
	}
}
