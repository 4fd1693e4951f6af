// Package keymap resolves button edges to keyboard, mouse and opaque
// actions through a hot-swappable mapping.
package keymap

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/Alia5/wiituio/buttons"
	"github.com/Alia5/wiituio/device/keyboard"
	"github.com/Alia5/wiituio/device/mouse"
	"github.com/Alia5/wiituio/internal/log"
)

// KeySink receives the keyboard and mouse output of resolved actions.
type KeySink interface {
	SendKey(code keyboard.Key, down bool)
	SendMouseButton(b mouse.Button, down bool)
}

// ButtonEvent is produced once per resolved edge of a mapped button.
type ButtonEvent struct {
	Button  buttons.Button
	Down    bool
	Action  string
	Handled bool
	Verb    Verb
}

func (e ButtonEvent) String() string {
	dir := "up"
	if e.Down {
		dir = "down"
	}
	return fmt.Sprintf("%s %s -> %q handled=%t", e.Button, dir, e.Action, e.Handled)
}

// Resolver turns button edges into sink output using the active Table.
// The table is swapped atomically; a resolution always sees one table.
type Resolver struct {
	sink   KeySink
	logger *slog.Logger
	table  atomic.Pointer[Table]
}

// NewResolver returns a Resolver with an empty mapping.
func NewResolver(sink KeySink, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Resolver{sink: sink, logger: logger}
	r.table.Store(&Table{source: Mapping{}})
	return r
}

// SetMapping validates and installs m. On error the active mapping is
// left untouched.
func (r *Resolver) SetMapping(m Mapping) error {
	t, err := NewTable(m)
	if err != nil {
		return err
	}
	r.Swap(t)
	return nil
}

// Swap installs a precompiled table.
func (r *Resolver) Swap(t *Table) {
	if t == nil {
		return
	}
	r.table.Store(t)
}

// Mapping returns a copy of the active mapping.
func (r *Resolver) Mapping() Mapping { return r.table.Load().Mapping() }

// Resolve dispatches a detected edge.
func (r *Resolver) Resolve(e buttons.Edge) (ButtonEvent, bool) {
	if e.Down {
		return r.ResolveDown(e.Button)
	}
	return r.ResolveUp(e.Button)
}

// ResolveDown emits the press of b's action. ok is false when b is
// unmapped, in which case nothing is emitted.
func (r *Resolver) ResolveDown(b buttons.Button) (ButtonEvent, bool) {
	return r.resolve(b, true)
}

// ResolveUp emits the release of b's action.
func (r *Resolver) ResolveUp(b buttons.Button) (ButtonEvent, bool) {
	return r.resolve(b, false)
}

func (r *Resolver) resolve(b buttons.Button, down bool) (ButtonEvent, bool) {
	a, ok := r.table.Load().Action(b)
	if !ok {
		return ButtonEvent{}, false
	}
	ev := ButtonEvent{Button: b, Down: down, Action: a.Text, Handled: a.Handled(), Verb: a.Verb}

	switch a.Kind {
	case KindKey:
		r.sink.SendKey(a.Key, down)
	case KindModified:
		if down {
			for _, m := range a.Mods {
				r.sink.SendKey(m, true)
			}
		}
		r.sink.SendKey(a.Key, down)
	case KindMouse:
		r.sink.SendMouseButton(a.Mouse, down)
	}
	r.logger.Log(context.Background(), log.LevelTrace, "Resolved button", "event", ev.String())
	return ev, true
}
