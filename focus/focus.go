// Package focus watches the foreground application and switches the
// active keymap when it changes.
package focus

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"time"

	"github.com/Alia5/wiituio/keymap"
	"github.com/kballard/go-shellquote"
)

// Probe reports an identity string for the foreground application,
// typically its executable path or window class.
type Probe interface {
	Foreground(ctx context.Context) (string, error)
}

// ProbeFunc adapts a function to Probe.
type ProbeFunc func(ctx context.Context) (string, error)

func (f ProbeFunc) Foreground(ctx context.Context) (string, error) { return f(ctx) }

// CommandProbe runs an external command and uses its trimmed stdout as
// the identity.
type CommandProbe struct {
	args []string
}

// NewCommandProbe splits cmdline with shell quoting rules.
func NewCommandProbe(cmdline string) (*CommandProbe, error) {
	args, err := shellquote.Split(cmdline)
	if err != nil {
		return nil, fmt.Errorf("parse focus command: %w", err)
	}
	if len(args) == 0 {
		return nil, errors.New("empty focus command")
	}
	return &CommandProbe{args: args}, nil
}

// Args returns the parsed command line.
func (p *CommandProbe) Args() []string { return append([]string(nil), p.args...) }

func (p *CommandProbe) String() string { return shellquote.Join(p.args...) }

func (p *CommandProbe) Foreground(ctx context.Context) (string, error) {
	out, err := exec.CommandContext(ctx, p.args[0], p.args[1:]...).Output()
	if err != nil {
		return "", fmt.Errorf("focus command %q: %w", p.String(), err)
	}
	return strings.TrimSpace(string(out)), nil
}

// Resolver picks the mapping for an application identity.
type Resolver interface {
	Resolve(identity string) (m keymap.Mapping, app string)
}

// Target receives the mapping of a newly focused application.
type Target interface {
	ForegroundChanged(app string, m keymap.Mapping) error
}

// Monitor polls a Probe and forwards mapping changes to a Target. The
// target is only notified when the matched application changes.
type Monitor struct {
	probe    Probe
	resolver Resolver
	target   Target
	interval time.Duration
	logger   *slog.Logger

	identity string
	app      string
	primed   bool
}

func NewMonitor(probe Probe, resolver Resolver, target Target, interval time.Duration, logger *slog.Logger) *Monitor {
	if logger == nil {
		logger = slog.Default()
	}
	if interval <= 0 {
		interval = time.Second
	}
	return &Monitor{
		probe:    probe,
		resolver: resolver,
		target:   target,
		interval: interval,
		logger:   logger,
	}
}

// Run polls until ctx is cancelled.
func (m *Monitor) Run(ctx context.Context) error {
	t := time.NewTicker(m.interval)
	defer t.Stop()
	for {
		m.Poll(ctx)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
		}
	}
}

// Poll runs one probe. Probe failures keep the current mapping.
func (m *Monitor) Poll(ctx context.Context) {
	id, err := m.probe.Foreground(ctx)
	if err != nil {
		if ctx.Err() == nil {
			m.logger.Debug("Foreground probe failed", "error", err)
		}
		return
	}
	if m.primed && id == m.identity {
		return
	}
	m.identity = id

	mapping, app := m.resolver.Resolve(id)
	if m.primed && app == m.app {
		return
	}
	m.primed = true
	m.app = app

	if app == "" {
		m.logger.Info("Using default keymap", "foreground", id)
	} else {
		m.logger.Info("Using application keymap", "app", app, "foreground", id)
	}
	if err := m.target.ForegroundChanged(app, mapping); err != nil {
		m.logger.Warn("Keymap switch rejected", "app", app, "error", err)
	}
}
