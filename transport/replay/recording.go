package replay

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Alia5/wiituio/buttons"
	"github.com/Alia5/wiituio/calibration"
	"github.com/Alia5/wiituio/provider"

	toml "github.com/pelletier/go-toml"
	yaml "gopkg.in/yaml.v3"
)

// DefaultInterval is the delay between updates that set none.
const DefaultInterval = 10 * time.Millisecond

// Step is one recorded device event: a report, or an extension change
// when Extension is set.
type Step struct {
	X         float64  `json:"x" yaml:"x" toml:"x"`
	Y         float64  `json:"y" yaml:"y" toml:"y"`
	Buttons   []string `json:"buttons,omitempty" yaml:"buttons,omitempty" toml:"buttons,omitempty"`
	Battery   int      `json:"battery" yaml:"battery" toml:"battery"`
	Delay     string   `json:"delay,omitempty" yaml:"delay,omitempty" toml:"delay,omitempty"`
	Repeat    int      `json:"repeat,omitempty" yaml:"repeat,omitempty" toml:"repeat,omitempty"`
	Extension *bool    `json:"extension,omitempty" yaml:"extension,omitempty" toml:"extension,omitempty"`
}

// Recording is a replayable session.
type Recording struct {
	Interval string `json:"interval,omitempty" yaml:"interval,omitempty" toml:"interval,omitempty"`
	Loop     bool   `json:"loop,omitempty" yaml:"loop,omitempty" toml:"loop,omitempty"`
	Updates  []Step `json:"updates" yaml:"updates" toml:"updates"`
}

type event struct {
	delay     time.Duration
	update    provider.Update
	extension *bool
}

// Script is a compiled recording.
type Script struct {
	loop   bool
	events []event
}

// Len returns the number of events played per pass.
func (s *Script) Len() int { return len(s.events) }

// Compile validates r and expands repeats.
func (r *Recording) Compile() (*Script, error) {
	interval := DefaultInterval
	if r.Interval != "" {
		d, err := time.ParseDuration(r.Interval)
		if err != nil {
			return nil, fmt.Errorf("interval: %w", err)
		}
		interval = d
	}

	s := &Script{loop: r.Loop}
	var errs []error
	for i, st := range r.Updates {
		delay := interval
		if st.Delay != "" {
			d, err := time.ParseDuration(st.Delay)
			if err != nil {
				errs = append(errs, fmt.Errorf("update %d: delay: %w", i, err))
				continue
			}
			delay = d
		}
		if delay < 0 {
			errs = append(errs, fmt.Errorf("update %d: negative delay", i))
			continue
		}
		if st.Extension != nil {
			s.events = append(s.events, event{delay: delay, extension: st.Extension})
			continue
		}

		var state buttons.State
		for _, name := range st.Buttons {
			b, err := buttons.Parse(name)
			if err != nil {
				errs = append(errs, fmt.Errorf("update %d: %w", i, err))
				continue
			}
			state = state.With(b, true)
		}
		u := provider.Update{
			Pos:     calibration.Vector{X: st.X, Y: st.Y},
			Buttons: state,
			Battery: st.Battery,
		}
		for n := 0; n < max(st.Repeat, 1); n++ {
			s.events = append(s.events, event{delay: delay, update: u})
		}
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	if len(s.events) == 0 {
		return nil, errors.New("recording has no updates")
	}
	if s.loop {
		var total time.Duration
		for _, ev := range s.events {
			total += ev.delay
		}
		if total == 0 {
			return nil, errors.New("looping recording needs a non-zero delay")
		}
	}
	return s, nil
}

// Parse decodes a recording. format is json, yaml or toml.
func Parse(data []byte, format string) (*Recording, error) {
	var r Recording
	var err error
	switch strings.ToLower(format) {
	case "json":
		err = json.Unmarshal(data, &r)
	case "yaml", "yml":
		err = yaml.Unmarshal(data, &r)
	case "toml":
		err = toml.Unmarshal(data, &r)
	default:
		return nil, fmt.Errorf("unsupported format: %s", format)
	}
	if err != nil {
		return nil, fmt.Errorf("parse %s recording: %w", format, err)
	}
	return &r, nil
}

// Load reads and compiles a recording file, picking the format by extension.
func Load(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	r, err := Parse(data, strings.TrimPrefix(filepath.Ext(path), "."))
	if err != nil {
		return nil, err
	}
	s, err := r.Compile()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}
