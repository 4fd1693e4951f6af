package provider

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Alia5/wiituio/calibration"
	"github.com/Alia5/wiituio/smoothing"
)

// Config holds the pipeline settings.
type Config struct {
	Screen         calibration.Vector
	Calibration    calibration.Rect
	Smoothing      int
	Hover          bool
	BatteryCeiling int
	RumbleDuration time.Duration
	RumbleRetries  int
	RumbleInterval time.Duration
	LEDs           [4]bool
}

func DefaultConfig() Config {
	return Config{
		Screen:         calibration.Vector{X: 1920, Y: 1080},
		Calibration:    calibration.Default(),
		Smoothing:      smoothing.DefaultSize,
		Hover:          true,
		BatteryCeiling: 200,
		RumbleDuration: 80 * time.Millisecond,
		RumbleRetries:  10,
		RumbleInterval: 20 * time.Millisecond,
		LEDs:           [4]bool{true, false, false, true},
	}
}

// Validate checks cfg without building a pipeline.
func (c Config) Validate() error {
	var errs []error
	if _, err := calibration.NewMapper(c.Calibration, c.Screen); err != nil {
		errs = append(errs, err)
	}
	if c.Smoothing < 1 {
		errs = append(errs, fmt.Errorf("smoothing window must be at least 1, got %d", c.Smoothing))
	}
	if c.BatteryCeiling < 0 {
		errs = append(errs, fmt.Errorf("battery ceiling must not be negative, got %d", c.BatteryCeiling))
	}
	if c.RumbleRetries < 1 {
		errs = append(errs, fmt.Errorf("rumble retries must be at least 1, got %d", c.RumbleRetries))
	}
	return errors.Join(errs...)
}

// ParseLEDs parses a pattern such as "1001" (LED 1 first).
func ParseLEDs(s string) ([4]bool, error) {
	var leds [4]bool
	s = strings.TrimSpace(s)
	if len(s) != len(leds) {
		return leds, fmt.Errorf("led pattern %q must have %d characters", s, len(leds))
	}
	for i, c := range s {
		switch c {
		case '1':
			leds[i] = true
		case '0':
		default:
			return leds, fmt.Errorf("led pattern %q: invalid character %q", s, c)
		}
	}
	return leds, nil
}
