package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Alia5/wiituio/calibration"
	"github.com/Alia5/wiituio/focus"
	"github.com/Alia5/wiituio/internal/configpaths"
	"github.com/Alia5/wiituio/internal/log"
	"github.com/Alia5/wiituio/internal/util"
	"github.com/Alia5/wiituio/keymap/store"
	"github.com/Alia5/wiituio/provider"
	"github.com/Alia5/wiituio/sink"
	"github.com/Alia5/wiituio/transport/replay"
)

// PointerConfig configures calibration and touch synthesis.
type PointerConfig struct {
	ScreenWidth  int       `help:"Target screen width in pixels" default:"1920" env:"WIITUIO_POINTER_SCREEN_WIDTH"`
	ScreenHeight int       `help:"Target screen height in pixels" default:"1080" env:"WIITUIO_POINTER_SCREEN_HEIGHT"`
	Calibration  []float64 `help:"Calibration corners in sensor space: TLx,TLy,TRx,TRy,BLx,BLy,BRx,BRy" default:"0,0,1,0,0,1,1,1" sep:"," env:"WIITUIO_POINTER_CALIBRATION"`
	Smoothing    int       `help:"Number of samples averaged per position" default:"3" env:"WIITUIO_POINTER_SMOOTHING"`
	Hover        bool      `help:"Report an in-range pointer as hovering" default:"true" negatable:"" env:"WIITUIO_POINTER_HOVER"`
}

// DeviceConfig configures device feedback.
type DeviceConfig struct {
	BatteryCeiling int           `help:"Maximum reported battery level" default:"200" env:"WIITUIO_DEVICE_BATTERY_CEILING"`
	RumbleDuration time.Duration `help:"Length of the connect acknowledgement rumble" default:"80ms" env:"WIITUIO_DEVICE_RUMBLE_DURATION"`
	RumbleRetries  int           `help:"Attempts made to stop the acknowledgement rumble" default:"10" env:"WIITUIO_DEVICE_RUMBLE_RETRIES"`
	RumbleInterval time.Duration `help:"Delay between rumble stop attempts" default:"20ms" env:"WIITUIO_DEVICE_RUMBLE_INTERVAL"`
	LEDs           string        `name:"leds" help:"Player LED pattern, LED 1 first" default:"1001" env:"WIITUIO_DEVICE_LEDS"`
}

// Run plays a recorded session through the provider into the virtual sink.
type Run struct {
	Replay        string        `help:"Recorded session file (json, yaml or toml)" env:"WIITUIO_REPLAY"`
	Keymaps       string        `help:"Keymap directory holding the Applications index (default: <config dir>/keymaps)" env:"WIITUIO_KEYMAPS"`
	FocusCommand  string        `help:"Command printing the foreground application; enables per-application keymaps" env:"WIITUIO_FOCUS_COMMAND"`
	FocusInterval time.Duration `help:"Foreground polling interval" default:"1s" env:"WIITUIO_FOCUS_INTERVAL"`
	Pointer       PointerConfig `embed:"" prefix:"pointer."`
	Device        DeviceConfig  `embed:"" prefix:"device."`
}

// Run is called by Kong when the run command is executed.
func (r *Run) Run(logger *slog.Logger, rawLogger log.RawLogger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	err := r.Serve(ctx, logger, rawLogger)
	if err != nil && util.LaunchedFromDesktop() {
		logger.Error("wiituio stopped", "error", err)
		util.WaitForEnter()
	}
	return err
}

// ProviderConfig converts the flags into a provider.Config.
func (r *Run) ProviderConfig() (provider.Config, error) {
	cfg := provider.DefaultConfig()
	c := r.Pointer.Calibration
	if len(c) != 8 {
		return cfg, fmt.Errorf("calibration needs 8 values, got %d", len(c))
	}
	cfg.Calibration = calibration.Rect{
		TopLeft:     calibration.Vector{X: c[0], Y: c[1]},
		TopRight:    calibration.Vector{X: c[2], Y: c[3]},
		BottomLeft:  calibration.Vector{X: c[4], Y: c[5]},
		BottomRight: calibration.Vector{X: c[6], Y: c[7]},
	}
	cfg.Screen = calibration.Vector{X: float64(r.Pointer.ScreenWidth), Y: float64(r.Pointer.ScreenHeight)}
	cfg.Smoothing = r.Pointer.Smoothing
	cfg.Hover = r.Pointer.Hover
	cfg.BatteryCeiling = r.Device.BatteryCeiling
	cfg.RumbleDuration = r.Device.RumbleDuration
	cfg.RumbleRetries = r.Device.RumbleRetries
	cfg.RumbleInterval = r.Device.RumbleInterval

	leds, err := provider.ParseLEDs(r.Device.LEDs)
	if err != nil {
		return cfg, err
	}
	cfg.LEDs = leds
	return cfg, cfg.Validate()
}

func (r *Run) keymapDir() string {
	if r.Keymaps != "" {
		return r.Keymaps
	}
	dir, err := configpaths.DefaultKeymapDir()
	if err != nil {
		return ""
	}
	if _, err := os.Stat(dir); err != nil {
		return ""
	}
	return dir
}

// Serve runs until ctx is cancelled or the recording has been played.
func (r *Run) Serve(ctx context.Context, logger *slog.Logger, rawLogger log.RawLogger) error {
	if r.Replay == "" {
		return errors.New("no device source; pass --replay with a recorded session")
	}
	cfg, err := r.ProviderConfig()
	if err != nil {
		return fmt.Errorf("invalid pointer configuration: %w", err)
	}
	script, err := replay.Load(r.Replay)
	if err != nil {
		return fmt.Errorf("failed to load recording: %w", err)
	}
	keymaps, err := store.Open(r.keymapDir(), logger)
	if err != nil {
		return fmt.Errorf("failed to load keymaps: %w", err)
	}

	dev := replay.New(script, logger)
	out := sink.NewVirtual(cfg.Screen, rawLogger, logger)
	p, err := provider.New(cfg, dev.Opener(), out, logger)
	if err != nil {
		return err
	}
	defer func() { _ = p.Close() }()

	if err := p.SetMapping(keymaps.Default()); err != nil {
		return fmt.Errorf("default keymap: %w", err)
	}

	evCtx, cancelEvents := context.WithCancel(ctx)
	defer cancelEvents()
	go logEvents(p.Events(evCtx), logger)

	logger.Info("Starting wiituio", "replay", r.Replay, "events", script.Len())
	if err := p.Start(); err != nil {
		return err
	}

	if r.FocusCommand != "" {
		probe, err := focus.NewCommandProbe(r.FocusCommand)
		if err != nil {
			return err
		}
		mon := focus.NewMonitor(probe, keymaps, p, r.FocusInterval, logger)
		go func() { _ = mon.Run(evCtx) }()
		logger.Info("Watching foreground application", "command", probe.String(), "interval", r.FocusInterval)
	}

	select {
	case <-ctx.Done():
		logger.Info("Shutting down")
	case <-dev.Finished():
		logger.Info("Recording finished")
	}
	return p.Stop()
}

func logEvents(events <-chan provider.Event, logger *slog.Logger) {
	for ev := range events {
		switch ev.Kind {
		case provider.EventBattery:
			logger.Info("Battery", "level", ev.Battery, "session", ev.Session)
		case provider.EventButton:
			logger.Debug("Button", "event", ev.Button.String())
		case provider.EventMouseMode:
			logger.Info("Pointer mode", "mouse", ev.MouseMode)
		default:
			logger.Info("Device "+ev.Kind.String(), "session", ev.Session)
		}
	}
}
