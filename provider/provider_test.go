package provider_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Alia5/wiituio/buttons"
	"github.com/Alia5/wiituio/calibration"
	"github.com/Alia5/wiituio/device/keyboard"
	htesting "github.com/Alia5/wiituio/internal/testing"
	"github.com/Alia5/wiituio/keymap"
	"github.com/Alia5/wiituio/keymap/store"
	"github.com/Alia5/wiituio/provider"
	"github.com/Alia5/wiituio/touch"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() provider.Config {
	cfg := provider.DefaultConfig()
	cfg.Smoothing = 1
	cfg.RumbleDuration = time.Millisecond
	cfg.RumbleInterval = time.Millisecond
	return cfg
}

type fixture struct {
	dev  *htesting.MockDevice
	sink *htesting.RecordingSink
	p    *provider.Provider
}

func newFixture(t *testing.T, cfg provider.Config) *fixture {
	t.Helper()
	f := &fixture{dev: &htesting.MockDevice{}, sink: &htesting.RecordingSink{}}
	p, err := provider.New(cfg, func() (provider.Device, error) { return f.dev, nil }, f.sink, nil)
	require.NoError(t, err)
	require.NoError(t, p.SetMapping(store.DefaultMapping()))
	f.p = p
	t.Cleanup(func() { _ = p.Close() })
	return f
}

func (f *fixture) start(t *testing.T) {
	t.Helper()
	require.NoError(t, f.p.Start())
	f.sink.Reset()
}

func (f *fixture) send(x, y float64, pressed ...buttons.Button) touch.Frame {
	f.dev.Send(provider.Update{Pos: calibration.Vector{X: x, Y: y}, Buttons: buttons.Of(pressed...), Battery: 100})
	fr, _ := f.sink.LastFrame()
	return fr
}

func TestStartConfiguresDevice(t *testing.T) {
	f := newFixture(t, testConfig())
	f.start(t)

	assert.Equal(t, provider.Running, f.p.State())
	assert.NotEmpty(t, f.p.Session())
	assert.True(t, f.dev.Connected())
	assert.True(t, f.dev.HasHandlers())
	assert.Equal(t, [4]bool{true, false, false, true}, f.dev.LEDs())
	assert.Equal(t, []string{
		"connect", "mode ir+accel", "rumble true", "leds [true false false true]",
	}, f.dev.Calls()[:4])

	assert.Eventually(t, func() bool { return !f.dev.Rumbling() }, time.Second, time.Millisecond)
	assert.ErrorIs(t, f.p.Start(), provider.ErrAlreadyRunning)
}

func TestStartFailureStaysStopped(t *testing.T) {
	cause := errors.New("no bluetooth")
	f := newFixture(t, testConfig())
	f.dev.ConnectErr = cause

	err := f.p.Start()
	var cerr *provider.ConnectError
	require.ErrorAs(t, err, &cerr)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, provider.Stopped, f.p.State())
	assert.False(t, f.dev.HasHandlers())
	assert.Equal(t, []string{"connect", "disconnect"}, f.dev.Calls())

	f.dev.Send(provider.Update{Pos: calibration.Vector{X: 0.5, Y: 0.5}})
	assert.Empty(t, f.sink.Calls())
}

func TestStartFailsOnOpener(t *testing.T) {
	p, err := provider.New(testConfig(), func() (provider.Device, error) {
		return nil, errors.New("not found")
	}, &htesting.RecordingSink{}, nil)
	require.NoError(t, err)

	err = p.Start()
	var cerr *provider.ConnectError
	assert.ErrorAs(t, err, &cerr)
	assert.Equal(t, provider.Stopped, p.State())
}

func TestStartFailureOnLEDsTearsDown(t *testing.T) {
	f := newFixture(t, testConfig())
	f.dev.LEDErr = errors.New("write failed")

	require.Error(t, f.p.Start())
	assert.False(t, f.dev.Connected())
	assert.Equal(t, provider.Stopped, f.p.State())
}

func TestUpdatesIgnoredWhileStopped(t *testing.T) {
	f := newFixture(t, testConfig())
	f.p.HandleUpdate(provider.Update{Pos: calibration.Vector{X: 0.5, Y: 0.5}, Buttons: buttons.Of(buttons.Plus)})
	assert.Empty(t, f.sink.Calls())
}

func TestMidpointHover(t *testing.T) {
	f := newFixture(t, testConfig())
	f.start(t)

	fr := f.send(0.5, 0.5)
	assert.Empty(t, fr.Contacts)
	assert.True(t, fr.Hover)
	assert.Equal(t, calibration.Vector{X: 960, Y: 540}, fr.HoverPos)
}

func TestTouchMasterLifecycle(t *testing.T) {
	f := newFixture(t, testConfig())
	f.start(t)

	fr := f.send(0.5, 0.5, buttons.A)
	require.Len(t, fr.Contacts, 1)
	assert.Equal(t, touch.Contact{Slot: touch.Master, Phase: touch.Begin, Pos: calibration.Vector{X: 960, Y: 540}}, fr.Contacts[0])
	assert.True(t, f.p.Held(touch.Master))

	fr = f.send(0.25, 0.5, buttons.A)
	require.Len(t, fr.Contacts, 1)
	assert.Equal(t, touch.Move, fr.Contacts[0].Phase)
	assert.Equal(t, calibration.Vector{X: 480, Y: 540}, fr.Contacts[0].Pos)

	fr = f.send(0.25, 0.5)
	require.Len(t, fr.Contacts, 1)
	assert.Equal(t, touch.End, fr.Contacts[0].Phase)

	fr = f.send(0.25, 0.5)
	assert.Empty(t, fr.Contacts)
	assert.False(t, f.p.Held(touch.Master))
}

func TestTrackingLossKeepsContact(t *testing.T) {
	f := newFixture(t, testConfig())
	f.start(t)

	f.send(0.5, 0.5, buttons.A)
	fr := f.send(-1, -1, buttons.A)
	require.Len(t, fr.Contacts, 1)
	assert.Equal(t, touch.Contact{Slot: touch.Master, Phase: touch.Move, Pos: calibration.Vector{X: 960, Y: 540}}, fr.Contacts[0])
	assert.False(t, fr.Hover)
}

func TestSmoothingResetsAfterTrackingLoss(t *testing.T) {
	cfg := testConfig()
	cfg.Smoothing = 3
	f := newFixture(t, cfg)
	f.start(t)

	f.send(0, 0)
	fr := f.send(1, 1)
	assert.InDelta(t, 960, fr.HoverPos.X, 1e-9, "averaged with the previous sample")

	f.send(-1, 0.5)
	fr = f.send(1, 1)
	assert.Equal(t, calibration.Vector{X: 1920, Y: 1080}, fr.HoverPos)
}

func TestModifiedKeySequence(t *testing.T) {
	f := newFixture(t, testConfig())
	f.start(t)

	f.send(0.5, 0.5, buttons.Plus)
	assert.Equal(t, []htesting.SinkCall{
		{Kind: "key", Key: keyboard.KeyLeftCtrl, Down: true},
		{Kind: "key", Key: keyboard.KeyEqual, Down: true},
	}, f.sink.Of("key"))

	f.sink.Reset()
	f.send(0.5, 0.5)
	assert.Equal(t, []htesting.SinkCall{
		{Kind: "key", Key: keyboard.KeyEqual, Down: false},
	}, f.sink.Of("key"))
}

func TestMappingSwapReleasesHeldButtons(t *testing.T) {
	f := newFixture(t, testConfig())
	f.start(t)

	f.send(0.5, 0.5, buttons.A, buttons.Plus)
	require.True(t, f.p.Held(touch.Master))
	f.sink.Reset()

	require.NoError(t, f.p.ForegroundChanged("game", keymap.Mapping{buttons.A: {"Space"}}))
	assert.False(t, f.p.Held(touch.Master))
	assert.Equal(t, []htesting.SinkCall{
		{Kind: "key", Key: keyboard.KeyEqual, Down: false},
	}, f.sink.Of("key"))

	// Still physically held: the next report presses it under the new mapping.
	fr := f.send(0.5, 0.5, buttons.A)
	require.Len(t, fr.Contacts, 1)
	assert.Equal(t, touch.End, fr.Contacts[0].Phase)
	assert.Equal(t, []htesting.SinkCall{
		{Kind: "key", Key: keyboard.KeyEqual, Down: false},
		{Kind: "key", Key: keyboard.KeySpace, Down: true},
	}, f.sink.Of("key"))
}

func TestInvalidMappingKeepsPrevious(t *testing.T) {
	f := newFixture(t, testConfig())
	err := f.p.SetMapping(keymap.Mapping{buttons.A: {}})
	assert.ErrorIs(t, err, keymap.ErrInvalidMapping)
	assert.Equal(t, store.DefaultMapping(), f.p.Mapping())
}

func TestMouseMode(t *testing.T) {
	f := newFixture(t, testConfig())
	f.start(t)

	f.send(0.5, 0.5, buttons.A)
	f.send(0.5, 0.5, buttons.A, buttons.One)
	assert.False(t, f.p.MouseMode(), "toggles on release")
	f.sink.Reset()

	f.send(0.5, 0.5, buttons.A)
	assert.True(t, f.p.MouseMode())
	calls := f.sink.Calls()
	require.Len(t, calls, 2)
	assert.Equal(t, "frame", calls[0].Kind)
	require.Len(t, calls[0].Frame.Contacts, 1)
	assert.Equal(t, touch.End, calls[0].Frame.Contacts[0].Phase)
	assert.Equal(t, htesting.SinkCall{Kind: "move", X: 960, Y: 540}, calls[1])

	f.sink.Reset()
	f.send(-1, -1, buttons.A)
	assert.Empty(t, f.sink.Calls(), "no move without a valid sample")

	f.send(0.5, 0.5, buttons.One)
	f.send(0.5, 0.5)
	assert.False(t, f.p.MouseMode())
	fr, ok := f.sink.LastFrame()
	require.True(t, ok)
	assert.Empty(t, fr.Contacts)
}

func TestBatteryEvents(t *testing.T) {
	cfg := testConfig()
	f := newFixture(t, cfg)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	events := f.p.Events(ctx)

	f.start(t)
	for _, level := range []int{250, 250, 120, -5} {
		f.dev.Send(provider.Update{Pos: calibration.Vector{X: 0.5, Y: 0.5}, Battery: level})
	}

	var got []provider.Event
	timeout := time.After(time.Second)
	for len(got) < 4 {
		select {
		case ev := <-events:
			got = append(got, ev)
		case <-timeout:
			t.Fatalf("timed out, got %v", got)
		}
	}
	assert.Equal(t, provider.EventConnected, got[0].Kind)
	assert.Equal(t, f.p.Session(), got[0].Session)
	levels := []int{got[1].Battery, got[2].Battery, got[3].Battery}
	assert.Equal(t, []int{200, 120, 0}, levels)
	assert.Equal(t, 0, f.p.Battery())
}

func TestStopReleasesEverything(t *testing.T) {
	f := newFixture(t, testConfig())
	f.start(t)

	f.send(0.5, 0.5, buttons.A, buttons.Home)
	f.sink.Reset()

	require.NoError(t, f.p.Stop())
	assert.Equal(t, provider.Stopped, f.p.State())
	assert.Empty(t, f.p.Session())
	assert.False(t, f.dev.Connected())
	assert.False(t, f.dev.HasHandlers())
	assert.Equal(t, [4]bool{}, f.dev.LEDs())

	calls := f.sink.Calls()
	require.Len(t, calls, 2)
	assert.Equal(t, htesting.SinkCall{Kind: "key", Key: keyboard.KeyLeftGUI, Down: false}, calls[0])
	require.Len(t, calls[1].Frame.Contacts, 1)
	assert.Equal(t, touch.End, calls[1].Frame.Contacts[0].Phase)

	require.NoError(t, f.p.Stop(), "idempotent")

	// Restart uses a fresh pipeline.
	f.start(t)
	fr := f.send(0.5, 0.5)
	assert.Empty(t, fr.Contacts)
}

func TestExtensionSwitchesReportMode(t *testing.T) {
	f := newFixture(t, testConfig())
	f.start(t)

	f.dev.Extension(true)
	assert.Equal(t, provider.ReportIRExtensionAccel, f.dev.Mode())
	f.dev.Extension(false)
	assert.Equal(t, provider.ReportIRAccel, f.dev.Mode())
}

func TestRumbleRetriesAreBounded(t *testing.T) {
	cfg := testConfig()
	cfg.RumbleRetries = 3
	f := newFixture(t, cfg)
	f.dev.StuckRumble = 100
	f.start(t)

	countOff := func() int {
		n := 0
		for _, c := range f.dev.Calls() {
			if c == "rumble false" {
				n++
			}
		}
		return n
	}
	assert.Eventually(t, func() bool { return countOff() == 3 }, time.Second, time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, 3, countOff())
	assert.True(t, f.dev.Rumbling())
}

func TestConcurrentUpdatesAndStop(t *testing.T) {
	f := newFixture(t, testConfig())
	f.start(t)

	var wg sync.WaitGroup
	for g := 0; g < 4; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				var pressed []buttons.Button
				if (i+g)%3 == 0 {
					pressed = append(pressed, buttons.A, buttons.B)
				}
				f.p.HandleUpdate(provider.Update{Pos: calibration.Vector{X: 0.3, Y: 0.7}, Buttons: buttons.Of(pressed...)})
			}
		}(g)
	}
	require.NoError(t, f.p.Stop())
	wg.Wait()

	for _, fr := range f.sink.Frames() {
		for i := 1; i < len(fr.Contacts); i++ {
			assert.Less(t, int(fr.Contacts[i-1].Slot), int(fr.Contacts[i].Slot))
		}
	}
	assert.False(t, f.p.Held(touch.Master))
	assert.False(t, f.p.Held(touch.Slave))
}

func TestNewRejectsBadConfig(t *testing.T) {
	cfg := testConfig()
	cfg.Calibration = calibration.Rect{}
	_, err := provider.New(cfg, func() (provider.Device, error) { return nil, nil }, &htesting.RecordingSink{}, nil)
	assert.ErrorIs(t, err, calibration.ErrDegenerate)

	cfg = testConfig()
	cfg.Smoothing = 0
	_, err = provider.New(cfg, func() (provider.Device, error) { return nil, nil }, &htesting.RecordingSink{}, nil)
	assert.Error(t, err)
}

func TestParseLEDs(t *testing.T) {
	leds, err := provider.ParseLEDs("1001")
	require.NoError(t, err)
	assert.Equal(t, [4]bool{true, false, false, true}, leds)

	_, err = provider.ParseLEDs("10")
	assert.Error(t, err)
	_, err = provider.ParseLEDs("10x1")
	assert.Error(t, err)
}

func waitClosed(t *testing.T, ch <-chan provider.Event) {
	t.Helper()
	timeout := time.After(2 * time.Second)
	for {
		select {
		case _, ok := <-ch:
			if !ok {
				return
			}
		case <-timeout:
			t.Fatal("event channel not closed")
		}
	}
}

func TestEventsCloseWithCancel(t *testing.T) {
	type testCase struct {
		name        string
		cancelFirst bool
	}
	cases := []testCase{
		{name: "close then cancel"},
		{name: "cancel then close", cancelFirst: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			for i := 0; i < 100; i++ {
				f := newFixture(t, testConfig())
				ctx, cancel := context.WithCancel(context.Background())
				events := f.p.Events(ctx)
				if tc.cancelFirst {
					cancel()
					require.NoError(t, f.p.Close())
				} else {
					require.NoError(t, f.p.Close())
					cancel()
				}
				waitClosed(t, events)
			}
		})
	}
}

func TestEventsAfterCloseIsClosed(t *testing.T) {
	f := newFixture(t, testConfig())
	require.NoError(t, f.p.Close())
	waitClosed(t, f.p.Events(context.Background()))
}

func TestUpdatesRacingCloseDoNotBlock(t *testing.T) {
	for i := 0; i < 20; i++ {
		f := newFixture(t, testConfig())
		f.start(t)
		events := f.p.Events(context.Background())
		drained := make(chan struct{})
		go func() {
			for range events {
			}
			close(drained)
		}()

		var wg sync.WaitGroup
		wg.Add(1)
		go func() {
			defer wg.Done()
			for n := 0; n < 200; n++ {
				f.dev.Send(provider.Update{Pos: calibration.Vector{X: 0.5, Y: 0.5}, Battery: n % 50})
			}
		}()
		require.NoError(t, f.p.Close())

		senderDone := make(chan struct{})
		go func() {
			wg.Wait()
			close(senderDone)
		}()
		select {
		case <-senderDone:
		case <-time.After(2 * time.Second):
			t.Fatal("device delivery blocked after Close")
		}
		select {
		case <-drained:
		case <-time.After(2 * time.Second):
			t.Fatal("event channel not closed")
		}
	}
}

func TestReportsFromPreviousConnectionDropped(t *testing.T) {
	f := newFixture(t, testConfig())
	f.start(t)
	stale := f.dev.UpdateHandler()
	require.NotNil(t, stale)

	require.NoError(t, f.p.Stop())
	f.start(t)

	stale(provider.Update{Pos: calibration.Vector{X: 0.5, Y: 0.5}, Battery: 42})
	assert.Empty(t, f.sink.Frames())
	assert.Equal(t, -1, f.p.Battery())

	f.send(0.5, 0.5)
	assert.Len(t, f.sink.Frames(), 1)
}
