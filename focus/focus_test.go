package focus_test

import (
	"context"
	"errors"
	"runtime"
	"testing"

	"github.com/Alia5/wiituio/buttons"
	"github.com/Alia5/wiituio/focus"
	"github.com/Alia5/wiituio/keymap"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeResolver struct{}

func (fakeResolver) Resolve(identity string) (keymap.Mapping, string) {
	if identity == "player" || identity == "player2" {
		return keymap.Mapping{buttons.A: {"Space"}}, "Player"
	}
	return keymap.Mapping{buttons.A: {"TouchMaster"}}, ""
}

type switchRecord struct {
	app string
	m   keymap.Mapping
}

type recordingTarget struct{ switches []switchRecord }

func (r *recordingTarget) ForegroundChanged(app string, m keymap.Mapping) error {
	r.switches = append(r.switches, switchRecord{app: app, m: m})
	return nil
}

func TestMonitorSwitchesOnAppChange(t *testing.T) {
	seq := []string{"desktop", "desktop", "player", "player2", "", "player"}
	i := 0
	probe := focus.ProbeFunc(func(context.Context) (string, error) {
		id := seq[i]
		i++
		if id == "" {
			return "", errors.New("no window")
		}
		return id, nil
	})
	target := &recordingTarget{}
	m := focus.NewMonitor(probe, fakeResolver{}, target, 0, nil)

	for range seq {
		m.Poll(context.Background())
	}

	require.Len(t, target.switches, 2)
	assert.Equal(t, "", target.switches[0].app)
	assert.Equal(t, keymap.Entry{"TouchMaster"}, target.switches[0].m[buttons.A])
	assert.Equal(t, "Player", target.switches[1].app)
	assert.Equal(t, keymap.Entry{"Space"}, target.switches[1].m[buttons.A])
}

func TestNewCommandProbe(t *testing.T) {
	p, err := focus.NewCommandProbe(`xdotool getactivewindow getwindowname --sync "a b"`)
	require.NoError(t, err)
	assert.Equal(t, []string{"xdotool", "getactivewindow", "getwindowname", "--sync", "a b"}, p.Args())

	_, err = focus.NewCommandProbe("   ")
	assert.Error(t, err)

	_, err = focus.NewCommandProbe(`echo "unterminated`)
	assert.Error(t, err)
}

func TestCommandProbeOutput(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("needs a POSIX echo")
	}
	p, err := focus.NewCommandProbe("echo '  Media Player  '")
	require.NoError(t, err)
	id, err := p.Foreground(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Media Player", id)
}
