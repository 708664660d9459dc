package motor

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/linebot/pkg/follow"
	"github.com/robotalks/linebot/pkg/hal"
)

// wheel reads back the signed duty of a channel.
func wheel(pins *hal.MemPins, ch Channel) int {
	duty := pins.AnalogRead(ch.Enable)
	fwd, rev := pins.DigitalRead(ch.Fwd), pins.DigitalRead(ch.Rev)
	switch {
	case fwd && !rev:
		return duty
	case rev && !fwd:
		return -duty
	case !fwd && !rev:
		return 0
	}
	panic("both directions enabled")
}

func TestApply(t *testing.T) {
	conf := DefaultConfig()
	testCases := []struct {
		drive       Drive
		left, right int
	}{
		{Drive{Forward, follow.Straight}, 180, 180},
		{Drive{Forward, follow.MildLeft}, 90, 180},
		{Drive{Forward, follow.MildRight}, 180, 90},
		{Drive{Forward, follow.HardLeft}, -160, 160},
		{Drive{Forward, follow.HardRight}, 160, -160},
		{Drive{Backward, follow.Straight}, -180, -180},
		{Drive{Backward, follow.MildLeft}, -90, -180},
		{Drive{Backward, follow.HardRight}, -160, 160},
		{Drive{Backward, follow.HardLeft}, 160, -160},
	}
	for _, tc := range testCases {
		t.Run(tc.drive.String(), func(t *testing.T) {
			pins := hal.NewMemPins()
			d := NewDriver(pins, conf)
			d.Apply(tc.drive)
			require.Equal(t, tc.left, wheel(pins, conf.Left))
			require.Equal(t, tc.right, wheel(pins, conf.Right))
			last, stopped := d.Last()
			require.Equal(t, tc.drive, last)
			require.False(t, stopped)
		})
	}
}

func TestApplyIsIdempotent(t *testing.T) {
	conf := DefaultConfig()
	pins := hal.NewMemPins()
	d := NewDriver(pins, conf)
	drv := Drive{Forward, follow.MildRight}
	d.Apply(drv)
	l, r := wheel(pins, conf.Left), wheel(pins, conf.Right)
	d.Apply(drv)
	require.Equal(t, l, wheel(pins, conf.Left))
	require.Equal(t, r, wheel(pins, conf.Right))
}

func TestLatestWins(t *testing.T) {
	conf := DefaultConfig()
	pins := hal.NewMemPins()
	d := NewDriver(pins, conf)
	d.Apply(Drive{Forward, follow.HardLeft})
	d.Apply(Drive{Backward, follow.Straight})
	require.Equal(t, -180, wheel(pins, conf.Left))
	require.Equal(t, -180, wheel(pins, conf.Right))
}

func TestStop(t *testing.T) {
	conf := DefaultConfig()
	pins := hal.NewMemPins()
	d := NewDriver(pins, conf)
	_, stopped := d.Last()
	require.True(t, stopped)
	d.Apply(Drive{Forward, follow.Straight})
	d.Stop()
	require.Equal(t, 0, wheel(pins, conf.Left))
	require.Equal(t, 0, wheel(pins, conf.Right))
	_, stopped = d.Last()
	require.True(t, stopped)
	d.Stop()
	require.Equal(t, 0, wheel(pins, conf.Left))
}

func TestDutyClamped(t *testing.T) {
	conf := DefaultConfig()
	conf.Cruise = 400
	pins := hal.NewMemPins()
	d := NewDriver(pins, conf)
	d.Apply(Drive{Forward, follow.Straight})
	require.Equal(t, hal.PWMMax, wheel(pins, conf.Left))
}
