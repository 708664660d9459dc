package sensor

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/linebot/pkg/hal"
)

func newTestReader() (*Reader, *hal.MemPins) {
	pins := hal.NewMemPins()
	return NewReader(pins, DefaultConfig()), pins
}

func setLine(pins *hal.MemPins, levels ...int) {
	for i, v := range levels {
		pins.SetAnalog(DefaultConfig().LinePins[i], v)
	}
}

func TestLineError(t *testing.T) {
	testCases := []struct {
		name   string
		levels []int
		err    int
		signal bool
	}{
		{"centered", []int{0, 0, 900, 0, 0}, 0, true},
		{"drift right", []int{0, 0, 0, 900, 0}, 1000, true},
		{"drift far right", []int{0, 0, 0, 0, 900}, 2000, true},
		{"drift left", []int{0, 900, 0, 0, 0}, -1000, true},
		{"between center and right", []int{0, 0, 900, 900, 0}, 500, true},
		{"below threshold", []int{0, 0, 511, 0, 0}, 0, false},
		{"no signal", []int{0, 0, 0, 0, 0}, 0, false},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			r, pins := newTestReader()
			setLine(pins, tc.levels...)
			s := r.Sample()
			require.Equal(t, tc.err, s.LineError)
			require.Equal(t, tc.signal, s.Signal)
			require.Equal(t, s, r.Last())
		})
	}
}

func TestDarkLine(t *testing.T) {
	pins := hal.NewMemPins()
	conf := DefaultConfig()
	conf.DarkLine = true
	r := NewReader(pins, conf)
	setLine(pins, 900, 900, 900, 900, 100)
	s := r.Sample()
	require.True(t, s.Signal)
	require.Equal(t, 2000, s.LineError)
}

func TestEvenSensorCount(t *testing.T) {
	pins := hal.NewMemPins()
	conf := DefaultConfig()
	conf.LinePins = []hal.Pin{1, 2, 3, 4}
	r := NewReader(pins, conf)
	require.Equal(t, []int{-1500, -500, 500, 1500}, r.weights)
}

func TestMarkerDebounce(t *testing.T) {
	testCases := []struct {
		name    string
		release int
		marker  []bool
		expect  []bool
	}{
		{
			name:    "single crossing over several ticks",
			release: 1,
			marker:  []bool{false, true, true, true, false, false},
			expect:  []bool{false, true, false, false, false, false},
		},
		{
			name:    "two crossings",
			release: 1,
			marker:  []bool{true, false, true},
			expect:  []bool{true, false, true},
		},
		{
			name:    "flicker within release window",
			release: 2,
			marker:  []bool{true, false, true, false, false, true},
			expect:  []bool{true, false, false, false, false, true},
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			pins := hal.NewMemPins()
			conf := DefaultConfig()
			conf.MarkerReleaseTicks = tc.release
			r := NewReader(pins, conf)
			for i, m := range tc.marker {
				pins.SetDigital(conf.MarkerPin, m)
				require.Equalf(t, tc.expect[i], r.Sample().Waypoint, "tick %d", i)
			}
		})
	}
}

func TestMarkerActiveLow(t *testing.T) {
	pins := hal.NewMemPins()
	conf := DefaultConfig()
	conf.MarkerActiveLow = true
	r := NewReader(pins, conf)
	pins.SetDigital(conf.MarkerPin, true)
	require.False(t, r.Sample().Waypoint)
	pins.SetDigital(conf.MarkerPin, false)
	require.True(t, r.Sample().Waypoint)
}

func TestDisconnectedSensorsAreNeutral(t *testing.T) {
	pins := hal.NewMemPins()
	conf := DefaultConfig()
	conf.LinePins = []hal.Pin{hal.NoPin, hal.NoPin, hal.NoPin}
	conf.MarkerPin = hal.NoPin
	r := NewReader(pins, conf)
	require.Equal(t, Sample{}, r.Sample())
}
