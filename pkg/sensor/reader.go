// Package sensor samples the reflectance array and the waypoint marker
// sensor once per control tick.
package sensor

import (
	"github.com/robotalks/linebot/pkg/hal"
)

// WeightStep is the line error contributed by one sensor spacing.
const WeightStep = 1000

// Sample is the transient reading of one tick.
type Sample struct {
	// LineError is the offset of the line from the array center,
	// positive when the line drifted right. 0 when Signal is false.
	LineError int
	// Signal is false when no channel sees the line.
	Signal bool
	// Waypoint is true for exactly one tick per marker crossing.
	Waypoint bool
}

// Config defines the sensor wiring.
type Config struct {
	// LinePins are the reflectance channels, left to right.
	LinePins []hal.Pin
	// Threshold is the analog level at which a channel sees the line.
	Threshold int
	// DarkLine means the line reads lower than the floor.
	DarkLine bool
	// MarkerPin is the digital waypoint marker input.
	MarkerPin hal.Pin
	// MarkerActiveLow inverts the marker input.
	MarkerActiveLow bool
	// MarkerReleaseTicks is the number of consecutive ticks the marker
	// must read absent before another crossing can be detected.
	MarkerReleaseTicks int
}

// DefaultConfig returns the wiring of the reference board.
func DefaultConfig() Config {
	return Config{
		LinePins:           []hal.Pin{14, 15, 16, 17, 18},
		Threshold:          512,
		MarkerPin:          7,
		MarkerReleaseTicks: 1,
	}
}

// Reader implements the sensor reader.
type Reader struct {
	Pins   hal.Pins
	Config Config

	weights     []int
	armed       bool
	absentTicks int
	lastSample  Sample
}

// NewReader creates a Reader.
func NewReader(pins hal.Pins, conf Config) *Reader {
	if conf.MarkerReleaseTicks < 1 {
		conf.MarkerReleaseTicks = 1
	}
	r := &Reader{Pins: pins, Config: conf, armed: true}
	n := len(conf.LinePins)
	r.weights = make([]int, n)
	for i := range r.weights {
		// (i - (n-1)/2) * step, computed doubled to stay integral.
		r.weights[i] = (2*i - (n - 1)) * WeightStep / 2
	}
	return r
}

// Sample polls all inputs and returns a fresh reading.
func (r *Reader) Sample() Sample {
	var s Sample
	s.LineError, s.Signal = r.lineError()
	s.Waypoint = r.markerCrossed()
	r.lastSample = s
	return s
}

// Last returns the sample taken by the most recent Sample call.
func (r *Reader) Last() Sample {
	return r.lastSample
}

func (r *Reader) lineError() (int, bool) {
	var sum, active int
	for i, pin := range r.Config.LinePins {
		if pin == hal.NoPin {
			continue
		}
		v := r.Pins.AnalogRead(pin)
		seen := v >= r.Config.Threshold
		if r.Config.DarkLine {
			seen = v < r.Config.Threshold
		}
		if seen {
			sum += r.weights[i]
			active++
		}
	}
	if active == 0 {
		return 0, false
	}
	return sum / active, true
}

func (r *Reader) markerCrossed() bool {
	if r.Config.MarkerPin == hal.NoPin {
		return false
	}
	present := r.Pins.DigitalRead(r.Config.MarkerPin)
	if r.Config.MarkerActiveLow {
		present = !present
	}
	if !present {
		if r.absentTicks < r.Config.MarkerReleaseTicks {
			r.absentTicks++
		}
		if r.absentTicks >= r.Config.MarkerReleaseTicks {
			r.armed = true
		}
		return false
	}
	r.absentTicks = 0
	if !r.armed {
		return false
	}
	r.armed = false
	return true
}
