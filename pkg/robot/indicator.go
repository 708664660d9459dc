package robot

import (
	"time"

	"github.com/robotalks/linebot/pkg/hal"
)

// Indicator flashes the status LED on BLINK.
type Indicator struct {
	Pins   hal.Pins
	Pin    hal.Pin
	Count  int
	Period time.Duration

	start  time.Duration
	active bool
	on     bool
}

// Blink starts a sequence of Count flashes. A running sequence restarts.
func (ind *Indicator) Blink(now time.Duration) {
	ind.start, ind.active = now, true
}

// Active tells whether a sequence is running.
func (ind *Indicator) Active() bool {
	return ind.active
}

// Update drives the LED. Only level changes are written.
func (ind *Indicator) Update(now time.Duration) {
	on := false
	if ind.active {
		half := ind.Period / 2
		elapsed := now - ind.start
		if half <= 0 || elapsed >= time.Duration(ind.Count)*ind.Period {
			ind.active = false
		} else {
			on = (elapsed/half)%2 == 0
		}
	}
	if on != ind.on {
		ind.on = on
		ind.Pins.DigitalWrite(ind.Pin, on)
	}
}
