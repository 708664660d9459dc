// Package motor drives two H-bridge channels from a steering intent.
package motor

import (
	"fmt"

	"github.com/robotalks/linebot/pkg/follow"
	"github.com/robotalks/linebot/pkg/hal"
)

// Direction of travel along the line.
type Direction int

// Directions.
const (
	Forward  Direction = 1
	Backward Direction = -1
)

func (d Direction) String() string {
	if d == Backward {
		return "backward"
	}
	return "forward"
}

// Drive is the motion intent of one tick.
type Drive struct {
	Dir  Direction
	Turn follow.Intent
}

func (d Drive) String() string {
	return fmt.Sprintf("%s/%s", d.Dir, d.Turn)
}

// Actuator is what the navigation logic needs from the motors.
type Actuator interface {
	Apply(Drive)
	Stop()
}

// Channel is the wiring of one H-bridge channel.
type Channel struct {
	Fwd    hal.Pin
	Rev    hal.Pin
	Enable hal.Pin
}

// Config defines motor wiring and speeds (PWM duty).
type Config struct {
	Left  Channel
	Right Channel
	// Cruise is the straight line duty.
	Cruise int
	// MildRatio is the inner wheel duty ratio, in percent, for mild turns.
	MildRatio int
	// TurnSpeed is the pivot duty for hard turns.
	TurnSpeed int
}

// DefaultConfig returns the wiring of the reference board.
func DefaultConfig() Config {
	return Config{
		Left:      Channel{Fwd: 2, Rev: 3, Enable: 5},
		Right:     Channel{Fwd: 4, Rev: 8, Enable: 6},
		Cruise:    180,
		MildRatio: 50,
		TurnSpeed: 160,
	}
}

// Driver implements Actuator on Pins. It keeps no state beyond the
// last commanded drive.
type Driver struct {
	Pins   hal.Pins
	Config Config

	last    Drive
	stopped bool
}

// NewDriver creates a Driver. Motors are halted.
func NewDriver(pins hal.Pins, conf Config) *Driver {
	d := &Driver{Pins: pins, Config: conf}
	d.Stop()
	return d
}

// Apply implements Actuator.
func (d *Driver) Apply(drv Drive) {
	d.last, d.stopped = drv, false
	mild := d.Config.Cruise * d.Config.MildRatio / 100
	if drv.Turn == follow.HardLeft || drv.Turn == follow.HardRight {
		right := drv.Turn == follow.HardRight
		if drv.Dir == Backward {
			// reversing, the opposite pivot swings the array toward the line
			right = !right
		}
		if right {
			d.TurnRight()
		} else {
			d.TurnLeft()
		}
		return
	}
	left, right := d.Config.Cruise, d.Config.Cruise
	switch drv.Turn {
	case follow.MildLeft:
		left = mild
	case follow.MildRight:
		right = mild
	}
	if drv.Dir == Backward {
		d.MoveBackward(left, right)
	} else {
		d.MoveForward(left, right)
	}
}

// Stop implements Actuator.
func (d *Driver) Stop() {
	d.StopMotors()
	d.stopped = true
}

// Last returns the last commanded drive and whether the motors are halted.
func (d *Driver) Last() (Drive, bool) {
	return d.last, d.stopped
}

// MoveForward drives both wheels forward.
func (d *Driver) MoveForward(left, right int) {
	d.set(d.Config.Left, left)
	d.set(d.Config.Right, right)
}

// MoveBackward drives both wheels backward.
func (d *Driver) MoveBackward(left, right int) {
	d.set(d.Config.Left, -left)
	d.set(d.Config.Right, -right)
}

// TurnLeft pivots counter-clockwise.
func (d *Driver) TurnLeft() {
	d.set(d.Config.Left, -d.Config.TurnSpeed)
	d.set(d.Config.Right, d.Config.TurnSpeed)
}

// TurnRight pivots clockwise.
func (d *Driver) TurnRight() {
	d.set(d.Config.Left, d.Config.TurnSpeed)
	d.set(d.Config.Right, -d.Config.TurnSpeed)
}

// StopMotors releases both channels.
func (d *Driver) StopMotors() {
	d.set(d.Config.Left, 0)
	d.set(d.Config.Right, 0)
}

// set drives a channel with a signed duty.
func (d *Driver) set(ch Channel, duty int) {
	if duty > hal.PWMMax {
		duty = hal.PWMMax
	} else if duty < -hal.PWMMax {
		duty = -hal.PWMMax
	}
	d.Pins.DigitalWrite(ch.Fwd, duty > 0)
	d.Pins.DigitalWrite(ch.Rev, duty < 0)
	if duty < 0 {
		duty = -duty
	}
	d.Pins.AnalogWrite(ch.Enable, duty)
}
