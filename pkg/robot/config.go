package robot

import (
	"time"

	"github.com/robotalks/linebot/pkg/follow"
	"github.com/robotalks/linebot/pkg/hal"
	"github.com/robotalks/linebot/pkg/motor"
	"github.com/robotalks/linebot/pkg/nav"
	"github.com/robotalks/linebot/pkg/protocol"
	"github.com/robotalks/linebot/pkg/sensor"
)

// Config assembles the configuration of all components.
type Config struct {
	Sensor sensor.Config
	Motor  motor.Config
	Follow follow.Config
	Nav    nav.Config

	// LEDPin is the status LED flashed by BLINK.
	LEDPin      hal.Pin
	BlinkCount  int
	BlinkPeriod time.Duration

	// LineCapacity is the longest accepted command line.
	LineCapacity int
	// MaxBytesPerTick bounds the bytes drained from one channel per tick.
	MaxBytesPerTick int
}

// DefaultConfig returns the configuration of the reference robot.
func DefaultConfig() Config {
	return Config{
		Sensor:          sensor.DefaultConfig(),
		Motor:           motor.DefaultConfig(),
		Follow:          follow.DefaultConfig(),
		Nav:             nav.DefaultConfig(),
		LEDPin:          13,
		BlinkCount:      3,
		BlinkPeriod:     200 * time.Millisecond,
		LineCapacity:    protocol.DefaultCapacity,
		MaxBytesPerTick: 64,
	}
}
