// Package follow maps the line position error to a discrete steering intent.
package follow

// Intent is the steering decision for one tick.
type Intent int

// Intents, ordered from hard left to hard right.
const (
	HardLeft Intent = iota - 2
	MildLeft
	Straight
	MildRight
	HardRight
)

func (i Intent) String() string {
	switch i {
	case HardLeft:
		return "hard-left"
	case MildLeft:
		return "mild-left"
	case Straight:
		return "straight"
	case MildRight:
		return "mild-right"
	case HardRight:
		return "hard-right"
	}
	return "invalid"
}

// Config defines the threshold bands.
type Config struct {
	// Mild is the |error| from which a mild correction starts.
	Mild int
	// Hard is the |error| from which the robot pivots.
	Hard int
	// Hysteresis is how far |error| must fall below a band's threshold
	// before the band is left.
	Hysteresis int
}

// DefaultConfig returns thresholds tuned for sensor.WeightStep spacing.
func DefaultConfig() Config {
	return Config{Mild: 400, Hard: 1400, Hysteresis: 150}
}

// Controller applies banded correction. The only state carried between
// calls is the previous intent.
type Controller struct {
	Config Config

	last Intent
}

// NewController creates a Controller.
func NewController(conf Config) *Controller {
	return &Controller{Config: conf}
}

// Reset forgets the previous band.
func (c *Controller) Reset() {
	c.last = Straight
}

// Last returns the previous intent.
func (c *Controller) Last() Intent {
	return c.last
}

// Correct computes the intent for lineError. A positive error means the
// line drifted right, so the robot steers right.
func (c *Controller) Correct(lineError int) Intent {
	mag, sign := lineError, Intent(1)
	if lineError < 0 {
		mag, sign = -lineError, -1
	}
	level := c.level(mag)
	if prev, prevSign := c.last.split(); prevSign == sign && prev > level {
		for l := prev; l > level; l-- {
			if mag >= c.threshold(l)-c.Config.Hysteresis {
				level = l
				break
			}
		}
	}
	c.last = sign * level
	return c.last
}

func (c *Controller) level(mag int) Intent {
	switch {
	case mag >= c.Config.Hard:
		return 2
	case mag >= c.Config.Mild:
		return 1
	}
	return 0
}

func (c *Controller) threshold(level Intent) int {
	if level >= 2 {
		return c.Config.Hard
	}
	return c.Config.Mild
}

// split returns the band level and the direction of an intent.
func (i Intent) split() (Intent, Intent) {
	if i < 0 {
		return -i, -1
	}
	return i, 1
}
