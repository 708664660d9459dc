package sim

import (
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/golang/glog"

	fx "github.com/robotalks/linebot/pkg/framework"
	"github.com/robotalks/linebot/pkg/hal"
	"github.com/robotalks/linebot/pkg/motor"
	"github.com/robotalks/linebot/pkg/sensor"
)

// Config defines the simulated robot.
type Config struct {
	Track  Track
	Sensor sensor.Config
	Motor  motor.Config

	// MaxSpeed is the wheel speed at full duty (m/s).
	MaxSpeed float64
	// WheelBase is the distance between the wheels (m).
	WheelBase float64
	// SensorSpacing is the distance between reflectance channels (m).
	SensorSpacing float64
	// Align is the rate the heading settles along the travel (1/s).
	Align float64
	// Bright and Dark are the analog levels over the line and the floor.
	Bright int
	Dark   int
}

// DefaultConfig returns a robot matching the default wiring on a track
// of tables spaced 1m apart.
func DefaultConfig(tables int) Config {
	return Config{
		Track:         EvenTrack(tables, 1.0),
		Sensor:        sensor.DefaultConfig(),
		Motor:         motor.DefaultConfig(),
		MaxSpeed:      0.4,
		WheelBase:     0.12,
		SensorSpacing: 0.012,
		Align:         10,
		Bright:        900,
		Dark:          80,
	}
}

// Pose is the position relative to the line.
type Pose struct {
	S       float64
	Y       float64
	Heading float64
}

func (p Pose) String() string {
	return fmt.Sprintf("s=%.3f y=%.4f h=%.3f", p.S, p.Y, p.Heading)
}

// Sim is a simulated robot. The controller drives it through Pins:
// the motor outputs move it and the sensor inputs are generated.
type Sim struct {
	*hal.MemPins
	Config Config

	pose     Pose
	lastTime time.Duration
	started  bool
	lock     sync.RWMutex
}

// New creates a Sim resting on the home marker.
func New(conf Config) *Sim {
	s := &Sim{MemPins: hal.NewMemPins(), Config: conf}
	if len(conf.Track.Markers) > 0 {
		s.pose.S = conf.Track.Markers[0]
	}
	s.updateSensors()
	return s
}

// Pose returns the current pose.
func (s *Sim) Pose() Pose {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return s.pose
}

// SetPose places the robot.
func (s *Sim) SetPose(p Pose) {
	s.lock.Lock()
	s.pose = p
	s.lock.Unlock()
	s.updateSensors()
}

// Marker returns the index of the marker under the robot, or -1.
func (s *Sim) Marker() int {
	return s.Config.Track.MarkerAt(s.Pose().S)
}

// AddToLoop implements LoopAdder. The simulation steps before sensing.
func (s *Sim) AddToLoop(loop *fx.Loop) {
	loop.AddController(fx.PrLvTop, s)
}

// Control implements Controller.
func (s *Sim) Control(ctx fx.ControlContext) error {
	now := ctx.Time()
	if s.started {
		s.Step(now - s.lastTime)
	}
	s.lastTime, s.started = now, true
	return nil
}

// Step advances the simulation by dt using the current motor outputs.
func (s *Sim) Step(dt time.Duration) {
	left := s.wheelSpeed(s.Config.Motor.Left)
	right := s.wheelSpeed(s.Config.Motor.Right)
	v := (left + right) / 2
	omega := (left - right) / s.Config.WheelBase
	secs := dt.Seconds()

	s.lock.Lock()
	p := &s.pose
	ds := v * math.Cos(p.Heading) * secs
	// the heading is relative to the line, which bends under the robot
	p.Heading += (omega-s.Config.Align*p.Heading)*secs - s.Config.Track.CurvatureAt(p.S)*ds
	p.S += ds
	p.Y += v * math.Sin(p.Heading) * secs
	pose := *p
	s.lock.Unlock()

	if glog.V(3) {
		glog.Infof("sim: %s v=%.3f w=%.3f", pose, v, omega)
	}
	s.updateSensors()
}

func (s *Sim) wheelSpeed(ch motor.Channel) float64 {
	duty := float64(s.MemPins.AnalogRead(ch.Enable)) / hal.PWMMax
	fwd, rev := s.MemPins.DigitalRead(ch.Fwd), s.MemPins.DigitalRead(ch.Rev)
	switch {
	case fwd && !rev:
		return duty * s.Config.MaxSpeed
	case rev && !fwd:
		return -duty * s.Config.MaxSpeed
	}
	return 0
}

func (s *Sim) updateSensors() {
	pose := s.Pose()
	conf := &s.Config
	lineX := -pose.Y
	n := len(conf.Sensor.LinePins)
	for i, pin := range conf.Sensor.LinePins {
		x := (float64(i) - float64(n-1)/2) * conf.SensorSpacing
		seen := math.Abs(x-lineX) <= conf.Track.LineWidth/2
		if conf.Sensor.DarkLine {
			seen = !seen
		}
		level := conf.Dark
		if seen {
			level = conf.Bright
		}
		s.MemPins.SetAnalog(pin, level)
	}
	present := conf.Track.MarkerAt(pose.S) >= 0
	if conf.Sensor.MarkerActiveLow {
		present = !present
	}
	s.MemPins.SetDigital(conf.Sensor.MarkerPin, present)
}
