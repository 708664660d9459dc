// Package nav implements the mission state machine of the robot.
package nav

import (
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/linebot/pkg/follow"
	"github.com/robotalks/linebot/pkg/motor"
	"github.com/robotalks/linebot/pkg/sensor"
)

// Config defines the navigation parameters.
type Config struct {
	// Tables is the number of table markers after home.
	Tables int
	// NoSignalTimeout is how long the line may be lost while moving
	// before the robot halts. 0 disables the check.
	NoSignalTimeout time.Duration
}

// DefaultConfig returns the default navigation parameters.
func DefaultConfig() Config {
	return Config{Tables: 8, NoSignalTimeout: 500 * time.Millisecond}
}

// Machine owns the Mission. All methods must be called from the
// control loop.
type Machine struct {
	Config   Config
	Actuator motor.Actuator
	Follow   *follow.Controller

	mission   Mission
	odo       odometer
	dir       int
	lost      bool
	lostSince time.Duration
	pending   []Event
}

// NewMachine creates a Machine resting on the home marker.
func NewMachine(conf Config, act motor.Actuator, ctl *follow.Controller) *Machine {
	if ctl == nil {
		ctl = follow.NewController(follow.DefaultConfig())
	}
	return &Machine{
		Config:   conf,
		Actuator: act,
		Follow:   ctl,
		mission:  Mission{State: ArrivedHome},
	}
}

// Status returns the current mission.
func (m *Machine) Status() Mission {
	return m.mission
}

// Position returns the last crossed marker and whether the robot rests
// on it.
func (m *Machine) Position() (TableID, bool) {
	return m.odo.last, m.odo.side == 0
}

// Reset re-initializes the mission to Idle at home, as at power-on when
// nothing confirms the robot rests on the home marker.
func (m *Machine) Reset() {
	m.halt()
	m.mission = Mission{State: Idle}
	m.odo = odometer{}
	m.pending = nil
}

// Events drains the events raised since the last call.
func (m *Machine) Events() []Event {
	evs := m.pending
	m.pending = nil
	return evs
}

// GoToTable starts navigation to table n, replacing any current target.
func (m *Machine) GoToTable(n TableID) error {
	if n < 1 || int(n) > m.Config.Tables {
		return &Error{Table: n, Err: ErrBadTable}
	}
	m.navigate(n, FollowingToTable)
	return nil
}

// ReturnHome starts navigation back to the home marker.
func (m *Machine) ReturnHome() {
	m.navigate(Home, ReturningHome)
}

// Stop halts the robot and clears the target. Stopping an already
// stopped robot changes nothing.
func (m *Machine) Stop() {
	if m.mission.State == Stopped {
		return
	}
	m.halt()
	m.mission = Mission{State: Stopped}
	glog.V(1).Info("nav: stopped")
}

// Update consumes one sample. It detects arrival and line loss, and
// halts the motors on either. The raised events are returned and also
// kept for Events.
func (m *Machine) Update(now time.Duration, s sensor.Sample) []Event {
	if !m.mission.State.Moving() {
		m.lost = false
		return nil
	}
	var evs []Event
	if s.Waypoint {
		ord := m.odo.cross(m.dir)
		glog.V(2).Infof("nav: crossed marker %d", ord)
		if ord == m.mission.Target {
			evs = append(evs, m.arrive(true))
		}
	}
	if !m.mission.State.Moving() {
		m.pending = append(m.pending, evs...)
		return evs
	}
	if s.Signal {
		m.lost = false
	} else if !m.lost {
		m.lost, m.lostSince = true, now
	} else if m.Config.NoSignalTimeout > 0 && now-m.lostSince > m.Config.NoSignalTimeout {
		glog.Warningf("nav: %v for %v, halting", ErrNoLine, now-m.lostSince)
		m.halt()
		m.mission = Mission{State: Stopped}
		evs = append(evs, Event{Kind: EventSensorFault})
	}
	m.pending = append(m.pending, evs...)
	return evs
}

// Actuate drives the motors from the sample. It only commands the motors
// in a moving state. When the line is lost the previous correction is
// kept.
func (m *Machine) Actuate(s sensor.Sample) {
	if !m.mission.State.Moving() {
		return
	}
	turn := m.Follow.Last()
	if s.Signal {
		turn = m.Follow.Correct(s.LineError)
	}
	dir := motor.Forward
	if m.dir < 0 {
		dir = motor.Backward
	}
	m.Actuator.Apply(motor.Drive{Dir: dir, Turn: turn})
}

func (m *Machine) navigate(target TableID, state State) {
	dir := m.odo.toward(target)
	if dir == 0 {
		moving := m.mission.State.Moving()
		m.mission = Mission{Target: target, HasTarget: true, State: state}
		m.pending = append(m.pending, m.arrive(moving))
		return
	}
	if !m.mission.State.Moving() || dir != m.dir {
		m.Follow.Reset()
	}
	if m.odo.side == 0 {
		// leaving the marker
		m.odo.side = dir
	}
	m.dir, m.lost = dir, false
	m.mission = Mission{Target: target, HasTarget: true, State: state}
	glog.V(1).Infof("nav: %s to %d, dir %d", state, target, dir)
}

// arrive settles on the target marker, halting the motors if they run.
func (m *Machine) arrive(running bool) Event {
	m.odo.settle()
	if running {
		m.halt()
	}
	if m.mission.Target == Home {
		m.mission = Mission{State: ArrivedHome}
		glog.V(1).Info("nav: arrived home")
		return Event{Kind: EventArrivedHome}
	}
	m.mission.State = ArrivedAtTable
	glog.V(1).Infof("nav: arrived table %d", m.mission.Target)
	return Event{Kind: EventArrivedTable, Table: m.mission.Target}
}

func (m *Machine) halt() {
	m.Actuator.Stop()
	m.Follow.Reset()
	m.lost = false
}
