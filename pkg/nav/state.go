package nav

import "fmt"

// State is the mission state of the robot.
type State int

// States.
const (
	Idle State = iota
	FollowingToTable
	ArrivedAtTable
	ReturningHome
	ArrivedHome
	Stopped
)

var stateNames = [...]string{
	Idle:             "Idle",
	FollowingToTable: "FollowingToTable",
	ArrivedAtTable:   "ArrivedAtTable",
	ReturningHome:    "ReturningHome",
	ArrivedHome:      "ArrivedHome",
	Stopped:          "Stopped",
}

func (s State) String() string {
	if s >= 0 && int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// ParseState is the inverse of State.String.
func ParseState(name string) (State, bool) {
	for s, n := range stateNames {
		if n == name {
			return State(s), true
		}
	}
	return Idle, false
}

// Moving reports whether the motors are driven in this state.
func (s State) Moving() bool {
	return s == FollowingToTable || s == ReturningHome
}

// AtHome reports whether the robot rests on the home marker.
func (s State) AtHome() bool {
	return s == Idle || s == ArrivedHome
}

// TableID is the ordinal of a table marker counted from home.
type TableID int

// Home is the ordinal of the home marker.
const Home TableID = 0

// Mission is the navigation goal and the current state.
type Mission struct {
	Target    TableID
	HasTarget bool
	State     State
}

// EventKind identifies an unsolicited event.
type EventKind int

// Event kinds.
const (
	EventArrivedTable EventKind = iota
	EventArrivedHome
	EventSensorFault
)

// Event is raised by the machine for the status reporter.
type Event struct {
	Kind  EventKind
	Table TableID
}

func (e Event) String() string {
	switch e.Kind {
	case EventArrivedTable:
		return fmt.Sprintf("arrived table %d", e.Table)
	case EventArrivedHome:
		return "arrived home"
	case EventSensorFault:
		return "sensor fault"
	}
	return "unknown event"
}
