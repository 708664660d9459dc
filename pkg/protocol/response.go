package protocol

import (
	"strconv"
	"strings"

	"github.com/robotalks/linebot/pkg/nav"
)

// Fixed response lines.
const (
	AckHome         = "ACK HOME"
	AckStop         = "ACK STOP"
	AckBlink        = "ACK BLINK"
	ErrBadTable     = "ERR BADTABLE"
	ErrLineOverflow = "ERR OVERFLOW"
	ArrivedHome     = "ARRIVED HOME"
	FaultNoLine     = "FAULT NOLINE"
)

// AckTable acknowledges TABLE n.
func AckTable(n int) string {
	return "ACK TABLE " + strconv.Itoa(n)
}

// ErrUnknown reports an unrecognized line.
func ErrUnknown(text string) string {
	return "ERR UNKNOWN " + text
}

// ArrivedTable reports the arrival at table n.
func ArrivedTable(n nav.TableID) string {
	return "ARRIVED TABLE " + strconv.Itoa(int(n))
}

// StatusLine encodes the mission.
func StatusLine(m nav.Mission) string {
	line := "STATUS " + m.State.String()
	if m.HasTarget {
		line += " " + strconv.Itoa(int(m.Target))
	}
	return line
}

// EventLine encodes an unsolicited event.
func EventLine(e nav.Event) string {
	switch e.Kind {
	case nav.EventArrivedTable:
		return ArrivedTable(e.Table)
	case nav.EventArrivedHome:
		return ArrivedHome
	}
	return FaultNoLine
}

// IsEvent tells unsolicited lines from responses.
func IsEvent(line string) bool {
	return strings.HasPrefix(line, "ARRIVED ") || strings.HasPrefix(line, "FAULT ")
}

// ParseStatus decodes a STATUS line.
func ParseStatus(line string) (nav.Mission, error) {
	var m nav.Mission
	fields := strings.Fields(line)
	if len(fields) < 2 || len(fields) > 3 || fields[0] != "STATUS" {
		return m, &Error{Text: line, Err: ErrMalformed}
	}
	state, ok := nav.ParseState(fields[1])
	if !ok {
		return m, &Error{Text: line, Err: ErrMalformed}
	}
	m.State = state
	if len(fields) == 3 {
		n, err := strconv.Atoi(fields[2])
		if err != nil {
			return m, &Error{Text: line, Err: ErrMalformed}
		}
		m.Target, m.HasTarget = nav.TableID(n), true
	}
	return m, nil
}

// ParseEvent decodes an unsolicited line.
func ParseEvent(line string) (nav.Event, error) {
	switch {
	case line == ArrivedHome:
		return nav.Event{Kind: nav.EventArrivedHome}, nil
	case line == FaultNoLine:
		return nav.Event{Kind: nav.EventSensorFault}, nil
	case strings.HasPrefix(line, "ARRIVED TABLE "):
		n, err := strconv.Atoi(line[len("ARRIVED TABLE "):])
		if err == nil && n > 0 {
			return nav.Event{Kind: nav.EventArrivedTable, Table: nav.TableID(n)}, nil
		}
	}
	return nav.Event{}, &Error{Text: line, Err: ErrMalformed}
}
