package protocol

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robotalks/linebot/pkg/nav"
)

func TestParse(t *testing.T) {
	testCases := []struct {
		line  string
		kind  Kind
		table int
		text  string
	}{
		{"STOP", Stop, 0, "STOP"},
		{"  stop \r", Stop, 0, "stop"},
		{"Home", ReturnHome, 0, "Home"},
		{"status", Status, 0, "status"},
		{"BLINK", Blink, 0, "BLINK"},
		{"TABLE 3", GoToTable, 3, "TABLE 3"},
		{"table   12", GoToTable, 12, "table   12"},
		{"TABLE 0", GoToTable, 0, "TABLE 0"},
		{"TABLE 99999999999999999999999", GoToTable, -1, "TABLE 99999999999999999999999"},
		{"TABLE", Unknown, 0, "TABLE"},
		{"TABLE x", Unknown, 0, "TABLE x"},
		{"TABLE -2", Unknown, 0, "TABLE -2"},
		{"TABLE 3 4", Unknown, 0, "TABLE 3 4"},
		{"STOPP", Unknown, 0, "STOPP"},
		{"DANCE now", Unknown, 0, "DANCE now"},
	}
	for _, tc := range testCases {
		t.Run(tc.line, func(t *testing.T) {
			cmd := Parse(tc.line)
			assert.Equal(t, Command{Kind: tc.kind, Table: tc.table, Text: tc.text}, cmd)
			if tc.kind == Unknown {
				assert.True(t, errors.Is(cmd.Err(), ErrUnknownCommand))
			} else {
				assert.NoError(t, cmd.Err())
			}
		})
	}
}

func feed(a *Assembler, s string) (lines []string, overflows int) {
	for i := 0; i < len(s); i++ {
		r := a.Feed(s[i])
		if r.Ready {
			lines = append(lines, r.Line)
		}
		if r.Overflow {
			overflows++
		}
	}
	return
}

func TestAssembler(t *testing.T) {
	testCases := []struct {
		name      string
		input     string
		lines     []string
		overflows int
	}{
		{"single", "STATUS\n", []string{"STATUS"}, 0},
		{"crlf", "STOP\r\nHOME\r\n", []string{"STOP", "HOME"}, 0},
		{"blank lines", "\n\n  \nBLINK\n", []string{"BLINK"}, 0},
		{"partial", "TABLE", nil, 0},
		{"exact capacity", strings.Repeat("A", 32) + "\n", []string{strings.Repeat("A", 32)}, 0},
		{"overflow then command", strings.Repeat("X", 50) + "\nTABLE 3\n", []string{"TABLE 3"}, 1},
		{"two overflows", strings.Repeat("X", 33) + "\n" + strings.Repeat("Y", 80) + "\rSTOP\n", []string{"STOP"}, 2},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			a := NewAssembler(DefaultCapacity)
			lines, overflows := feed(a, tc.input)
			assert.Equal(t, tc.lines, lines)
			assert.Equal(t, tc.overflows, overflows)
		})
	}
}

func TestAssemblerPending(t *testing.T) {
	a := NewAssembler(0)
	feed(a, "TAB")
	assert.Equal(t, 3, a.Pending())
	lines, _ := feed(a, "LE 1\n")
	require.Equal(t, []string{"TABLE 1"}, lines)
	assert.Zero(t, a.Pending())
	feed(a, "GARBAGE")
	a.Reset()
	lines, _ = feed(a, "STOP\n")
	assert.Equal(t, []string{"STOP"}, lines)
}

func TestResponses(t *testing.T) {
	assert.Equal(t, "ACK TABLE 3", AckTable(3))
	assert.Equal(t, "ERR UNKNOWN DANCE", ErrUnknown("DANCE"))
	assert.Equal(t, "STATUS ArrivedHome", StatusLine(nav.Mission{State: nav.ArrivedHome}))
	assert.Equal(t, "STATUS FollowingToTable 3",
		StatusLine(nav.Mission{State: nav.FollowingToTable, Target: 3, HasTarget: true}))
	assert.Equal(t, "ARRIVED TABLE 2", EventLine(nav.Event{Kind: nav.EventArrivedTable, Table: 2}))
	assert.Equal(t, "ARRIVED HOME", EventLine(nav.Event{Kind: nav.EventArrivedHome}))
	assert.Equal(t, "FAULT NOLINE", EventLine(nav.Event{Kind: nav.EventSensorFault}))
	assert.True(t, IsEvent("ARRIVED HOME"))
	assert.True(t, IsEvent(FaultNoLine))
	assert.False(t, IsEvent("ACK HOME"))
}

func TestParseStatus(t *testing.T) {
	m, err := ParseStatus("STATUS ReturningHome")
	require.NoError(t, err)
	assert.Equal(t, nav.Mission{State: nav.ReturningHome}, m)
	m, err = ParseStatus("STATUS ArrivedAtTable 5")
	require.NoError(t, err)
	assert.Equal(t, nav.Mission{State: nav.ArrivedAtTable, Target: 5, HasTarget: true}, m)
	for _, line := range []string{"STATUS", "STATUS Dancing", "STATUS Stopped x", "ACK HOME"} {
		_, err = ParseStatus(line)
		assert.True(t, errors.Is(err, ErrMalformed), line)
	}
}

func TestParseEvent(t *testing.T) {
	for _, ev := range []nav.Event{
		{Kind: nav.EventArrivedTable, Table: 7},
		{Kind: nav.EventArrivedHome},
		{Kind: nav.EventSensorFault},
	} {
		parsed, err := ParseEvent(EventLine(ev))
		require.NoError(t, err)
		assert.Equal(t, ev, parsed)
	}
	_, err := ParseEvent("ARRIVED TABLE 0")
	assert.True(t, errors.Is(err, ErrMalformed))
}
