// Package protocol implements the line oriented command protocol:
// assembling lines from bytes, parsing commands and formatting
// responses.
package protocol

import (
	"strconv"
	"strings"
)

// Kind is the command variant.
type Kind int

// Command kinds.
const (
	Unknown Kind = iota
	GoToTable
	ReturnHome
	Stop
	Status
	Blink
)

func (k Kind) String() string {
	switch k {
	case GoToTable:
		return "TABLE"
	case ReturnHome:
		return "HOME"
	case Stop:
		return "STOP"
	case Status:
		return "STATUS"
	case Blink:
		return "BLINK"
	}
	return "UNKNOWN"
}

// Command is one parsed line.
type Command struct {
	Kind Kind
	// Table is the requested table for GoToTable. It is -1 when the
	// number doesn't fit an int.
	Table int
	// Text is the trimmed line.
	Text string
}

// Err returns the protocol error for an Unknown command.
func (c Command) Err() error {
	if c.Kind != Unknown {
		return nil
	}
	return &Error{Text: c.Text, Err: ErrUnknownCommand}
}

var keywords = map[string]Kind{
	"STOP":   Stop,
	"HOME":   ReturnHome,
	"STATUS": Status,
	"BLINK":  Blink,
}

// Parse classifies a line.
func Parse(line string) Command {
	text := strings.TrimSpace(line)
	cmd := Command{Text: text}
	if kind, ok := keywords[strings.ToUpper(text)]; ok {
		cmd.Kind = kind
		return cmd
	}
	fields := strings.Fields(text)
	if len(fields) == 2 && strings.EqualFold(fields[0], "TABLE") && isDigits(fields[1]) {
		cmd.Kind = GoToTable
		n, err := strconv.Atoi(fields[1])
		if err != nil {
			n = -1
		}
		cmd.Table = n
	}
	return cmd
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return s != ""
}
