package protocol

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownCommand indicates a line not matching any command.
	ErrUnknownCommand = errors.New("unknown command")
	// ErrOverflow indicates a line longer than the assembler capacity.
	ErrOverflow = errors.New("line overflow")
	// ErrMalformed indicates a response the host cannot decode.
	ErrMalformed = errors.New("malformed response")
)

// Error is a protocol error. It is reported to the peer and never
// changes the mission.
type Error struct {
	Text string
	Err  error
}

// Error implements error.
func (e *Error) Error() string {
	if e.Text == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%v: %q", e.Err, e.Text)
}

// Unwrap returns the cause.
func (e *Error) Unwrap() error {
	return e.Err
}
