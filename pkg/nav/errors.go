package nav

import (
	"errors"
	"fmt"
)

var (
	// ErrBadTable indicates the requested table is out of range.
	ErrBadTable = errors.New("bad table")
	// ErrNoLine indicates the line was lost longer than the timeout
	// while moving.
	ErrNoLine = errors.New("no line")
)

// Error is a navigation error. The mission is never changed when one
// is returned.
type Error struct {
	Table TableID
	Err   error
}

// Error implements error.
func (e *Error) Error() string {
	return fmt.Sprintf("table %d: %v", e.Table, e.Err)
}

// Unwrap returns the cause.
func (e *Error) Unwrap() error {
	return e.Err
}
