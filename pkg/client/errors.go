package client

import (
	"errors"
	"strings"
)

var (
	// ErrNoReply indicates no reply received from the robot.
	// This happens when a reply is received for a latter command, and all
	// previous commands fail with this error, or the wait timed out.
	ErrNoReply = errors.New("no reply")
	// ErrClosed indicates the connection was closed with the command pending.
	ErrClosed = errors.New("connection closed")
)

// ReplyError is an ERR reply from the robot.
type ReplyError struct {
	Reply string
}

// Error implements error.
func (e *ReplyError) Error() string {
	return "robot: " + e.Reply
}

// Code returns the error code, e.g. BADTABLE.
func (e *ReplyError) Code() string {
	fields := strings.Fields(e.Reply)
	if len(fields) < 2 {
		return ""
	}
	return fields[1]
}
