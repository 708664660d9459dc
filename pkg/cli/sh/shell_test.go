package sh

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseTarget(t *testing.T) {
	l, r := ParseTarget("waiter/r1")
	assert.Equal(t, "", l)
	assert.Equal(t, "waiter/r1", r)
	l, r = ParseTarget("serial:///dev/ttyUSB0")
	assert.Equal(t, "serial:///dev/ttyUSB0", l)
	assert.Equal(t, "", r)
	l, _ = ParseTarget("mem:bot")
	assert.Equal(t, "mem:bot", l)
}

func TestFormatReply(t *testing.T) {
	assert.Equal(t, "ACK HOME", FormatReply("HOME", "ACK HOME", nil, false))
	assert.Equal(t, "error: no reply", FormatReply("HOME", "", errors.New("no reply"), false))
	assert.Equal(t, "ERR BADTABLE", FormatReply("TABLE 9", "ERR BADTABLE", errors.New("robot: ERR BADTABLE"), false))
	assert.Equal(t, `{"command":"STATUS","reply":"STATUS Idle"}`, FormatReply("STATUS", "STATUS Idle", nil, true))
	assert.Equal(t, `{"command":"HOME","error":"no reply"}`, FormatReply("HOME", "", errors.New("no reply"), true))
}
