package msgs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRobotStateEncoding(t *testing.T) {
	m := &RobotState{
		Robot:     "waiter/r1",
		Tick:      42,
		TimeMs:    840,
		State:     "ArrivedAtTable",
		Target:    3,
		HasTarget: true,
		Position:  3,
		Events:    []string{"ARRIVED TABLE 3"},
	}
	data, err := m.Encode()
	require.NoError(t, err)
	decoded, err := DecodeRobotState(data)
	require.NoError(t, err)
	assert.Equal(t, m, decoded)
	assert.Contains(t, decoded.String(), "ArrivedAtTable")
}

func TestDecodeGarbage(t *testing.T) {
	_, err := DecodeRobotState([]byte{0xff, 0xff, 0xff})
	assert.Error(t, err)
}
