package robot

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	fx "github.com/robotalks/linebot/pkg/framework"
	"github.com/robotalks/linebot/pkg/hal"
	"github.com/robotalks/linebot/pkg/nav"
)

type rig struct {
	t      *testing.T
	conf   Config
	pins   *hal.MemPins
	serial *hal.MemStream
	clock  *fx.ManualClock
	loop   *fx.Loop
	robot  *Controller
}

func newRig(t *testing.T) *rig {
	r := &rig{
		t:      t,
		conf:   DefaultConfig(),
		pins:   hal.NewMemPins(),
		serial: &hal.MemStream{},
		clock:  &fx.ManualClock{},
	}
	r.robot = New(r.conf, r.pins)
	r.robot.AddChannel("serial", r.serial)
	r.loop = fx.NewLoop()
	r.loop.Clock = r.clock
	r.loop.Add(r.robot)
	r.onLine(true)
	return r
}

func (r *rig) onLine(on bool) {
	level := 0
	if on {
		level = 900
	}
	center := r.conf.Sensor.LinePins[len(r.conf.Sensor.LinePins)/2]
	r.pins.SetAnalog(center, level)
}

func (r *rig) tick() {
	r.clock.Advance(20 * time.Millisecond)
	r.loop.Tick(context.Background())
}

func readLines(s *hal.MemStream) []string {
	var lines []string
	for _, line := range strings.Split(string(s.Output()), "\n") {
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

// send injects lines, runs one tick and returns the output.
func (r *rig) send(lines ...string) []string {
	for _, line := range lines {
		r.serial.Inject([]byte(line + "\n"))
	}
	r.tick()
	return readLines(r.serial)
}

// cross passes over one marker in two ticks and returns the output.
func (r *rig) cross() []string {
	r.pins.SetDigital(r.conf.Sensor.MarkerPin, true)
	r.tick()
	r.pins.SetDigital(r.conf.Sensor.MarkerPin, false)
	r.tick()
	return readLines(r.serial)
}

func (r *rig) motorsStopped() bool {
	_, stopped := r.robot.Driver.Last()
	return stopped
}

func TestGoToTableRoundTrip(t *testing.T) {
	r := newRig(t)
	require.Equal(t, []string{"STATUS ArrivedHome"}, r.send("STATUS"))
	require.Equal(t, []string{"ACK TABLE 3", "STATUS FollowingToTable 3"}, r.send("TABLE 3", "STATUS"))

	r.tick()
	require.False(t, r.motorsStopped())
	require.Empty(t, r.cross())
	require.False(t, r.motorsStopped(), "no stop before arrival")
	require.Empty(t, r.cross())
	require.False(t, r.motorsStopped())
	require.Equal(t, []string{"ARRIVED TABLE 3"}, r.cross())
	require.True(t, r.motorsStopped())
	require.Equal(t, []string{"STATUS ArrivedAtTable 3"}, r.send("STATUS"))

	require.Equal(t, []string{"ACK HOME"}, r.send("HOME"))
	r.cross()
	r.cross()
	require.Equal(t, []string{"ARRIVED HOME"}, r.cross())
	require.Equal(t, []string{"STATUS ArrivedHome"}, r.send("status"))
}

func TestArrivalStopsInSameTick(t *testing.T) {
	r := newRig(t)
	r.send("TABLE 1")
	r.tick()
	writes := r.pins.Writes()
	r.pins.SetDigital(r.conf.Sensor.MarkerPin, true)
	r.tick()
	assert.True(t, r.motorsStopped())
	assert.True(t, r.pins.Writes() > writes)
	assert.Equal(t, 0, r.pins.AnalogRead(r.conf.Motor.Left.Enable))
	assert.Equal(t, 0, r.pins.AnalogRead(r.conf.Motor.Right.Enable))
	assert.Equal(t, []string{"ARRIVED TABLE 1"}, readLines(r.serial))
}

func TestBadTable(t *testing.T) {
	r := newRig(t)
	for _, line := range []string{"TABLE 9", "TABLE 0", "TABLE 99999999999999999999"} {
		before := r.robot.Machine.Status()
		require.Equal(t, []string{"ERR BADTABLE"}, r.send(line), line)
		require.Equal(t, before, r.robot.Machine.Status())
	}
	r.send("TABLE 2")
	before := r.robot.Machine.Status()
	require.Equal(t, []string{"ERR BADTABLE"}, r.send("TABLE 12"))
	require.Equal(t, before, r.robot.Machine.Status())
}

func TestUnknownCommand(t *testing.T) {
	r := newRig(t)
	assert.Equal(t, []string{"ERR UNKNOWN DANCE"}, r.send("DANCE"))
	assert.Equal(t, []string{"ERR UNKNOWN TABLE two"}, r.send("TABLE two"))
	assert.Equal(t, nav.ArrivedHome, r.robot.Machine.Status().State)
}

func TestOverflowDoesNotCorruptNextCommand(t *testing.T) {
	r := newRig(t)
	r.serial.Inject([]byte(strings.Repeat("Z", 100)))
	r.tick()
	r.tick()
	r.serial.Inject([]byte("\nTABLE 2\n"))
	r.tick()
	assert.Equal(t, []string{"ERR OVERFLOW", "ACK TABLE 2"}, readLines(r.serial))
	assert.Equal(t, nav.FollowingToTable, r.robot.Machine.Status().State)
}

func TestPartialLineWaits(t *testing.T) {
	r := newRig(t)
	r.serial.Inject([]byte("STA"))
	r.tick()
	assert.Empty(t, readLines(r.serial))
	r.serial.Inject([]byte("TUS\r\n"))
	r.tick()
	assert.Equal(t, []string{"STATUS ArrivedHome"}, readLines(r.serial))
}

func TestStopHaltsActuation(t *testing.T) {
	r := newRig(t)
	r.send("TABLE 4")
	r.tick()
	r.cross()
	require.Equal(t, []string{"ACK STOP"}, r.send("STOP"))
	require.True(t, r.motorsStopped())
	writes := r.pins.Writes()
	for i := 0; i < 3; i++ {
		r.cross()
		require.Equal(t, []string{"ACK STOP"}, r.send("STOP"))
	}
	assert.Equal(t, writes, r.pins.Writes(), "no motor calls after stop")
	assert.Equal(t, []string{"STATUS Stopped"}, r.send("STATUS"))

	require.Equal(t, []string{"ACK TABLE 4"}, r.send("TABLE 4"))
	r.tick()
	assert.False(t, r.motorsStopped())
	r.cross()
	r.cross()
	assert.Equal(t, []string{"ARRIVED TABLE 4"}, r.cross())
}

func TestBlink(t *testing.T) {
	r := newRig(t)
	require.Equal(t, []string{"ACK BLINK"}, r.send("BLINK"))
	assert.True(t, r.pins.DigitalRead(r.conf.LEDPin))
	for i := 0; i < 5; i++ {
		r.tick()
	}
	assert.False(t, r.pins.DigitalRead(r.conf.LEDPin))
	for i := 0; i < 5; i++ {
		r.tick()
	}
	assert.True(t, r.pins.DigitalRead(r.conf.LEDPin))
	for i := 0; i < 30; i++ {
		r.tick()
	}
	assert.False(t, r.pins.DigitalRead(r.conf.LEDPin))
	assert.False(t, r.robot.Indicator.Active())
	assert.Equal(t, nav.ArrivedHome, r.robot.Machine.Status().State)
}

func TestEventsGoToAllChannels(t *testing.T) {
	r := newRig(t)
	remote := &hal.MemStream{}
	r.robot.AddChannel("remote", remote)
	remote.Inject([]byte("TABLE 1\n"))
	r.tick()
	assert.Equal(t, []string{"ACK TABLE 1"}, readLines(remote))
	assert.Empty(t, readLines(r.serial))
	assert.Equal(t, []string{"ARRIVED TABLE 1"}, r.cross())
	assert.Equal(t, []string{"ARRIVED TABLE 1"}, readLines(remote))
}

func TestLineLostFault(t *testing.T) {
	r := newRig(t)
	r.send("TABLE 2")
	r.tick()
	r.onLine(false)
	var out []string
	for i := 0; i < 40; i++ {
		r.tick()
		out = append(out, readLines(r.serial)...)
	}
	assert.Equal(t, []string{"FAULT NOLINE"}, out)
	assert.True(t, r.motorsStopped())
	assert.Equal(t, []string{"STATUS Stopped"}, r.send("STATUS"))
}

func TestObserver(t *testing.T) {
	r := newRig(t)
	var reports []Report
	r.robot.AddObserver(ObserverFunc(func(rep Report) {
		reports = append(reports, rep)
	}))
	r.send("STATUS")
	assert.Empty(t, reports)
	r.send("TABLE 1")
	require.Len(t, reports, 1)
	assert.Equal(t, nav.Mission{State: nav.FollowingToTable, Target: 1, HasTarget: true}, reports[0].Mission)
	r.cross()
	require.Len(t, reports, 2)
	assert.Equal(t, []nav.Event{{Kind: nav.EventArrivedTable, Table: 1}}, reports[1].Events)

	state := reports[1].Proto("waiter/r1")
	assert.Equal(t, "ArrivedAtTable", state.State)
	assert.Equal(t, []string{"ARRIVED TABLE 1"}, state.Events)
	assert.EqualValues(t, 1, state.Position)
}

func TestByteBudgetPerTick(t *testing.T) {
	r := newRig(t)
	var input strings.Builder
	for i := 0; i < 20; i++ {
		input.WriteString("STATUS\n")
	}
	r.serial.Inject([]byte(input.String()))
	r.tick()
	first := readLines(r.serial)
	assert.True(t, len(first) < 20)
	for r.serial.Available() > 0 {
		r.tick()
	}
	assert.Len(t, append(first, readLines(r.serial)...), 20)
}
