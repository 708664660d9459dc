package client

import (
	"bufio"
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	fx "github.com/robotalks/linebot/pkg/framework"
	"github.com/robotalks/linebot/pkg/hal"
	"github.com/robotalks/linebot/pkg/link"
	"github.com/robotalks/linebot/pkg/nav"
	"github.com/robotalks/linebot/pkg/robot"
)

// fakeRobot answers each received line with the lines reply returns.
func fakeRobot(conn net.Conn, reply func(string) []string) {
	go func() {
		scanner := bufio.NewScanner(conn)
		for scanner.Scan() {
			for _, line := range reply(scanner.Text()) {
				if _, err := conn.Write([]byte(line + "\n")); err != nil {
					return
				}
			}
		}
	}()
}

func startClient(t *testing.T, reply func(string) []string) (*Client, context.CancelFunc) {
	host, bot := net.Pipe()
	fakeRobot(bot, reply)
	c := New(host)
	ctx, cancel := context.WithCancel(context.Background())
	go c.Run(ctx)
	t.Cleanup(func() {
		cancel()
		host.Close()
		bot.Close()
	})
	return c, cancel
}

func timeout(t *testing.T) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestDoAndEvents(t *testing.T) {
	c, _ := startClient(t, func(line string) []string {
		switch line {
		case "TABLE 2":
			return []string{"ACK TABLE 2", "ARRIVED TABLE 2"}
		case "TABLE 9":
			return []string{"ERR BADTABLE"}
		case "STATUS":
			return []string{"STATUS ArrivedAtTable 2"}
		}
		return []string{"ERR UNKNOWN " + line}
	})
	require.NoError(t, c.GoToTable(timeout(t), 2))
	ev := <-c.EventChan()
	assert.Equal(t, nav.Event{Kind: nav.EventArrivedTable, Table: 2}, ev)

	m, err := c.Status(timeout(t))
	require.NoError(t, err)
	assert.Equal(t, nav.Mission{State: nav.ArrivedAtTable, Target: 2, HasTarget: true}, m)

	err = c.GoToTable(timeout(t), 9)
	var replyErr *ReplyError
	require.True(t, errors.As(err, &replyErr))
	assert.Equal(t, "BADTABLE", replyErr.Code())

	reply, err := c.Do(timeout(t), "DANCE")
	require.Error(t, err)
	assert.Equal(t, "ERR UNKNOWN DANCE", reply)
}

func TestSkippedReply(t *testing.T) {
	c, _ := startClient(t, func(line string) []string {
		if line == "STATUS" {
			return []string{"STATUS Stopped"}
		}
		return nil
	})
	stop := c.Send("STOP")
	status := c.Send("STATUS")
	r := <-status.ResultChan()
	require.NoError(t, r.Err)
	assert.Equal(t, "STATUS Stopped", r.Reply)
	assert.Equal(t, ErrNoReply, (<-stop.ResultChan()).Err)
}

func TestAckMatchesExactTable(t *testing.T) {
	c, _ := startClient(t, func(line string) []string {
		if line == "TABLE 30" {
			return []string{"ACK TABLE 30"}
		}
		return nil
	})
	table3 := c.Send("TABLE 3")
	table30 := c.Send("TABLE 30")
	r := <-table30.ResultChan()
	require.NoError(t, r.Err)
	assert.Equal(t, "ACK TABLE 30", r.Reply)
	assert.Equal(t, ErrNoReply, (<-table3.ResultChan()).Err)
}

func TestNoReplyTimeout(t *testing.T) {
	c, _ := startClient(t, func(string) []string { return nil })
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := c.Do(ctx, "HOME")
	assert.Equal(t, ErrNoReply, err)
	c.cmdsLock.Lock()
	assert.Nil(t, c.cmdsHead)
	c.cmdsLock.Unlock()
}

func TestRunClosesPending(t *testing.T) {
	c, cancel := startClient(t, func(string) []string { return nil })
	cmd := c.Send("BLINK")
	cancel()
	select {
	case r := <-cmd.ResultChan():
		assert.Equal(t, ErrClosed, r.Err)
	case <-time.After(2 * time.Second):
		t.Fatal("pending command not failed")
	}
}

func TestWithRobot(t *testing.T) {
	host, bot := net.Pipe()
	defer host.Close()

	conf := robot.DefaultConfig()
	pins := hal.NewMemPins()
	pins.SetAnalog(conf.Sensor.LinePins[2], 900)
	pump := link.NewPump("test", bot, 0)
	r := robot.New(conf, pins)
	r.AddChannel("test", pump)
	loop := fx.NewLoop()
	loop.Interval = time.Millisecond
	loop.Add(r)
	loop.AddRunnable(pump)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go loop.Run(ctx)
	c := New(host)
	go c.Run(ctx)

	require.NoError(t, c.GoToTable(timeout(t), 1))
	m, err := c.Status(timeout(t))
	require.NoError(t, err)
	assert.Equal(t, nav.FollowingToTable, m.State)

	pins.SetDigital(conf.Sensor.MarkerPin, true)
	select {
	case ev := <-c.EventChan():
		assert.Equal(t, nav.Event{Kind: nav.EventArrivedTable, Table: 1}, ev)
	case <-time.After(2 * time.Second):
		t.Fatal("no arrival")
	}
	require.NoError(t, c.Blink(timeout(t)))
	require.NoError(t, c.ReturnHome(timeout(t)))
	require.NoError(t, c.Stop(timeout(t)))
}
