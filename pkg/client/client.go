// Package client talks to the robot over a line connection from the host
// side. Commands are answered in order, so replies are matched to
// pending commands first in first out.
package client

import (
	"bufio"
	"context"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/golang/glog"

	"github.com/robotalks/linebot/pkg/nav"
	"github.com/robotalks/linebot/pkg/protocol"
)

// DefaultEventQueue is the capacity of the event chan.
const DefaultEventQueue = 16

// Result is the result of a command.
type Result struct {
	Reply string
	Err   error
}

// Command represents a pending command waiting for reply.
type Command struct {
	Line string

	expect   string
	resultCh chan Result
	next     *Command
}

// ResultChan returns the chan to retrieve result.
func (c *Command) ResultChan() <-chan Result {
	return c.resultCh
}

// accepts matches an ERR or STATUS reply by prefix, an ACK exactly.
func (c *Command) accepts(reply string) bool {
	if strings.HasPrefix(reply, "ERR ") {
		return true
	}
	if strings.HasSuffix(c.expect, " ") {
		return strings.HasPrefix(reply, c.expect)
	}
	return reply == c.expect
}

// Client provides host side operations over a line connection.
type Client struct {
	conn    io.ReadWriter
	eventCh chan nav.Event

	cmdsHead  *Command
	cmdsTail  *Command
	cmdsLock  sync.Mutex
	writeLock sync.Mutex
}

// New creates a client on conn.
func New(conn io.ReadWriter) *Client {
	return &Client{conn: conn, eventCh: make(chan nav.Event, DefaultEventQueue)}
}

// EventChan retrieves the unsolicited events.
func (c *Client) EventChan() <-chan nav.Event {
	return c.eventCh
}

// Send writes a command line and queues it for the reply.
func (c *Client) Send(line string) *Command {
	cmd := &Command{Line: line, expect: expectedReply(line), resultCh: make(chan Result, 1)}
	c.writeLock.Lock()
	defer c.writeLock.Unlock()
	c.cmdsLock.Lock()
	if c.cmdsHead == nil {
		c.cmdsHead = cmd
	} else {
		c.cmdsTail.next = cmd
	}
	c.cmdsTail = cmd
	c.cmdsLock.Unlock()

	_, err := io.WriteString(c.conn, line+"\n")
	if err != nil && c.remove(cmd) {
		cmd.resultCh <- Result{Err: err}
	}
	return cmd
}

// Do sends a command and waits for the reply. An ERR reply is returned
// as *ReplyError.
func (c *Client) Do(ctx context.Context, line string) (string, error) {
	cmd := c.Send(line)
	select {
	case r := <-cmd.resultCh:
		return r.Reply, r.Err
	case <-ctx.Done():
		if c.remove(cmd) {
			return "", ErrNoReply
		}
		r := <-cmd.resultCh
		return r.Reply, r.Err
	}
}

// GoToTable sends the robot to table n.
func (c *Client) GoToTable(ctx context.Context, n int) error {
	_, err := c.Do(ctx, "TABLE "+strconv.Itoa(n))
	return err
}

// ReturnHome sends the robot home.
func (c *Client) ReturnHome(ctx context.Context) error {
	_, err := c.Do(ctx, "HOME")
	return err
}

// Stop halts the robot.
func (c *Client) Stop(ctx context.Context) error {
	_, err := c.Do(ctx, "STOP")
	return err
}

// Blink flashes the robot indicator.
func (c *Client) Blink(ctx context.Context) error {
	_, err := c.Do(ctx, "BLINK")
	return err
}

// Status queries the mission.
func (c *Client) Status(ctx context.Context) (nav.Mission, error) {
	reply, err := c.Do(ctx, "STATUS")
	if err != nil {
		return nav.Mission{}, err
	}
	return protocol.ParseStatus(reply)
}

// Run reads replies and events until the connection ends.
func (c *Client) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		scanner := bufio.NewScanner(c.conn)
		for scanner.Scan() {
			c.handleLine(ctx, strings.TrimSpace(scanner.Text()))
		}
		errCh <- scanner.Err()
	}()
	var err error
	select {
	case err = <-errCh:
	case <-ctx.Done():
		err = ctx.Err()
	}
	c.failAll(ErrClosed)
	return err
}

func (c *Client) handleLine(ctx context.Context, line string) {
	if line == "" {
		return
	}
	if protocol.IsEvent(line) {
		ev, err := protocol.ParseEvent(line)
		if err != nil {
			glog.Warningf("client: %v", err)
			return
		}
		select {
		case c.eventCh <- ev:
		case <-ctx.Done():
		}
		return
	}

	c.cmdsLock.Lock()
	head := c.cmdsHead
	curr := c.cmdsHead
	for ; curr != nil; curr = curr.next {
		if curr.accepts(line) {
			if c.cmdsHead = curr.next; c.cmdsHead == nil {
				c.cmdsTail = nil
			}
			curr.next = nil
			break
		}
	}
	c.cmdsLock.Unlock()

	if curr == nil {
		glog.V(1).Infof("client: unexpected reply %q", line)
		return
	}
	for head != curr {
		next := head.next
		head.next = nil
		head.resultCh <- Result{Err: ErrNoReply}
		head = next
	}
	if strings.HasPrefix(line, "ERR ") {
		curr.resultCh <- Result{Reply: line, Err: &ReplyError{Reply: line}}
	} else {
		curr.resultCh <- Result{Reply: line}
	}
}

func (c *Client) remove(cmd *Command) bool {
	c.cmdsLock.Lock()
	defer c.cmdsLock.Unlock()
	var prev *Command
	for curr := c.cmdsHead; curr != nil; prev, curr = curr, curr.next {
		if curr != cmd {
			continue
		}
		if prev == nil {
			c.cmdsHead = curr.next
		} else {
			prev.next = curr.next
		}
		if c.cmdsTail == curr {
			c.cmdsTail = prev
		}
		curr.next = nil
		return true
	}
	return false
}

func (c *Client) failAll(err error) {
	c.cmdsLock.Lock()
	head := c.cmdsHead
	c.cmdsHead, c.cmdsTail = nil, nil
	c.cmdsLock.Unlock()
	for head != nil {
		next := head.next
		head.next = nil
		head.resultCh <- Result{Err: err}
		head = next
	}
}

func expectedReply(line string) string {
	cmd := protocol.Parse(line)
	switch cmd.Kind {
	case protocol.GoToTable:
		return protocol.AckTable(cmd.Table)
	case protocol.ReturnHome:
		return protocol.AckHome
	case protocol.Stop:
		return protocol.AckStop
	case protocol.Blink:
		return protocol.AckBlink
	case protocol.Status:
		return "STATUS "
	}
	return "ERR "
}
