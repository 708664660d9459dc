package robot

import (
	"github.com/golang/glog"

	"github.com/robotalks/linebot/pkg/hal"
	"github.com/robotalks/linebot/pkg/protocol"
)

// Channel is one command channel: a byte stream with its own line
// assembler and outbox.
type Channel struct {
	Name   string
	Stream hal.ByteStream

	asm    *protocol.Assembler
	outbox []string
}

// NewChannel creates a Channel assembling lines up to lineCapacity bytes.
func NewChannel(name string, stream hal.ByteStream, lineCapacity int) *Channel {
	return &Channel{
		Name:   name,
		Stream: stream,
		asm:    protocol.NewAssembler(lineCapacity),
	}
}

// Send queues a line for the next flush.
func (c *Channel) Send(line string) {
	c.outbox = append(c.outbox, line)
}

// Pending returns the queued lines.
func (c *Channel) Pending() []string {
	return c.outbox
}

// drain reads at most budget bytes, calling fn for every complete line
// and every overflowed one.
func (c *Channel) drain(budget int, fn func(line string, overflow bool)) {
	for i := 0; i < budget && c.Stream.Available() > 0; i++ {
		b, ok := c.Stream.Poll()
		if !ok {
			break
		}
		r := c.asm.Feed(b)
		if r.Overflow {
			fn("", true)
		}
		if r.Ready {
			fn(r.Line, false)
		}
	}
}

// flush writes queued lines. Lines the stream refuses are dropped.
func (c *Channel) flush() {
	for _, line := range c.outbox {
		if _, err := c.Stream.Write([]byte(line + "\n")); err != nil {
			glog.Warningf("channel %s: drop %q: %v", c.Name, line, err)
		}
	}
	c.outbox = c.outbox[:0]
}
