package mqtt

import (
	"bytes"
	"fmt"
	"io"
	"sync"
	"time"
)

// PublishTimeout bounds waiting for a publish to complete.
var PublishTimeout = time.Second

// Conn is a line stream over a pair of topics. Every received payload
// becomes one line, every written line becomes one message.
type Conn struct {
	Queue    *Queue
	SubTopic string
	PubTopic string

	sub    *Subscription
	rx     *io.PipeReader
	rxw    *io.PipeWriter
	tx     []byte
	txLock sync.Mutex
	closer io.Closer
}

// NewConn subscribes subTopic and publishes to pubTopic.
func NewConn(q *Queue, subTopic, pubTopic string) *Conn {
	c := &Conn{Queue: q, SubTopic: subTopic, PubTopic: pubTopic}
	c.rx, c.rxw = io.Pipe()
	c.sub = q.Sub(subTopic, c.handleMsg)
	return c
}

// Read implements io.Reader.
func (c *Conn) Read(p []byte) (int, error) {
	return c.rx.Read(p)
}

// Write implements io.Writer. Bytes are held until a line completes.
func (c *Conn) Write(p []byte) (int, error) {
	c.txLock.Lock()
	defer c.txLock.Unlock()
	c.tx = append(c.tx, p...)
	for {
		pos := bytes.IndexByte(c.tx, '\n')
		if pos < 0 {
			break
		}
		line := bytes.TrimRight(c.tx[:pos], "\r")
		c.tx = c.tx[pos+1:]
		if len(line) == 0 {
			continue
		}
		token := c.Queue.Pub(c.PubTopic, append([]byte(nil), line...))
		if !token.WaitTimeout(PublishTimeout) {
			return len(p), fmt.Errorf("publish %s timeout", c.PubTopic)
		}
		if err := token.Error(); err != nil {
			return len(p), fmt.Errorf("publish %s error: %v", c.PubTopic, err)
		}
	}
	return len(p), nil
}

// Close implements io.Closer.
func (c *Conn) Close() error {
	c.rxw.Close()
	err := c.sub.Close()
	if c.closer != nil {
		c.closer.Close()
	}
	return err
}

func (c *Conn) handleMsg(_ string, payload []byte) {
	line := append(bytes.TrimRight(payload, "\r\n"), '\n')
	c.rxw.Write(line)
}
