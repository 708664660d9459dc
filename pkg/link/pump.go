package link

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/golang/glog"

	fx "github.com/robotalks/linebot/pkg/framework"
)

// ErrTxFull indicates the transmit queue is full.
var ErrTxFull = errors.New("transmit queue full")

// DefaultTxQueue is the number of pending writes a Pump holds.
const DefaultTxQueue = 32

// Pump turns a blocking io.ReadWriter into a hal.ByteStream. Reading and
// writing happen in Run, the control loop only touches the buffers.
// Run inside a loop, received bytes trigger the next tick right away.
type Pump struct {
	Name string
	Conn io.ReadWriter

	rx   *Ring
	txCh chan []byte
}

// NewPump creates a Pump with a receive ring of ringSize bytes.
func NewPump(name string, conn io.ReadWriter, ringSize int) *Pump {
	return &Pump{
		Name: name,
		Conn: conn,
		rx:   NewRing(ringSize),
		txCh: make(chan []byte, DefaultTxQueue),
	}
}

// Available implements hal.ByteStream.
func (p *Pump) Available() int {
	return p.rx.Available()
}

// Poll implements hal.ByteStream.
func (p *Pump) Poll() (byte, bool) {
	return p.rx.Poll()
}

// Write implements hal.ByteStream. It never blocks.
func (p *Pump) Write(data []byte) (int, error) {
	buf := make([]byte, len(data))
	copy(buf, data)
	select {
	case p.txCh <- buf:
		return len(data), nil
	default:
		return 0, ErrTxFull
	}
}

// Dropped returns the number of received bytes dropped on a full ring.
func (p *Pump) Dropped() int {
	return p.rx.Dropped()
}

// Run implements Runnable.
func (p *Pump) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go p.readLoop(fx.LoopCtlFrom(ctx), errCh)
	defer func() {
		if closer, ok := p.Conn.(io.Closer); ok {
			closer.Close()
		}
	}()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-errCh:
			if err == io.EOF {
				glog.Infof("link %s: closed by peer", p.Name)
				return nil
			}
			return fmt.Errorf("link %s read error: %v", p.Name, err)
		case data := <-p.txCh:
			if _, err := p.Conn.Write(data); err != nil {
				return fmt.Errorf("link %s write error: %v", p.Name, err)
			}
		}
	}
}

func (p *Pump) readLoop(ctl fx.LoopControl, errCh chan<- error) {
	buf := make([]byte, 64)
	for {
		n, err := p.Conn.Read(buf)
		if n > 0 {
			if accepted := p.rx.Push(buf[:n]); accepted < n {
				glog.V(1).Infof("link %s: ring full, dropped %d bytes", p.Name, n-accepted)
			}
			if ctl != nil {
				ctl.TriggerNext()
			}
		}
		if err != nil {
			errCh <- err
			return
		}
	}
}
