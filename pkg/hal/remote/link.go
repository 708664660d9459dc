package remote

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"
)

// ErrNotReady indicates the link is not synchronized.
var ErrNotReady = errors.New("link not ready")

// DefaultTimeout is how long a partial sync or frame may stall.
const DefaultTimeout = 100 * time.Millisecond

// Link exchanges frames over a byte stream.
type Link struct {
	Conn    io.ReadWriter
	Timeout time.Duration
	// OnFrame is called from Run for each received frame.
	OnFrame func(context.Context, *Frame)
	// OnState is called from Run when the state changes.
	OnState func(context.Context, LinkState)

	seq   Seq
	state LinkState
	lock  sync.Mutex

	dec   Decoder
	timer <-chan time.Time
}

// NewLink creates a Link.
func NewLink(conn io.ReadWriter) *Link {
	return &Link{Conn: conn, Timeout: DefaultTimeout, seq: NewSeq()}
}

// State returns the state.
func (l *Link) State() LinkState {
	l.lock.Lock()
	defer l.lock.Unlock()
	return l.state
}

// Send writes a frame and returns its sequence. It blocks until the
// frame is written, so it must not be called from the control loop.
func (l *Link) Send(code byte, data []byte) (Seq, error) {
	if len(data) > MaxDataLen {
		return 0, io.ErrShortWrite
	}
	l.lock.Lock()
	defer l.lock.Unlock()
	if !l.state.IsReady() {
		return 0, ErrNotReady
	}
	f := &Frame{Seq: l.seq, Code: code, Data: data}
	if _, err := f.WriteTo(l.Conn); err != nil {
		return 0, err
	}
	l.seq = l.seq.Next()
	return f.Seq, nil
}

// Run reads and decodes until the stream fails or ctx is done.
func (l *Link) Run(ctx context.Context) error {
	byteCh, errCh := make(chan byte), make(chan error, 1)
	readCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go l.readLoop(readCtx, byteCh, errCh)
	if err := l.apply(ctx, l.dec.Reset()); err != nil {
		return err
	}
	for {
		var step Step
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-errCh:
			return err
		case b := <-byteCh:
			step = l.dec.Feed(b)
		case <-l.timer:
			step = l.dec.Expire()
		}
		if err := l.apply(ctx, step); err != nil {
			return err
		}
	}
}

func (l *Link) readLoop(ctx context.Context, byteCh chan<- byte, errCh chan<- error) {
	buf := make([]byte, 64)
	for {
		n, err := l.Conn.Read(buf)
		for _, b := range buf[:n] {
			select {
			case byteCh <- b:
			case <-ctx.Done():
				return
			}
		}
		if err != nil {
			errCh <- err
			return
		}
	}
}

func (l *Link) apply(ctx context.Context, step Step) error {
	l.lock.Lock()
	changed := l.state != step.State
	l.state = step.State
	var err error
	if step.Sync != 0 {
		_, err = l.Conn.Write([]byte{step.Sync, byte(l.seq)})
	}
	l.lock.Unlock()
	if err != nil {
		return err
	}

	switch step.timer() {
	case timerRestart:
		timeout := l.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		l.timer = time.After(timeout)
	case timerStop:
		l.timer = nil
	}
	if changed && l.OnState != nil {
		l.OnState(ctx, step.State)
	}
	if step.Frame != nil && l.OnFrame != nil {
		l.OnFrame(ctx, step.Frame)
	}
	return nil
}
