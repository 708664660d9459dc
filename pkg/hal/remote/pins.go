package remote

import (
	"context"
	"io"
	"sync"

	"github.com/golang/glog"

	"github.com/robotalks/linebot/pkg/hal"
)

type output struct {
	code  byte
	value int
}

// Pins implements hal.Pins on the firmware. Reads return the levels
// last reported. Writes only mark the pin dirty: Run sends the latest
// output of dirty pins, so a slow peer never stalls the caller and
// intermediate levels are coalesced. Outputs are replayed after every
// resync so the firmware never keeps driving a stale level.
type Pins struct {
	Link   *Link
	Inputs []hal.Pin

	levels   map[hal.Pin]int
	outputs  map[hal.Pin]output
	dirty    map[hal.Pin]bool
	order    []hal.Pin
	synced   bool
	rejected int
	lock     sync.Mutex
	kickCh   chan struct{}
}

// NewPins creates Pins over conn reporting inputs.
func NewPins(conn io.ReadWriter, inputs ...hal.Pin) *Pins {
	p := &Pins{
		Link:    NewLink(conn),
		Inputs:  inputs,
		levels:  make(map[hal.Pin]int),
		outputs: make(map[hal.Pin]output),
		dirty:   make(map[hal.Pin]bool),
		kickCh:  make(chan struct{}, 1),
	}
	p.Link.OnFrame = p.handleFrame
	p.Link.OnState = p.handleState
	return p
}

// Run implements Runnable.
func (p *Pins) Run(ctx context.Context) error {
	flushCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go p.flushLoop(flushCtx)
	return p.Link.Run(ctx)
}

// Rejected returns the number of writes the firmware refused.
func (p *Pins) Rejected() int {
	p.lock.Lock()
	defer p.lock.Unlock()
	return p.rejected
}

// DigitalRead implements hal.Pins.
func (p *Pins) DigitalRead(pin hal.Pin) bool {
	return p.level(pin) != 0
}

// AnalogRead implements hal.Pins.
func (p *Pins) AnalogRead(pin hal.Pin) int {
	return p.level(pin)
}

// DigitalWrite implements hal.Pins.
func (p *Pins) DigitalWrite(pin hal.Pin, v bool) {
	level := 0
	if v {
		level = 1
	}
	p.write(pin, output{code: CodeDigitalWrite, value: level})
}

// AnalogWrite implements hal.Pins.
func (p *Pins) AnalogWrite(pin hal.Pin, v int) {
	if v < 0 {
		v = 0
	} else if v > hal.PWMMax {
		v = hal.PWMMax
	}
	p.write(pin, output{code: CodeAnalogWrite, value: v})
}

func (p *Pins) level(pin hal.Pin) int {
	p.lock.Lock()
	defer p.lock.Unlock()
	return p.levels[pin]
}

func (p *Pins) write(pin hal.Pin, out output) {
	if pin == hal.NoPin {
		return
	}
	p.lock.Lock()
	last, exists := p.outputs[pin]
	if !exists {
		p.order = append(p.order, pin)
	}
	p.outputs[pin] = out
	changed := !exists || last != out
	if changed {
		p.dirty[pin] = true
	}
	p.lock.Unlock()
	if changed {
		p.kick()
	}
}

func (p *Pins) kick() {
	select {
	case p.kickCh <- struct{}{}:
	default:
	}
}

func (p *Pins) flushLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-p.kickCh:
			p.flush()
		}
	}
}

// flush sends the latest output of every dirty pin in write order.
func (p *Pins) flush() {
	var pins []hal.Pin
	var outs []output
	p.lock.Lock()
	for _, pin := range p.order {
		if p.dirty[pin] {
			pins = append(pins, pin)
			outs = append(outs, p.outputs[pin])
			delete(p.dirty, pin)
		}
	}
	p.lock.Unlock()
	for i, pin := range pins {
		p.send(pin, outs[i])
	}
}

func (p *Pins) send(pin hal.Pin, out output) {
	if _, err := p.Link.Send(out.code, []byte{byte(pin), byte(out.value)}); err != nil {
		// replayed after the resync
		glog.V(2).Infof("remote: pin %d: %v", pin, err)
	}
}

func (p *Pins) handleState(ctx context.Context, state LinkState) {
	glog.V(1).Infof("remote: link %s", state)
	p.lock.Lock()
	if !state.IsReady() {
		p.synced = false
		p.lock.Unlock()
		return
	}
	if p.synced {
		p.lock.Unlock()
		return
	}
	p.synced = true
	p.lock.Unlock()

	watch := make([]byte, len(p.Inputs))
	for i, pin := range p.Inputs {
		watch[i] = byte(pin)
	}
	if _, err := p.Link.Send(CodeWatch, watch); err != nil {
		glog.Warningf("remote: watch inputs: %v", err)
	}
	p.lock.Lock()
	for _, pin := range p.order {
		p.dirty[pin] = true
	}
	p.lock.Unlock()
	p.kick()
}

func (p *Pins) handleFrame(ctx context.Context, f *Frame) {
	switch {
	case f.Code == CodeInputs:
		p.lock.Lock()
		for i := 0; i+2 < len(f.Data); i += 3 {
			p.levels[hal.Pin(f.Data[i])] = int(f.Data[i+1])<<8 | int(f.Data[i+2])
		}
		p.lock.Unlock()
	case f.Failed():
		p.lock.Lock()
		p.rejected++
		p.lock.Unlock()
		if len(f.Data) > 0 {
			glog.Warningf("remote: frame %d rejected, code %#x", f.Data[0], f.Code)
		} else {
			glog.Warningf("remote: frame rejected, code %#x", f.Code)
		}
	}
}
