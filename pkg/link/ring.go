// Package link connects the command protocol to real transports
// (serial ports, websockets, in-process pipes) and presents them to the
// control loop as non-blocking byte streams.
package link

import "sync"

// DefaultRingSize is the receive buffer size.
const DefaultRingSize = 256

// Ring is a bounded receive buffer filled by a background reader and
// polled by the control loop. Bytes arriving while it is full are dropped.
type Ring struct {
	buf     []byte
	head    int
	n       int
	dropped int
	lock    sync.Mutex
}

// NewRing creates a Ring.
func NewRing(size int) *Ring {
	if size <= 0 {
		size = DefaultRingSize
	}
	return &Ring{buf: make([]byte, size)}
}

// Push appends bytes and returns how many were accepted.
func (r *Ring) Push(p []byte) int {
	r.lock.Lock()
	defer r.lock.Unlock()
	accepted := 0
	for _, b := range p {
		if r.n >= len(r.buf) {
			r.dropped += len(p) - accepted
			break
		}
		r.buf[(r.head+r.n)%len(r.buf)] = b
		r.n++
		accepted++
	}
	return accepted
}

// Available implements hal.ByteStream.
func (r *Ring) Available() int {
	r.lock.Lock()
	defer r.lock.Unlock()
	return r.n
}

// Poll implements hal.ByteStream.
func (r *Ring) Poll() (byte, bool) {
	r.lock.Lock()
	defer r.lock.Unlock()
	if r.n == 0 {
		return 0, false
	}
	b := r.buf[r.head]
	r.head = (r.head + 1) % len(r.buf)
	r.n--
	return b, true
}

// Dropped returns the number of bytes dropped so far.
func (r *Ring) Dropped() int {
	r.lock.Lock()
	defer r.lock.Unlock()
	return r.dropped
}
