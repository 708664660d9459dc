package protocol

import "strings"

// DefaultCapacity is the maximum line length without terminator.
const DefaultCapacity = 32

// AssembleResult is the result after feeding one byte.
type AssembleResult struct {
	// Line is a complete line when Ready.
	Line  string
	Ready bool
	// Overflow is set once per line exceeding the capacity.
	Overflow bool
}

// Assembler splits a byte stream into lines in a fixed buffer.
// Both '\n' and '\r' terminate a line. Blank lines are dropped.
type Assembler struct {
	buf        []byte
	n          int
	discarding bool
}

// NewAssembler creates an Assembler.
func NewAssembler(capacity int) *Assembler {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Assembler{buf: make([]byte, capacity)}
}

// Pending returns the number of buffered bytes.
func (a *Assembler) Pending() int {
	return a.n
}

// Reset drops the partial line.
func (a *Assembler) Reset() {
	a.n, a.discarding = 0, false
}

// Feed consumes one byte.
func (a *Assembler) Feed(b byte) (r AssembleResult) {
	if b == '\n' || b == '\r' {
		if a.discarding {
			a.discarding = false
			return
		}
		line := string(a.buf[:a.n])
		a.n = 0
		if strings.TrimSpace(line) != "" {
			r.Line, r.Ready = line, true
		}
		return
	}
	if a.discarding {
		return
	}
	if a.n >= len(a.buf) {
		// skip until the next terminator
		a.n, a.discarding = 0, true
		r.Overflow = true
		return
	}
	a.buf[a.n] = b
	a.n++
	return
}
