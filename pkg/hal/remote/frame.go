// Package remote drives pins on a microcontroller over a framed serial
// link. The firmware only does pin I/O, the control loop stays on the
// host.
//
// Framing: a frame is seq, code, [len], data. Bits 4-6 of the code byte
// carry the data length, 7 meaning an extra length byte follows (< 0x80).
// Bit 7 of the code marks firmware initiated frames (events), bit 0 of
// a reply code marks an error. Sequences run 1..0xef, 0xff and 0xfe are
// the sync request and acknowledge bytes. A peer seeing an unexpected
// sequence requests a resync, so a lost byte costs a frame, never a
// misread pin.
package remote

import (
	"io"
	"time"
)

// Seq is the frame sequence number.
type Seq byte

// NewSeq picks a starting sequence.
func NewSeq() Seq {
	return Seq(byte(time.Now().UnixNano())).Next()
}

// Next returns the following sequence.
func (s Seq) Next() Seq {
	n := byte(s) + 1
	if n == 0 || n >= 0xf0 {
		n = 1
	}
	return Seq(n)
}

// IsValid checks the range.
func (s Seq) IsValid() bool {
	return s > 0 && s < 0xf0
}

// Frame codes.
const (
	// CodeDigitalWrite: pin, level.
	CodeDigitalWrite byte = 0x02
	// CodeAnalogWrite: pin, duty.
	CodeAnalogWrite byte = 0x04
	// CodeWatch: pins to report, replaces the previous set.
	CodeWatch byte = 0x06
	// CodeInputs is the event reporting watched pins: (pin, hi, lo)...
	CodeInputs byte = 0x82

	codeEvent byte = 0x80
	codeError byte = 0x01
	codeMask  byte = 0x8f
	lenExt    byte = 7
)

// MaxDataLen is the longest payload of a frame.
const MaxDataLen = 0x7f

// Frame is a decoded frame.
type Frame struct {
	Seq  Seq
	Code byte
	Data []byte
}

// IsEvent tells firmware initiated frames from replies.
func (f *Frame) IsEvent() bool {
	return f.Code&codeEvent != 0
}

// Failed tells a reply reporting an error.
func (f *Frame) Failed() bool {
	return !f.IsEvent() && f.Code&codeError != 0
}

func (f *Frame) header() []byte {
	n := byte(len(f.Data))
	code := f.Code & codeMask
	if n < lenExt {
		return []byte{byte(f.Seq), code | n<<4}
	}
	return []byte{byte(f.Seq), code | lenExt<<4, n}
}

// Encode returns the bytes on the wire.
func (f *Frame) Encode() []byte {
	return append(f.header(), f.Data...)
}

// WriteTo implements io.WriterTo.
func (f *Frame) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(f.Encode())
	return int64(n), err
}
