// Package hal defines the minimal hardware capabilities the controller
// depends on. Implementations live outside the core: a board support
// package on real hardware, pkg/sim for simulation, Pins for tests.
package hal

// Pin identifies a digital or analog pin.
type Pin uint8

// NoPin marks an unconnected pin. Reads return neutral values
// and writes are dropped.
const NoPin Pin = 0xff

// Pins provides pin level I/O.
type Pins interface {
	DigitalRead(Pin) bool
	DigitalWrite(Pin, bool)
	// AnalogRead returns a 10-bit sample (0-1023).
	AnalogRead(Pin) int
	// AnalogWrite sets a PWM duty (0-255).
	AnalogWrite(Pin, int)
}

// ByteStream is a non-blocking, byte oriented serial transport.
type ByteStream interface {
	// Available returns the number of bytes ready to be read.
	Available() int
	// Poll reads one byte. ok is false if nothing is available.
	Poll() (b byte, ok bool)
	// Write queues bytes for transmission without blocking the caller
	// on the peer. It returns the number of bytes accepted.
	Write(p []byte) (int, error)
}

// Analog limits.
const (
	AnalogMax = 1023
	PWMMax    = 255
)
