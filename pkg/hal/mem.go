package hal

import "sync"

// MemPins is an in-memory Pins implementation. Inputs are set by the
// owner (a test or a simulator), outputs are recorded.
type MemPins struct {
	digital map[Pin]bool
	analog  map[Pin]int
	writes  int
	lock    sync.Mutex
}

// NewMemPins creates MemPins.
func NewMemPins() *MemPins {
	return &MemPins{
		digital: make(map[Pin]bool),
		analog:  make(map[Pin]int),
	}
}

// DigitalRead implements Pins.
func (m *MemPins) DigitalRead(p Pin) bool {
	if p == NoPin {
		return false
	}
	m.lock.Lock()
	defer m.lock.Unlock()
	return m.digital[p]
}

// DigitalWrite implements Pins.
func (m *MemPins) DigitalWrite(p Pin, v bool) {
	if p == NoPin {
		return
	}
	m.lock.Lock()
	m.digital[p] = v
	m.writes++
	m.lock.Unlock()
}

// AnalogRead implements Pins.
func (m *MemPins) AnalogRead(p Pin) int {
	if p == NoPin {
		return 0
	}
	m.lock.Lock()
	defer m.lock.Unlock()
	return m.analog[p]
}

// AnalogWrite implements Pins.
func (m *MemPins) AnalogWrite(p Pin, v int) {
	if p == NoPin {
		return
	}
	m.lock.Lock()
	m.analog[p] = v
	m.writes++
	m.lock.Unlock()
}

// SetDigital sets an input level.
func (m *MemPins) SetDigital(p Pin, v bool) {
	m.lock.Lock()
	m.digital[p] = v
	m.lock.Unlock()
}

// SetAnalog sets an input sample.
func (m *MemPins) SetAnalog(p Pin, v int) {
	m.lock.Lock()
	m.analog[p] = v
	m.lock.Unlock()
}

// Writes returns the number of output writes so far.
func (m *MemPins) Writes() int {
	m.lock.Lock()
	defer m.lock.Unlock()
	return m.writes
}

// MemStream is an in-memory ByteStream. Input is appended with Inject,
// output is collected and retrieved with Output.
type MemStream struct {
	in   []byte
	out  []byte
	lock sync.Mutex
}

// Inject appends bytes to be read.
func (s *MemStream) Inject(p []byte) {
	s.lock.Lock()
	s.in = append(s.in, p...)
	s.lock.Unlock()
}

// Available implements ByteStream.
func (s *MemStream) Available() int {
	s.lock.Lock()
	defer s.lock.Unlock()
	return len(s.in)
}

// Poll implements ByteStream.
func (s *MemStream) Poll() (byte, bool) {
	s.lock.Lock()
	defer s.lock.Unlock()
	if len(s.in) == 0 {
		return 0, false
	}
	b := s.in[0]
	s.in = s.in[1:]
	return b, true
}

// Write implements ByteStream.
func (s *MemStream) Write(p []byte) (int, error) {
	s.lock.Lock()
	s.out = append(s.out, p...)
	s.lock.Unlock()
	return len(p), nil
}

// Output drains the bytes written so far.
func (s *MemStream) Output() []byte {
	s.lock.Lock()
	defer s.lock.Unlock()
	out := s.out
	s.out = nil
	return out
}
