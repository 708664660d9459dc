package remote

// LinkState is the synchronization state of the link.
type LinkState int

// Link states, combined as bits.
const (
	Syncing LinkState = 0
	Ready   LinkState = 0x01
	// Busy means a sync or a frame is partially received.
	Busy LinkState = 0x02
)

// IsReady reports whether frames can be exchanged.
func (s LinkState) IsReady() bool {
	return s&Ready != 0
}

// IsBusy reports a partially received sync or frame.
func (s LinkState) IsBusy() bool {
	return s&Busy != 0
}

func (s LinkState) String() string {
	switch {
	case s.IsReady() && s.IsBusy():
		return "receiving"
	case s.IsReady():
		return "ready"
	case s.IsBusy():
		return "syncing"
	}
	return "unsynced"
}

// Sync bytes.
const (
	SyncReq byte = 0xff
	SyncAck byte = 0xfe
)

type timerAction int

const (
	timerKeep timerAction = iota
	timerRestart
	timerStop
)

// Step is the outcome of feeding the decoder.
type Step struct {
	// Sync is a sync byte to send to the peer followed by the local seq, or 0.
	Sync  byte
	State LinkState
	Frame *Frame
}

func (s Step) timer() timerAction {
	if s.State.IsBusy() || s.Sync == SyncReq {
		return timerRestart
	}
	if s.State.IsReady() {
		return timerStop
	}
	return timerKeep
}

type phase int

const (
	// SyncReq sent, waiting for SyncAck
	phaseWaitAck phase = iota
	// seq after a SyncReq
	phaseReqSeq
	// seq after a SyncAck
	phaseAckSeq
	// idle, next frame seq
	phaseSeq
	// SyncAck while idle, seq must match
	phaseIdleAck
	phaseCode
	phaseLen
	phaseData
)

// Decoder consumes received bytes.
type Decoder struct {
	peer  Seq
	phase phase
	frame *Frame
	got   int
}

// State returns the current state.
func (d *Decoder) State() LinkState {
	switch {
	case d.phase == phaseWaitAck:
		return Syncing
	case d.phase == phaseSeq:
		return Ready
	case d.phase > phaseSeq:
		return Ready | Busy
	}
	return Syncing | Busy
}

// Reset drops partial input and starts a resync.
func (d *Decoder) Reset() Step {
	d.frame = nil
	return d.step(d.resync())
}

// Feed consumes one byte.
func (d *Decoder) Feed(b byte) Step {
	return d.step(d.feed(b))
}

// Expire tells the decoder the peer went silent.
func (d *Decoder) Expire() Step {
	if d.phase == phaseSeq {
		return d.step(0, nil)
	}
	return d.step(d.resync())
}

func (d *Decoder) step(sync byte, f *Frame) Step {
	return Step{Sync: sync, State: d.State(), Frame: f}
}

func (d *Decoder) feed(b byte) (byte, *Frame) {
	switch d.phase {
	case phaseWaitAck:
		if b == SyncReq {
			d.phase = phaseReqSeq
		} else if b == SyncAck {
			d.phase = phaseAckSeq
		}
	case phaseReqSeq, phaseAckSeq:
		seq := Seq(b)
		if !seq.IsValid() {
			return d.resync()
		}
		reply := byte(0)
		if d.phase == phaseReqSeq {
			reply = SyncAck
		}
		d.peer, d.phase = seq, phaseSeq
		return reply, nil
	case phaseSeq:
		switch {
		case b == SyncReq:
			d.phase = phaseReqSeq
		case b == SyncAck:
			d.phase = phaseIdleAck
		case Seq(b) != d.peer:
			return d.resync()
		default:
			d.frame = &Frame{Seq: d.peer}
			d.peer = d.peer.Next()
			d.phase = phaseCode
		}
	case phaseIdleAck:
		if Seq(b) != d.peer {
			return d.resync()
		}
		d.phase = phaseSeq
	case phaseCode:
		d.frame.Code = b & codeMask
		n := (b >> 4) & lenExt
		switch n {
		case 0:
			return d.done()
		case lenExt:
			d.phase = phaseLen
		default:
			d.expect(int(n))
		}
	case phaseLen:
		if b > MaxDataLen {
			return d.resync()
		}
		if b == 0 {
			return d.done()
		}
		d.expect(int(b))
	case phaseData:
		d.frame.Data[d.got] = b
		if d.got++; d.got >= len(d.frame.Data) {
			return d.done()
		}
	}
	return 0, nil
}

func (d *Decoder) expect(n int) {
	d.frame.Data, d.got = make([]byte, n), 0
	d.phase = phaseData
}

func (d *Decoder) resync() (byte, *Frame) {
	d.phase = phaseWaitAck
	return SyncReq, nil
}

func (d *Decoder) done() (byte, *Frame) {
	d.phase = phaseSeq
	f := d.frame
	d.frame = nil
	return 0, f
}
