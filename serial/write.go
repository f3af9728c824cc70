package serial

import "time"

// writeBehavior mirrors readBehavior for the transmit direction. The write
// path has no software ring: the task primes the transceiver straight from
// the user buffer and the ISR continues feeding it as space opens up.
type writeBehavior interface {
	isr(p *Port) bool
	task(p *Port) (int, error)
}

var writeBehaviors = [numModes]writeBehavior{
	Blocking:    blockingWrite{},
	Callback:    callbackWrite{},
	NonBlocking: nonBlockingWrite{},
}

// Write transfers len(buf) bytes to the port according to the configured
// write mode, with the same return conventions as Read. In Callback mode the
// buffer must stay untouched until the callback fires.
func (p *Port) Write(buf []byte) (int, error) {
	p.mask.Lock()
	defer p.mask.Unlock()

	if !p.isOpen {
		return 0, ErrNotOpen
	}
	if p.wr.state != stateIdle {
		return 0, ErrOpInProgress
	}
	if p.writeMode == Callback && p.writeCallback == nil {
		return 0, ErrInvalidConfig
	}
	if len(buf) == 0 {
		return 0, nil
	}
	p.writeSem.drain()
	p.wr.arm(buf, p.writeMode, p.writeTimeout, p.writeCallback)
	return writeBehaviors[p.wr.mode].task(p)
}

// feedTransceiverLocked moves session bytes into the transceiver while it
// accepts them. In text mode every LF is preceded by a CR; the pendingCR
// latch lets the ISR resume mid-injection when the transmitter fills up
// between the two bytes. Returns true when the transfer is satisfied.
// The count only ever reflects caller bytes, not injected CRs.
func (p *Port) feedTransceiverLocked() bool {
	s := &p.wr
	t := p.attrs.Trx
	for s.remaining > 0 && t.CanTx() {
		b := s.buf[s.transferred()]
		if p.writeData == DataText && b == '\n' && !s.pendingCR {
			t.TxByte('\r')
			s.pendingCR = true
			continue
		}
		t.TxByte(b)
		s.pendingCR = false
		s.remaining--
	}
	if s.remaining == 0 {
		s.state = stateCompleted
	}
	return s.state == stateCompleted
}

type blockingWrite struct{}

func (blockingWrite) isr(p *Port) bool {
	if p.wr.state != stateActive {
		return true
	}
	if p.feedTransceiverLocked() {
		p.attrs.Trx.DisableEvents(EventTxReady)
		bump(&p.stats.SemPosts)
		p.writeSem.post()
		return false
	}
	return true
}

func (blockingWrite) task(p *Port) (int, error) {
	s := &p.wr
	if p.feedTransceiverLocked() {
		n := s.transferred()
		s.reset()
		return n, nil
	}
	p.attrs.Trx.EnableEvents(EventTxReady)
	var deadline time.Time
	if s.timeout > 0 {
		deadline = time.Now().Add(s.timeout)
	}
	for s.state == stateActive {
		p.mask.Unlock()
		posted := p.writeSem.pendUntil(deadline)
		p.mask.Lock()
		if !posted && s.state == stateActive {
			s.state = stateTimedOut
			p.attrs.Trx.DisableEvents(EventTxReady)
			bump(&p.stats.Timeouts)
		}
	}
	n := s.transferred()
	err := s.result()
	s.reset()
	return n, err
}

type callbackWrite struct{}

func (callbackWrite) isr(p *Port) bool {
	if p.wr.state != stateActive {
		return true
	}
	if p.feedTransceiverLocked() {
		p.attrs.Trx.DisableEvents(EventTxReady)
		p.finishCallbackWriteLocked()
		return false
	}
	return true
}

func (callbackWrite) task(p *Port) (int, error) {
	if p.feedTransceiverLocked() {
		p.finishCallbackWriteLocked()
		return 0, nil
	}
	p.attrs.Trx.EnableEvents(EventTxReady)
	return 0, nil
}

type nonBlockingWrite struct{}

func (nonBlockingWrite) isr(p *Port) bool { return true }

func (nonBlockingWrite) task(p *Port) (int, error) {
	p.feedTransceiverLocked()
	n := p.wr.transferred()
	p.wr.reset()
	return n, nil
}
