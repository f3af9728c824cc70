package serial

// readBehavior is the closed set of mode variants that replaces a runtime
// function-pointer pair: one interrupt-side and one task-side function per
// mode, cooperating on the same session. Both run with the port's interrupt
// mask held; task releases it only around semaphore pends and returns with
// it held.
type readBehavior interface {
	// isr services an RX interrupt. It returns false when it finished the
	// transfer itself and no further ISR work is expected for it.
	isr(p *Port) bool
	// task runs the transfer from the caller's context. The session is
	// already armed.
	task(p *Port) (int, error)
}

var readBehaviors = [numModes]readBehavior{
	Blocking:    blockingRead{},
	Callback:    callbackRead{},
	NonBlocking: nonBlockingRead{},
}

// Read transfers up to len(buf) bytes from the port into buf according to
// the configured read mode. In Blocking mode it returns the final count with
// nil, ErrTimeout or ErrCancelled; in NonBlocking mode it returns whatever
// was buffered; in Callback mode it returns (0, nil) immediately and the
// count arrives through the read callback. A second Read while one is still
// active fails with ErrOpInProgress.
func (p *Port) Read(buf []byte) (int, error) {
	p.mask.Lock()
	defer p.mask.Unlock()

	if !p.isOpen {
		return 0, ErrNotOpen
	}
	if p.rd.state != stateIdle {
		return 0, ErrOpInProgress
	}
	if p.readMode == Callback && p.readCallback == nil {
		return 0, ErrInvalidConfig
	}
	if len(buf) == 0 {
		return 0, nil
	}
	p.readSem.drain()
	p.rd.arm(buf, p.readMode, p.readTimeout, p.readCallback)
	return readBehaviors[p.rd.mode].task(p)
}

// fillRingLocked moves every waiting byte from the transceiver into the RX
// ring, echoing when enabled. A full ring drops the byte; the drop is
// counted, never silently lost in the stats.
func (p *Port) fillRingLocked() {
	t := p.attrs.Trx
	for t.HasRxData() {
		b := t.RxByte()
		if p.readEcho && t.CanTx() {
			t.TxByte(b)
			bump(&p.stats.EchoBytes)
		}
		if p.ring.Put(b) {
			bump(&p.stats.ISRBytes)
		} else {
			bump(&p.stats.RingDrops)
		}
	}
	bumpMax(&p.stats.RingMaxUsed, uint32(p.ring.Used()))
}

// drainRingLocked copies buffered bytes into the active read session,
// honouring return-on-newline, and reports whether the transfer is now
// satisfied.
func (p *Port) drainRingLocked() bool {
	s := &p.rd
	for s.remaining > 0 {
		b, ok := p.ring.Get()
		if !ok {
			break
		}
		s.buf[s.transferred()] = b
		s.remaining--
		if p.readReturn == ReturnNewline && b == '\n' {
			s.state = stateCompleted
			break
		}
	}
	if s.remaining == 0 {
		s.state = stateCompleted
	}
	return s.state == stateCompleted
}

// readTimeoutExpired is the timeout clock's expiry function. Interrupt-safe:
// it only flags and posts; the blocked task translates that into a result.
// The sequence check rejects a clock that fired for an already-retired
// transfer.
func (p *Port) readTimeoutExpired(seq uint32) {
	p.mask.Lock()
	if p.rd.state != stateActive || p.rd.mode != Blocking || p.rd.seq != seq {
		p.mask.Unlock()
		return
	}
	p.bufTimeout = true
	bump(&p.stats.Timeouts)
	bump(&p.stats.SemPosts)
	p.mask.Unlock()
	p.readSem.post()
}

type blockingRead struct{}

func (blockingRead) isr(p *Port) bool {
	p.fillRingLocked()
	if p.rd.state == stateActive && !p.ring.Empty() {
		bump(&p.stats.SemPosts)
		p.readSem.post()
	}
	return true
}

func (blockingRead) task(p *Port) (int, error) {
	s := &p.rd
	if p.drainRingLocked() {
		n := s.transferred()
		s.reset()
		return n, nil
	}
	s.armClock(p.readTimeoutExpired)
	for s.state == stateActive {
		p.mask.Unlock()
		p.readSem.pend()
		p.mask.Lock()
		if s.state != stateActive {
			break // cancelled or closed while pending
		}
		if p.bufTimeout {
			// Final drain so the caller sees every byte the ISR produced
			// before the deadline.
			if !p.drainRingLocked() {
				s.state = stateTimedOut
			}
			break
		}
		p.drainRingLocked()
	}
	s.disarmClock()
	p.bufTimeout = false
	n := s.transferred()
	err := s.result()
	s.reset()
	return n, err
}

type callbackRead struct{}

func (callbackRead) isr(p *Port) bool {
	p.fillRingLocked()
	if p.rd.state != stateActive || !p.drainByISR {
		return true
	}
	if p.drainRingLocked() {
		p.callCallback = true
		p.finishCallbackReadLocked()
		return false
	}
	return true
}

func (callbackRead) task(p *Port) (int, error) {
	if p.drainRingLocked() {
		p.callCallback = true
		p.finishCallbackReadLocked()
		return 0, nil
	}
	p.drainByISR = true
	return 0, nil
}

type nonBlockingRead struct{}

func (nonBlockingRead) isr(p *Port) bool {
	p.fillRingLocked()
	return true
}

func (nonBlockingRead) task(p *Port) (int, error) {
	p.drainRingLocked()
	n := p.rd.transferred()
	p.rd.reset()
	return n, nil
}
