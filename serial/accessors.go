package serial

import "time"

// Configuration accessors. Mode, timeout and callback changes are rejected
// while the affected direction has a transfer active, so a running state
// machine never sees its behaviour swapped underneath it.

func (p *Port) SetReadMode(m Mode) error {
	if !m.valid() {
		return ErrInvalidConfig
	}
	return p.withReadIdle(func() { p.readMode = m })
}

func (p *Port) SetWriteMode(m Mode) error {
	if !m.valid() {
		return ErrInvalidConfig
	}
	return p.withWriteIdle(func() { p.writeMode = m })
}

// SetReadTimeout sets the blocking-read deadline. Zero means wait forever.
func (p *Port) SetReadTimeout(d time.Duration) error {
	return p.withReadIdle(func() { p.readTimeout = d })
}

// SetWriteTimeout sets the blocking-write deadline. Zero means wait forever.
func (p *Port) SetWriteTimeout(d time.Duration) error {
	return p.withWriteIdle(func() { p.writeTimeout = d })
}

func (p *Port) SetReadCallback(cb CallbackFunc) error {
	return p.withReadIdle(func() { p.readCallback = cb })
}

func (p *Port) SetWriteCallback(cb CallbackFunc) error {
	return p.withWriteIdle(func() { p.writeCallback = cb })
}

func (p *Port) SetReadReturnMode(m ReturnMode) error {
	return p.withReadIdle(func() { p.readReturn = m })
}

func (p *Port) SetReadEcho(on bool) error {
	return p.withReadIdle(func() { p.readEcho = on })
}

func (p *Port) SetWriteDataMode(m DataMode) error {
	return p.withWriteIdle(func() { p.writeData = m })
}

func (p *Port) ReadMode() Mode {
	p.mask.Lock()
	defer p.mask.Unlock()
	return p.readMode
}

func (p *Port) WriteMode() Mode {
	p.mask.Lock()
	defer p.mask.Unlock()
	return p.writeMode
}

func (p *Port) withReadIdle(apply func()) error {
	p.mask.Lock()
	defer p.mask.Unlock()
	if !p.isOpen {
		return ErrNotOpen
	}
	if p.rd.state != stateIdle {
		return ErrOpInProgress
	}
	apply()
	return nil
}

func (p *Port) withWriteIdle(apply func()) error {
	p.mask.Lock()
	defer p.mask.Unlock()
	if !p.isOpen {
		return ErrNotOpen
	}
	if p.wr.state != stateIdle {
		return ErrOpInProgress
	}
	apply()
	return nil
}
