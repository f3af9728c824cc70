// Package serial implements an interrupt-driven character I/O driver core.
// A Port coordinates a hardware transceiver's interrupt handler and calling
// tasks around a shared RX ring buffer, offering Blocking, Callback and
// NonBlocking read/write semantics with timeout-driven cancellation. The
// hardware itself stays behind the Transceiver interface; SimTransceiver
// provides an in-process implementation and package ttyserial a Linux one.
package serial

import (
	"fmt"
	"sync"
	"time"
)

// Port is one open serial peripheral. It owns one transfer session per
// direction, the software RX ring, and the coordination flags shared between
// interrupt and task context. At most one transfer per direction may be
// active at a time.
type Port struct {
	attrs HWAttrs

	// mask is the host analogue of interrupt disabling: a short critical
	// section taken by both the interrupt handler and task-side code around
	// every access to the fields below. Never held while blocking.
	mask sync.Mutex

	isOpen bool
	ring   *RingBuffer

	rd session
	wr session

	// Coordination flags for the read path, with the transition rules:
	// bufTimeout is set only by the timeout clock and cleared when the
	// blocking caller consumes the result; callCallback marks a finished
	// callback-mode transfer awaiting dispatch; drainByISR hands ring
	// draining to the interrupt handler for the span of one callback-mode
	// read.
	bufTimeout   bool
	callCallback bool
	drainByISR   bool

	readSem  sem
	writeSem sem

	disp *dispatcher

	readMode      Mode
	writeMode     Mode
	readTimeout   time.Duration
	writeTimeout  time.Duration
	readCallback  CallbackFunc
	writeCallback CallbackFunc
	readReturn    ReturnMode
	readEcho      bool
	writeData     DataMode

	stats Stats
}

// NewPort binds a Port to one peripheral's attributes. The returned Port is
// closed; call Open before use.
func NewPort(attrs HWAttrs) *Port {
	return &Port{
		attrs:    attrs,
		readSem:  newSem(),
		writeSem: newSem(),
	}
}

// Open configures the peripheral and arms RX interrupts. It fails with
// ErrAlreadyOpen if the port is open and ErrInvalidConfig when the baud
// lookup misses or a Callback mode lacks its callback.
func (p *Port) Open(cfg Config) error {
	p.mask.Lock()
	defer p.mask.Unlock()

	if p.isOpen {
		return ErrAlreadyOpen
	}
	if !cfg.ReadMode.valid() || !cfg.WriteMode.valid() {
		return fmt.Errorf("%w: unknown transfer mode", ErrInvalidConfig)
	}
	if cfg.ReadMode == Callback && cfg.ReadCallback == nil {
		return fmt.Errorf("%w: read callback required", ErrInvalidConfig)
	}
	if cfg.WriteMode == Callback && cfg.WriteCallback == nil {
		return fmt.Errorf("%w: write callback required", ErrInvalidConfig)
	}

	baud := cfg.BaudRate
	if baud == 0 {
		baud = 115200
	}
	table := p.attrs.BaudTable
	if table == nil {
		table = DefaultBaudTable
	}
	entry, ok := table.Find(baud, p.attrs.InputClockHz)
	if !ok {
		return fmt.Errorf("%w: no divisors for %d baud at %d Hz",
			ErrInvalidConfig, baud, p.attrs.InputClockHz)
	}
	if bp, ok := p.attrs.Trx.(BaudProgrammer); ok {
		if err := bp.SetBaud(entry); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
		}
	}

	if p.ring == nil {
		p.ring = NewRingBuffer(p.attrs.RingSize)
	} else {
		p.ring.Clear()
	}

	p.readMode = cfg.ReadMode
	p.writeMode = cfg.WriteMode
	p.readTimeout = cfg.ReadTimeout
	p.writeTimeout = cfg.WriteTimeout
	p.readCallback = cfg.ReadCallback
	p.writeCallback = cfg.WriteCallback
	p.readReturn = cfg.ReadReturnMode
	p.readEcho = cfg.ReadEcho
	p.writeData = cfg.WriteDataMode
	p.bufTimeout = false
	p.callCallback = false
	p.drainByISR = false
	p.stats = Stats{}

	p.disp = newDispatcher()
	p.attrs.Intr.Register(p.attrs.IntrVector, p.attrs.IntrPriority, p.hwiIntFxn)
	p.attrs.Trx.EnableEvents(EventRxReady)
	p.isOpen = true
	return nil
}

// Close cancels any active transfers, releasing blocked callers with
// ErrCancelled, then disables events and stops the callback dispatcher.
// The port can be reopened afterwards.
func (p *Port) Close() error {
	p.mask.Lock()
	if !p.isOpen {
		p.mask.Unlock()
		return ErrNotOpen
	}
	p.cancelReadLocked()
	p.cancelWriteLocked()
	p.attrs.Trx.DisableEvents(EventRxReady | EventTxReady)
	p.attrs.Intr.Unregister(p.attrs.IntrVector)
	p.isOpen = false
	disp := p.disp
	p.disp = nil
	p.mask.Unlock()

	disp.stop()
	return nil
}

// hwiIntFxn is the port's interrupt handler. It runs in interrupt context:
// it must not block, allocate or call user code, only move bytes and flag
// completions for task-side code to act on.
func (p *Port) hwiIntFxn() {
	p.mask.Lock()
	defer p.mask.Unlock()

	bump(&p.stats.ISRCount)
	if !p.isOpen {
		return
	}
	readBehaviors[p.readMode].isr(p)
	writeBehaviors[p.writeMode].isr(p)
}

// ReadCancel aborts an active read. A blocked caller is released with
// ErrCancelled; a callback-mode read delivers ErrCancelled with the partial
// count. No-op when no read is active.
func (p *Port) ReadCancel() {
	p.mask.Lock()
	defer p.mask.Unlock()
	if p.isOpen {
		p.cancelReadLocked()
	}
}

// WriteCancel is the write-direction counterpart of ReadCancel.
func (p *Port) WriteCancel() {
	p.mask.Lock()
	defer p.mask.Unlock()
	if p.isOpen {
		p.cancelWriteLocked()
	}
}

func (p *Port) cancelReadLocked() {
	if p.rd.state != stateActive {
		return
	}
	p.rd.disarmClock()
	p.rd.state = stateCancelled
	bump(&p.stats.Cancels)
	switch p.rd.mode {
	case Blocking:
		bump(&p.stats.SemPosts)
		p.readSem.post()
	case Callback:
		p.finishCallbackReadLocked()
	}
}

func (p *Port) cancelWriteLocked() {
	if p.wr.state != stateActive {
		return
	}
	p.wr.disarmClock()
	p.wr.state = stateCancelled
	p.attrs.Trx.DisableEvents(EventTxReady)
	bump(&p.stats.Cancels)
	switch p.wr.mode {
	case Blocking:
		bump(&p.stats.SemPosts)
		p.writeSem.post()
	case Callback:
		p.finishCallbackWriteLocked()
	}
}

// finishCallbackReadLocked consumes the read session's terminal state and
// hands the result to the dispatcher. Exactly one continuation is enqueued
// per transfer.
func (p *Port) finishCallbackReadLocked() {
	n := p.rd.transferred()
	err := p.rd.result()
	cb := p.rd.callback
	p.rd.reset()
	p.callCallback = false
	p.drainByISR = false
	p.disp.enqueue(func() {
		bump(&p.stats.Callbacks)
		cb(n, err)
	})
}

func (p *Port) finishCallbackWriteLocked() {
	n := p.wr.transferred()
	err := p.wr.result()
	cb := p.wr.callback
	p.wr.reset()
	p.disp.enqueue(func() {
		bump(&p.stats.Callbacks)
		cb(n, err)
	})
}

// Buffered returns the number of bytes waiting in the software RX ring.
func (p *Port) Buffered() int {
	p.mask.Lock()
	defer p.mask.Unlock()
	if p.ring == nil {
		return 0
	}
	return p.ring.Used()
}
