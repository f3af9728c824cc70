package serial

import "sync"

// simTxDepth models a typical hardware TX FIFO.
const simTxDepth = 16

// SimTransceiver is an in-process transceiver for host use: a bounded TX
// FIFO, an RX staging queue, and a single event goroutine standing in for
// the interrupt context. It also serves as its own interrupt registry and
// baud programmer, so one value satisfies everything HWAttrs needs.
//
// Tests and selftests play the far end of the wire: FeedRx supplies received
// bytes, TakeTx consumes what the driver transmitted.
type SimTransceiver struct {
	mu      sync.Mutex
	rx      []byte
	tx      []byte
	events  Event
	handler func()
	baud    BaudConfig
	progd   bool

	kick     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

func NewSimTransceiver() *SimTransceiver {
	s := &SimTransceiver{
		kick: make(chan struct{}, 1),
		done: make(chan struct{}),
	}
	go s.run()
	return s
}

// run is the interrupt context: it re-invokes the registered handler for as
// long as an enabled event condition holds, mirroring a level-triggered
// interrupt line.
func (s *SimTransceiver) run() {
	for {
		select {
		case <-s.done:
			return
		case <-s.kick:
		}
		for {
			s.mu.Lock()
			h := s.handler
			fire := h != nil && s.pendingLocked()
			s.mu.Unlock()
			if !fire {
				break
			}
			h()
		}
	}
}

func (s *SimTransceiver) pendingLocked() bool {
	if s.events&EventRxReady != 0 && len(s.rx) > 0 {
		return true
	}
	if s.events&EventTxReady != 0 && len(s.tx) < simTxDepth {
		return true
	}
	return false
}

func (s *SimTransceiver) raise() {
	select {
	case s.kick <- struct{}{}:
	default:
	}
}

// Close stops the event goroutine. The transceiver is unusable afterwards.
func (s *SimTransceiver) Close() error {
	s.stopOnce.Do(func() { close(s.done) })
	return nil
}

// ---------------- Transceiver ----------------

func (s *SimTransceiver) HasRxData() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rx) > 0
}

func (s *SimTransceiver) RxByte() byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.rx) == 0 {
		return 0
	}
	b := s.rx[0]
	s.rx = s.rx[1:]
	return b
}

func (s *SimTransceiver) CanTx() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tx) < simTxDepth
}

func (s *SimTransceiver) TxByte(b byte) {
	s.mu.Lock()
	s.tx = append(s.tx, b)
	s.mu.Unlock()
}

func (s *SimTransceiver) EnableEvents(ev Event) {
	s.mu.Lock()
	s.events |= ev
	s.mu.Unlock()
	s.raise()
}

func (s *SimTransceiver) DisableEvents(ev Event) {
	s.mu.Lock()
	s.events &^= ev
	s.mu.Unlock()
}

// ---------------- IntrRegistry ----------------

func (s *SimTransceiver) Register(vector int, priority uint8, fn func()) {
	s.mu.Lock()
	s.handler = fn
	s.mu.Unlock()
	s.raise()
}

func (s *SimTransceiver) Unregister(vector int) {
	s.mu.Lock()
	s.handler = nil
	s.mu.Unlock()
}

// ---------------- BaudProgrammer ----------------

func (s *SimTransceiver) SetBaud(cfg BaudConfig) error {
	s.mu.Lock()
	s.baud = cfg
	s.progd = true
	s.mu.Unlock()
	return nil
}

// Programmed returns the divisors Open handed over, if any.
func (s *SimTransceiver) Programmed() (BaudConfig, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.baud, s.progd
}

// ---------------- wire-side test hooks ----------------

// FeedRx places bytes on the receive side of the wire and raises the
// interrupt line.
func (s *SimTransceiver) FeedRx(p []byte) {
	s.mu.Lock()
	s.rx = append(s.rx, p...)
	s.mu.Unlock()
	s.raise()
}

// TakeTx drains everything the driver has transmitted, freeing TX FIFO
// space (which may raise a TX-ready interrupt).
func (s *SimTransceiver) TakeTx() []byte {
	s.mu.Lock()
	out := s.tx
	s.tx = nil
	s.mu.Unlock()
	s.raise()
	return out
}

// TxPending returns how many transmitted bytes await TakeTx.
func (s *SimTransceiver) TxPending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tx)
}
