package serial

import "time"

// sessState tracks one direction's transfer through its lifecycle:
// idle -> active -> {completed, timedOut, cancelled} -> idle.
type sessState uint8

const (
	stateIdle sessState = iota
	stateActive
	stateCompleted
	stateTimedOut
	stateCancelled
)

// session is the per-direction transfer state. It borrows the caller's
// buffer for the duration of the transfer and is mutated from both the
// interrupt side and the task side, always under the port's interrupt mask.
type session struct {
	buf       []byte    // externally owned; valid while state != stateIdle
	remaining int       // invariant: 0 <= remaining <= len(buf)
	state     sessState
	seq       uint32 // bumped per arm so a late timeout clock can tell its transfer is gone

	mode     Mode
	timeout  time.Duration
	callback CallbackFunc

	clk *time.Timer // one-shot timeout clock; nil when not armed

	pendingCR bool // write direction: CR injected, LF still owed
}

// arm records a new transfer and moves the session to Active.
func (s *session) arm(buf []byte, mode Mode, timeout time.Duration, cb CallbackFunc) {
	s.seq++
	s.buf = buf
	s.remaining = len(buf)
	s.state = stateActive
	s.mode = mode
	s.timeout = timeout
	s.callback = cb
	s.pendingCR = false
}

// transferred returns how many bytes have moved so far.
func (s *session) transferred() int { return len(s.buf) - s.remaining }

// armClock starts the one-shot timeout clock. A zero timeout means wait
// forever and leaves the clock unarmed. onExpire receives this transfer's
// sequence number so an expiry that loses the race against completion and a
// re-arm cannot touch the wrong transfer.
func (s *session) armClock(onExpire func(seq uint32)) {
	if s.timeout > 0 {
		seq := s.seq
		s.clk = time.AfterFunc(s.timeout, func() { onExpire(seq) })
	}
}

// disarmClock stops a pending timeout clock, if any.
func (s *session) disarmClock() {
	if s.clk != nil {
		s.clk.Stop()
		s.clk = nil
	}
}

// reset drops the buffer reference and returns the session to Idle.
func (s *session) reset() {
	s.disarmClock()
	s.buf = nil
	s.remaining = 0
	s.state = stateIdle
	s.callback = nil
	s.pendingCR = false
}

// result translates a terminal state into the error reported to the caller
// or callback. Timeout and cancellation accompany the partial count; they do
// not discard it.
func (s *session) result() error {
	switch s.state {
	case stateTimedOut:
		return ErrTimeout
	case stateCancelled:
		return ErrCancelled
	default:
		return nil
	}
}
