package serial

import "time"

// sem is a binary semaphore with coalesced posts, the wake-up primitive for
// blocking transfers. Only the interrupt handler, the timeout clock and
// cancellation post it; waking is a hint, not a guarantee, so waiters must
// re-check state after every pend.
type sem chan struct{}

func newSem() sem { return make(sem, 1) }

// post releases a waiter. Redundant posts coalesce.
func (s sem) post() {
	select {
	case s <- struct{}{}:
	default:
	}
}

// pend blocks until posted.
func (s sem) pend() { <-s }

// pendUntil blocks until posted or the deadline passes. A zero deadline
// means wait forever. It reports false on deadline expiry.
func (s sem) pendUntil(deadline time.Time) bool {
	if deadline.IsZero() {
		<-s
		return true
	}
	d := time.Until(deadline)
	if d <= 0 {
		select {
		case <-s:
			return true
		default:
			return false
		}
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-s:
		return true
	case <-t.C:
		return false
	}
}

// drain clears a stale post left over from a previous transfer.
func (s sem) drain() {
	select {
	case <-s:
	default:
	}
}
