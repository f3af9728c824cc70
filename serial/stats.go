package serial

import "sync/atomic"

// Stats holds driver counters since Open. All fields are updated with
// 32-bit atomics so a snapshot can be taken without stalling the ISR path.
type Stats struct {
	ISRCount    uint32 // interrupt handler entries
	ISRBytes    uint32 // bytes moved from the transceiver into the ring
	RingDrops   uint32 // received bytes dropped because the ring was full
	RingMaxUsed uint32 // high-water mark of ring occupancy
	EchoBytes   uint32 // bytes echoed back from the ISR
	SemPosts    uint32 // semaphore posts (ISR, clock and cancel combined)
	Timeouts    uint32 // blocking transfers that hit their deadline
	Cancels     uint32 // transfers aborted by cancel or close
	Callbacks   uint32 // callbacks dispatched
}

// Stats returns a copy of the port's counters.
func (p *Port) Stats() Stats {
	return Stats{
		ISRCount:    atomic.LoadUint32(&p.stats.ISRCount),
		ISRBytes:    atomic.LoadUint32(&p.stats.ISRBytes),
		RingDrops:   atomic.LoadUint32(&p.stats.RingDrops),
		RingMaxUsed: atomic.LoadUint32(&p.stats.RingMaxUsed),
		EchoBytes:   atomic.LoadUint32(&p.stats.EchoBytes),
		SemPosts:    atomic.LoadUint32(&p.stats.SemPosts),
		Timeouts:    atomic.LoadUint32(&p.stats.Timeouts),
		Cancels:     atomic.LoadUint32(&p.stats.Cancels),
		Callbacks:   atomic.LoadUint32(&p.stats.Callbacks),
	}
}

func bump(c *uint32) { atomic.AddUint32(c, 1) }

func bumpMax(c *uint32, v uint32) {
	if v > atomic.LoadUint32(c) {
		atomic.StoreUint32(c, v)
	}
}
