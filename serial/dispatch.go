package serial

import "sync"

// dispatcher runs user callbacks on a dedicated task-context goroutine so
// interrupt-side code only ever flags completion. enqueue never blocks:
// continuations land in a slice guarded by the dispatcher's own lock and the
// goroutine is woken through a coalesced channel, so callers may hold the
// port's interrupt mask while enqueueing even when a callback is slow.
type dispatcher struct {
	mu sync.Mutex
	q  []func()

	wake chan struct{}
	quit chan struct{}
	done chan struct{}
}

func newDispatcher() *dispatcher {
	d := &dispatcher{
		wake: make(chan struct{}, 1),
		quit: make(chan struct{}),
		done: make(chan struct{}),
	}
	go d.run()
	return d
}

func (d *dispatcher) run() {
	defer close(d.done)
	for {
		select {
		case <-d.wake:
			d.drain()
		case <-d.quit:
			d.drain()
			return
		}
	}
}

func (d *dispatcher) drain() {
	for {
		d.mu.Lock()
		if len(d.q) == 0 {
			d.mu.Unlock()
			return
		}
		fn := d.q[0]
		d.q = d.q[1:]
		d.mu.Unlock()
		fn()
	}
}

// enqueue hands a completion continuation to the dispatcher.
func (d *dispatcher) enqueue(fn func()) {
	d.mu.Lock()
	d.q = append(d.q, fn)
	d.mu.Unlock()
	select {
	case d.wake <- struct{}{}:
	default:
	}
}

// stop waits for every queued continuation to run, then retires the
// goroutine. The port guarantees no enqueues after stop.
func (d *dispatcher) stop() {
	close(d.quit)
	<-d.done
}
