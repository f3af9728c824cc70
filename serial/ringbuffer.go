package serial

// RingBuffer is a fixed-capacity byte queue used as the software RX buffer.
// It does no locking of its own: correctness relies on the port serializing
// access so that exactly one context produces and one context consumes.
type RingBuffer struct {
	buf  []byte
	head int // next write position
	tail int // next read position
	used int
}

// NewRingBuffer returns a ring buffer holding up to size bytes.
// A size of zero or less falls back to the default ring size.
func NewRingBuffer(size int) *RingBuffer {
	if size <= 0 {
		size = DefaultRingSize
	}
	return &RingBuffer{buf: make([]byte, size)}
}

// Size returns the total capacity of the buffer in bytes.
func (rb *RingBuffer) Size() int { return len(rb.buf) }

// Used returns how many bytes are currently stored.
func (rb *RingBuffer) Used() int { return rb.used }

// Full reports whether the buffer has no free space.
func (rb *RingBuffer) Full() bool { return rb.used == len(rb.buf) }

// Empty reports whether the buffer holds no data.
func (rb *RingBuffer) Empty() bool { return rb.used == 0 }

// Put stores a byte in the buffer. If the buffer is already full, it returns
// false and the byte is not stored; the caller decides whether that means
// drop or make room.
func (rb *RingBuffer) Put(val byte) bool {
	if rb.used == len(rb.buf) {
		return false
	}
	rb.buf[rb.head] = val
	rb.head = (rb.head + 1) % len(rb.buf)
	rb.used++
	return true
}

// Get returns the oldest byte in the buffer. If the buffer is empty, it
// returns (0, false).
func (rb *RingBuffer) Get() (byte, bool) {
	if rb.used == 0 {
		return 0, false
	}
	v := rb.buf[rb.tail]
	rb.tail = (rb.tail + 1) % len(rb.buf)
	rb.used--
	return v, true
}

// Peek copies up to len(p) of the oldest bytes into p without consuming them
// and returns how many were copied.
func (rb *RingBuffer) Peek(p []byte) int {
	n := rb.used
	if n > len(p) {
		n = len(p)
	}
	for i := 0; i < n; i++ {
		p[i] = rb.buf[(rb.tail+i)%len(rb.buf)]
	}
	return n
}

// Clear discards all buffered data.
func (rb *RingBuffer) Clear() {
	rb.head = 0
	rb.tail = 0
	rb.used = 0
}
