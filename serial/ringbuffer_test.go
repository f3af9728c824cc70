package serial

import "testing"

func TestRingBufferFIFOOrder(t *testing.T) {
	rb := NewRingBuffer(8)

	// Interleave puts and gets against a reference queue.
	var ref []byte
	step := byte(0)
	for i := 0; i < 100; i++ {
		for j := 0; j < 3 && !rb.Full(); j++ {
			if !rb.Put(step) {
				t.Fatalf("Put failed with %d used of %d", rb.Used(), rb.Size())
			}
			ref = append(ref, step)
			step++
		}
		for j := 0; j < 2 && len(ref) > 0; j++ {
			got, ok := rb.Get()
			if !ok {
				t.Fatalf("Get failed with reference length %d", len(ref))
			}
			if got != ref[0] {
				t.Fatalf("reordered byte: got %d want %d", got, ref[0])
			}
			ref = ref[1:]
		}
		if rb.Used() != len(ref) {
			t.Fatalf("count mismatch: Used=%d reference=%d", rb.Used(), len(ref))
		}
	}
}

func TestRingBufferPutOnFull(t *testing.T) {
	rb := NewRingBuffer(4)
	for i := 0; i < 4; i++ {
		if !rb.Put(byte(i)) {
			t.Fatalf("Put %d failed before full", i)
		}
	}
	if !rb.Full() {
		t.Fatal("expected full")
	}
	if rb.Put(99) {
		t.Fatal("Put succeeded on full buffer")
	}
	// The rejected byte must not have disturbed the contents.
	for i := 0; i < 4; i++ {
		got, ok := rb.Get()
		if !ok || got != byte(i) {
			t.Fatalf("slot %d: got %d ok=%v", i, got, ok)
		}
	}
	if !rb.Empty() {
		t.Fatal("expected empty after draining")
	}
}

func TestRingBufferPeekDoesNotConsume(t *testing.T) {
	rb := NewRingBuffer(8)
	for _, b := range []byte("abc") {
		rb.Put(b)
	}
	p := make([]byte, 8)
	if n := rb.Peek(p); n != 3 || string(p[:n]) != "abc" {
		t.Fatalf("Peek: n=%d data=%q", n, p[:n])
	}
	if rb.Used() != 3 {
		t.Fatalf("Peek consumed: Used=%d", rb.Used())
	}
	if b, ok := rb.Get(); !ok || b != 'a' {
		t.Fatalf("Get after Peek: %q ok=%v", b, ok)
	}
}

func TestRingBufferWrapAround(t *testing.T) {
	rb := NewRingBuffer(4)
	// Push the indices past the wrap point several times.
	for round := 0; round < 10; round++ {
		for i := 0; i < 3; i++ {
			if !rb.Put(byte(round*3 + i)) {
				t.Fatalf("round %d: Put %d failed", round, i)
			}
		}
		for i := 0; i < 3; i++ {
			got, ok := rb.Get()
			if !ok || got != byte(round*3+i) {
				t.Fatalf("round %d: got %d ok=%v", round, got, ok)
			}
		}
	}
}

func TestRingBufferClear(t *testing.T) {
	rb := NewRingBuffer(4)
	rb.Put(1)
	rb.Put(2)
	rb.Clear()
	if !rb.Empty() || rb.Used() != 0 {
		t.Fatalf("Clear left Used=%d", rb.Used())
	}
	if _, ok := rb.Get(); ok {
		t.Fatal("Get succeeded after Clear")
	}
}

func TestRingBufferDefaultSize(t *testing.T) {
	rb := NewRingBuffer(0)
	if rb.Size() != DefaultRingSize {
		t.Fatalf("Size=%d want %d", rb.Size(), DefaultRingSize)
	}
}
