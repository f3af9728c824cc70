package serial

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// drainWire consumes the transmit side until want bytes arrived or the
// deadline passed, playing the role of the far end of the line.
func drainWire(t *testing.T, sim *SimTransceiver, want int) []byte {
	t.Helper()
	var out []byte
	deadline := time.Now().Add(2 * time.Second)
	for len(out) < want && time.Now().Before(deadline) {
		out = append(out, sim.TakeTx()...)
		time.Sleep(time.Millisecond)
	}
	return out
}

func TestBlockingWriteDrainsThroughISR(t *testing.T) {
	p, sim := newTestPort(t, Config{})

	// Much larger than the 16-byte TX FIFO, so the ISR must keep feeding as
	// the far end drains.
	payload := make([]byte, 100)
	for i := range payload {
		payload[i] = byte(i)
	}

	got := make(chan []byte, 1)
	go func() { got <- drainWire(t, sim, len(payload)) }()

	n, err := p.Write(payload)
	require.NoError(t, err)
	require.Equal(t, len(payload), n)
	require.Equal(t, payload, <-got)
}

func TestNonBlockingWriteReturnsPartial(t *testing.T) {
	p, sim := newTestPort(t, Config{WriteMode: NonBlocking})

	payload := make([]byte, 40)
	n, err := p.Write(payload)
	require.NoError(t, err)
	require.Equal(t, simTxDepth, n) // only what the FIFO accepted
	require.Equal(t, simTxDepth, sim.TxPending())
}

func TestBlockingWriteTimeoutPartial(t *testing.T) {
	p, sim := newTestPort(t, Config{WriteTimeout: 60 * time.Millisecond})

	// Nobody drains the wire: the FIFO fills and the write must give up.
	payload := make([]byte, 40)
	n, err := p.Write(payload)
	require.ErrorIs(t, err, ErrTimeout)
	require.Equal(t, simTxDepth, n)
	require.Equal(t, uint32(1), p.Stats().Timeouts)
	require.Equal(t, simTxDepth, sim.TxPending())
}

func TestCallbackWriteCompletesViaISR(t *testing.T) {
	type res struct {
		n   int
		err error
	}
	results := make(chan res, 1)
	cb := func(n int, err error) { results <- res{n, err} }
	p, sim := newTestPort(t, Config{WriteMode: Callback, WriteCallback: cb})

	payload := make([]byte, 50)
	n, err := p.Write(payload)
	require.NoError(t, err)
	require.Zero(t, n) // count arrives via the callback

	got := drainWire(t, sim, len(payload))
	require.Len(t, got, len(payload))

	select {
	case r := <-results:
		require.NoError(t, r.err)
		require.Equal(t, len(payload), r.n)
	case <-time.After(time.Second):
		t.Fatal("write callback never fired")
	}
}

func TestTextModeInjectsCR(t *testing.T) {
	p, sim := newTestPort(t, Config{WriteDataMode: DataText})

	got := make(chan []byte, 1)
	go func() { got <- drainWire(t, sim, 8) }()

	n, err := p.Write([]byte("a\nb\nc"))
	require.NoError(t, err)
	require.Equal(t, 5, n) // injected CRs are not counted

	require.Equal(t, []byte("a\r\nb\r\nc"), <-got)
}

func TestTextModeCRSpansFIFOFill(t *testing.T) {
	p, sim := newTestPort(t, Config{WriteDataMode: DataText})

	// 15 filler bytes leave exactly one FIFO slot: the CR goes out, the LF
	// must wait for the ISR to resume after the far end drains.
	payload := append(make([]byte, 0, 16), []byte("123456789012345\n")...)
	want := append([]byte("123456789012345"), '\r', '\n')

	got := make(chan []byte, 1)
	go func() { got <- drainWire(t, sim, len(want)) }()

	n, err := p.Write(payload)
	require.NoError(t, err)
	require.Equal(t, len(payload), n)
	require.Equal(t, want, <-got)
}

func TestSecondWriteFailsWhileActive(t *testing.T) {
	p, sim := newTestPort(t, Config{})

	done := make(chan error, 1)
	go func() {
		_, err := p.Write(make([]byte, 40))
		done <- err
	}()

	// The first write is pending once the FIFO is full.
	require.Eventually(t, func() bool { return sim.TxPending() == simTxDepth },
		time.Second, time.Millisecond)

	_, err := p.Write([]byte("x"))
	require.ErrorIs(t, err, ErrOpInProgress)

	go drainWire(t, sim, 40)
	require.NoError(t, <-done)
}

func TestWriteCancelReleasesBlockedWriter(t *testing.T) {
	p, sim := newTestPort(t, Config{})

	type res struct {
		n   int
		err error
	}
	results := make(chan res, 1)
	go func() {
		n, err := p.Write(make([]byte, 40))
		results <- res{n, err}
	}()

	require.Eventually(t, func() bool { return sim.TxPending() == simTxDepth },
		time.Second, time.Millisecond)
	p.WriteCancel()

	select {
	case r := <-results:
		require.ErrorIs(t, r.err, ErrCancelled)
		require.Equal(t, simTxDepth, r.n)
	case <-time.After(time.Second):
		t.Fatal("cancel did not release the writer")
	}
}
