package serial

import "time"

// Mode determines how Read and Write behave once a transfer is armed.
type Mode uint8

const (
	// Blocking suspends the caller until the transfer completes, times out
	// or is cancelled.
	Blocking Mode = iota
	// Callback returns immediately; the result is delivered exactly once to
	// the registered callback, from task context.
	Callback
	// NonBlocking returns immediately with whatever could be transferred.
	NonBlocking

	numModes
)

func (m Mode) valid() bool { return m < numModes }

// ReturnMode determines when a read is considered satisfied.
type ReturnMode uint8

const (
	// ReturnFull completes a read only when the requested length arrives.
	ReturnFull ReturnMode = iota
	// ReturnNewline additionally completes a read when a LF arrives.
	ReturnNewline
)

// DataMode selects raw or text treatment of outgoing data.
type DataMode uint8

const (
	// DataBinary transmits bytes untouched.
	DataBinary DataMode = iota
	// DataText precedes every LF on the wire with a CR.
	DataText
)

// Callback receives the result of a Callback-mode transfer: the number of
// bytes moved and nil, ErrTimeout or ErrCancelled.
type CallbackFunc func(n int, err error)

// DefaultRingSize is the RX ring capacity used when HWAttrs leaves it zero.
const DefaultRingSize = 128

// HWAttrs binds a Port to one physical peripheral: its transceiver, its
// interrupt plumbing and its clocking. One Port per peripheral; the attrs
// are fixed for the Port's lifetime.
type HWAttrs struct {
	Trx          Transceiver
	Intr         IntrRegistry
	IntrVector   int
	IntrPriority uint8
	InputClockHz uint32
	BaudTable    BaudTable // nil means DefaultBaudTable
	RingSize     int       // RX ring capacity; 0 means DefaultRingSize
}

// Config carries the per-open settings. The zero value means a 115200
// blocking port with binary data and no timeouts (wait forever).
type Config struct {
	BaudRate uint32 // 0 means 115200

	ReadMode  Mode
	WriteMode Mode

	// Zero timeout means wait forever. Timeouts apply to Blocking mode only.
	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	// Required when the corresponding mode is Callback.
	ReadCallback  CallbackFunc
	WriteCallback CallbackFunc

	ReadReturnMode ReturnMode
	ReadEcho       bool
	WriteDataMode  DataMode
}
