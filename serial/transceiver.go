package serial

// Event selects which transceiver conditions raise the serial interrupt.
type Event uint8

const (
	// EventRxReady fires when a received byte is available to dequeue.
	EventRxReady Event = 1 << iota
	// EventTxReady fires when the transmitter can accept another byte.
	EventTxReady
)

// Transceiver is the byte-level interface the driver core drives. It stands
// in for the peripheral's receive/transmit machinery; register programming
// stays behind it. Implementations raise the registered interrupt handler
// whenever an enabled event condition holds, and keep raising it until the
// condition is cleared by servicing (level-triggered).
//
// All methods are called with the port's interrupt mask held; they must not
// call back into the driver.
type Transceiver interface {
	// HasRxData reports whether a received byte is waiting.
	HasRxData() bool
	// RxByte dequeues the next received byte. Only valid after HasRxData.
	RxByte() byte
	// CanTx reports whether the transmitter can accept a byte.
	CanTx() bool
	// TxByte enqueues one byte for transmission.
	TxByte(b byte)
	// EnableEvents adds conditions to the set that raises the interrupt.
	EnableEvents(ev Event)
	// DisableEvents removes conditions from that set.
	DisableEvents(ev Event)
}

// BaudProgrammer is implemented by transceivers whose clock dividers the
// driver programs from the baud lookup table at Open.
type BaudProgrammer interface {
	SetBaud(cfg BaudConfig) error
}

// IntrRegistry is the interrupt-controller facility the driver registers its
// handler with. On hardware this maps to the vector table; host backends
// dispatch the handler from their own event goroutine.
type IntrRegistry interface {
	Register(vector int, priority uint8, fn func())
	Unregister(vector int)
}
