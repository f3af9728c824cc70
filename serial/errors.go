package serial

import "errors"

var (
	// ErrAlreadyOpen is returned by Open when the port is already open.
	ErrAlreadyOpen = errors.New("serial: port already open")
	// ErrNotOpen is returned by operations on a closed port.
	ErrNotOpen = errors.New("serial: port not open")
	// ErrOpInProgress is returned when a second transfer is requested while
	// one is still active on the same direction.
	ErrOpInProgress = errors.New("serial: operation in progress")
	// ErrInvalidConfig is returned by Open for an unusable configuration,
	// most commonly a baud table miss for the requested (rate, clock) pair.
	ErrInvalidConfig = errors.New("serial: invalid configuration")
	// ErrTimeout reports that a blocking transfer hit its deadline. The
	// partial byte count is always returned alongside it.
	ErrTimeout = errors.New("serial: transfer timed out")
	// ErrCancelled reports that a transfer was aborted by a cancel request
	// or by closing the port.
	ErrCancelled = errors.New("serial: transfer cancelled")
)
