package serial

// BaudConfig specifies the divider settings that achieve a desired baud rate
// for a given input clock frequency. Divider values come from the part's
// baud-rate calculator; the driver treats them as opaque and only hands them
// to the transceiver.
type BaudConfig struct {
	BaudRate     uint32 // search criteria: desired baud rate
	InputClockHz uint32 // search criteria: given this input clock frequency
	Prescalar    uint8
	FirstModReg  uint8
	SecondModReg uint8
	Oversampling bool
}

// BaudTable is an ordered list of divider configurations. Entries are assumed
// unique per (rate, clock) pair by configuration contract.
type BaudTable []BaudConfig

// Find returns the first entry matching the exact (rate, clock) pair.
// A miss is a configuration error surfaced by Open, not a runtime fault.
func (t BaudTable) Find(baudRate, inputClockHz uint32) (BaudConfig, bool) {
	for _, e := range t {
		if e.BaudRate == baudRate && e.InputClockHz == inputClockHz {
			return e, true
		}
	}
	return BaudConfig{}, false
}

// DefaultBaudTable carries the stock divider rows for the reference clocks.
// Boards with other clock sources supply their own table through HWAttrs.
var DefaultBaudTable = BaudTable{
	{BaudRate: 115200, InputClockHz: 8192000, Prescalar: 4, FirstModReg: 7, SecondModReg: 0, Oversampling: true},
	{BaudRate: 9600, InputClockHz: 8192000, Prescalar: 53, FirstModReg: 5, SecondModReg: 0, Oversampling: true},
	{BaudRate: 9600, InputClockHz: 32768, Prescalar: 3, FirstModReg: 0, SecondModReg: 3, Oversampling: false},
}
