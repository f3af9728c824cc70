//go:build linux

package ttyserial

import (
	"os"
	"testing"
	"time"

	"github.com/creack/pty"
	"github.com/stretchr/testify/require"

	"github.com/energia/cc3200emt-core/serial"
)

// openPort builds a driver port over the slave end of a fresh pty pair and
// returns the master end as the far side of the wire.
func openPort(t *testing.T, cfg serial.Config) (*serial.Port, *os.File) {
	t.Helper()
	master, slave, err := pty.Open()
	require.NoError(t, err)
	t.Cleanup(func() { master.Close(); slave.Close() })

	dev, err := Open(slave.Name())
	require.NoError(t, err)
	t.Cleanup(func() { dev.Close() })

	p := serial.NewPort(serial.HWAttrs{Trx: dev, Intr: dev, InputClockHz: 8192000})
	require.NoError(t, p.Open(cfg))
	t.Cleanup(func() { p.Close() }) //nolint:errcheck // double close is fine here
	return p, master
}

func TestBlockingReadOverPty(t *testing.T) {
	p, master := openPort(t, serial.Config{})

	go func() {
		time.Sleep(10 * time.Millisecond)
		master.Write([]byte("hello"))
	}()

	buf := make([]byte, 5)
	n, err := p.Read(buf)
	require.NoError(t, err)
	require.Equal(t, 5, n)
	require.Equal(t, []byte("hello"), buf)
}

func TestWriteReachesPeer(t *testing.T) {
	p, master := openPort(t, serial.Config{})

	n, err := p.Write([]byte("pong"))
	require.NoError(t, err)
	require.Equal(t, 4, n)

	buf := make([]byte, 16)
	rn, err := master.Read(buf)
	require.NoError(t, err)
	require.Equal(t, "pong", string(buf[:rn]))
}

func TestReadTimeoutOverPty(t *testing.T) {
	p, master := openPort(t, serial.Config{ReadTimeout: 50 * time.Millisecond})

	master.Write([]byte("ab"))
	buf := make([]byte, 8)
	n, err := p.Read(buf)
	require.ErrorIs(t, err, serial.ErrTimeout)
	require.Equal(t, 2, n)
	require.Equal(t, []byte("ab"), buf[:2])
}

func TestCloseUnblocksReader(t *testing.T) {
	p, _ := openPort(t, serial.Config{})

	errs := make(chan error, 1)
	go func() {
		_, err := p.Read(make([]byte, 8))
		errs <- err
	}()

	time.Sleep(20 * time.Millisecond)
	require.NoError(t, p.Close())

	select {
	case err := <-errs:
		require.ErrorIs(t, err, serial.ErrCancelled)
	case <-time.After(time.Second):
		t.Fatal("close did not release the reader")
	}
}

func TestOpenUnknownDevice(t *testing.T) {
	_, err := Open("/dev/does-not-exist-ttyserial")
	require.Error(t, err)
}

func TestUnsupportedBaudRejected(t *testing.T) {
	master, slave, err := pty.Open()
	require.NoError(t, err)
	defer master.Close()
	defer slave.Close()

	dev, err := Open(slave.Name())
	require.NoError(t, err)
	defer dev.Close()

	// A table entry whose rate the tty layer cannot express surfaces as an
	// invalid configuration at open time.
	table := serial.BaudTable{{BaudRate: 31250, InputClockHz: 1000000}}
	p := serial.NewPort(serial.HWAttrs{
		Trx: dev, Intr: dev, InputClockHz: 1000000, BaudTable: table,
	})
	err = p.Open(serial.Config{BaudRate: 31250})
	require.ErrorIs(t, err, serial.ErrInvalidConfig)
}
