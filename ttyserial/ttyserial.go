//go:build linux

// Package ttyserial adapts a Linux terminal device to the driver core's
// transceiver contract. The kernel plays the role of the wire; a poll
// goroutine plays the role of the interrupt line, staging received bytes and
// re-raising the registered handler while an enabled event condition holds.
// A self-pipe makes the poll loop killable from Close.
package ttyserial

import (
	"fmt"
	"sync"

	"golang.org/x/sys/unix"

	"github.com/energia/cc3200emt-core/serial"
)

// Device is a serial.Transceiver, serial.IntrRegistry and
// serial.BaudProgrammer backed by one tty file descriptor.
type Device struct {
	fd   int
	path string

	mu      sync.Mutex
	rx      []byte // staged bytes between poll wake-ups and the driver's ISR
	events  serial.Event
	handler func()

	pipeR, pipeW int
	done         chan struct{}
	exited       chan struct{}
	closeOnce    sync.Once
}

// Open opens the tty at path in raw, non-blocking mode and starts the poll
// loop. Baud programming happens later, when the driver resolves its lookup
// table and calls SetBaud.
func Open(path string) (*Device, error) {
	fd, err := unix.Open(path, unix.O_RDWR|unix.O_NOCTTY|unix.O_NONBLOCK, 0666)
	if err != nil {
		return nil, fmt.Errorf("ttyserial: open %s: %w", path, err)
	}

	termios, err := unix.IoctlGetTermios(fd, unix.TCGETS)
	if err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("ttyserial: get termios: %w", err)
	}

	// Raw mode: no line discipline, no translation, no echo.
	termios.Iflag &^= unix.IGNBRK | unix.BRKINT | unix.PARMRK | unix.ISTRIP |
		unix.INLCR | unix.IGNCR | unix.ICRNL | unix.IXON
	termios.Oflag &^= unix.OPOST
	termios.Lflag &^= unix.ECHO | unix.ECHONL | unix.ICANON | unix.ISIG | unix.IEXTEN
	termios.Cflag &^= unix.CSIZE | unix.PARENB
	termios.Cflag |= unix.CS8
	termios.Cc[unix.VMIN] = 1
	termios.Cc[unix.VTIME] = 0

	if err := unix.IoctlSetTermios(fd, unix.TCSETS, termios); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("ttyserial: set termios: %w", err)
	}

	pipeFds := make([]int, 2)
	if err := unix.Pipe(pipeFds); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("ttyserial: pipe: %w", err)
	}

	d := &Device{
		fd:     fd,
		path:   path,
		pipeR:  pipeFds[0],
		pipeW:  pipeFds[1],
		done:   make(chan struct{}),
		exited: make(chan struct{}),
	}
	go d.loop()
	return d, nil
}

// Close stops the poll loop and releases the descriptors. Safe to call more
// than once.
func (d *Device) Close() error {
	d.closeOnce.Do(func() {
		close(d.done)
		unix.Write(d.pipeW, []byte{1}) // wake the poll loop
		<-d.exited
		unix.Close(d.fd)
		unix.Close(d.pipeR)
		unix.Close(d.pipeW)
	})
	return nil
}

// loop is the interrupt line: it sleeps in poll until the tty has data or
// the self-pipe wakes it, stages whatever arrived, and services the handler.
func (d *Device) loop() {
	defer close(d.exited)
	buf := make([]byte, 512)
	for {
		pfd := []unix.PollFd{
			{Fd: int32(d.fd), Events: unix.POLLIN},
			{Fd: int32(d.pipeR), Events: unix.POLLIN},
		}
		if _, err := unix.Poll(pfd, -1); err != nil {
			if err == unix.EINTR {
				continue
			}
			return
		}
		if pfd[1].Revents&unix.POLLIN != 0 {
			var b [16]byte
			unix.Read(d.pipeR, b[:])
		}
		select {
		case <-d.done:
			return
		default:
		}
		if pfd[0].Revents&(unix.POLLIN|unix.POLLHUP) != 0 {
			n, err := unix.Read(d.fd, buf)
			if n > 0 {
				d.mu.Lock()
				d.rx = append(d.rx, buf[:n]...)
				d.mu.Unlock()
			}
			if err != nil && err != unix.EAGAIN && err != unix.EINTR {
				return
			}
		}
		d.service()
	}
}

// service re-invokes the handler while an enabled event condition holds,
// mirroring a level-triggered interrupt.
func (d *Device) service() {
	for {
		d.mu.Lock()
		h := d.handler
		fire := h != nil &&
			((d.events&serial.EventRxReady != 0 && len(d.rx) > 0) ||
				d.events&serial.EventTxReady != 0)
		d.mu.Unlock()
		if !fire {
			return
		}
		h()
	}
}

// wake nudges the poll loop so newly enabled events get serviced promptly.
func (d *Device) wake() {
	unix.Write(d.pipeW, []byte{0})
}

// ---------------- serial.Transceiver ----------------

func (d *Device) HasRxData() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.rx) > 0
}

func (d *Device) RxByte() byte {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.rx) == 0 {
		return 0
	}
	b := d.rx[0]
	d.rx = d.rx[1:]
	return b
}

// CanTx is always true: the kernel buffers outgoing tty data.
func (d *Device) CanTx() bool { return true }

func (d *Device) TxByte(b byte) {
	unix.Write(d.fd, []byte{b})
}

func (d *Device) EnableEvents(ev serial.Event) {
	d.mu.Lock()
	d.events |= ev
	d.mu.Unlock()
	d.wake()
}

func (d *Device) DisableEvents(ev serial.Event) {
	d.mu.Lock()
	d.events &^= ev
	d.mu.Unlock()
}

// ---------------- serial.IntrRegistry ----------------

func (d *Device) Register(vector int, priority uint8, fn func()) {
	d.mu.Lock()
	d.handler = fn
	d.mu.Unlock()
	d.wake()
}

func (d *Device) Unregister(vector int) {
	d.mu.Lock()
	d.handler = nil
	d.mu.Unlock()
}

// ---------------- serial.BaudProgrammer ----------------

// SetBaud programs the line rate. The divider fields of the entry belong to
// the peripheral this table was built for; only the rate matters to a tty.
func (d *Device) SetBaud(cfg serial.BaudConfig) error {
	speed, err := baudToUnix(cfg.BaudRate)
	if err != nil {
		return err
	}
	termios, err := unix.IoctlGetTermios(d.fd, unix.TCGETS)
	if err != nil {
		return fmt.Errorf("ttyserial: get termios: %w", err)
	}
	termios.Cflag &^= unix.CBAUD
	termios.Cflag |= speed
	if err := unix.IoctlSetTermios(d.fd, unix.TCSETS, termios); err != nil {
		return fmt.Errorf("ttyserial: set termios: %w", err)
	}
	return nil
}

func baudToUnix(baud uint32) (uint32, error) {
	switch baud {
	case 9600:
		return unix.B9600, nil
	case 19200:
		return unix.B19200, nil
	case 38400:
		return unix.B38400, nil
	case 57600:
		return unix.B57600, nil
	case 115200:
		return unix.B115200, nil
	case 230400:
		return unix.B230400, nil
	default:
		return 0, fmt.Errorf("ttyserial: unsupported baud rate %d", baud)
	}
}
