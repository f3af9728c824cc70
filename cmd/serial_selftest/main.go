// serial_selftest exercises the driver core end to end over the simulated
// transceiver: a wire-loopback goroutine feeds everything the driver
// transmits back into its receiver, and the test legs run the three transfer
// modes plus the timeout path against it.
package main

import (
	"bytes"
	"context"
	"crypto/sha1"
	"fmt"
	"log"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/energia/cc3200emt-core/serial"
)

func main() {
	fmt.Println("serial self-test starting")

	sim := serial.NewSimTransceiver()
	defer sim.Close()

	port := serial.NewPort(serial.HWAttrs{
		Trx:          sim,
		Intr:         sim,
		InputClockHz: 8192000,
		RingSize:     8192,
	})
	if err := port.Open(serial.Config{}); err != nil {
		log.Fatalf("open: %v", err)
	}
	defer port.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go wireLoopback(ctx, sim)

	for name, leg := range map[string]func(*serial.Port) error{
		"blocking":    runBlocking,
		"callback":    runCallback,
		"nonblocking": runNonBlocking,
		"timeout":     runTimeout,
	} {
		if err := leg(port); err != nil {
			log.Fatalf("%s leg: %v", name, err)
		}
		fmt.Printf("%s leg ok\n", name)
	}

	st := port.Stats()
	fmt.Printf("stats: isr=%d bytes=%d drops=%d posts=%d timeouts=%d callbacks=%d\n",
		st.ISRCount, st.ISRBytes, st.RingDrops, st.SemPosts, st.Timeouts, st.Callbacks)
	if st.RingDrops != 0 {
		log.Fatalf("ring dropped %d bytes", st.RingDrops)
	}
	fmt.Println("serial self-test passed")
}

// wireLoopback plays the far end of the line, echoing transmitted bytes back
// into the receiver.
func wireLoopback(ctx context.Context, sim *serial.SimTransceiver) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}
		if b := sim.TakeTx(); len(b) > 0 {
			sim.FeedRx(b)
			continue
		}
		time.Sleep(time.Millisecond)
	}
}

func pattern(n int) []byte {
	p := make([]byte, n)
	for i := range p {
		p[i] = byte(i*7 + 13)
	}
	return p
}

func runBlocking(p *serial.Port) error {
	payload := pattern(4096)
	got := make([]byte, len(payload))

	var g errgroup.Group
	g.Go(func() error {
		n, err := p.Read(got)
		if err != nil {
			return fmt.Errorf("read: %w", err)
		}
		if n != len(got) {
			return fmt.Errorf("read: short transfer %d of %d", n, len(got))
		}
		return nil
	})
	g.Go(func() error {
		n, err := p.Write(payload)
		if err != nil {
			return fmt.Errorf("write: %w", err)
		}
		if n != len(payload) {
			return fmt.Errorf("write: short transfer %d of %d", n, len(payload))
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return err
	}
	if sha1.Sum(got) != sha1.Sum(payload) {
		return fmt.Errorf("checksum mismatch")
	}
	return nil
}

func runCallback(p *serial.Port) error {
	payload := []byte("callback round trip")
	got := make([]byte, len(payload))
	done := make(chan error, 1)

	if err := p.SetReadMode(serial.Callback); err != nil {
		return err
	}
	if err := p.SetReadCallback(func(n int, err error) {
		if err != nil {
			done <- err
			return
		}
		if n != len(got) || !bytes.Equal(got, payload) {
			done <- fmt.Errorf("callback got %d bytes %q", n, got[:n])
			return
		}
		done <- nil
	}); err != nil {
		return err
	}
	defer func() {
		p.SetReadCallback(nil) //nolint:errcheck
		p.SetReadMode(serial.Blocking) //nolint:errcheck
	}()

	if _, err := p.Read(got); err != nil {
		return err
	}
	if _, err := p.Write(payload); err != nil {
		return err
	}
	select {
	case err := <-done:
		return err
	case <-time.After(2 * time.Second):
		return fmt.Errorf("callback never fired")
	}
}

func runNonBlocking(p *serial.Port) error {
	if err := p.SetReadMode(serial.NonBlocking); err != nil {
		return err
	}
	defer p.SetReadMode(serial.Blocking) //nolint:errcheck

	payload := []byte("poll me")
	if _, err := p.Write(payload); err != nil {
		return err
	}

	got := make([]byte, 0, len(payload))
	buf := make([]byte, 16)
	deadline := time.Now().Add(2 * time.Second)
	for len(got) < len(payload) {
		if time.Now().After(deadline) {
			return fmt.Errorf("only %d of %d bytes arrived", len(got), len(payload))
		}
		n, err := p.Read(buf)
		if err != nil {
			return err
		}
		got = append(got, buf[:n]...)
		if n == 0 {
			time.Sleep(time.Millisecond)
		}
	}
	if !bytes.Equal(got, payload) {
		return fmt.Errorf("data mismatch: %q", got)
	}
	return nil
}

func runTimeout(p *serial.Port) error {
	if err := p.SetReadTimeout(100 * time.Millisecond); err != nil {
		return err
	}
	defer p.SetReadTimeout(0) //nolint:errcheck

	// Nothing is written, so nothing comes back over the loopback.
	start := time.Now()
	n, err := p.Read(make([]byte, 8))
	if err != serial.ErrTimeout {
		return fmt.Errorf("got n=%d err=%v, want timeout", n, err)
	}
	if e := time.Since(start); e < 80*time.Millisecond {
		return fmt.Errorf("timed out too early: %v", e)
	}
	return nil
}
