//go:build linux

// serial_chat is a small line chat over a real (or pty) serial device:
// stdin lines go out of the port, incoming bytes are printed as they arrive.
package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/energia/cc3200emt-core/serial"
	"github.com/energia/cc3200emt-core/ttyserial"
)

func main() {
	device := flag.String("device", "/dev/ttyUSB0", "serial device path")
	baud := flag.Uint("baud", 115200, "line rate")
	flag.Parse()

	dev, err := ttyserial.Open(*device)
	if err != nil {
		log.Fatal(err)
	}
	defer dev.Close()

	// The tty backend only needs the rate; pair it with the reference clock
	// so the stock table resolves.
	table := serial.BaudTable{{BaudRate: uint32(*baud), InputClockHz: 8192000}}
	port := serial.NewPort(serial.HWAttrs{
		Trx:          dev,
		Intr:         dev,
		InputClockHz: 8192000,
		BaudTable:    table,
	})
	if err := port.Open(serial.Config{
		BaudRate:       uint32(*baud),
		ReadReturnMode: serial.ReturnNewline,
		WriteDataMode:  serial.DataText,
	}); err != nil {
		log.Fatal(err)
	}
	defer port.Close()

	go func() {
		buf := make([]byte, 256)
		for {
			n, err := port.Read(buf)
			if n > 0 {
				os.Stdout.Write(buf[:n])
			}
			if errors.Is(err, serial.ErrCancelled) || errors.Is(err, serial.ErrNotOpen) {
				return
			}
			if err != nil {
				log.Printf("read: %v", err)
			}
		}
	}()

	fmt.Printf("connected to %s at %d baud, ^D to quit\n", *device, *baud)
	in := bufio.NewScanner(os.Stdin)
	for in.Scan() {
		line := append(in.Bytes(), '\n')
		if _, err := port.Write(line); err != nil {
			log.Fatalf("write: %v", err)
		}
	}
}
