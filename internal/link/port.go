package link

import (
	"fmt"
	"io"
	"sort"
	"time"

	"go.bug.st/serial"
)

// Port is the minimal interface the writer needs from a serial device.
// This abstraction enables unit testing without real serial hardware.
type Port interface {
	io.Writer
	io.Closer
}

// Opener opens a serial port at path. Tests replace it to avoid hardware.
type Opener func(path string, mode *serial.Mode) (Port, error)

// SerialOpener opens a real device through go.bug.st/serial.
func SerialOpener(path string, mode *serial.Mode) (Port, error) {
	return serial.Open(path, mode)
}

// sleep is replaced in tests to skip the settle delay.
var sleep = time.Sleep

// Open opens the port at path with opts and waits for the board to settle.
func Open(path string, opts PortOptions, open Opener) (Port, error) {
	if path == "" {
		return nil, fmt.Errorf("serial port not configured")
	}

	opts, err := opts.Normalize()
	if err != nil {
		return nil, err
	}

	mode, err := opts.SerialMode()
	if err != nil {
		return nil, err
	}

	if open == nil {
		open = SerialOpener
	}

	port, err := open(path, mode)
	if err != nil {
		return nil, fmt.Errorf("open serial port %s: %w", path, err)
	}

	if opts.SettleDelay > 0 {
		sleep(opts.SettleDelay)
	}

	return port, nil
}

// ListPorts returns the serial devices present on the system, sorted.
func ListPorts() ([]string, error) {
	ports, err := serial.GetPortsList()
	if err != nil {
		return nil, fmt.Errorf("list serial ports: %w", err)
	}
	sort.Strings(ports)
	return ports, nil
}

// NopCloser wraps a writer such as os.Stdout so it can stand in for a port
// during dry runs without being closed.
func NopCloser(w io.Writer) Port {
	return nopCloser{w}
}

type nopCloser struct {
	io.Writer
}

func (nopCloser) Close() error { return nil }
