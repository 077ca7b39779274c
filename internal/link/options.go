// Package link writes finger states to a microcontroller over a serial port.
package link

import (
	"fmt"
	"strings"
	"time"

	"go.bug.st/serial"
)

// Defaults match a typical Arduino sketch reading with Serial.begin(115200).
const (
	DefaultBaudRate    = 115200
	DefaultSettleDelay = 2 * time.Second
)

var standardBaudRates = map[int]bool{
	110: true, 300: true, 600: true, 1200: true, 2400: true, 4800: true,
	9600: true, 14400: true, 19200: true, 28800: true, 38400: true,
	57600: true, 115200: true, 128000: true, 230400: true, 250000: true,
	256000: true, 460800: true, 500000: true, 921600: true, 1000000: true,
}

// PortOptions describes the serial connection parameters used when opening
// a port.
type PortOptions struct {
	BaudRate int    `yaml:"baud_rate" json:"baud_rate"`
	DataBits int    `yaml:"data_bits" json:"data_bits"`
	StopBits int    `yaml:"stop_bits" json:"stop_bits"`
	Parity   string `yaml:"parity" json:"parity"`

	// SettleDelay is how long to wait after opening before the first write.
	// Opening the port resets most Arduino boards; bytes sent while the
	// bootloader runs are lost. Negative disables the wait.
	SettleDelay time.Duration `yaml:"settle_delay" json:"settle_delay"`
}

// DefaultPortOptions returns 115200 8N1 with a two second settle delay.
func DefaultPortOptions() PortOptions {
	return PortOptions{
		BaudRate:    DefaultBaudRate,
		DataBits:    8,
		StopBits:    1,
		Parity:      "N",
		SettleDelay: DefaultSettleDelay,
	}
}

// Normalize validates the options and applies defaults for any unset values.
func (o PortOptions) Normalize() (PortOptions, error) {
	opts := o

	if opts.BaudRate <= 0 {
		opts.BaudRate = DefaultBaudRate
	}
	if !standardBaudRates[opts.BaudRate] {
		return opts, fmt.Errorf("invalid baud rate %d", opts.BaudRate)
	}

	if opts.DataBits == 0 {
		opts.DataBits = 8
	}
	if opts.DataBits < 5 || opts.DataBits > 8 {
		return opts, fmt.Errorf("invalid data bits %d: must be between 5 and 8", opts.DataBits)
	}

	if opts.StopBits == 0 {
		opts.StopBits = 1
	}
	if opts.StopBits != 1 && opts.StopBits != 2 {
		return opts, fmt.Errorf("invalid stop bits %d: supported values are 1 or 2", opts.StopBits)
	}

	parity := strings.TrimSpace(strings.ToUpper(opts.Parity))
	switch parity {
	case "", "N", "NONE":
		parity = "N"
	case "E", "EVEN":
		parity = "E"
	case "O", "ODD":
		parity = "O"
	default:
		return opts, fmt.Errorf("unsupported parity %q: expected N, E, or O", opts.Parity)
	}
	opts.Parity = parity

	if opts.SettleDelay == 0 {
		opts.SettleDelay = DefaultSettleDelay
	}

	return opts, nil
}

// SerialMode converts the port options into the serial.Mode structure
// required by go.bug.st/serial when opening a port.
func (o PortOptions) SerialMode() (*serial.Mode, error) {
	opts, err := o.Normalize()
	if err != nil {
		return nil, err
	}

	mode := &serial.Mode{
		BaudRate: opts.BaudRate,
		DataBits: opts.DataBits,
		StopBits: serial.OneStopBit,
	}
	if opts.StopBits == 2 {
		mode.StopBits = serial.TwoStopBits
	}

	switch opts.Parity {
	case "N":
		mode.Parity = serial.NoParity
	case "E":
		mode.Parity = serial.EvenParity
	case "O":
		mode.Parity = serial.OddParity
	}

	return mode, nil
}

// String renders the options as the usual "115200 8N1" shorthand.
func (o PortOptions) String() string {
	opts, err := o.Normalize()
	if err != nil {
		return fmt.Sprintf("invalid(%v)", err)
	}
	return fmt.Sprintf("%d %d%s%d", opts.BaudRate, opts.DataBits, opts.Parity, opts.StopBits)
}
