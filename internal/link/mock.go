package link

import (
	"bytes"
	"errors"
	"sync"

	"go.bug.st/serial"
)

// TestablePort implements Port with configurable behaviour for testing.
type TestablePort struct {
	mu sync.Mutex

	// WriteBuffer captures data written to the port.
	WriteBuffer *bytes.Buffer

	// WriteError is returned by every Write call while set.
	WriteError error

	// ShortWrite makes Write accept one byte less than requested.
	ShortWrite bool

	// CloseError is returned by Close if set.
	CloseError error

	// Closed indicates whether Close was called.
	Closed bool

	// WriteCalls records the number of Write calls.
	WriteCalls int
}

// NewTestablePort creates a new TestablePort for testing.
func NewTestablePort() *TestablePort {
	return &TestablePort{WriteBuffer: bytes.NewBuffer(nil)}
}

// Write appends p to the write buffer, optionally simulating errors.
func (t *TestablePort) Write(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.WriteCalls++

	if t.Closed {
		return 0, errors.New("serial port closed")
	}
	if t.WriteError != nil {
		return 0, t.WriteError
	}
	if t.ShortWrite && len(p) > 0 {
		return t.WriteBuffer.Write(p[:len(p)-1])
	}

	return t.WriteBuffer.Write(p)
}

// Close marks the port as closed.
func (t *TestablePort) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.Closed = true
	return t.CloseError
}

// Written returns all data written to the port.
func (t *TestablePort) Written() string {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.WriteBuffer.String()
}

// IsClosed reports whether Close was called.
func (t *TestablePort) IsClosed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.Closed
}

// MockOpenCall records details of an Open call.
type MockOpenCall struct {
	Path string
	Mode *serial.Mode
}

// MockOpener hands out a fixed port and records every open.
type MockOpener struct {
	mu sync.Mutex

	// Port is the port to return from Open.
	Port Port

	// Error is returned by Open if set.
	Error error

	// Calls records all Open calls.
	Calls []MockOpenCall
}

// NewMockOpener creates a MockOpener returning port.
func NewMockOpener(port Port) *MockOpener {
	return &MockOpener{Port: port}
}

// Open returns the configured port or error.
func (m *MockOpener) Open(path string, mode *serial.Mode) (Port, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Calls = append(m.Calls, MockOpenCall{Path: path, Mode: mode})

	if m.Error != nil {
		return nil, m.Error
	}
	return m.Port, nil
}
