package link

import (
	"errors"
	"fmt"
	"sync"

	"github.com/ayusman/fingerlink/internal/fingers"
)

// ErrShortWrite is returned when the port accepts fewer bytes than a line.
var ErrShortWrite = errors.New("short write to serial port")

// Writer sends finger states to a port, one newline-terminated line each.
// There is no acknowledgement and no retry: a failed write is returned to
// the caller.
type Writer struct {
	port Port
	mu   sync.Mutex
}

// NewWriter wraps an open port.
func NewWriter(port Port) *Writer {
	return &Writer{port: port}
}

// Send writes s as "ddddd\n" in a single Write call.
func (w *Writer) Send(s fingers.State) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	line := s.Line()
	n, err := w.port.Write(line)
	if err != nil {
		return fmt.Errorf("write %q: %w", s.String(), err)
	}
	if n != len(line) {
		return fmt.Errorf("write %q: %w (%d of %d bytes)", s.String(), ErrShortWrite, n, len(line))
	}
	return nil
}

// Close closes the underlying port.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.port.Close()
}
