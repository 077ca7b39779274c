// Package display shows annotated frames in a HighGUI window.
package display

import (
	"gocv.io/x/gocv"
)

// Common exit keys.
const (
	KeyEsc = 27
	KeyQ   = 'q'
)

// NoKey is returned by WaitKey when nothing was pressed.
const NoKey = -1

// Window shows frames and reports key presses.
type Window interface {
	// Show displays the frame.
	Show(frame *gocv.Mat)

	// WaitKey waits up to delayMs for a key and returns its low byte,
	// or NoKey.
	WaitKey(delayMs int) int

	Close() error
}

// gocvWindow is an OpenCV HighGUI window.
type gocvWindow struct {
	window *gocv.Window
}

// NewWindow opens a HighGUI window with the given title.
func NewWindow(title string) Window {
	return &gocvWindow{window: gocv.NewWindow(title)}
}

func (w *gocvWindow) Show(frame *gocv.Mat) {
	w.window.IMShow(*frame)
}

func (w *gocvWindow) WaitKey(delayMs int) int {
	key := w.window.WaitKey(delayMs)
	if key < 0 {
		return NoKey
	}
	return key & 0xFF
}

func (w *gocvWindow) Close() error {
	return w.window.Close()
}

// Headless is a Window that shows nothing and never reports a key.
type Headless struct{}

// NewHeadless returns a Window for runs without a display.
func NewHeadless() Window {
	return Headless{}
}

func (Headless) Show(*gocv.Mat)  {}
func (Headless) WaitKey(int) int { return NoKey }
func (Headless) Close() error    { return nil }
