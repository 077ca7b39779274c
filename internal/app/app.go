// Package app runs the capture, detect, classify and transmit loop.
package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"sync/atomic"

	"github.com/ayusman/fingerlink/internal/capture"
	"github.com/ayusman/fingerlink/internal/detector"
	"github.com/ayusman/fingerlink/internal/display"
	"github.com/ayusman/fingerlink/internal/fingers"
	"github.com/ayusman/fingerlink/internal/link"
	"github.com/ayusman/fingerlink/internal/server"
	"github.com/ayusman/fingerlink/internal/store"
)

// Mode selects what the loop does with each classified hand.
type Mode string

const (
	// ModeRun classifies and transmits finger states.
	ModeRun Mode = store.ModeRun
	// ModeWatch only visualizes and logs the thumb tip depth.
	ModeWatch Mode = store.ModeWatch
)

// Reasons recorded when a session ends.
const (
	EndExitKey    = "exit key"
	EndReadFailed = "read failed"
	EndCancelled  = "cancelled"
	EndError      = "error"
)

// Config wires the loop to its devices. Camera and Detector are required.
// A nil Window runs headless, a nil Writer never transmits, and nil Store
// or Hub disable history and the HTTP feed.
type Config struct {
	Mode     Mode
	ExitKey  int
	Camera   capture.Camera
	Detector detector.Detector
	Window   display.Window
	Writer   *link.Writer
	Store    *store.Store
	Hub      *server.Hub

	// Port and CameraID are recorded with the session.
	Port     string
	CameraID int

	// OnTransmit is called after each successful send.
	OnTransmit func(fingers.State)
}

// Stats are the counters of one run.
type Stats struct {
	Frames        int
	Detections    int
	Transmissions int
}

// App is the main application that orchestrates one capture session.
type App struct {
	config   Config
	transmit atomic.Bool
	history  *recorder

	mu    sync.Mutex
	stats Stats
}

// New creates an App. The exit key defaults to ESC in run mode and 'q' in
// watch mode.
func New(config Config) *App {
	if config.Mode == "" {
		config.Mode = ModeRun
	}
	if config.Window == nil {
		config.Window = display.NewHeadless()
	}
	if config.ExitKey == 0 {
		config.ExitKey = display.KeyEsc
		if config.Mode == ModeWatch {
			config.ExitKey = display.KeyQ
		}
	}

	a := &App{config: config}
	a.transmit.Store(true)
	return a
}

// SetTransmitEnabled pauses or resumes serial transmission. Frames are
// still captured, classified and published while paused.
func (a *App) SetTransmitEnabled(enabled bool) {
	a.transmit.Store(enabled)
	if enabled {
		log.Println("Transmission resumed")
	} else {
		log.Println("Transmission paused")
	}
}

// TransmitEnabled reports whether states are sent to the port.
func (a *App) TransmitEnabled() bool {
	return a.transmit.Load()
}

// Stats returns a copy of the run counters.
func (a *App) Stats() Stats {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.stats
}

// SessionID returns the history session of the current run, or "" when
// history is off.
func (a *App) SessionID() string {
	if a.history == nil {
		return ""
	}
	return a.history.sessionID
}

// Run opens the camera and processes frames until the exit key, a failed
// frame read or ctx cancellation, all of which return nil. A detector or
// transmission failure is returned. Every resource handed to the App is
// released before Run returns.
func (a *App) Run(ctx context.Context) (err error) {
	if a.config.Camera == nil || a.config.Detector == nil {
		return errors.New("app: camera and detector are required")
	}

	reason := EndError
	defer func() {
		a.shutdown(reason)
	}()

	if err := a.config.Camera.Open(); err != nil {
		return fmt.Errorf("open camera: %w", err)
	}

	if a.config.Store != nil {
		a.history, err = startRecorder(a.config.Store, &store.Session{
			Mode:     string(a.config.Mode),
			Port:     a.config.Port,
			CameraID: a.config.CameraID,
		})
		if err != nil {
			log.Printf("History disabled: %v", err)
			a.history = nil
		}
	}

	log.Printf("Capture started (mode %s)", a.config.Mode)

	for {
		select {
		case <-ctx.Done():
			reason = EndCancelled
			return nil
		default:
		}

		frame, err := a.config.Camera.ReadFrame()
		if err != nil {
			log.Printf("Failed to read frame: %v", err)
			reason = EndReadFailed
			return nil
		}

		err = a.processFrame(frame)
		frame.Close()
		if err != nil {
			return err
		}

		if key := a.config.Window.WaitKey(1); key == a.config.ExitKey {
			reason = EndExitKey
			return nil
		}
	}
}

// shutdown releases camera, window, detector and port, then finishes the
// history session. Errors are logged.
func (a *App) shutdown(reason string) {
	if err := a.config.Camera.Close(); err != nil {
		log.Printf("Error closing camera: %v", err)
	}
	if err := a.config.Window.Close(); err != nil {
		log.Printf("Error closing window: %v", err)
	}
	if err := a.config.Detector.Close(); err != nil {
		log.Printf("Error closing detector: %v", err)
	}
	if a.config.Writer != nil {
		if err := a.config.Writer.Close(); err != nil {
			log.Printf("Error closing serial port: %v", err)
		}
	}

	stats := a.Stats()
	if a.history != nil {
		if err := a.history.finish(stats, reason); err != nil {
			log.Printf("Error finishing session: %v", err)
		}
	}

	log.Printf("Capture stopped (%s): %d frames, %d detections, %d transmissions",
		reason, stats.Frames, stats.Detections, stats.Transmissions)
}
