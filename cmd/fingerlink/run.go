package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/ayusman/fingerlink/internal/app"
	"github.com/ayusman/fingerlink/internal/capture"
	"github.com/ayusman/fingerlink/internal/config"
	"github.com/ayusman/fingerlink/internal/detector"
	"github.com/ayusman/fingerlink/internal/display"
	"github.com/ayusman/fingerlink/internal/fingers"
	"github.com/ayusman/fingerlink/internal/link"
	"github.com/ayusman/fingerlink/internal/server"
	"github.com/ayusman/fingerlink/internal/store"
	"github.com/ayusman/fingerlink/internal/tray"
	"github.com/spf13/cobra"
)

const serverShutdownTimeout = 2 * time.Second

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Detect finger states and stream them to the serial port",
	Long: `Open the camera and the serial port, then write one line per detected
hand per frame until ESC is pressed in the preview window, the camera stops
delivering frames, or the process is interrupted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSession(cmd, app.ModeRun)
	},
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Show the landmark overlay and log thumb tip depth without transmitting",
	Long: `Open the camera and draw the hand skeleton without touching the serial
port. The thumb tip z coordinate is logged for every detected hand. Press q
to quit.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSession(cmd, app.ModeWatch)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(watchCmd)

	for _, c := range []*cobra.Command{runCmd, watchCmd} {
		c.Flags().Int("camera", 0, "Camera device index")
		c.Flags().Bool("no-window", false, "Run without the preview window")
		c.Flags().String("listen", "", "Serve state and video over HTTP on this address (e.g. :8080)")
		c.Flags().Bool("no-history", false, "Do not record the session in the history database")
		c.Flags().String("detector", "", "Detector backend: auto, mediapipe or onnx")
		c.Flags().String("model", "", "Path to an ONNX hand landmark model")
		c.Flags().Float64("min-detection-confidence", 0, "Minimum hand detection confidence")
	}

	runCmd.Flags().String("port", "", "Serial port (e.g. COM12, /dev/ttyUSB0)")
	runCmd.Flags().Int("baud", 0, "Baud rate")
	runCmd.Flags().Bool("dry-run", false, "Write states to stdout instead of the serial port")
	runCmd.Flags().Bool("tray", false, "Show a system tray menu (requires --no-window)")
}

// applyFlags overrides cfg with the flags the user set.
func applyFlags(cmd *cobra.Command, cfg *config.Config) {
	if changed(cmd, "camera") {
		cfg.Camera.DeviceID = mustGetInt(cmd, "camera")
	}
	if mustGetBool(cmd, "no-window") {
		cfg.Display.Enabled = false
	}
	if changed(cmd, "listen") {
		cfg.Server.Listen = mustGetString(cmd, "listen")
	}
	if mustGetBool(cmd, "no-history") {
		cfg.History.Enabled = false
	}
	if changed(cmd, "detector") {
		cfg.Detector.Backend = mustGetString(cmd, "detector")
	}
	if changed(cmd, "model") {
		cfg.Detector.Model.Path = mustGetString(cmd, "model")
	}
	if changed(cmd, "min-detection-confidence") {
		cfg.Detector.MinDetectionConfidence = mustGetFloat64(cmd, "min-detection-confidence")
	}
	if changed(cmd, "port") {
		cfg.Serial.Port = mustGetString(cmd, "port")
	}
	if changed(cmd, "baud") {
		cfg.Serial.BaudRate = mustGetInt(cmd, "baud")
	}
}

func runSession(cmd *cobra.Command, mode app.Mode) error {
	applyFlags(cmd, cfg)

	dryRun := mode == app.ModeRun && mustGetBool(cmd, "dry-run")
	useTray := mode == app.ModeRun && mustGetBool(cmd, "tray")

	if useTray && cfg.Display.Enabled {
		return errors.New("--tray requires --no-window")
	}

	if err := cfg.Validate(); err != nil {
		return err
	}

	det, err := detector.New(cfg.DetectorConfig())
	if err != nil {
		return fmt.Errorf("create detector: %w", err)
	}

	var writer *link.Writer
	portName := ""
	if mode == app.ModeRun && !dryRun {
		port, err := link.Open(cfg.Serial.Port, cfg.Serial.PortOptions, link.SerialOpener)
		if err != nil {
			det.Close()
			return err
		}
		writer = link.NewWriter(port)
		portName = cfg.Serial.Port
		log.Printf("Opened serial port %s (%s)", cfg.Serial.Port, cfg.Serial.PortOptions)
	} else if mode == app.ModeRun {
		writer = link.NewWriter(link.NopCloser(os.Stdout))
		log.Println("Dry run: writing finger states to stdout")
	}

	st := openHistory(cfg)
	if st != nil {
		defer st.Close()
	}

	var hub *server.Hub
	if cfg.Server.Listen != "" {
		hub = server.NewHub()
		srv := server.New(server.Config{Hub: hub, Store: st})
		go func() {
			log.Printf("Starting server on %s", cfg.Server.Listen)
			if err := srv.ListenAndServe(cfg.Server.Listen); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Printf("Server failed: %v", err)
			}
		}()
		defer shutdownServer(srv)
	}

	window := display.NewHeadless()
	if cfg.Display.Enabled {
		window = display.NewWindow(cfg.Display.Title)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	appCfg := app.Config{
		Mode:     mode,
		ExitKey:  cfg.Display.ExitKey,
		Camera:   capture.NewCamera(cfg.Camera),
		Detector: det,
		Window:   window,
		Writer:   writer,
		Store:    st,
		Hub:      hub,
		Port:     portName,
		CameraID: cfg.Camera.DeviceID,
	}

	if !useTray {
		return app.New(appCfg).Run(ctx)
	}

	return runWithTray(ctx, stop, appCfg)
}

// runWithTray runs the loop in a goroutine while the tray owns the main
// thread. Quitting from the tray cancels the loop; the loop ending closes
// the tray.
func runWithTray(ctx context.Context, cancel context.CancelFunc, appCfg app.Config) error {
	tr := tray.New()
	appCfg.OnTransmit = func(s fingers.State) { tr.SetLastState(s.String()) }

	a := app.New(appCfg)
	tr.OnToggle(a.SetTransmitEnabled)
	tr.OnQuit(cancel)

	errCh := make(chan error, 1)
	go func() {
		errCh <- a.Run(ctx)
		tr.Quit()
	}()

	tr.Run()
	cancel()
	return <-errCh
}

// shutdownServer stops the HTTP server, giving open requests a moment to
// finish before their connections are dropped.
func shutdownServer(srv *server.Server) {
	ctx, cancel := context.WithTimeout(context.Background(), serverShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Server shutdown: %v", err)
		srv.Close()
	}
}

// openHistory opens the session database, or returns nil when history is
// off or cannot be opened.
func openHistory(cfg *config.Config) *store.Store {
	if !cfg.History.Enabled {
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(cfg.History.Path), 0o755); err != nil {
		log.Printf("History disabled: %v", err)
		return nil
	}

	st, err := store.New(cfg.History.Path)
	if err != nil {
		log.Printf("History disabled: %v", err)
		return nil
	}
	log.Printf("Recording history to %s", st.Path())
	return st
}
