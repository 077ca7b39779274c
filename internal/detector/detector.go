package detector

import (
	"errors"
	"fmt"

	"gocv.io/x/gocv"
)

// Backend names accepted by New.
const (
	BackendAuto      = "auto"
	BackendMediaPipe = "mediapipe"
	BackendONNX      = "onnx"
)

// ErrModelNotConfigured is returned when the ONNX backend has no model path.
var ErrModelNotConfigured = errors.New("onnx model path not configured")

// Detector defines the interface for hand detection implementations.
type Detector interface {
	// Detect analyzes a BGR video frame and returns detected hand landmarks.
	// Returns an empty slice if no hands are detected.
	Detect(frame *gocv.Mat) ([]HandLandmarks, error)

	// Close releases any resources held by the detector.
	Close() error
}

// Config holds configuration options for hand detection.
type Config struct {
	// Backend selects the implementation: "auto", "mediapipe" or "onnx".
	Backend string

	// MaxHands is the maximum number of hands to detect.
	MaxHands int

	// MinConfidence is the minimum detection confidence threshold (0.0-1.0).
	MinConfidence float64

	// MinTrackingConf is the minimum tracking confidence threshold (0.0-1.0).
	MinTrackingConf float64

	// Python and Script locate the MediaPipe helper. Empty means search.
	Python string
	Script string

	// Model configures the ONNX backend.
	Model ModelConfig
}

// DefaultConfig returns the thresholds used for serial streaming.
func DefaultConfig() Config {
	return Config{
		Backend:         BackendAuto,
		MaxHands:        1,
		MinConfidence:   0.7,
		MinTrackingConf: 0.5,
		Model:           DefaultModelConfig(),
	}
}

// New builds the detector selected by cfg.Backend. With "auto" the ONNX
// backend is used when a model path is set, MediaPipe otherwise.
func New(cfg Config) (Detector, error) {
	backend := cfg.Backend
	if backend == "" || backend == BackendAuto {
		backend = BackendMediaPipe
		if cfg.Model.Path != "" {
			backend = BackendONNX
		}
	}

	switch backend {
	case BackendMediaPipe:
		return NewMediaPipeDetector(cfg)
	case BackendONNX:
		return NewONNXDetector(cfg)
	default:
		return nil, fmt.Errorf("unknown detector backend %q", cfg.Backend)
	}
}
