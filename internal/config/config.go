// Package config loads fingerlink settings from defaults, an optional YAML
// file and the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/ayusman/fingerlink/internal/capture"
	"github.com/ayusman/fingerlink/internal/detector"
	"github.com/ayusman/fingerlink/internal/display"
	"github.com/ayusman/fingerlink/internal/link"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds every setting of a run.
type Config struct {
	Camera   capture.Config `yaml:"camera"`
	Detector DetectorConfig `yaml:"detector"`
	Serial   SerialConfig   `yaml:"serial"`
	Display  DisplayConfig  `yaml:"display"`
	Server   ServerConfig   `yaml:"server"`
	History  HistoryConfig  `yaml:"history"`
}

// DetectorConfig mirrors detector.Config with YAML names.
type DetectorConfig struct {
	Backend                string               `yaml:"backend"`
	MaxHands               int                  `yaml:"max_hands"`
	MinDetectionConfidence float64              `yaml:"min_detection_confidence"`
	MinTrackingConfidence  float64              `yaml:"min_tracking_confidence"`
	Python                 string               `yaml:"python"`
	Script                 string               `yaml:"script"`
	Model                  detector.ModelConfig `yaml:"model"`
}

// SerialConfig selects the device and line settings.
type SerialConfig struct {
	Port             string `yaml:"port"`
	link.PortOptions `yaml:",inline"`
}

// DisplayConfig controls the preview window.
type DisplayConfig struct {
	Enabled bool   `yaml:"enabled"`
	Title   string `yaml:"title"`
	ExitKey int    `yaml:"exit_key"`
}

// ServerConfig enables the HTTP status surface when Listen is set.
type ServerConfig struct {
	Listen string `yaml:"listen"`
}

// HistoryConfig controls the SQLite session history.
type HistoryConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// Default returns the settings of the streaming script: camera 0, COM12 at
// 115200 baud, one hand at 0.7 detection confidence, ESC to quit.
func Default() *Config {
	return &Config{
		Camera: capture.DefaultConfig(),
		Detector: DetectorConfig{
			Backend:                detector.BackendAuto,
			MaxHands:               1,
			MinDetectionConfidence: 0.7,
			MinTrackingConfidence:  0.5,
			Model:                  detector.DefaultModelConfig(),
		},
		Serial: SerialConfig{
			Port:        "COM12",
			PortOptions: link.DefaultPortOptions(),
		},
		Display: DisplayConfig{
			Enabled: true,
			Title:   "Finger Detection",
			ExitKey: display.KeyEsc,
		},
		History: HistoryConfig{
			Enabled: true,
			Path:    DefaultHistoryPath(),
		},
	}
}

// DefaultWatch returns the settings of the practice script: Default with
// 0.5 detection confidence, 'q' to quit and its own window title.
func DefaultWatch() *Config {
	cfg := Default()
	cfg.Detector.MinDetectionConfidence = 0.5
	cfg.Display.Title = "Hand Landmarks"
	cfg.Display.ExitKey = display.KeyQ
	return cfg
}

// DefaultHistoryPath returns ~/.fingerlink/fingerlink.db, or a relative
// path when the home directory is unknown.
func DefaultHistoryPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "fingerlink.db"
	}
	return filepath.Join(homeDir, ".fingerlink", "fingerlink.db")
}

// Load builds the configuration: defaults, then the YAML file at path (if
// path is non-empty), then environment variables. A .env file in the working
// directory is loaded first when present.
func Load(path string) (*Config, error) {
	return LoadOver(Default(), path)
}

// LoadOver is Load starting from base instead of Default.
func LoadOver(base *Config, path string) (*Config, error) {
	// .env file is optional, don't fail if not found
	_ = godotenv.Load()

	cfg := base

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyEnv overrides fields from FINGERLINK_* variables.
func (c *Config) applyEnv() error {
	var errs []error

	envString("FINGERLINK_SERIAL_PORT", &c.Serial.Port)
	errs = append(errs, envInt("FINGERLINK_BAUD_RATE", &c.Serial.BaudRate))
	errs = append(errs, envDuration("FINGERLINK_SETTLE_DELAY", &c.Serial.SettleDelay))
	errs = append(errs, envInt("FINGERLINK_CAMERA", &c.Camera.DeviceID))
	envString("FINGERLINK_DETECTOR", &c.Detector.Backend)
	errs = append(errs, envFloat("FINGERLINK_MIN_DETECTION_CONFIDENCE", &c.Detector.MinDetectionConfidence))
	envString("FINGERLINK_PYTHON", &c.Detector.Python)
	envString("FINGERLINK_SCRIPT", &c.Detector.Script)
	envString("FINGERLINK_MODEL", &c.Detector.Model.Path)
	envString("FINGERLINK_ONNXRUNTIME_LIB", &c.Detector.Model.SharedLibrary)
	envString("FINGERLINK_LISTEN", &c.Server.Listen)
	envString("FINGERLINK_HISTORY", &c.History.Path)

	return errors.Join(errs...)
}

// DetectorConfig converts the detector section for detector.New.
func (c *Config) DetectorConfig() detector.Config {
	return detector.Config{
		Backend:         c.Detector.Backend,
		MaxHands:        c.Detector.MaxHands,
		MinConfidence:   c.Detector.MinDetectionConfidence,
		MinTrackingConf: c.Detector.MinTrackingConfidence,
		Python:          c.Detector.Python,
		Script:          c.Detector.Script,
		Model:           c.Detector.Model,
	}
}

// Validate checks ranges and cross-field rules.
func (c *Config) Validate() error {
	var errs []error

	if c.Camera.DeviceID < 0 {
		errs = append(errs, fmt.Errorf("camera device must be >= 0, got %d", c.Camera.DeviceID))
	}

	switch c.Detector.Backend {
	case detector.BackendAuto, detector.BackendMediaPipe, detector.BackendONNX:
	default:
		errs = append(errs, fmt.Errorf("unknown detector backend %q", c.Detector.Backend))
	}
	if c.Detector.MaxHands < 1 {
		errs = append(errs, fmt.Errorf("max_hands must be >= 1, got %d", c.Detector.MaxHands))
	}
	if !inUnitRange(c.Detector.MinDetectionConfidence) {
		errs = append(errs, fmt.Errorf("min_detection_confidence must be in [0,1], got %v", c.Detector.MinDetectionConfidence))
	}
	if !inUnitRange(c.Detector.MinTrackingConfidence) {
		errs = append(errs, fmt.Errorf("min_tracking_confidence must be in [0,1], got %v", c.Detector.MinTrackingConfidence))
	}

	if _, err := c.Serial.Normalize(); err != nil {
		errs = append(errs, fmt.Errorf("serial: %w", err))
	}

	if c.Display.ExitKey < 0 || c.Display.ExitKey > 255 {
		errs = append(errs, fmt.Errorf("exit_key must be a byte, got %d", c.Display.ExitKey))
	}

	if c.History.Enabled && c.History.Path == "" {
		errs = append(errs, errors.New("history enabled without a path"))
	}

	return errors.Join(errs...)
}

func inUnitRange(v float64) bool {
	return v >= 0 && v <= 1
}

func envString(key string, dst *string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func envInt(key string, dst *int) error {
	s := os.Getenv(key)
	if s == "" {
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = n
	return nil
}

func envFloat(key string, dst *float64) error {
	s := os.Getenv(key)
	if s == "" {
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = f
	return nil
}

func envDuration(key string, dst *time.Duration) error {
	s := os.Getenv(key)
	if s == "" {
		return nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = d
	return nil
}
