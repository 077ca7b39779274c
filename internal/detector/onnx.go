package detector

import (
	"fmt"
	"image"
	"sync"

	"github.com/nfnt/resize"
	ort "github.com/yalue/onnxruntime_go"
	"gocv.io/x/gocv"
)

// ModelConfig describes a single-hand landmark model in ONNX format,
// such as the MediaPipe hand_landmark export. The model takes an NHWC RGB
// image with values in [0,1] and produces 63 landmark values in input
// pixels, a hand presence score and a handedness score.
type ModelConfig struct {
	Path           string `yaml:"path"`
	SharedLibrary  string `yaml:"shared_library"`
	InputSize      int    `yaml:"input_size"`
	InputName      string `yaml:"input_name"`
	LandmarksName  string `yaml:"landmarks_name"`
	PresenceName   string `yaml:"presence_name"`
	HandednessName string `yaml:"handedness_name"`
}

// DefaultModelConfig returns tensor names of the common hand_landmark export.
func DefaultModelConfig() ModelConfig {
	return ModelConfig{
		InputSize:      224,
		InputName:      "input_1",
		LandmarksName:  "Identity",
		PresenceName:   "Identity_1",
		HandednessName: "Identity_2",
	}
}

// ONNXDetector implements Detector with an in-process onnxruntime session.
// It reports at most one hand per frame.
type ONNXDetector struct {
	config     Config
	session    *ort.AdvancedSession
	input      *ort.Tensor[float32]
	landmarks  *ort.Tensor[float32]
	presence   *ort.Tensor[float32]
	handedness *ort.Tensor[float32]
	mu         sync.Mutex
}

// NewONNXDetector loads the model and allocates its tensors.
func NewONNXDetector(config Config) (*ONNXDetector, error) {
	m := config.Model
	if m.Path == "" {
		return nil, ErrModelNotConfigured
	}
	if m.InputSize <= 0 {
		m.InputSize = DefaultModelConfig().InputSize
	}
	config.Model = m

	if m.SharedLibrary != "" {
		ort.SetSharedLibraryPath(m.SharedLibrary)
	}
	if !ort.IsInitialized() {
		if err := ort.InitializeEnvironment(); err != nil {
			return nil, fmt.Errorf("failed to initialize ONNX environment: %w", err)
		}
	}

	d := &ONNXDetector{config: config}

	var err error
	size := int64(m.InputSize)
	if d.input, err = ort.NewEmptyTensor[float32](ort.NewShape(1, size, size, 3)); err != nil {
		return nil, fmt.Errorf("failed to create input tensor: %w", err)
	}
	if d.landmarks, err = ort.NewEmptyTensor[float32](ort.NewShape(1, NumLandmarks*3)); err != nil {
		d.Close()
		return nil, fmt.Errorf("failed to create landmarks tensor: %w", err)
	}
	if d.presence, err = ort.NewEmptyTensor[float32](ort.NewShape(1, 1)); err != nil {
		d.Close()
		return nil, fmt.Errorf("failed to create presence tensor: %w", err)
	}
	if d.handedness, err = ort.NewEmptyTensor[float32](ort.NewShape(1, 1)); err != nil {
		d.Close()
		return nil, fmt.Errorf("failed to create handedness tensor: %w", err)
	}

	d.session, err = ort.NewAdvancedSession(m.Path,
		[]string{m.InputName},
		[]string{m.LandmarksName, m.PresenceName, m.HandednessName},
		[]ort.ArbitraryTensor{d.input},
		[]ort.ArbitraryTensor{d.landmarks, d.presence, d.handedness},
		nil)
	if err != nil {
		d.Close()
		return nil, fmt.Errorf("failed to create ONNX session: %w", err)
	}

	return d, nil
}

// Detect runs the landmark model on the whole frame.
func (d *ONNXDetector) Detect(frame *gocv.Mat) ([]HandLandmarks, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if frame == nil || frame.Empty() {
		return nil, nil
	}

	img, err := frame.ToImage()
	if err != nil {
		return nil, fmt.Errorf("convert frame: %w", err)
	}

	fillInputTensor(d.input.GetData(), img, d.config.Model.InputSize)

	if err := d.session.Run(); err != nil {
		return nil, fmt.Errorf("inference failed: %w", err)
	}

	return decodeLandmarks(
		d.landmarks.GetData(),
		d.presence.GetData()[0],
		d.handedness.GetData()[0],
		d.config.Model.InputSize,
		d.config.MinConfidence,
	), nil
}

// Close releases the session and tensors.
func (d *ONNXDetector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.session != nil {
		d.session.Destroy()
		d.session = nil
	}
	for _, t := range []*ort.Tensor[float32]{d.input, d.landmarks, d.presence, d.handedness} {
		if t != nil {
			t.Destroy()
		}
	}
	d.input, d.landmarks, d.presence, d.handedness = nil, nil, nil, nil

	return nil
}

// fillInputTensor resizes img to size x size and writes it to dst as
// NHWC RGB values in [0,1]. The frame's BGR order is already undone by
// gocv when it converts a Mat to an image.
func fillInputTensor(dst []float32, img image.Image, size int) {
	resized := resize.Resize(uint(size), uint(size), img, resize.Bilinear)
	bounds := resized.Bounds()

	i := 0
	for y := bounds.Min.Y; y < bounds.Min.Y+size; y++ {
		for x := bounds.Min.X; x < bounds.Min.X+size; x++ {
			r, g, b, _ := resized.At(x, y).RGBA()
			dst[i] = float32(r) / 65535.0
			dst[i+1] = float32(g) / 65535.0
			dst[i+2] = float32(b) / 65535.0
			i += 3
		}
	}
}

// decodeLandmarks converts raw model outputs into at most one hand.
// Coordinates are divided by the input size so they are normalized like
// the MediaPipe service output.
func decodeLandmarks(raw []float32, presence, handedness float32, inputSize int, minConfidence float64) []HandLandmarks {
	if float64(presence) < minConfidence || len(raw) < NumLandmarks*3 || inputSize <= 0 {
		return nil
	}

	hand := HandLandmarks{
		Handedness: Left,
		Score:      float64(presence),
	}
	if handedness > 0.5 {
		hand.Handedness = Right
	}

	scale := float64(inputSize)
	for i := 0; i < NumLandmarks; i++ {
		hand.Points[i] = Point3D{
			X: float64(raw[i*3]) / scale,
			Y: float64(raw[i*3+1]) / scale,
			Z: float64(raw[i*3+2]) / scale,
		}
	}

	return []HandLandmarks{hand}
}
