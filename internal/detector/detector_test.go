package detector

import (
	"encoding/json"
	"errors"
	"image"
	"image/color"
	"math"
	"os"
	"path/filepath"
	"testing"
)

const epsilon = 1e-6

func TestParseHandedness(t *testing.T) {
	tests := []struct {
		label string
		want  Handedness
	}{
		{"Right", Right},
		{"right", Right},
		{" RIGHT ", Right},
		{"Left", Left},
		{"", Left},
		{"unknown", Left},
	}

	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			if got := ParseHandedness(tt.label); got != tt.want {
				t.Errorf("ParseHandedness(%q) = %v, want %v", tt.label, got, tt.want)
			}
		})
	}
}

func TestHandedness_JSON(t *testing.T) {
	hand := HandLandmarks{Handedness: Right, Score: 0.9}

	data, err := json.Marshal(hand)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	var decoded HandLandmarks
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if decoded.Handedness != Right {
		t.Errorf("handedness = %v, want Right", decoded.Handedness)
	}
}

func TestConnections_ValidIndices(t *testing.T) {
	if len(Connections) != 21 {
		t.Errorf("expected 21 connections, got %d", len(Connections))
	}
	for _, c := range Connections {
		if c[0] < 0 || c[0] >= NumLandmarks || c[1] < 0 || c[1] >= NumLandmarks {
			t.Errorf("connection %v out of range", c)
		}
	}
}

func TestMockDetector(t *testing.T) {
	t.Run("returns empty hands by default", func(t *testing.T) {
		mock := NewMockDetector()

		hands, err := mock.Detect(nil)

		if err != nil {
			t.Errorf("unexpected error: %v", err)
		}
		if hands != nil {
			t.Errorf("expected nil hands, got %v", hands)
		}
		if mock.Calls() != 1 {
			t.Errorf("Calls() = %d, want 1", mock.Calls())
		}
	})

	t.Run("returns configured hands", func(t *testing.T) {
		mock := NewMockDetector()
		mock.SetHands([]HandLandmarks{ThumbsUpLandmarks(), OpenPalmLandmarks()})

		hands, err := mock.Detect(nil)

		if err != nil {
			t.Errorf("unexpected error: %v", err)
		}
		if len(hands) != 2 {
			t.Errorf("expected 2 hands, got %d", len(hands))
		}
	})

	t.Run("returns configured error", func(t *testing.T) {
		mock := NewMockDetector()

		expectedErr := errors.New("detection failed")
		mock.SetError(expectedErr)

		hands, err := mock.Detect(nil)

		if err != expectedErr {
			t.Errorf("expected error %v, got %v", expectedErr, err)
		}
		if hands != nil {
			t.Errorf("expected nil hands when error is set, got %v", hands)
		}
	})

	t.Run("Close marks closed", func(t *testing.T) {
		mock := NewMockDetector()

		if err := mock.Close(); err != nil {
			t.Errorf("expected Close to return nil, got %v", err)
		}
		if !mock.Closed() {
			t.Error("Closed() should be true after Close")
		}
	})

	t.Run("implements Detector interface", func(t *testing.T) {
		var _ Detector = (*MockDetector)(nil)
	})
}

func TestMirror(t *testing.T) {
	right := OpenPalmLandmarks()
	left := Mirror(right)

	if left.Handedness != Left {
		t.Errorf("mirrored handedness = %v, want Left", left.Handedness)
	}
	if math.Abs(left.Points[ThumbTip].X-(1-right.Points[ThumbTip].X)) > epsilon {
		t.Errorf("thumb tip X not mirrored: %f", left.Points[ThumbTip].X)
	}
	if left.Points[IndexTip].Y != right.Points[IndexTip].Y {
		t.Error("mirroring must not change Y")
	}
	if Mirror(left).Handedness != Right {
		t.Error("mirroring twice should restore handedness")
	}
}

func TestParseServiceResponse(t *testing.T) {
	points := make([]Point3D, NumLandmarks)
	for i := range points {
		points[i] = Point3D{X: float64(i) / 100, Y: float64(i) / 50, Z: -float64(i) / 1000}
	}

	makeLine := func(hands ...jsonHand) []byte {
		data, err := json.Marshal(map[string]any{"hands": hands})
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		return data
	}

	t.Run("decodes hand", func(t *testing.T) {
		hands, err := parseServiceResponse(makeLine(jsonHand{Points: points, Handedness: "Right", Score: 0.8}), 1)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(hands) != 1 {
			t.Fatalf("expected 1 hand, got %d", len(hands))
		}
		if hands[0].Handedness != Right {
			t.Errorf("handedness = %v, want Right", hands[0].Handedness)
		}
		if hands[0].Points[PinkyTip] != points[PinkyTip] {
			t.Errorf("pinky tip = %v, want %v", hands[0].Points[PinkyTip], points[PinkyTip])
		}
	})

	t.Run("empty hands", func(t *testing.T) {
		hands, err := parseServiceResponse([]byte(`{"hands": []}`), 1)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(hands) != 0 {
			t.Errorf("expected no hands, got %d", len(hands))
		}
	})

	t.Run("drops incomplete hands", func(t *testing.T) {
		hands, err := parseServiceResponse(makeLine(jsonHand{Points: points[:5], Handedness: "Left"}), 2)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(hands) != 0 {
			t.Errorf("expected incomplete hand to be dropped, got %d", len(hands))
		}
	})

	t.Run("limits to max hands", func(t *testing.T) {
		line := makeLine(
			jsonHand{Points: points, Handedness: "Left"},
			jsonHand{Points: points, Handedness: "Right"},
		)
		hands, err := parseServiceResponse(line, 1)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(hands) != 1 || hands[0].Handedness != Left {
			t.Errorf("expected first (Left) hand only, got %v", hands)
		}
	})

	t.Run("service error", func(t *testing.T) {
		if _, err := parseServiceResponse([]byte(`{"error": "boom"}`), 1); err == nil {
			t.Error("expected error from service error field")
		}
	})

	t.Run("invalid json", func(t *testing.T) {
		if _, err := parseServiceResponse([]byte(`not json`), 1); err == nil {
			t.Error("expected parse error")
		}
	})
}

func TestNewMediaPipeDetector_ExplicitScript(t *testing.T) {
	script := filepath.Join(t.TempDir(), mediaPipeScript)
	if err := os.WriteFile(script, []byte("# test\n"), 0o644); err != nil {
		t.Fatalf("write script: %v", err)
	}

	cfg := DefaultConfig()
	cfg.Script = script
	cfg.Python = "/usr/bin/python3"

	d, err := NewMediaPipeDetector(cfg)
	if err != nil {
		t.Fatalf("NewMediaPipeDetector() error = %v", err)
	}

	args := d.serviceArgs()
	want := []string{script, "--max-hands", "1", "--min-detection-confidence", "0.7", "--min-tracking-confidence", "0.5"}
	if len(args) != len(want) {
		t.Fatalf("serviceArgs() = %v, want %v", args, want)
	}
	for i := range want {
		if args[i] != want[i] {
			t.Errorf("arg %d = %q, want %q", i, args[i], want[i])
		}
	}

	// Never started, so Close has nothing to wait for.
	if err := d.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}

func TestNewMediaPipeDetector_MissingScript(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Script = filepath.Join(t.TempDir(), "missing.py")

	if _, err := NewMediaPipeDetector(cfg); err == nil {
		t.Error("expected error for missing script")
	}
}

func TestNew_Backends(t *testing.T) {
	t.Run("onnx without model", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Backend = BackendONNX

		if _, err := New(cfg); !errors.Is(err, ErrModelNotConfigured) {
			t.Errorf("expected ErrModelNotConfigured, got %v", err)
		}
	})

	t.Run("unknown backend", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Backend = "tflite"

		if _, err := New(cfg); err == nil {
			t.Error("expected error for unknown backend")
		}
	})

	t.Run("auto picks mediapipe without model", func(t *testing.T) {
		script := filepath.Join(t.TempDir(), mediaPipeScript)
		if err := os.WriteFile(script, []byte("# test\n"), 0o644); err != nil {
			t.Fatalf("write script: %v", err)
		}

		cfg := DefaultConfig()
		cfg.Script = script

		d, err := New(cfg)
		if err != nil {
			t.Fatalf("New() error = %v", err)
		}
		defer d.Close()

		if _, ok := d.(*MediaPipeDetector); !ok {
			t.Errorf("expected *MediaPipeDetector, got %T", d)
		}
	})
}

func TestDecodeLandmarks(t *testing.T) {
	raw := make([]float32, NumLandmarks*3)
	for i := 0; i < NumLandmarks; i++ {
		raw[i*3] = float32(i * 10)
		raw[i*3+1] = 224 - float32(i*10)
		raw[i*3+2] = -2
	}

	t.Run("below presence threshold", func(t *testing.T) {
		if hands := decodeLandmarks(raw, 0.5, 0.9, 224, 0.7); hands != nil {
			t.Errorf("expected no hands, got %v", hands)
		}
	})

	t.Run("normalizes coordinates", func(t *testing.T) {
		hands := decodeLandmarks(raw, 0.9, 0.9, 224, 0.7)
		if len(hands) != 1 {
			t.Fatalf("expected 1 hand, got %d", len(hands))
		}

		tip := hands[0].Points[ThumbTip]
		if math.Abs(tip.X-40.0/224) > epsilon {
			t.Errorf("thumb tip X = %f, want %f", tip.X, 40.0/224)
		}
		if math.Abs(tip.Y-184.0/224) > epsilon {
			t.Errorf("thumb tip Y = %f, want %f", tip.Y, 184.0/224)
		}
		if hands[0].Handedness != Right {
			t.Errorf("handedness = %v, want Right", hands[0].Handedness)
		}
		if math.Abs(hands[0].Score-0.9) > epsilon {
			t.Errorf("score = %f, want 0.9", hands[0].Score)
		}
	})

	t.Run("left hand below half", func(t *testing.T) {
		hands := decodeLandmarks(raw, 0.9, 0.2, 224, 0.7)
		if len(hands) != 1 || hands[0].Handedness != Left {
			t.Errorf("expected one Left hand, got %v", hands)
		}
	})

	t.Run("short output", func(t *testing.T) {
		if hands := decodeLandmarks(raw[:10], 0.9, 0.9, 224, 0.7); hands != nil {
			t.Errorf("expected no hands for short output, got %v", hands)
		}
	})
}

func TestFillInputTensor(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			img.Set(x, y, color.RGBA{R: 255, G: 0, B: 0, A: 255})
		}
	}

	dst := make([]float32, 4*4*3)
	fillInputTensor(dst, img, 4)

	for i := 0; i < len(dst); i += 3 {
		if math.Abs(float64(dst[i])-1.0) > 1e-3 || dst[i+1] != 0 || dst[i+2] != 0 {
			t.Fatalf("pixel %d = (%f,%f,%f), want (1,0,0)", i/3, dst[i], dst[i+1], dst[i+2])
		}
	}
}
