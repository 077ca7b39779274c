package detector

import (
	"gocv.io/x/gocv"
)

// MockDetector is a test implementation of the Detector interface.
// It allows tests to control the detection results.
type MockDetector struct {
	hands  []HandLandmarks
	err    error
	calls  int
	closed bool
}

// NewMockDetector creates a new MockDetector instance.
func NewMockDetector() *MockDetector {
	return &MockDetector{}
}

// SetHands sets the hands that will be returned by Detect.
func (m *MockDetector) SetHands(hands []HandLandmarks) {
	m.hands = hands
}

// SetError sets the error that will be returned by Detect.
func (m *MockDetector) SetError(err error) {
	m.err = err
}

// Detect returns the pre-configured hands or error.
func (m *MockDetector) Detect(frame *gocv.Mat) ([]HandLandmarks, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.hands, nil
}

// Close marks the detector closed.
func (m *MockDetector) Close() error {
	m.closed = true
	return nil
}

// Calls returns how many times Detect was called.
func (m *MockDetector) Calls() int { return m.calls }

// Closed reports whether Close was called.
func (m *MockDetector) Closed() bool { return m.closed }

// OpenPalmLandmarks returns a right hand with every finger extended.
// The thumb points away from the palm toward smaller X.
func OpenPalmLandmarks() HandLandmarks {
	landmarks := HandLandmarks{
		Handedness: Right,
		Score:      0.95,
	}

	landmarks.Points[Wrist] = Point3D{X: 0.5, Y: 0.8, Z: 0.0}

	landmarks.Points[ThumbCMC] = Point3D{X: 0.45, Y: 0.75, Z: -0.02}
	landmarks.Points[ThumbMCP] = Point3D{X: 0.38, Y: 0.70, Z: -0.03}
	landmarks.Points[ThumbIP] = Point3D{X: 0.32, Y: 0.65, Z: -0.03}
	landmarks.Points[ThumbTip] = Point3D{X: 0.27, Y: 0.60, Z: -0.04}

	landmarks.Points[IndexMCP] = Point3D{X: 0.45, Y: 0.68, Z: 0.0}
	landmarks.Points[IndexPIP] = Point3D{X: 0.43, Y: 0.55, Z: 0.0}
	landmarks.Points[IndexDIP] = Point3D{X: 0.42, Y: 0.45, Z: 0.0}
	landmarks.Points[IndexTip] = Point3D{X: 0.42, Y: 0.35, Z: 0.0}

	landmarks.Points[MiddleMCP] = Point3D{X: 0.50, Y: 0.66, Z: 0.0}
	landmarks.Points[MiddlePIP] = Point3D{X: 0.50, Y: 0.52, Z: 0.0}
	landmarks.Points[MiddleDIP] = Point3D{X: 0.50, Y: 0.40, Z: 0.0}
	landmarks.Points[MiddleTip] = Point3D{X: 0.50, Y: 0.28, Z: 0.0}

	landmarks.Points[RingMCP] = Point3D{X: 0.55, Y: 0.68, Z: 0.0}
	landmarks.Points[RingPIP] = Point3D{X: 0.57, Y: 0.55, Z: 0.0}
	landmarks.Points[RingDIP] = Point3D{X: 0.58, Y: 0.45, Z: 0.0}
	landmarks.Points[RingTip] = Point3D{X: 0.58, Y: 0.35, Z: 0.0}

	landmarks.Points[PinkyMCP] = Point3D{X: 0.60, Y: 0.70, Z: 0.0}
	landmarks.Points[PinkyPIP] = Point3D{X: 0.63, Y: 0.60, Z: 0.0}
	landmarks.Points[PinkyDIP] = Point3D{X: 0.65, Y: 0.50, Z: 0.0}
	landmarks.Points[PinkyTip] = Point3D{X: 0.66, Y: 0.42, Z: 0.0}

	return landmarks
}

// FistLandmarks returns a right hand with every finger curled and the
// thumb folded across the palm.
func FistLandmarks() HandLandmarks {
	landmarks := HandLandmarks{
		Handedness: Right,
		Score:      0.93,
	}

	landmarks.Points[Wrist] = Point3D{X: 0.5, Y: 0.8, Z: 0.0}

	landmarks.Points[ThumbCMC] = Point3D{X: 0.45, Y: 0.75, Z: -0.02}
	landmarks.Points[ThumbMCP] = Point3D{X: 0.42, Y: 0.70, Z: -0.04}
	landmarks.Points[ThumbIP] = Point3D{X: 0.44, Y: 0.66, Z: -0.05}
	landmarks.Points[ThumbTip] = Point3D{X: 0.48, Y: 0.65, Z: -0.06}

	landmarks.Points[IndexMCP] = Point3D{X: 0.45, Y: 0.68, Z: -0.02}
	landmarks.Points[IndexPIP] = Point3D{X: 0.45, Y: 0.64, Z: -0.05}
	landmarks.Points[IndexDIP] = Point3D{X: 0.46, Y: 0.68, Z: -0.04}
	landmarks.Points[IndexTip] = Point3D{X: 0.46, Y: 0.70, Z: -0.02}

	landmarks.Points[MiddleMCP] = Point3D{X: 0.50, Y: 0.66, Z: -0.02}
	landmarks.Points[MiddlePIP] = Point3D{X: 0.50, Y: 0.62, Z: -0.05}
	landmarks.Points[MiddleDIP] = Point3D{X: 0.51, Y: 0.66, Z: -0.04}
	landmarks.Points[MiddleTip] = Point3D{X: 0.51, Y: 0.69, Z: -0.02}

	landmarks.Points[RingMCP] = Point3D{X: 0.55, Y: 0.68, Z: -0.02}
	landmarks.Points[RingPIP] = Point3D{X: 0.55, Y: 0.64, Z: -0.05}
	landmarks.Points[RingDIP] = Point3D{X: 0.56, Y: 0.68, Z: -0.04}
	landmarks.Points[RingTip] = Point3D{X: 0.56, Y: 0.71, Z: -0.02}

	landmarks.Points[PinkyMCP] = Point3D{X: 0.60, Y: 0.70, Z: -0.02}
	landmarks.Points[PinkyPIP] = Point3D{X: 0.60, Y: 0.67, Z: -0.05}
	landmarks.Points[PinkyDIP] = Point3D{X: 0.61, Y: 0.70, Z: -0.04}
	landmarks.Points[PinkyTip] = Point3D{X: 0.61, Y: 0.73, Z: -0.02}

	return landmarks
}

// ThumbsUpLandmarks returns a right hand with only the thumb open.
func ThumbsUpLandmarks() HandLandmarks {
	landmarks := FistLandmarks()
	landmarks.Score = 0.95

	landmarks.Points[ThumbMCP] = Point3D{X: 0.42, Y: 0.65, Z: 0.0}
	landmarks.Points[ThumbIP] = Point3D{X: 0.41, Y: 0.50, Z: 0.0}
	landmarks.Points[ThumbTip] = Point3D{X: 0.40, Y: 0.35, Z: 0.0}

	return landmarks
}

// Mirror returns the hand reflected around x=0.5 with the opposite label.
// A mirrored right-hand fixture is a valid left-hand fixture.
func Mirror(h HandLandmarks) HandLandmarks {
	out := h
	for i := range out.Points {
		out.Points[i].X = 1.0 - out.Points[i].X
	}
	if h.Handedness == Right {
		out.Handedness = Left
	} else {
		out.Handedness = Right
	}
	return out
}
