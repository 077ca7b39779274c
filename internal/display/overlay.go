package display

import (
	"image"
	"image/color"

	"github.com/ayusman/fingerlink/internal/detector"
	"github.com/ayusman/fingerlink/internal/fingers"
	"gocv.io/x/gocv"
)

var (
	connectionColor = color.RGBA{R: 255, G: 255, B: 255, A: 0}
	landmarkColor   = color.RGBA{R: 255, G: 0, B: 0, A: 0}
	openColor       = color.RGBA{R: 0, G: 200, B: 0, A: 0}
	closedColor     = color.RGBA{R: 0, G: 0, B: 220, A: 0}
)

// toPixel maps a normalized landmark to frame pixel coordinates.
func toPixel(p detector.Point3D, cols, rows int) image.Point {
	return image.Pt(int(p.X*float64(cols)), int(p.Y*float64(rows)))
}

// DrawLandmarks draws the hand skeleton onto a BGR frame in place.
func DrawLandmarks(frame *gocv.Mat, hand *detector.HandLandmarks) {
	if frame == nil || frame.Empty() {
		return
	}
	cols, rows := frame.Cols(), frame.Rows()

	for _, c := range detector.Connections {
		a := toPixel(hand.Points[c[0]], cols, rows)
		b := toPixel(hand.Points[c[1]], cols, rows)
		gocv.Line(frame, a, b, connectionColor, 2)
	}
	for _, p := range hand.Points {
		gocv.Circle(frame, toPixel(p, cols, rows), 4, landmarkColor, -1)
	}
}

// DrawState prints the finger digits near the top-left corner. row offsets
// the text for the second and later hands.
func DrawState(frame *gocv.Mat, hand *detector.HandLandmarks, state fingers.State, row int) {
	if frame == nil || frame.Empty() {
		return
	}

	c := closedColor
	if state.OpenCount() > 0 {
		c = openColor
	}

	text := hand.Handedness.String() + " " + state.String()
	origin := image.Pt(10, 30+row*30)
	gocv.PutText(frame, text, origin, gocv.FontHersheySimplex, 0.8, c, 2)
}
