// Package fingers classifies each finger of a detected hand as open or closed.
package fingers

import (
	"fmt"

	"github.com/ayusman/fingerlink/internal/detector"
)

// Finger identifies a position in a State.
type Finger int

// Finger order is fixed and matches the serial wire format.
const (
	Thumb Finger = iota
	Index
	Middle
	Ring
	Pinky
	NumFingers
)

var fingerNames = [NumFingers]string{"Thumb", "Index", "Middle", "Ring", "Pinky"}

func (f Finger) String() string {
	if f < 0 || f >= NumFingers {
		return fmt.Sprintf("Finger(%d)", int(f))
	}
	return fingerNames[f]
}

// State holds one bit per finger: 1 is open, 0 is closed.
type State [NumFingers]uint8

// tipPIP pairs the tip and PIP joint of each non-thumb finger.
var tipPIP = [...]struct {
	finger   Finger
	tip, pip int
}{
	{Index, detector.IndexTip, detector.IndexPIP},
	{Middle, detector.MiddleTip, detector.MiddlePIP},
	{Ring, detector.RingTip, detector.RingPIP},
	{Pinky, detector.PinkyTip, detector.PinkyPIP},
}

// Classify derives the finger state of a hand.
//
// The thumb is open when its tip lies outward of the IP joint along X:
// toward smaller X for a right hand, larger X for a left hand. Every other
// finger is open when its tip is above (smaller Y than) its PIP joint.
// Equal coordinates count as closed.
func Classify(hand *detector.HandLandmarks) State {
	var s State
	p := &hand.Points

	tip, joint := p[detector.ThumbTip].X, p[detector.ThumbIP].X
	if hand.Handedness == detector.Right {
		s[Thumb] = bit(tip < joint)
	} else {
		s[Thumb] = bit(tip > joint)
	}

	for _, f := range tipPIP {
		s[f.finger] = bit(p[f.tip].Y < p[f.pip].Y)
	}

	return s
}

func bit(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}
