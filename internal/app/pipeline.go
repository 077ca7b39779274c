package app

import (
	"fmt"
	"log"

	"github.com/ayusman/fingerlink/internal/detector"
	"github.com/ayusman/fingerlink/internal/display"
	"github.com/ayusman/fingerlink/internal/fingers"
	"github.com/ayusman/fingerlink/internal/server"
	"gocv.io/x/gocv"
)

// processFrame runs one iteration of the pipeline on frame:
//
//  1. detect hands
//  2. per hand: draw, classify, log, transmit, record the change
//  3. publish the annotated frame
//  4. show it
//
// A frame without hands transmits nothing.
func (a *App) processFrame(frame *gocv.Mat) error {
	hands, err := a.config.Detector.Detect(frame)
	if err != nil {
		return fmt.Errorf("detect hands: %w", err)
	}

	a.mu.Lock()
	a.stats.Frames++
	a.stats.Detections += len(hands)
	a.mu.Unlock()

	snap := server.Snapshot{Hands: make([]server.HandState, 0, len(hands))}

	for i := range hands {
		hand := &hands[i]

		display.DrawLandmarks(frame, hand)
		state := fingers.Classify(hand)

		display.DrawState(frame, hand, state, i)
		log.Printf("Finger Status [Thumb, Index, Middle, Ring, Pinky]: %s", state.List())

		if a.config.Mode == ModeWatch {
			log.Printf("Thumb tip z (%s): %.5f", hand.Handedness, hand.Points[detector.ThumbTip].Z)
		} else {
			sent, err := a.send(state)
			if err != nil {
				return err
			}
			if sent {
				snap.Transmitted++
			}
		}

		if a.history != nil {
			if _, err := a.history.observe(hand.Handedness, state); err != nil {
				log.Printf("Error recording state change: %v", err)
			}
		}

		snap.Hands = append(snap.Hands, server.HandState{
			Handedness: hand.Handedness,
			Score:      hand.Score,
			State:      state,
			Points:     hand.Points,
		})
	}

	if a.config.Hub != nil {
		if err := a.config.Hub.PublishFrame(snap, frame); err != nil {
			log.Printf("Error publishing frame: %v", err)
		}
	}

	a.config.Window.Show(frame)
	return nil
}

// send writes state to the port unless there is no writer or transmission
// is paused.
func (a *App) send(state fingers.State) (bool, error) {
	if a.config.Writer == nil || !a.TransmitEnabled() {
		return false, nil
	}

	if err := a.config.Writer.Send(state); err != nil {
		return false, fmt.Errorf("transmit: %w", err)
	}

	a.mu.Lock()
	a.stats.Transmissions++
	a.mu.Unlock()

	if a.config.OnTransmit != nil {
		a.config.OnTransmit(state)
	}
	return true, nil
}
