package app

import (
	"fmt"

	"github.com/ayusman/fingerlink/internal/detector"
	"github.com/ayusman/fingerlink/internal/fingers"
	"github.com/ayusman/fingerlink/internal/store"
)

// recorder writes a session row and the state changes seen during it.
// Only a state that differs from the previous one for the same hand is
// stored.
type recorder struct {
	store     *store.Store
	sessionID string
	last      map[detector.Handedness]fingers.State
}

func startRecorder(s *store.Store, sess *store.Session) (*recorder, error) {
	if err := s.Sessions().Create(sess); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	return &recorder{
		store:     s,
		sessionID: sess.ID,
		last:      make(map[detector.Handedness]fingers.State),
	}, nil
}

// observe records state if it changed and reports whether it did.
func (r *recorder) observe(h detector.Handedness, state fingers.State) (bool, error) {
	if prev, ok := r.last[h]; ok && prev == state {
		return false, nil
	}

	err := r.store.Changes().Record(&store.StateChange{
		SessionID:  r.sessionID,
		Handedness: h,
		State:      state,
	})
	if err != nil {
		return false, err
	}

	r.last[h] = state
	return true, nil
}

func (r *recorder) finish(stats Stats, reason string) error {
	return r.store.Sessions().Finish(r.sessionID, store.SessionStats{
		Frames:        stats.Frames,
		Detections:    stats.Detections,
		Transmissions: stats.Transmissions,
		EndReason:     reason,
	})
}
