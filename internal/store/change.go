package store

import (
	"database/sql"
	"time"

	"github.com/ayusman/fingerlink/internal/detector"
	"github.com/ayusman/fingerlink/internal/fingers"
)

// StateChange is a finger state that differed from the previous one seen
// for the same hand in a session.
type StateChange struct {
	ID         int64               `json:"id"`
	SessionID  string              `json:"session_id"`
	Handedness detector.Handedness `json:"handedness"`
	State      fingers.State       `json:"state"`
	At         time.Time           `json:"at"`
}

// ChangeRepository provides operations on state changes.
type ChangeRepository struct {
	db *sql.DB
}

// Changes returns the state change repository for this store.
func (s *Store) Changes() *ChangeRepository {
	return &ChangeRepository{db: s.db}
}

// Record inserts a state change. At is set to now when zero.
func (r *ChangeRepository) Record(c *StateChange) error {
	if c.At.IsZero() {
		c.At = time.Now()
	}

	result, err := r.db.Exec(
		`INSERT INTO state_changes (session_id, handedness, state, at) VALUES (?, ?, ?, ?)`,
		c.SessionID, c.Handedness.String(), c.State.String(), c.At,
	)
	if err != nil {
		return err
	}

	c.ID, err = result.LastInsertId()
	return err
}

// ListBySession returns the changes of a session in the order recorded.
func (r *ChangeRepository) ListBySession(sessionID string) ([]StateChange, error) {
	rows, err := r.db.Query(
		`SELECT id, session_id, handedness, state, at
		 FROM state_changes
		 WHERE session_id = ?
		 ORDER BY id`,
		sessionID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var changes []StateChange
	for rows.Next() {
		var c StateChange
		var handedness, state string
		if err := rows.Scan(&c.ID, &c.SessionID, &handedness, &state, &c.At); err != nil {
			return nil, err
		}

		c.Handedness = detector.ParseHandedness(handedness)
		if c.State, err = fingers.ParseState(state); err != nil {
			return nil, err
		}
		changes = append(changes, c)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return changes, nil
}
