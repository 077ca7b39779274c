package store

import (
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Session modes.
const (
	ModeRun   = "run"
	ModeWatch = "watch"
)

// Session is one run of the capture loop.
type Session struct {
	ID            string     `json:"id"`
	Mode          string     `json:"mode"`
	Port          string     `json:"port"`
	CameraID      int        `json:"camera_id"`
	StartedAt     time.Time  `json:"started_at"`
	EndedAt       *time.Time `json:"ended_at,omitempty"`
	Frames        int        `json:"frames"`
	Detections    int        `json:"detections"`
	Transmissions int        `json:"transmissions"`
	EndReason     string     `json:"end_reason"`
}

// SessionStats are the counters written when a session finishes.
type SessionStats struct {
	Frames        int
	Detections    int
	Transmissions int
	EndReason     string
}

// SessionRepository provides operations on sessions.
type SessionRepository struct {
	db *sql.DB
}

// Sessions returns the session repository for this store.
func (s *Store) Sessions() *SessionRepository {
	return &SessionRepository{db: s.db}
}

// Create inserts a new session. ID and StartedAt are filled in when empty.
func (r *SessionRepository) Create(sess *Session) error {
	if sess.ID == "" {
		sess.ID = uuid.New().String()
	}
	if sess.StartedAt.IsZero() {
		sess.StartedAt = time.Now()
	}

	_, err := r.db.Exec(
		`INSERT INTO sessions (id, mode, port, camera_id, started_at)
		 VALUES (?, ?, ?, ?, ?)`,
		sess.ID, sess.Mode, sess.Port, sess.CameraID, sess.StartedAt,
	)
	return err
}

// Finish records the end time and counters of a session.
func (r *SessionRepository) Finish(id string, stats SessionStats) error {
	result, err := r.db.Exec(
		`UPDATE sessions
		 SET ended_at = ?, frames = ?, detections = ?, transmissions = ?, end_reason = ?
		 WHERE id = ?`,
		time.Now(), stats.Frames, stats.Detections, stats.Transmissions, stats.EndReason, id,
	)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNotFound
	}

	return nil
}

// Get retrieves a session by its ID.
func (r *SessionRepository) Get(id string) (*Session, error) {
	row := r.db.QueryRow(
		`SELECT id, mode, port, camera_id, started_at, ended_at, frames, detections, transmissions, end_reason
		 FROM sessions WHERE id = ?`,
		id,
	)

	sess, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return sess, err
}

// List returns the most recent sessions first. limit <= 0 means no limit.
func (r *SessionRepository) List(limit int) ([]Session, error) {
	if limit <= 0 {
		limit = -1
	}

	rows, err := r.db.Query(
		`SELECT id, mode, port, camera_id, started_at, ended_at, frames, detections, transmissions, end_reason
		 FROM sessions
		 ORDER BY started_at DESC, rowid DESC
		 LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []Session
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, *sess)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return sessions, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSession(row scanner) (*Session, error) {
	var sess Session
	var ended sql.NullTime

	err := row.Scan(&sess.ID, &sess.Mode, &sess.Port, &sess.CameraID, &sess.StartedAt, &ended,
		&sess.Frames, &sess.Detections, &sess.Transmissions, &sess.EndReason)
	if err != nil {
		return nil, err
	}

	if ended.Valid {
		t := ended.Time
		sess.EndedAt = &t
	}

	return &sess, nil
}
