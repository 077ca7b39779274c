package store

// runMigrations executes all database migrations.
func (s *Store) runMigrations() error {
	migrations := []string{
		// Sessions table - one row per streaming or watch run
		`CREATE TABLE IF NOT EXISTS sessions (
			id TEXT PRIMARY KEY,
			mode TEXT NOT NULL CHECK(mode IN ('run', 'watch')),
			port TEXT NOT NULL DEFAULT '',
			camera_id INTEGER NOT NULL DEFAULT 0,
			started_at DATETIME NOT NULL,
			ended_at DATETIME,
			frames INTEGER NOT NULL DEFAULT 0,
			detections INTEGER NOT NULL DEFAULT 0,
			transmissions INTEGER NOT NULL DEFAULT 0,
			end_reason TEXT NOT NULL DEFAULT ''
		)`,

		// State changes table - finger state transitions per hand
		`CREATE TABLE IF NOT EXISTS state_changes (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
			handedness TEXT NOT NULL CHECK(handedness IN ('Left', 'Right')),
			state TEXT NOT NULL CHECK(length(state) = 5),
			at DATETIME NOT NULL
		)`,

		`CREATE INDEX IF NOT EXISTS idx_state_changes_session_id ON state_changes(session_id)`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_started_at ON sessions(started_at)`,
	}

	for _, migration := range migrations {
		if _, err := s.db.Exec(migration); err != nil {
			return err
		}
	}

	return nil
}
