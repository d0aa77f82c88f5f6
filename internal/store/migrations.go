package store

// runMigrations executes all database migrations.
func (s *Store) runMigrations() error {
	migrations := []string{
		// Grid snapshots written by autosave, newest restored on start
		`CREATE TABLE IF NOT EXISTS snapshots (
			id TEXT PRIMARY KEY,
			rows INTEGER NOT NULL,
			cols INTEGER NOT NULL,
			data TEXT NOT NULL,
			created_at DATETIME NOT NULL
		)`,

		// One row per dispatched command
		`CREATE TABLE IF NOT EXISTS commits (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			command_id TEXT NOT NULL,
			action TEXT NOT NULL,
			source TEXT NOT NULL DEFAULT '',
			gesture TEXT NOT NULL DEFAULT '',
			score REAL NOT NULL DEFAULT 0,
			ok INTEGER NOT NULL,
			error TEXT NOT NULL DEFAULT '',
			command TEXT NOT NULL,
			created_at DATETIME NOT NULL
		)`,

		`CREATE INDEX IF NOT EXISTS idx_snapshots_created_at ON snapshots(created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_commits_created_at ON commits(created_at)`,
	}

	for _, migration := range migrations {
		if _, err := s.db.Exec(migration); err != nil {
			return err
		}
	}

	return nil
}
