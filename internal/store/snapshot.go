package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Snapshot is a saved copy of the grid contents.
type Snapshot struct {
	ID        string
	Data      [][]string
	CreatedAt time.Time
}

// SnapshotRepository stores grid snapshots.
type SnapshotRepository struct {
	db *sql.DB
}

// Snapshots returns the snapshot repository for this store.
func (s *Store) Snapshots() *SnapshotRepository {
	return &SnapshotRepository{db: s.db}
}

// Create inserts a snapshot, assigning its ID and timestamp.
func (r *SnapshotRepository) Create(snap *Snapshot) error {
	if snap.ID == "" {
		snap.ID = uuid.NewString()
	}
	snap.CreatedAt = time.Now().UTC()

	data, err := json.Marshal(snap.Data)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	cols := 0
	for _, row := range snap.Data {
		cols = max(cols, len(row))
	}

	_, err = r.db.Exec(
		`INSERT INTO snapshots (id, rows, cols, data, created_at) VALUES (?, ?, ?, ?, ?)`,
		snap.ID, len(snap.Data), cols, string(data), snap.CreatedAt,
	)
	return err
}

// Latest returns the newest snapshot, or ErrNotFound if none exist.
func (r *SnapshotRepository) Latest() (*Snapshot, error) {
	snap := &Snapshot{}
	var data string
	err := r.db.QueryRow(
		`SELECT id, data, created_at FROM snapshots ORDER BY rowid DESC LIMIT 1`,
	).Scan(&snap.ID, &data, &snap.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if err := json.Unmarshal([]byte(data), &snap.Data); err != nil {
		return nil, fmt.Errorf("decode snapshot %s: %w", snap.ID, err)
	}
	return snap, nil
}

// Count returns the number of stored snapshots.
func (r *SnapshotRepository) Count() (int, error) {
	var n int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM snapshots`).Scan(&n)
	return n, err
}

// Prune deletes all but the newest keep snapshots.
func (r *SnapshotRepository) Prune(keep int) error {
	_, err := r.db.Exec(
		`DELETE FROM snapshots WHERE rowid NOT IN (
			SELECT rowid FROM snapshots ORDER BY rowid DESC LIMIT ?
		)`,
		keep,
	)
	return err
}
