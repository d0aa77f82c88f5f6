package store

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/ayusman/handsheet/internal/command"
)

// Commit is one dispatched command and how it ended.
type Commit struct {
	ID        int64
	CommandID string
	Action    string
	Source    string
	Gesture   string
	Score     float64
	OK        bool
	Error     string
	Command   command.Command
	CreatedAt time.Time
}

// CommitFromOutcome builds the log record for a pipeline outcome.
func CommitFromOutcome(o command.Outcome) *Commit {
	return &Commit{
		CommandID: o.Command.ID,
		Action:    o.Command.Action,
		Source:    o.Command.Source,
		Gesture:   o.Command.Gesture,
		Score:     o.Command.Score,
		OK:        o.OK,
		Error:     o.Error(),
		Command:   o.Command,
		CreatedAt: o.At,
	}
}

// CommitRepository stores the commit log.
type CommitRepository struct {
	db *sql.DB
}

// Commits returns the commit repository for this store.
func (s *Store) Commits() *CommitRepository {
	return &CommitRepository{db: s.db}
}

// Create appends c to the log and sets its ID.
func (r *CommitRepository) Create(c *Commit) error {
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now()
	}
	c.CreatedAt = c.CreatedAt.UTC()

	cmd, err := json.Marshal(c.Command)
	if err != nil {
		return err
	}

	result, err := r.db.Exec(
		`INSERT INTO commits (command_id, action, source, gesture, score, ok, error, command, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.CommandID, c.Action, c.Source, c.Gesture, c.Score, c.OK, c.Error, string(cmd), c.CreatedAt,
	)
	if err != nil {
		return err
	}
	c.ID, err = result.LastInsertId()
	return err
}

// List returns up to limit commits, newest first.
func (r *CommitRepository) List(limit int) ([]*Commit, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.db.Query(
		`SELECT id, command_id, action, source, gesture, score, ok, error, command, created_at
		 FROM commits ORDER BY id DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var commits []*Commit
	for rows.Next() {
		c := &Commit{}
		var ok int
		var cmd string
		if err := rows.Scan(&c.ID, &c.CommandID, &c.Action, &c.Source, &c.Gesture, &c.Score, &ok, &c.Error, &cmd, &c.CreatedAt); err != nil {
			return nil, err
		}
		c.OK = ok != 0
		if err := json.Unmarshal([]byte(cmd), &c.Command); err != nil {
			return nil, err
		}
		commits = append(commits, c)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return commits, nil
}
