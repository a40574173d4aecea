package jobs

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Create inserts a pending job and returns its identifier.
func (s *Store) Create(ctx context.Context, label, audioPath string) (string, error) {
	label = strings.TrimSpace(label)
	if label == "" {
		return "", errors.New("create job: label is required")
	}
	if strings.TrimSpace(audioPath) == "" {
		return "", errors.New("create job: audio path is required")
	}

	id := uuid.NewString()
	now := s.timestamp()
	if _, err := s.execWithRetry(
		ctx,
		`INSERT INTO jobs (id, label, status, audio_path, attempts, created_at, updated_at)
         VALUES (?, ?, ?, ?, 1, ?, ?)`,
		id,
		label,
		StatusPending,
		audioPath,
		now,
		now,
	); err != nil {
		return "", fmt.Errorf("insert job: %w", err)
	}
	return id, nil
}

// Get fetches a job by identifier. The returned value is a snapshot owned by the caller.
func (s *Store) Get(ctx context.Context, id string) (*Job, error) {
	row := s.db.QueryRowContext(ensureContext(ctx), `SELECT `+jobColumns+` FROM jobs WHERE id = ?`, id)
	job, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get job: %w", err)
	}
	return job, nil
}

// List returns jobs newest first, optionally filtered by status.
func (s *Store) List(ctx context.Context, statuses ...Status) ([]*Job, error) {
	query := `SELECT ` + jobColumns + ` FROM jobs`
	var args []any
	if len(statuses) > 0 {
		query += ` WHERE status IN (` + makePlaceholders(len(statuses)) + `)`
		args = statusArgs(statuses)
	}
	query += ` ORDER BY created_at DESC, rowid DESC`

	rows, err := s.db.QueryContext(ensureContext(ctx), query, args...)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close()

	jobs := make([]*Job, 0)
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

// Prune deletes finished jobs created before cutoff. Transcript files on disk are left alone.
func (s *Store) Prune(ctx context.Context, cutoff time.Time, statuses ...Status) (int64, error) {
	if len(statuses) == 0 {
		statuses = []Status{StatusDone, StatusError}
	}
	for _, status := range statuses {
		if !status.IsTerminal() {
			return 0, fmt.Errorf("prune: %w: refusing to delete %s jobs", ErrConflict, status)
		}
	}
	args := append(statusArgs(statuses), formatTime(cutoff))
	res, err := s.execWithRetry(
		ctx,
		`DELETE FROM jobs WHERE status IN (`+makePlaceholders(len(statuses))+`) AND created_at < ?`,
		args...,
	)
	if err != nil {
		return 0, fmt.Errorf("prune jobs: %w", err)
	}
	return res.RowsAffected()
}
