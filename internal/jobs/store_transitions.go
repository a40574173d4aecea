package jobs

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// SetStatus advances a job to the next pipeline status. Only forward edges
// (pending→transcribing→summarizing→emailing→done) are accepted; failures use
// SetError and re-entry uses ClearForRetry.
func (s *Store) SetStatus(ctx context.Context, id string, status Status) error {
	from, ok := forwardPredecessors[status]
	if !ok {
		return fmt.Errorf("%w: cannot set status %q directly", ErrInvalidTransition, status)
	}
	unlock := s.locks.lock(id)
	defer unlock()

	res, err := s.execWithRetry(
		ctx,
		`UPDATE jobs SET status = ?, updated_at = ? WHERE id = ? AND status = ?`,
		status, s.timestamp(), id, from,
	)
	if err != nil {
		return fmt.Errorf("set job status: %w", err)
	}
	return s.checkApplied(ctx, res, id, status)
}

// SetError records a stage failure. The message is stored verbatim.
func (s *Store) SetError(ctx context.Context, id, message string) error {
	if strings.TrimSpace(message) == "" {
		message = "unknown error"
	}
	unlock := s.locks.lock(id)
	defer unlock()

	args := []any{StatusError, message, s.timestamp(), id}
	args = append(args, statusArgs(inFlightStatuses)...)
	res, err := s.execWithRetry(
		ctx,
		`UPDATE jobs SET status = ?, error_message = ?, updated_at = ?
         WHERE id = ? AND status IN (`+makePlaceholders(len(inFlightStatuses))+`)`,
		args...,
	)
	if err != nil {
		return fmt.Errorf("set job error: %w", err)
	}
	return s.checkApplied(ctx, res, id, StatusError)
}

// SetResult stores the summary and transcript location and marks the job done.
func (s *Store) SetResult(ctx context.Context, id, summary, transcriptPath string) error {
	if strings.TrimSpace(summary) == "" || strings.TrimSpace(transcriptPath) == "" {
		return errors.New("set job result: summary and transcript path are required")
	}
	unlock := s.locks.lock(id)
	defer unlock()

	res, err := s.execWithRetry(
		ctx,
		`UPDATE jobs SET status = ?, summary = ?, transcript_path = ?, error_message = NULL, updated_at = ?
         WHERE id = ? AND status = ?`,
		StatusDone, summary, transcriptPath, s.timestamp(), id, StatusEmailing,
	)
	if err != nil {
		return fmt.Errorf("set job result: %w", err)
	}
	return s.checkApplied(ctx, res, id, StatusDone)
}

// ClearForRetry resets a failed job to pending, clearing its outputs and error.
// Jobs in any other status are left untouched and ErrConflict is returned.
func (s *Store) ClearForRetry(ctx context.Context, id string) error {
	unlock := s.locks.lock(id)
	defer unlock()

	res, err := s.execWithRetry(
		ctx,
		`UPDATE jobs SET status = ?, error_message = NULL, summary = NULL, transcript_path = NULL,
             attempts = attempts + 1, updated_at = ?
         WHERE id = ? AND status = ?`,
		StatusPending, s.timestamp(), id, StatusError,
	)
	if err != nil {
		return fmt.Errorf("retry job: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("retry job: %w", err)
	}
	if affected == 1 {
		return nil
	}
	current, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	return fmt.Errorf("%w: job %s is %s, only failed jobs can be retried", ErrConflict, id, current.Status)
}

// RecoverInterrupted marks every job left in a non-terminal status as failed.
// It must run before any new pipeline work starts.
func (s *Store) RecoverInterrupted(ctx context.Context) (int64, error) {
	args := []any{StatusError, RestartInterruptedMessage, s.timestamp()}
	args = append(args, statusArgs(inFlightStatuses)...)
	res, err := s.execWithRetry(
		ctx,
		`UPDATE jobs SET status = ?, error_message = ?, updated_at = ?
         WHERE status IN (`+makePlaceholders(len(inFlightStatuses))+`)`,
		args...,
	)
	if err != nil {
		return 0, fmt.Errorf("recover interrupted jobs: %w", err)
	}
	return res.RowsAffected()
}

func (s *Store) checkApplied(ctx context.Context, res sql.Result, id string, target Status) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 1 {
		return nil
	}
	current, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	return fmt.Errorf("%w: %s -> %s for job %s", ErrInvalidTransition, current.Status, target, id)
}
