package jobs

import (
	"database/sql"
	"errors"
	"strings"
	"time"
)

const jobColumns = "id, label, status, audio_path, transcript_path, summary, error_message, attempts, created_at, updated_at"

// timeLayout is fixed width so lexical order of stored values matches time order.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(timeLayout, value); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339Nano, value)
}

func scanJob(scanner interface{ Scan(dest ...any) error }) (*Job, error) {
	var (
		id             string
		label          string
		statusStr      string
		audioPath      string
		transcriptPath sql.NullString
		summary        sql.NullString
		errorMessage   sql.NullString
		attempts       sql.NullInt64
		createdRaw     string
		updatedRaw     string
	)
	if err := scanner.Scan(
		&id,
		&label,
		&statusStr,
		&audioPath,
		&transcriptPath,
		&summary,
		&errorMessage,
		&attempts,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}

	job := &Job{
		ID:             id,
		Label:          label,
		Status:         Status(statusStr),
		AudioPath:      audioPath,
		TranscriptPath: transcriptPath.String,
		Summary:        summary.String,
		Error:          errorMessage.String,
		Attempts:       int(attempts.Int64),
	}
	if created, err := parseTimeString(createdRaw); err == nil {
		job.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw); err == nil {
		job.UpdatedAt = updated
	}
	return job, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func makePlaceholders(count int) string {
	if count <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?,", count), ",")
}

func statusArgs(statuses []Status) []any {
	args := make([]any, len(statuses))
	for i, status := range statuses {
		args[i] = string(status)
	}
	return args
}
