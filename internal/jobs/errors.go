package jobs

import "errors"

var (
	// ErrNotFound is returned when no job has the requested id.
	ErrNotFound = errors.New("job not found")
	// ErrConflict is returned when an operation is not allowed in the job's
	// current status, such as retrying a job that has not failed.
	ErrConflict = errors.New("job status conflict")
	// ErrInvalidTransition is returned when a status update would move a job
	// along an edge the lifecycle does not allow.
	ErrInvalidTransition = errors.New("invalid job status transition")
	// ErrSchemaMismatch indicates the database schema version doesn't match the expected version.
	ErrSchemaMismatch = errors.New("schema version mismatch")
)
