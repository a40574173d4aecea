package jobs

import (
	"fmt"
	"strings"
	"time"
)

// Status represents the lifecycle of a job.
type Status string

const (
	StatusPending      Status = "pending"
	StatusTranscribing Status = "transcribing"
	StatusSummarizing  Status = "summarizing"
	StatusEmailing     Status = "emailing"
	StatusDone         Status = "done"
	StatusError        Status = "error"
)

// RestartInterruptedMessage is recorded on jobs that were in flight when the
// previous process exited.
const RestartInterruptedMessage = "interrupted by restart"

var allStatuses = []Status{
	StatusPending,
	StatusTranscribing,
	StatusSummarizing,
	StatusEmailing,
	StatusDone,
	StatusError,
}

// inFlightStatuses are the states a job can be in while a pipeline run owns it
// (or should own it). They are resolved to error at startup.
var inFlightStatuses = []Status{
	StatusPending,
	StatusTranscribing,
	StatusSummarizing,
	StatusEmailing,
}

// forwardPredecessors maps each stage status to the status it must follow.
var forwardPredecessors = map[Status]Status{
	StatusTranscribing: StatusPending,
	StatusSummarizing:  StatusTranscribing,
	StatusEmailing:     StatusSummarizing,
	StatusDone:         StatusEmailing,
}

// AllStatuses returns every status in lifecycle order.
func AllStatuses() []Status {
	out := make([]Status, len(allStatuses))
	copy(out, allStatuses)
	return out
}

// ParseStatus converts user input into a Status.
func ParseStatus(value string) (Status, error) {
	candidate := Status(strings.ToLower(strings.TrimSpace(value)))
	for _, status := range allStatuses {
		if status == candidate {
			return status, nil
		}
	}
	return "", fmt.Errorf("unknown job status %q", value)
}

// IsInFlight reports whether a job in this status has not reached a terminal state.
func (s Status) IsInFlight() bool {
	switch s {
	case StatusPending, StatusTranscribing, StatusSummarizing, StatusEmailing:
		return true
	case StatusDone, StatusError:
		return false
	default:
		return false
	}
}

// IsTerminal reports whether the status ends a pipeline run.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusDone, StatusError:
		return true
	default:
		return false
	}
}

// Stage returns the pipeline stage name that runs while a job holds this status.
func (s Status) Stage() string {
	switch s {
	case StatusTranscribing:
		return "transcribe"
	case StatusSummarizing:
		return "summarize"
	case StatusEmailing:
		return "email"
	default:
		return ""
	}
}

// Job is a persisted meeting-processing record. Empty strings stand for
// database NULLs.
type Job struct {
	ID             string
	Label          string
	Status         Status
	AudioPath      string
	TranscriptPath string
	Summary        string
	Error          string
	Attempts       int
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// DatabaseHealth captures diagnostic information about the job database.
type DatabaseHealth struct {
	DBPath           string
	DatabaseExists   bool
	DatabaseReadable bool
	SchemaVersion    int
	TableExists      bool
	MissingColumns   []string
	IntegrityCheck   bool
	TotalJobs        int
	Error            string
}
