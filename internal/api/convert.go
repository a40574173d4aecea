package api

import (
	"time"

	"meetnotes/internal/jobs"
	"meetnotes/internal/workflow"
)

// FromJob converts a job record to its API representation.
func FromJob(job *jobs.Job) Job {
	if job == nil {
		return Job{}
	}
	return Job{
		ID:             job.ID,
		Label:          job.Label,
		Status:         string(job.Status),
		Stage:          job.Status.Stage(),
		AudioPath:      job.AudioPath,
		TranscriptPath: job.TranscriptPath,
		Summary:        job.Summary,
		Error:          job.Error,
		Attempts:       job.Attempts,
		CreatedAt:      FormatTime(job.CreatedAt),
		UpdatedAt:      FormatTime(job.UpdatedAt),
	}
}

// FromJobs converts a slice of job records into API DTOs.
func FromJobs(list []*jobs.Job) []Job {
	out := make([]Job, 0, len(list))
	for _, job := range list {
		out = append(out, FromJob(job))
	}
	return out
}

// FromStatusSummary converts a workflow status summary to API payload.
func FromStatusSummary(summary workflow.StatusSummary) WorkflowStatus {
	active := summary.ActiveJobs
	if active == nil {
		active = []string{}
	}
	return WorkflowStatus{
		Running:    summary.Running,
		ActiveJobs: active,
		JobCounts:  MergeJobCounts(summary.JobCounts),
		LastError:  summary.LastError,
		LastJobID:  summary.LastJobID,
	}
}

// MergeJobCounts produces a string-keyed representation of job counts with
// every status present.
func MergeJobCounts(stats map[jobs.Status]int) map[string]int {
	out := make(map[string]int, len(jobs.AllStatuses()))
	for _, status := range jobs.AllStatuses() {
		out[string(status)] = stats[status]
	}
	return out
}

// FormatTime converts a time to RFC3339 or returns empty string.
func FormatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(dateTimeFormat)
}

// ParseTime reverses FormatTime. Empty or malformed values yield the zero time.
func ParseTime(value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	parsed, err := time.Parse(dateTimeFormat, value)
	if err != nil {
		return time.Time{}
	}
	return parsed
}
