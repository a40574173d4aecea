package api

// dateTimeFormat is used for RFC3339 timestamps in API payloads.
const dateTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// Job describes a meeting job in a transport-friendly format.
type Job struct {
	ID             string `json:"id"`
	Label          string `json:"label"`
	Status         string `json:"status"`
	Stage          string `json:"stage,omitempty"`
	AudioPath      string `json:"audioPath"`
	TranscriptPath string `json:"transcriptPath,omitempty"`
	Summary        string `json:"summary,omitempty"`
	Error          string `json:"error,omitempty"`
	Attempts       int    `json:"attempts"`
	CreatedAt      string `json:"createdAt,omitempty"`
	UpdatedAt      string `json:"updatedAt,omitempty"`
}

// WorkflowStatus summarizes workflow execution state.
type WorkflowStatus struct {
	Running    bool           `json:"running"`
	ActiveJobs []string       `json:"activeJobs"`
	JobCounts  map[string]int `json:"jobCounts"`
	LastError  string         `json:"lastError,omitempty"`
	LastJobID  string         `json:"lastJobId,omitempty"`
}

// RecordingStatus reports microphone capture state.
type RecordingStatus struct {
	Active bool   `json:"active"`
	Path   string `json:"path,omitempty"`
}

// DaemonStatus aggregates daemon runtime information for API consumers.
type DaemonStatus struct {
	Running      bool            `json:"running"`
	PID          int             `json:"pid"`
	DatabasePath string          `json:"databasePath"`
	LockFilePath string          `json:"lockFilePath"`
	InboxWatched bool            `json:"inboxWatched"`
	Workflow     WorkflowStatus  `json:"workflow"`
	Recording    RecordingStatus `json:"recording"`
}

// JobListResponse wraps a collection of jobs.
type JobListResponse struct {
	Jobs []Job `json:"jobs"`
}

// JobResponse wraps a single job.
type JobResponse struct {
	Job Job `json:"job"`
}

// CreateJobRequest enqueues an existing audio file. Label defaults to one
// derived from the file name.
type CreateJobRequest struct {
	Label     string `json:"label,omitempty"`
	AudioPath string `json:"audioPath"`
}

// CreateJobResponse reports the id of a newly stored job.
type CreateJobResponse struct {
	JobID string `json:"jobId"`
}

// RecordingResponse reports the outcome of a recording start or stop. JobID
// is set when stopping created a job.
type RecordingResponse struct {
	Path  string `json:"path"`
	JobID string `json:"jobId,omitempty"`
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error string `json:"error"`
	JobID string `json:"jobId,omitempty"`
}
