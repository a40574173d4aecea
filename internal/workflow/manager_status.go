package workflow

import (
	"context"
	"sort"
	"time"

	"meetnotes/internal/jobs"
	"meetnotes/internal/logging"
)

// StatusSummary represents lightweight workflow diagnostics.
type StatusSummary struct {
	Running    bool                `json:"running"`
	ActiveJobs []string            `json:"active_jobs"`
	JobCounts  map[jobs.Status]int `json:"job_counts"`
	LastError  string              `json:"last_error,omitempty"`
	LastJobID  string              `json:"last_job_id,omitempty"`
}

// Status returns the latest workflow information.
func (m *Manager) Status(ctx context.Context) StatusSummary {
	m.mu.Lock()
	summary := StatusSummary{
		Running:    m.running,
		ActiveJobs: make([]string, 0, len(m.active)),
		LastJobID:  m.lastJobID,
	}
	for id := range m.active {
		summary.ActiveJobs = append(summary.ActiveJobs, id)
	}
	if m.lastErr != nil {
		summary.LastError = m.lastErr.Error()
	}
	m.mu.Unlock()
	sort.Strings(summary.ActiveJobs)

	stats, err := m.store.Stats(ctx)
	if err != nil {
		m.logger.Warn("failed to read job stats", logging.Error(err))
	}
	summary.JobCounts = stats
	return summary
}

func (m *Manager) now() time.Time {
	return time.Now().UTC()
}
