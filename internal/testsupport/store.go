package testsupport

import (
	"context"
	"testing"
	"time"

	"meetnotes/internal/config"
	"meetnotes/internal/jobs"
)

// MustOpenStore opens a jobs.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *jobs.Store {
	t.Helper()

	store, err := jobs.Open(cfg)
	if err != nil {
		t.Fatalf("jobs.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// WaitForStatus polls store until the job reaches one of statuses or the
// timeout elapses, and returns the final snapshot.
func WaitForStatus(t testing.TB, store *jobs.Store, id string, timeout time.Duration, statuses ...jobs.Status) *jobs.Job {
	t.Helper()

	deadline := time.Now().Add(timeout)
	for {
		job, err := store.Get(context.Background(), id)
		if err != nil {
			t.Fatalf("store.Get(%s): %v", id, err)
		}
		for _, status := range statuses {
			if job.Status == status {
				return job
			}
		}
		if time.Now().After(deadline) {
			t.Fatalf("job %s stuck in %s, want one of %v", id, job.Status, statuses)
		}
		time.Sleep(10 * time.Millisecond)
	}
}
