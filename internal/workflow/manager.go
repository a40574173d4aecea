package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"meetnotes/internal/config"
	"meetnotes/internal/emailer"
	"meetnotes/internal/jobs"
	"meetnotes/internal/logging"
	"meetnotes/internal/notifications"
	"meetnotes/internal/summarize"
	"meetnotes/internal/transcribe"
)

// ShutdownInterruptedMessage is recorded on jobs cancelled by Stop.
const ShutdownInterruptedMessage = "interrupted by shutdown"

var (
	// ErrJobActive reports a dispatch or retry for a job that already has a
	// running pipeline. It matches jobs.ErrConflict.
	ErrJobActive = fmt.Errorf("%w: job is already running", jobs.ErrConflict)
	// ErrNotRunning is returned by Create, Retry, and Dispatch before Start
	// or after Stop.
	ErrNotRunning = errors.New("workflow manager is not running")
)

// Diarizer attributes transcript segments to speakers. It never fails; when
// attribution is unavailable it returns plain text and false.
type Diarizer interface {
	Merge(ctx context.Context, audioPath string, segments []transcribe.Segment) (string, bool)
}

// Stages bundles the external collaborators the pipeline calls.
type Stages struct {
	Transcriber transcribe.Transcriber
	Diarizer    Diarizer
	Summarizer  summarize.Summarizer
	Sender      emailer.Sender
}

func (s Stages) validate() error {
	switch {
	case s.Transcriber == nil:
		return errors.New("workflow: transcriber not configured")
	case s.Summarizer == nil:
		return errors.New("workflow: summarizer not configured")
	case s.Sender == nil:
		return errors.New("workflow: sender not configured")
	}
	return nil
}

// Manager runs the transcribe, summarize, and email pipeline for jobs. Each
// dispatch runs on its own goroutine and reports progress only through the
// job store.
type Manager struct {
	store          *jobs.Store
	stages         Stages
	notifier       notifications.Service
	logger         *slog.Logger
	transcriptsDir string

	mu           sync.Mutex
	running      bool
	shuttingDown bool
	runCtx       context.Context
	cancel       context.CancelFunc
	wg           sync.WaitGroup
	active       map[string]time.Time
	lastErr      error
	lastJobID    string
}

// NewManager constructs a manager. A nil notifier disables alerts.
func NewManager(cfg *config.Config, store *jobs.Store, stages Stages, notifier notifications.Service, logger *slog.Logger) *Manager {
	if notifier == nil {
		notifier = notifications.NewService(nil)
	}
	return &Manager{
		store:          store,
		stages:         stages,
		notifier:       notifier,
		logger:         logging.NewComponentLogger(logger, "workflow"),
		transcriptsDir: cfg.Paths.TranscriptsDir,
		active:         make(map[string]time.Time),
	}
}

// Create stores a new pending job and dispatches it. Nothing is stored while
// the manager is stopped. The id is returned even when dispatch fails so
// callers can report it.
func (m *Manager) Create(ctx context.Context, label, audioPath string) (string, error) {
	if !m.isRunning() {
		return "", ErrNotRunning
	}
	id, err := m.store.Create(ctx, label, audioPath)
	if err != nil {
		return "", err
	}
	logging.WithContext(ctx, m.logger).Info("job created",
		logging.String(logging.FieldJobID, id),
		logging.String("label", label),
		logging.String("audio_path", audioPath),
		logging.String(logging.FieldEventType, "job_created"),
	)
	if err := m.Dispatch(ctx, id); err != nil {
		return id, err
	}
	return id, nil
}

// Retry resets a failed job to pending. It does not dispatch, but it
// refuses to reset anything while the manager is stopped.
func (m *Manager) Retry(ctx context.Context, id string) error {
	m.mu.Lock()
	running := m.running
	_, busy := m.active[id]
	m.mu.Unlock()
	switch {
	case !running:
		return ErrNotRunning
	case busy:
		return ErrJobActive
	}
	if err := m.store.ClearForRetry(ctx, id); err != nil {
		return err
	}
	logging.WithContext(ctx, m.logger).Info("job reset for retry",
		logging.String(logging.FieldJobID, id),
		logging.String(logging.FieldEventType, "job_retry"),
	)
	return nil
}

// Get returns a job snapshot.
func (m *Manager) Get(ctx context.Context, id string) (*jobs.Job, error) {
	return m.store.Get(ctx, id)
}

// List returns jobs newest first, optionally filtered by status.
func (m *Manager) List(ctx context.Context, statuses ...jobs.Status) ([]*jobs.Job, error) {
	return m.store.List(ctx, statuses...)
}

func (m *Manager) isRunning() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

