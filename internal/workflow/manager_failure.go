package workflow

import (
	"context"
	"strings"
	"time"

	"meetnotes/internal/jobs"
	"meetnotes/internal/logging"
	"meetnotes/internal/services"
)

const notifyTimeout = 15 * time.Second

// fail records a stage failure. Failures caused by Stop are stored as
// ShutdownInterruptedMessage; everything else keeps the error text verbatim.
func (m *Manager) fail(ctx context.Context, job *jobs.Job, stageName string, stageErr error) {
	shutdown := m.stopping(ctx)
	message := ShutdownInterruptedMessage
	if !shutdown {
		message = failureMessage(stageName, stageErr)
	}

	logger := logging.WithContext(services.WithStage(ctx, stageName), m.logger)
	if shutdown {
		logging.WarnWithContext(logger, "job interrupted by shutdown", "job_interrupted",
			logging.String(logging.FieldErrorHint, "retry with meetnotes jobs retry after restart"),
		)
	} else {
		logging.ErrorWithContext(logger, "stage failed", "stage_failure",
			logging.Error(stageErr),
			logging.String("error_kind", services.Kind(stageErr)),
			logging.String(logging.FieldErrorHint, services.Hint(stageErr)),
		)
	}

	m.mu.Lock()
	m.lastErr = stageErr
	m.mu.Unlock()

	persistCtx := context.WithoutCancel(ctx)
	if err := m.store.SetError(persistCtx, job.ID, message); err != nil {
		logger.Error("failed to persist job failure",
			logging.Error(err),
			logging.String(logging.FieldEventType, "job_persist_failed"),
			logging.String(logging.FieldErrorHint, "check the job database"),
		)
		return
	}
	if !shutdown {
		m.notifyFailed(persistCtx, job, stageName, message)
	}
}

// stopping reports whether the failure came from Stop cancelling the run
// context. The flag is set before cancel runs.
func (m *Manager) stopping(ctx context.Context) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.shuttingDown && ctx.Err() != nil
}

func failureMessage(stageName string, err error) string {
	if err == nil {
		return stageName + " failed without error detail"
	}
	if message := strings.TrimSpace(err.Error()); message != "" {
		return message
	}
	return stageName + " failed"
}

func (m *Manager) notifyCompleted(ctx context.Context, job *jobs.Job, elapsed time.Duration) {
	notifyCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
	defer cancel()
	if err := m.notifier.NotifyJobCompleted(notifyCtx, job.Label, elapsed); err != nil {
		m.logger.Warn("completion notification failed", logging.Error(err))
	}
}

func (m *Manager) notifyFailed(ctx context.Context, job *jobs.Job, stageName, message string) {
	notifyCtx, cancel := context.WithTimeout(ctx, notifyTimeout)
	defer cancel()
	if err := m.notifier.NotifyJobFailed(notifyCtx, job.Label, stageName, message); err != nil {
		m.logger.Warn("failure notification failed", logging.Error(err))
	}
}
