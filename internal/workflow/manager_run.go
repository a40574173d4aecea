package workflow

import (
	"context"
	"errors"
	"fmt"

	"meetnotes/internal/jobs"
	"meetnotes/internal/logging"
	"meetnotes/internal/services"
)

// Start resolves jobs left in flight by a previous process and begins
// accepting dispatches. Pipelines outlive cancellation of ctx; only Stop
// interrupts them.
func (m *Manager) Start(ctx context.Context) error {
	if err := m.stages.validate(); err != nil {
		return err
	}
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return errors.New("workflow already running")
	}
	recovered, err := m.store.RecoverInterrupted(ctx)
	if err != nil {
		m.mu.Unlock()
		return fmt.Errorf("recover interrupted jobs: %w", err)
	}
	m.runCtx, m.cancel = context.WithCancel(context.WithoutCancel(ctx))
	m.running = true
	m.shuttingDown = false
	m.mu.Unlock()

	if recovered > 0 {
		logging.WarnWithContext(m.logger, "jobs interrupted by restart marked as failed", "jobs_recovered",
			logging.Int64("count", recovered),
			logging.String(logging.FieldErrorHint, "retry them with meetnotes jobs retry"),
		)
		if err := m.notifier.NotifyRecovered(ctx, recovered); err != nil {
			m.logger.Warn("recovery notification failed", logging.Error(err))
		}
	}
	m.logger.Info("workflow started", logging.String(logging.FieldEventType, "workflow_started"))
	return nil
}

// Stop cancels running pipelines and waits for them to record their outcome.
func (m *Manager) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	cancel := m.cancel
	m.running = false
	m.shuttingDown = true
	m.cancel = nil
	inFlight := len(m.active)
	m.mu.Unlock()

	cancel()
	m.wg.Wait()
	m.logger.Info("workflow stopped",
		logging.Int("interrupted", inFlight),
		logging.String(logging.FieldEventType, "workflow_stopped"),
	)
}

// Dispatch starts a background run for a pending job.
func (m *Manager) Dispatch(ctx context.Context, id string) error {
	job, err := m.store.Get(ctx, id)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.running {
		return ErrNotRunning
	}
	if _, busy := m.active[id]; busy {
		return ErrJobActive
	}
	if job.Status != jobs.StatusPending {
		return fmt.Errorf("%w: job %s is %s, not pending", jobs.ErrConflict, id, job.Status)
	}
	m.active[id] = m.now()
	m.wg.Add(1)
	go m.process(services.WithJobID(m.runCtx, id), job)
	return nil
}

func (m *Manager) finish(id string) {
	m.mu.Lock()
	delete(m.active, id)
	m.lastJobID = id
	m.mu.Unlock()
	m.wg.Done()
}
