package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"

	"meetnotes/internal/config"
	"meetnotes/internal/jobs"
	"meetnotes/internal/logging"
	"meetnotes/internal/recorder"
	"meetnotes/internal/watcher"
	"meetnotes/internal/workflow"
)

// ErrInvalidAudio reports an enqueue request for a path that is not a
// readable audio file.
var ErrInvalidAudio = errors.New("invalid audio file")

// Daemon coordinates the background processing services and enforces
// single-instance execution.
type Daemon struct {
	cfg      *config.Config
	logger   *slog.Logger
	store    *jobs.Store
	workflow *workflow.Manager
	recorder *recorder.Recorder
	api      *apiServer

	lockPath string
	lock     *flock.Flock

	running      atomic.Bool
	inboxWatched atomic.Bool
	ctx          context.Context
	cancel       context.CancelFunc
	watchWG      sync.WaitGroup
}

// Status represents daemon runtime information.
type Status struct {
	Running       bool
	PID           int
	Workflow      workflow.StatusSummary
	Recording     bool
	RecordingPath string
	InboxWatched  bool
	DatabasePath  string
	LockFilePath  string
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, store *jobs.Store, wf *workflow.Manager, rec *recorder.Recorder, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || store == nil || wf == nil || rec == nil {
		return nil, errors.New("daemon requires config, store, workflow manager, and recorder")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	d := &Daemon{
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "daemon"),
		store:    store,
		workflow: wf,
		recorder: rec,
		lockPath: cfg.LockPath(),
		lock:     flock.New(cfg.LockPath()),
	}
	d.api = newAPIServer(cfg, d, logger)
	return d, nil
}

// Start acquires the daemon lock, resolves interrupted jobs, and begins
// serving the API and watching the inbox.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another meetnotes daemon instance is already running")
	}

	d.ctx, d.cancel = context.WithCancel(ctx)
	if err := d.workflow.Start(d.ctx); err != nil {
		d.abortStart()
		return fmt.Errorf("start workflow: %w", err)
	}
	if err := d.api.start(d.ctx); err != nil {
		d.workflow.Stop()
		d.abortStart()
		return err
	}
	if d.cfg.Workflow.WatchInbox {
		if err := d.startInboxWatcher(); err != nil {
			logging.WarnWithContext(d.logger, "inbox watcher unavailable", "watcher_start_failed",
				logging.Error(err),
				logging.String("inbox_dir", d.cfg.Paths.InboxDir),
				logging.String(logging.FieldErrorHint, "check paths.inbox_dir exists and is readable"),
			)
		}
	}

	d.running.Store(true)
	d.logger.Info("meetnotes daemon started",
		logging.String("lock", d.lockPath),
		logging.String("api", d.APIAddr()),
		logging.Bool("inbox_watched", d.inboxWatched.Load()),
		logging.String(logging.FieldEventType, "daemon_started"),
	)
	return nil
}

func (d *Daemon) abortStart() {
	d.cancel()
	d.ctx, d.cancel = nil, nil
	_ = d.lock.Unlock()
}

// Stop stops background processing and releases the daemon lock. An active
// recording is finalized but not enqueued.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	if d.recorder.IsRecording() {
		if path, err := d.recorder.Stop(); err == nil {
			logging.WarnWithContext(d.logger, "recording stopped by shutdown; not enqueued", "recording_abandoned",
				logging.String("path", path),
				logging.String(logging.FieldErrorHint, "enqueue it with meetnotes jobs add "+path),
			)
		}
	}
	d.api.stop()
	d.workflow.Stop()
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.watchWG.Wait()
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.ctx = nil
	d.inboxWatched.Store(false)
	d.running.Store(false)
	d.logger.Info("meetnotes daemon stopped", logging.String(logging.FieldEventType, "daemon_stopped"))
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	if d.store != nil {
		return d.store.Close()
	}
	return nil
}

// APIAddr returns the address the API is listening on, or "" before Start.
func (d *Daemon) APIAddr() string {
	return d.api.addr()
}

func (d *Daemon) startInboxWatcher() error {
	settle := time.Duration(d.cfg.Workflow.InboxSettleMS) * time.Millisecond
	w, err := watcher.New(d.cfg.Paths.InboxDir, settle, d.enqueueFromInbox, d.logger)
	if err != nil {
		return err
	}
	ctx := d.ctx
	d.inboxWatched.Store(true)
	d.watchWG.Add(1)
	go func() {
		defer d.watchWG.Done()
		if err := w.Run(ctx); err != nil {
			logging.ErrorWithContext(d.logger, "inbox watcher stopped", "watcher_failed", logging.Error(err))
		}
		d.inboxWatched.Store(false)
	}()
	return nil
}

func (d *Daemon) enqueueFromInbox(ctx context.Context, path string) error {
	_, err := d.EnqueueFile(ctx, "", path)
	return err
}

// EnqueueFile stores a job for an existing audio file and dispatches it. An
// empty label is derived from the file name. The job id is returned whenever
// the job was stored, even if dispatch failed.
func (d *Daemon) EnqueueFile(ctx context.Context, label, sourcePath string) (string, error) {
	trimmed := strings.TrimSpace(sourcePath)
	if trimmed == "" {
		return "", fmt.Errorf("%w: audio path is required", ErrInvalidAudio)
	}
	absPath, err := filepath.Abs(trimmed)
	if err != nil {
		return "", fmt.Errorf("%w: resolve %q: %v", ErrInvalidAudio, trimmed, err)
	}
	info, err := os.Stat(absPath)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidAudio, err)
	}
	if info.IsDir() {
		return "", fmt.Errorf("%w: %q is a directory", ErrInvalidAudio, absPath)
	}
	if !watcher.IsAudioFile(absPath) {
		return "", fmt.Errorf("%w: unsupported file extension %q", ErrInvalidAudio, filepath.Ext(absPath))
	}
	label = strings.TrimSpace(label)
	if label == "" {
		label = recorder.LabelFromPath(absPath)
	}
	return d.workflow.Create(ctx, label, absPath)
}

// RetryJob resets a failed job and dispatches it again.
func (d *Daemon) RetryJob(ctx context.Context, id string) (*jobs.Job, error) {
	if err := d.workflow.Retry(ctx, id); err != nil {
		return nil, err
	}
	if err := d.workflow.Dispatch(ctx, id); err != nil {
		return nil, err
	}
	return d.workflow.Get(ctx, id)
}

// StartRecording begins a microphone capture.
func (d *Daemon) StartRecording() (string, error) {
	return d.recorder.Start()
}

// StopRecording ends the capture and enqueues the finished file.
func (d *Daemon) StopRecording(ctx context.Context) (string, string, error) {
	path, err := d.recorder.Stop()
	if err != nil {
		return "", "", err
	}
	id, err := d.EnqueueFile(ctx, "", path)
	if err != nil {
		return path, id, fmt.Errorf("enqueue recording %s: %w", path, err)
	}
	return path, id, nil
}

// ListJobs returns jobs filtered by optional statuses.
func (d *Daemon) ListJobs(ctx context.Context, statuses []jobs.Status) ([]*jobs.Job, error) {
	return d.workflow.List(ctx, statuses...)
}

// GetJob returns a single job.
func (d *Daemon) GetJob(ctx context.Context, id string) (*jobs.Job, error) {
	return d.workflow.Get(ctx, id)
}

// Status returns the current daemon status.
func (d *Daemon) Status(ctx context.Context) Status {
	return Status{
		Running:       d.running.Load(),
		PID:           os.Getpid(),
		Workflow:      d.workflow.Status(ctx),
		Recording:     d.recorder.IsRecording(),
		RecordingPath: d.recorder.Current(),
		InboxWatched:  d.inboxWatched.Load(),
		DatabasePath:  d.store.Path(),
		LockFilePath:  d.lockPath,
	}
}
