package daemonrun

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"meetnotes/internal/config"
	"meetnotes/internal/daemon"
	"meetnotes/internal/jobs"
	"meetnotes/internal/logging"
	"meetnotes/internal/notifications"
	"meetnotes/internal/preflight"
	"meetnotes/internal/recorder"
	"meetnotes/internal/workflow"
)

// Options configures daemon process runtime behavior.
type Options struct {
	LogLevel    string
	Development bool
}

// Run starts the meetnotes daemon and blocks until SIGINT/SIGTERM or ctx
// cancellation, then shuts down within the configured timeout.
func Run(cmdCtx context.Context, cfg *config.Config, opts Options) error {
	if cfg == nil {
		return fmt.Errorf("config is required")
	}

	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := cfg.EnsureDirectories(); err != nil {
		return fmt.Errorf("ensure directories: %w", err)
	}

	logCfg := *cfg
	if opts.LogLevel != "" {
		logCfg.Logging.Level = opts.LogLevel
	}
	logger, err := logging.NewFromConfig(&logCfg, opts.Development)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	pidPath := filepath.Join(cfg.Paths.StateDir, "meetnotes.pid")
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("write pid file: %w", err)
	}
	defer os.Remove(pidPath)

	logPreflight(signalCtx, logger, cfg)

	store, err := jobs.Open(cfg)
	if err != nil {
		logger.Error("open job store", logging.Error(err))
		return err
	}

	stages, err := workflow.StagesFromConfig(cfg, logger)
	if err != nil {
		_ = store.Close()
		return fmt.Errorf("configure pipeline: %w", err)
	}
	notifier := notifications.NewService(cfg)
	manager := workflow.NewManager(cfg, store, stages, notifier, logger)
	rec := recorder.New(cfg, logger)

	d, err := daemon.New(cfg, store, manager, rec, logger)
	if err != nil {
		_ = store.Close()
		return fmt.Errorf("create daemon: %w", err)
	}
	if err := d.Start(signalCtx); err != nil {
		_ = store.Close()
		logging.ErrorWithContext(logger, "daemon start failed", "daemon_start_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check for another running daemon and the api_bind address"),
		)
		return err
	}

	<-signalCtx.Done()
	logger.Info("meetnotes daemon shutting down", logging.String(logging.FieldEventType, "daemon_shutdown"))
	return shutdown(d, logger, time.Duration(cfg.Workflow.ShutdownTimeout)*time.Second)
}

// shutdown closes the daemon, giving in-flight jobs up to timeout to record
// their interruption.
func shutdown(d *daemon.Daemon, logger *slog.Logger, timeout time.Duration) error {
	done := make(chan error, 1)
	go func() { done <- d.Close() }()
	select {
	case err := <-done:
		return err
	case <-time.After(timeout):
		logging.ErrorWithContext(logger, "shutdown timed out", "shutdown_timeout",
			logging.Duration("timeout", timeout),
			logging.String(logging.FieldErrorHint, "jobs left in flight are marked failed on next start"),
		)
		return fmt.Errorf("shutdown timed out after %s", timeout)
	}
}

func logPreflight(ctx context.Context, logger *slog.Logger, cfg *config.Config) {
	results := preflight.RunAll(ctx, cfg)
	failed := preflight.Failed(results)
	for _, result := range failed {
		logging.WarnWithContext(logger, "preflight check failed", "preflight_failed",
			logging.String("check", result.Name),
			logging.String("detail", result.Detail),
			logging.String(logging.FieldErrorHint, "run meetnotes doctor for a full report"),
		)
	}
	logger.Info("preflight snapshot",
		logging.Int("checks", len(results)),
		logging.Int("failed", len(failed)),
		logging.String(logging.FieldEventType, "preflight_snapshot"),
	)
}

func writePIDFile(path string) error {
	if path == "" {
		return nil
	}
	value := strconv.Itoa(os.Getpid()) + "\n"
	return os.WriteFile(path, []byte(value), 0o644)
}
