package recorder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"meetnotes/internal/config"
	"meetnotes/internal/logging"
)

const (
	fileLayout  = "20060102_150405"
	labelLayout = "2006-01-02 15:04"
	stopTimeout = 10 * time.Second
)

var (
	// ErrAlreadyRecording is returned by Start while a capture is running.
	ErrAlreadyRecording = errors.New("recorder: already recording")
	// ErrNotRecording is returned by Stop when no capture was started.
	ErrNotRecording = errors.New("recorder: not recording")
)

// Process is a running capture.
type Process interface {
	// Interrupt asks the process to finish writing and exit.
	Interrupt() error
	Kill() error
	// Done is closed once the process has exited.
	Done() <-chan struct{}
}

// Launcher starts name with args.
type Launcher func(name string, args []string) (Process, error)

// Recorder captures microphone audio to MP3 files with ffmpeg. At most one
// capture runs at a time.
type Recorder struct {
	cfg    config.Recorder
	dir    string
	ffmpeg string
	logger *slog.Logger
	launch Launcher
	now    func() time.Time

	mu      sync.Mutex
	proc    Process
	path    string
	started time.Time
}

// New builds a recorder writing into cfg.Paths.RecordingsDir.
func New(cfg *config.Config, logger *slog.Logger) *Recorder {
	return &Recorder{
		cfg:    cfg.Recorder,
		dir:    cfg.Paths.RecordingsDir,
		ffmpeg: cfg.FFmpegBinary(),
		logger: logging.NewComponentLogger(logger, "recorder"),
		launch: launchCommand,
		now:    time.Now,
	}
}

// WithLauncher substitutes the subprocess launcher (for tests).
func (r *Recorder) WithLauncher(fn Launcher) *Recorder {
	r.launch = fn
	return r
}

// WithClock substitutes the clock used to name recordings.
func (r *Recorder) WithClock(now func() time.Time) *Recorder {
	r.now = now
	return r
}

// Start begins capturing and returns the output path.
func (r *Recorder) Start() (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.proc != nil && running(r.proc) {
		return "", ErrAlreadyRecording
	}
	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		return "", fmt.Errorf("recorder: ensure recordings dir: %w", err)
	}

	started := r.now()
	path := filepath.Join(r.dir, "meeting_"+started.Format(fileLayout)+".mp3")
	proc, err := r.launch(r.ffmpeg, r.args(path))
	if err != nil {
		return "", fmt.Errorf("recorder: start ffmpeg: %w", err)
	}
	r.proc, r.path, r.started = proc, path, started
	r.logger.Info("recording started",
		logging.String("path", path),
		logging.String("device", r.cfg.Device),
		logging.String(logging.FieldEventType, "recording_started"),
	)
	return path, nil
}

// Stop ends the capture and returns the recording path. It waits for ffmpeg
// to finalize the file, killing it if it does not exit in time.
func (r *Recorder) Stop() (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.proc == nil {
		return "", ErrNotRecording
	}
	proc, path, started := r.proc, r.path, r.started
	r.proc, r.path = nil, ""

	if running(proc) {
		if err := proc.Interrupt(); err != nil {
			r.logger.Warn("interrupt ffmpeg failed; killing", logging.Error(err))
			_ = proc.Kill()
		}
		select {
		case <-proc.Done():
		case <-time.After(stopTimeout):
			logging.WarnWithContext(r.logger, "ffmpeg did not exit after interrupt; killed", "recording_kill",
				logging.String("path", path),
				logging.String(logging.FieldErrorHint, "the recording may be truncated"),
			)
			_ = proc.Kill()
			<-proc.Done()
		}
	}
	r.logger.Info("recording stopped",
		logging.String("path", path),
		logging.Duration("duration", r.now().Sub(started).Round(time.Second)),
		logging.String(logging.FieldEventType, "recording_stopped"),
	)
	return path, nil
}

// IsRecording reports whether a capture process is running.
func (r *Recorder) IsRecording() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.proc != nil && running(r.proc)
}

// Current returns the path being recorded, or "" when idle.
func (r *Recorder) Current() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.proc == nil || !running(r.proc) {
		return ""
	}
	return r.path
}

func (r *Recorder) args(path string) []string {
	return []string{
		"-hide_banner", "-loglevel", "error", "-y",
		"-f", r.cfg.InputFormat,
		"-i", r.cfg.Device,
		"-ar", strconv.Itoa(r.cfg.SampleRate),
		"-ac", strconv.Itoa(r.cfg.Channels),
		path,
	}
}

// LabelFromPath derives a human label from a recording file name:
// meeting_20260218_103000.mp3 becomes "2026-02-18 10:30". Other names yield
// the file name without its extension.
func LabelFromPath(path string) string {
	base := filepath.Base(path)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	if ts, ok := strings.CutPrefix(stem, "meeting_"); ok {
		if when, err := time.ParseInLocation(fileLayout, ts, time.Local); err == nil {
			return when.Format(labelLayout)
		}
		if when, err := time.ParseInLocation("20060102_1504", ts, time.Local); err == nil {
			return when.Format(labelLayout)
		}
	}
	return stem
}

func running(p Process) bool {
	select {
	case <-p.Done():
		return false
	default:
		return true
	}
}

type cmdProcess struct {
	cmd  *exec.Cmd
	done chan struct{}
}

func launchCommand(name string, args []string) (Process, error) {
	// Not bound to a request context: the capture outlives the HTTP call that starts it.
	cmd := exec.CommandContext(context.Background(), name, args...) //nolint:gosec
	if err := cmd.Start(); err != nil {
		return nil, err
	}
	p := &cmdProcess{cmd: cmd, done: make(chan struct{})}
	go func() {
		_ = cmd.Wait()
		close(p.done)
	}()
	return p, nil
}

func (p *cmdProcess) Interrupt() error { return p.cmd.Process.Signal(syscall.SIGTERM) }

func (p *cmdProcess) Kill() error { return p.cmd.Process.Kill() }

func (p *cmdProcess) Done() <-chan struct{} { return p.done }
