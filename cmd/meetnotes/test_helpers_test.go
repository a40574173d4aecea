package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"meetnotes/internal/config"
	"meetnotes/internal/daemon"
	"meetnotes/internal/jobs"
	"meetnotes/internal/logging"
	"meetnotes/internal/recorder"
	"meetnotes/internal/testsupport"
	"meetnotes/internal/transcribe"
	"meetnotes/internal/workflow"
)

const waitTimeout = 5 * time.Second

type stubTranscriber struct{}

func (stubTranscriber) Transcribe(context.Context, string) (transcribe.Result, error) {
	return transcribe.Result{Text: "Budget review moves to Thursday."}, nil
}

type stubSummarizer struct{}

func (stubSummarizer) Summarize(context.Context, string, bool) (string, error) {
	return "- Budget review on Thursday\n- Maya owns the deck", nil
}

type stubSender struct{}

func (stubSender) Send(context.Context, string, string, string) error { return nil }

type fakeCapture struct {
	done chan struct{}
	once sync.Once
}

func (p *fakeCapture) Interrupt() error      { p.once.Do(func() { close(p.done) }); return nil }
func (p *fakeCapture) Kill() error           { p.once.Do(func() { close(p.done) }); return nil }
func (p *fakeCapture) Done() <-chan struct{} { return p.done }

type cliTestEnv struct {
	cfg        *config.Config
	store      *jobs.Store
	daemon     *daemon.Daemon
	configPath string
}

// setupCLITestEnv writes a config file and, when withDaemon is set, runs a
// daemon with stub stages on an ephemeral port the config points at.
func setupCLITestEnv(t *testing.T, withDaemon bool, opts ...testsupport.ConfigOption) *cliTestEnv {
	t.Helper()

	opts = append([]testsupport.ConfigOption{testsupport.WithStubbedBinaries()}, opts...)
	cfg := testsupport.NewConfig(t, opts...)
	t.Setenv("HOME", testsupport.BaseDir(cfg))
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}
	env := &cliTestEnv{
		cfg:        cfg,
		store:      testsupport.MustOpenStore(t, cfg),
		configPath: filepath.Join(testsupport.BaseDir(cfg), "config.toml"),
	}

	if withDaemon {
		mgr := workflow.NewManager(cfg, env.store, workflow.Stages{
			Transcriber: stubTranscriber{},
			Summarizer:  stubSummarizer{},
			Sender:      stubSender{},
		}, nil, logging.NewNop())
		rec := recorder.New(cfg, logging.NewNop()).
			WithClock(func() time.Time { return time.Date(2026, 3, 4, 9, 0, 0, 0, time.Local) }).
			WithLauncher(func(_ string, args []string) (recorder.Process, error) {
				testsupport.WriteFile(t, args[len(args)-1], 2048)
				return &fakeCapture{done: make(chan struct{})}, nil
			})
		d, err := daemon.New(cfg, env.store, mgr, rec, logging.NewNop())
		if err != nil {
			t.Fatalf("daemon.New: %v", err)
		}
		if err := d.Start(context.Background()); err != nil {
			t.Fatalf("daemon start: %v", err)
		}
		t.Cleanup(d.Stop)
		env.daemon = d
		cfg.Paths.APIBind = d.APIAddr()
	} else {
		// Nothing listens on the discard port.
		cfg.Paths.APIBind = "127.0.0.1:9"
	}

	writeTestConfig(t, env.configPath, cfg)
	return env
}

func (e *cliTestEnv) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	out, _, err := runCLI(t, args, e.configPath)
	return out, err
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	data, err := cfg.Marshal()
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func waitFor(t *testing.T, duration time.Duration, fn func() bool) {
	t.Helper()
	deadline := time.Now().Add(duration)
	for time.Now().Before(deadline) {
		if fn() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("condition not met within %s", duration)
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}

func queuedJobID(t *testing.T, output string) string {
	t.Helper()
	for _, line := range strings.Split(output, "\n") {
		if id, ok := strings.CutPrefix(line, "Queued job "); ok {
			return strings.TrimSpace(id)
		}
	}
	t.Fatalf("no queued job in %q", output)
	return ""
}
