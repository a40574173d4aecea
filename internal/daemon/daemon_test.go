package daemon_test

import (
	"context"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofrs/flock"

	"meetnotes/internal/api"
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
	return transcribe.Result{Text: "We agreed to ship on Friday."}, nil
}

type stubSummarizer struct{}

func (stubSummarizer) Summarize(context.Context, string, bool) (string, error) {
	return "- Ship on Friday", nil
}

type stubSender struct {
	mu    sync.Mutex
	err   error
	sends int
}

func (s *stubSender) Send(context.Context, string, string, string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.sends++
	return nil
}

func (s *stubSender) setErr(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

type fakeCapture struct {
	done chan struct{}
	once sync.Once
}

func (p *fakeCapture) Interrupt() error { p.once.Do(func() { close(p.done) }); return nil }
func (p *fakeCapture) Kill() error      { p.once.Do(func() { close(p.done) }); return nil }
func (p *fakeCapture) Done() <-chan struct{} {
	return p.done
}

// fakeLauncher writes a placeholder file at the output path, like ffmpeg would.
func fakeLauncher(t *testing.T) recorder.Launcher {
	return func(_ string, args []string) (recorder.Process, error) {
		testsupport.WriteFile(t, args[len(args)-1], 2048)
		return &fakeCapture{done: make(chan struct{})}, nil
	}
}

type fixture struct {
	cfg    *config.Config
	store  *jobs.Store
	sender *stubSender
	daemon *daemon.Daemon
	client *api.Client
}

func newFixture(t *testing.T, opts ...testsupport.ConfigOption) *fixture {
	t.Helper()
	cfg := testsupport.NewConfig(t, opts...)
	return newFixtureWithConfig(t, cfg)
}

func newFixtureWithConfig(t *testing.T, cfg *config.Config) *fixture {
	t.Helper()
	store := testsupport.MustOpenStore(t, cfg)
	sender := &stubSender{}
	mgr := workflow.NewManager(cfg, store, workflow.Stages{
		Transcriber: stubTranscriber{},
		Summarizer:  stubSummarizer{},
		Sender:      sender,
	}, nil, logging.NewNop())
	rec := recorder.New(cfg, logging.NewNop()).
		WithClock(func() time.Time { return time.Date(2026, 2, 18, 10, 30, 0, 0, time.Local) }).
		WithLauncher(fakeLauncher(t))
	d, err := daemon.New(cfg, store, mgr, rec, logging.NewNop())
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	return &fixture{cfg: cfg, store: store, sender: sender, daemon: d}
}

func (f *fixture) start(t *testing.T) {
	t.Helper()
	if err := f.daemon.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(f.daemon.Stop)
	client, err := api.NewClient(f.daemon.APIAddr(), f.cfg.Paths.APIToken)
	if err != nil {
		t.Fatalf("api.NewClient: %v", err)
	}
	f.client = client
}

// waitIdle blocks until no pipeline goroutine holds a job.
func (f *fixture) waitIdle(t *testing.T) {
	t.Helper()
	deadline := time.Now().Add(waitTimeout)
	for time.Now().Before(deadline) {
		if len(f.daemon.Status(context.Background()).Workflow.ActiveJobs) == 0 {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("workflow still has active jobs")
}

func statusCode(t *testing.T, err error) int {
	t.Helper()
	var statusErr *api.StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("expected api.StatusError, got %v", err)
	}
	return statusErr.StatusCode
}

func TestDaemonStartStopAndLock(t *testing.T) {
	f := newFixture(t)
	f.start(t)

	status, err := f.client.Status(context.Background())
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if !status.Running || !status.Workflow.Running {
		t.Fatalf("expected running daemon, got %+v", status)
	}
	if status.LockFilePath != f.cfg.LockPath() {
		t.Fatalf("lock path = %q", status.LockFilePath)
	}

	second := newFixtureWithConfig(t, f.cfg)
	if err := second.daemon.Start(context.Background()); err == nil || !strings.Contains(err.Error(), "already running") {
		t.Fatalf("expected single-instance error, got %v", err)
	}

	f.daemon.Stop()
	lock := flock.New(f.cfg.LockPath())
	ok, err := lock.TryLock()
	if err != nil || !ok {
		t.Fatalf("expected lock released after Stop, ok=%v err=%v", ok, err)
	}
	_ = lock.Unlock()
}

type blockingTranscriber struct{}

func (blockingTranscriber) Transcribe(ctx context.Context, _ string) (transcribe.Result, error) {
	<-ctx.Done()
	return transcribe.Result{}, ctx.Err()
}

func TestDaemonShutdownAfterSignalMarksJobsInterrupted(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	mgr := workflow.NewManager(cfg, store, workflow.Stages{
		Transcriber: blockingTranscriber{},
		Summarizer:  stubSummarizer{},
		Sender:      &stubSender{},
	}, nil, logging.NewNop())
	d, err := daemon.New(cfg, store, mgr, recorder.New(cfg, logging.NewNop()), logging.NewNop())
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}

	signalCtx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := d.Start(signalCtx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	audio := testsupport.WriteAudio(t, cfg.Paths.RecordingsDir, "meeting.mp3")
	id, err := d.EnqueueFile(context.Background(), "standup", audio)
	if err != nil {
		t.Fatalf("EnqueueFile: %v", err)
	}
	testsupport.WaitForStatus(t, store, id, waitTimeout, jobs.StatusTranscribing)

	cancel()
	d.Stop()
	job, err := store.Get(context.Background(), id)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if job.Status != jobs.StatusError || job.Error != workflow.ShutdownInterruptedMessage {
		t.Fatalf("expected shutdown interruption, got %s %q", job.Status, job.Error)
	}
}

func TestAPIEnqueuesFileAndCompletes(t *testing.T) {
	f := newFixture(t)
	f.start(t)

	audio := testsupport.WriteAudio(t, f.cfg.Paths.RecordingsDir, "meeting_20260218_103000.mp3")
	id, err := f.client.CreateJob(context.Background(), api.CreateJobRequest{AudioPath: audio})
	if err != nil {
		t.Fatalf("CreateJob: %v", err)
	}

	testsupport.WaitForStatus(t, f.store, id, waitTimeout, jobs.StatusDone)
	job, err := f.client.GetJob(context.Background(), id)
	if err != nil {
		t.Fatalf("GetJob: %v", err)
	}
	if job.Label != "2026-02-18 10:30" {
		t.Fatalf("label = %q", job.Label)
	}
	if job.Summary != "- Ship on Friday" || job.TranscriptPath == "" {
		t.Fatalf("unexpected job %+v", job)
	}

	listed, err := f.client.ListJobs(context.Background(), "done")
	if err != nil {
		t.Fatalf("ListJobs: %v", err)
	}
	if len(listed) != 1 || listed[0].ID != id {
		t.Fatalf("unexpected listing %+v", listed)
	}
}

func TestAPIRejectsInvalidAudio(t *testing.T) {
	f := newFixture(t)
	f.start(t)

	notes := filepath.Join(t.TempDir(), "notes.txt")
	testsupport.WriteFile(t, notes, 10)
	cases := map[string]string{
		"missing":   filepath.Join(t.TempDir(), "absent.mp3"),
		"directory": t.TempDir(),
		"extension": notes,
		"blank":     "  ",
	}
	for name, path := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := f.client.CreateJob(context.Background(), api.CreateJobRequest{AudioPath: path})
			if code := statusCode(t, err); code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", code)
			}
		})
	}

	list, err := f.store.List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 0 {
		t.Fatalf("expected no jobs stored, got %d", len(list))
	}
}

func TestAPIUnknownJobAndBadFilter(t *testing.T) {
	f := newFixture(t)
	f.start(t)

	_, err := f.client.GetJob(context.Background(), "does-not-exist")
	if code := statusCode(t, err); code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", code)
	}
	_, err = f.client.RetryJob(context.Background(), "does-not-exist")
	if code := statusCode(t, err); code != http.StatusNotFound {
		t.Fatalf("retry status = %d, want 404", code)
	}
	_, err = f.client.ListJobs(context.Background(), "finished")
	if code := statusCode(t, err); code != http.StatusBadRequest {
		t.Fatalf("filter status = %d, want 400", code)
	}
}

func TestAPIRetryRedispatchesFailedJob(t *testing.T) {
	f := newFixture(t)
	f.start(t)
	f.sender.setErr(errors.New("smtp: 421 try later"))

	audio := testsupport.WriteAudio(t, t.TempDir(), "standup.wav")
	id, err := f.client.CreateJob(context.Background(), api.CreateJobRequest{Label: "standup", AudioPath: audio})
	if err != nil {
		t.Fatalf("CreateJob: %v", err)
	}
	failed := testsupport.WaitForStatus(t, f.store, id, waitTimeout, jobs.StatusError)
	if failed.Error != "smtp: 421 try later" {
		t.Fatalf("error = %q", failed.Error)
	}

	f.waitIdle(t)
	f.sender.setErr(nil)
	if _, err := f.client.RetryJob(context.Background(), id); err != nil {
		t.Fatalf("RetryJob: %v", err)
	}
	done := testsupport.WaitForStatus(t, f.store, id, waitTimeout, jobs.StatusDone)
	if done.Attempts != 2 || done.Error != "" {
		t.Fatalf("unexpected job after retry %+v", done)
	}

	_, err = f.client.RetryJob(context.Background(), id)
	if code := statusCode(t, err); code != http.StatusConflict {
		t.Fatalf("retry of done job status = %d, want 409", code)
	}
}

func TestAPIRecordingStartStop(t *testing.T) {
	f := newFixture(t)
	f.start(t)
	ctx := context.Background()

	started, err := f.client.StartRecording(ctx)
	if err != nil {
		t.Fatalf("StartRecording: %v", err)
	}
	if filepath.Base(started.Path) != "meeting_20260218_103000.mp3" {
		t.Fatalf("recording path = %q", started.Path)
	}
	_, err = f.client.StartRecording(ctx)
	if code := statusCode(t, err); code != http.StatusConflict {
		t.Fatalf("second start status = %d, want 409", code)
	}

	status, err := f.client.Status(ctx)
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if !status.Recording.Active || status.Recording.Path != started.Path {
		t.Fatalf("unexpected recording status %+v", status.Recording)
	}

	stopped, err := f.client.StopRecording(ctx)
	if err != nil {
		t.Fatalf("StopRecording: %v", err)
	}
	if stopped.JobID == "" || stopped.Path != started.Path {
		t.Fatalf("unexpected stop response %+v", stopped)
	}
	job := testsupport.WaitForStatus(t, f.store, stopped.JobID, waitTimeout, jobs.StatusDone)
	if job.Label != "2026-02-18 10:30" {
		t.Fatalf("label = %q", job.Label)
	}

	_, err = f.client.StopRecording(ctx)
	if code := statusCode(t, err); code != http.StatusConflict {
		t.Fatalf("stop while idle status = %d, want 409", code)
	}
}

func TestAPIRequiresBearerToken(t *testing.T) {
	f := newFixture(t, testsupport.WithAPIToken("s3cret"))
	f.start(t)

	if _, err := f.client.Status(context.Background()); err != nil {
		t.Fatalf("authorized Status: %v", err)
	}

	anonymous, err := api.NewClient(f.daemon.APIAddr(), "")
	if err != nil {
		t.Fatalf("api.NewClient: %v", err)
	}
	_, err = anonymous.Status(context.Background())
	if code := statusCode(t, err); code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", code)
	}
}

func TestAPIEchoesRequestID(t *testing.T) {
	f := newFixture(t)
	f.start(t)

	req, err := http.NewRequest(http.MethodGet, "http://"+f.daemon.APIAddr()+"/api/status", nil)
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	req.Header.Set("X-Request-ID", "req-42")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET /api/status: %v", err)
	}
	resp.Body.Close()
	if got := resp.Header.Get("X-Request-ID"); got != "req-42" {
		t.Fatalf("X-Request-ID = %q", got)
	}

	resp, err = http.Post("http://"+f.daemon.APIAddr()+"/api/status", "application/json", nil)
	if err != nil {
		t.Fatalf("POST /api/status: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d, want 405", resp.StatusCode)
	}
	if resp.Header.Get("X-Request-ID") == "" {
		t.Fatal("expected generated request id")
	}
}

func TestInboxWatcherEnqueuesNewRecordings(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Workflow.WatchInbox = true
	cfg.Workflow.InboxSettleMS = 50
	if err := os.MkdirAll(cfg.Paths.InboxDir, 0o755); err != nil {
		t.Fatalf("mkdir inbox: %v", err)
	}
	f := newFixtureWithConfig(t, cfg)
	f.start(t)

	status, err := f.client.Status(context.Background())
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if !status.InboxWatched {
		t.Fatal("expected inbox to be watched")
	}

	testsupport.WriteAudio(t, cfg.Paths.InboxDir, "retro.m4a")
	testsupport.WriteFile(t, filepath.Join(cfg.Paths.InboxDir, "agenda.txt"), 10)

	deadline := time.Now().Add(waitTimeout)
	var list []*jobs.Job
	for time.Now().Before(deadline) {
		list, err = f.store.List(context.Background(), jobs.StatusDone)
		if err != nil {
			t.Fatalf("List: %v", err)
		}
		if len(list) > 0 {
			break
		}
		time.Sleep(20 * time.Millisecond)
	}
	if len(list) != 1 {
		t.Fatalf("expected one finished job from the inbox, got %d", len(list))
	}
	if list[0].Label != "retro" {
		t.Fatalf("label = %q", list[0].Label)
	}
	all, _ := f.store.List(context.Background())
	if len(all) != 1 {
		t.Fatalf("expected non-audio file to be ignored, got %d jobs", len(all))
	}
}
