package watcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"meetnotes/internal/logging"
)

// AudioExtensions lists the file types picked up from the inbox.
var AudioExtensions = []string{".mp3", ".wav", ".m4a", ".ogg", ".flac", ".webm"}

// Handler is called once per settled audio file.
type Handler func(ctx context.Context, path string) error

// Watcher turns audio files dropped into a directory into handler calls. A
// file is handed over once no write event has arrived for the settle delay.
type Watcher struct {
	dir     string
	settle  time.Duration
	handler Handler
	logger  *slog.Logger

	fs *fsnotify.Watcher

	mu      sync.Mutex
	pending map[string]*time.Timer
	seen    map[string]struct{}
	wg      sync.WaitGroup
}

// New creates a watcher on dir. The directory must exist.
func New(dir string, settle time.Duration, handler Handler, logger *slog.Logger) (*Watcher, error) {
	if handler == nil {
		return nil, errors.New("watcher: handler required")
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := fsw.Add(dir); err != nil {
		_ = fsw.Close()
		return nil, fmt.Errorf("add watch path: %w", err)
	}
	return &Watcher{
		dir:     dir,
		settle:  settle,
		handler: handler,
		logger:  logging.NewComponentLogger(logger, "watcher"),
		fs:      fsw,
		pending: make(map[string]*time.Timer),
		seen:    make(map[string]struct{}),
	}, nil
}

// Run processes events until ctx is cancelled, then waits for in-flight
// handler calls and closes the underlying watcher.
func (w *Watcher) Run(ctx context.Context) error {
	w.logger.Info("inbox watcher started",
		logging.String("dir", w.dir),
		logging.Duration("settle", w.settle),
	)
	defer func() {
		w.stopTimers()
		w.wg.Wait()
		_ = w.fs.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-w.fs.Events:
			if !ok {
				return errors.New("watcher events channel closed")
			}
			w.handleEvent(ctx, event)
		case err, ok := <-w.fs.Errors:
			if !ok {
				return errors.New("watcher errors channel closed")
			}
			logging.WarnWithContext(w.logger, "inbox watcher error", "watcher_error",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "new recordings may be missed; check inbox_dir"),
			)
		}
	}
}

func (w *Watcher) handleEvent(ctx context.Context, event fsnotify.Event) {
	if !IsAudioFile(event.Name) {
		return
	}
	switch {
	case event.Has(fsnotify.Create), event.Has(fsnotify.Write):
		w.schedule(ctx, event.Name)
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		w.cancel(event.Name)
	}
}

// schedule (re)arms the settle timer for path.
func (w *Watcher) schedule(ctx context.Context, path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, done := w.seen[path]; done {
		return
	}
	if timer, ok := w.pending[path]; ok {
		timer.Reset(w.settle)
		return
	}
	w.pending[path] = time.AfterFunc(w.settle, func() { w.fire(ctx, path) })
}

func (w *Watcher) cancel(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if timer, ok := w.pending[path]; ok {
		timer.Stop()
		delete(w.pending, path)
	}
}

func (w *Watcher) fire(ctx context.Context, path string) {
	w.mu.Lock()
	if _, ok := w.pending[path]; !ok || ctx.Err() != nil {
		w.mu.Unlock()
		return
	}
	delete(w.pending, path)
	w.seen[path] = struct{}{}
	w.wg.Add(1)
	w.mu.Unlock()
	defer w.wg.Done()

	w.logger.Info("new recording in inbox",
		logging.String("path", path),
		logging.String(logging.FieldEventType, "inbox_file"),
	)
	if err := w.handler(ctx, path); err != nil {
		logging.ErrorWithContext(w.logger, "failed to enqueue inbox recording", "inbox_enqueue_failed",
			logging.String("path", path),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "enqueue it manually with meetnotes jobs add"),
		)
	}
}

func (w *Watcher) stopTimers() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for path, timer := range w.pending {
		timer.Stop()
		delete(w.pending, path)
	}
}

// IsAudioFile reports whether path has a supported audio extension. Hidden
// and partial-download files are ignored.
func IsAudioFile(path string) bool {
	base := filepath.Base(path)
	if strings.HasPrefix(base, ".") {
		return false
	}
	ext := strings.ToLower(filepath.Ext(base))
	for _, candidate := range AudioExtensions {
		if ext == candidate {
			return true
		}
	}
	return false
}
