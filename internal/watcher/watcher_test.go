package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

func TestIsAudioFile(t *testing.T) {
	tests := map[string]bool{
		"/in/standup.mp3":   true,
		"/in/Board.M4A":     true,
		"/in/call.webm":     true,
		"/in/notes.txt":     false,
		"/in/.partial.mp3":  false,
		"/in/archive.mp3.z": false,
	}
	for path, want := range tests {
		if got := IsAudioFile(path); got != want {
			t.Fatalf("IsAudioFile(%q) = %v, want %v", path, got, want)
		}
	}
}

func TestWatcherHandsOverSettledAudio(t *testing.T) {
	dir := t.TempDir()
	var (
		mu   sync.Mutex
		seen []string
	)
	got := make(chan string, 4)
	w, err := New(dir, 50*time.Millisecond, func(_ context.Context, path string) error {
		mu.Lock()
		seen = append(seen, path)
		mu.Unlock()
		got <- path
		return nil
	}, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()
	time.Sleep(20 * time.Millisecond)

	audio := filepath.Join(dir, "meeting.mp3")
	if err := os.WriteFile(audio, []byte("part1"), 0o644); err != nil {
		t.Fatalf("write audio: %v", err)
	}
	f, err := os.OpenFile(audio, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatalf("open audio: %v", err)
	}
	_, _ = f.WriteString("part2")
	_ = f.Close()
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o644); err != nil {
		t.Fatalf("write notes: %v", err)
	}

	select {
	case path := <-got:
		if path != audio {
			t.Fatalf("unexpected path %q", path)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("handler was not called")
	}

	// A later write to the same file must not enqueue it twice.
	if err := os.WriteFile(audio, []byte("rewrite"), 0o644); err != nil {
		t.Fatalf("rewrite audio: %v", err)
	}
	time.Sleep(200 * time.Millisecond)

	cancel()
	if err := <-done; err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	mu.Lock()
	defer mu.Unlock()
	if len(seen) != 1 {
		t.Fatalf("expected exactly one handoff, got %v", seen)
	}
}

func TestNewRequiresExistingDir(t *testing.T) {
	_, err := New(filepath.Join(t.TempDir(), "missing"), time.Millisecond, func(context.Context, string) error { return nil }, nil)
	if err == nil {
		t.Fatal("expected error for missing directory")
	}
}
