package transcribe

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"meetnotes/internal/config"
	"meetnotes/internal/services"
)

func writeAudio(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "meeting_20260218_103000.mp3")
	if err := os.WriteFile(path, []byte("ID3 fake audio"), 0o644); err != nil {
		t.Fatalf("write audio: %v", err)
	}
	return path
}

func testConfig() config.Transcription {
	return config.Default().Transcription
}

func TestWhisperParsesSegments(t *testing.T) {
	audio := writeAudio(t)
	w := NewWhisper(testConfig(), "")
	var gotArgs []string
	w.WithExec(func(_ context.Context, _ string, args, _ []string) ([]byte, []byte, error) {
		gotArgs = args
		return []byte(`{"language":"en","duration":3.5,"segments":[{"start":0,"end":1.5,"text":" Hello "},{"start":1.5,"end":3.5,"text":"world"}]}`), nil, nil
	})

	result, err := w.Transcribe(context.Background(), audio)
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if result.Text != "Hello world" {
		t.Fatalf("unexpected text %q", result.Text)
	}
	if len(result.Segments) != 2 || result.Segments[0].Text != "Hello" || result.Segments[1].End != 3.5 {
		t.Fatalf("unexpected segments: %+v", result.Segments)
	}
	joined := strings.Join(gotArgs, " ")
	for _, want := range []string{"--with faster-whisper", "--model small", "--beam-size 5", "--compute-type int8", audio} {
		if !strings.Contains(joined, want) {
			t.Fatalf("expected %q in %q", want, joined)
		}
	}
	if strings.Contains(joined, "--index-url") {
		t.Fatalf("cpu runs should use the default index: %q", joined)
	}
}

func TestWhisperCUDAUsesTorchIndex(t *testing.T) {
	cfg := testConfig()
	cfg.Device = "cuda"
	w := NewWhisper(cfg, "")
	var joined string
	w.WithExec(func(_ context.Context, _ string, args, _ []string) ([]byte, []byte, error) {
		joined = strings.Join(args, " ")
		return []byte(`{"segments":[]}`), nil, nil
	})
	if _, err := w.Transcribe(context.Background(), writeAudio(t)); err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if !strings.Contains(joined, "--index-url "+cudaIndexURL) {
		t.Fatalf("expected CUDA index, got %q", joined)
	}
}

func TestWhisperMissingAudio(t *testing.T) {
	w := NewWhisper(testConfig(), "")
	_, err := w.Transcribe(context.Background(), filepath.Join(t.TempDir(), "nope.mp3"))
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not found marker, got %v", err)
	}
}

func TestWhisperScriptFailureIsExternalToolError(t *testing.T) {
	w := NewWhisper(testConfig(), "")
	w.WithExec(func(context.Context, string, []string, []string) ([]byte, []byte, error) {
		return nil, []byte(`{"error": "model download failed"}`), errors.New("exit status 1")
	})
	_, err := w.Transcribe(context.Background(), writeAudio(t))
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected external tool marker, got %v", err)
	}
	if !strings.Contains(err.Error(), "model download failed") {
		t.Fatalf("expected script message in %q", err.Error())
	}
}

func TestPlainTextSkipsBlankSegments(t *testing.T) {
	got := PlainText([]Segment{{Text: " a "}, {Text: "  "}, {Text: "b"}})
	if got != "a b" {
		t.Fatalf("unexpected plain text %q", got)
	}
}
