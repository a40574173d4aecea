package diarize

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"meetnotes/internal/services/uvx"
	"meetnotes/internal/transcribe"
)

//go:embed assets/resemblyzer_embed.py
var resemblyzerScript string

// CommandRunner runs an external command and returns combined error output on failure.
type CommandRunner func(ctx context.Context, name string, args ...string) error

// Resemblyzer embeds segments with resemblyzer's GE2E voice encoder. The
// recording is first converted to 16 kHz mono PCM with ffmpeg.
type Resemblyzer struct {
	ffmpegBinary string
	runner       *uvx.Runner
	command      CommandRunner
}

// NewResemblyzer builds an embedder.
func NewResemblyzer(ffmpegBinary, uvxBinary string) *Resemblyzer {
	if ffmpegBinary == "" {
		ffmpegBinary = "ffmpeg"
	}
	return &Resemblyzer{
		ffmpegBinary: ffmpegBinary,
		runner: &uvx.Runner{
			Binary:   uvxBinary,
			Packages: []string{"resemblyzer", "soundfile", "numpy<2"},
		},
	}
}

// WithExec substitutes the uvx subprocess (for tests).
func (r *Resemblyzer) WithExec(fn uvx.ExecFunc) {
	r.runner.WithExec(fn)
}

// WithCommandRunner substitutes the ffmpeg subprocess (for tests).
func (r *Resemblyzer) WithCommandRunner(fn CommandRunner) {
	r.command = fn
}

// Embed implements Embedder.
func (r *Resemblyzer) Embed(ctx context.Context, audioPath string, segments []transcribe.Segment) ([][]float64, error) {
	workDir, err := os.MkdirTemp("", "meetnotes-embed-")
	if err != nil {
		return nil, fmt.Errorf("embed: create work dir: %w", err)
	}
	defer os.RemoveAll(workDir)

	wavPath := filepath.Join(workDir, "audio.wav")
	if err := r.run(ctx, r.ffmpegBinary,
		"-hide_banner", "-loglevel", "error", "-y",
		"-i", audioPath,
		"-ac", "1",
		"-ar", "16000",
		"-c:a", "pcm_s16le",
		wavPath,
	); err != nil {
		return nil, fmt.Errorf("embed: convert audio: %w", err)
	}

	bounds := make([][2]float64, len(segments))
	for i, seg := range segments {
		bounds[i] = [2]float64{seg.Start, seg.End}
	}
	data, err := json.Marshal(bounds)
	if err != nil {
		return nil, err
	}
	segPath := filepath.Join(workDir, "segments.json")
	if err := os.WriteFile(segPath, data, 0o644); err != nil {
		return nil, fmt.Errorf("embed: write segments: %w", err)
	}

	runner := *r.runner
	runner.WorkDir = workDir
	var out struct {
		Embeddings [][]float64 `json:"embeddings"`
	}
	if err := runner.Script(ctx, "resemblyzer_embed.py", resemblyzerScript,
		[]string{"--audio", wavPath, "--segments", segPath}, &out); err != nil {
		return nil, err
	}
	return out.Embeddings, nil
}

func (r *Resemblyzer) run(ctx context.Context, name string, args ...string) error {
	if r.command != nil {
		return r.command(ctx, name, args...)
	}
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(stderr.String()))
	}
	return nil
}
