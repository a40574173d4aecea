package transcribe

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"meetnotes/internal/config"
	"meetnotes/internal/services"
	"meetnotes/internal/services/uvx"
)

//go:embed assets/faster_whisper.py
var fasterWhisperScript string

const (
	stageName          = "transcribe"
	cudaIndexURL       = "https://download.pytorch.org/whl/cu128"
	pypiExtraIndexURL  = "https://pypi.org/simple"
	fasterWhisperWheel = "faster-whisper"
)

type scriptOutput struct {
	Language string  `json:"language"`
	Duration float64 `json:"duration"`
	Segments []struct {
		Start float64 `json:"start"`
		End   float64 `json:"end"`
		Text  string  `json:"text"`
	} `json:"segments"`
}

// Whisper transcribes recordings with faster-whisper run through uvx.
type Whisper struct {
	cfg    config.Transcription
	runner *uvx.Runner
}

// NewWhisper builds a faster-whisper transcriber from configuration.
func NewWhisper(cfg config.Transcription, uvxBinary string) *Whisper {
	runner := &uvx.Runner{
		Binary:   uvxBinary,
		Packages: []string{fasterWhisperWheel},
	}
	if cfg.Device == "cuda" {
		runner.IndexURL = cudaIndexURL
		runner.ExtraIndexURL = pypiExtraIndexURL
	}
	return &Whisper{cfg: cfg, runner: runner}
}

// WithExec substitutes the subprocess runner (for tests).
func (w *Whisper) WithExec(fn uvx.ExecFunc) {
	w.runner.WithExec(fn)
}

// Transcribe runs the model over audioPath and returns the recognized segments.
func (w *Whisper) Transcribe(ctx context.Context, audioPath string) (Result, error) {
	info, err := os.Stat(audioPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Result{}, services.Wrap(services.ErrNotFound, stageName, "open audio", "recording missing: "+audioPath, nil)
		}
		return Result{}, services.Wrap(services.ErrValidation, stageName, "open audio", "", err)
	}
	if info.IsDir() || info.Size() == 0 {
		return Result{}, services.Wrap(services.ErrValidation, stageName, "open audio", "recording is empty: "+audioPath, nil)
	}

	if w.cfg.TimeoutSeconds > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(w.cfg.TimeoutSeconds)*time.Second)
		defer cancel()
	}

	args := []string{
		"--audio", audioPath,
		"--model", w.cfg.Model,
		"--device", w.cfg.Device,
		"--compute-type", w.cfg.ComputeType,
		"--beam-size", strconv.Itoa(w.cfg.BeamSize),
	}
	if w.cfg.Language != "" {
		args = append(args, "--language", w.cfg.Language)
	}

	var out scriptOutput
	if err := w.runner.Script(ctx, "faster_whisper.py", fasterWhisperScript, args, &out); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return Result{}, services.Wrap(services.ErrTimeout, stageName, "faster-whisper", "", err)
		}
		return Result{}, services.Wrap(services.ErrExternalTool, stageName, "faster-whisper", "", err)
	}

	result := Result{Language: out.Language, Duration: out.Duration}
	for _, seg := range out.Segments {
		result.Segments = append(result.Segments, Segment{
			Start: seg.Start,
			End:   seg.End,
			Text:  strings.TrimSpace(seg.Text),
		})
	}
	result.Text = PlainText(result.Segments)
	return result, nil
}

// Describe reports the model settings for logs.
func (w *Whisper) Describe() string {
	return fmt.Sprintf("faster-whisper model=%s device=%s compute=%s", w.cfg.Model, w.cfg.Device, w.cfg.ComputeType)
}
