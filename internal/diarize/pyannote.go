package diarize

import (
	"context"
	_ "embed"
	"errors"
	"strings"

	"meetnotes/internal/services/uvx"
)

//go:embed assets/pyannote_spans.py
var pyannoteScript string

// ErrMissingToken is returned when pyannote is selected without a Hugging Face token.
var ErrMissingToken = errors.New("diarize: hugging face token not configured")

// Pyannote runs pyannote's speaker-diarization pipeline through uvx.
type Pyannote struct {
	token  string
	model  string
	runner *uvx.Runner
}

// NewPyannote builds a span source. token may be empty, in which case Spans
// always fails with ErrMissingToken.
func NewPyannote(token, model, uvxBinary string) *Pyannote {
	token = strings.TrimSpace(token)
	return &Pyannote{
		token: token,
		model: model,
		runner: &uvx.Runner{
			Binary:   uvxBinary,
			Packages: []string{"pyannote.audio", "torchaudio", "soundfile", "omegaconf"},
			Env:      []string{"HF_TOKEN=" + token},
		},
	}
}

// WithExec substitutes the subprocess runner (for tests).
func (p *Pyannote) WithExec(fn uvx.ExecFunc) {
	p.runner.WithExec(fn)
}

// Spans implements SpanSource.
func (p *Pyannote) Spans(ctx context.Context, audioPath string) ([]Span, error) {
	if p.token == "" {
		return nil, ErrMissingToken
	}
	var out struct {
		Spans []Span `json:"spans"`
	}
	args := []string{"--audio", audioPath}
	if p.model != "" {
		args = append(args, "--model", p.model)
	}
	if err := p.runner.Script(ctx, "pyannote_spans.py", pyannoteScript, args, &out); err != nil {
		return nil, err
	}
	return out.Spans, nil
}
