package summarize

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"meetnotes/internal/config"
	"meetnotes/internal/services"
	"meetnotes/internal/services/llm"
)

// Summarizer turns a transcript into meeting notes.
type Summarizer interface {
	Summarize(ctx context.Context, transcript string, diarized bool) (string, error)
}

// ErrEmptyTranscript is returned when there is nothing to summarize.
var ErrEmptyTranscript = errors.New("summarize: empty transcript")

// NewFromConfig builds the configured provider. A missing API key is not an
// error here; the first Summarize call reports it as a configuration failure.
func NewFromConfig(cfg *config.Config) (Summarizer, error) {
	if cfg == nil {
		return nil, errors.New("summarize: config required")
	}
	switch cfg.Summary.Provider {
	case "gemini":
		return NewGemini(cfg.Summary.APIKey, cfg.Summary.Model, cfg.Summary.Temperature,
			time.Duration(cfg.Summary.TimeoutSeconds)*time.Second), nil
	case "openai", "":
		return NewChat(llm.NewClient(llm.Config{
			APIKey:         cfg.Summary.APIKey,
			BaseURL:        cfg.Summary.BaseURL,
			Model:          cfg.Summary.Model,
			Temperature:    cfg.Summary.Temperature,
			TimeoutSeconds: cfg.Summary.TimeoutSeconds,
		}), cfg.Summary.APIKey != ""), nil
	default:
		return nil, fmt.Errorf("summarize: unknown provider %q", cfg.Summary.Provider)
	}
}

// Chat summarizes through an OpenAI-compatible chat completions endpoint.
type Chat struct {
	client     *llm.Client
	configured bool
}

// NewChat wraps client. configured reports whether an API key is present.
func NewChat(client *llm.Client, configured bool) *Chat {
	return &Chat{client: client, configured: configured}
}

// Summarize implements Summarizer.
func (c *Chat) Summarize(ctx context.Context, transcript string, diarized bool) (string, error) {
	if strings.TrimSpace(transcript) == "" {
		return "", services.Wrap(services.ErrValidation, "summarize", "prompt", "transcript is empty", ErrEmptyTranscript)
	}
	if !c.configured {
		return "", services.Wrap(services.ErrConfiguration, "summarize", "credentials", "summary.api_key is not set", nil)
	}
	summary, err := c.client.Complete(ctx, BuildPrompt(transcript, diarized))
	if err != nil {
		return "", classify("chat completion", err)
	}
	return summary, nil
}

func classify(operation string, err error) error {
	var statusErr *llm.StatusError
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return services.Wrap(services.ErrTimeout, "summarize", operation, "request timed out", err)
	case errors.As(err, &statusErr) && (statusErr.StatusCode == 401 || statusErr.StatusCode == 403):
		return services.Wrap(services.ErrConfiguration, "summarize", operation, "api key rejected", err)
	default:
		return services.Wrap(services.ErrTransient, "summarize", operation, "", err)
	}
}
