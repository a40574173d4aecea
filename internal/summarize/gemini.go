package summarize

import (
	"context"
	"errors"
	"strings"
	"time"

	"google.golang.org/genai"

	"meetnotes/internal/services"
)

// Gemini summarizes through Google's Gemini API.
type Gemini struct {
	apiKey      string
	model       string
	temperature float64
	timeout     time.Duration
	httpOptions genai.HTTPOptions
}

// NewGemini builds a Gemini summarizer.
func NewGemini(apiKey, model string, temperature float64, timeout time.Duration) *Gemini {
	return &Gemini{
		apiKey:      strings.TrimSpace(apiKey),
		model:       strings.TrimSpace(model),
		temperature: temperature,
		timeout:     timeout,
	}
}

// WithBaseURL points the client at a different API host.
func (g *Gemini) WithBaseURL(baseURL string) *Gemini {
	g.httpOptions.BaseURL = baseURL
	return g
}

// Summarize implements Summarizer.
func (g *Gemini) Summarize(ctx context.Context, transcript string, diarized bool) (string, error) {
	if strings.TrimSpace(transcript) == "" {
		return "", services.Wrap(services.ErrValidation, "summarize", "prompt", "transcript is empty", ErrEmptyTranscript)
	}
	if g.apiKey == "" {
		return "", services.Wrap(services.ErrConfiguration, "summarize", "credentials", "summary.api_key is not set", nil)
	}
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      g.apiKey,
		Backend:     genai.BackendGeminiAPI,
		HTTPOptions: g.httpOptions,
	})
	if err != nil {
		return "", services.Wrap(services.ErrConfiguration, "summarize", "gemini client", "", err)
	}

	var genCfg *genai.GenerateContentConfig
	if g.temperature > 0 {
		genCfg = &genai.GenerateContentConfig{Temperature: genai.Ptr(float32(g.temperature))}
	}
	result, err := client.Models.GenerateContent(ctx, g.model, genai.Text(BuildPrompt(transcript, diarized)), genCfg)
	if err != nil {
		return "", classifyGemini(err)
	}
	text := responseText(result)
	if text == "" {
		return "", services.Wrap(services.ErrTransient, "summarize", "gemini", "empty response", nil)
	}
	return text, nil
}

func responseText(result *genai.GenerateContentResponse) string {
	if result == nil || len(result.Candidates) == 0 || result.Candidates[0].Content == nil {
		return ""
	}
	var b strings.Builder
	for _, part := range result.Candidates[0].Content.Parts {
		if part != nil && part.Text != "" {
			b.WriteString(part.Text)
		}
	}
	return strings.TrimSpace(b.String())
}

func classifyGemini(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return services.Wrap(services.ErrTimeout, "summarize", "gemini", "request timed out", err)
	}
	var apiErr genai.APIError
	if errors.As(err, &apiErr) && (apiErr.Code == 401 || apiErr.Code == 403) {
		return services.Wrap(services.ErrConfiguration, "summarize", "gemini", "api key rejected", err)
	}
	return services.Wrap(services.ErrTransient, "summarize", "gemini", "", err)
}
