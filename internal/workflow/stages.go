package workflow

import (
	"fmt"
	"log/slog"

	"meetnotes/internal/config"
	"meetnotes/internal/diarize"
	"meetnotes/internal/emailer"
	"meetnotes/internal/summarize"
	"meetnotes/internal/transcribe"
)

// StagesFromConfig wires the production collaborators for cfg.
func StagesFromConfig(cfg *config.Config, logger *slog.Logger) (Stages, error) {
	summarizer, err := summarize.NewFromConfig(cfg)
	if err != nil {
		return Stages{}, fmt.Errorf("build summarizer: %w", err)
	}
	return Stages{
		Transcriber: transcribe.NewWhisper(cfg.Transcription, cfg.UVXBinary()),
		Diarizer:    diarize.NewFromConfig(cfg, logger),
		Summarizer:  summarizer,
		Sender:      emailer.New(cfg.Email, logger),
	}, nil
}
