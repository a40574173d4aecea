package diarize

import (
	"log/slog"
	"time"

	"meetnotes/internal/config"
)

// NewFromConfig builds the merger for the configured strategy.
func NewFromConfig(cfg *config.Config, logger *slog.Logger) *Merger {
	merger := NewMerger(labelerFor(cfg), logger)
	if cfg != nil && cfg.Diarization.TimeoutSeconds > 0 {
		merger.WithTimeout(time.Duration(cfg.Diarization.TimeoutSeconds) * time.Second)
	}
	return merger
}

func labelerFor(cfg *config.Config) Labeler {
	if cfg == nil {
		return nil
	}
	switch cfg.Diarization.Strategy {
	case "pyannote":
		return SpanLabeler{Source: NewPyannote(cfg.Diarization.HuggingFaceToken, cfg.Diarization.PyannoteModel, cfg.UVXBinary())}
	case "embeddings":
		return EmbeddingLabeler{
			Embedder:    NewResemblyzer(cfg.FFmpegBinary(), cfg.UVXBinary()),
			Threshold:   cfg.Diarization.ClusterThreshold,
			MinDuration: cfg.Diarization.MinSegmentSeconds,
		}
	default:
		return nil
	}
}
