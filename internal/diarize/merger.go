package diarize

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"meetnotes/internal/logging"
	"meetnotes/internal/transcribe"
)

// Labeler assigns a speaker label to every segment. It returns one label per
// segment plus the number of distinct speakers the underlying signal found.
type Labeler interface {
	Label(ctx context.Context, audioPath string, segments []transcribe.Segment) (labels []string, speakers int, err error)
}

// Merger turns timed segments into a speaker-attributed transcript, falling
// back to plain text whenever speaker attribution is unavailable. It never
// returns an error.
type Merger struct {
	labeler Labeler
	logger  *slog.Logger
	timeout time.Duration
}

// NewMerger builds a merger around labeler. A nil labeler always produces plain text.
func NewMerger(labeler Labeler, logger *slog.Logger) *Merger {
	return &Merger{labeler: labeler, logger: logging.NewComponentLogger(logger, "diarize")}
}

// WithTimeout bounds how long speaker attribution may run before the plain
// transcript is used instead.
func (m *Merger) WithTimeout(d time.Duration) *Merger {
	m.timeout = d
	return m
}

// Merge returns the transcript and whether it carries speaker labels.
func (m *Merger) Merge(ctx context.Context, audioPath string, segments []transcribe.Segment) (text string, diarized bool) {
	plain := transcribe.PlainText(segments)
	if m == nil || m.labeler == nil || len(segments) == 0 {
		return plain, false
	}
	logger := logging.WithContext(ctx, m.logger)

	defer func() {
		if r := recover(); r != nil {
			logging.WarnWithContext(logger, "speaker attribution panicked; using plain transcript", "diarization_fallback",
				logging.String("panic", fmt.Sprint(r)),
			)
			text, diarized = plain, false
		}
	}()

	if m.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.timeout)
		defer cancel()
	}

	labels, speakers, err := m.labeler.Label(ctx, audioPath, segments)
	switch {
	case err != nil:
		logging.WarnWithContext(logger, "speaker attribution unavailable; using plain transcript", "diarization_fallback",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, fallbackHint(err)),
		)
		return plain, false
	case len(labels) != len(segments):
		logging.WarnWithContext(logger, "speaker labels do not match segments; using plain transcript", "diarization_fallback",
			logging.Int("labels", len(labels)),
			logging.Int("segments", len(segments)),
		)
		return plain, false
	case speakers < 2:
		logger.Info("single speaker detected; using plain transcript",
			logging.Int("speakers", speakers),
			logging.String(logging.FieldEventType, "diarization_single_speaker"),
		)
		return plain, false
	}

	logger.Info("transcript attributed to speakers",
		logging.Int("speakers", speakers),
		logging.Int("segments", len(segments)),
		logging.String(logging.FieldEventType, "diarization_complete"),
	)
	return groupLines(segments, labels), true
}

// groupLines collapses consecutive segments with the same label into one
// "label: text" line. Empty segments never start a new line.
func groupLines(segments []transcribe.Segment, labels []string) string {
	var (
		lines   []string
		current string
		texts   []string
	)
	flush := func() {
		if current != "" && len(texts) > 0 {
			lines = append(lines, current+": "+strings.Join(texts, " "))
		}
	}
	for i, seg := range segments {
		t := strings.TrimSpace(seg.Text)
		if t == "" {
			continue
		}
		if labels[i] != current {
			flush()
			current = labels[i]
			texts = texts[:0]
		}
		texts = append(texts, t)
	}
	flush()
	return strings.Join(lines, "\n")
}

// SpeakerLabel formats the canonical label for a zero-based speaker index.
func SpeakerLabel(index int) string {
	return fmt.Sprintf("Speaker_%02d", index)
}

func fallbackHint(err error) string {
	switch {
	case errors.Is(err, ErrMissingToken):
		return "set diarization.hf_token or HF_TOKEN to enable speaker labels"
	case errors.Is(err, ErrTooFewEmbeddings):
		return "recording too short for speaker clustering"
	default:
		return "run meetnotes doctor to check uvx and model access"
	}
}
