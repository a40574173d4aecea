package diarize

import (
	"context"
	"errors"
	"math"
	"sort"

	"meetnotes/internal/transcribe"
)

// Span is one speaker turn reported by an external diarization model.
type Span struct {
	Speaker string  `json:"speaker"`
	Start   float64 `json:"start"`
	End     float64 `json:"end"`
}

// SpanSource produces speaker turns for a recording.
type SpanSource interface {
	Spans(ctx context.Context, audioPath string) ([]Span, error)
}

// SpanLabeler labels segments by the speaker turn that covers their midpoint.
type SpanLabeler struct {
	Source SpanSource
}

// Label implements Labeler.
func (l SpanLabeler) Label(ctx context.Context, audioPath string, segments []transcribe.Segment) ([]string, int, error) {
	if l.Source == nil {
		return nil, 0, errors.New("diarize: no span source configured")
	}
	spans, err := l.Source.Spans(ctx, audioPath)
	if err != nil {
		return nil, 0, err
	}
	if len(spans) == 0 {
		return nil, 0, nil
	}

	names := distinctSpeakers(spans)
	canonical := make(map[string]string, len(names))
	for i, name := range names {
		canonical[name] = SpeakerLabel(i)
	}

	labels := make([]string, len(segments))
	for i, seg := range segments {
		labels[i] = canonical[spans[matchSpan(seg.Midpoint(), spans)].Speaker]
	}
	return labels, len(names), nil
}

// matchSpan returns the index of the first span containing t (inclusive
// bounds). When none does, it returns the span whose own midpoint is nearest
// to t, keeping the earliest span on ties. spans must be non-empty.
func matchSpan(t float64, spans []Span) int {
	for i, span := range spans {
		if span.Start <= t && t <= span.End {
			return i
		}
	}
	best := 0
	bestDist := math.Inf(1)
	for i, span := range spans {
		dist := math.Abs((span.Start+span.End)/2 - t)
		if dist < bestDist {
			best, bestDist = i, dist
		}
	}
	return best
}

func distinctSpeakers(spans []Span) []string {
	seen := make(map[string]struct{}, len(spans))
	names := make([]string, 0, 4)
	for _, span := range spans {
		if _, ok := seen[span.Speaker]; ok {
			continue
		}
		seen[span.Speaker] = struct{}{}
		names = append(names, span.Speaker)
	}
	sort.Strings(names)
	return names
}
