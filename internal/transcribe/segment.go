package transcribe

import (
	"context"
	"strings"
)

// Segment is one timed span of recognized speech, times in seconds from the
// start of the recording.
type Segment struct {
	Start float64
	End   float64
	Text  string
}

// Midpoint returns the centre of the segment.
func (s Segment) Midpoint() float64 {
	return (s.Start + s.End) / 2
}

// Duration returns the segment length in seconds.
func (s Segment) Duration() float64 {
	return s.End - s.Start
}

// Result is the output of a transcription run. Segments may be empty when the
// backend only produces text.
type Result struct {
	Text     string
	Language string
	Duration float64
	Segments []Segment
}

// Transcriber converts a recording into text.
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath string) (Result, error)
}

// PlainText joins trimmed segment texts with single spaces.
func PlainText(segments []Segment) string {
	parts := make([]string, 0, len(segments))
	for _, seg := range segments {
		if text := strings.TrimSpace(seg.Text); text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, " ")
}
