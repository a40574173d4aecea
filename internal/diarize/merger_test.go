package diarize

import (
	"context"
	"errors"
	"testing"

	"meetnotes/internal/logging"
	"meetnotes/internal/transcribe"
)

type stubSpans struct {
	spans []Span
	err   error
}

func (s stubSpans) Spans(context.Context, string) ([]Span, error) { return s.spans, s.err }

type stubEmbedder struct {
	vectors [][]float64
	err     error
	calls   int
	got     []transcribe.Segment
}

func (s *stubEmbedder) Embed(_ context.Context, _ string, segs []transcribe.Segment) ([][]float64, error) {
	s.calls++
	s.got = segs
	return s.vectors, s.err
}

type panicLabeler struct{}

func (panicLabeler) Label(context.Context, string, []transcribe.Segment) ([]string, int, error) {
	panic("model exploded")
}

func threeSegments() []transcribe.Segment {
	return []transcribe.Segment{
		{Start: 0, End: 1, Text: " Hello "},
		{Start: 1, End: 2, Text: "world"},
		{Start: 2, End: 3, Text: "Goodbye"},
	}
}

func TestMergeSpansTwoSpeakers(t *testing.T) {
	merger := NewMerger(SpanLabeler{Source: stubSpans{spans: []Span{
		{Speaker: "SPEAKER_00", Start: 0, End: 2},
		{Speaker: "SPEAKER_01", Start: 2, End: 3},
	}}}, logging.NewNop())

	text, diarized := merger.Merge(context.Background(), "a.mp3", threeSegments())
	if !diarized {
		t.Fatal("expected diarized output")
	}
	want := "Speaker_00: Hello world\nSpeaker_01: Goodbye"
	if text != want {
		t.Fatalf("unexpected transcript:\n%s\nwant:\n%s", text, want)
	}
}

func TestMergeSpansSingleSpeakerFallsBack(t *testing.T) {
	merger := NewMerger(SpanLabeler{Source: stubSpans{spans: []Span{
		{Speaker: "A", Start: 0, End: 10},
	}}}, nil)
	text, diarized := merger.Merge(context.Background(), "a.mp3", threeSegments())
	if diarized || text != "Hello world Goodbye" {
		t.Fatalf("expected plain fallback, got %q %v", text, diarized)
	}
}

func TestMergeSpanSourceErrorFallsBack(t *testing.T) {
	merger := NewMerger(SpanLabeler{Source: stubSpans{err: ErrMissingToken}}, nil)
	text, diarized := merger.Merge(context.Background(), "a.mp3", threeSegments())
	if diarized || text != "Hello world Goodbye" {
		t.Fatalf("expected plain fallback, got %q %v", text, diarized)
	}
}

func TestMergeRecoversFromPanic(t *testing.T) {
	merger := NewMerger(panicLabeler{}, nil)
	text, diarized := merger.Merge(context.Background(), "a.mp3", threeSegments())
	if diarized || text != "Hello world Goodbye" {
		t.Fatalf("expected plain fallback after panic, got %q %v", text, diarized)
	}
}

func TestMergeWithoutLabelerIsPlain(t *testing.T) {
	var merger *Merger
	text, diarized := merger.Merge(context.Background(), "a.mp3", threeSegments())
	if diarized || text != "Hello world Goodbye" {
		t.Fatalf("expected plain output, got %q %v", text, diarized)
	}
	text, diarized = NewMerger(nil, nil).Merge(context.Background(), "a.mp3", nil)
	if diarized || text != "" {
		t.Fatalf("expected empty plain output, got %q %v", text, diarized)
	}
}

func TestMatchSpanContainmentAndNearest(t *testing.T) {
	spans := []Span{
		{Speaker: "A", Start: 0, End: 2},
		{Speaker: "B", Start: 2, End: 4},
		{Speaker: "C", Start: 10, End: 12},
	}
	tests := []struct {
		name string
		t    float64
		want int
	}{
		{"inside first", 1, 0},
		{"shared boundary goes to first", 2, 0},
		{"inside second", 3, 1},
		{"gap nearer to B midpoint", 6, 1},
		{"gap nearer to C midpoint", 9, 2},
		{"tie between B and C midpoints keeps earlier", 7, 1},
		{"before everything", -5, 0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := matchSpan(tc.t, spans); got != tc.want {
				t.Fatalf("matchSpan(%v) = %d, want %d", tc.t, got, tc.want)
			}
		})
	}
}

func TestSpanLabelsSortedByExternalName(t *testing.T) {
	labeler := SpanLabeler{Source: stubSpans{spans: []Span{
		{Speaker: "zeta", Start: 0, End: 1},
		{Speaker: "alpha", Start: 1, End: 2},
	}}}
	labels, speakers, err := labeler.Label(context.Background(), "", []transcribe.Segment{
		{Start: 0, End: 1, Text: "x"},
		{Start: 1.2, End: 2, Text: "y"},
	})
	if err != nil {
		t.Fatalf("Label: %v", err)
	}
	if speakers != 2 || labels[0] != "Speaker_01" || labels[1] != "Speaker_00" {
		t.Fatalf("unexpected labels %v (%d speakers)", labels, speakers)
	}
}

func TestMergeEmbeddingsTwoClusters(t *testing.T) {
	embedder := &stubEmbedder{vectors: [][]float64{
		{1, 0, 0},
		{0.99, 0.05, 0},
		{0, 1, 0},
	}}
	merger := NewMerger(EmbeddingLabeler{Embedder: embedder, Threshold: 0.5, MinDuration: 0.1}, nil)

	text, diarized := merger.Merge(context.Background(), "a.mp3", threeSegments())
	if !diarized {
		t.Fatal("expected diarized output")
	}
	if text != "Speaker_00: Hello world\nSpeaker_01: Goodbye" {
		t.Fatalf("unexpected transcript %q", text)
	}
}

func TestMergeEmbeddingsSingleClusterFallsBack(t *testing.T) {
	embedder := &stubEmbedder{vectors: [][]float64{{1, 0}, {1, 0.01}, {0.98, 0}}}
	merger := NewMerger(EmbeddingLabeler{Embedder: embedder, Threshold: 0.5, MinDuration: 0.1}, nil)
	text, diarized := merger.Merge(context.Background(), "a.mp3", threeSegments())
	if diarized || text != "Hello world Goodbye" {
		t.Fatalf("expected plain fallback, got %q %v", text, diarized)
	}
}

func TestEmbeddingLabelerSkipsShortSegments(t *testing.T) {
	embedder := &stubEmbedder{vectors: [][]float64{{1, 0}, {0, 1}}}
	labeler := EmbeddingLabeler{Embedder: embedder, Threshold: 0.5, MinDuration: 0.1}
	segs := []transcribe.Segment{
		{Start: 0, End: 1, Text: "long one"},
		{Start: 1, End: 1.05, Text: "uh"},
		{Start: 1.05, End: 3, Text: "long two"},
	}
	labels, speakers, err := labeler.Label(context.Background(), "", segs)
	if err != nil {
		t.Fatalf("Label: %v", err)
	}
	if len(embedder.got) != 2 {
		t.Fatalf("expected 2 segments embedded, got %d", len(embedder.got))
	}
	if speakers != 2 {
		t.Fatalf("expected 2 speakers, got %d", speakers)
	}
	want := []string{"Speaker_00", "Speaker_00", "Speaker_01"}
	for i := range want {
		if labels[i] != want[i] {
			t.Fatalf("labels = %v, want %v", labels, want)
		}
	}
}

func TestEmbeddingLabelerNeedsTwoEligibleSegments(t *testing.T) {
	embedder := &stubEmbedder{}
	labeler := EmbeddingLabeler{Embedder: embedder, Threshold: 0.5, MinDuration: 0.1}
	_, _, err := labeler.Label(context.Background(), "", []transcribe.Segment{
		{Start: 0, End: 1, Text: "only"},
		{Start: 1, End: 1.01, Text: "blip"},
	})
	if !errors.Is(err, ErrTooFewEmbeddings) {
		t.Fatalf("expected ErrTooFewEmbeddings, got %v", err)
	}
	if embedder.calls != 0 {
		t.Fatal("embedder should not run with fewer than two eligible segments")
	}
}

func TestEmbeddingLabelerRejectsMismatchedCount(t *testing.T) {
	embedder := &stubEmbedder{vectors: [][]float64{{1, 0}}}
	labeler := EmbeddingLabeler{Embedder: embedder, Threshold: 0.5}
	if _, _, err := labeler.Label(context.Background(), "", threeSegments()); err == nil {
		t.Fatal("expected error for mismatched embedding count")
	}
}

func TestGroupLinesConsecutiveRuns(t *testing.T) {
	segs := []transcribe.Segment{{Text: "a"}, {Text: "b"}, {Text: "c"}, {Text: "d"}}
	got := groupLines(segs, []string{"Speaker_00", "Speaker_01", "Speaker_01", "Speaker_00"})
	want := "Speaker_00: a\nSpeaker_01: b c\nSpeaker_00: d"
	if got != want {
		t.Fatalf("groupLines = %q, want %q", got, want)
	}
}

func TestMergeEmptySegmentDoesNotSplitSpeaker(t *testing.T) {
	merger := NewMerger(SpanLabeler{Source: stubSpans{spans: []Span{
		{Speaker: "A", Start: 0, End: 1},
		{Speaker: "B", Start: 1, End: 2},
		{Speaker: "A", Start: 2, End: 3},
	}}}, nil)
	segs := []transcribe.Segment{
		{Start: 0, End: 1, Text: "hi"},
		{Start: 1, End: 2, Text: "  "},
		{Start: 2, End: 3, Text: "there"},
	}

	text, diarized := merger.Merge(context.Background(), "a.mp3", segs)
	if !diarized {
		t.Fatal("expected diarized output")
	}
	if text != "Speaker_00: hi there" {
		t.Fatalf("unexpected transcript %q", text)
	}
}

func TestGroupLinesSkipsEmptyRuns(t *testing.T) {
	segs := []transcribe.Segment{{Text: "a"}, {Text: ""}, {Text: " \t"}, {Text: "b"}, {Text: "c"}}
	got := groupLines(segs, []string{"Speaker_00", "Speaker_01", "Speaker_01", "Speaker_00", "Speaker_01"})
	want := "Speaker_00: a b\nSpeaker_01: c"
	if got != want {
		t.Fatalf("groupLines = %q, want %q", got, want)
	}
}
