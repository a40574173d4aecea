package diarize

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"meetnotes/internal/transcribe"
)

// ErrTooFewEmbeddings is returned when fewer than two segments are long
// enough to embed.
var ErrTooFewEmbeddings = errors.New("diarize: fewer than two embeddable segments")

// Embedder produces one fixed-size voice embedding per segment, in order.
type Embedder interface {
	Embed(ctx context.Context, audioPath string, segments []transcribe.Segment) ([][]float64, error)
}

// EmbeddingLabeler labels segments by clustering per-segment voice embeddings.
type EmbeddingLabeler struct {
	Embedder Embedder
	// Threshold is the cosine distance below which clusters merge.
	Threshold float64
	// MinDuration skips segments shorter than this many seconds.
	MinDuration float64
}

// Label implements Labeler. Segments too short to embed are labeled Speaker_00.
func (l EmbeddingLabeler) Label(ctx context.Context, audioPath string, segments []transcribe.Segment) ([]string, int, error) {
	if l.Embedder == nil {
		return nil, 0, errors.New("diarize: no embedder configured")
	}

	eligible := make([]int, 0, len(segments))
	batch := make([]transcribe.Segment, 0, len(segments))
	for i, seg := range segments {
		if seg.Duration() < l.MinDuration {
			continue
		}
		eligible = append(eligible, i)
		batch = append(batch, seg)
	}
	if len(batch) < 2 {
		return nil, 0, ErrTooFewEmbeddings
	}

	embeddings, err := l.Embedder.Embed(ctx, audioPath, batch)
	if err != nil {
		return nil, 0, err
	}
	if len(embeddings) != len(batch) {
		return nil, 0, fmt.Errorf("diarize: embedder returned %d vectors for %d segments", len(embeddings), len(batch))
	}

	clusters, err := Cluster(embeddings, l.Threshold)
	if err != nil {
		return nil, 0, err
	}

	distinct := make([]int, 0, 4)
	seen := map[int]bool{}
	for _, id := range clusters {
		if !seen[id] {
			seen[id] = true
			distinct = append(distinct, id)
		}
	}
	sort.Ints(distinct)
	names := make(map[int]string, len(distinct))
	for i, id := range distinct {
		names[id] = SpeakerLabel(i)
	}

	labels := make([]string, len(segments))
	for i := range labels {
		labels[i] = SpeakerLabel(0)
	}
	for k, idx := range eligible {
		labels[idx] = names[clusters[k]]
	}
	return labels, len(distinct), nil
}
