// Package diarize attributes transcript segments to speakers.
//
// A Merger asks a Labeler for one label per segment and groups consecutive
// segments by the same speaker into "Speaker_NN: text" lines. Two labelers
// exist: SpanLabeler maps segment midpoints onto speaker turns from
// pyannote, and EmbeddingLabeler clusters resemblyzer voice embeddings with
// complete-linkage agglomerative clustering. Any failure, or fewer than two
// speakers, degrades to the plain space-joined transcript; Merge never fails.
package diarize
