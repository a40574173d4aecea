package diarize

import (
	"errors"
	"fmt"
	"math"
)

// CosineDistance returns 1 - cos(a, b). A zero vector is treated as
// maximally dissimilar to everything (distance 1).
func CosineDistance(a, b []float64) float64 {
	var dot, na, nb float64
	for i := range a {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na == 0 || nb == 0 {
		return 1
	}
	return 1 - dot/(math.Sqrt(na)*math.Sqrt(nb))
}

// Cluster groups embeddings with agglomerative clustering, complete linkage,
// and cosine distance. Two clusters merge while the largest pairwise distance
// between their members is below threshold. The returned cluster ids are
// numbered 0..k-1 in order of each cluster's first member.
//
// Ties between equally close cluster pairs go to the pair with the lowest
// indices, so the result is deterministic.
func Cluster(embeddings [][]float64, threshold float64) ([]int, error) {
	n := len(embeddings)
	if n == 0 {
		return nil, nil
	}
	dim := len(embeddings[0])
	if dim == 0 {
		return nil, errors.New("cluster: empty embedding")
	}
	for i, emb := range embeddings {
		if len(emb) != dim {
			return nil, fmt.Errorf("cluster: embedding %d has %d dimensions, expected %d", i, len(emb), dim)
		}
	}

	// dist holds complete-linkage distances between active clusters, indexed
	// by the cluster's representative (lowest member index).
	dist := make([][]float64, n)
	for i := range dist {
		dist[i] = make([]float64, n)
		for j := 0; j < i; j++ {
			d := CosineDistance(embeddings[i], embeddings[j])
			dist[i][j], dist[j][i] = d, d
		}
	}
	parent := make([]int, n)
	active := make([]bool, n)
	for i := range parent {
		parent[i] = i
		active[i] = true
	}

	for {
		bi, bj := -1, -1
		best := math.Inf(1)
		for i := 0; i < n; i++ {
			if !active[i] {
				continue
			}
			for j := i + 1; j < n; j++ {
				if active[j] && dist[i][j] < best {
					bi, bj, best = i, j, dist[i][j]
				}
			}
		}
		if bi < 0 || best >= threshold {
			break
		}
		active[bj] = false
		parent[bj] = bi
		for k := 0; k < n; k++ {
			if active[k] && k != bi {
				d := math.Max(dist[bi][k], dist[bj][k])
				dist[bi][k], dist[k][bi] = d, d
			}
		}
	}

	ids := make([]int, n)
	next := 0
	assigned := make(map[int]int, n)
	for i := range embeddings {
		root := find(parent, i)
		id, ok := assigned[root]
		if !ok {
			id = next
			assigned[root] = id
			next++
		}
		ids[i] = id
	}
	return ids, nil
}

func find(parent []int, i int) int {
	for parent[i] != i {
		i = parent[i]
	}
	return i
}
