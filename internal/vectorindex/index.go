// Package vectorindex provides an immutable in-memory nearest-neighbor
// index over chunk embeddings, a snapshot manager for atomic replacement
// under concurrent readers, and the on-disk persistence of both artifacts.
package vectorindex

import (
	"fmt"
	"math"
	"sort"
)

// Entry is the metadata stored alongside one embedding row.
type Entry struct {
	ID             string
	SourcePath     string
	SectionHeading string
	StartOffset    int
	EndOffset      int
	Text           string
}

// Hit is one search result: a chunk id with its cosine similarity score.
type Hit struct {
	ChunkID string
	Score   float32
}

// Index is an immutable snapshot mapping chunk identity to (embedding,
// metadata). It is never mutated after construction; rebuilds produce a new
// Index which replaces the old one through the Manager.
type Index struct {
	buildID string
	dim     int
	vectors [][]float32
	entries []Entry
	byID    map[string]int
}

// NewFromRows constructs an index from parallel entry and vector slices.
// Row order is chunk ordinal order and is preserved verbatim.
func NewFromRows(buildID string, dim int, entries []Entry, vectors [][]float32) (*Index, error) {
	if len(entries) != len(vectors) {
		return nil, fmt.Errorf("entry count %d does not match vector count %d", len(entries), len(vectors))
	}
	byID := make(map[string]int, len(entries))
	for i, e := range entries {
		if len(vectors[i]) != dim {
			return nil, fmt.Errorf("vector %d has dimension %d, expected %d", i, len(vectors[i]), dim)
		}
		if _, dup := byID[e.ID]; dup {
			return nil, fmt.Errorf("duplicate chunk id %s", e.ID)
		}
		byID[e.ID] = i
	}
	return &Index{
		buildID: buildID,
		dim:     dim,
		vectors: vectors,
		entries: entries,
		byID:    byID,
	}, nil
}

// Empty returns an index with no entries. Searching it yields no results.
func Empty() *Index {
	return &Index{byID: map[string]int{}}
}

// Search returns up to k hits ordered by descending cosine similarity,
// ties broken by ascending chunk id for determinism. k is clamped to the
// index size; an empty index yields an empty result rather than an error.
func (ix *Index) Search(query []float32, k int) []Hit {
	if k <= 0 || len(ix.entries) == 0 || len(query) != ix.dim {
		return []Hit{}
	}
	if k > len(ix.entries) {
		k = len(ix.entries)
	}

	hits := make([]Hit, len(ix.entries))
	for i := range ix.vectors {
		hits[i] = Hit{
			ChunkID: ix.entries[i].ID,
			Score:   cosineSimilarity(query, ix.vectors[i]),
		}
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].ChunkID < hits[j].ChunkID
	})

	return hits[:k]
}

// Get resolves a chunk id to its metadata.
func (ix *Index) Get(id string) (Entry, bool) {
	i, ok := ix.byID[id]
	if !ok {
		return Entry{}, false
	}
	return ix.entries[i], true
}

// Len returns the number of indexed chunks.
func (ix *Index) Len() int {
	return len(ix.entries)
}

// Dim returns the embedding dimensionality.
func (ix *Index) Dim() int {
	return ix.dim
}

// BuildID identifies the build that produced this index.
func (ix *Index) BuildID() string {
	return ix.buildID
}

// cosineSimilarity computes the cosine of the angle between two vectors,
// accumulating in float64 for stable, deterministic results.
func cosineSimilarity(a, b []float32) float32 {
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(normA) * math.Sqrt(normB)))
}
