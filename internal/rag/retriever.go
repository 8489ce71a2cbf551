package rag

import (
	"context"
	"errors"
	"fmt"

	"docassist/internal/contextutil"
	"docassist/internal/llm"
	"docassist/internal/vectorindex"
)

// ErrRetrievalFailed is returned when a query cannot be embedded. There are
// never partial results: the caller fails the query closed.
var ErrRetrievalFailed = errors.New("retrieval failed")

// Retriever embeds queries and searches the currently served index snapshot.
type Retriever struct {
	embedder llm.Embedder
	indexes  *vectorindex.Manager
}

// NewRetriever creates a Retriever reading snapshots from manager.
func NewRetriever(embedder llm.Embedder, indexes *vectorindex.Manager) *Retriever {
	return &Retriever{
		embedder: embedder,
		indexes:  indexes,
	}
}

// Retrieve embeds the question with the query role, performs top-k search
// and joins the hits back to full chunk metadata, preserving search order.
// An empty index yields an empty result without touching the embedder.
func (r *Retriever) Retrieve(ctx context.Context, question string, k int) ([]RetrievedChunk, error) {
	logger := contextutil.LoggerFromContext(ctx)

	// The snapshot is taken once; everything downstream of this query sees
	// a consistent index even if a rebuild swaps during the request.
	snapshot := r.indexes.Current()
	if snapshot.Len() == 0 {
		logger.InfoContext(ctx, "retrieval against empty index")
		return []RetrievedChunk{}, nil
	}

	vecs, err := r.embedder.EmbedTexts(ctx, []string{question}, llm.RoleQuery)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRetrievalFailed, err)
	}

	hits := snapshot.Search(vecs[0], k)

	out := make([]RetrievedChunk, 0, len(hits))
	for i, hit := range hits {
		entry, ok := snapshot.Get(hit.ChunkID)
		if !ok {
			// Ids come from the same snapshot, so this cannot happen.
			continue
		}
		out = append(out, RetrievedChunk{
			ChunkID:        hit.ChunkID,
			SourcePath:     entry.SourcePath,
			SectionHeading: entry.SectionHeading,
			Text:           entry.Text,
			Score:          hit.Score,
			Rank:           i + 1,
		})
	}

	logger.DebugContext(ctx, "retrieval completed", "k", k, "results", len(out))
	return out, nil
}
