package llm

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_llm.go -package=mocks docassist/internal/llm Embedder,Generator

import (
	"context"
	"errors"
)

// ErrEmbeddingUnavailable signals a transport or model failure in the
// embedding service. Callers decide retry vs. abort: the index builder
// treats it as a chunk-level failure, the query path fails closed.
var ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

// ErrGenerationUnavailable signals a transport or model failure in the
// generation service. Queries fail closed; generation is never retried.
var ErrGenerationUnavailable = errors.New("generation service unavailable")

// Role selects the text-prefix convention for asymmetric embedding models:
// queries and passages are prefixed differently, and using the wrong role
// systematically degrades retrieval quality.
type Role string

const (
	RoleQuery   Role = "query"
	RolePassage Role = "passage"
)

// prefix returns the text prefix required by e5-family embedding models.
func (r Role) prefix() string {
	switch r {
	case RoleQuery:
		return "query: "
	default:
		return "passage: "
	}
}

// Embedder converts texts into fixed-length vectors. Implementations must
// apply the role convention consistently on both build and query paths.
type Embedder interface {
	EmbedTexts(ctx context.Context, texts []string, role Role) ([][]float32, error)
}

// Generator produces an answer to a question grounded in the given context.
// Decoding must be deterministic: identical inputs yield identical output.
type Generator interface {
	Generate(ctx context.Context, question, docContext string) (string, error)
}
