// Package rag implements the online query pipeline: retrieval, context
// assembly, grounded generation, the refusal policy and citation resolution.
package rag

// Query is one user question with its run-time parameters.
type Query struct {
	// Question is the user's question to answer.
	Question string `json:"question"`
	// K optionally overrides how many chunks are retrieved. Zero selects the
	// engine default; values above the configured maximum are clamped.
	K int `json:"k,omitempty"`
	// Threshold optionally overrides the similarity threshold below which
	// the query is refused without invoking generation. Zero selects the
	// configured default.
	Threshold float32 `json:"threshold,omitempty"`
}

// RetrievedChunk is a chunk paired with its similarity score for one query.
type RetrievedChunk struct {
	// ChunkID is the stable chunk identifier.
	ChunkID string `json:"chunk_id"`
	// SourcePath is the path of the source document relative to the corpus root.
	SourcePath string `json:"source_path"`
	// SectionHeading is the nearest enclosing heading, may be empty.
	SectionHeading string `json:"section_heading,omitempty"`
	// Text is the chunk text content.
	Text string `json:"text"`
	// Score is the cosine similarity against the query embedding.
	Score float32 `json:"score"`
	// Rank is the 1-based position in the retrieval result.
	Rank int `json:"rank"`
}

// QueryResult is the structured outcome of one query.
type QueryResult struct {
	// Answer is the generated answer; empty when the query was refused.
	Answer string `json:"answer"`
	// Refused indicates an explicit "insufficient information" outcome.
	// Refusal is a normal, frequent, valid outcome, not an error.
	Refused bool `json:"refused"`
	// RefusalReason names the gate that refused, when Refused is true.
	RefusalReason string `json:"refusal_reason,omitempty"`
	// Sources lists the distinct source paths that contributed to the
	// assembled context, in first-appearance order. Empty on refusal.
	Sources []string `json:"sources"`
	// Retrieved is the ranked retrieval result, kept for display and debugging.
	Retrieved []RetrievedChunk `json:"retrieved"`
}
