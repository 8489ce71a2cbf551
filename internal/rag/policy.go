package rag

import (
	"fmt"
	"regexp"
)

// Refusal reasons reported in QueryResult.RefusalReason.
const (
	// ReasonNoRelevantContext: retrieval was empty or the top similarity
	// score fell below the threshold; generation was skipped entirely.
	ReasonNoRelevantContext = "no relevant context"
	// ReasonModelDetectedAbsence: the generated text matched the refusal
	// pattern the grounding prompt is designed to elicit.
	ReasonModelDetectedAbsence = "model-detected absence"
	// ReasonRetrievalUnavailable: the query could not be embedded.
	ReasonRetrievalUnavailable = "retrieval unavailable"
	// ReasonGenerationUnavailable: the generation call failed; the query
	// fails closed instead of retrying.
	ReasonGenerationUnavailable = "generation unavailable"
)

// defaultRefusalPattern recognizes the explicit absence phrasings the
// grounding prompt elicits when the context cannot ground an answer.
var defaultRefusalPattern = regexp.MustCompile(
	`(?i)\b(not found|not mentioned|no information|does not (contain|mention)|` +
		`insufficient information|cannot answer|unable to answer)\b`)

// Policy decides whether a query ends ANSWERED or REFUSED. It fails closed
// on both sides: a similarity gate before generation and a self-report gate
// after it, rather than trusting either signal alone.
type Policy struct {
	threshold float32
	refusal   *regexp.Regexp
}

// NewPolicy creates a Policy with the default similarity threshold and an
// optional custom refusal pattern (empty selects the default).
func NewPolicy(threshold float32, pattern string) (*Policy, error) {
	refusal := defaultRefusalPattern
	if pattern != "" {
		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid refusal pattern: %w", err)
		}
		refusal = re
	}
	return &Policy{threshold: threshold, refusal: refusal}, nil
}

// EffectiveThreshold returns the per-query override when positive, else the
// configured default.
func (p *Policy) EffectiveThreshold(override float32) float32 {
	if override > 0 {
		return override
	}
	return p.threshold
}

// PermitsGeneration is the first gate: generation may only run when
// retrieval produced results and the top score clears the threshold.
// Never invoke the generation model on context it cannot ground an answer in.
func (p *Policy) PermitsGeneration(retrieved []RetrievedChunk, threshold float32) bool {
	if len(retrieved) == 0 {
		return false
	}
	return retrieved[0].Score >= threshold
}

// DetectsAbsence is the second gate: it reports whether the generated text
// is a model self-report that the context does not contain the answer.
func (p *Policy) DetectsAbsence(answer string) bool {
	return p.refusal.MatchString(answer)
}
