package rag

import (
	"context"
	"errors"
	"strings"

	"docassist/internal/contextutil"
	"docassist/internal/llm"
)

// Engine answers questions over the indexed documentation. Every query is
// independent; no component below holds cross-query state.
type Engine interface {
	// Answer runs one retrieval-augmented query and returns its result.
	Answer(ctx context.Context, q Query) (QueryResult, error)
}

// ErrEmptyQuestion is returned for blank questions.
var ErrEmptyQuestion = errors.New("question must not be empty")

type engine struct {
	retriever *Retriever
	assembler *Assembler
	generator llm.Generator
	policy    *Policy
	defaultK  int
	maxK      int
}

// NewEngine composes retriever, assembler, generator and policy into the
// query pipeline.
func NewEngine(retriever *Retriever, assembler *Assembler, generator llm.Generator, policy *Policy, defaultK, maxK int) Engine {
	if defaultK <= 0 {
		defaultK = 5
	}
	if maxK < defaultK {
		maxK = defaultK
	}
	return &engine{
		retriever: retriever,
		assembler: assembler,
		generator: generator,
		policy:    policy,
		defaultK:  defaultK,
		maxK:      maxK,
	}
}

// Answer sequences retrieve -> assemble -> generate (conditionally) ->
// refusal policy -> citations. Failures of either gateway fail the query
// closed: the caller gets a refusal, never a fabricated answer.
func (e *engine) Answer(ctx context.Context, q Query) (QueryResult, error) {
	logger := contextutil.LoggerFromContext(ctx)

	question := strings.TrimSpace(q.Question)
	if question == "" {
		return QueryResult{}, ErrEmptyQuestion
	}

	k := q.K
	if k <= 0 {
		k = e.defaultK
	}
	if k > e.maxK {
		k = e.maxK
	}
	threshold := e.policy.EffectiveThreshold(q.Threshold)

	retrieved, err := e.retriever.Retrieve(ctx, question, k)
	if err != nil {
		logger.ErrorContext(ctx, "retrieval failed, refusing", "error", err)
		return refusal(ReasonRetrievalUnavailable, nil), nil
	}

	if !e.policy.PermitsGeneration(retrieved, threshold) {
		logger.InfoContext(ctx, "refusing below similarity gate",
			"results", len(retrieved), "threshold", threshold)
		return refusal(ReasonNoRelevantContext, retrieved), nil
	}

	assembly := e.assembler.Assemble(retrieved)

	answer, err := e.generator.Generate(ctx, question, assembly.Context)
	if err != nil {
		logger.ErrorContext(ctx, "generation failed, refusing", "error", err)
		return refusal(ReasonGenerationUnavailable, retrieved), nil
	}

	if e.policy.DetectsAbsence(answer) {
		logger.InfoContext(ctx, "refusing on model-reported absence")
		return refusal(ReasonModelDetectedAbsence, retrieved), nil
	}

	result := QueryResult{
		Answer:    answer,
		Sources:   ResolveCitations(assembly.ChunkIDs, retrieved),
		Retrieved: retrieved,
	}
	logger.InfoContext(ctx, "query answered",
		"chunks_used", len(assembly.ChunkIDs), "sources", len(result.Sources))
	return result, nil
}

func refusal(reason string, retrieved []RetrievedChunk) QueryResult {
	if retrieved == nil {
		retrieved = []RetrievedChunk{}
	}
	return QueryResult{
		Refused:       true,
		RefusalReason: reason,
		Sources:       []string{},
		Retrieved:     retrieved,
	}
}
