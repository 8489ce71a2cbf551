// Package indexer drives the offline index build: chunk every document,
// embed every chunk, persist the artifacts and atomically swap the served
// snapshot.
package indexer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"docassist/internal/chunker"
	"docassist/internal/contextutil"
	"docassist/internal/corpus"
	"docassist/internal/llm"
	"docassist/internal/vectorindex"
)

// ErrBuildFailed is returned when a build cannot produce a usable index,
// e.g. when the chunk embedding failure ratio exceeds the configured limit.
var ErrBuildFailed = errors.New("index build failed")

// ErrBuildInProgress is returned when a rebuild is requested while another
// build is still running. The index has a single writer.
var ErrBuildInProgress = errors.New("index build already in progress")

// Config tunes the build.
type Config struct {
	// IndexDir is where the persisted artifacts are written.
	IndexDir string
	// Model is recorded in the manifest; changing it requires a rebuild.
	Model string
	// Dim is the embedding dimensionality.
	Dim int
	// Workers bounds embedding parallelism.
	Workers int
	// MaxFailureRatio is the fraction of failed chunk embeddings above which
	// the whole build fails instead of dropping the failed chunks.
	MaxFailureRatio float64
	// EmbedRetries is the number of attempts per chunk for transient
	// embedding failures. Minimum 1.
	EmbedRetries int
	// RetryBackoff is the base delay between attempts.
	RetryBackoff time.Duration
}

// Builder produces vector indexes from a documentation corpus.
type Builder struct {
	embedder llm.Embedder
	chunker  *chunker.Chunker
	indexes  *vectorindex.Manager
	cfg      Config
	building atomic.Bool
}

// NewBuilder creates a Builder that swaps finished indexes into manager.
func NewBuilder(embedder llm.Embedder, indexes *vectorindex.Manager, cfg Config) *Builder {
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	if cfg.EmbedRetries < 1 {
		cfg.EmbedRetries = 3
	}
	if cfg.RetryBackoff <= 0 {
		cfg.RetryBackoff = 500 * time.Millisecond
	}
	return &Builder{
		embedder: embedder,
		chunker:  chunker.New(),
		indexes:  indexes,
		cfg:      cfg,
	}
}

// Rebuild builds a fresh index from the corpus at corpusPath, persists it
// and atomically swaps it in for the currently served index. Readers keep
// using the old index until the swap completes. Chunk ordering follows
// document order then intra-document order, so rebuilding an unchanged
// corpus yields an identical chunk id sequence.
func (b *Builder) Rebuild(ctx context.Context, corpusPath string) (*vectorindex.Index, error) {
	if !b.building.CompareAndSwap(false, true) {
		return nil, ErrBuildInProgress
	}
	defer b.building.Store(false)

	logger := contextutil.LoggerFromContext(ctx)
	started := time.Now()

	docs, err := corpus.LoadDir(ctx, corpusPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBuildFailed, err)
	}

	var chunks []chunker.Chunk
	for _, doc := range docs {
		for _, ch := range b.chunker.Chunk(doc) {
			// Whitespace-only passages carry no retrievable content.
			if strings.TrimSpace(ch.Text) == "" {
				continue
			}
			chunks = append(chunks, ch)
		}
	}
	if len(chunks) == 0 {
		return nil, fmt.Errorf("%w: no chunks produced from %s", ErrBuildFailed, corpusPath)
	}

	logger.InfoContext(ctx, "embedding chunks", "documents", len(docs), "chunks", len(chunks), "workers", b.cfg.Workers)

	vecs, errs := b.embedAll(ctx, chunks)
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	var failed int
	entries := make([]vectorindex.Entry, 0, len(chunks))
	kept := make([][]float32, 0, len(chunks))
	for i, ch := range chunks {
		if errs[i] != nil {
			failed++
			logger.WarnContext(ctx, "dropping chunk after embedding failure",
				"chunk_id", ch.ID, "error", errs[i])
			continue
		}
		entries = append(entries, vectorindex.Entry{
			ID:             ch.ID,
			SourcePath:     ch.SourcePath,
			SectionHeading: ch.SectionHeading,
			StartOffset:    ch.StartOffset,
			EndOffset:      ch.EndOffset,
			Text:           ch.Text,
		})
		kept = append(kept, vecs[i])
	}

	if ratio := float64(failed) / float64(len(chunks)); ratio > b.cfg.MaxFailureRatio {
		return nil, fmt.Errorf("%w: %d of %d chunk embeddings failed (ratio %.2f exceeds limit %.2f)",
			ErrBuildFailed, failed, len(chunks), ratio, b.cfg.MaxFailureRatio)
	}

	ix, err := vectorindex.NewFromRows(uuid.NewString(), b.cfg.Dim, entries, kept)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBuildFailed, err)
	}

	if err := vectorindex.Save(ctx, b.cfg.IndexDir, ix, b.cfg.Model); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBuildFailed, err)
	}

	// Only after durable persistence does the new index become visible.
	b.indexes.Swap(ix)

	logger.InfoContext(ctx, "index build completed",
		"build_id", ix.BuildID(),
		"chunks", ix.Len(),
		"dropped", failed,
		"elapsed", time.Since(started).String(),
	)
	return ix, nil
}

type embedJob struct {
	idx  int
	text string
}

// embedAll embeds every chunk through a bounded worker pool. Each chunk is
// independent, so workers write to disjoint slice positions; the bounded job
// channel provides backpressure for large corpora.
func (b *Builder) embedAll(ctx context.Context, chunks []chunker.Chunk) ([][]float32, []error) {
	vecs := make([][]float32, len(chunks))
	errs := make([]error, len(chunks))

	jobs := make(chan embedJob, b.cfg.Workers)
	var wg sync.WaitGroup
	for w := 0; w < b.cfg.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobs {
				vecs[job.idx], errs[job.idx] = b.embedChunk(ctx, job.text)
			}
		}()
	}

feed:
	for i, ch := range chunks {
		select {
		case <-ctx.Done():
			break feed
		case jobs <- embedJob{idx: i, text: ch.Text}:
		}
	}
	close(jobs)
	wg.Wait()

	return vecs, errs
}

// embedChunk embeds one passage, retrying transient failures. Retries are
// permitted here (and only here): index builds tolerate slow recovery,
// query-time embedding never retries.
func (b *Builder) embedChunk(ctx context.Context, text string) ([]float32, error) {
	var lastErr error
	for attempt := 0; attempt < b.cfg.EmbedRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(b.cfg.RetryBackoff * time.Duration(attempt)):
			}
		}
		vecs, err := b.embedder.EmbedTexts(ctx, []string{text}, llm.RolePassage)
		if err == nil {
			return vecs[0], nil
		}
		lastErr = err
	}
	return nil, lastErr
}
