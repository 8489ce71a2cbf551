package rag

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"docassist/internal/chunker"
)

// Assembly is the bounded prompt context built from ranked retrieval
// results, plus the ordered ids of the chunks that contributed to it.
type Assembly struct {
	Context  string
	ChunkIDs []string
}

// Assembler turns a ranked list of retrieved chunks into a bounded context.
// The budget counts runes of chunk text; block headers are not charged.
// Assembly is deterministic given identical ranked input and budget.
type Assembler struct {
	budget int
}

// NewAssembler creates an Assembler with the given rune budget.
func NewAssembler(budget int) *Assembler {
	if budget <= 0 {
		budget = 2000
	}
	return &Assembler{budget: budget}
}

type contextBlock struct {
	sourcePath     string
	sectionHeading string
	minOrd         int
	maxOrd         int
	// pieces are kept in ordinal order; adjacent chunks concatenate back to
	// the original document span with no separator.
	pieces []blockPiece
}

type blockPiece struct {
	ord  int
	id   string
	text string
}

// Assemble selects a prefix of the ranked list under the budget. Adjacent
// chunks from the same document merge into one block; once the budget is
// half spent, additional non-adjacent chunks from an already-represented
// document are dropped in favor of diversity.
func (a *Assembler) Assemble(ranked []RetrievedChunk) Assembly {
	var blocks []*contextBlock
	bySource := make(map[string][]*contextBlock)
	used := 0

	for _, rc := range ranked {
		text := rc.Text
		cost := utf8.RuneCountInString(text)

		if used+cost > a.budget {
			if len(blocks) > 0 {
				break
			}
			// Always carry at least the top-ranked chunk, truncated to fit.
			text = truncateRunes(text, a.budget)
			cost = utf8.RuneCountInString(text)
		}

		ord := chunker.Ordinal(rc.ChunkID)

		if ord >= 0 {
			if blk := adjacentBlock(bySource[rc.SourcePath], ord); blk != nil {
				blk.insert(ord, rc.ChunkID, text)
				used += cost
				continue
			}
		}

		if len(bySource[rc.SourcePath]) > 0 && used*2 >= a.budget {
			continue
		}

		blk := &contextBlock{
			sourcePath:     rc.SourcePath,
			sectionHeading: rc.SectionHeading,
			minOrd:         ord,
			maxOrd:         ord,
			pieces:         []blockPiece{{ord: ord, id: rc.ChunkID, text: text}},
		}
		blocks = append(blocks, blk)
		bySource[rc.SourcePath] = append(bySource[rc.SourcePath], blk)
		used += cost
	}

	return render(blocks)
}

func adjacentBlock(candidates []*contextBlock, ord int) *contextBlock {
	for _, blk := range candidates {
		if blk.minOrd < 0 {
			continue
		}
		if ord == blk.maxOrd+1 || ord == blk.minOrd-1 {
			return blk
		}
	}
	return nil
}

func (b *contextBlock) insert(ord int, id, text string) {
	piece := blockPiece{ord: ord, id: id, text: text}
	if ord == b.maxOrd+1 {
		b.pieces = append(b.pieces, piece)
		b.maxOrd = ord
	} else {
		b.pieces = append([]blockPiece{piece}, b.pieces...)
		b.minOrd = ord
	}
}

func render(blocks []*contextBlock) Assembly {
	if len(blocks) == 0 {
		return Assembly{ChunkIDs: []string{}}
	}

	var sb strings.Builder
	sb.WriteString("--- Context from documentation ---\n\n")

	var ids []string
	for _, blk := range blocks {
		fmt.Fprintf(&sb, "[Source: %s]", blk.sourcePath)
		if blk.sectionHeading != "" {
			fmt.Fprintf(&sb, " Section: %s", blk.sectionHeading)
		}
		sb.WriteString("\n")
		for _, p := range blk.pieces {
			sb.WriteString(p.text)
			ids = append(ids, p.id)
		}
		sb.WriteString("\n\n")
	}

	sb.WriteString("--- End Context ---")
	return Assembly{Context: sb.String(), ChunkIDs: ids}
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n])
}
