// Package chunker splits cleaned documents into addressable passages.
// Chunking is a pure transformation: the concatenation of chunk texts in
// order reconstructs the document exactly, with no gaps and no overlaps.
package chunker

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"docassist/internal/corpus"
)

// maxChunkRunes targets ~450 tokens for a 512-token embedding model.
const maxChunkRunes = 700

// Chunk is a contiguous passage of one source document.
type Chunk struct {
	// ID is stable across rebuilds: source path plus zero-padded ordinal.
	ID             string
	SourcePath     string
	SectionHeading string
	Text           string
	// StartOffset and EndOffset are byte offsets into the cleaned document
	// text, so Text == doc.Text[StartOffset:EndOffset].
	StartOffset int
	EndOffset   int
}

// Chunker splits documents along their heading outline, breaking long
// sections at paragraph, line or sentence boundaries near the rune limit.
type Chunker struct {
	maxRunes int
}

// New creates a Chunker with the default chunk size limit.
func New() *Chunker {
	return NewWithLimit(maxChunkRunes)
}

// NewWithLimit creates a Chunker with a custom rune limit per chunk.
func NewWithLimit(maxRunes int) *Chunker {
	if maxRunes <= 0 {
		maxRunes = maxChunkRunes
	}
	return &Chunker{maxRunes: maxRunes}
}

// Chunk splits the document into chunks. A heading always starts a new
// chunk. Degenerate input (empty document, no headings) still yields one
// chunk covering the whole text.
func (c *Chunker) Chunk(doc corpus.Document) []Chunk {
	if doc.Text == "" {
		return []Chunk{{
			ID:         chunkID(doc.SourcePath, 0),
			SourcePath: doc.SourcePath,
		}}
	}

	var chunks []Chunk
	ordinal := 0

	for _, seg := range c.segments(doc) {
		for _, r := range c.splitRanges(doc.Text[seg.start:seg.end]) {
			start := seg.start + r[0]
			end := seg.start + r[1]
			chunks = append(chunks, Chunk{
				ID:             chunkID(doc.SourcePath, ordinal),
				SourcePath:     doc.SourcePath,
				SectionHeading: seg.heading,
				Text:           doc.Text[start:end],
				StartOffset:    start,
				EndOffset:      end,
			})
			ordinal++
		}
	}

	return chunks
}

type segment struct {
	start   int
	end     int
	heading string
}

// segments partitions the document text at heading offsets. Text before the
// first heading forms a segment with an empty section heading.
func (c *Chunker) segments(doc corpus.Document) []segment {
	var segs []segment
	start := 0
	heading := ""

	for _, h := range doc.Outline {
		if h.Offset <= start && !(h.Offset == 0 && start == 0) {
			continue
		}
		if h.Offset > len(doc.Text) {
			break
		}
		if h.Offset > start {
			segs = append(segs, segment{start: start, end: h.Offset, heading: heading})
		}
		start = h.Offset
		heading = h.Title
	}

	if start < len(doc.Text) {
		segs = append(segs, segment{start: start, end: len(doc.Text), heading: heading})
	}

	return segs
}

// splitRanges covers s with byte ranges of at most maxRunes runes each,
// preferring paragraph, then line, then sentence boundaries over hard cuts.
// The ranges are contiguous and concatenate back to s exactly.
func (c *Chunker) splitRanges(s string) [][2]int {
	var ranges [][2]int
	start := 0

	for start < len(s) {
		end := start
		runes := 0
		for end < len(s) && runes < c.maxRunes {
			_, size := utf8.DecodeRuneInString(s[end:])
			end += size
			runes++
		}

		if end >= len(s) {
			ranges = append(ranges, [2]int{start, len(s)})
			break
		}

		window := s[start:end]
		cut := end
		if i := strings.LastIndex(window, "\n\n"); i > 0 {
			cut = start + i + 2
		} else if i := strings.LastIndex(window, "\n"); i > 0 {
			cut = start + i + 1
		} else if i := strings.LastIndex(window, ". "); i > 0 {
			cut = start + i + 2
		}

		ranges = append(ranges, [2]int{start, cut})
		start = cut
	}

	return ranges
}

// chunkID derives the stable chunk identifier from source path and ordinal.
// The zero-padded ordinal keeps lexicographic id order equal to document order.
func chunkID(sourcePath string, ordinal int) string {
	return fmt.Sprintf("%s#%04d", sourcePath, ordinal)
}

// Ordinal extracts the ordinal from a chunk id. It returns -1 for ids that
// do not follow the source-path#ordinal form.
func Ordinal(id string) int {
	i := strings.LastIndex(id, "#")
	if i < 0 || i+1 >= len(id) {
		return -1
	}
	ord := 0
	for _, r := range id[i+1:] {
		if r < '0' || r > '9' {
			return -1
		}
		ord = ord*10 + int(r-'0')
	}
	return ord
}
