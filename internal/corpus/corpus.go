// Package corpus loads and prepares a directory of Markdown documentation
// for indexing: it reads files, strips conversion artifacts and derives a
// heading outline with byte offsets into the cleaned text.
package corpus

import (
	"regexp"
	"strings"
)

// Heading is one entry of a document's heading outline.
type Heading struct {
	// Level is the heading depth (1 for #, 2 for ##, ...).
	Level int
	// Title is the heading text without markup.
	Title string
	// Offset is the byte offset of the start of the heading line in the
	// cleaned document text.
	Offset int
}

// Document is a cleaned Markdown document ready for chunking.
type Document struct {
	// SourcePath is the path of the file relative to the corpus root,
	// normalized to forward slashes.
	SourcePath string
	// Text is the cleaned document text.
	Text string
	// Outline lists headings in document order with strictly increasing offsets.
	Outline []Heading
}

var (
	anchorRe     = regexp.MustCompile(`\{#[^}]*\}`)
	headerlinkRe = regexp.MustCompile(`(?i)headerlink`)
	blankRunRe   = regexp.MustCompile(`\n{3,}`)
	spaceRunRe   = regexp.MustCompile(`[ \t]+`)
)

// Clean removes artifacts introduced by HTML-to-Markdown conversion that
// confuse embedding models: Pandoc-style header anchors, leftover
// "headerlink" fragments and excessive whitespace. Structure is preserved.
func Clean(text string) string {
	text = anchorRe.ReplaceAllString(text, "")
	text = headerlinkRe.ReplaceAllString(text, "")
	text = blankRunRe.ReplaceAllString(text, "\n\n")
	text = spaceRunRe.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

// Prepare builds a Document from raw Markdown content.
func Prepare(sourcePath string, raw []byte) Document {
	cleaned := Clean(string(raw))
	return Document{
		SourcePath: sourcePath,
		Text:       cleaned,
		Outline:    Outline([]byte(cleaned)),
	}
}
