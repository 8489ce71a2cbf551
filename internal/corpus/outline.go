package corpus

import (
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// Outline parses the cleaned document text and returns its headings in
// document order. Offsets point at the first byte of the heading line so a
// chunk boundary placed at a heading never splits inside it.
func Outline(source []byte) []Heading {
	if len(source) == 0 {
		return nil
	}

	md := goldmark.New()
	doc := md.Parser().Parse(text.NewReader(source))

	var out []Heading
	lastOffset := -1

	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}

		heading, ok := n.(*ast.Heading)
		if !ok {
			return ast.WalkContinue, nil
		}

		lines := heading.Lines()
		if lines.Len() == 0 {
			return ast.WalkSkipChildren, nil
		}

		// The segment starts after the '#' markers; rewind to the line start.
		offset := lines.At(0).Start
		for offset > 0 && source[offset-1] != '\n' {
			offset--
		}

		if offset <= lastOffset {
			return ast.WalkSkipChildren, nil
		}
		lastOffset = offset

		out = append(out, Heading{
			Level:  heading.Level,
			Title:  headingText(heading, source),
			Offset: offset,
		})
		return ast.WalkSkipChildren, nil
	})

	return out
}

// headingText extracts the plain text content of a heading node.
func headingText(n ast.Node, content []byte) string {
	var builder strings.Builder

	_ = ast.Walk(n, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch v := node.(type) {
		case *ast.Text:
			builder.Write(v.Segment.Value(content))
		case *ast.String:
			builder.Write(v.Value)
		}
		return ast.WalkContinue, nil
	})

	return strings.TrimSpace(builder.String())
}
