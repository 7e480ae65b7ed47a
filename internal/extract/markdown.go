package extract

import (
	"io"

	"github.com/dgallion1/outlined/internal/outline"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// MarkdownExtractor handles Markdown files using goldmark. Heading
// offsets are real source offsets: the start of the heading's line in
// the original markdown.
type MarkdownExtractor struct{}

func (x *MarkdownExtractor) Extract(r io.Reader, filename string) (*Document, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	md := goldmark.New()
	doc := md.Parser().Parse(text.NewReader(src))

	var entries []outline.Entry
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		h, ok := n.(*ast.Heading)
		if !ok {
			return ast.WalkContinue, nil
		}

		lines := h.Lines()
		if lines.Len() == 0 {
			// A bare "#" with no text has no source segment to anchor
			// an offset to; skip it.
			return ast.WalkSkipChildren, nil
		}
		pos := lineStart(src, lines.At(0).Start)

		entries = append(entries, outline.Entry{
			Level: h.Level,
			Text:  string(h.Text(src)),
			Pos:   pos,
		})
		return ast.WalkSkipChildren, nil
	})

	return &Document{
		Title:   titleFromFilename(filename),
		Text:    string(src),
		Entries: closeSections(entries, len(src)),
	}, nil
}

// lineStart walks back from offset to the beginning of its line, so the
// entry position covers the "#" markers, not just the heading text.
func lineStart(src []byte, offset int) int {
	for offset > 0 && src[offset-1] != '\n' {
		offset--
	}
	return offset
}
