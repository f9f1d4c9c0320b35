package extractor

import (
	"bytes"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"github.com/dgallion1/quizprep/internal/document"
)

// markdownSource flattens Markdown to structured text via the goldmark
// AST. Heading markers are re-emitted as "#" prefixes so the sectionizer
// sees them. Markdown has no pagination; the result is one page.
type markdownSource struct{}

func (s *markdownSource) Pages(data []byte) ([]RawPage, error) {
	md := goldmark.New()
	reader := text.NewReader(data)
	doc := md.Parser().Parse(reader)

	var buf strings.Builder
	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		switch node := n.(type) {
		case *ast.Heading:
			title := strings.TrimSpace(string(node.Text(data)))
			if title == "" {
				continue
			}
			if buf.Len() > 0 {
				buf.WriteString("\n\n")
			}
			buf.WriteString(strings.Repeat("#", node.Level))
			buf.WriteByte(' ')
			buf.WriteString(title)
		default:
			t := blockText(n, data)
			if t == "" {
				continue
			}
			if buf.Len() > 0 {
				buf.WriteString("\n\n")
			}
			buf.WriteString(t)
		}
	}

	return []RawPage{{Index: 1, Text: buf.String(), Method: document.MethodBlocks}}, nil
}

// blockText collects the text content of a non-heading goldmark node.
func blockText(n ast.Node, src []byte) string {
	var buf bytes.Buffer
	if n.Type() == ast.TypeBlock {
		lines := n.Lines()
		for i := 0; i < lines.Len(); i++ {
			line := lines.At(i)
			buf.Write(line.Value(src))
		}
	}
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if t, ok := c.(*ast.Text); ok {
			buf.Write(t.Value(src))
			if t.HardLineBreak() || t.SoftLineBreak() {
				buf.WriteByte('\n')
			}
		} else {
			buf.WriteString(blockText(c, src))
		}
	}
	return strings.TrimSpace(buf.String())
}
