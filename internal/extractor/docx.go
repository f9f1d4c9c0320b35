package extractor

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/fumiama/go-docx"

	"github.com/dgallion1/quizprep/internal/document"
)

// docxSource flattens a .docx body. Heading-styled paragraphs become "#"
// prefixes; DOCX carries no fixed pagination, so the result is one page.
type docxSource struct{}

func (s *docxSource) Pages(data []byte) ([]RawPage, error) {
	doc, err := docx.Parse(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("parse docx: %w", err)
	}

	var buf strings.Builder
	for _, item := range doc.Document.Body.Items {
		para, ok := item.(*docx.Paragraph)
		if !ok {
			continue
		}
		text := paragraphText(para)
		if text == "" {
			continue
		}
		if buf.Len() > 0 {
			buf.WriteString("\n\n")
		}
		if level := paragraphHeadingLevel(para); level > 0 {
			buf.WriteString(strings.Repeat("#", level))
			buf.WriteByte(' ')
		}
		buf.WriteString(text)
	}

	return []RawPage{{Index: 1, Text: buf.String(), Method: document.MethodBlocks}}, nil
}

func paragraphHeadingLevel(para *docx.Paragraph) int {
	if para.Properties == nil || para.Properties.Style == nil {
		return 0
	}
	style := strings.ToLower(strings.ReplaceAll(para.Properties.Style.Val, " ", ""))
	if rest, ok := strings.CutPrefix(style, "heading"); ok && len(rest) == 1 && rest[0] >= '1' && rest[0] <= '6' {
		return int(rest[0] - '0')
	}
	return 0
}

func paragraphText(para *docx.Paragraph) string {
	var buf strings.Builder
	for _, child := range para.Children {
		run, ok := child.(*docx.Run)
		if !ok {
			continue
		}
		for _, rc := range run.Children {
			if t, ok := rc.(*docx.Text); ok {
				buf.WriteString(t.Text)
			}
		}
	}
	return strings.TrimSpace(buf.String())
}
