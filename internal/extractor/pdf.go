package extractor

import (
	"bytes"
	"fmt"
	"strings"

	pdflib "github.com/ledongthuc/pdf"

	"github.com/dgallion1/quizprep/internal/document"
)

// pdfSource extracts per-page text from PDF bytes with a two-tier
// strategy: layout-preserving row extraction first, plain extraction when
// the rows yield less than minBlockChars characters.
type pdfSource struct {
	minBlockChars int
}

func (s *pdfSource) Pages(data []byte) (pages []RawPage, err error) {
	// The pdf library panics on some malformed files; corrupt input must
	// come back as a structured failure, not a crash.
	defer func() {
		if r := recover(); r != nil {
			pages = nil
			err = fmt.Errorf("pdf reader panic: %v", r)
		}
	}()

	reader, err := pdflib.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}

	numPages := reader.NumPage()
	pages = make([]RawPage, 0, numPages)
	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			pages = append(pages, RawPage{Index: i, Method: document.MethodPlain})
			continue
		}
		pages = append(pages, s.extractPage(page, i))
	}
	return pages, nil
}

func (s *pdfSource) extractPage(page pdflib.Page, index int) RawPage {
	text, err := extractByRows(page)
	if err == nil && len(strings.TrimSpace(text)) >= s.minBlockChars {
		return RawPage{Index: index, Text: text, Method: document.MethodBlocks}
	}

	plain, err := page.GetPlainText(nil)
	if err != nil {
		// A single unreadable page does not fail the document.
		return RawPage{Index: index, Method: document.MethodPlain}
	}
	return RawPage{Index: index, Text: plain, Method: document.MethodPlain}
}

func extractByRows(page pdflib.Page) (string, error) {
	rows, err := page.GetTextByRow()
	if err != nil {
		return "", err
	}
	var buf strings.Builder
	for _, row := range rows {
		for i, word := range row.Content {
			if i > 0 {
				buf.WriteByte(' ')
			}
			buf.WriteString(word.S)
		}
		buf.WriteByte('\n')
	}
	return buf.String(), nil
}
