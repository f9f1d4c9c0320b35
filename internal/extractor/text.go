package extractor

import (
	"strings"

	"github.com/dgallion1/quizprep/internal/document"
)

// plainSource handles plain text. Form feeds split pages when present;
// otherwise the whole document is a single page.
type plainSource struct{}

func (s *plainSource) Pages(data []byte) ([]RawPage, error) {
	parts := strings.Split(string(data), "\f")
	pages := make([]RawPage, 0, len(parts))
	for i, part := range parts {
		pages = append(pages, RawPage{
			Index:  i + 1,
			Text:   part,
			Method: document.MethodPlain,
		})
	}
	return pages, nil
}
