package extractor

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dgallion1/quizprep/internal/document"
)

// PageSource extracts raw per-page text from document bytes for one
// declared format.
type PageSource interface {
	Pages(data []byte) ([]RawPage, error)
}

// RawPage is a page before normalization. Index is 1-based.
type RawPage struct {
	Index  int
	Text   string
	Method document.ExtractionMethod
}

// SupportedFormats lists declared formats this core can extract.
var SupportedFormats = map[string]bool{
	"pdf":  true,
	"txt":  true,
	"md":   true,
	"html": true,
	"docx": true,
}

// ForFormat returns the page source for a declared format.
func ForFormat(format string, minBlockChars int) (PageSource, error) {
	switch strings.ToLower(format) {
	case "pdf":
		return &pdfSource{minBlockChars: minBlockChars}, nil
	case "txt", "text":
		return &plainSource{}, nil
	case "md", "markdown":
		return &markdownSource{}, nil
	case "html", "htm":
		return &htmlSource{}, nil
	case "docx":
		return &docxSource{}, nil
	default:
		return nil, fmt.Errorf("unsupported format: %s", format)
	}
}

// Statistics aggregates per-page counts for one document.
type Statistics struct {
	TotalChars       int `json:"total_chars"`
	TotalWords       int `json:"total_words"`
	PagesWithContent int `json:"pages_with_content"`
}

// Result is the outcome of extracting one document. A corrupt or
// unreadable document yields Success=false with an error description and
// zero statistics; it never surfaces as a panic or a bare error.
type Result struct {
	Pages     []document.ExtractedPage
	FullText  string // cleaned pages joined by form feed
	PageCount int
	Success   bool
	Error     string
	Stats     Statistics
}

// Extractor runs page extraction and normalization for one document.
type Extractor struct {
	minBlockChars int
	maxConcurrent int
	log           *slog.Logger
}

func New(minBlockChars, maxConcurrent int, log *slog.Logger) *Extractor {
	if minBlockChars <= 0 {
		minBlockChars = 25
	}
	if maxConcurrent <= 0 {
		maxConcurrent = 4
	}
	return &Extractor{minBlockChars: minBlockChars, maxConcurrent: maxConcurrent, log: log}
}

// Extract pulls raw pages for the declared format and normalizes them.
// Per-page normalization runs with bounded concurrency; output order
// follows page index regardless of completion order.
func (e *Extractor) Extract(ctx context.Context, data []byte, format string) Result {
	src, err := ForFormat(format, e.minBlockChars)
	if err != nil {
		return failure(err)
	}
	raw, err := src.Pages(data)
	if err != nil {
		e.log.Error("extraction failed", "format", format, "error", err)
		return failure(fmt.Errorf("extract %s: %w", format, err))
	}

	pages := make([]document.ExtractedPage, len(raw))
	sem := make(chan struct{}, e.maxConcurrent)
	done := make(chan int, len(raw))

	dispatched := 0
	for i, rp := range raw {
		if ctx.Err() != nil {
			break
		}
		sem <- struct{}{}
		dispatched++
		go func(i int, rp RawPage) {
			defer func() { <-sem }()
			cleaned := Normalize(rp.Text)
			pages[i] = document.ExtractedPage{
				Index:       rp.Index,
				RawText:     rp.Text,
				CleanedText: cleaned,
				Method:      rp.Method,
				CharCount:   len([]rune(cleaned)),
				WordCount:   len(strings.Fields(cleaned)),
			}
			done <- i
		}(i, rp)
	}
	for i := 0; i < dispatched; i++ {
		<-done
	}
	if err := ctx.Err(); err != nil {
		return failure(fmt.Errorf("extraction canceled: %w", err))
	}

	var stats Statistics
	texts := make([]string, 0, len(pages))
	for _, p := range pages {
		stats.TotalChars += p.CharCount
		stats.TotalWords += p.WordCount
		if p.CleanedText != "" {
			stats.PagesWithContent++
		}
		texts = append(texts, p.CleanedText)
	}

	return Result{
		Pages:     pages,
		FullText:  strings.Join(texts, "\f"),
		PageCount: len(pages),
		Success:   true,
		Stats:     stats,
	}
}

func failure(err error) Result {
	return Result{Success: false, Error: err.Error()}
}
