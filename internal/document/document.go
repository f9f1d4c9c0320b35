package document

// ExtractionMethod records which extraction tier produced a page's text.
type ExtractionMethod string

const (
	MethodBlocks ExtractionMethod = "blocks" // layout-preserving block extraction
	MethodPlain  ExtractionMethod = "plain"  // plain-text fallback
)

// ExtractedPage is the cleaned text of a single source page.
// Pages are immutable once produced; Index is 1-based.
type ExtractedPage struct {
	Index       int
	RawText     string
	CleanedText string
	Method      ExtractionMethod
	CharCount   int
	WordCount   int
}

// SectionType classifies how a section was attributed.
type SectionType string

const (
	SectionBody     SectionType = "body"     // text under a detected heading
	SectionPreamble SectionType = "preamble" // text before the first heading
	SectionDocument SectionType = "document" // whole document, no headings found
)

// Section is a heading-scoped span of a document's cleaned text.
// HeadingPath is the heading stack outer→inner at the point the section's
// text began, e.g. ["Biology", "Photosynthesis"].
type Section struct {
	HeadingPath []string
	Text        string
	PageStart   int
	PageEnd     int
	Type        SectionType
}

// Chunk is a token-bounded contiguous span of a section's text, the atomic
// retrieval unit. HeadingPath and the page range identify the source
// section. Index is monotonic within a document.
type Chunk struct {
	ID                string // assigned by the store on persist
	DocumentID        string
	Text              string
	TokenCount        int
	HeadingPath       []string
	PageStart         int
	PageEnd           int
	Index             int
	HasLeadingOverlap bool
}

// ContextBlock is a curated, possibly-clipped chunk selected for one
// generation request. Request-scoped, never persisted.
type ContextBlock struct {
	DocumentID    string
	ChunkID       string
	Text          string
	QualityScore  float64
	IsSubstantial bool
}

// CopyHeadingPath returns an independent copy of a heading path so sections
// and chunks never share backing arrays with the scanner's stack.
func CopyHeadingPath(path []string) []string {
	if len(path) == 0 {
		return nil
	}
	out := make([]string, len(path))
	copy(out, path)
	return out
}
