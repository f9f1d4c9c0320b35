package curator

import (
	"sort"

	"github.com/dgallion1/quizprep/internal/document"
)

// TruncationMarker is appended to clipped block text.
const TruncationMarker = " [...]"

// Limits is the curation budget for one generation request.
type Limits struct {
	MaxTotalChars int // global character budget across all documents
	PerDocCap     int // max chunks selected per document
	ClipLength    int // max characters per block before the marker
}

// DocumentChunks groups one document's persisted chunks for curation.
// Curation is order-sensitive: documents are consumed in slice order.
type DocumentChunks struct {
	DocumentID string
	Chunks     []document.Chunk
}

// Summary reports what curation selected and why it stopped.
type Summary struct {
	TotalChars     int            `json:"total_chars"`
	SelectedPerDoc map[string]int `json:"selected_per_doc"`
	Truncated      bool           `json:"truncated"` // stopped on the global budget
	ClippedBlocks  int            `json:"clipped_blocks"`
}

// Curate selects and budgets chunks across documents. Within each document
// chunks are taken earliest-first up to the per-document cap, a locality
// bias toward document start rather than an importance ranking. Selection
// stops, possibly mid-document, the instant the running character total would
// exceed the global budget. Given identical input ordering the result is
// deterministic.
func Curate(docs []DocumentChunks, lim Limits) ([]document.ContextBlock, Summary) {
	summary := Summary{SelectedPerDoc: make(map[string]int, len(docs))}
	var blocks []document.ContextBlock

	for _, doc := range docs {
		ordered := make([]document.Chunk, len(doc.Chunks))
		copy(ordered, doc.Chunks)
		sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Index < ordered[j].Index })

		taken := 0
		for _, chunk := range ordered {
			if lim.PerDocCap > 0 && taken >= lim.PerDocCap {
				break
			}
			text, clipped := clip(chunk.Text, lim.ClipLength)
			if text == "" {
				continue
			}
			if lim.MaxTotalChars > 0 && summary.TotalChars+len([]rune(text)) > lim.MaxTotalChars {
				summary.Truncated = true
				return blocks, summary
			}
			blocks = append(blocks, document.ContextBlock{
				DocumentID: doc.DocumentID,
				ChunkID:    chunk.ID,
				Text:       text,
			})
			summary.TotalChars += len([]rune(text))
			summary.SelectedPerDoc[doc.DocumentID]++
			if clipped {
				summary.ClippedBlocks++
			}
			taken++
		}
	}
	return blocks, summary
}

func clip(text string, clipLength int) (string, bool) {
	if clipLength <= 0 {
		return text, false
	}
	runes := []rune(text)
	if len(runes) <= clipLength {
		return text, false
	}
	return string(runes[:clipLength]) + TruncationMarker, true
}
