package quality

import (
	"strings"

	"github.com/dgallion1/quizprep/internal/document"
)

// Thresholds for substantive content. Word count below MinWords or a
// metadata-term ratio above MaxMetadataRatio rejects a block outright.
const (
	MinWords         = 15
	MaxMetadataRatio = 0.4
	MaxLabelWords    = 8
	ScoreDivisor     = 50.0
	SubstantialScore = 0.6
)

// metadataTerms flags structural and administrative vocabulary, English
// and Vietnamese. A word counts as metadata if it contains any term.
var metadataTerms = []string{
	"chapter", "section", "contents", "page", "assignment", "exercise",
	"homework", "appendix", "index", "figure", "table",
	"chương", "mục", "lục", "trang", "bài", "tập", "phụ", "hình", "bảng",
}

// labelPrefixes open purely structural lines ("Chapter 3", "Phần II").
var labelPrefixes = []string{
	"chapter", "section", "part",
	"chương", "mục", "phần",
}

// Filter scores blocks and drops the ones without substantive content.
// Kept blocks come back with QualityScore and IsSubstantial attached.
func Filter(blocks []document.ContextBlock) []document.ContextBlock {
	out := make([]document.ContextBlock, 0, len(blocks))
	for _, b := range blocks {
		score, substantial, ok := Evaluate(b.Text)
		if !ok {
			continue
		}
		b.QualityScore = score
		b.IsSubstantial = substantial
		out = append(out, b)
	}
	return out
}

// Evaluate applies the content rules to one text. ok=false means the text
// is rejected; otherwise the score and substantiality verdict are valid.
func Evaluate(text string) (score float64, substantial bool, ok bool) {
	words := strings.Fields(text)
	if len(words) < MinWords {
		return 0, false, false
	}
	if metadataRatio(words) > MaxMetadataRatio {
		return 0, false, false
	}
	if isStructuralLine(text, words) {
		return 0, false, false
	}
	score = float64(len(words)) / ScoreDivisor
	if score > 1.0 {
		score = 1.0
	}
	return score, score > SubstantialScore, true
}

// metadataRatio is the fraction of words containing any structural or
// administrative indicator term.
func metadataRatio(words []string) float64 {
	hits := 0
	for _, w := range words {
		lw := strings.ToLower(w)
		for _, term := range metadataTerms {
			if strings.Contains(lw, term) {
				hits++
				break
			}
		}
	}
	return float64(hits) / float64(len(words))
}

// isStructuralLine rejects headings that slipped through sectioning: a
// short line ending in a colon, or a short line opening with a bare
// chapter/section/part label. With the current thresholds any text short
// enough to fire is already below MinWords, so this is an independent
// guard: the structural policy must keep holding if the word minimum is
// ever lowered.
func isStructuralLine(text string, words []string) bool {
	trimmed := strings.TrimSpace(text)
	if strings.HasSuffix(trimmed, ":") && len(words) <= MaxLabelWords {
		return true
	}
	if len(words) <= MaxLabelWords {
		first := strings.ToLower(strings.Trim(words[0], ".:"))
		for _, label := range labelPrefixes {
			if first == label {
				return true
			}
		}
	}
	return false
}

// RuleBlock is the natural-language statement of these exclusions,
// injected into the generation prompt so upstream generation reinforces
// the same policy the filter applies.
const RuleBlock = `Content rules for question generation:
- Only use passages with substantive explanatory content.
- Never base a question on tables of contents, page markers, chapter or
  section labels, assignment lists, or other structural text.
- Skip passages shorter than 15 words.
- Skip passages that are mostly administrative vocabulary (chapter, page,
  assignment, table of contents and their Vietnamese equivalents such as
  "chương", "trang", "bài tập", "mục lục").
- Every question must be answerable from the passage it cites.`
