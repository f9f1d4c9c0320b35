package langdetect

import (
	"math"
	"strings"
	"unicode"
)

// vietnameseLetters holds the letters specific to Vietnamese orthography
// (lowercase; input is lowered before the check).
const vietnameseLetters = "ăâđêôơưàáảãạằắẳẵặầấẩẫậèéẻẽẹềếểễệìíỉĩịòóỏõọồốổỗộờớởỡợùúủũụừứửữựỳýỷỹỵ"

// englishStopwords is a tiny high-frequency set; a couple of hits in a
// short sample is a strong signal.
var englishStopwords = map[string]bool{
	"the": true, "and": true, "of": true, "to": true, "in": true,
	"is": true, "that": true, "for": true, "it": true, "with": true,
	"as": true, "on": true, "was": true, "are": true, "this": true,
}

// heuristicDetect is the last-resort detector when no backend succeeds:
// Vietnamese-specific letters signal "vi", English stop words signal
// "en", anything else is "und" at low confidence.
func heuristicDetect(sample string) (string, float64) {
	lower := strings.ToLower(sample)

	letters, viHits := 0, 0
	for _, r := range lower {
		if !unicode.IsLetter(r) {
			continue
		}
		letters++
		if strings.ContainsRune(vietnameseLetters, r) {
			viHits++
		}
	}
	if letters == 0 {
		return "und", 0.1
	}
	viRatio := float64(viHits) / float64(letters)
	if viHits >= 3 || viRatio >= 0.05 {
		return "vi", 0.7 + math.Min(0.25, viRatio)
	}

	words := strings.Fields(lower)
	stopHits := 0
	for _, w := range words {
		if englishStopwords[strings.Trim(w, ".,;:!?'\"()")] {
			stopHits++
		}
	}
	if len(words) > 0 {
		stopRatio := float64(stopHits) / float64(len(words))
		if stopHits >= 2 || stopRatio >= 0.1 {
			return "en", 0.6 + math.Min(0.3, stopRatio)
		}
	}
	return "und", 0.1
}
