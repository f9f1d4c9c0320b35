package extractor

import (
	"regexp"
	"strings"
)

// Cleanup is ordered: dehyphenation must run before newline collapsing so
// the line break it consumes still exists, and the allow-list strip runs
// last so earlier passes see the original punctuation.
var (
	reCRLF        = regexp.MustCompile(`\r\n?`)
	reHyphenBreak = regexp.MustCompile(`(\p{L})-[ \t]*\n[ \t]*(\p{L})`)
	reTrailingWS  = regexp.MustCompile(`[ \t]+\n`)
	reNewlineRun  = regexp.MustCompile(`\n{3,}`)
	reSpaceRun    = regexp.MustCompile(`[ \t]{2,}`)

	// Allow letters (any script, so diacritics survive), digits, whitespace
	// and basic punctuation. Everything else is stripped.
	reDisallowed = regexp.MustCompile(`[^\p{L}\p{N}\s.,;:!?'"()\[\]{}%&@#*+=/_—–…-]`)
)

// Normalize cleans one page of raw extracted text.
func Normalize(text string) string {
	if text == "" {
		return ""
	}
	text = reCRLF.ReplaceAllString(text, "\n")
	text = reHyphenBreak.ReplaceAllString(text, "$1$2")
	text = reTrailingWS.ReplaceAllString(text, "\n")
	text = reNewlineRun.ReplaceAllString(text, "\n\n")
	text = reSpaceRun.ReplaceAllString(text, " ")
	text = reDisallowed.ReplaceAllString(text, "")
	return strings.TrimSpace(text)
}
