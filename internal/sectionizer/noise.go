package sectionizer

import (
	"fmt"
	"regexp"
)

var reMarkdownHeading = regexp.MustCompile(`^(#{1,6})\s+(\S.*)$`)
var reNumberedHeading = regexp.MustCompile(`^(\d+(?:\.\d+)*)[.)]?\s+(\S.*)$`)

// DefaultNoisePatterns covers table-of-contents markers, running page
// markers, dot leaders, and bare page numbers in English and Vietnamese.
// Corpus-specific deployments extend or replace the set through Config.
var DefaultNoisePatterns = []string{
	`(?i)^table of contents$`,
	`(?i)^contents$`,
	`(?i)^mục lục$`,
	`(?i)^page \d+( of \d+)?$`,
	`(?i)^trang \d+$`,
	`^\d{1,4}$`,
	`\.{4,}\s*\d+$`,
}

// noiseFilter drops boilerplate lines before section attribution.
type noiseFilter struct {
	patterns []*regexp.Regexp
}

func newNoiseFilter(patterns []string) (*noiseFilter, error) {
	nf := &noiseFilter{patterns: make([]*regexp.Regexp, 0, len(patterns))}
	for _, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("noise pattern %q: %w", p, err)
		}
		nf.patterns = append(nf.patterns, re)
	}
	return nf, nil
}

func (nf *noiseFilter) drop(trimmedLine string) bool {
	for _, re := range nf.patterns {
		if re.MatchString(trimmedLine) {
			return true
		}
	}
	return false
}
