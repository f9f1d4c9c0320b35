package sectionizer

import (
	"strings"

	"github.com/dgallion1/quizprep/internal/document"
)

// Config controls heading detection and noise filtering.
type Config struct {
	NoisePatterns   []string // regexps matched against trimmed lines
	RepeatThreshold int      // distinct pages a line must repeat on to be header/footer
	MaxHeadingWords int      // upper bound for all-caps and numbered headings
}

func DefaultConfig() Config {
	return Config{
		NoisePatterns:   DefaultNoisePatterns,
		RepeatThreshold: 3,
		MaxHeadingWords: 12,
	}
}

// Sectionizer splits cleaned document text into heading-scoped sections.
type Sectionizer struct {
	noise           *noiseFilter
	repeatThreshold int
	maxHeadingWords int
}

func New(cfg Config) (*Sectionizer, error) {
	if cfg.RepeatThreshold < 2 {
		cfg.RepeatThreshold = 3
	}
	if cfg.MaxHeadingWords <= 0 {
		cfg.MaxHeadingWords = 12
	}
	nf, err := newNoiseFilter(cfg.NoisePatterns)
	if err != nil {
		return nil, err
	}
	return &Sectionizer{
		noise:           nf,
		repeatThreshold: cfg.RepeatThreshold,
		maxHeadingWords: cfg.MaxHeadingWords,
	}, nil
}

type heading struct {
	text  string
	level int
}

// Sectionize scans full document text (pages separated by form feed) and
// returns ordered sections. Text is attributed to the innermost open
// heading; lines removed by the noise filter never reappear in any
// section. No detected headings yields one section covering everything.
func (s *Sectionizer) Sectionize(fullText string) []document.Section {
	pages := strings.Split(fullText, "\f")
	repeated := repeatedLines(pages, s.repeatThreshold)

	var (
		sections   []document.Section
		stack      []heading
		cur        *document.Section
		curLines   []string
		sawHeading bool
	)

	flush := func() {
		if cur == nil {
			return
		}
		cur.Text = strings.TrimSpace(strings.Join(curLines, "\n"))
		if cur.Text != "" {
			sections = append(sections, *cur)
		}
		cur = nil
		curLines = nil
	}

	for pi, page := range pages {
		pageNum := pi + 1
		for _, line := range strings.Split(page, "\n") {
			trimmed := strings.TrimSpace(line)
			if trimmed == "" {
				if cur != nil {
					curLines = append(curLines, "")
				}
				continue
			}
			if s.noise.drop(trimmed) || repeated[trimmed] {
				continue
			}
			if title, level, ok := s.headingLevel(trimmed); ok {
				flush()
				for len(stack) > 0 && stack[len(stack)-1].level >= level {
					stack = stack[:len(stack)-1]
				}
				stack = append(stack, heading{text: title, level: level})
				sawHeading = true
				continue
			}
			if cur == nil {
				cur = &document.Section{
					HeadingPath: snapshot(stack),
					PageStart:   pageNum,
					Type:        document.SectionBody,
				}
			}
			curLines = append(curLines, trimmed)
			cur.PageEnd = pageNum
		}
	}
	flush()

	for i := range sections {
		if len(sections[i].HeadingPath) == 0 {
			if sawHeading {
				sections[i].Type = document.SectionPreamble
			} else {
				sections[i].Type = document.SectionDocument
			}
		}
	}
	return sections
}

// headingLevel reports whether a trimmed line is a heading, its title with
// markers stripped, and how deep it nests. Markdown prefixes carry their
// own level, numbered headings nest by dot depth, short all-caps lines
// count as top-level.
func (s *Sectionizer) headingLevel(line string) (string, int, bool) {
	if m := reMarkdownHeading.FindStringSubmatch(line); m != nil {
		return strings.TrimSpace(m[2]), len(m[1]), true
	}
	if m := reNumberedHeading.FindStringSubmatch(line); m != nil {
		rest := m[2]
		if len(strings.Fields(rest)) <= s.maxHeadingWords && !strings.HasSuffix(rest, ".") {
			return strings.TrimSpace(rest), strings.Count(m[1], ".") + 1, true
		}
	}
	if isAllCapsHeading(line, s.maxHeadingWords) {
		return line, 1, true
	}
	return "", 0, false
}

func isAllCapsHeading(line string, maxWords int) bool {
	if len(strings.Fields(line)) > maxWords {
		return false
	}
	if line != strings.ToUpper(line) {
		return false
	}
	return countLetters(line) >= 3
}

func countLetters(s string) int {
	n := 0
	for _, r := range s {
		if strings.ToUpper(string(r)) != strings.ToLower(string(r)) {
			n++
		}
	}
	return n
}

// repeatedLines finds trimmed lines occurring on at least threshold
// distinct pages. Running headers and footers repeat verbatim; prose
// almost never does.
func repeatedLines(pages []string, threshold int) map[string]bool {
	if len(pages) < threshold {
		return nil
	}
	seen := map[string]map[int]bool{}
	for pi, page := range pages {
		for _, line := range strings.Split(page, "\n") {
			trimmed := strings.TrimSpace(line)
			if trimmed == "" || len(trimmed) > 80 {
				continue
			}
			if seen[trimmed] == nil {
				seen[trimmed] = map[int]bool{}
			}
			seen[trimmed][pi] = true
		}
	}
	out := map[string]bool{}
	for line, pageSet := range seen {
		if len(pageSet) >= threshold {
			out[line] = true
		}
	}
	return out
}

func snapshot(stack []heading) []string {
	if len(stack) == 0 {
		return nil
	}
	out := make([]string, len(stack))
	for i, h := range stack {
		out[i] = h.text
	}
	return out
}
