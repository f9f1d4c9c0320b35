package chunker

import (
	"log/slog"
	"math"
	"strings"
	"unicode"

	"github.com/dgallion1/quizprep/internal/document"
)

// DensityWeights blends the three density signals. Weights are empirical
// tuning constants and live in configuration, not code.
type DensityWeights struct {
	Symbol  float64 // symbol/punctuation ratio
	WordLen float64 // normalized average word length
	Numeric float64 // numeric-token ratio
}

// Config controls dynamic chunking behavior.
type Config struct {
	MinTokens        int // lower clamp for the density-adjusted target
	MaxTokens        int // upper clamp for the density-adjusted target
	BaseTokens       int // target size before density adjustment
	SentOverlapRatio float64
	HardTokenCeiling int // downstream consumer's input limit, never reached
	SafetyMargin     int // reserved headroom below the ceiling
	Weights          DensityWeights
}

func DefaultConfig() Config {
	return Config{
		MinTokens:        80,
		MaxTokens:        448,
		BaseTokens:       320,
		SentOverlapRatio: 0.15,
		HardTokenCeiling: 512,
		SafetyMargin:     32,
		Weights:          DensityWeights{Symbol: 0.4, WordLen: 0.3, Numeric: 0.3},
	}
}

// budget is the effective per-chunk token limit.
func (c Config) budget() int {
	return c.HardTokenCeiling - c.SafetyMargin
}

// DynamicChunker splits a section into token-bounded chunks at sentence
// boundaries, sizing targets by text density and carrying sentence overlap
// between consecutive chunks.
type DynamicChunker struct {
	cfg     Config
	counter TokenCounter
	log     *slog.Logger
}

func NewDynamic(cfg Config, counter TokenCounter, log *slog.Logger) *DynamicChunker {
	if cfg.HardTokenCeiling <= 0 {
		cfg.HardTokenCeiling = 512
	}
	if cfg.SafetyMargin <= 0 || cfg.SafetyMargin >= cfg.HardTokenCeiling {
		cfg.SafetyMargin = cfg.HardTokenCeiling / 16
	}
	if cfg.MinTokens <= 0 {
		cfg.MinTokens = 80
	}
	if cfg.MaxTokens <= cfg.MinTokens || cfg.MaxTokens >= cfg.budget() {
		cfg.MaxTokens = cfg.budget() - 1
	}
	if cfg.BaseTokens < cfg.MinTokens || cfg.BaseTokens > cfg.MaxTokens {
		cfg.BaseTokens = (cfg.MinTokens + cfg.MaxTokens) / 2
	}
	if cfg.SentOverlapRatio < 0 || cfg.SentOverlapRatio >= 1 {
		cfg.SentOverlapRatio = 0
	}
	if counter == nil {
		counter = DefaultCounter()
	}
	if log == nil {
		log = slog.Default()
	}
	return &DynamicChunker{cfg: cfg, counter: counter, log: log}
}

// Chunk splits one section. Indexes start at startIndex and increase
// monotonically so a document-wide sequence can be threaded through.
func (d *DynamicChunker) Chunk(sec document.Section, startIndex int) []document.Chunk {
	text := strings.TrimSpace(sec.Text)
	if text == "" {
		return nil
	}

	budget := d.cfg.budget()
	units := d.forceSplitOversized(splitSentenceUnits(text))
	target := d.targetTokens(text)

	var (
		chunks    []document.Chunk
		cur       []string
		curTokens int
		seeded    int // units at the head of cur carried over as overlap
		index     = startIndex
	)

	emit := func(chunkText string, tokens int, overlap bool) {
		chunks = append(chunks, document.Chunk{
			Text:              chunkText,
			TokenCount:        tokens,
			HeadingPath:       document.CopyHeadingPath(sec.HeadingPath),
			PageStart:         sec.PageStart,
			PageEnd:           sec.PageEnd,
			Index:             index,
			HasLeadingOverlap: overlap,
		})
		index++
	}

	closeChunk := func(reseed bool) {
		if len(cur) == 0 {
			return
		}
		joined := strings.TrimSpace(strings.Join(cur, " "))
		overlap := seeded > 0
		if joined != "" {
			tokens := d.counter.Count(joined)
			if tokens >= budget {
				// Joining can drift past the per-unit counts; recover with a
				// forced character-level split.
				d.log.Warn("chunk breached token budget after join, force splitting",
					"tokens", tokens, "budget", budget)
				for _, part := range d.forceSplitText(joined) {
					emit(part, d.counter.Count(part), overlap)
					overlap = false
				}
			} else {
				emit(joined, tokens, overlap)
			}
		}
		prev := cur
		cur = nil
		curTokens = 0
		seeded = 0
		if reseed && d.cfg.SentOverlapRatio > 0 && len(prev) > 1 {
			k := int(math.Ceil(float64(len(prev)) * d.cfg.SentOverlapRatio))
			if k >= len(prev) {
				k = len(prev) - 1
			}
			for _, u := range prev[len(prev)-k:] {
				cur = append(cur, u)
				curTokens += d.counter.Count(u)
			}
			seeded = len(cur)
		}
	}

	for _, u := range units {
		t := d.counter.Count(u)
		if len(cur) > seeded && curTokens+t > target {
			closeChunk(true)
		}
		// An overlap seed that cannot host the next unit within budget is
		// dropped rather than emitted as a chunk of repeated text.
		if seeded > 0 && len(cur) == seeded && curTokens+t >= budget {
			cur = nil
			curTokens = 0
			seeded = 0
		}
		cur = append(cur, u)
		curTokens += t
	}
	closeChunk(false)

	return chunks
}

// targetTokens computes the density-adjusted chunk target. Denser text
// carries more load per token, so it gets a smaller target.
func (d *DynamicChunker) targetTokens(text string) int {
	density := densityScore(text, d.cfg.Weights)
	target := int(float64(d.cfg.BaseTokens) * (1 - 0.5*density))
	if target < d.cfg.MinTokens {
		target = d.cfg.MinTokens
	}
	if target > d.cfg.MaxTokens {
		target = d.cfg.MaxTokens
	}
	return target
}

// densityScore blends symbol ratio, average word length, and numeric-token
// ratio into [0,1].
func densityScore(text string, w DensityWeights) float64 {
	runes := []rune(text)
	if len(runes) == 0 {
		return 0
	}
	symbols := 0
	for _, r := range runes {
		if !unicode.IsLetter(r) && !unicode.IsNumber(r) && !unicode.IsSpace(r) {
			symbols++
		}
	}
	symbolRatio := float64(symbols) / float64(len(runes))

	words := strings.Fields(text)
	if len(words) == 0 {
		return clamp01(w.Symbol * symbolRatio)
	}
	totalLen := 0
	numeric := 0
	for _, word := range words {
		totalLen += len([]rune(word))
		for _, r := range word {
			if unicode.IsDigit(r) {
				numeric++
				break
			}
		}
	}
	wordLenNorm := math.Min(float64(totalLen)/float64(len(words))/10.0, 1.0)
	numericRatio := float64(numeric) / float64(len(words))

	sum := w.Symbol + w.WordLen + w.Numeric
	if sum <= 0 {
		return 0
	}
	score := (w.Symbol*symbolRatio + w.WordLen*wordLenNorm + w.Numeric*numericRatio) / sum
	return clamp01(score)
}

func clamp01(f float64) float64 {
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}

// splitSentenceUnits breaks text into sentence-like units at
// punctuation-aware boundaries. Line breaks also terminate units so list
// items and short lines stay separable.
func splitSentenceUnits(text string) []string {
	var units []string
	var cur strings.Builder
	runes := []rune(text)
	for i, r := range runes {
		cur.WriteRune(r)
		atEnd := i+1 >= len(runes)
		boundary := r == '\n' ||
			((r == '.' || r == '!' || r == '?') && (atEnd || runes[i+1] == ' ' || runes[i+1] == '\n'))
		if boundary {
			if u := strings.TrimSpace(cur.String()); u != "" {
				units = append(units, u)
			}
			cur.Reset()
		}
	}
	if u := strings.TrimSpace(cur.String()); u != "" {
		units = append(units, u)
	}
	return units
}

// forceSplitOversized splits any single unit whose token count would reach
// the budget. This is the guard against pathological unbroken runs.
func (d *DynamicChunker) forceSplitOversized(units []string) []string {
	budget := d.cfg.budget()
	out := make([]string, 0, len(units))
	for _, u := range units {
		if d.counter.Count(u) < budget {
			out = append(out, u)
			continue
		}
		d.log.Warn("sentence unit over token budget, force splitting",
			"chars", len(u), "budget", budget)
		out = append(out, d.forceSplitText(u)...)
	}
	return out
}

// forceSplitText cuts text at safe character boundaries so every piece
// counts under the token budget. It starts from a ~3 chars per token
// window, prefers the last space in the window, falls back to a hard cut
// for unbroken runs, and halves the window whenever a cut piece still
// counts over budget. Runs of very short words cost far more tokens per
// character than the initial window assumes, so every piece is verified
// against the active counter before it is kept.
func (d *DynamicChunker) forceSplitText(text string) []string {
	budget := d.cfg.budget()
	maxChars := budget * 3
	if maxChars < 1 {
		maxChars = 1
	}
	var parts []string
	runes := []rune(text)
	for len(runes) > 0 {
		cut := cutWindow(runes, maxChars)
		piece := strings.TrimSpace(string(runes[:cut]))
		for piece != "" && maxChars > 1 && d.counter.Count(piece) >= budget {
			maxChars /= 2
			cut = cutWindow(runes, maxChars)
			piece = strings.TrimSpace(string(runes[:cut]))
		}
		if piece != "" {
			parts = append(parts, piece)
		}
		runes = runes[cut:]
	}
	return parts
}

// cutWindow picks the cut index for the next piece: everything when the
// text fits, otherwise the last space in the window's upper half, or a
// hard cut at the window edge.
func cutWindow(runes []rune, maxChars int) int {
	if len(runes) <= maxChars {
		return len(runes)
	}
	for i := maxChars; i > maxChars/2; i-- {
		if unicode.IsSpace(runes[i]) {
			return i
		}
	}
	return maxChars
}
