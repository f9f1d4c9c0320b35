package chunker

import (
	"strings"
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

const defaultEncoding = "cl100k_base"

// EncodingHeuristic selects the estimator without loading a BPE model,
// for deployments that cannot fetch or cache encoding files.
const EncodingHeuristic = "heuristic"

// TokenCounter reports how many tokens a piece of text costs downstream.
type TokenCounter interface {
	Count(text string) int
}

// HeuristicCounter estimates tokens without a tokenizer: ~1.33 tokens per
// word for prose, ~4 chars per token for unbroken runs. Taking the max
// keeps the estimate safe against pathological input with no spaces.
type HeuristicCounter struct{}

func (HeuristicCounter) Count(text string) int {
	if text == "" {
		return 0
	}
	byWords := int(float64(len(strings.Fields(text))) * 1.33)
	byRunes := (len([]rune(text)) + 3) / 4
	tokens := max(byWords, byRunes)
	if tokens < 1 {
		tokens = 1
	}
	return tokens
}

type tiktokenCounter struct {
	tke *tiktoken.Tiktoken
}

func (c *tiktokenCounter) Count(text string) int {
	if text == "" {
		return 0
	}
	return len(c.tke.Encode(text, nil, nil))
}

// NewCounter returns an exact tiktoken counter for the encoding, or the
// heuristic when the encoding cannot be loaded (e.g. no cached BPE files).
func NewCounter(encoding string) TokenCounter {
	if encoding == "" {
		encoding = defaultEncoding
	}
	if encoding == EncodingHeuristic {
		return HeuristicCounter{}
	}
	tke, err := tiktoken.GetEncoding(encoding)
	if err != nil {
		return HeuristicCounter{}
	}
	return &tiktokenCounter{tke: tke}
}

var (
	defaultCounterOnce sync.Once
	defaultCounter     TokenCounter
)

// DefaultCounter is the lazily-initialized process-wide counter. Encoding
// initialization is expensive, so it happens at most once.
func DefaultCounter() TokenCounter {
	defaultCounterOnce.Do(func() {
		defaultCounter = NewCounter(defaultEncoding)
	})
	return defaultCounter
}
