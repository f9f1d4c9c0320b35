package langdetect

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/abadojack/whatlanggo"
	"github.com/pemistahl/lingua-go"
)

// Backend is one language-detection capability in the prioritized chain.
type Backend interface {
	Name() string
	// Detect returns an ISO 639-1 code and a confidence in [0,1].
	Detect(text string) (code string, confidence float64, err error)
}

// Estimate is the chain's merged verdict. Distribution is never empty.
type Estimate struct {
	BestCode       string
	BestConfidence float64
	Distribution   map[string]float64
}

// Chain runs backends in priority order, keeping the max score per code,
// and falls back to a tiny heuristic when no backend succeeds.
type Chain struct {
	backends    []Backend
	sampleChars int
	log         *slog.Logger
}

func NewChain(sampleChars int, log *slog.Logger, backends ...Backend) *Chain {
	if sampleChars <= 0 {
		sampleChars = 2000
	}
	if log == nil {
		log = slog.Default()
	}
	return &Chain{backends: backends, sampleChars: sampleChars, log: log}
}

// Detect samples the snippets up to the character budget and determines
// the dominant language. Empty input returns ("und", 0, {"und": 1}).
func (c *Chain) Detect(snippets []string) Estimate {
	sample := c.sample(snippets)
	if sample == "" {
		return Estimate{BestCode: "und", BestConfidence: 0, Distribution: map[string]float64{"und": 1.0}}
	}

	dist := make(map[string]float64)
	for _, b := range c.backends {
		code, conf, err := b.Detect(sample)
		if err != nil {
			c.log.Warn("language backend failed", "backend", b.Name(), "error", err)
			continue
		}
		if conf > dist[code] {
			dist[code] = conf
		}
	}
	if len(dist) == 0 {
		code, conf := heuristicDetect(sample)
		dist[code] = conf
	}

	best, bestConf := "", -1.0
	codes := make([]string, 0, len(dist))
	for code := range dist {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	for _, code := range codes {
		if dist[code] > bestConf {
			best, bestConf = code, dist[code]
		}
	}
	return Estimate{BestCode: best, BestConfidence: bestConf, Distribution: dist}
}

// sample concatenates snippets, normalizes whitespace, and truncates to
// the character budget.
func (c *Chain) sample(snippets []string) string {
	joined := strings.Join(snippets, " ")
	normalized := strings.Join(strings.Fields(joined), " ")
	runes := []rune(normalized)
	if len(runes) > c.sampleChars {
		runes = runes[:c.sampleChars]
	}
	return string(runes)
}

var (
	defaultOnce  sync.Once
	defaultChain *Chain
)

// Default is the lazily-initialized process-wide chain: the statistical
// detector first, the probabilistic one second. Backends build their
// models once and are read-only afterwards, so the chain is safe to share.
func Default() *Chain {
	defaultOnce.Do(func() {
		defaultChain = NewChain(2000, slog.Default(), NewLinguaBackend(), NewWhatlangBackend())
	})
	return defaultChain
}

// Detect runs the default chain.
func Detect(snippets []string) Estimate {
	return Default().Detect(snippets)
}

// linguaBackend wraps the lingua statistical detector. Model construction
// is expensive and deferred to first use.
type linguaBackend struct {
	once     sync.Once
	detector lingua.LanguageDetector
}

func NewLinguaBackend() Backend {
	return &linguaBackend{}
}

func (b *linguaBackend) Name() string { return "lingua" }

func (b *linguaBackend) Detect(text string) (string, float64, error) {
	b.once.Do(func() {
		b.detector = lingua.NewLanguageDetectorBuilder().
			FromLanguages(
				lingua.English, lingua.Vietnamese, lingua.French, lingua.German,
				lingua.Spanish, lingua.Portuguese, lingua.Chinese, lingua.Japanese,
				lingua.Korean, lingua.Russian,
			).
			Build()
	})
	values := b.detector.ComputeLanguageConfidenceValues(text)
	if len(values) == 0 {
		return "", 0, fmt.Errorf("no language candidates")
	}
	top := values[0]
	code := strings.ToLower(top.Language().IsoCode639_1().String())
	return code, top.Value(), nil
}

// whatlangBackend wraps the trigram-based probabilistic detector.
type whatlangBackend struct{}

func NewWhatlangBackend() Backend {
	return whatlangBackend{}
}

func (whatlangBackend) Name() string { return "whatlang" }

// iso3to1 maps the codes whatlang emits to ISO 639-1 for the languages
// this pipeline cares about.
var iso3to1 = map[string]string{
	"eng": "en", "vie": "vi", "fra": "fr", "deu": "de", "spa": "es",
	"por": "pt", "cmn": "zh", "jpn": "ja", "kor": "ko", "rus": "ru",
	"ita": "it", "nld": "nl",
}

func (whatlangBackend) Detect(text string) (string, float64, error) {
	info := whatlanggo.Detect(text)
	code3 := whatlanggo.LangToString(info.Lang)
	code, ok := iso3to1[code3]
	if !ok {
		return "", 0, fmt.Errorf("unmapped language code %q", code3)
	}
	return code, info.Confidence, nil
}
