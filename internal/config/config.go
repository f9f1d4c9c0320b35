package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/dgallion1/quizprep/internal/sectionizer"
)

type Config struct {
	// Chunk store connection
	ChunkstoreURL    string
	ChunkstoreAPIKey string

	// Extraction
	MinBlockChars      int // below this, block extraction falls back to plain
	MaxConcurrentPages int

	// Chunking
	MinTokens        int
	MaxTokens        int
	BaseTokens       int
	SentOverlapRatio float64
	HardTokenCeiling int
	SafetyMargin     int
	TokenEncoding    string

	// Density weighting (symbol ratio, average word length, numeric ratio)
	DensityWeightSymbol  float64
	DensityWeightWordLen float64
	DensityWeightNumeric float64

	// Sectionizing
	NoisePatterns   []string
	RepeatThreshold int // pages a line must repeat on to count as header/footer

	// Curation defaults
	MaxTotalChars int
	PerDocCap     int
	ClipLength    int

	// Language detection
	DetectSampleChars int
}

func Load() Config {
	cfg := Config{
		ChunkstoreURL:    envOr("CHUNKSTORE_URL", "http://localhost:8080"),
		ChunkstoreAPIKey: os.Getenv("CHUNKSTORE_API_KEY"),

		MinBlockChars:      envInt("MIN_BLOCK_CHARS", 25),
		MaxConcurrentPages: envInt("MAX_CONCURRENT_PAGES", 4),

		MinTokens:        envInt("CHUNK_MIN_TOKENS", 80),
		MaxTokens:        envInt("CHUNK_MAX_TOKENS", 448),
		BaseTokens:       envInt("CHUNK_BASE_TOKENS", 320),
		SentOverlapRatio: envFloat("CHUNK_OVERLAP_RATIO", 0.15),
		HardTokenCeiling: envInt("HARD_TOKEN_CEILING", 512),
		SafetyMargin:     envInt("TOKEN_SAFETY_MARGIN", 32),
		TokenEncoding:    envOr("TOKEN_ENCODING", "cl100k_base"),

		DensityWeightSymbol:  envFloat("DENSITY_WEIGHT_SYMBOL", 0.4),
		DensityWeightWordLen: envFloat("DENSITY_WEIGHT_WORDLEN", 0.3),
		DensityWeightNumeric: envFloat("DENSITY_WEIGHT_NUMERIC", 0.3),

		NoisePatterns:   envList("NOISE_PATTERNS", sectionizer.DefaultNoisePatterns),
		RepeatThreshold: envInt("REPEAT_THRESHOLD", 3),

		MaxTotalChars: envInt("MAX_TOTAL_CHARS", 12000),
		PerDocCap:     envInt("PER_DOC_CAP", 8),
		ClipLength:    envInt("CLIP_LENGTH", 1200),

		DetectSampleChars: envInt("DETECT_SAMPLE_CHARS", 2000),
	}

	if cfg.MinBlockChars <= 0 {
		cfg.MinBlockChars = 25
	}
	if cfg.MaxConcurrentPages <= 0 {
		cfg.MaxConcurrentPages = 4
	}
	if cfg.HardTokenCeiling <= 0 {
		cfg.HardTokenCeiling = 512
	}
	if cfg.SafetyMargin <= 0 || cfg.SafetyMargin >= cfg.HardTokenCeiling {
		cfg.SafetyMargin = cfg.HardTokenCeiling / 16
	}
	if cfg.MinTokens <= 0 {
		cfg.MinTokens = 80
	}
	if cfg.MaxTokens <= cfg.MinTokens || cfg.MaxTokens >= cfg.HardTokenCeiling-cfg.SafetyMargin {
		cfg.MaxTokens = cfg.HardTokenCeiling - cfg.SafetyMargin - 1
	}
	if cfg.BaseTokens < cfg.MinTokens || cfg.BaseTokens > cfg.MaxTokens {
		cfg.BaseTokens = (cfg.MinTokens + cfg.MaxTokens) / 2
	}
	if cfg.SentOverlapRatio < 0 || cfg.SentOverlapRatio >= 1 {
		cfg.SentOverlapRatio = 0.15
	}
	if cfg.RepeatThreshold < 2 {
		cfg.RepeatThreshold = 3
	}
	if cfg.MaxTotalChars <= 0 {
		cfg.MaxTotalChars = 12000
	}
	if cfg.PerDocCap <= 0 {
		cfg.PerDocCap = 8
	}
	if cfg.ClipLength <= 0 {
		cfg.ClipLength = 1200
	}
	if cfg.DetectSampleChars <= 0 {
		cfg.DetectSampleChars = 2000
	}

	return cfg
}

func (c Config) Validate() error {
	if c.MaxTokens >= c.HardTokenCeiling-c.SafetyMargin {
		return fmt.Errorf("CHUNK_MAX_TOKENS (%d) must stay below HARD_TOKEN_CEILING - TOKEN_SAFETY_MARGIN (%d)",
			c.MaxTokens, c.HardTokenCeiling-c.SafetyMargin)
	}
	if c.ChunkstoreURL != "" && !strings.HasPrefix(c.ChunkstoreURL, "http") {
		return fmt.Errorf("CHUNKSTORE_URL must be an http(s) URL, got %q", c.ChunkstoreURL)
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envList(key string, fallback []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return fallback
}
