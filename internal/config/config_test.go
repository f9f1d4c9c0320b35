package config

import (
	"reflect"
	"testing"

	"github.com/dgallion1/quizprep/internal/sectionizer"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := Load()
	if cfg.MinBlockChars != 25 {
		t.Errorf("expected default min block chars 25, got %d", cfg.MinBlockChars)
	}
	if cfg.HardTokenCeiling != 512 || cfg.SafetyMargin != 32 {
		t.Errorf("unexpected token limits %d/%d", cfg.HardTokenCeiling, cfg.SafetyMargin)
	}
	if cfg.TokenEncoding != "cl100k_base" {
		t.Errorf("unexpected encoding %q", cfg.TokenEncoding)
	}
	if !reflect.DeepEqual(cfg.NoisePatterns, sectionizer.DefaultNoisePatterns) {
		t.Errorf("expected default noise patterns, got %v", cfg.NoisePatterns)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default configuration must validate: %v", err)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("CHUNK_MAX_TOKENS", "400")
	t.Setenv("CHUNKSTORE_URL", "https://chunks.internal:9443")
	t.Setenv("NOISE_PATTERNS", `^foo$, ^bar$`)

	cfg := Load()
	if cfg.MaxTokens != 400 {
		t.Errorf("expected override 400, got %d", cfg.MaxTokens)
	}
	if cfg.ChunkstoreURL != "https://chunks.internal:9443" {
		t.Errorf("unexpected url %q", cfg.ChunkstoreURL)
	}
	if !reflect.DeepEqual(cfg.NoisePatterns, []string{"^foo$", "^bar$"}) {
		t.Errorf("unexpected patterns %v", cfg.NoisePatterns)
	}
}

func TestLoad_ClampsOutOfRangeValues(t *testing.T) {
	t.Setenv("CHUNK_MAX_TOKENS", "9999")
	t.Setenv("CHUNK_OVERLAP_RATIO", "1.5")
	t.Setenv("REPEAT_THRESHOLD", "1")

	cfg := Load()
	if cfg.MaxTokens >= cfg.HardTokenCeiling-cfg.SafetyMargin {
		t.Errorf("MaxTokens %d not clamped below %d", cfg.MaxTokens, cfg.HardTokenCeiling-cfg.SafetyMargin)
	}
	if cfg.SentOverlapRatio != 0.15 {
		t.Errorf("expected overlap ratio reset to default, got %f", cfg.SentOverlapRatio)
	}
	if cfg.RepeatThreshold != 3 {
		t.Errorf("expected repeat threshold reset, got %d", cfg.RepeatThreshold)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("clamped configuration must validate: %v", err)
	}
}

func TestLoad_MalformedNumberFallsBack(t *testing.T) {
	t.Setenv("CHUNK_MIN_TOKENS", "not-a-number")
	if cfg := Load(); cfg.MinTokens != 80 {
		t.Errorf("expected fallback 80, got %d", cfg.MinTokens)
	}
}

func TestValidate_RejectsBadStoreURL(t *testing.T) {
	cfg := Load()
	cfg.ChunkstoreURL = "ftp://nope"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected validation error for non-http url")
	}
}
