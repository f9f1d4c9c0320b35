package chunker

import (
	"strings"
	"testing"
)

func TestFixedChunk_NonPositiveSizeReturnsWhole(t *testing.T) {
	got := FixedChunk("anything at all", 0, 10)
	if len(got) != 1 || got[0] != "anything at all" {
		t.Errorf("expected whole text back, got %v", got)
	}
}

func TestFixedChunk_WindowsCoverText(t *testing.T) {
	text := strings.Repeat("abcdefghij", 10) // 100 runes
	got := FixedChunk(text, 30, 5)
	if len(got) == 0 {
		t.Fatal("expected chunks")
	}
	for i, c := range got {
		if len([]rune(c)) > 30 {
			t.Errorf("chunk %d longer than window: %d", i, len([]rune(c)))
		}
	}
	// step 25: windows start at 0, 25, 50, 75.
	if len(got) != 4 {
		t.Errorf("expected 4 windows, got %d", len(got))
	}
	if !strings.HasSuffix(got[len(got)-1], "abcdefghij") {
		t.Errorf("expected tail covered, got %q", got[len(got)-1])
	}
}

func TestFixedChunk_NegativeOverlapClampsToZero(t *testing.T) {
	got := FixedChunk(strings.Repeat("x", 20), 10, -5)
	if len(got) != 2 {
		t.Errorf("expected 2 non-overlapping windows, got %d: %v", len(got), got)
	}
}

func TestFixedChunk_OversizedOverlapClamps(t *testing.T) {
	// overlap >= chunkSize falls back to chunkSize/5, so progress is made.
	got := FixedChunk(strings.Repeat("y", 50), 10, 10)
	if len(got) == 0 {
		t.Fatal("expected chunks")
	}
	for _, c := range got {
		if len(c) > 10 {
			t.Errorf("window exceeds size: %q", c)
		}
	}
}

func TestFixedChunk_WhitespaceOnlyWindowsDropped(t *testing.T) {
	got := FixedChunk("ab        cd", 4, 0)
	for _, c := range got {
		if strings.TrimSpace(c) == "" {
			t.Errorf("blank window emitted: %q", c)
		}
	}
}

func TestFixedChunk_Empty(t *testing.T) {
	if got := FixedChunk("", 10, 2); len(got) != 0 {
		t.Errorf("expected no chunks, got %v", got)
	}
}

func TestHeuristicCounter(t *testing.T) {
	c := HeuristicCounter{}
	if got := c.Count(""); got != 0 {
		t.Errorf("expected 0 for empty, got %d", got)
	}
	if got := c.Count("one two three"); got < 3 {
		t.Errorf("expected at least one token per word, got %d", got)
	}
	// Unbroken runs estimate by runes, not words.
	if got := c.Count(strings.Repeat("z", 400)); got < 90 {
		t.Errorf("expected rune-based estimate for unbroken run, got %d", got)
	}
}

func TestNewCounter_HeuristicEncoding(t *testing.T) {
	if _, ok := NewCounter(EncodingHeuristic).(HeuristicCounter); !ok {
		t.Fatal("expected heuristic counter without model load")
	}
}
