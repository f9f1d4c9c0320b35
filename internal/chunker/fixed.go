package chunker

import "strings"

// FixedChunk is the character-based fallback for degenerate input or when
// dynamic chunking is disabled. chunkSize <= 0 returns the whole text as
// one chunk; negative overlap clamps to 0; overlap >= chunkSize clamps to
// chunkSize/5.
func FixedChunk(text string, chunkSize, overlap int) []string {
	if chunkSize <= 0 {
		return []string{text}
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= chunkSize {
		overlap = chunkSize / 5
	}
	step := chunkSize - overlap
	if step < 1 {
		step = 1
	}

	runes := []rune(text)
	var out []string
	for start := 0; start < len(runes); start += step {
		end := start + chunkSize
		if end > len(runes) {
			end = len(runes)
		}
		if window := strings.TrimSpace(string(runes[start:end])); window != "" {
			out = append(out, window)
		}
		if end == len(runes) {
			break
		}
	}
	return out
}
