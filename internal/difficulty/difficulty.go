package difficulty

import (
	"fmt"
	"sort"
	"strings"
)

// Level is a question difficulty target.
type Level string

const (
	Easy   Level = "easy"
	Medium Level = "medium"
	Hard   Level = "hard"
)

// Assessment is the post-hoc verdict for one generated stem.
type Assessment struct {
	TargetLevel   Level
	AssessedLevel Level
	Matches       bool
}

// Cue tables are data, not inline logic, so tests can enumerate the rules
// independently of code paths. English plus Vietnamese equivalents.
var (
	connectiveCues = []string{
		"because", "therefore", "however", "although", "whereas", "while",
		"vì", "nên", "tuy nhiên", "mặc dù", "trong khi",
	}
	comparisonCues = []string{
		"compare", "contrast", "difference", "similar", "versus", "distinguish",
		"so sánh", "khác nhau", "giống nhau", "phân biệt",
	}
	reasoningCues = []string{
		"explain", "analyze", "analyse", "why", "how", "predict", "cause",
		"giải thích", "phân tích", "tại sao", "vì sao", "dự đoán",
	}
	synthesisCues = []string{
		"evaluate", "justify", "design", "critique", "synthesize", "assess", "propose",
		"đánh giá", "biện luận", "thiết kế", "phê bình", "tổng hợp", "đề xuất",
	}
)

// word-count floors for the classifier
const (
	hardMinWords   = 10
	mediumMinWords = 8
)

// levelGuidance describes, per level, the cue verbs a stem should use and
// the cognitive levels it should target.
var levelGuidance = map[Level]struct {
	cues      string
	cognitive string
}{
	Easy: {
		cues:      "what, when, where, which, name, list",
		cognitive: "remembering and understanding single facts",
	},
	Medium: {
		cues:      "explain, analyze, why, how, predict",
		cognitive: "applying and analyzing relationships between ideas",
	},
	Hard: {
		cues:      "evaluate, justify, design, critique, synthesize, compare",
		cognitive: "evaluating trade-offs and synthesizing across passages",
	},
}

var promptOrder = []Level{Easy, Medium, Hard}

// EnhancePrompt renders per-level guidance for the requested difficulty
// mix, ending with an instruction to verify stem complexity.
func EnhancePrompt(mix map[Level]int) string {
	var sb strings.Builder
	sb.WriteString("Difficulty targets:\n")
	for _, level := range promptOrder {
		count, ok := mix[level]
		if !ok || count <= 0 {
			continue
		}
		g := levelGuidance[level]
		fmt.Fprintf(&sb, "- %d %s question(s): use cue verbs such as %s; target %s.\n",
			count, level, g.cues, g.cognitive)
	}
	sb.WriteString("Before finalizing each question, verify that the stem's complexity matches its difficulty level.")
	return sb.String()
}

// Signals reports which cue families fire for a stem, for telemetry.
type Signals struct {
	Words       int
	Connectives bool
	Comparison  bool
	Reasoning   bool
	Synthesis   bool // synthesis cues or comparison cues
}

// DetectSignals scans a stem against the cue tables.
func DetectSignals(stem string) Signals {
	lower := strings.ToLower(stem)
	comparison := containsAny(lower, comparisonCues)
	return Signals{
		Words:       len(strings.Fields(lower)),
		Connectives: containsAny(lower, connectiveCues),
		Comparison:  comparison,
		Reasoning:   containsAny(lower, reasoningCues),
		Synthesis:   containsAny(lower, synthesisCues) || comparison,
	}
}

// Assess classifies a stem with a fast keyword heuristic. This is a cheap
// signal for telemetry and soft-gating, not a correctness guarantee.
func Assess(stem string) Level {
	stem = strings.TrimSpace(stem)
	if stem == "" {
		return Easy
	}
	sig := DetectSignals(stem)

	switch {
	case sig.Synthesis && sig.Words >= hardMinWords:
		return Hard
	case sig.Reasoning && sig.Words >= mediumMinWords:
		return Medium
	default:
		return Easy
	}
}

// Validate reports whether a stem's assessed level matches its target.
func Validate(stem string, target Level) bool {
	return Assess(stem) == target
}

// AssessTarget bundles Assess and Validate into one record.
func AssessTarget(stem string, target Level) Assessment {
	assessed := Assess(stem)
	return Assessment{
		TargetLevel:   target,
		AssessedLevel: assessed,
		Matches:       assessed == target,
	}
}

// Levels returns all levels in prompt order.
func Levels() []Level {
	out := make([]Level, len(promptOrder))
	copy(out, promptOrder)
	return out
}

// NormalizeMix drops non-positive counts and unknown levels, returning the
// remaining levels in a stable order.
func NormalizeMix(mix map[Level]int) map[Level]int {
	out := make(map[Level]int, len(mix))
	keys := make([]string, 0, len(mix))
	for l := range mix {
		keys = append(keys, string(l))
	}
	sort.Strings(keys)
	for _, k := range keys {
		l := Level(k)
		if _, known := levelGuidance[l]; known && mix[l] > 0 {
			out[l] = mix[l]
		}
	}
	return out
}

func containsAny(lower string, cues []string) bool {
	for _, cue := range cues {
		if strings.Contains(lower, cue) {
			return true
		}
	}
	return false
}
