package pipeline

import (
	"github.com/dgallion1/quizprep/internal/difficulty"
	"github.com/dgallion1/quizprep/internal/document"
)

// GeneratedQuestion is what the generation collaborator returns for
// validation: the stem, its difficulty target, and the chunk ids it cites.
type GeneratedQuestion struct {
	Stem        string
	TargetLevel difficulty.Level
	ChunkIDs    []string
}

// LevelAccuracy counts difficulty-heuristic agreement for one level.
type LevelAccuracy struct {
	Correct int `json:"correct"`
	Total   int `json:"total"`
}

// ValidationReport is the post-generation quality summary.
type ValidationReport struct {
	DifficultyAccuracy   map[difficulty.Level]LevelAccuracy `json:"difficulty_accuracy"`
	CitationCompleteness float64                            `json:"citation_completeness"`
	ContentQualityScore  float64                            `json:"content_quality_score"`
	OverallScore         float64                            `json:"overall_score"`
}

// score blend; difficulty agreement dominates
const (
	weightDifficulty = 0.4
	weightCitation   = 0.3
	weightContent    = 0.3
)

// EvaluateGeneration scores a batch of generated questions against the
// context blocks they were generated from.
func EvaluateGeneration(questions []GeneratedQuestion, blocks []document.ContextBlock) ValidationReport {
	report := ValidationReport{
		DifficultyAccuracy: make(map[difficulty.Level]LevelAccuracy),
	}

	known := make(map[string]bool, len(blocks))
	var qualitySum float64
	for _, b := range blocks {
		known[b.ChunkID] = true
		qualitySum += b.QualityScore
	}
	if len(blocks) > 0 {
		report.ContentQualityScore = qualitySum / float64(len(blocks))
	}

	matched := 0
	cited := 0
	for _, q := range questions {
		acc := report.DifficultyAccuracy[q.TargetLevel]
		acc.Total++
		if difficulty.Validate(q.Stem, q.TargetLevel) {
			acc.Correct++
			matched++
		}
		report.DifficultyAccuracy[q.TargetLevel] = acc

		for _, id := range q.ChunkIDs {
			if known[id] {
				cited++
				break
			}
		}
	}

	var diffAccuracy float64
	if len(questions) > 0 {
		diffAccuracy = float64(matched) / float64(len(questions))
		report.CitationCompleteness = float64(cited) / float64(len(questions))
	}

	report.OverallScore = weightDifficulty*diffAccuracy +
		weightCitation*report.CitationCompleteness +
		weightContent*report.ContentQualityScore
	return report
}
