package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dgallion1/quizprep/internal/curator"
	"github.com/dgallion1/quizprep/internal/difficulty"
	"github.com/dgallion1/quizprep/internal/document"
	"github.com/dgallion1/quizprep/internal/langdetect"
	"github.com/dgallion1/quizprep/internal/quality"
)

// GenerationRequest describes one question-generation run over previously
// ingested documents.
type GenerationRequest struct {
	DocumentIDs        []string
	Subject            string
	TotalQuestionCount int
	DifficultyMix      map[difficulty.Level]int
	PerDocCap          int
	MaxTotalChars      int
	ClipLength         int
}

// PromptPayload is the assembled input handed to the generation
// collaborator.
type PromptPayload struct {
	Subject                string
	TotalCount             int
	DifficultyInstructions string
	ContentFilterRules     string
	Blocks                 []document.ContextBlock
}

// Recommendation surfaces insufficient content as advice, not a failure.
type Recommendation struct {
	Reason       string `json:"reason"`
	SuggestedMax int    `json:"suggested_max"` // question count the content supports
	NeedsContent bool   `json:"needs_content"` // true when adding documents would help
}

// AssemblySummary reports how the context was built.
type AssemblySummary struct {
	Curation       curator.Summary
	Language       langdetect.Estimate
	BlocksSelected int
	BlocksKept     int
	SkippedDocs    []string
	Recommendation *Recommendation
}

// Assembler builds generation context from persisted chunks.
type Assembler struct {
	store ChunkStore
	chain *langdetect.Chain
	log   *slog.Logger
}

func NewAssembler(store ChunkStore, chain *langdetect.Chain, log *slog.Logger) *Assembler {
	if chain == nil {
		chain = langdetect.Default()
	}
	if log == nil {
		log = slog.Default()
	}
	return &Assembler{store: store, chain: chain, log: log}
}

// Assemble curates, filters, and packages context for one request. A
// document whose chunks cannot be fetched is skipped and recorded; the
// rest of the request proceeds.
func (a *Assembler) Assemble(ctx context.Context, req GenerationRequest) (*PromptPayload, *AssemblySummary, error) {
	summary := &AssemblySummary{}

	docs := make([]curator.DocumentChunks, 0, len(req.DocumentIDs))
	for _, docID := range req.DocumentIDs {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}
		chunks, err := a.store.ListChunks(ctx, docID)
		if err != nil {
			a.log.Error("chunk fetch failed", "doc_id", docID, "error", err)
			summary.SkippedDocs = append(summary.SkippedDocs, fmt.Sprintf("%s: %s", docID, err))
			continue
		}
		docs = append(docs, curator.DocumentChunks{DocumentID: docID, Chunks: chunks})
	}

	blocks, curSummary := curator.Curate(docs, curator.Limits{
		MaxTotalChars: req.MaxTotalChars,
		PerDocCap:     req.PerDocCap,
		ClipLength:    req.ClipLength,
	})
	summary.Curation = curSummary
	summary.BlocksSelected = len(blocks)

	kept := quality.Filter(blocks)
	summary.BlocksKept = len(kept)

	texts := make([]string, 0, len(kept))
	for _, b := range kept {
		texts = append(texts, b.Text)
	}
	summary.Language = a.chain.Detect(texts)

	if len(kept) < req.TotalQuestionCount {
		summary.Recommendation = &Recommendation{
			Reason: fmt.Sprintf("only %d substantive context blocks for %d requested questions",
				len(kept), req.TotalQuestionCount),
			SuggestedMax: len(kept),
			NeedsContent: true,
		}
		a.log.Warn("insufficient curated content",
			"blocks", len(kept), "requested", req.TotalQuestionCount)
	}

	payload := &PromptPayload{
		Subject:                req.Subject,
		TotalCount:             req.TotalQuestionCount,
		DifficultyInstructions: difficulty.EnhancePrompt(difficulty.NormalizeMix(req.DifficultyMix)),
		ContentFilterRules:     quality.RuleBlock,
		Blocks:                 kept,
	}
	return payload, summary, nil
}
