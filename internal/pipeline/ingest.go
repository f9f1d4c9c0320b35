package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dgallion1/quizprep/internal/chunker"
	"github.com/dgallion1/quizprep/internal/config"
	"github.com/dgallion1/quizprep/internal/document"
	"github.com/dgallion1/quizprep/internal/extractor"
	"github.com/dgallion1/quizprep/internal/sectionizer"
)

// ChunkStore persists chunks for the indexing collaborator and reads them
// back at generation time.
type ChunkStore interface {
	PutChunk(ctx context.Context, docID string, chunk document.Chunk) (string, error)
	ListChunks(ctx context.Context, docID string) ([]document.Chunk, error)
}

// IngestStats aggregates counters across one document's ingestion.
type IngestStats struct {
	Pages            int `json:"pages"`
	PagesWithContent int `json:"pages_with_content"`
	TotalChars       int `json:"total_chars"`
	TotalWords       int `json:"total_words"`
	Sections         int `json:"sections"`
	Chunks           int `json:"chunks"`
	ChunksStored     int `json:"chunks_stored"`
}

// IngestResult reports one document's ingestion: successes, the items
// skipped along the way, or a structured extraction failure. A failed
// document never aborts sibling documents; the caller just moves on.
type IngestResult struct {
	DocumentID string
	Pages      []document.ExtractedPage
	Sections   []document.Section
	Chunks     []document.Chunk
	Skipped    []string
	Stats      IngestStats
	Failed     bool
	Error      string
}

// Ingestor runs the ingestion pipeline: extract, normalize, sectionize,
// chunk, persist.
type Ingestor struct {
	cfg       config.Config
	extractor *extractor.Extractor
	sect      *sectionizer.Sectionizer
	chunk     *chunker.DynamicChunker
	store     ChunkStore
	log       *slog.Logger
}

func NewIngestor(cfg config.Config, store ChunkStore, log *slog.Logger) (*Ingestor, error) {
	if log == nil {
		log = slog.Default()
	}
	sect, err := sectionizer.New(sectionizer.Config{
		NoisePatterns:   cfg.NoisePatterns,
		RepeatThreshold: cfg.RepeatThreshold,
	})
	if err != nil {
		return nil, fmt.Errorf("sectionizer: %w", err)
	}
	chunkCfg := chunker.Config{
		MinTokens:        cfg.MinTokens,
		MaxTokens:        cfg.MaxTokens,
		BaseTokens:       cfg.BaseTokens,
		SentOverlapRatio: cfg.SentOverlapRatio,
		HardTokenCeiling: cfg.HardTokenCeiling,
		SafetyMargin:     cfg.SafetyMargin,
		Weights: chunker.DensityWeights{
			Symbol:  cfg.DensityWeightSymbol,
			WordLen: cfg.DensityWeightWordLen,
			Numeric: cfg.DensityWeightNumeric,
		},
	}
	counter := chunker.NewCounter(cfg.TokenEncoding)
	return &Ingestor{
		cfg:       cfg,
		extractor: extractor.New(cfg.MinBlockChars, cfg.MaxConcurrentPages, log),
		sect:      sect,
		chunk:     chunker.NewDynamic(chunkCfg, counter, log),
		store:     store,
		log:       log,
	}, nil
}

// Ingest processes one document's bytes. Extraction failure comes back as
// a structured result with Failed=true; per-chunk store failures are
// isolated into Skipped. The returned error is reserved for cancellation.
func (in *Ingestor) Ingest(ctx context.Context, docID, format string, data []byte) (*IngestResult, error) {
	log := in.log.With("doc_id", docID, "format", format)
	result := &IngestResult{DocumentID: docID}

	ext := in.extractor.Extract(ctx, data, format)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !ext.Success {
		log.Error("extraction failed", "error", ext.Error)
		result.Failed = true
		result.Error = ext.Error
		return result, nil
	}
	result.Pages = ext.Pages
	result.Stats.Pages = ext.PageCount
	result.Stats.PagesWithContent = ext.Stats.PagesWithContent
	result.Stats.TotalChars = ext.Stats.TotalChars
	result.Stats.TotalWords = ext.Stats.TotalWords

	result.Sections = in.sect.Sectionize(ext.FullText)
	result.Stats.Sections = len(result.Sections)
	log.Info("sectionized document", "sections", len(result.Sections))

	index := 0
	for _, sec := range result.Sections {
		chunks := in.chunk.Chunk(sec, index)
		for i := range chunks {
			chunks[i].DocumentID = docID
		}
		index += len(chunks)
		result.Chunks = append(result.Chunks, chunks...)
	}
	result.Stats.Chunks = len(result.Chunks)
	log.Info("chunked document", "chunks", len(result.Chunks))

	if in.store != nil {
		for i := range result.Chunks {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			id, err := in.store.PutChunk(ctx, docID, result.Chunks[i])
			if err != nil {
				// One bad chunk must not abort the document.
				log.Error("chunk store failed", "index", result.Chunks[i].Index, "error", err)
				result.Skipped = append(result.Skipped,
					fmt.Sprintf("chunk %d: %s", result.Chunks[i].Index, err))
				continue
			}
			result.Chunks[i].ID = id
			result.Stats.ChunksStored++
		}
	}

	return result, nil
}
