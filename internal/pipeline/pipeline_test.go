package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"strings"
	"testing"

	"github.com/dgallion1/quizprep/internal/chunker"
	"github.com/dgallion1/quizprep/internal/config"
	"github.com/dgallion1/quizprep/internal/difficulty"
	"github.com/dgallion1/quizprep/internal/document"
	"github.com/dgallion1/quizprep/internal/langdetect"
	"github.com/dgallion1/quizprep/internal/quality"
	"github.com/dgallion1/quizprep/internal/sectionizer"
)

func testCfg() config.Config {
	return config.Config{
		MinBlockChars:      25,
		MaxConcurrentPages: 2,

		MinTokens:        80,
		MaxTokens:        448,
		BaseTokens:       320,
		SentOverlapRatio: 0.15,
		HardTokenCeiling: 512,
		SafetyMargin:     32,
		TokenEncoding:    chunker.EncodingHeuristic,

		DensityWeightSymbol:  0.4,
		DensityWeightWordLen: 0.3,
		DensityWeightNumeric: 0.3,

		NoisePatterns:   sectionizer.DefaultNoisePatterns,
		RepeatThreshold: 3,

		MaxTotalChars: 12000,
		PerDocCap:     8,
		ClipLength:    1200,
	}
}

// fakeStore is an in-memory ChunkStore with programmable failures.
type fakeStore struct {
	chunks   map[string][]document.Chunk
	putCount int
	failPuts map[int]error    // fail the nth PutChunk call (0-based)
	failList map[string]error // fail ListChunks for a document
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		chunks:   map[string][]document.Chunk{},
		failPuts: map[int]error{},
		failList: map[string]error{},
	}
}

func (f *fakeStore) PutChunk(_ context.Context, docID string, chunk document.Chunk) (string, error) {
	n := f.putCount
	f.putCount++
	if err := f.failPuts[n]; err != nil {
		return "", err
	}
	id := fmt.Sprintf("%s-chunk-%d", docID, chunk.Index)
	chunk.ID = id
	f.chunks[docID] = append(f.chunks[docID], chunk)
	return id, nil
}

func (f *fakeStore) ListChunks(_ context.Context, docID string) ([]document.Chunk, error) {
	if err := f.failList[docID]; err != nil {
		return nil, err
	}
	return f.chunks[docID], nil
}

func discardLog() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

const paragraph = "The revolution reshaped the economy because trade routes shifted " +
	"toward coastal cities and new industries absorbed displaced agricultural workers over decades."

func sampleMarkdown() []byte {
	return []byte("# History\n\n" + paragraph + "\n\n## Consequences\n\n" + paragraph)
}

func TestIngest_StoresChunksWithThreadedIndexes(t *testing.T) {
	store := newFakeStore()
	ing, err := NewIngestor(testCfg(), store, discardLog())
	if err != nil {
		t.Fatalf("NewIngestor: %v", err)
	}

	res, err := ing.Ingest(context.Background(), "doc1", "md", sampleMarkdown())
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if res.Failed {
		t.Fatalf("unexpected failure: %s", res.Error)
	}
	if res.Stats.Pages != 1 || res.Stats.Sections != 2 {
		t.Errorf("expected 1 page and 2 sections, got %+v", res.Stats)
	}
	if len(res.Chunks) == 0 {
		t.Fatal("expected chunks")
	}
	for i, c := range res.Chunks {
		if c.Index != i {
			t.Errorf("chunk %d: expected document-wide index %d, got %d", i, i, c.Index)
		}
		if c.DocumentID != "doc1" {
			t.Errorf("chunk %d: missing document id", i)
		}
		if c.ID == "" {
			t.Errorf("chunk %d: store id not recorded", i)
		}
	}
	if res.Stats.ChunksStored != len(res.Chunks) {
		t.Errorf("expected all %d chunks stored, got %d", len(res.Chunks), res.Stats.ChunksStored)
	}
	if len(res.Skipped) != 0 {
		t.Errorf("unexpected skips %v", res.Skipped)
	}
	if len(store.chunks["doc1"]) != len(res.Chunks) {
		t.Errorf("store holds %d chunks, result has %d", len(store.chunks["doc1"]), len(res.Chunks))
	}
}

func TestIngest_ExtractionFailureIsStructured(t *testing.T) {
	ing, err := NewIngestor(testCfg(), newFakeStore(), discardLog())
	if err != nil {
		t.Fatalf("NewIngestor: %v", err)
	}
	res, err := ing.Ingest(context.Background(), "doc1", "xlsx", []byte("data"))
	if err != nil {
		t.Fatalf("expected structured failure, got error %v", err)
	}
	if !res.Failed || res.Error == "" {
		t.Errorf("expected Failed with description, got %+v", res)
	}
	if len(res.Chunks) != 0 {
		t.Errorf("expected no chunks, got %d", len(res.Chunks))
	}
}

func TestIngest_StoreFailureSkipsChunk(t *testing.T) {
	store := newFakeStore()
	store.failPuts[0] = errors.New("backend unavailable")
	ing, err := NewIngestor(testCfg(), store, discardLog())
	if err != nil {
		t.Fatalf("NewIngestor: %v", err)
	}

	res, err := ing.Ingest(context.Background(), "doc1", "md", sampleMarkdown())
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if res.Failed {
		t.Fatalf("store failure must not fail the document: %s", res.Error)
	}
	if len(res.Skipped) != 1 {
		t.Fatalf("expected 1 skip, got %v", res.Skipped)
	}
	if res.Stats.ChunksStored != len(res.Chunks)-1 {
		t.Errorf("expected %d stored, got %d", len(res.Chunks)-1, res.Stats.ChunksStored)
	}
}

func TestIngest_CanceledContext(t *testing.T) {
	ing, err := NewIngestor(testCfg(), newFakeStore(), discardLog())
	if err != nil {
		t.Fatalf("NewIngestor: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := ing.Ingest(ctx, "doc1", "md", sampleMarkdown()); err == nil {
		t.Fatal("expected cancellation error")
	}
}

func TestNewIngestor_BadNoisePattern(t *testing.T) {
	cfg := testCfg()
	cfg.NoisePatterns = []string{"("}
	if _, err := NewIngestor(cfg, newFakeStore(), discardLog()); err == nil {
		t.Fatal("expected error for invalid noise pattern")
	}
}

func seedStore(t *testing.T, store *fakeStore, docIDs ...string) {
	t.Helper()
	for _, docID := range docIDs {
		for i := 0; i < 3; i++ {
			_, err := store.PutChunk(context.Background(), docID, document.Chunk{
				DocumentID: docID,
				Text:       paragraph,
				Index:      i,
			})
			if err != nil {
				t.Fatalf("seed: %v", err)
			}
		}
	}
}

func testAssembler(store *fakeStore) *Assembler {
	return NewAssembler(store, langdetect.NewChain(2000, discardLog()), discardLog())
}

func TestAssemble_BuildsPayload(t *testing.T) {
	store := newFakeStore()
	seedStore(t, store, "doc1", "doc2")

	payload, summary, err := testAssembler(store).Assemble(context.Background(), GenerationRequest{
		DocumentIDs:        []string{"doc1", "doc2"},
		Subject:            "history",
		TotalQuestionCount: 4,
		DifficultyMix:      map[difficulty.Level]int{difficulty.Easy: 2, difficulty.Hard: 2},
		PerDocCap:          8,
		MaxTotalChars:      12000,
		ClipLength:         1200,
	})
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	if payload.Subject != "history" || payload.TotalCount != 4 {
		t.Errorf("unexpected payload header %+v", payload)
	}
	if len(payload.Blocks) != 6 {
		t.Errorf("expected 6 blocks, got %d", len(payload.Blocks))
	}
	for i, b := range payload.Blocks {
		if b.QualityScore <= 0 {
			t.Errorf("block %d: quality score not attached", i)
		}
	}
	if !strings.Contains(payload.DifficultyInstructions, "2 easy") ||
		!strings.Contains(payload.DifficultyInstructions, "2 hard") {
		t.Errorf("unexpected difficulty instructions %q", payload.DifficultyInstructions)
	}
	if payload.ContentFilterRules != quality.RuleBlock {
		t.Error("expected content rules injected")
	}
	if summary.Language.BestCode != "en" {
		t.Errorf("expected en content, got %+v", summary.Language)
	}
	if summary.Recommendation != nil {
		t.Errorf("content is sufficient, unexpected recommendation %+v", summary.Recommendation)
	}
	if len(summary.SkippedDocs) != 0 {
		t.Errorf("unexpected skipped docs %v", summary.SkippedDocs)
	}
}

func TestAssemble_UnreachableDocumentSkipped(t *testing.T) {
	store := newFakeStore()
	seedStore(t, store, "good")
	store.failList["bad"] = errors.New("connection refused")

	payload, summary, err := testAssembler(store).Assemble(context.Background(), GenerationRequest{
		DocumentIDs:        []string{"bad", "good"},
		TotalQuestionCount: 2,
		PerDocCap:          8,
		MaxTotalChars:      12000,
		ClipLength:         1200,
	})
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	if len(summary.SkippedDocs) != 1 || !strings.Contains(summary.SkippedDocs[0], "bad") {
		t.Errorf("expected bad doc recorded, got %v", summary.SkippedDocs)
	}
	if len(payload.Blocks) != 3 {
		t.Errorf("expected blocks from the reachable document, got %d", len(payload.Blocks))
	}
}

func TestAssemble_RecommendsWhenContentShort(t *testing.T) {
	store := newFakeStore()
	seedStore(t, store, "doc1")

	_, summary, err := testAssembler(store).Assemble(context.Background(), GenerationRequest{
		DocumentIDs:        []string{"doc1"},
		TotalQuestionCount: 10,
		PerDocCap:          8,
		MaxTotalChars:      12000,
		ClipLength:         1200,
	})
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	rec := summary.Recommendation
	if rec == nil {
		t.Fatal("expected recommendation for insufficient content")
	}
	if rec.SuggestedMax != 3 || !rec.NeedsContent {
		t.Errorf("unexpected recommendation %+v", rec)
	}
}

func TestAssemble_LowQualityChunksFilteredOut(t *testing.T) {
	store := newFakeStore()
	if _, err := store.PutChunk(context.Background(), "doc1", document.Chunk{
		DocumentID: "doc1", Text: "Chapter 3 exercises page 41", Index: 0,
	}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	payload, summary, err := testAssembler(store).Assemble(context.Background(), GenerationRequest{
		DocumentIDs:        []string{"doc1"},
		TotalQuestionCount: 1,
		PerDocCap:          8,
		MaxTotalChars:      12000,
		ClipLength:         1200,
	})
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	if len(payload.Blocks) != 0 {
		t.Errorf("expected structural chunk filtered, got %+v", payload.Blocks)
	}
	if summary.BlocksSelected != 1 || summary.BlocksKept != 0 {
		t.Errorf("expected 1 selected and 0 kept, got %+v", summary)
	}
}

func TestEvaluateGeneration(t *testing.T) {
	blocks := []document.ContextBlock{
		{ChunkID: "c1", QualityScore: 0.8},
		{ChunkID: "c2", QualityScore: 1.0},
	}
	questions := []GeneratedQuestion{
		{
			Stem:        "Explain how photosynthesis converts light energy into glucose molecules",
			TargetLevel: difficulty.Medium,
			ChunkIDs:    []string{"c1"},
		},
		{
			Stem:        "What is the capital of Vietnam?",
			TargetLevel: difficulty.Hard,
			ChunkIDs:    []string{"unknown"},
		},
	}

	report := EvaluateGeneration(questions, blocks)

	if acc := report.DifficultyAccuracy[difficulty.Medium]; acc.Correct != 1 || acc.Total != 1 {
		t.Errorf("medium accuracy %+v", acc)
	}
	if acc := report.DifficultyAccuracy[difficulty.Hard]; acc.Correct != 0 || acc.Total != 1 {
		t.Errorf("hard accuracy %+v", acc)
	}
	if report.CitationCompleteness != 0.5 {
		t.Errorf("expected citation 0.5, got %f", report.CitationCompleteness)
	}
	if math.Abs(report.ContentQualityScore-0.9) > 1e-9 {
		t.Errorf("expected content 0.9, got %f", report.ContentQualityScore)
	}
	want := 0.4*0.5 + 0.3*0.5 + 0.3*0.9
	if math.Abs(report.OverallScore-want) > 1e-9 {
		t.Errorf("expected overall %f, got %f", want, report.OverallScore)
	}
}

func TestEvaluateGeneration_Empty(t *testing.T) {
	report := EvaluateGeneration(nil, nil)
	if report.OverallScore != 0 || report.CitationCompleteness != 0 {
		t.Errorf("expected zero report, got %+v", report)
	}
}
