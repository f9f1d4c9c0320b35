package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"github.com/dgallion1/quizprep/internal/chunkstore"
	"github.com/dgallion1/quizprep/internal/config"
	"github.com/dgallion1/quizprep/internal/difficulty"
	"github.com/dgallion1/quizprep/internal/pipeline"
)

const usage = `usage: quizprep <command> [flags]

commands:
  ingest    extract, chunk, and index one document
  assemble  build generation context from indexed documents
  delete    remove a document's chunks from the index
`

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stderr, nil))

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store := chunkstore.NewClient(cfg.ChunkstoreURL, cfg.ChunkstoreAPIKey)
	defer store.Close()

	var err error
	switch os.Args[1] {
	case "ingest":
		err = runIngest(ctx, cfg, store, log, os.Args[2:])
	case "assemble":
		err = runAssemble(ctx, cfg, store, log, os.Args[2:])
	case "delete":
		err = runDelete(ctx, store, os.Args[2:])
	default:
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
	if err != nil {
		log.Error("command failed", "command", os.Args[1], "error", err)
		os.Exit(1)
	}
}

func runIngest(ctx context.Context, cfg config.Config, store *chunkstore.Client, log *slog.Logger, args []string) error {
	fs := flag.NewFlagSet("ingest", flag.ExitOnError)
	docID := fs.String("doc", "", "document id (required)")
	file := fs.String("file", "", "path to the document (required)")
	format := fs.String("format", "", "document format; defaults to the file extension")
	fs.Parse(args)

	if *docID == "" || *file == "" {
		return fmt.Errorf("ingest requires -doc and -file")
	}
	if *format == "" {
		*format = strings.TrimPrefix(filepath.Ext(*file), ".")
	}

	data, err := os.ReadFile(*file)
	if err != nil {
		return fmt.Errorf("read %s: %w", *file, err)
	}

	ing, err := pipeline.NewIngestor(cfg, store, log)
	if err != nil {
		return err
	}
	result, err := ing.Ingest(ctx, *docID, *format, data)
	if err != nil {
		return err
	}
	if result.Failed {
		return fmt.Errorf("ingest %s: %s", *docID, result.Error)
	}
	return printJSON(struct {
		DocumentID string               `json:"document_id"`
		Stats      pipeline.IngestStats `json:"stats"`
		Skipped    []string             `json:"skipped,omitempty"`
	}{result.DocumentID, result.Stats, result.Skipped})
}

func runAssemble(ctx context.Context, cfg config.Config, store *chunkstore.Client, log *slog.Logger, args []string) error {
	fs := flag.NewFlagSet("assemble", flag.ExitOnError)
	docs := fs.String("docs", "", "comma-separated document ids (required)")
	subject := fs.String("subject", "", "subject line for the prompt")
	count := fs.Int("count", 10, "total question count")
	mix := fs.String("mix", "", "difficulty mix, e.g. easy=4,medium=4,hard=2")
	fs.Parse(args)

	if *docs == "" {
		return fmt.Errorf("assemble requires -docs")
	}
	parsedMix, err := parseMix(*mix)
	if err != nil {
		return err
	}

	asm := pipeline.NewAssembler(store, nil, log)
	payload, summary, err := asm.Assemble(ctx, pipeline.GenerationRequest{
		DocumentIDs:        strings.Split(*docs, ","),
		Subject:            *subject,
		TotalQuestionCount: *count,
		DifficultyMix:      parsedMix,
		PerDocCap:          cfg.PerDocCap,
		MaxTotalChars:      cfg.MaxTotalChars,
		ClipLength:         cfg.ClipLength,
	})
	if err != nil {
		return err
	}
	return printJSON(struct {
		Payload *pipeline.PromptPayload   `json:"payload"`
		Summary *pipeline.AssemblySummary `json:"summary"`
	}{payload, summary})
}

func runDelete(ctx context.Context, store *chunkstore.Client, args []string) error {
	fs := flag.NewFlagSet("delete", flag.ExitOnError)
	docID := fs.String("doc", "", "document id (required)")
	fs.Parse(args)

	if *docID == "" {
		return fmt.Errorf("delete requires -doc")
	}
	return store.DeleteDocument(ctx, *docID)
}

// parseMix reads "easy=4,medium=4,hard=2" into a difficulty mix.
func parseMix(s string) (map[difficulty.Level]int, error) {
	if s == "" {
		return nil, nil
	}
	mix := make(map[difficulty.Level]int)
	for _, part := range strings.Split(s, ",") {
		kv := strings.SplitN(strings.TrimSpace(part), "=", 2)
		if len(kv) != 2 {
			return nil, fmt.Errorf("malformed mix entry %q", part)
		}
		n, err := strconv.Atoi(kv[1])
		if err != nil {
			return nil, fmt.Errorf("malformed mix count %q: %w", part, err)
		}
		mix[difficulty.Level(strings.ToLower(kv[0]))] = n
	}
	return difficulty.NormalizeMix(mix), nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
