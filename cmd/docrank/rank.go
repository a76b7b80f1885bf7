package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/docrank/internal/embeddings"
	"github.com/fyrsmithlabs/docrank/internal/extract"
	"github.com/fyrsmithlabs/docrank/internal/layout"
	"github.com/fyrsmithlabs/docrank/internal/pipeline"
	"github.com/fyrsmithlabs/docrank/internal/scoring"
)

var (
	rankInputPath  string
	rankOutputPath string
	rankDocDir     string
)

var rankCmd = &cobra.Command{
	Use:   "rank",
	Short: "Rank document sections by relevance to a persona",
	Long: `Rank the sections of a document collection by how relevant they are to
a persona and their job to be done.

The input file lists documents plus the persona:

  {
    "documents": [{"filename": "guide.pdf", "title": "City Guide"}],
    "persona": {"role": "Travel Planner"},
    "job_to_be_done": {"task": "Plan a 4 day trip for 10 college friends"}
  }

Examples:
  docrank rank --input collection.json --out output.json
  docrank rank --input collection.json --docs ./pdfs --out output.json`,
	RunE: runRank,
}

func init() {
	rankCmd.Flags().StringVar(&rankInputPath, "input", "", "collection input JSON (required)")
	rankCmd.Flags().StringVar(&rankOutputPath, "out", "output.json", "path for the ranked output JSON")
	rankCmd.Flags().StringVar(&rankDocDir, "docs", "", "directory holding the input documents (default: input file's directory)")
	_ = rankCmd.MarkFlagRequired("input")
}

func runRank(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, logger, cleanup, err := setup(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	input, err := readCollection(rankInputPath)
	if err != nil {
		return err
	}

	// Document paths in the input are relative to --docs, defaulting to
	// the directory the input file lives in.
	docDir := rankDocDir
	if docDir == "" {
		docDir = filepath.Dir(rankInputPath)
	}
	for i, doc := range input.Documents {
		if !filepath.IsAbs(doc.Filename) {
			input.Documents[i].Filename = filepath.Join(docDir, doc.Filename)
		}
	}

	embedder, err := embeddings.NewProvider(cfg.Embeddings)
	if err != nil {
		// No model is a degraded run, not a fatal one: scoring falls back
		// to lexical and documents report model_unavailable.
		logger.Warn("embedding provider unavailable", zap.Error(err))
		embedder = nil
	} else {
		defer embedder.Close()
	}

	classifier, err := layout.NewClassifier(cfg.Layout)
	if err != nil {
		return err
	}

	var scoringEmbedder embeddings.Embedder
	if embedder != nil {
		scoringEmbedder = embeddings.NewInstrumentedProvider(embedder, cfg.Embeddings.Provider, embeddings.NewMetrics(logger))
	}
	engine, err := scoring.NewEngine(cfg.Scoring, scoringEmbedder, logger)
	if err != nil {
		return err
	}

	runner, err := pipeline.NewRunner(cfg.Pipeline, newRouterSource(logger), classifier, engine, logger)
	if err != nil {
		return err
	}

	result, err := runner.Run(ctx, input)
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding output: %w", err)
	}
	if err := os.WriteFile(rankOutputPath, data, 0o644); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}

	logger.Info("ranking written",
		zap.String("output", rankOutputPath),
		zap.Int("sections", len(result.ExtractedSections)),
	)
	return nil
}

func readCollection(path string) (pipeline.CollectionInput, error) {
	var input pipeline.CollectionInput

	data, err := os.ReadFile(path)
	if err != nil {
		return input, fmt.Errorf("reading input: %w", err)
	}
	if err := json.Unmarshal(data, &input); err != nil {
		return input, fmt.Errorf("decoding input %s: %w", path, err)
	}
	if input.Persona.Role == "" || input.JobToBeDone.Task == "" {
		return input, fmt.Errorf("input %s: persona role and job task are required", path)
	}
	return input, nil
}

// routerSource dispatches each document to the PDF or JSON block source by
// extension, so a collection can mix both.
type routerSource struct {
	pdf  *extract.PDFSource
	json extract.JSONSource
}

func newRouterSource(logger *zap.Logger) routerSource {
	return routerSource{pdf: extract.NewPDFSource(logger)}
}

func (r routerSource) Extract(ctx context.Context, path string) ([]layout.TextBlock, error) {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return r.json.Extract(ctx, path)
	}
	return r.pdf.Extract(ctx, path)
}

var _ extract.Source = routerSource{}
