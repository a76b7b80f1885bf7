package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/docrank/internal/extract"
	"github.com/fyrsmithlabs/docrank/internal/layout"
	"github.com/fyrsmithlabs/docrank/internal/outline"
)

var outlineOutDir string

var outlineCmd = &cobra.Command{
	Use:   "outline <pdf...>",
	Short: "Extract a structured outline from each input document",
	Long: `Extract the title and heading hierarchy of each input document and
write one outline JSON per input.

Inputs ending in .json are treated as pre-extracted text blocks instead of
PDFs.

Examples:
  # One outline per PDF, written next to the inputs
  docrank outline report.pdf handbook.pdf --out outlines/`,
	Args: cobra.MinimumNArgs(1),
	RunE: runOutline,
}

func init() {
	outlineCmd.Flags().StringVar(&outlineOutDir, "out", ".", "directory for outline JSON files")
}

func runOutline(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, logger, cleanup, err := setup(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	classifier, err := layout.NewClassifier(cfg.Layout)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(outlineOutDir, 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	var failed int
	for _, path := range args {
		if err := outlineOne(cmd, classifier, logger, path); err != nil {
			logger.Error("outline failed", zap.String("input", path), zap.Error(err))
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d documents failed", failed, len(args))
	}
	return nil
}

func outlineOne(cmd *cobra.Command, classifier *layout.Classifier, logger *zap.Logger, path string) error {
	blocks, err := sourceFor(path, logger).Extract(cmd.Context(), path)
	if err != nil {
		return err
	}

	out := outline.Build(classifier.Classify(blocks, layout.ComputeFontStats(blocks)))

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding outline: %w", err)
	}

	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	target := filepath.Join(outlineOutDir, stem+".json")
	if err := os.WriteFile(target, data, 0o644); err != nil {
		return fmt.Errorf("writing outline: %w", err)
	}

	logger.Info("outline written",
		zap.String("input", path),
		zap.String("output", target),
		zap.Int("entries", len(out.Entries)),
	)
	return nil
}

// sourceFor picks the block source by file extension: .json inputs carry
// pre-extracted blocks, everything else goes through the PDF parser.
func sourceFor(path string, logger *zap.Logger) extract.Source {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return extract.JSONSource{}
	}
	return extract.NewPDFSource(logger)
}
