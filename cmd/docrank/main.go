// Package main implements the docrank CLI: outline extraction and
// persona-driven section ranking for PDF document collections.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/docrank/internal/config"
	"github.com/fyrsmithlabs/docrank/internal/logging"
	"github.com/fyrsmithlabs/docrank/internal/telemetry"
)

// Version information (set via ldflags during build)
var (
	version   = "dev"
	gitCommit = "unknown"
	buildDate = "unknown"
)

var configPath string

func main() {
	// A missing .env is fine; variables already in the environment win.
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "docrank",
	Short: "Outline extraction and persona-driven section ranking for PDFs",
	Long: `docrank extracts structured outlines from PDF documents and, given a
persona and a job to be done, ranks document sections by relevance.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to YAML config file")
	rootCmd.AddCommand(outlineCmd)
	rootCmd.AddCommand(rankCmd)
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("docrank %s (commit %s, built %s)\n", version, gitCommit, buildDate)
	},
}

// setup loads config, builds the shared logger, and installs telemetry.
// The returned cleanup flushes both and is safe to defer immediately.
func setup(ctx context.Context) (*config.Config, *zap.Logger, func(), error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, nil, err
	}

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		return nil, nil, nil, err
	}

	tel, err := telemetry.Setup(ctx, cfg.Telemetry, logger)
	if err != nil {
		return nil, nil, nil, err
	}

	cleanup := func() {
		if err := tel.Shutdown(context.Background()); err != nil {
			logger.Warn("telemetry shutdown failed", zap.Error(err))
		}
		_ = logger.Sync()
	}
	return cfg, logger, cleanup, nil
}
