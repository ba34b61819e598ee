package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"webtoon-rag/internal/app"
	"webtoon-rag/internal/config"
)

var (
	configFile string
	logLevel   string
	cfg        *config.Config
	logger     *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "webtoonqa",
	Short: "Webtoon question answering over ingested scenes",
	Long: `webtoonqa answers questions about a webtoon.

Questions that name a single chapter are answered from the chapter summary.
Everything else goes through hybrid vector and keyword retrieval, neighbour
expansion, cross-encoder reranking and generation.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if configFile != "" {
			if err := os.Setenv("CONFIG_FILE", configFile); err != nil {
				return err
			}
		}
		if logLevel != "" {
			if err := os.Setenv("LOG_LEVEL", logLevel); err != nil {
				return err
			}
		}
		loaded, err := config.Load()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		cfg = loaded
		// Logs go to stderr so answers on stdout stay clean
		logger = app.NewLogger(cfg, os.Stderr)
		slog.SetDefault(logger)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "YAML config file (default config/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error")
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render("Error:"), err)
		os.Exit(1)
	}
}
