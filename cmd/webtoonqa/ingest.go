package main

import (
	"github.com/spf13/cobra"

	"webtoon-rag/internal/app"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Embed scenes into Qdrant and write the keyword corpus and lookup store",
	Long: `Ingest reads DATA_DIR/scenes/*.json, embeds every scene with the configured
embedding model and upserts it into the Qdrant collection. It also writes the
keyword corpus and the lookup store built from the global, event and chapter
summaries. The collection is created with a chapter_id index if missing.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := app.New(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer func() {
			_ = a.Close()
		}()

		if err := a.PrepareCollection(ctx); err != nil {
			return err
		}
		stats, err := a.Pipeline.Run(ctx)
		if err != nil {
			return err
		}
		renderStats(cmd.OutOrStdout(), stats)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(ingestCmd)
}
