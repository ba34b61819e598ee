package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"webtoon-rag/internal/app"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

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
		return a.Serve(ctx)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
