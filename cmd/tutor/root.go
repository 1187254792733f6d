package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/yungbote/neurotutor-backend/internal/app"
)

var rootCmd = &cobra.Command{
	Use:           "tutor",
	Short:         "AI tutor backend",
	Long:          "Streams explanations and quizzes over WebSocket and keeps each learner's quiz ledger and performance rollup.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().String("log-mode", "", "Logger mode: development or production (overrides LOG_MODE)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(recomputeCmd)
	rootCmd.AddCommand(tokenCmd)
	rootCmd.AddCommand(ingestCmd)
}

// openApp builds the base app from the --log-mode flag. Callers must Close it.
func openApp(ctx context.Context, cmd *cobra.Command) (*app.App, error) {
	mode, _ := cmd.Flags().GetString("log-mode")
	return app.Open(ctx, mode)
}
