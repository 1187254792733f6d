package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yungbote/neurotutor-backend/internal/services"
)

var recomputeCmd = &cobra.Command{
	Use:   "recompute-metrics <user_id>",
	Short: "Rebuild a learner's performance rollup from the quiz ledger",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd.Context(), cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		rollup, err := a.RecomputeMetrics(cmd.Context(), args[0])
		if errors.Is(err, services.ErrNoSubmissions) {
			fmt.Fprintf(cmd.OutOrStdout(), "%s has no quiz submissions; nothing written\n", args[0])
			return nil
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s: %d quizzes, overall accuracy %.2f%%, average score %.2f\n",
			rollup.UserID, rollup.TotalQuizzes, rollup.OverallAccuracy, rollup.AverageScore)
		return nil
	},
}
