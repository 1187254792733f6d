package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	tutormod "github.com/yungbote/neurotutor-backend/internal/modules/tutor"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest-curriculum <file.jsonl>",
	Short: "Embed curriculum passages into the Qdrant collection",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()

		a, err := openApp(cmd.Context(), cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		batch, _ := cmd.Flags().GetInt("batch")
		workers, _ := cmd.Flags().GetInt("concurrency")
		n, err := a.IngestCurriculum(cmd.Context(), f, tutormod.IngestOptions{BatchSize: batch, Concurrency: workers})
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "ingested %d passages\n", n)
		return nil
	},
}

func init() {
	ingestCmd.Flags().Int("batch", 64, "Points per upsert")
	ingestCmd.Flags().Int("concurrency", 4, "Parallel embedding calls")
}
