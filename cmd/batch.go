package main

import (
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/tygershark/shiprecon/internal/model"
	"github.com/tygershark/shiprecon/internal/pipeline"
)

var batchCmd = &cobra.Command{
	Use:   "batch <document.txt> [more documents...]",
	Short: "Reconcile a batch of documents in bounded-concurrency waves",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		p, st, err := buildEngine(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		docs := make([]model.Document, 0, len(args))
		for _, path := range args {
			doc, err := loadDocument(path)
			if err != nil {
				return err
			}
			docs = append(docs, doc)
		}

		items := p.ProcessBatch(ctx, docs, flagPrincipal())
		renderBatch(items)
		return nil
	},
}

func renderBatch(items []pipeline.BatchItem) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"Document", "Carrier", "Records", "Auto", "Review", "Mean Conf", "Error"})

	var failed int
	for _, item := range items {
		if item.Err != nil {
			failed++
			t.AppendRow(table.Row{item.Document.Filename, "", "", "", "", "", item.Err.Error()})
			continue
		}
		if item.Result.Skipped {
			t.AppendRow(table.Row{item.Document.Filename, "", "", "", "", "", "already processed"})
			continue
		}
		stats := item.Result.Stats
		t.AppendRow(table.Row{
			item.Document.Filename,
			item.Result.Consensus.CarrierID,
			stats.Total,
			stats.AutoApplicable,
			stats.ReviewRequired,
			fmt.Sprintf("%.2f", stats.MeanConfidence),
			"",
		})
	}
	t.Render()

	if failed > 0 {
		fmt.Printf("%d of %d documents failed; see the step log for details\n", failed, len(items))
	}
}

func init() {
	principalFlags(batchCmd)
	rootCmd.AddCommand(batchCmd)
}
