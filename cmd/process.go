package main

import (
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/tygershark/shiprecon/internal/pipeline"
)

var processCmd = &cobra.Command{
	Use:   "process <document.txt>",
	Short: "Reconcile a single document against the record store",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		p, st, err := buildEngine(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		doc, err := loadDocument(args[0])
		if err != nil {
			return err
		}

		result, err := p.Process(ctx, doc, flagPrincipal())
		if err != nil {
			return err
		}
		renderResult(result)
		return nil
	},
}

func renderResult(result *pipeline.DocumentResult) {
	if result.Skipped {
		fmt.Println("document already processed")
		return
	}

	fmt.Printf("document: %s  tier: %s  carrier: %s (%s, %.2f)  extraction confidence: %.2f\n",
		result.Document.Filename,
		result.Estimate.Tier,
		result.Consensus.CarrierID,
		result.Consensus.Strength,
		result.Consensus.Confidence,
		result.Validation.Confidence,
	)
	if result.Extraction.Fallback {
		fmt.Println("WARNING: records synthesized by regex fallback; all require review")
	}

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"#", "Identifier", "Status", "Confidence", "Strategy", "Matched Record", "Review"})
	for i, r := range result.Results {
		identifier := r.Record.ShipmentID
		if identifier == "" {
			identifier = r.Record.TrackingNumber
		}
		if identifier == "" {
			identifier = r.Record.CustomerReference
		}

		var confidence, strategy, matched string
		if r.Best != nil {
			confidence = fmt.Sprintf("%.2f", r.Best.Confidence)
			strategy = string(r.Best.Strategy)
			matched = r.Best.Record.ID
		}
		review := ""
		if r.ReviewRequired {
			review = "yes"
		}
		t.AppendRow(table.Row{i + 1, identifier, r.Status, confidence, strategy, matched, review})
	}
	t.Render()

	fmt.Printf("total: %d  auto-applicable: %d  review: %d  mean confidence: %.2f\n",
		result.Stats.Total,
		result.Stats.AutoApplicable,
		result.Stats.ReviewRequired,
		result.Stats.MeanConfidence,
	)
}

func init() {
	principalFlags(processCmd)
	rootCmd.AddCommand(processCmd)
}
