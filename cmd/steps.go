package main

import (
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/tygershark/shiprecon/internal/store"
)

var stepsCmd = &cobra.Command{
	Use:   "steps <document-id>",
	Short: "Show the persisted pipeline steps for a document",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := store.Open(ctx, cfg.Store)
		if err != nil {
			return err
		}
		defer st.Close()
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		steps, err := st.ListSteps(ctx, args[0])
		if err != nil {
			return err
		}

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendHeader(table.Row{"Step", "Status", "Started", "Finished", "Error"})
		for _, s := range steps {
			finished := ""
			if s.FinishedAt != nil {
				finished = s.FinishedAt.Format("2006-01-02 15:04:05")
			}
			t.AppendRow(table.Row{s.Step, s.Status, s.StartedAt.Format("2006-01-02 15:04:05"), finished, s.Error})
		}
		t.Render()
		return nil
	},
}

func init() {
	rootCmd.AddCommand(stepsCmd)
}
