package main

import (
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/tygershark/shiprecon/internal/identify"
)

var carriersCmd = &cobra.Command{
	Use:   "carriers",
	Short: "List the carrier identification profiles",
	RunE: func(cmd *cobra.Command, args []string) error {
		registry, err := identify.LoadRegistry()
		if err != nil {
			return err
		}

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendHeader(table.Row{"ID", "Name", "Ceiling", "Identifiers", "Patterns", "Aliases"})
		for _, p := range registry.Profiles {
			patterns := make([]string, 0, len(p.Patterns))
			for field := range p.Patterns {
				patterns = append(patterns, field)
			}
			t.AppendRow(table.Row{
				p.ID,
				p.Name,
				p.ConfidenceCeiling,
				len(p.Identifiers),
				strings.Join(patterns, ", "),
				strings.Join(p.Aliases, ", "),
			})
		}
		t.Render()
		return nil
	},
}

func init() {
	rootCmd.AddCommand(carriersCmd)
}
