package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/tygershark/shiprecon/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "shiprecon",
	Short: "Carrier invoice reconciliation engine",
	Long:  "Identifies the issuing carrier of invoice/manifest documents, extracts shipment records through tiered Claude pipelines, and reconciles them against the shipment record store despite OCR noise.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
