package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/tygershark/shiprecon/internal/model"
	"github.com/tygershark/shiprecon/internal/store"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest <shipments.json>",
	Short: "Load shipment records into the record store",
	Long:  "Reads a JSON array of shipment records and upserts them into the configured store. Records without an id get one assigned.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		raw, err := os.ReadFile(args[0])
		if err != nil {
			return eris.Wrapf(err, "read %s", args[0])
		}
		var shipments []model.StoredShipment
		if err := json.Unmarshal(raw, &shipments); err != nil {
			return eris.Wrap(err, "parse shipments")
		}
		for i := range shipments {
			if shipments[i].ID == "" {
				shipments[i].ID = uuid.NewString()
			}
		}

		st, err := store.Open(ctx, cfg.Store)
		if err != nil {
			return err
		}
		defer st.Close()
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		if err := st.InsertShipments(ctx, shipments); err != nil {
			return err
		}
		fmt.Printf("ingested %d shipment records\n", len(shipments))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(ingestCmd)
}
