package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/kmrl-ops/induction-cli/internal/fleet"
	"github.com/kmrl-ops/induction-cli/internal/model"
)

var fleetPath string

var fleetCmd = &cobra.Command{
	Use:   "fleet",
	Short: "Inspect the current fleet snapshot",
}

var fleetListCmd = &cobra.Command{
	Use:   "list",
	Short: "List trainsets in the snapshot",
	RunE: func(cmd *cobra.Command, _ []string) error {
		snapshot, err := fleet.NewFile(fleetPath).Snapshot(cmd.Context())
		if err != nil {
			return err
		}
		formatFleet(os.Stdout, snapshot)
		return nil
	},
}

var fleetKPICmd = &cobra.Command{
	Use:   "kpi",
	Short: "Show fleet-level KPIs",
	RunE: func(cmd *cobra.Command, _ []string) error {
		snapshot, err := fleet.NewFile(fleetPath).Snapshot(cmd.Context())
		if err != nil {
			return err
		}
		return json.NewEncoder(os.Stdout).Encode(model.ComputeKPIs(snapshot))
	},
}

func formatFleet(w io.Writer, snapshot []model.Trainset) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNUMBER\tNAME\tSTATUS\tMILEAGE\tAVAIL\tOPEN CARDS\tBAY")
	for _, ts := range snapshot {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%d%%\t%d\t%s\n",
			ts.ID, ts.Number, ts.Name, ts.Status, ts.Mileage, ts.Availability,
			ts.JobCards.Open, ts.StablingPosition)
	}
	tw.Flush()
}

func init() {
	fleetCmd.PersistentFlags().StringVar(&fleetPath, "fleet", "fleet.yaml", "fleet snapshot file")
	fleetCmd.AddCommand(fleetListCmd, fleetKPICmd)
	rootCmd.AddCommand(fleetCmd)
}
