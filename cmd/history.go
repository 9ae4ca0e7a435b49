package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/kmrl-ops/induction-cli/internal/ledger"
	"github.com/kmrl-ops/induction-cli/internal/model"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Record and inspect the decision history ledger",
	Long:  "The ledger is append-only: entries record what was decided for a trainset and how it worked out, and are never edited or deleted.",
}

// -- history record --

var historyRecordCmd = &cobra.Command{
	Use:   "record",
	Short: "Append an executed decision and its outcome",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		l, err := initLedger(ctx)
		if err != nil {
			return err
		}
		defer l.Close() //nolint:errcheck

		id, _ := cmd.Flags().GetString("id")
		if id == "" {
			id = uuid.New().String()
		}
		dateStr, _ := cmd.Flags().GetString("date")
		date := time.Now().UTC()
		if dateStr != "" {
			date, err = time.Parse("2006-01-02", dateStr)
			if err != nil {
				return eris.Wrapf(err, "history record: parse date %q", dateStr)
			}
		}

		trainset, _ := cmd.Flags().GetString("trainset")
		decision, _ := cmd.Flags().GetString("decision")
		outcome, _ := cmd.Flags().GetString("outcome")
		notes, _ := cmd.Flags().GetString("notes")
		supervisor, _ := cmd.Flags().GetString("supervisor")

		entry := model.HistoryEntry{
			ID:         id,
			Date:       date,
			TrainsetID: trainset,
			Decision:   model.Action(decision),
			Outcome:    model.Outcome(outcome),
			Notes:      notes,
			Supervisor: supervisor,
		}

		if err := l.Record(ctx, entry); err != nil {
			return eris.Wrap(err, "history record")
		}
		fmt.Printf("Recorded %s\n", entry.ID)
		return nil
	},
}

// -- history list --

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List ledger entries by trainset or date range",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		l, err := initLedger(ctx)
		if err != nil {
			return err
		}
		defer l.Close() //nolint:errcheck

		trainset, _ := cmd.Flags().GetString("trainset")
		fromStr, _ := cmd.Flags().GetString("from")
		toStr, _ := cmd.Flags().GetString("to")

		var entries []model.HistoryEntry
		switch {
		case trainset != "":
			entries, err = ledger.Collect(l.QueryByTrainset(ctx, trainset))
		default:
			from, to, perr := parseDateRange(fromStr, toStr)
			if perr != nil {
				return perr
			}
			entries, err = ledger.Collect(l.QueryByDateRange(ctx, from, to))
		}
		if err != nil {
			return eris.Wrap(err, "history list")
		}

		if len(entries) == 0 {
			fmt.Fprintln(os.Stderr, "No history entries found.")
			return nil
		}
		formatHistory(os.Stdout, entries)
		return nil
	},
}

// parseDateRange parses --from/--to, defaulting to the last 30 days.
func parseDateRange(fromStr, toStr string) (time.Time, time.Time, error) {
	to := time.Now().UTC()
	from := to.AddDate(0, 0, -30)
	var err error
	if fromStr != "" {
		from, err = time.Parse("2006-01-02", fromStr)
		if err != nil {
			return time.Time{}, time.Time{}, eris.Wrapf(err, "history list: parse --from %q", fromStr)
		}
	}
	if toStr != "" {
		to, err = time.Parse("2006-01-02", toStr)
		if err != nil {
			return time.Time{}, time.Time{}, eris.Wrapf(err, "history list: parse --to %q", toStr)
		}
		// Inclusive end of day.
		to = to.Add(24*time.Hour - time.Second)
	}
	return from, to, nil
}

func formatHistory(w io.Writer, entries []model.HistoryEntry) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "DATE\tTRAINSET\tDECISION\tOUTCOME\tSUPERVISOR\tNOTES")
	for _, e := range entries {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			e.Date.Format("2006-01-02"), e.TrainsetID, e.Decision, e.Outcome, e.Supervisor, e.Notes)
	}
	tw.Flush()
}

func init() {
	historyRecordCmd.Flags().String("id", "", "entry id (generated when empty)")
	historyRecordCmd.Flags().String("date", "", "decision date YYYY-MM-DD (default today)")
	historyRecordCmd.Flags().String("trainset", "", "trainset id")
	historyRecordCmd.Flags().String("decision", "", "executed decision: service|standby|maintenance")
	historyRecordCmd.Flags().String("outcome", "", "realized outcome: successful|partial|failed")
	historyRecordCmd.Flags().String("notes", "", "free-text notes")
	historyRecordCmd.Flags().String("supervisor", "", "recording supervisor")
	historyRecordCmd.MarkFlagRequired("trainset")   //nolint:errcheck
	historyRecordCmd.MarkFlagRequired("decision")   //nolint:errcheck
	historyRecordCmd.MarkFlagRequired("outcome")    //nolint:errcheck
	historyRecordCmd.MarkFlagRequired("supervisor") //nolint:errcheck

	historyListCmd.Flags().String("trainset", "", "filter by trainset id")
	historyListCmd.Flags().String("from", "", "range start YYYY-MM-DD")
	historyListCmd.Flags().String("to", "", "range end YYYY-MM-DD")

	historyCmd.AddCommand(historyRecordCmd, historyListCmd)
	rootCmd.AddCommand(historyCmd)
}
