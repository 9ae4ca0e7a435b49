package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kmrl-ops/induction-cli/internal/eval"
	"github.com/kmrl-ops/induction-cli/internal/fleet"
	"github.com/kmrl-ops/induction-cli/internal/model"
	"github.com/kmrl-ops/induction-cli/internal/planner"
)

var (
	planFleetPath string
	planOutPath   string
	planAsJSON    bool
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Generate tonight's induction plan",
	Long:  "Runs every constraint evaluator over the fleet snapshot and produces the ranked induction plan for the next service day.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		snapshot, err := fleet.NewFile(planFleetPath).Snapshot(ctx)
		if err != nil {
			return err
		}

		engine := buildEngine()
		plan, err := engine.GeneratePlan(ctx, snapshot, cfg.Planner.Defaults)
		if err != nil {
			return eris.Wrap(err, "plan")
		}

		zap.L().Info("plan generated",
			zap.String("plan_id", plan.ID),
			zap.Int("trainsets", len(plan.Decisions)),
			zap.Float64("optimization_score", plan.OptimizationScore),
		)

		if planOutPath != "" {
			data, err := json.MarshalIndent(plan, "", "  ")
			if err != nil {
				return eris.Wrap(err, "plan: marshal")
			}
			if err := os.WriteFile(planOutPath, data, 0o644); err != nil {
				return eris.Wrapf(err, "plan: write %s", planOutPath)
			}
		}

		if planAsJSON {
			return json.NewEncoder(os.Stdout).Encode(plan)
		}
		formatPlan(os.Stdout, plan)
		return nil
	},
}

// buildEngine assembles the ranking engine from the active configuration.
func buildEngine() *planner.Engine {
	return planner.New(
		eval.All(cfg.Planner.Tuning),
		planner.WithParallelism(cfg.Planner.Parallelism),
	)
}

// formatPlan renders a plan as an aligned table with one row per decision.
func formatPlan(w io.Writer, plan *model.InductionPlan) {
	fmt.Fprintf(w, "Plan %s  generated %s  optimization score %.1f\n\n",
		plan.ID, plan.GeneratedAt.Format("2006-01-02 15:04 MST"), plan.OptimizationScore)

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "RANK\tTRAINSET\tACTION\tSCORE\tCONFIDENCE\tCONFLICTS")
	for _, d := range plan.Decisions {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%.1f\t%d%%\t%d\n",
			d.Priority, d.TrainsetID, d.Recommendation, d.Score, d.Confidence, len(d.Conflicts))
	}
	tw.Flush()

	for _, d := range plan.Decisions {
		if len(d.Conflicts) == 0 {
			continue
		}
		fmt.Fprintf(w, "\n%s conflicts:\n  %s\n", d.TrainsetID, strings.Join(d.Conflicts, "\n  "))
	}
}

func init() {
	planCmd.Flags().StringVar(&planFleetPath, "fleet", "fleet.yaml", "fleet snapshot file")
	planCmd.Flags().StringVar(&planOutPath, "out", "", "write plan JSON to file")
	planCmd.Flags().BoolVar(&planAsJSON, "json", false, "print plan as JSON")
	rootCmd.AddCommand(planCmd)
}
