package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kmrl-ops/induction-cli/internal/fleet"
	"github.com/kmrl-ops/induction-cli/internal/model"
	"github.com/kmrl-ops/induction-cli/internal/sim"
)

var (
	simFleetPath string
	simAsJSON    bool

	simServiceSlots  int
	simMaintCap      int
	simCleaningSlots int
	simReserve       int
	simBranding      bool
	simWeather       string
	simDemand        string
	simUrgency       int
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Run a what-if simulation against the live plan",
	Long:  "Re-runs the ranking engine under perturbed parameters on the same fleet snapshot and reports per-metric deltas versus the baseline plan.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		snapshot, err := fleet.NewFile(simFleetPath).Snapshot(ctx)
		if err != nil {
			return err
		}

		engine := buildEngine()
		baseline, err := engine.GeneratePlan(ctx, snapshot, cfg.Planner.Defaults)
		if err != nil {
			return eris.Wrap(err, "simulate: baseline plan")
		}

		simCfg := overlayFlags(cmd, cfg.Planner.Defaults)
		plan, delta, err := sim.NewDriver(engine).Run(ctx, snapshot, baseline, simCfg)
		if err != nil {
			return eris.Wrap(err, "simulate")
		}

		zap.L().Info("simulation complete",
			zap.String("plan_id", plan.ID),
			zap.Float64("availability_delta", delta.Availability),
			zap.Float64("risk_delta", delta.RiskScore),
		)

		if simAsJSON {
			return json.NewEncoder(os.Stdout).Encode(struct {
				Plan  *model.InductionPlan `json:"plan"`
				Delta *model.Delta         `json:"delta"`
			}{plan, delta})
		}

		formatPlan(os.Stdout, plan)
		fmt.Fprintf(os.Stdout, "\nDelta vs live plan:\n")
		fmt.Fprintf(os.Stdout, "  availability  %+.1f\n", delta.Availability)
		fmt.Fprintf(os.Stdout, "  efficiency    %+.1f\n", delta.Efficiency)
		fmt.Fprintf(os.Stdout, "  cost impact   %+.1f\n", delta.CostImpact)
		fmt.Fprintf(os.Stdout, "  risk score    %+.1f\n", delta.RiskScore)
		return nil
	},
}

// overlayFlags applies only the simulation flags the user actually set on
// top of the active defaults, so unset knobs keep their live values.
func overlayFlags(cmd *cobra.Command, base model.SimulationConfig) model.SimulationConfig {
	out := base
	if cmd.Flags().Changed("service-slots") {
		out.ServiceSlots = simServiceSlots
	}
	if cmd.Flags().Changed("maintenance-capacity") {
		out.MaintenanceCapacity = simMaintCap
	}
	if cmd.Flags().Changed("cleaning-slots") {
		out.CleaningSlots = simCleaningSlots
	}
	if cmd.Flags().Changed("emergency-reserve") {
		out.EmergencyReserve = simReserve
	}
	if cmd.Flags().Changed("branding-priority") {
		out.BrandingPriority = simBranding
	}
	if cmd.Flags().Changed("weather") {
		out.Weather = model.Weather(simWeather)
	}
	if cmd.Flags().Changed("demand") {
		out.PassengerDemand = model.Demand(simDemand)
	}
	if cmd.Flags().Changed("maintenance-urgency") {
		out.MaintenanceUrgency = simUrgency
	}
	return out
}

func init() {
	simulateCmd.Flags().StringVar(&simFleetPath, "fleet", "fleet.yaml", "fleet snapshot file")
	simulateCmd.Flags().BoolVar(&simAsJSON, "json", false, "print result as JSON")
	simulateCmd.Flags().IntVar(&simServiceSlots, "service-slots", 0, "service slot quota (0 = derive from reserve)")
	simulateCmd.Flags().IntVar(&simMaintCap, "maintenance-capacity", 0, "maintenance bay capacity per day")
	simulateCmd.Flags().IntVar(&simCleaningSlots, "cleaning-slots", 0, "overnight cleaning slots")
	simulateCmd.Flags().IntVar(&simReserve, "emergency-reserve", 0, "minimum standby reserve")
	simulateCmd.Flags().BoolVar(&simBranding, "branding-priority", true, "honor branding exposure commitments")
	simulateCmd.Flags().StringVar(&simWeather, "weather", "", "weather bucket: normal|rain|extreme")
	simulateCmd.Flags().StringVar(&simDemand, "demand", "", "passenger demand bucket: low|normal|peak")
	simulateCmd.Flags().IntVar(&simUrgency, "maintenance-urgency", 0, "maintenance urgency threshold (0-100)")
	rootCmd.AddCommand(simulateCmd)
}
