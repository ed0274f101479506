package cmd

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/kilianp07/drplan/app"
	"github.com/kilianp07/drplan/core/model"
	"github.com/kilianp07/drplan/core/planner"
	"github.com/kilianp07/drplan/core/planstore"
	"github.com/kilianp07/drplan/pkg/export"
)

var planFlags struct {
	start    string
	end      string
	inHours  float64
	duration time.Duration
	strategy string
	target   float64
	cohorts  []string
	format   string
	output   string
}

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Propose and export demand-response plans",
}

var proposeCmd = &cobra.Command{
	Use:   "propose",
	Short: "Compute a plan for a window without dispatching it",
	RunE:  proposePlan,
}

var exportCmd = &cobra.Command{
	Use:   "export <plan-id>",
	Short: "Export a stored plan as json, csv or html",
	Args:  cobra.ExactArgs(1),
	RunE:  exportPlan,
}

func init() {
	f := proposeCmd.Flags()
	f.StringVar(&planFlags.start, "start", "", "window start (RFC3339)")
	f.StringVar(&planFlags.end, "end", "", "window end (RFC3339)")
	f.Float64Var(&planFlags.inHours, "in", 5, "hours from now to the window start when --start is not set")
	f.DurationVar(&planFlags.duration, "duration", 2*time.Hour, "window length when --end is not set")
	f.StringVar(&planFlags.strategy, "strategy", string(model.StrategyBalanced), "cost_minimize, reliability, balanced or emergency")
	f.Float64Var(&planFlags.target, "target", 0, "target reduction in MW, derived from the grid when 0")
	f.StringSliceVar(&planFlags.cohorts, "cohorts", nil, "restrict planning to these cohort ids")

	for _, c := range []*cobra.Command{proposeCmd, exportCmd} {
		c.Flags().StringVarP(&planFlags.format, "format", "f", string(export.FormatJSON), "output format: json, csv or html")
		c.Flags().StringVarP(&planFlags.output, "output", "o", "", "output file, stdout when empty")
	}

	planCmd.AddCommand(proposeCmd, exportCmd)
	rootCmd.AddCommand(planCmd)
}

func planRequest(now time.Time) (planner.Request, error) {
	var req planner.Request
	strategy, err := model.ParseStrategy(planFlags.strategy)
	if err != nil {
		return req, err
	}
	req.Strategy = strategy
	req.CohortIDs = planFlags.cohorts
	if planFlags.target > 0 {
		t := planFlags.target
		req.TargetMW = &t
	}

	req.WindowStart = now.Add(time.Duration(planFlags.inHours * float64(time.Hour)))
	if planFlags.start != "" {
		if req.WindowStart, err = time.Parse(time.RFC3339, planFlags.start); err != nil {
			return req, fmt.Errorf("parse --start: %w", err)
		}
	}
	req.WindowEnd = req.WindowStart.Add(planFlags.duration)
	if planFlags.end != "" {
		if req.WindowEnd, err = time.Parse(time.RFC3339, planFlags.end); err != nil {
			return req, fmt.Errorf("parse --end: %w", err)
		}
	}
	return req, nil
}

func proposePlan(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	p, _, err := app.NewPlanner(cfg)
	if err != nil {
		return err
	}
	req, err := planRequest(time.Now().UTC())
	if err != nil {
		return err
	}
	plan, err := p.CreatePlan(cmd.Context(), req)
	if err != nil {
		return err
	}
	return writePlan(cmd.OutOrStdout(), plan)
}

func exportPlan(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	store, err := planstore.New(cfg.Store)
	if err != nil {
		return fmt.Errorf("plan store: %w", err)
	}
	defer store.Close()
	plan, err := store.GetPlan(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	return writePlan(cmd.OutOrStdout(), plan)
}

func writePlan(stdout io.Writer, plan model.DRPlan) error {
	w := stdout
	if planFlags.output != "" {
		f, err := os.Create(planFlags.output)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}
	return export.Write(w, plan, export.Format(planFlags.format))
}
