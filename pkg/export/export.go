// Package export renders plans for operators: JSON, CSV and an HTML chart.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/kilianp07/drplan/core/model"
)

// WriteJSON writes the plan to w in indented JSON format.
func WriteJSON(w io.Writer, plan model.DRPlan) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(plan)
}

var csvHeader = []string{
	"plan_id", "cohort_id", "cohort_name", "segment",
	"target_mw", "predicted_mw", "acceptance_probability", "num_accounts",
}

// WriteCSV writes one row per cohort allocation.
func WriteCSV(w io.Writer, plan model.DRPlan) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, a := range plan.CohortAllocations {
		rec := []string{
			plan.ID,
			a.CohortID,
			a.CohortName,
			string(a.Segment),
			strconv.FormatFloat(a.TargetMW, 'f', -1, 64),
			strconv.FormatFloat(a.PredictedMW, 'f', -1, 64),
			strconv.FormatFloat(a.AcceptanceProbability, 'f', -1, 64),
			strconv.Itoa(a.NumAccounts),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteChartHTML renders target and predicted MW per cohort as a bar chart.
func WriteChartHTML(w io.Writer, plan model.DRPlan) error {
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    "Plan " + plan.ID,
			Subtitle: fmt.Sprintf("%s strategy, confidence %.0f%%", plan.Strategy.Title(), plan.ConfidenceScore*100),
		}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Cohort"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "MW"}),
	)

	names := make([]string, 0, len(plan.CohortAllocations))
	target := make([]opts.BarData, 0, len(plan.CohortAllocations))
	predicted := make([]opts.BarData, 0, len(plan.CohortAllocations))
	for _, a := range plan.CohortAllocations {
		names = append(names, a.CohortName)
		target = append(target, opts.BarData{Value: a.TargetMW})
		predicted = append(predicted, opts.BarData{Value: a.PredictedMW})
	}
	bar.SetXAxis(names).
		AddSeries("Target MW", target).
		AddSeries("Predicted MW", predicted)

	if err := bar.Render(w); err != nil {
		return fmt.Errorf("render chart: %w", err)
	}
	return nil
}

// Format names an export format accepted by Write.
type Format string

const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
	FormatHTML Format = "html"
)

// Write dispatches to the writer for f.
func Write(w io.Writer, plan model.DRPlan, f Format) error {
	switch f {
	case FormatJSON:
		return WriteJSON(w, plan)
	case FormatCSV:
		return WriteCSV(w, plan)
	case FormatHTML:
		return WriteChartHTML(w, plan)
	}
	return fmt.Errorf("unknown export format %q", f)
}
