package cmd

import (
	"fmt"
	"sort"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/kilianp07/drplan/core/cohort"
	"github.com/kilianp07/drplan/core/model"
)

var cohortsCmd = &cobra.Command{
	Use:   "cohorts",
	Short: "Inspect the cohort catalog",
}

var cohortSummaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Print accounts and flexible MW per segment",
	RunE:  cohortSummary,
}

func init() {
	cohortsCmd.AddCommand(cohortSummaryCmd)
	rootCmd.AddCommand(cohortsCmd)
}

func cohortSummary(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	cohorts, err := cohort.NewFileSource(cfg.Cohorts.Path).Cohorts(cmd.Context())
	if err != nil {
		return err
	}
	s := cohort.Summary(cohorts)

	segments := make([]model.Segment, 0, len(s.BySegment))
	for seg := range s.BySegment {
		segments = append(segments, seg)
	}
	sort.Slice(segments, func(i, j int) bool { return segments[i] < segments[j] })

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SEGMENT\tCOHORTS\tACCOUNTS\tFLEX MW")
	for _, seg := range segments {
		v := s.BySegment[seg]
		fmt.Fprintf(tw, "%s\t%d\t%s\t%.2f\n", seg, v.Count, humanize.Comma(int64(v.Accounts)), v.FlexMW)
	}
	fmt.Fprintf(tw, "total\t%d\t%s\t%.2f\n", s.TotalCohorts, humanize.Comma(int64(s.TotalAccounts)), s.TotalFlexMW)
	return tw.Flush()
}
