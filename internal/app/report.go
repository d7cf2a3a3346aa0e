package app

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/Egor213/LogDash/internal/domain"
	"github.com/Egor213/LogDash/internal/report"
	"github.com/Egor213/LogDash/internal/validators"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func newReportCmd(configPath func() string) *cobra.Command {
	var (
		filters filterFlags
		by      string
		top     int
		asJSON  bool
		byKey   bool
	)

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Count matching events by one dimension",
		Example: `  logdash report --by ip --top 10
  logdash report --by hour --service apache --from 2024-01-01 --by-key`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			dim, err := domain.ParseDimension(by)
			if err != nil {
				return err
			}
			criteria, err := validators.Criteria(filters.raw())
			if err != nil {
				return err
			}

			rt, err := bootstrap(configPath())
			if err != nil {
				return err
			}
			defer rt.Close()

			summary, err := rt.services.Reports.Summarize(cmd.Context(), criteria, dim, top)
			if err != nil {
				return err
			}
			if byKey {
				summary.Buckets = report.ByKey(summary)
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(summary)
			}
			return printSummary(cmd.OutOrStdout(), summary)
		},
	}

	filters.register(cmd)
	cmd.Flags().StringVar(&by, "by", string(domain.DimensionIP), "ip, status, hour, day or source")
	cmd.Flags().IntVar(&top, "top", 0, "keep only the N largest buckets")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	cmd.Flags().BoolVar(&byKey, "by-key", false, "order buckets by key instead of count")
	return cmd
}

func printSummary(w io.Writer, s domain.ReportSummary) error {
	color.New(color.Bold, color.FgCyan).Fprintf(w, "%s report, %d events, %d distinct\n", s.Dimension, s.Total, s.Distinct())

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	for _, b := range s.Buckets {
		share := 0.0
		if s.Total > 0 {
			share = 100 * float64(b.Count) / float64(s.Total)
		}
		fmt.Fprintf(tw, "%s\t%d\t%.1f%%\t\n", b.Key, b.Count, share)
	}
	return tw.Flush()
}

func newDailyCmd(configPath func() string) *cobra.Command {
	var days int

	cmd := &cobra.Command{
		Use:   "daily",
		Short: "Daily access traffic: requests, unique IPs and errors",
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := bootstrap(configPath())
			if err != nil {
				return err
			}
			defer rt.Close()

			stats, err := rt.services.Reports.DailyAccess(cmd.Context(), days)
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "DAY\tREQUESTS\tUNIQUE_IPS\tERRORS")
			for _, d := range stats {
				fmt.Fprintf(tw, "%s\t%d\t%d\t%d\n", d.Day.Format("02-01-2006"), d.Requests, d.UniqueIPs, d.Errors)
			}
			return tw.Flush()
		},
	}

	cmd.Flags().IntVar(&days, "days", 30, "number of most recent days")
	return cmd
}
