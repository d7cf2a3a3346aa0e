package app

import (
	"fmt"

	"github.com/Egor213/LogDash/internal/aggregator"
	"github.com/Egor213/LogDash/internal/export"
	"github.com/Egor213/LogDash/internal/validators"
	"github.com/spf13/cobra"
)

func newEventsCmd(configPath func() string) *cobra.Command {
	var (
		filters filterFlags
		page    int
		perPage int
	)

	cmd := &cobra.Command{
		Use:   "events",
		Short: "List one page of merged events",
		Example: `  logdash events --service ftp --from 2024-01-01 --to 2024-01-02
  logdash events --ip 10.0.0 --keyword login --page 2 --per-page 20`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			criteria, err := validators.Criteria(filters.raw())
			if err != nil {
				return err
			}

			rt, err := bootstrap(configPath())
			if err != nil {
				return err
			}
			defer rt.Close()

			p := validators.Page(page, perPage, rt.cfg.Query.DefaultPerPage, rt.cfg.Query.MaxPerPage)
			result, err := rt.services.Events.List(cmd.Context(), criteria, p)
			if err != nil {
				return err
			}

			w, err := export.NewWriter(cmd.OutOrStdout(), export.FormatTable)
			if err != nil {
				return err
			}
			for _, e := range result.Events {
				if err := w.Write(e); err != nil {
					return err
				}
			}
			if err := w.Close(); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "page %d/%d, %d matching rows", result.Page, result.TotalPages, result.Total)
			if result.Skipped > 0 {
				fmt.Fprintf(cmd.OutOrStdout(), ", %d malformed rows skipped", result.Skipped)
			}
			fmt.Fprintln(cmd.OutOrStdout())
			return nil
		},
	}

	filters.register(cmd)
	cmd.Flags().IntVar(&page, "page", 1, "page number, starting at 1")
	cmd.Flags().IntVar(&perPage, "per-page", 0, "events per page (default from config)")
	return cmd
}

func newExportCmd(configPath func() string) *cobra.Command {
	var (
		filters filterFlags
		format  string
		output  string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write every matching event as CSV, JSON or a table",
		Long: `export streams every matching event in merge order.

Without --output rows go to stdout as they are read, so a failure or timeout
in the middle leaves the rows written so far on stdout and the command exits
non-zero. With --output the export goes to a temporary file that replaces the
target only after the last event was written; on failure the target is left
untouched.`,
		Example: `  logdash export --format csv --service apache --output apache.csv
  logdash export --format json --from 2024-01-01T08:00 --to 2024-01-01T09:00`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f, err := export.ParseFormat(format)
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

			stats := &aggregator.Stats{}
			events := rt.services.Events.Stream(cmd.Context(), criteria, stats)

			var n int
			if output != "" {
				n, err = export.ExportFile(output, f, events)
			} else {
				n, err = export.Export(cmd.OutOrStdout(), f, events)
			}
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.ErrOrStderr(), "exported %d events, skipped %d malformed rows\n", n, stats.SkippedTotal())
			return nil
		},
	}

	filters.register(cmd)
	cmd.Flags().StringVar(&format, "format", string(export.FormatCSV), "csv, json or table")
	cmd.Flags().StringVarP(&output, "output", "o", "", "write to this file, replaced only on success")
	return cmd
}
