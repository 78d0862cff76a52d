package main

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"kirei/internal/history"
)

func newReportsCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "reports",
		Short: "List stored duplicate-scan reports",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			store, err := history.Open(cfg)
			if err != nil {
				return fmt.Errorf("open history store: %w", err)
			}
			defer store.Close()

			reports, err := store.List(cmd.Context(), limit)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(reports) == 0 {
				fmt.Fprintln(out, "No scan reports recorded")
				return nil
			}

			rows := make([][]string, 0, len(reports))
			for _, report := range reports {
				rows = append(rows, []string{
					shortDigest(report.ID),
					report.StartedAt.Local().Format(time.DateTime),
					fmt.Sprintf("%d", report.FilesScanned),
					humanize.Bytes(uint64(report.BytesScanned)),
					fmt.Sprintf("%d", report.DuplicateGroups),
					fmt.Sprintf("%d", report.DuplicateFiles),
					humanize.Bytes(uint64(report.WastedBytes)),
					fmt.Sprintf("%d", report.RemovedFiles),
					fmt.Sprintf("%d", report.QuarantinedFiles),
				})
			}
			fmt.Fprintln(out, renderTable(
				[]column{
					{title: "Scan"},
					{title: "Started"},
					{title: "Files", right: true},
					{title: "Scanned", right: true},
					{title: "Groups", right: true},
					{title: "Duplicates", right: true},
					{title: "Wasted", right: true},
					{title: "Removed", right: true},
					{title: "Quarantined", right: true},
				},
				rows,
			))
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of reports to show (0 for all)")
	return cmd
}
