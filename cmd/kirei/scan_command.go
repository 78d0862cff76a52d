package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"kirei/internal/history"
	"kirei/internal/logging"
	"kirei/internal/strategy"
	"kirei/internal/transfer"
)

func newScanCommand(ctx *commandContext) *cobra.Command {
	var noRecord bool

	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Run a one-shot duplicate scan and print the findings",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			signalCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			logger, err := logging.NewFromConfig(cfg)
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}

			var recorder strategy.Recorder
			if cfg.History.Enabled && !noRecord {
				store, err := history.Open(cfg)
				if err != nil {
					return fmt.Errorf("open history store: %w", err)
				}
				defer store.Close()
				recorder = store
			}

			resolver := transfer.NewResolver(logger)
			scanner := strategy.NewDuplicateDetection(cfg, resolver, recorder, logger)

			report, groups, err := scanner.Scan(signalCtx)
			if err != nil {
				return err
			}
			if recorder != nil {
				if err := recorder.RecordScan(signalCtx, report); err != nil {
					fmt.Fprintf(os.Stderr, "warn: scan report not persisted: %v\n", err)
				}
			}

			out := cmd.OutOrStdout()
			printGroups(out, groups)
			fmt.Fprintln(out, renderTable(
				[]column{
					{title: "Scan"},
					{title: "Files", right: true},
					{title: "Scanned", right: true},
					{title: "Groups", right: true},
					{title: "Duplicates", right: true},
					{title: "Wasted", right: true},
					{title: "Elapsed", right: true},
				},
				[][]string{{
					report.ID,
					fmt.Sprintf("%d", report.FilesScanned),
					humanize.Bytes(uint64(report.BytesScanned)),
					fmt.Sprintf("%d", report.DuplicateGroups),
					fmt.Sprintf("%d", report.DuplicateFiles),
					humanize.Bytes(uint64(report.WastedBytes)),
					report.FinishedAt.Sub(report.StartedAt).Round(time.Millisecond).String(),
				}},
			))
			return nil
		},
	}

	cmd.Flags().BoolVar(&noRecord, "no-record", false, "Skip persisting the scan report to history")
	return cmd
}

func printGroups(out io.Writer, groups []strategy.DuplicateGroup) {
	if len(groups) == 0 {
		fmt.Fprintln(out, "No duplicates found")
		return
	}
	for _, group := range groups {
		fmt.Fprintf(out, "Group %s (%d files, %s wasted)\n",
			shortDigest(group.Digest), len(group.Files), humanize.Bytes(uint64(group.WastedBytes())))
		for _, record := range group.Files {
			fmt.Fprintf(out, "  %s (%s, modified %s)\n",
				record.Path, humanize.Bytes(uint64(record.Size)), record.ModTime.Format(time.RFC3339))
		}
	}
}

func shortDigest(digest string) string {
	if len(digest) > 12 {
		return digest[:12]
	}
	return digest
}
