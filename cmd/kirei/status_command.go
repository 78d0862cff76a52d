package main

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"kirei/internal/config"
	"kirei/internal/daemon"
	"kirei/internal/history"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show daemon status and the latest scan report",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			printer := newStatusPrinter(cmd.OutOrStdout())

			printer.section("Daemon")
			running, probeErr := daemonRunning(cfg)
			switch {
			case probeErr != nil:
				printer.line("Daemon", statusWarn, probeErr.Error())
			case running:
				printer.line("Daemon", statusOK, "running")
			default:
				printer.line("Daemon", statusInfo, "not running")
			}
			printer.line("Real-time", statusInfo, yesNo(cfg.Seiton.Enabled))
			printer.line("Lock file", statusInfo, daemon.LockPath(cfg))

			printer.section("Last Scan")
			if !cfg.History.Enabled {
				printer.line("History", statusInfo, "disabled")
				return nil
			}

			store, err := history.Open(cfg)
			if err != nil {
				return fmt.Errorf("open history store: %w", err)
			}
			defer store.Close()

			report, ok, err := store.Latest(cmd.Context())
			if err != nil {
				return err
			}
			if !ok {
				printer.line("Scans", statusInfo, "none recorded")
				return nil
			}

			printer.line("Finished", statusInfo, report.FinishedAt.Local().Format(time.DateTime))
			printer.line("Files scanned", statusInfo, fmt.Sprintf("%d", report.FilesScanned))
			kind := statusOK
			if report.DuplicateGroups > 0 {
				kind = statusWarn
			}
			printer.line("Duplicate groups", kind, fmt.Sprintf("%d", report.DuplicateGroups))
			printer.line("Wasted space", kind, humanize.Bytes(uint64(report.WastedBytes)))
			return nil
		},
	}
}

// daemonRunning probes the instance lock without holding it: if the lock
// cannot be acquired another process owns it.
func daemonRunning(cfg *config.Config) (bool, error) {
	lock := flock.New(daemon.LockPath(cfg))
	ok, err := lock.TryLock()
	if err != nil {
		return false, fmt.Errorf("probe lock: %w", err)
	}
	if !ok {
		return true, nil
	}
	if err := lock.Unlock(); err != nil {
		return false, fmt.Errorf("release probe lock: %w", err)
	}
	return false, nil
}
