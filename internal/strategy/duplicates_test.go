package strategy_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"kirei/internal/logging"
	"kirei/internal/strategy"
	"kirei/internal/testsupport"
	"kirei/internal/transfer"
)

func TestDuplicateScanGroupsByContent(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	inbox := cfg.Paths.MonitorFolders[0]

	testsupport.WriteFileContent(t, filepath.Join(inbox, "one.txt"), []byte("same content"))
	testsupport.WriteFileContent(t, filepath.Join(inbox, "two.txt"), []byte("same content"))
	testsupport.WriteFileContent(t, filepath.Join(inbox, "unique.txt"), []byte("different"))

	scanner := strategy.NewDuplicateDetection(cfg, transfer.NewResolver(logging.NewNop()), nil, logging.NewNop())
	report, groups, err := scanner.Scan(context.Background())
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}

	if len(groups) != 1 {
		t.Fatalf("expected 1 duplicate group, got %d", len(groups))
	}
	if len(groups[0].Files) != 2 {
		t.Fatalf("expected 2 members, got %d", len(groups[0].Files))
	}
	if report.FilesScanned != 3 {
		t.Fatalf("expected 3 files scanned, got %d", report.FilesScanned)
	}
	wantWasted := int64(len("same content"))
	if report.WastedBytes != wantWasted {
		t.Fatalf("wasted bytes = %d, want %d", report.WastedBytes, wantWasted)
	}
}

func TestDuplicateScanAppliesFilters(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Duplicates.MinFileSizeBytes = 10
	inbox := cfg.Paths.MonitorFolders[0]

	// All three pairs share content but each pair is excluded by a filter.
	testsupport.WriteFileContent(t, filepath.Join(inbox, "tiny1.txt"), []byte("x"))
	testsupport.WriteFileContent(t, filepath.Join(inbox, "tiny2.txt"), []byte("x"))
	testsupport.WriteFileContent(t, filepath.Join(inbox, ".hidden1"), []byte("hidden duplicate"))
	testsupport.WriteFileContent(t, filepath.Join(inbox, ".hidden2"), []byte("hidden duplicate"))
	testsupport.WriteFileContent(t, filepath.Join(inbox, "Thumbs.db"), []byte("system artifact!"))
	testsupport.WriteFileContent(t, filepath.Join(inbox, "thumbs.db"+".bak"), []byte("kept artifact!!!"))

	scanner := strategy.NewDuplicateDetection(cfg, transfer.NewResolver(logging.NewNop()), nil, logging.NewNop())
	_, groups, err := scanner.Scan(context.Background())
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	if len(groups) != 0 {
		t.Fatalf("filters should exclude all candidates, got %d groups", len(groups))
	}
}

func TestDuplicateScanMaxSizeWindow(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Duplicates.MinFileSizeBytes = 1
	cfg.Duplicates.MaxFileSizeBytes = 8
	inbox := cfg.Paths.MonitorFolders[0]

	testsupport.WriteFileContent(t, filepath.Join(inbox, "big1.bin"), []byte("way over the limit"))
	testsupport.WriteFileContent(t, filepath.Join(inbox, "big2.bin"), []byte("way over the limit"))

	scanner := strategy.NewDuplicateDetection(cfg, transfer.NewResolver(logging.NewNop()), nil, logging.NewNop())
	_, groups, err := scanner.Scan(context.Background())
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	if len(groups) != 0 {
		t.Fatalf("oversized files should be excluded, got %d groups", len(groups))
	}
}

func TestDuplicateRemediationKeepsNewest(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Duplicates.AutoRemove = true
	cfg.Duplicates.KeepStrategy = "NEWEST"
	inbox := cfg.Paths.MonitorFolders[0]

	older := filepath.Join(inbox, "older.txt")
	newer := filepath.Join(inbox, "newer.txt")
	testsupport.WriteFileContent(t, older, []byte("duplicate payload"))
	testsupport.WriteFileContent(t, newer, []byte("duplicate payload"))

	past := time.Now().Add(-48 * time.Hour)
	if err := os.Chtimes(older, past, past); err != nil {
		t.Fatalf("chtimes: %v", err)
	}

	scanner := strategy.NewDuplicateDetection(cfg, transfer.NewResolver(logging.NewNop()), nil, logging.NewNop())
	report, _, err := scanner.Scan(context.Background())
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}

	if _, err := os.Stat(newer); err != nil {
		t.Fatalf("newest member must survive: %v", err)
	}
	if _, err := os.Stat(older); !os.IsNotExist(err) {
		t.Fatal("older member should have been removed")
	}
	if report.RemovedFiles != 1 {
		t.Fatalf("removed files = %d, want 1", report.RemovedFiles)
	}
}

func TestDuplicateRemediationKeepsOldest(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Duplicates.AutoRemove = true
	cfg.Duplicates.KeepStrategy = "OLDEST"
	inbox := cfg.Paths.MonitorFolders[0]

	older := filepath.Join(inbox, "older.txt")
	newer := filepath.Join(inbox, "newer.txt")
	testsupport.WriteFileContent(t, older, []byte("duplicate payload"))
	testsupport.WriteFileContent(t, newer, []byte("duplicate payload"))

	past := time.Now().Add(-48 * time.Hour)
	if err := os.Chtimes(older, past, past); err != nil {
		t.Fatalf("chtimes: %v", err)
	}

	scanner := strategy.NewDuplicateDetection(cfg, transfer.NewResolver(logging.NewNop()), nil, logging.NewNop())
	if _, _, err := scanner.Scan(context.Background()); err != nil {
		t.Fatalf("Scan failed: %v", err)
	}

	if _, err := os.Stat(older); err != nil {
		t.Fatalf("oldest member must survive: %v", err)
	}
	if _, err := os.Stat(newer); !os.IsNotExist(err) {
		t.Fatal("newer member should have been removed")
	}
}

func TestDuplicateRemediationManualKeep(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Duplicates.AutoRemove = true
	cfg.Duplicates.KeepStrategy = "MANUAL"
	inbox := cfg.Paths.MonitorFolders[0]

	older := filepath.Join(inbox, "older.txt")
	newer := filepath.Join(inbox, "newer.txt")
	testsupport.WriteFileContent(t, older, []byte("duplicate payload"))
	testsupport.WriteFileContent(t, newer, []byte("duplicate payload"))

	past := time.Now().Add(-48 * time.Hour)
	if err := os.Chtimes(older, past, past); err != nil {
		t.Fatalf("chtimes: %v", err)
	}

	scanner := strategy.NewDuplicateDetection(cfg, transfer.NewResolver(logging.NewNop()), nil, logging.NewNop())
	report, _, err := scanner.Scan(context.Background())
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}

	// MANUAL keeps the first member of the newest-first group ordering.
	if _, err := os.Stat(newer); err != nil {
		t.Fatalf("first-listed member must survive: %v", err)
	}
	if _, err := os.Stat(older); !os.IsNotExist(err) {
		t.Fatal("remaining member should have been removed")
	}
	if report.RemovedFiles != 1 {
		t.Fatalf("removed files = %d, want 1", report.RemovedFiles)
	}
}

func TestDuplicateRemediationQuarantines(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Duplicates.AutoRemove = true
	cfg.Duplicates.KeepStrategy = "NEWEST"
	cfg.Duplicates.Destination = filepath.Join(testsupport.BaseDir(cfg), "quarantine")
	inbox := cfg.Paths.MonitorFolders[0]

	older := filepath.Join(inbox, "copy.txt")
	newer := filepath.Join(inbox, "original.txt")
	testsupport.WriteFileContent(t, older, []byte("duplicate payload"))
	testsupport.WriteFileContent(t, newer, []byte("duplicate payload"))

	past := time.Now().Add(-48 * time.Hour)
	if err := os.Chtimes(older, past, past); err != nil {
		t.Fatalf("chtimes: %v", err)
	}

	scanner := strategy.NewDuplicateDetection(cfg, transfer.NewResolver(logging.NewNop()), nil, logging.NewNop())
	report, _, err := scanner.Scan(context.Background())
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}

	if _, err := os.Stat(filepath.Join(cfg.Duplicates.Destination, "copy.txt")); err != nil {
		t.Fatalf("loser should be quarantined: %v", err)
	}
	if report.QuarantinedFiles != 1 {
		t.Fatalf("quarantined files = %d, want 1", report.QuarantinedFiles)
	}
	if report.RemovedFiles != 0 {
		t.Fatalf("removed files = %d, want 0", report.RemovedFiles)
	}
}

func TestDuplicateScanIdempotentAfterRemediation(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Duplicates.AutoRemove = true
	inbox := cfg.Paths.MonitorFolders[0]

	testsupport.WriteFileContent(t, filepath.Join(inbox, "one.txt"), []byte("payload"))
	testsupport.WriteFileContent(t, filepath.Join(inbox, "two.txt"), []byte("payload"))

	scanner := strategy.NewDuplicateDetection(cfg, transfer.NewResolver(logging.NewNop()), nil, logging.NewNop())
	if _, _, err := scanner.Scan(context.Background()); err != nil {
		t.Fatalf("first Scan failed: %v", err)
	}

	report, groups, err := scanner.Scan(context.Background())
	if err != nil {
		t.Fatalf("second Scan failed: %v", err)
	}
	if len(groups) != 0 {
		t.Fatalf("second scan should find no duplicates, got %d groups", len(groups))
	}
	if report.DuplicateGroups != 0 {
		t.Fatalf("second report should be clean, got %d groups", report.DuplicateGroups)
	}
}

type captureRecorder struct {
	reports []strategy.Report
}

func (c *captureRecorder) RecordScan(_ context.Context, report strategy.Report) error {
	c.reports = append(c.reports, report)
	return nil
}

func TestExecuteRecordsReport(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	inbox := cfg.Paths.MonitorFolders[0]
	testsupport.WriteFileContent(t, filepath.Join(inbox, "a.txt"), []byte("content"))

	recorder := &captureRecorder{}
	scanner := strategy.NewDuplicateDetection(cfg, transfer.NewResolver(logging.NewNop()), recorder, logging.NewNop())
	if err := scanner.Execute(context.Background()); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	if len(recorder.reports) != 1 {
		t.Fatalf("expected 1 recorded report, got %d", len(recorder.reports))
	}
	report := recorder.reports[0]
	if report.ID == "" {
		t.Fatal("report ID must be assigned")
	}
	if report.FilesScanned != 1 {
		t.Fatalf("files scanned = %d, want 1", report.FilesScanned)
	}
	if report.FinishedAt.Before(report.StartedAt) {
		t.Fatal("finished before started")
	}
}
