package history_test

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"kirei/internal/history"
	"kirei/internal/strategy"
	"kirei/internal/testsupport"
)

func sampleReport(id string, started time.Time) strategy.Report {
	return strategy.Report{
		ID:               id,
		StartedAt:        started,
		FinishedAt:       started.Add(2 * time.Second),
		FilesScanned:     120,
		BytesScanned:     1 << 20,
		DuplicateGroups:  3,
		DuplicateFiles:   7,
		WastedBytes:      4096,
		RemovedFiles:     2,
		QuarantinedFiles: 2,
	}
}

func TestRecordScanRoundTrip(t *testing.T) {
	store := testsupport.MustOpenStore(t, filepath.Join(t.TempDir(), "history.db"))
	ctx := context.Background()

	want := sampleReport("scan-1", time.Now().UTC().Truncate(time.Millisecond))
	if err := store.RecordScan(ctx, want); err != nil {
		t.Fatalf("RecordScan failed: %v", err)
	}

	got, ok, err := store.Latest(ctx)
	if err != nil {
		t.Fatalf("Latest failed: %v", err)
	}
	if !ok {
		t.Fatal("expected a stored report")
	}
	if got.ID != want.ID || got.FilesScanned != want.FilesScanned || got.WastedBytes != want.WastedBytes {
		t.Fatalf("round trip mismatch: %#v", got)
	}
	if !got.StartedAt.Equal(want.StartedAt) {
		t.Fatalf("started at %v, want %v", got.StartedAt, want.StartedAt)
	}
}

func TestListOrdersNewestFirst(t *testing.T) {
	store := testsupport.MustOpenStore(t, filepath.Join(t.TempDir(), "history.db"))
	ctx := context.Background()

	base := time.Now().UTC()
	for i := 0; i < 5; i++ {
		report := sampleReport(fmt.Sprintf("scan-%d", i), base.Add(time.Duration(i)*time.Minute))
		if err := store.RecordScan(ctx, report); err != nil {
			t.Fatalf("RecordScan %d failed: %v", i, err)
		}
	}

	reports, err := store.List(ctx, 3)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(reports) != 3 {
		t.Fatalf("expected 3 reports, got %d", len(reports))
	}
	if reports[0].ID != "scan-4" || reports[2].ID != "scan-2" {
		t.Fatalf("unexpected ordering: %s, %s, %s", reports[0].ID, reports[1].ID, reports[2].ID)
	}

	all, err := store.List(ctx, 0)
	if err != nil {
		t.Fatalf("List all failed: %v", err)
	}
	if len(all) != 5 {
		t.Fatalf("expected 5 reports, got %d", len(all))
	}
}

func TestLatestEmptyStore(t *testing.T) {
	store := testsupport.MustOpenStore(t, filepath.Join(t.TempDir(), "history.db"))

	_, ok, err := store.Latest(context.Background())
	if err != nil {
		t.Fatalf("Latest failed: %v", err)
	}
	if ok {
		t.Fatal("empty store should report no latest scan")
	}
}

func TestReopenKeepsData(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "history.db")

	first, err := history.OpenPath(dbPath)
	if err != nil {
		t.Fatalf("OpenPath failed: %v", err)
	}
	if err := first.RecordScan(context.Background(), sampleReport("persisted", time.Now().UTC())); err != nil {
		t.Fatalf("RecordScan failed: %v", err)
	}
	if err := first.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	second := testsupport.MustOpenStore(t, dbPath)
	reports, err := second.List(context.Background(), 0)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(reports) != 1 || reports[0].ID != "persisted" {
		t.Fatalf("data lost across reopen: %#v", reports)
	}
}
