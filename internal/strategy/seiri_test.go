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

func TestAgeBasedMoveRelocatesStaleFiles(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Seiri.Days = 30
	inbox := cfg.Paths.MonitorFolders[0]

	stale := filepath.Join(inbox, "old.pdf")
	fresh := filepath.Join(inbox, "new.pdf")
	testsupport.WriteFileContent(t, stale, []byte("old"))
	testsupport.WriteFileContent(t, fresh, []byte("new"))

	past := time.Now().Add(-31 * 24 * time.Hour)
	if err := os.Chtimes(stale, past, past); err != nil {
		t.Fatalf("chtimes: %v", err)
	}

	mover := strategy.NewAgeBasedMove(cfg, transfer.NewResolver(logging.NewNop()), logging.NewNop())
	if err := mover.Execute(context.Background()); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	if _, err := os.Stat(filepath.Join(cfg.Seiri.Destination, "PDF", "old.pdf")); err != nil {
		t.Fatalf("stale file not moved to extension subfolder: %v", err)
	}
	if _, err := os.Stat(fresh); err != nil {
		t.Fatalf("fresh file must stay in place: %v", err)
	}
}

func TestAgeBasedMoveKeepsFilesInsideThreshold(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Seiri.Days = 30
	inbox := cfg.Paths.MonitorFolders[0]

	// Just inside the window: one hour short of the cutoff.
	recent := filepath.Join(inbox, "recent.txt")
	testsupport.WriteFileContent(t, recent, []byte("recent"))
	when := time.Now().Add(-30*24*time.Hour + time.Hour)
	if err := os.Chtimes(recent, when, when); err != nil {
		t.Fatalf("chtimes: %v", err)
	}

	mover := strategy.NewAgeBasedMove(cfg, transfer.NewResolver(logging.NewNop()), logging.NewNop())
	if err := mover.Execute(context.Background()); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	if _, err := os.Stat(recent); err != nil {
		t.Fatalf("file inside threshold must not move: %v", err)
	}
}

func TestAgeBasedMoveExtensionlessToDestinationRoot(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Seiri.Days = 7
	inbox := cfg.Paths.MonitorFolders[0]

	stale := filepath.Join(inbox, "LEGACY")
	testsupport.WriteFileContent(t, stale, []byte("legacy"))
	past := time.Now().Add(-8 * 24 * time.Hour)
	if err := os.Chtimes(stale, past, past); err != nil {
		t.Fatalf("chtimes: %v", err)
	}

	mover := strategy.NewAgeBasedMove(cfg, transfer.NewResolver(logging.NewNop()), logging.NewNop())
	if err := mover.Execute(context.Background()); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	if _, err := os.Stat(filepath.Join(cfg.Seiri.Destination, "LEGACY")); err != nil {
		t.Fatalf("extensionless file should land in destination root: %v", err)
	}
}

func TestAgeBasedMoveToleratesMissingFolder(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithMonitorFolders(
		filepath.Join(t.TempDir(), "does-not-exist"),
	))
	cfg.Seiri.Destination = filepath.Join(t.TempDir(), "archive")

	mover := strategy.NewAgeBasedMove(cfg, transfer.NewResolver(logging.NewNop()), logging.NewNop())
	if err := mover.Execute(context.Background()); err != nil {
		t.Fatalf("missing folder must not fail the run: %v", err)
	}
}
