// Package history persists duplicate-scan reports in SQLite. Only the
// aggregate numbers of each scan are stored; individual file paths and
// digests never leave the scan that produced them.
package history

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"kirei/internal/config"
	"kirei/internal/strategy"
)

//go:embed schema.sql
var schemaSQL string

// schemaVersion is the current schema version. Bump this when the schema
// changes; users then need to delete the history database.
const schemaVersion = 1

// ErrSchemaMismatch indicates the database schema version doesn't match
// the expected version.
var ErrSchemaMismatch = errors.New("schema version mismatch")

// Store manages scan-report persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
)

// Open initializes or connects to the history database under the
// configured log directory.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}
	return OpenPath(filepath.Join(cfg.Paths.LogDir, "history.db"))
}

// OpenPath opens the history database at an explicit location.
func OpenPath(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string { return s.path }

func (s *Store) initSchema(ctx context.Context) error {
	var tableExists int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	).Scan(&tableExists)
	if err != nil {
		return fmt.Errorf("check schema_version table: %w", err)
	}

	if tableExists == 0 {
		return s.createSchema(ctx)
	}

	var version int
	err = s.db.QueryRowContext(ctx, "SELECT version FROM schema_version LIMIT 1").Scan(&version)
	if err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if version != schemaVersion {
		return fmt.Errorf("%w: database has version %d, expected %d (delete %s to rebuild)",
			ErrSchemaMismatch, version, schemaVersion, s.path)
	}
	return nil
}

func (s *Store) createSchema(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "INSERT INTO schema_version (version) VALUES (?)", schemaVersion); err != nil {
		return fmt.Errorf("record schema version: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema: %w", err)
	}
	return nil
}

// RecordScan persists one scan report. It implements strategy.Recorder.
func (s *Store) RecordScan(ctx context.Context, report strategy.Report) error {
	return s.execWithoutResultRetry(ctx, `
		INSERT INTO scan_reports (
			id, started_at, finished_at,
			files_scanned, bytes_scanned,
			duplicate_groups, duplicate_files, wasted_bytes,
			removed_files, quarantined_files
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		report.ID,
		report.StartedAt.UTC().Format(time.RFC3339Nano),
		report.FinishedAt.UTC().Format(time.RFC3339Nano),
		report.FilesScanned,
		report.BytesScanned,
		report.DuplicateGroups,
		report.DuplicateFiles,
		report.WastedBytes,
		report.RemovedFiles,
		report.QuarantinedFiles,
	)
}

// List returns the most recent reports, newest first, capped at limit.
// A non-positive limit returns every stored report.
func (s *Store) List(ctx context.Context, limit int) ([]strategy.Report, error) {
	ctx = ensureContext(ctx)
	query := `
		SELECT id, started_at, finished_at,
			files_scanned, bytes_scanned,
			duplicate_groups, duplicate_files, wasted_bytes,
			removed_files, quarantined_files
		FROM scan_reports
		ORDER BY started_at DESC`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list scan reports: %w", err)
	}
	defer rows.Close()

	var reports []strategy.Report
	for rows.Next() {
		report, err := scanReport(rows)
		if err != nil {
			return nil, err
		}
		reports = append(reports, report)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate scan reports: %w", err)
	}
	return reports, nil
}

// Latest returns the most recent report, or ok=false when the store is
// empty.
func (s *Store) Latest(ctx context.Context) (strategy.Report, bool, error) {
	reports, err := s.List(ctx, 1)
	if err != nil {
		return strategy.Report{}, false, err
	}
	if len(reports) == 0 {
		return strategy.Report{}, false, nil
	}
	return reports[0], true, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanReport(row rowScanner) (strategy.Report, error) {
	var (
		report               strategy.Report
		startedAt, finishedAt string
	)
	err := row.Scan(
		&report.ID, &startedAt, &finishedAt,
		&report.FilesScanned, &report.BytesScanned,
		&report.DuplicateGroups, &report.DuplicateFiles, &report.WastedBytes,
		&report.RemovedFiles, &report.QuarantinedFiles,
	)
	if err != nil {
		return strategy.Report{}, fmt.Errorf("scan report row: %w", err)
	}
	if report.StartedAt, err = time.Parse(time.RFC3339Nano, startedAt); err != nil {
		return strategy.Report{}, fmt.Errorf("parse started_at: %w", err)
	}
	if report.FinishedAt, err = time.Parse(time.RFC3339Nano, finishedAt); err != nil {
		return strategy.Report{}, fmt.Errorf("parse finished_at: %w", err)
	}
	return report, nil
}

func ensureContext(ctx context.Context) context.Context {
	if ctx != nil {
		return ctx
	}
	return context.Background()
}

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code() == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

func retryOnBusy(ctx context.Context, op func() error) error {
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !isSQLiteBusy(lastErr) || attempt == busyRetryAttempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		if next := delay * 2; next <= busyRetryMaxBackoff {
			delay = next
		}
	}
	return lastErr
}

func (s *Store) execWithoutResultRetry(ctx context.Context, query string, args ...any) error {
	ctx = ensureContext(ctx)
	return retryOnBusy(ctx, func() error {
		_, err := s.db.ExecContext(ctx, query, args...)
		return err
	})
}
