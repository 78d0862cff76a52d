package strategy

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"kirei/internal/config"
	"kirei/internal/fileutil"
	"kirei/internal/logging"
	"kirei/internal/transfer"
)

// KeepStrategy selects which member of a duplicate group survives
// automatic remediation.
type KeepStrategy string

const (
	// KeepNewest preserves the most recently modified member.
	KeepNewest KeepStrategy = "NEWEST"
	// KeepOldest preserves the least recently modified member.
	KeepOldest KeepStrategy = "OLDEST"
	// KeepManual preserves the first member seen and leaves the decision
	// to the operator.
	KeepManual KeepStrategy = "MANUAL"
)

// FileRecord is an immutable snapshot of one scanned file, taken at scan
// time and never refreshed mid-scan.
type FileRecord struct {
	Path    string
	Size    int64
	ModTime time.Time
	Digest  string
}

// DuplicateGroup collects the records sharing one content digest. A group
// of size 1 is not a duplicate and is never reported.
type DuplicateGroup struct {
	Digest string
	// Files is ordered newest-first for reporting.
	Files []FileRecord
}

// WastedBytes is the space that would be reclaimed by keeping one member.
func (g DuplicateGroup) WastedBytes() int64 {
	if len(g.Files) < 2 {
		return 0
	}
	return g.Files[0].Size * int64(len(g.Files)-1)
}

// Report summarizes one duplicate-detection pass.
type Report struct {
	ID               string
	StartedAt        time.Time
	FinishedAt       time.Time
	FilesScanned     int64
	BytesScanned     int64
	DuplicateGroups  int
	DuplicateFiles   int
	WastedBytes      int64
	RemovedFiles     int
	QuarantinedFiles int
}

// Recorder persists scan reports. Implementations must tolerate being
// called from the scheduler worker goroutine.
type Recorder interface {
	RecordScan(ctx context.Context, report Report) error
}

// DuplicateDetection walks the monitored folders, fingerprints file content
// with SHA-256, and groups files by digest. Digest equality is treated as a
// duplicate-candidate signal; no byte-level comparison follows. All scan
// state is local to a single Execute call, so nothing survives between
// scans and no synchronization with other task families is needed.
type DuplicateDetection struct {
	folders  []string
	rules    config.Duplicates
	resolver *transfer.Resolver
	recorder Recorder
	logger   *slog.Logger
	now      func() time.Time
}

// NewDuplicateDetection constructs the duplicate scanner. recorder may be
// nil when report persistence is disabled.
func NewDuplicateDetection(cfg *config.Config, resolver *transfer.Resolver, recorder Recorder, logger *slog.Logger) *DuplicateDetection {
	return &DuplicateDetection{
		folders:  cfg.Paths.MonitorFolders,
		rules:    cfg.Duplicates,
		resolver: resolver,
		recorder: recorder,
		logger:   logging.NewComponentLogger(logger, "duplicates"),
		now:      time.Now,
	}
}

func (s *DuplicateDetection) Name() string { return "duplicate-detection" }

// Execute runs one scan pass and records the report when a recorder is
// configured.
func (s *DuplicateDetection) Execute(ctx context.Context) error {
	report, _, err := s.Scan(ctx)
	if err != nil {
		return err
	}
	if s.recorder != nil {
		if err := s.recorder.RecordScan(ctx, report); err != nil {
			s.logger.Warn("scan report not persisted", logging.Error(err))
		}
	}
	return nil
}

// Scan performs a full pass and returns the report together with the
// duplicate groups, ordered by digest for stable output.
func (s *DuplicateDetection) Scan(ctx context.Context) (Report, []DuplicateGroup, error) {
	report := Report{
		ID:        uuid.NewString(),
		StartedAt: s.now(),
	}
	s.logger.Info("duplicate scan started", logging.String("scan_id", report.ID))

	// Fresh per-scan state: the digest map lives and dies inside this call.
	byDigest := make(map[string][]FileRecord)

	for _, folder := range s.folders {
		if err := s.scanFolder(ctx, folder, byDigest, &report); err != nil {
			return report, nil, err
		}
	}

	groups := collectGroups(byDigest)
	for _, group := range groups {
		report.DuplicateGroups++
		report.DuplicateFiles += len(group.Files)
		report.WastedBytes += group.WastedBytes()

		s.logger.Warn("duplicate group found",
			logging.String("digest", group.Digest),
			logging.Int("members", len(group.Files)),
			logging.String("wasted", humanize.Bytes(uint64(group.WastedBytes()))))
		for _, record := range group.Files {
			s.logger.Warn("duplicate member", logging.String(logging.FieldPath, record.Path))
		}

		if s.rules.AutoRemove {
			s.remediate(group, &report)
		}
	}

	report.FinishedAt = s.now()
	duplicationPct := 0.0
	if report.FilesScanned > 0 {
		duplicationPct = 100 * float64(report.DuplicateFiles) / float64(report.FilesScanned)
	}
	s.logger.Info("duplicate scan finished",
		logging.String("scan_id", report.ID),
		logging.Int64("files_scanned", report.FilesScanned),
		logging.String("bytes_scanned", humanize.Bytes(uint64(report.BytesScanned))),
		logging.Int("duplicate_groups", report.DuplicateGroups),
		logging.Int("duplicate_files", report.DuplicateFiles),
		logging.String("duplication", fmt.Sprintf("%.1f%%", duplicationPct)),
		logging.String("wasted", humanize.Bytes(uint64(report.WastedBytes))),
		logging.Duration("elapsed", report.FinishedAt.Sub(report.StartedAt)))
	return report, groups, nil
}

func (s *DuplicateDetection) scanFolder(ctx context.Context, folder string, byDigest map[string][]FileRecord, report *Report) error {
	err := filepath.WalkDir(folder, func(path string, entry fs.DirEntry, walkErr error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if walkErr != nil {
			s.logger.Debug("walk error, entry skipped",
				logging.String(logging.FieldPath, path),
				logging.Error(walkErr))
			if entry != nil && entry.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if !entry.Type().IsRegular() {
			return nil
		}

		info, err := entry.Info()
		if err != nil {
			s.logger.Debug("stat failed, file skipped",
				logging.String(logging.FieldPath, path),
				logging.Error(err))
			return nil
		}
		if !s.relevantFile(entry.Name(), info.Size()) {
			return nil
		}

		digest, err := fileutil.HashFile(path)
		if err != nil {
			s.logger.Debug("hash failed, file skipped",
				logging.String(logging.FieldPath, path),
				logging.Error(err))
			return nil
		}

		byDigest[digest] = append(byDigest[digest], FileRecord{
			Path:    path,
			Size:    info.Size(),
			ModTime: info.ModTime(),
			Digest:  digest,
		})
		report.FilesScanned++
		report.BytesScanned += info.Size()
		return nil
	})
	if err != nil {
		if ctx.Err() != nil {
			return err
		}
		s.logger.Error("folder scan failed",
			logging.String(logging.FieldPath, folder),
			logging.Error(err))
	}
	return nil
}

// relevantFile applies the size window and filters out system artifacts
// (hidden files, OS metadata) that would otherwise flood the groups.
func (s *DuplicateDetection) relevantFile(name string, size int64) bool {
	if s.rules.MinFileSizeBytes > 0 && size < s.rules.MinFileSizeBytes {
		return false
	}
	if s.rules.MaxFileSizeBytes > 0 && size > s.rules.MaxFileSizeBytes {
		return false
	}
	lower := strings.ToLower(name)
	if lower == "thumbs.db" || strings.HasPrefix(lower, ".") {
		return false
	}
	return true
}

func collectGroups(byDigest map[string][]FileRecord) []DuplicateGroup {
	groups := make([]DuplicateGroup, 0)
	for digest, records := range byDigest {
		if len(records) < 2 {
			continue
		}
		sort.Slice(records, func(i, j int) bool {
			return records[i].ModTime.After(records[j].ModTime)
		})
		groups = append(groups, DuplicateGroup{Digest: digest, Files: records})
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].Digest < groups[j].Digest })
	return groups
}

// remediate keeps one survivor per group and disposes of the rest: moved to
// the quarantine destination when configured, deleted otherwise.
func (s *DuplicateDetection) remediate(group DuplicateGroup, report *Report) {
	keeper := selectKeeper(group.Files, KeepStrategy(s.rules.KeepStrategy))
	for _, record := range group.Files {
		if record.Path == keeper.Path {
			continue
		}
		if s.rules.Destination != "" {
			if _, err := s.resolver.Move(record.Path, s.rules.Destination); err != nil {
				s.logger.Error("duplicate quarantine failed",
					logging.String(logging.FieldPath, record.Path),
					logging.Error(err))
				continue
			}
			report.QuarantinedFiles++
			continue
		}
		if err := os.Remove(record.Path); err != nil {
			s.logger.Error("duplicate removal failed",
				logging.String(logging.FieldPath, record.Path),
				logging.Error(err))
			continue
		}
		s.logger.Info("duplicate removed", logging.String(logging.FieldPath, record.Path))
		report.RemovedFiles++
	}
}

// selectKeeper picks the surviving member. Files arrive newest-first:
// NEWEST takes the head, OLDEST the tail, and MANUAL falls back to the
// first member of the reported ordering.
func selectKeeper(files []FileRecord, strategy KeepStrategy) FileRecord {
	switch strategy {
	case KeepOldest:
		return files[len(files)-1]
	case KeepNewest:
		return files[0]
	default:
		return files[0]
	}
}
