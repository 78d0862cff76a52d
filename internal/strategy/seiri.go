package strategy

import (
	"context"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"kirei/internal/config"
	"kirei/internal/fileutil"
	"kirei/internal/logging"
	"kirei/internal/transfer"
)

// AgeBasedMove relocates files that have not been modified for the
// configured number of days. Moved files land in a destination subfolder
// named after the upper-cased extension; files without an extension go to
// the destination root.
type AgeBasedMove struct {
	folders     []string
	days        int
	destination string
	resolver    *transfer.Resolver
	logger      *slog.Logger
	now         func() time.Time
}

// NewAgeBasedMove constructs the seiri strategy from configuration.
func NewAgeBasedMove(cfg *config.Config, resolver *transfer.Resolver, logger *slog.Logger) *AgeBasedMove {
	return &AgeBasedMove{
		folders:     cfg.Paths.MonitorFolders,
		days:        cfg.Seiri.Days,
		destination: cfg.Seiri.Destination,
		resolver:    resolver,
		logger:      logging.NewComponentLogger(logger, "seiri"),
		now:         time.Now,
	}
}

func (s *AgeBasedMove) Name() string { return "age-based-move" }

// Execute walks every monitored folder and moves each regular file whose
// last-modified time is strictly older than the day threshold. A file
// exactly at the boundary stays put.
func (s *AgeBasedMove) Execute(ctx context.Context) error {
	cutoff := s.now().Add(-time.Duration(s.days) * 24 * time.Hour)
	s.logger.Info("checking for stale files",
		logging.Int("days", s.days),
		logging.String("destination", s.destination))

	for _, folder := range s.folders {
		err := filepath.WalkDir(folder, func(path string, entry fs.DirEntry, walkErr error) error {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			if walkErr != nil {
				s.logger.Warn("walk error, entry skipped",
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
				s.logger.Warn("stat failed, file skipped",
					logging.String(logging.FieldPath, path),
					logging.Error(err))
				return nil
			}
			if !info.ModTime().Before(cutoff) {
				return nil
			}

			s.moveStale(path)
			return nil
		})
		if err != nil {
			if ctx.Err() != nil {
				return err
			}
			s.logger.Error("folder walk failed",
				logging.String(logging.FieldPath, folder),
				logging.Error(err))
		}
	}
	return nil
}

func (s *AgeBasedMove) moveStale(path string) {
	dest := s.destination
	if ext := fileutil.Extension(filepath.Base(path)); ext != "" {
		dest = filepath.Join(dest, strings.ToUpper(ext))
	}
	if _, err := s.resolver.Move(path, dest); err != nil {
		s.logger.Error("stale file move failed, file left in place",
			logging.String(logging.FieldPath, path),
			logging.Error(err))
		return
	}
}
