package strategy

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"kirei/internal/config"
	"kirei/internal/logging"
)

// TempFolderCleanup empties the configured temporary folders. Entries are
// deleted deepest-first so files go before their parent directories; the
// designated root folder itself is never deleted.
type TempFolderCleanup struct {
	folders []string
	logger  *slog.Logger
}

// NewTempFolderCleanup constructs the seiso strategy from configuration.
func NewTempFolderCleanup(cfg *config.Config, logger *slog.Logger) *TempFolderCleanup {
	return &TempFolderCleanup{
		folders: cfg.Seiso.Folders,
		logger:  logging.NewComponentLogger(logger, "seiso"),
	}
}

func (s *TempFolderCleanup) Name() string { return "temp-folder-cleanup" }

// Execute purges each configured folder in turn. Per-entry deletion
// failures (file locked, permissions) are logged and do not abort the
// remaining deletions.
func (s *TempFolderCleanup) Execute(ctx context.Context) error {
	for _, root := range s.folders {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if _, err := os.Stat(root); errors.Is(err, os.ErrNotExist) {
			s.logger.Warn("temp folder does not exist",
				logging.String(logging.FieldPath, root))
			continue
		}
		s.cleanFolder(ctx, root)
	}
	return nil
}

func (s *TempFolderCleanup) cleanFolder(ctx context.Context, root string) {
	var entries []string
	err := filepath.WalkDir(root, func(path string, entry fs.DirEntry, walkErr error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if walkErr != nil {
			s.logger.Warn("walk error during cleanup",
				logging.String(logging.FieldPath, path),
				logging.Error(walkErr))
			return nil
		}
		if path != root {
			entries = append(entries, path)
		}
		return nil
	})
	if err != nil {
		s.logger.Error("temp folder walk failed",
			logging.String(logging.FieldPath, root),
			logging.Error(err))
		return
	}

	// Reverse lexical order puts every entry after its parent directory,
	// so deletion always runs deepest-first.
	sort.Sort(sort.Reverse(sort.StringSlice(entries)))

	deleted := 0
	for _, path := range entries {
		if err := os.Remove(path); err != nil {
			s.logger.Warn("delete failed, entry may be in use",
				logging.String(logging.FieldPath, path),
				logging.Error(err))
			continue
		}
		deleted++
	}
	s.logger.Info("temp folder cleaned",
		logging.String(logging.FieldPath, root),
		logging.Int("deleted", deleted))
}
