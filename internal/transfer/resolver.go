// Package transfer performs single-file relocations with destination
// creation and collision-safe renaming. Every move-capable strategy funnels
// through the Resolver so unique-naming behavior is identical everywhere.
package transfer

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"syscall"

	"kirei/internal/fileutil"
	"kirei/internal/logging"
)

// maxRenameAttempts caps the "_N" suffix search so a pathological
// destination cannot send the resolver into an unbounded loop.
const maxRenameAttempts = 999

// ErrNoUniqueName reports that every candidate name up to the attempt cap
// already exists at the destination.
var ErrNoUniqueName = errors.New("no unique destination name available")

// Resolver moves files into destination folders without overwriting
// existing content.
type Resolver struct {
	logger *slog.Logger
}

// NewResolver constructs a Resolver. A nil logger disables logging.
func NewResolver(logger *slog.Logger) *Resolver {
	return &Resolver{logger: logging.NewComponentLogger(logger, "transfer")}
}

// Move relocates source into destinationFolder, creating the folder (and
// intermediates) if absent. A name collision is resolved by appending _N
// before the extension. On any failure the source file is left untouched at
// its original location; the returned path names the final destination on
// success.
func (r *Resolver) Move(source, destinationFolder string) (string, error) {
	if err := os.MkdirAll(destinationFolder, 0o755); err != nil {
		return "", fmt.Errorf("create destination %q: %w", destinationFolder, err)
	}

	target := filepath.Join(destinationFolder, filepath.Base(source))
	if targetInfo, err := os.Lstat(target); err == nil {
		// The source may already live in the destination folder, e.g. when a
		// destination is nested under a monitored tree. Renaming it to a _N
		// variant of itself would re-suffix it on every pass.
		if sourceInfo, serr := os.Lstat(source); serr == nil && os.SameFile(sourceInfo, targetInfo) {
			r.logger.Debug("file already at destination",
				logging.String(logging.FieldPath, source))
			return target, nil
		}
		unique, err := uniqueName(target)
		if err != nil {
			return "", err
		}
		r.logger.Info("destination name taken, using unique name",
			logging.String(logging.FieldPath, source),
			logging.String("target", filepath.Base(unique)))
		target = unique
	} else if !errors.Is(err, os.ErrNotExist) {
		return "", fmt.Errorf("stat destination %q: %w", target, err)
	}

	if err := rename(source, target); err != nil {
		return "", fmt.Errorf("move %q to %q: %w", source, target, err)
	}

	r.logger.Info("file moved",
		logging.String(logging.FieldPath, source),
		logging.String("target", target))
	return target, nil
}

// uniqueName finds the first free name_N variant of target. The extension
// split mirrors name resolution elsewhere: a lone leading dot is part of
// the base name, not an extension.
func uniqueName(target string) (string, error) {
	dir := filepath.Dir(target)
	name := filepath.Base(target)

	base := name
	ext := ""
	if idx := strings.LastIndexByte(name, '.'); idx > 0 {
		base = name[:idx]
		ext = name[idx:]
	}

	for n := 1; n <= maxRenameAttempts; n++ {
		candidate := filepath.Join(dir, fmt.Sprintf("%s_%d%s", base, n, ext))
		if _, err := os.Lstat(candidate); errors.Is(err, os.ErrNotExist) {
			return candidate, nil
		} else if err != nil {
			return "", fmt.Errorf("stat candidate %q: %w", candidate, err)
		}
	}
	return "", fmt.Errorf("%w for %q", ErrNoUniqueName, target)
}

// rename moves source to target, falling back to copy+remove when the
// destination lives on a different filesystem.
func rename(source, target string) error {
	err := os.Rename(source, target)
	if err == nil {
		return nil
	}

	var linkErr *os.LinkError
	if !errors.As(err, &linkErr) || !errors.Is(linkErr.Err, syscall.EXDEV) {
		return err
	}

	info, statErr := os.Stat(source)
	if statErr != nil {
		return statErr
	}
	if copyErr := fileutil.CopyFileMode(source, target, info.Mode().Perm()); copyErr != nil {
		// Leave the source in place; never keep a partial target.
		_ = os.Remove(target)
		return copyErr
	}
	return os.Remove(source)
}
