package strategy

import (
	"log/slog"
	"os"

	"kirei/internal/config"
	"kirei/internal/fileutil"
	"kirei/internal/logging"
	"kirei/internal/transfer"
)

// ExtensionMove routes a newly created file to a destination folder based
// on the ordered seiton rule list. The first rule whose extension set
// contains the file's extension wins; later rules are never consulted.
type ExtensionMove struct {
	rules    []config.SeitonRule
	resolver *transfer.Resolver
	logger   *slog.Logger
}

// NewExtensionMove constructs the real-time routing strategy.
func NewExtensionMove(cfg *config.Config, resolver *transfer.Resolver, logger *slog.Logger) *ExtensionMove {
	return &ExtensionMove{
		rules:    cfg.Seiton.Rules,
		resolver: resolver,
		logger:   logging.NewComponentLogger(logger, "seiton"),
	}
}

// Apply evaluates the rule list against a single file. Files without a
// resolvable extension are skipped before any rule is consulted. A failed
// move still terminates dispatch: the matching rule was applied, it just
// did not succeed, and the file stays where it is.
func (s *ExtensionMove) Apply(path string) {
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		s.logger.Debug("file vanished or is not regular, ignoring",
			logging.String(logging.FieldPath, path))
		return
	}

	ext := fileutil.Extension(info.Name())
	if ext == "" {
		s.logger.Debug("file has no extension, skipping",
			logging.String(logging.FieldPath, path))
		return
	}

	for _, rule := range s.rules {
		if !rule.HasExtension(ext) {
			continue
		}
		s.logger.Info("rule matched",
			logging.String("rule", rule.Name),
			logging.String(logging.FieldPath, path))
		if _, err := s.resolver.Move(path, rule.Destination); err != nil {
			s.logger.Error("move failed, file left in place",
				logging.String("rule", rule.Name),
				logging.String(logging.FieldPath, path),
				logging.Error(err))
		}
		return
	}

	s.logger.Debug("no rule for extension",
		logging.String("extension", ext),
		logging.String(logging.FieldPath, path))
}
