// Package testsupport provides shared helpers for package tests.
package testsupport

import (
	"path/filepath"
	"testing"

	"kirei/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.MonitorFolders = []string{filepath.Join(base, "inbox")}
	cfgVal.Seiri.Destination = filepath.Join(base, "archive")
	cfgVal.Seiso.Folders = []string{filepath.Join(base, "tmp")}
	cfgVal.Duplicates.Destination = ""

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithMonitorFolders overrides the monitored folder list.
func WithMonitorFolders(folders ...string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Paths.MonitorFolders = folders
	}
}

// WithSeitonRule appends a routing rule to the test config.
func WithSeitonRule(name, destination string, extensions ...string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Seiton.Rules = append(b.cfg.Seiton.Rules, config.SeitonRule{
			Name:        name,
			Extensions:  extensions,
			Destination: destination,
		})
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.LogDir)
}
