package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Schedule holds the timing shared by every scheduled task family.
type Schedule struct {
	Enabled      bool   `toml:"enabled"`
	InitialDelay int64  `toml:"initial_delay"`
	Period       int64  `toml:"period"`
	TimeUnit     string `toml:"time_unit"`
}

// InitialDelayDuration resolves the initial delay against the time unit.
func (s Schedule) InitialDelayDuration() time.Duration {
	unit, _ := UnitDuration(s.TimeUnit)
	return time.Duration(s.InitialDelay) * unit
}

// PeriodDuration resolves the period against the time unit.
func (s Schedule) PeriodDuration() time.Duration {
	unit, _ := UnitDuration(s.TimeUnit)
	return time.Duration(s.Period) * unit
}

// UnitDuration maps a configured time unit name to its base duration.
func UnitDuration(unit string) (time.Duration, bool) {
	switch strings.ToLower(strings.TrimSpace(unit)) {
	case "seconds":
		return time.Second, true
	case "minutes":
		return time.Minute, true
	case "hours":
		return time.Hour, true
	case "days":
		return 24 * time.Hour, true
	default:
		return time.Second, false
	}
}

// Paths contains directory configuration.
type Paths struct {
	LogDir         string   `toml:"log_dir"`
	MonitorFolders []string `toml:"monitor_folders"`
}

// SeitonRule routes newly created files by extension to a destination folder.
// Rules are evaluated in configured order; the first match wins.
type SeitonRule struct {
	Name        string   `toml:"name"`
	Extensions  []string `toml:"extensions"`
	Destination string   `toml:"destination"`
}

// HasExtension reports whether the rule covers the given lower-case extension.
func (r SeitonRule) HasExtension(ext string) bool {
	for _, candidate := range r.Extensions {
		if candidate == ext {
			return true
		}
	}
	return false
}

// Seiton contains configuration for real-time organization of new files.
type Seiton struct {
	Enabled       bool         `toml:"enabled"`
	SettleDelayMS int          `toml:"settle_delay_ms"`
	Rules         []SeitonRule `toml:"rules"`
}

// SettleDelay returns the wait applied after a creation event before the
// file is inspected, giving the writer time to finish flushing.
func (s Seiton) SettleDelay() time.Duration {
	return time.Duration(s.SettleDelayMS) * time.Millisecond
}

// Seiri contains configuration for relocating stale files.
type Seiri struct {
	Schedule
	Days        int    `toml:"days"`
	Destination string `toml:"destination"`
}

// Seiso contains configuration for purging temporary folders.
type Seiso struct {
	Schedule
	Folders []string `toml:"folders"`
}

// Duplicates contains configuration for content-hash duplicate detection.
type Duplicates struct {
	Schedule
	MinFileSizeBytes int64  `toml:"min_file_size_bytes"`
	MaxFileSizeBytes int64  `toml:"max_file_size_bytes"`
	AutoRemove       bool   `toml:"auto_remove"`
	KeepStrategy     string `toml:"keep_strategy"`
	Destination      string `toml:"destination"`
}

// History contains configuration for the scan report store.
type History struct {
	Enabled bool `toml:"enabled"`
}

// Logging contains configuration for log output. RetentionDays bounds how
// long per-run daemon logs are kept; 0 disables pruning.
type Logging struct {
	Format        string `toml:"format"`
	Level         string `toml:"level"`
	RetentionDays int    `toml:"retention_days"`
}

// Config encapsulates all configuration values for kirei.
//
// Configuration sections by subsystem:
//   - Paths: log directory and the monitored folders
//   - Seiton: real-time extension routing rules
//   - Seiri: scheduled relocation of files unmodified for N days
//   - Seiso: scheduled purge of temporary folders
//   - Duplicates: scheduled content-hash duplicate detection
//   - History: persistence of scan reports
//   - Logging: log format and level
type Config struct {
	Paths      Paths      `toml:"paths"`
	Seiton     Seiton     `toml:"seiton"`
	Seiri      Seiri      `toml:"seiri"`
	Seiso      Seiso      `toml:"seiso"`
	Duplicates Duplicates `toml:"duplicates"`
	History    History    `toml:"history"`
	Logging    Logging    `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/kirei/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("kirei.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the directories the daemon needs at runtime.
// Rule destinations are created lazily by the transfer resolver, so only
// the log directory is required up front.
func (c *Config) EnsureDirectories() error {
	if err := os.MkdirAll(c.Paths.LogDir, 0o755); err != nil {
		return fmt.Errorf("create directory %q: %w", c.Paths.LogDir, err)
	}
	return nil
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
