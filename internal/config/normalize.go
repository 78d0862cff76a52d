package config

import (
	"fmt"
	"strings"
)

// normalize expands path fields, canonicalizes extensions and enum values,
// and fills gaps left by partial configuration files.
func (c *Config) normalize() error {
	var err error
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return err
	}
	if c.Paths.MonitorFolders, err = expandPaths(c.Paths.MonitorFolders); err != nil {
		return err
	}

	if c.Seiton.SettleDelayMS <= 0 {
		c.Seiton.SettleDelayMS = defaultSettleDelayMS
	}
	for i := range c.Seiton.Rules {
		rule := &c.Seiton.Rules[i]
		rule.Name = strings.TrimSpace(rule.Name)
		if rule.Destination, err = expandPath(strings.TrimSpace(rule.Destination)); err != nil {
			return err
		}
		rule.Extensions = normalizeExtensions(rule.Extensions)
	}

	if c.Seiri.Destination, err = expandPath(strings.TrimSpace(c.Seiri.Destination)); err != nil {
		return err
	}
	if c.Seiso.Folders, err = expandPaths(c.Seiso.Folders); err != nil {
		return err
	}
	if c.Duplicates.Destination, err = expandPath(strings.TrimSpace(c.Duplicates.Destination)); err != nil {
		return err
	}
	c.Duplicates.KeepStrategy = strings.ToUpper(strings.TrimSpace(c.Duplicates.KeepStrategy))
	if c.Duplicates.KeepStrategy == "" {
		c.Duplicates.KeepStrategy = defaultKeepStrategy
	}

	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}

	return nil
}

func expandPaths(paths []string) ([]string, error) {
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		trimmed := strings.TrimSpace(p)
		if trimmed == "" {
			continue
		}
		expanded, err := expandPath(trimmed)
		if err != nil {
			return nil, fmt.Errorf("expand path %q: %w", p, err)
		}
		out = append(out, expanded)
	}
	return out, nil
}

// normalizeExtensions lower-cases extensions and strips a leading dot so
// "PDF" and ".pdf" both match files resolved to "pdf".
func normalizeExtensions(extensions []string) []string {
	out := make([]string, 0, len(extensions))
	for _, ext := range extensions {
		cleaned := strings.ToLower(strings.TrimSpace(ext))
		cleaned = strings.TrimPrefix(cleaned, ".")
		if cleaned == "" {
			continue
		}
		out = append(out, cleaned)
	}
	return out
}
