package config

import (
	"errors"
	"fmt"
	"os"
)

// Validate ensures the configuration is usable. The engine assumes it never
// receives an invalid config, so every structural check lives here.
func (c *Config) Validate() error {
	if err := c.validateMonitorFolders(); err != nil {
		return err
	}
	if err := c.validateSeiton(); err != nil {
		return err
	}
	if err := c.validateSeiri(); err != nil {
		return err
	}
	if err := c.validateSeiso(); err != nil {
		return err
	}
	if err := c.validateDuplicates(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateMonitorFolders() error {
	if len(c.Paths.MonitorFolders) == 0 {
		return errors.New("paths.monitor_folders must not be empty")
	}
	for _, folder := range c.Paths.MonitorFolders {
		info, err := os.Stat(folder)
		if err != nil {
			return fmt.Errorf("paths.monitor_folders entry %q does not exist: %w", folder, err)
		}
		if !info.IsDir() {
			return fmt.Errorf("paths.monitor_folders entry %q is not a directory", folder)
		}
	}
	return nil
}

func (c *Config) validateSeiton() error {
	if !c.Seiton.Enabled {
		return nil
	}
	for _, rule := range c.Seiton.Rules {
		if rule.Name == "" {
			return errors.New("seiton rule name must be set")
		}
		if rule.Destination == "" {
			return fmt.Errorf("seiton rule %q has no destination", rule.Name)
		}
		if len(rule.Extensions) == 0 {
			return fmt.Errorf("seiton rule %q has no extensions", rule.Name)
		}
	}
	return nil
}

func (c *Config) validateSeiri() error {
	if !c.Seiri.Enabled {
		return nil
	}
	if err := validateSchedule("seiri", c.Seiri.Schedule); err != nil {
		return err
	}
	if c.Seiri.Days <= 0 {
		return errors.New("seiri.days must be positive when seiri is enabled")
	}
	if c.Seiri.Destination == "" {
		return errors.New("seiri.destination must be set when seiri is enabled")
	}
	return nil
}

func (c *Config) validateSeiso() error {
	if !c.Seiso.Enabled {
		return nil
	}
	if err := validateSchedule("seiso", c.Seiso.Schedule); err != nil {
		return err
	}
	if len(c.Seiso.Folders) == 0 {
		return errors.New("seiso.folders must not be empty when seiso is enabled")
	}
	return nil
}

func (c *Config) validateDuplicates() error {
	d := c.Duplicates
	if !d.Enabled {
		return nil
	}
	if err := validateSchedule("duplicates", d.Schedule); err != nil {
		return err
	}
	switch d.KeepStrategy {
	case "NEWEST", "OLDEST", "MANUAL":
	default:
		return fmt.Errorf("duplicates.keep_strategy %q must be NEWEST, OLDEST, or MANUAL", d.KeepStrategy)
	}
	if d.MinFileSizeBytes < 0 {
		return errors.New("duplicates.min_file_size_bytes must not be negative")
	}
	if d.MaxFileSizeBytes < 0 {
		return errors.New("duplicates.max_file_size_bytes must not be negative")
	}
	if d.MaxFileSizeBytes > 0 && d.MinFileSizeBytes > d.MaxFileSizeBytes {
		return errors.New("duplicates.min_file_size_bytes must not exceed duplicates.max_file_size_bytes")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format %q must be console or json", c.Logging.Format)
	}
	if c.Logging.RetentionDays < 0 {
		return errors.New("logging.retention_days must not be negative")
	}
	return nil
}

func validateSchedule(section string, s Schedule) error {
	if _, ok := UnitDuration(s.TimeUnit); !ok {
		return fmt.Errorf("%s.time_unit %q must be seconds, minutes, hours, or days", section, s.TimeUnit)
	}
	if s.Period <= 0 {
		return fmt.Errorf("%s.period must be positive when %s is enabled", section, section)
	}
	if s.InitialDelay < 0 {
		return fmt.Errorf("%s.initial_delay must not be negative", section)
	}
	return nil
}
