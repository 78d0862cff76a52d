// Package logging constructs the slog loggers used across kirei.
//
// Two output formats are supported: a compact console format for
// interactive use and JSON for machine consumption. Components attach a
// standardized "component" attribute via NewComponentLogger so log lines
// can be traced back to the watcher, the scheduler, or an individual
// strategy.
package logging
