// Package config loads, normalizes, and validates the kirei configuration.
//
// Configuration is read from a TOML file. The engine treats the resulting
// Config as immutable input: it is loaded once before the watcher and the
// scheduler start and never mutated afterwards, which is what lets both
// execution contexts share it without locking.
package config
