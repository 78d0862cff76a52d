// Package strategy implements the rule strategies that organize files:
// real-time extension routing (seiton), scheduled relocation of stale files
// (seiri), temporary folder cleanup (seiso), and content-hash duplicate
// detection.
//
// Scheduled strategies are side-effect producers with a contained blast
// radius: per-file failures are logged and skipped, and an error returned
// from Execute never cancels sibling strategies or future firings — the
// scheduler enforces that isolation.
package strategy

import "context"

// Scheduled is a rule strategy run periodically by the task scheduler over
// the configured directory trees.
type Scheduled interface {
	// Name identifies the strategy in logs and scheduler diagnostics.
	Name() string
	// Execute runs one pass. It should honor ctx cancellation promptly and
	// reserve returned errors for pass-level failures; per-item problems
	// are logged and skipped internally.
	Execute(ctx context.Context) error
}
