// Package watcher turns filesystem create events into strategy
// invocations. Watching is non-recursive: only the top level of each
// monitored folder is observed, files created in subdirectories are not
// seen. Renames and moves into a watched folder surface as create events
// on the platforms fsnotify supports, so downloads that finish via an
// atomic rename are still picked up.
package watcher

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"kirei/internal/logging"
)

// Handler receives the path of a settled, newly created file.
type Handler interface {
	Apply(path string)
}

// Watcher monitors the configured folders for file creation and hands
// each settled file to the handler.
type Watcher struct {
	folders     []string
	settleDelay time.Duration
	handler     Handler
	logger      *slog.Logger

	mu      sync.Mutex
	fsw     *fsnotify.Watcher
	stopped bool
	done    chan struct{}

	// pending tracks in-flight settle timers so Stop can wait for them.
	pending sync.WaitGroup
}

// New constructs a watcher over the given folders. settleDelay is the
// quiet period between the create event and the handler invocation,
// giving the writing process time to finish.
func New(folders []string, settleDelay time.Duration, handler Handler, logger *slog.Logger) *Watcher {
	return &Watcher{
		folders:     folders,
		settleDelay: settleDelay,
		handler:     handler,
		logger:      logging.NewComponentLogger(logger, "watcher"),
		done:        make(chan struct{}),
	}
}

// Start registers the monitored folders and blocks processing events until
// the context is cancelled or Stop is called. A folder that cannot be
// registered is logged and skipped; Start fails only when no folder could
// be registered at all.
func (w *Watcher) Start(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}

	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		fsw.Close()
		return errors.New("watcher already stopped")
	}
	w.fsw = fsw
	w.mu.Unlock()

	registered := 0
	for _, folder := range w.folders {
		if err := fsw.Add(folder); err != nil {
			w.logger.Warn("folder not watchable, skipping",
				logging.String(logging.FieldPath, folder),
				logging.Error(err))
			continue
		}
		w.logger.Info("watching folder", logging.String(logging.FieldPath, folder))
		registered++
	}
	if registered == 0 {
		w.Stop()
		return errors.New("no watchable folders")
	}

	defer w.pending.Wait()
	for {
		select {
		case <-ctx.Done():
			w.Stop()
			return ctx.Err()
		case <-w.done:
			return nil
		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if event.Has(fsnotify.Create) {
				w.schedule(event.Name)
			}
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			if errors.Is(err, fsnotify.ErrEventOverflow) {
				// Events were dropped by the kernel queue. Already-present
				// files are left for the scheduled strategies to pick up.
				w.logger.Warn("event queue overflowed, some creations were missed")
				continue
			}
			w.logger.Warn("watch error", logging.Error(err))
		}
	}
}

// Stop ends event processing. Safe to call multiple times and before
// Start.
func (w *Watcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stopped {
		return
	}
	w.stopped = true
	close(w.done)
	if w.fsw != nil {
		if err := w.fsw.Close(); err != nil {
			w.logger.Warn("watcher close failed", logging.Error(err))
		}
	}
}

// schedule arms the settle timer for a created path. The handler runs on
// its own goroutine after the delay so a slow move never blocks event
// intake.
func (w *Watcher) schedule(path string) {
	w.logger.Debug("creation observed", logging.String(logging.FieldPath, path))

	w.pending.Add(1)
	go func() {
		defer w.pending.Done()

		timer := time.NewTimer(w.settleDelay)
		defer timer.Stop()
		select {
		case <-w.done:
			return
		case <-timer.C:
		}

		info, err := os.Stat(path)
		if err != nil {
			// Vanished during the settle window, nothing to do.
			w.logger.Debug("created path vanished before settling",
				logging.String(logging.FieldPath, path))
			return
		}
		if !info.Mode().IsRegular() {
			return
		}
		w.handler.Apply(path)
	}()
}
