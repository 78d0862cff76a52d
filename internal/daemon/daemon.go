// Package daemon wires the watcher and the task scheduler into a single
// lifecycle with flock-based locking to prevent multiple instances from
// fighting over the same folders.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/gofrs/flock"

	"kirei/internal/config"
	"kirei/internal/history"
	"kirei/internal/logging"
	"kirei/internal/scheduler"
	"kirei/internal/strategy"
	"kirei/internal/transfer"
	"kirei/internal/watcher"
)

// Daemon coordinates the background services and enforces single-instance
// execution.
type Daemon struct {
	cfg    *config.Config
	logger *slog.Logger
	store  *history.Store

	sched   *scheduler.Scheduler
	watch   *watcher.Watcher
	logPath string

	lockPath string
	lock     *flock.Flock

	running atomic.Bool

	// mu guards cancel: Run installs and clears it while Stop may read it
	// from another goroutine.
	mu     sync.Mutex
	cancel context.CancelFunc
}

// Status represents daemon runtime information.
type Status struct {
	Running       bool
	WatcherActive bool
	LockFilePath  string
	HistoryDBPath string
	LogPath       string
}

// New constructs a daemon with initialized dependencies. store may be nil
// when history persistence is disabled.
func New(cfg *config.Config, store *history.Store, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || logger == nil {
		return nil, errors.New("daemon requires config and logger")
	}

	d := &Daemon{
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "daemon"),
		store:    store,
		logPath:  filepath.Join(cfg.Paths.LogDir, "kirei.log"),
		lockPath: LockPath(cfg),
	}
	d.lock = flock.New(d.lockPath)

	resolver := transfer.NewResolver(logger)

	d.sched = scheduler.New(logger)
	if err := registerJobs(d.sched, cfg, resolver, recorderFor(cfg, store), logger); err != nil {
		return nil, err
	}

	if cfg.Seiton.Enabled {
		mover := strategy.NewExtensionMove(cfg, resolver, logger)
		d.watch = watcher.New(cfg.Paths.MonitorFolders, cfg.Seiton.SettleDelay(), mover, logger)
	}
	return d, nil
}

// LockPath returns the lock file location for the given configuration.
func LockPath(cfg *config.Config) string {
	return filepath.Join(cfg.Paths.LogDir, "kirei.lock")
}

func recorderFor(cfg *config.Config, store *history.Store) strategy.Recorder {
	if !cfg.History.Enabled || store == nil {
		return nil
	}
	return store
}

// registerJobs adds one scheduler job per enabled task family.
func registerJobs(sched *scheduler.Scheduler, cfg *config.Config, resolver *transfer.Resolver, recorder strategy.Recorder, logger *slog.Logger) error {
	if cfg.Seiri.Enabled {
		job := jobFor(cfg.Seiri.Schedule, "seiri", strategy.NewAgeBasedMove(cfg, resolver, logger))
		if err := sched.Add(job); err != nil {
			return err
		}
	}
	if cfg.Seiso.Enabled {
		job := jobFor(cfg.Seiso.Schedule, "seiso", strategy.NewTempFolderCleanup(cfg, logger))
		if err := sched.Add(job); err != nil {
			return err
		}
	}
	if cfg.Duplicates.Enabled {
		job := jobFor(cfg.Duplicates.Schedule, "duplicates", strategy.NewDuplicateDetection(cfg, resolver, recorder, logger))
		if err := sched.Add(job); err != nil {
			return err
		}
	}
	return nil
}

func jobFor(sched config.Schedule, family string, strategies ...strategy.Scheduled) scheduler.Job {
	return scheduler.Job{
		Family:       family,
		InitialDelay: sched.InitialDelayDuration(),
		Period:       sched.PeriodDuration(),
		Strategies:   strategies,
	}
}

// Run acquires the instance lock, starts the scheduler, and blocks serving
// watcher events until the context is cancelled. When real-time watching
// is disabled it blocks on the context alone.
func (d *Daemon) Run(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another kirei instance is already running")
	}
	defer func() {
		if err := d.lock.Unlock(); err != nil {
			d.logger.Warn("failed to release instance lock", logging.Error(err))
		}
	}()

	runCtx, cancel := context.WithCancel(ctx)
	d.mu.Lock()
	d.cancel = cancel
	d.mu.Unlock()
	d.running.Store(true)
	defer func() {
		d.running.Store(false)
		d.mu.Lock()
		d.cancel = nil
		d.mu.Unlock()
	}()

	if err := d.sched.Start(runCtx); err != nil {
		cancel()
		return fmt.Errorf("start scheduler: %w", err)
	}
	defer d.sched.Stop()

	d.logger.Info("kirei daemon started", logging.String("lock", d.lockPath))

	if d.watch == nil {
		d.logger.Info("real-time organization disabled, running scheduled tasks only")
		<-runCtx.Done()
		return runCtx.Err()
	}

	return d.watch.Start(runCtx)
}

// Stop requests shutdown of a running daemon. Safe to call multiple times.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}
	if d.watch != nil {
		d.watch.Stop()
	}
	d.mu.Lock()
	cancel := d.cancel
	d.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	d.logger.Info("kirei daemon stopping")
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	if d.store != nil {
		return d.store.Close()
	}
	return nil
}

// LogPath returns the path to the daemon log file.
func (d *Daemon) LogPath() string {
	return d.logPath
}

// Status returns the current daemon status.
func (d *Daemon) Status() Status {
	return Status{
		Running:       d.running.Load(),
		WatcherActive: d.watch != nil,
		LockFilePath:  d.lockPath,
		HistoryDBPath: filepath.Join(d.cfg.Paths.LogDir, "history.db"),
		LogPath:       d.logPath,
	}
}
