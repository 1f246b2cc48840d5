// Package daemon runs the deskflow background process: it owns the run
// coordinator, serves the CLI over a Unix socket, reloads config.yaml on
// change and fires application-triggered workflows.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/msageha/deskflow/internal/engine"
	"github.com/msageha/deskflow/internal/events"
	"github.com/msageha/deskflow/internal/history"
	"github.com/msageha/deskflow/internal/lock"
	"github.com/msageha/deskflow/internal/model"
	"github.com/msageha/deskflow/internal/notify"
	"github.com/msageha/deskflow/internal/platform"
	"github.com/msageha/deskflow/internal/runner"
	"github.com/msageha/deskflow/internal/setup"
	"github.com/msageha/deskflow/internal/uds"
	atomicyaml "github.com/msageha/deskflow/internal/yaml"
)

const pollTimeout = 5 * time.Second

// Revealer selects the targets of a command list in Finder.
// *engine.Engine implements it.
type Revealer interface {
	Reveal(ctx context.Context, cmds []model.Command) error
}

// Daemon is the long-running deskflow process.
type Daemon struct {
	layout    setup.Layout
	logger    *slog.Logger
	version   string
	startedAt time.Time

	mu  sync.RWMutex
	cfg model.Config

	bus      *events.Bus
	runLog   *events.RunLog
	history  *history.Store
	revealer Revealer
	apps     *appWatcher
	coord    *engine.Coordinator
	detach   []func()

	fileLock *lock.FileLock
	server   *uds.Server
	watcher  *fsnotify.Watcher

	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	shutdown sync.Once
}

// deps are the collaborators New builds from the platform layer.
type deps struct {
	exec     engine.Executor
	revealer Revealer
	apps     runner.ApplicationDirectory
	history  *history.Store
	notify   notify.SendFunc
	runLog   *events.RunLog
	bus      *events.Bus
}

// New builds a daemon backed by the macOS capabilities.
func New(layout setup.Layout, cfg model.Config, logger *slog.Logger) (*Daemon, error) {
	if logger == nil {
		logger = slog.Default()
	}
	runLog, err := events.NewRunLog(layout.RunLog(), int64(cfg.Logging.MaxRunLogMB)<<20)
	if err != nil {
		return nil, fmt.Errorf("open run log: %w", err)
	}
	bus := events.NewBus(64)

	caps := platform.New(cfg.Engine.Shell)
	eng, err := NewEngine(cfg.Engine, caps, bus, runLog, logger)
	if err != nil {
		bus.Close()
		_ = runLog.Close()
		return nil, err
	}

	var store *history.Store
	if cfg.History.Enabled {
		if store, err = history.Open(layout.History()); err != nil {
			bus.Close()
			_ = runLog.Close()
			return nil, err
		}
	}

	return newDaemon(layout, cfg, logger, deps{
		exec:     eng,
		revealer: eng,
		apps:     caps.Applications,
		history:  store,
		runLog:   runLog,
		bus:      bus,
	}), nil
}

func newDaemon(layout setup.Layout, cfg model.Config, logger *slog.Logger, dp deps) *Daemon {
	ctx, cancel := context.WithCancel(context.Background())

	d := &Daemon{
		layout:   layout,
		logger:   logger,
		cfg:      cfg,
		bus:      dp.bus,
		runLog:   dp.runLog,
		history:  dp.history,
		revealer: dp.revealer,
		fileLock: lock.NewFileLock(layout.Lock()),
		server:   uds.NewServer(layout.Socket(), logger),
		ctx:      ctx,
		cancel:   cancel,
	}
	if dp.apps != nil {
		d.apps = &appWatcher{dir: dp.apps}
	}

	var rec engine.RunRecorder
	if dp.runLog != nil {
		rec = dp.runLog
	}
	d.coord = engine.NewCoordinator(dp.exec, engine.CoordinatorOptions{
		Base:        ctx,
		SettleDelay: ms(cfg.Engine.SettleDelayMs),
		Bus:         dp.bus,
		Recorder:    rec,
		Logger:      logger,
	})
	d.coord.OnFinish(d.saveLastRun)
	if dp.history != nil {
		d.coord.OnFinish(dp.history.OnFinish(cfg.History.MaxEntries, logger))
	}
	if cfg.Notifications.Enabled {
		bezel := notify.NewBezel(cfg.Notifications.Title, cfg.Notifications.Sound, dp.notify, logger)
		d.detach = append(d.detach, bezel.Attach(dp.bus))
	}

	d.registerHandlers()
	return d
}

// SetVersion sets the version reported by ping. Must be called before Start.
func (d *Daemon) SetVersion(v string) {
	d.version = v
}

// Run starts the daemon and blocks until a signal or a shutdown request
// stopped it.
func (d *Daemon) Run() error {
	if err := d.Start(); err != nil {
		return err
	}
	d.waitSignals()
	return nil
}

// Start takes the daemon lock, starts the socket server and the
// background loops, and returns.
func (d *Daemon) Start() error {
	for _, dir := range []string{d.layout.Base, d.layout.StateDir()} {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return fmt.Errorf("ensure dir %s: %w", dir, err)
		}
	}

	if err := d.fileLock.TryLock(); err != nil {
		d.cleanup()
		if errors.Is(err, lock.ErrLocked) {
			if pid, perr := lock.HolderPID(d.layout.Lock()); perr == nil {
				return fmt.Errorf("daemon already running (pid %d): %w", pid, err)
			}
		}
		return fmt.Errorf("daemon lock: %w", err)
	}
	d.startedAt = time.Now()
	d.logger.Info("daemon_starting", "pid", os.Getpid(), "dir", d.layout.Base)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		d.cleanup()
		return fmt.Errorf("create fsnotify watcher: %w", err)
	}
	d.watcher = watcher
	// watch the directory: editors replace config.yaml by renaming over it
	if err := watcher.Add(d.layout.Base); err != nil {
		d.cleanup()
		return fmt.Errorf("watch %s: %w", d.layout.Base, err)
	}

	if err := d.server.Start(); err != nil {
		d.cleanup()
		return fmt.Errorf("start UDS server: %w", err)
	}
	d.logger.Info("uds_listening", "socket", d.layout.Socket())

	d.wg.Add(2)
	go d.fsnotifyLoop()
	go d.triggerLoop()

	d.logger.Info("daemon_ready", "workflows", len(d.workflows()))
	return nil
}

func (d *Daemon) config() model.Config {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.cfg
}

func (d *Daemon) workflows() []model.Workflow {
	return d.config().Workflows
}

const reloadDebounce = 150 * time.Millisecond

// Reload re-reads config.yaml and swaps in its workflows. Engine,
// notification and history settings apply on the next start. An invalid
// or blank file leaves the current workflows in place.
func (d *Daemon) Reload() (int, error) {
	cfg, err := setup.LoadConfig(d.layout.Config())
	if err != nil {
		return 0, err
	}
	d.mu.Lock()
	d.cfg.Workflows = cfg.Workflows
	d.mu.Unlock()

	n := len(cfg.Workflows)
	d.logger.Info("config_reloaded", "workflows", n)
	d.bus.Publish(events.EventConfigReloaded, map[string]any{"workflows": n})
	return n, nil
}

func (d *Daemon) startWorkflow(wf model.Workflow, mode model.ExecutionMode, trigger string) *engine.Session {
	if mode == "" {
		mode = wf.Execution
	}
	d.logger.Info("workflow_started", "workflow", wf.ID, "trigger", trigger, "mode", mode)
	return d.coord.Start(engine.RunRequest{
		Mode:         mode,
		Commands:     wf.Resolve(),
		WorkflowID:   wf.ID,
		WorkflowName: wf.Name,
		Trigger:      trigger,
	})
}

func (d *Daemon) saveLastRun(s *engine.Session) {
	if err := atomicyaml.AtomicWrite(d.layout.LastRun(), s.Summary()); err != nil {
		d.logger.Warn("last_run_write_failed", "session_id", s.ID, "error", err)
	}
}

// fsnotifyLoop reloads config.yaml once writes to it have been quiet
// for reloadDebounce.
func (d *Daemon) fsnotifyLoop() {
	defer d.wg.Done()

	debounce := time.NewTimer(reloadDebounce)
	debounce.Stop()
	defer debounce.Stop()

	for {
		select {
		case <-d.ctx.Done():
			return
		case event, ok := <-d.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != d.layout.Config() {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
				d.logger.Debug("fsnotify_event", "op", event.Op.String(), "file", event.Name)
				debounce.Reset(reloadDebounce)
			}
		case <-debounce.C:
			if _, err := d.Reload(); err != nil {
				d.logger.Warn("config_reload_failed", "error", err)
			}
		case err, ok := <-d.watcher.Errors:
			if !ok {
				return
			}
			d.logger.Error("fsnotify_error", "error", err)
		}
	}
}

func (d *Daemon) triggerLoop() {
	defer d.wg.Done()
	if d.apps == nil {
		return
	}

	ticker := time.NewTicker(ms(d.config().Triggers.ApplicationPollMs))
	defer ticker.Stop()
	for {
		select {
		case <-d.ctx.Done():
			return
		case <-ticker.C:
			d.pollApplications()
		}
	}
}

// pollApplications fires the workflows bound to application changes
// since the previous poll. Polling is skipped while no enabled workflow
// has an application trigger.
func (d *Daemon) pollApplications() {
	wfs := d.workflows()
	if !hasApplicationTriggers(wfs) {
		d.apps.reset()
		return
	}

	ctx, cancel := context.WithTimeout(d.ctx, pollTimeout)
	defer cancel()
	changes, err := d.apps.poll(ctx)
	if err != nil {
		if d.ctx.Err() == nil {
			d.logger.Debug("application_poll_failed", "error", err)
		}
		return
	}

	for _, ch := range changes {
		d.bus.Publish(events.EventApplicationChanged, map[string]any{
			"bundle_id": ch.BundleID,
			"context":   string(ch.Context),
		})
		for _, wf := range triggeredWorkflows(wfs, ch) {
			d.startWorkflow(wf, "", string(ch.Context))
		}
	}
}

// waitSignals blocks until SIGTERM/SIGINT or a shutdown request, then
// shuts down. A second signal exits immediately.
func (d *Daemon) waitSignals() {
	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)
	defer signal.Stop(sigCh)

	select {
	case sig := <-sigCh:
		d.logger.Info("signal_received", "signal", sig.String())
		go func() {
			<-sigCh
			d.logger.Warn("second_signal_forcing_exit")
			os.Exit(1)
		}()
	case <-d.ctx.Done():
	}

	d.Shutdown()
}

// Shutdown stops the daemon: the current session is cancelled and
// waited for up to daemon.shutdown_timeout_sec. Safe to call more than
// once; later calls block until the first finished.
func (d *Daemon) Shutdown() {
	d.shutdown.Do(func() {
		d.logger.Info("shutdown_started")

		d.cancel()
		if d.watcher != nil {
			_ = d.watcher.Close()
		}
		_ = d.server.Stop()

		timeout := time.Duration(d.config().Daemon.ShutdownTimeoutSec) * time.Second
		if timeout <= 0 {
			timeout = 5 * time.Second
		}
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		if err := d.coord.Shutdown(ctx); err != nil {
			d.logger.Warn("shutdown_timeout", "timeout", timeout, "error", err)
		}
		done := make(chan struct{})
		go func() {
			d.wg.Wait()
			close(done)
		}()
		select {
		case <-done:
		case <-ctx.Done():
			d.logger.Warn("shutdown_loops_still_running", "timeout", timeout)
		}

		d.cleanup()
		d.logger.Info("daemon_stopped")
	})
}

func (d *Daemon) cleanup() {
	for _, fn := range d.detach {
		fn()
	}
	d.detach = nil
	if d.watcher != nil {
		_ = d.watcher.Close()
	}
	if d.bus != nil {
		d.bus.Close()
	}
	if d.runLog != nil {
		_ = d.runLog.Close()
	}
	if d.history != nil {
		_ = d.history.Close()
	}
	_ = d.fileLock.Unlock()
}
