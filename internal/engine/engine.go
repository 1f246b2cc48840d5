// Package engine dispatches commands to their runners and coordinates
// single-flight run sessions.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/msageha/deskflow/internal/events"
	"github.com/msageha/deskflow/internal/model"
	"github.com/msageha/deskflow/internal/runner"
)

type ApplicationRunner interface {
	Run(ctx context.Context, cmd model.ApplicationCommand) error
}

type KeyboardRunner interface {
	Run(ctx context.Context, cmd model.KeyboardCommand) error
	Replay(ctx context.Context) error
}

type OpenRunner interface {
	Run(ctx context.Context, cmd model.OpenCommand) error
}

type ScriptRunner interface {
	Run(ctx context.Context, cmd model.ScriptCommand) (runner.ProcessResult, error)
}

type ShortcutRunner interface {
	Run(ctx context.Context, cmd model.ShortcutCommand) error
}

type TypeRunner interface {
	Run(ctx context.Context, cmd model.TypeCommand) error
}

type SystemRunner interface {
	Run(ctx context.Context, cmd model.SystemCommand) error
}

// Runners holds one runner per command kind. Every field is required.
type Runners struct {
	Application ApplicationRunner
	Keyboard    KeyboardRunner
	Open        OpenRunner
	Script      ScriptRunner
	Shortcut    ShortcutRunner
	Type        TypeRunner
	System      SystemRunner
}

func (r Runners) validate() error {
	var missing []string
	if r.Application == nil {
		missing = append(missing, "application")
	}
	if r.Keyboard == nil {
		missing = append(missing, "keyboard")
	}
	if r.Open == nil {
		missing = append(missing, "open")
	}
	if r.Script == nil {
		missing = append(missing, "script")
	}
	if r.Shortcut == nil {
		missing = append(missing, "shortcut")
	}
	if r.Type == nil {
		missing = append(missing, "type")
	}
	if r.System == nil {
		missing = append(missing, "system")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing runners: %s", strings.Join(missing, ", "))
	}
	return nil
}

// RunRecorder receives run log records.
type RunRecorder interface {
	Record(eventType string, details map[string]any) error
}

type Options struct {
	Runners Runners

	// Reveal collaborators. Reveal skips commands whose collaborator is nil.
	Directory runner.ApplicationDirectory
	Opener    runner.Opener
	Shortcuts runner.ShortcutInvoker

	Bus      *events.Bus
	Recorder RunRecorder
	Logger   *slog.Logger
}

// Engine runs one command at a time for its caller.
type Engine struct {
	runners   Runners
	directory runner.ApplicationDirectory
	opener    runner.Opener
	shortcuts runner.ShortcutInvoker
	last      LastExecuted
	out       emitter
}

func New(opts Options) (*Engine, error) {
	if err := opts.Runners.validate(); err != nil {
		return nil, err
	}
	return &Engine{
		runners:   opts.Runners,
		directory: opts.Directory,
		opener:    opts.Opener,
		shortcuts: opts.Shortcuts,
		out:       newEmitter(opts.Recorder, opts.Bus, opts.Logger),
	}, nil
}

// LastExecuted is the slot updated by notification-flagged commands.
func (e *Engine) LastExecuted() *LastExecuted { return &e.last }

// Run executes cmd with its runner. Failures are logged and returned
// unchanged. Enabled state is not checked; callers filter disabled
// commands.
func (e *Engine) Run(ctx context.Context, cmd model.Command) error {
	meta := cmd.Meta()
	corr := CorrelationID(ctx)
	if corr == "" {
		corr = model.MustGenerateID(model.IDTypeCorrelation)
	}
	fields := map[string]any{
		"session_id":     SessionID(ctx),
		"command_id":     meta.ID,
		"correlation_id": corr,
		"kind":           string(cmd.Kind()),
		"name":           model.DisplayName(cmd),
	}
	desc := model.Describe(cmd)

	e.out.logger.Info("command_starting", "correlation_id", corr, "command", desc)
	e.out.emit(events.EventCommandStarted, fields)

	if meta.Notification {
		e.last.Set(cmd)
		e.out.publish(events.EventLastExecuted, map[string]any{
			"command_id": meta.ID,
			"name":       model.DisplayName(cmd),
		})
	}

	err := e.dispatch(ctx, cmd)
	switch {
	case err == nil:
		e.out.logger.Info("command_succeeded", "correlation_id", corr, "command", desc)
		e.out.emit(events.EventCommandSucceeded, fields)
	case runner.IsCancellation(err):
		e.out.logger.Info("command_aborted", "correlation_id", corr, "command", desc)
		e.out.emit(events.EventCommandAborted, withError(fields, err))
	default:
		e.out.logger.Error("command_failed",
			"correlation_id", corr, "command_id", meta.ID, "name", model.DisplayName(cmd), "error", err)
		e.out.emit(events.EventCommandFailed, withError(fields, err))
	}
	return err
}

func (e *Engine) dispatch(ctx context.Context, cmd model.Command) error {
	switch c := cmd.(type) {
	case model.ApplicationCommand:
		return e.runners.Application.Run(ctx, c)
	case model.BuiltInCommand:
		if c.BuiltInKind == model.BuiltInRepeatLastKeystroke {
			return e.runners.Keyboard.Replay(ctx)
		}
		// quickRun and recordSequence are handled by the caller's UI
		return nil
	case model.KeyboardCommand:
		return e.runners.Keyboard.Run(ctx, c)
	case model.OpenCommand:
		return e.runners.Open.Run(ctx, c)
	case model.ScriptCommand:
		res, err := e.runners.Script.Run(ctx, c)
		if out := strings.TrimSpace(res.Stdout); out != "" {
			e.out.logger.Debug("script_output", "correlation_id", CorrelationID(ctx), "stdout", out)
		}
		return err
	case model.ShortcutCommand:
		return e.runners.Shortcut.Run(ctx, c)
	case model.TypeCommand:
		return e.runners.Type.Run(ctx, c)
	case model.SystemCommand:
		return e.runners.System.Run(ctx, c)
	}
	return fmt.Errorf("unsupported command kind %q", cmd.Kind())
}

// Reveal shows where each command's target lives: applications and
// file paths are selected in Finder, shortcuts are opened in Shortcuts.
// Other kinds are skipped. Errors are collected and joined.
func (e *Engine) Reveal(ctx context.Context, cmds []model.Command) error {
	var errs []error
	for _, cmd := range cmds {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := e.reveal(ctx, cmd); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", model.Describe(cmd), err))
		}
	}
	return errors.Join(errs...)
}

func (e *Engine) reveal(ctx context.Context, cmd model.Command) error {
	switch c := cmd.(type) {
	case model.ApplicationCommand:
		path := c.Application.Path
		if path == "" && e.directory != nil {
			app, err := e.directory.Lookup(ctx, c.Application.BundleIdentifier)
			if err != nil {
				return err
			}
			path = app.Path
		}
		return e.revealPath(ctx, path)
	case model.OpenCommand:
		target, isURL, err := runner.ResolveOpenTarget(c.Path)
		if err != nil || isURL {
			return err
		}
		return e.revealPath(ctx, target)
	case model.ScriptCommand:
		if !c.Source.IsPath() {
			return nil
		}
		path, err := runner.ExpandHome(c.Source.Path)
		if err != nil {
			return err
		}
		return e.revealPath(ctx, path)
	case model.ShortcutCommand:
		if e.shortcuts == nil {
			return nil
		}
		return e.shortcuts.View(ctx, c.ShortcutIdentifier)
	}
	return nil
}

func (e *Engine) revealPath(ctx context.Context, path string) error {
	if path == "" || e.opener == nil {
		return nil
	}
	return e.opener.Reveal(ctx, path)
}

func withError(fields map[string]any, err error) map[string]any {
	out := make(map[string]any, len(fields)+1)
	for k, v := range fields {
		out[k] = v
	}
	out["error"] = err.Error()
	return out
}

// emitter fans a record out to the run log and the event bus.
type emitter struct {
	recorder RunRecorder
	bus      *events.Bus
	logger   *slog.Logger
}

func newEmitter(recorder RunRecorder, bus *events.Bus, logger *slog.Logger) emitter {
	if logger == nil {
		logger = slog.Default()
	}
	return emitter{recorder: recorder, bus: bus, logger: logger}
}

func (em emitter) emit(t events.EventType, details map[string]any) {
	if em.recorder != nil {
		if err := em.recorder.Record(string(t), details); err != nil {
			em.logger.Warn("run_log_write_failed", "event", t, "error", err)
		}
	}
	em.publish(t, details)
}

func (em emitter) publish(t events.EventType, details map[string]any) {
	if em.bus != nil {
		em.bus.Publish(t, details)
	}
}
