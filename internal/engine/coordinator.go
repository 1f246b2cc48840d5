package engine

import (
	"context"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/msageha/deskflow/internal/events"
	"github.com/msageha/deskflow/internal/model"
	"github.com/msageha/deskflow/internal/runner"
)

// DefaultSettleDelay is the pause between commands in serial mode.
const DefaultSettleDelay = 50 * time.Millisecond

// Executor runs a single command. *Engine implements it.
type Executor interface {
	Run(ctx context.Context, cmd model.Command) error
}

type CoordinatorOptions struct {
	// Base is the parent context of every session. Defaults to
	// context.Background().
	Base        context.Context
	SettleDelay time.Duration
	Bus         *events.Bus
	Recorder    RunRecorder
	Logger      *slog.Logger
}

// Coordinator owns the single current run session. Starting a run
// cancels the previous one without waiting for it.
type Coordinator struct {
	exec   Executor
	base   context.Context
	settle time.Duration
	out    emitter

	mu       sync.Mutex
	current  *Session
	last     *Session
	onFinish []func(*Session)
	wg       sync.WaitGroup
}

func NewCoordinator(exec Executor, opts CoordinatorOptions) *Coordinator {
	base := opts.Base
	if base == nil {
		base = context.Background()
	}
	settle := opts.SettleDelay
	if settle <= 0 {
		settle = DefaultSettleDelay
	}
	return &Coordinator{
		exec:   exec,
		base:   base,
		settle: settle,
		out:    newEmitter(opts.Recorder, opts.Bus, opts.Logger),
	}
}

// OnFinish registers fn to be called on the session goroutine after each
// session reached its terminal state.
func (c *Coordinator) OnFinish(fn func(*Session)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onFinish = append(c.onFinish, fn)
}

// SerialRun runs cmds one after another with a settle delay in between.
func (c *Coordinator) SerialRun(cmds []model.Command) *Session {
	return c.Start(RunRequest{Mode: model.ExecutionSerial, Commands: cmds})
}

// ConcurrentRun runs cmds in order without settle delays. The caller is
// not blocked; the commands themselves still run one at a time.
func (c *Coordinator) ConcurrentRun(cmds []model.Command) *Session {
	return c.Start(RunRequest{Mode: model.ExecutionConcurrent, Commands: cmds})
}

// Start supersedes the current session with a new one and returns it
// immediately.
func (c *Coordinator) Start(req RunRequest) *Session {
	s := newSession(c.base, req)

	c.mu.Lock()
	prev := c.current
	c.current = s
	c.wg.Add(1)
	c.mu.Unlock()

	if prev != nil {
		prev.Cancel()
	}
	go c.run(s)
	return s
}

// Cancel cancels the current session, if any, and reports whether there
// was one.
func (c *Coordinator) Cancel() bool {
	c.mu.Lock()
	cur := c.current
	c.mu.Unlock()
	if cur == nil {
		return false
	}
	cur.Cancel()
	return true
}

// Current returns the running session or nil.
func (c *Coordinator) Current() *Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// Last returns the most recently finished session or nil.
func (c *Coordinator) Last() *Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.last
}

// Shutdown cancels the current session and waits for every session
// goroutine to return or ctx to end.
func (c *Coordinator) Shutdown(ctx context.Context) error {
	c.Cancel()
	done := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Coordinator) run(s *Session) {
	defer c.wg.Done()
	defer c.finish(s)

	if s.ctx.Err() != nil {
		c.setState(s, model.SessionCancelled)
		return
	}
	c.setState(s, model.SessionRunning)
	c.out.emit(events.EventRunStarted, map[string]any{
		"session_id": s.ID,
		"mode":       string(s.Mode),
		"workflow":   s.WorkflowID,
		"total":      s.Total(),
	})

	for _, cmd := range s.commands {
		meta := cmd.Meta()
		corr := model.MustGenerateID(model.IDTypeCorrelation)
		c.out.logger.Debug("step_starting", "session_id", s.ID, "correlation_id", corr, "command", model.Describe(cmd))

		if s.ctx.Err() != nil {
			c.setState(s, model.SessionCancelled)
			return
		}

		started := time.Now()
		err := c.exec.Run(WithCorrelationID(s.ctx, corr), cmd)
		outcome := Outcome{
			CommandID:     meta.ID,
			Name:          model.DisplayName(cmd),
			Kind:          cmd.Kind(),
			CorrelationID: corr,
			Status:        model.CommandSucceeded,
			Err:           err,
			StartedAt:     started.UTC(),
			Duration:      time.Since(started),
		}
		if err != nil {
			outcome.Status = model.CommandFailed
			if runner.IsCancellation(err) && s.ctx.Err() != nil {
				outcome.Status = model.CommandAborted
			}
		}
		s.addOutcome(outcome)
		if outcome.Status == model.CommandAborted {
			c.setState(s, model.SessionCancelled)
			return
		}
		// failures are isolated; the loop goes on
		c.setState(s, model.SessionRunning)

		if s.Mode == model.ExecutionSerial {
			if err := runner.SleepCtx(s.ctx, c.settle); err != nil {
				c.setState(s, model.SessionCancelled)
				return
			}
		} else if s.ctx.Err() != nil {
			c.setState(s, model.SessionCancelled)
			return
		}

		c.out.logger.Debug("step_done", "session_id", s.ID, "correlation_id", corr, "command", model.Describe(cmd))
		c.out.emit(events.EventCommandDone, map[string]any{
			"session_id":     s.ID,
			"command_id":     meta.ID,
			"correlation_id": corr,
			"status":         string(outcome.Status),
		})
	}

	if s.failed() {
		c.setState(s, model.SessionFailedPartial)
	} else {
		c.setState(s, model.SessionCompleted)
	}
}

func (c *Coordinator) setState(s *Session, to model.SessionState) {
	if err := s.transition(to); err != nil {
		c.out.logger.Error("session_transition_invalid", "session_id", s.ID, "error", err)
	}
}

func (c *Coordinator) finish(s *Session) {
	s.cancel()

	c.mu.Lock()
	if c.current == s {
		c.current = nil
	}
	c.last = s
	hooks := slices.Clone(c.onFinish)
	c.mu.Unlock()

	sum := s.Summary()
	c.out.logger.Info("run_finished",
		"session_id", s.ID, "state", sum.State,
		"succeeded", sum.Succeeded, "failed", sum.Failed, "aborted", sum.Aborted, "total", sum.Total)
	c.out.emit(events.EventRunFinished, map[string]any{
		"session_id": s.ID,
		"state":      string(sum.State),
		"succeeded":  sum.Succeeded,
		"failed":     sum.Failed,
		"total":      sum.Total,
	})

	for _, fn := range hooks {
		fn(s)
	}
	close(s.done)
}
