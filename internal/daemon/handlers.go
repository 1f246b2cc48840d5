package daemon

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/msageha/deskflow/internal/engine"
	"github.com/msageha/deskflow/internal/model"
	"github.com/msageha/deskflow/internal/runner"
	"github.com/msageha/deskflow/internal/setup"
	"github.com/msageha/deskflow/internal/uds"
)

// Trigger names recorded on sessions started over the socket.
const (
	triggerCLI      = "cli"
	triggerBatch    = "batch"
	triggerKeyboard = "keyboard"
)

func (d *Daemon) registerHandlers() {
	d.server.Handle(uds.CommandPing, d.handlePing)
	d.server.Handle(uds.CommandRun, d.handleRun)
	d.server.Handle(uds.CommandTrigger, d.handleTrigger)
	d.server.Handle(uds.CommandCancel, d.handleCancel)
	d.server.Handle(uds.CommandStatus, d.handleStatus)
	d.server.Handle(uds.CommandReveal, d.handleReveal)
	d.server.Handle(uds.CommandReload, d.handleReload)
	d.server.Handle(uds.CommandShutdown, func(_ context.Context, _ *uds.Request) *uds.Response {
		d.logger.Info("shutdown_requested")
		go d.Shutdown()
		return uds.SuccessResponse(map[string]string{"status": "shutdown_accepted"})
	})
}

func (d *Daemon) handlePing(_ context.Context, _ *uds.Request) *uds.Response {
	return uds.SuccessResponse(uds.PingResult{
		PID:       os.Getpid(),
		Version:   d.version,
		StartedAt: d.startedAt.UTC().Format(time.RFC3339),
	})
}

func (d *Daemon) handleRun(ctx context.Context, req *uds.Request) *uds.Response {
	var p uds.RunParams
	if err := req.DecodeParams(&p); err != nil {
		return uds.ErrorResponse(uds.ErrCodeValidation, err.Error())
	}
	switch p.Mode {
	case "", model.ExecutionSerial, model.ExecutionConcurrent:
	default:
		return uds.ErrorResponse(uds.ErrCodeValidation, fmt.Sprintf("unknown execution mode %q", p.Mode))
	}

	var sess *engine.Session
	switch {
	case p.Batch != "":
		cmds, err := setup.DecodeBatch([]byte(p.Batch))
		if err != nil {
			return uds.ErrorResponse(uds.ErrCodeValidation, err.Error())
		}
		mode := p.Mode
		if mode == "" {
			mode = model.ExecutionSerial
		}
		sess = d.coord.Start(engine.RunRequest{Mode: mode, Commands: cmds, Trigger: triggerBatch})
	case p.WorkflowID != "":
		wf, resp := d.lookupWorkflow(p.WorkflowID)
		if resp != nil {
			return resp
		}
		if !wf.IsEnabled {
			return uds.ErrorResponse(uds.ErrCodeValidation, fmt.Sprintf("workflow %s is disabled", wf.ID))
		}
		sess = d.startWorkflow(wf, p.Mode, triggerCLI)
	default:
		return uds.ErrorResponse(uds.ErrCodeValidation, "workflow_id or batch is required")
	}

	if p.Wait {
		if err := sess.Wait(ctx); err != nil {
			return uds.ErrorResponse(uds.ErrCodeCancelled, fmt.Sprintf("session %s: %v", sess.ID, err))
		}
	}
	return uds.SuccessResponse(sess.Summary())
}

func (d *Daemon) handleTrigger(_ context.Context, req *uds.Request) *uds.Response {
	var p uds.TriggerParams
	if err := req.DecodeParams(&p); err != nil {
		return uds.ErrorResponse(uds.ErrCodeValidation, err.Error())
	}
	ks, err := model.ParseKeySpec(p.Shortcut)
	if err != nil {
		return uds.ErrorResponse(uds.ErrCodeValidation, err.Error())
	}

	matches := shortcutWorkflows(d.workflows(), ks)
	if len(matches) == 0 {
		return uds.ErrorResponse(uds.ErrCodeNotFound, fmt.Sprintf("no enabled workflow is bound to %s", ks.Pretty()))
	}
	if len(matches) > 1 {
		d.logger.Warn("shortcut_ambiguous", "shortcut", ks.Spec(), "workflows", len(matches), "chosen", matches[0].ID)
	}
	sess := d.startWorkflow(matches[0], "", triggerKeyboard)
	return uds.SuccessResponse(sess.Summary())
}

func (d *Daemon) handleCancel(_ context.Context, _ *uds.Request) *uds.Response {
	var res uds.CancelResult
	if cur := d.coord.Current(); cur != nil {
		cur.Cancel()
		res = uds.CancelResult{Cancelled: true, SessionID: cur.ID}
		d.logger.Info("session_cancel_requested", "session_id", cur.ID)
	}
	return uds.SuccessResponse(res)
}

func (d *Daemon) handleStatus(_ context.Context, _ *uds.Request) *uds.Response {
	res := uds.StatusResult{
		PID:       os.Getpid(),
		StartedAt: d.startedAt.UTC().Format(time.RFC3339),
		Workflows: len(d.workflows()),
	}
	if cur := d.coord.Current(); cur != nil {
		sum := cur.Summary()
		res.Current = &sum
	}
	if last := d.coord.Last(); last != nil {
		sum := last.Summary()
		res.Last = &sum
	}
	return uds.SuccessResponse(res)
}

func (d *Daemon) handleReveal(ctx context.Context, req *uds.Request) *uds.Response {
	var p uds.RevealParams
	if err := req.DecodeParams(&p); err != nil {
		return uds.ErrorResponse(uds.ErrCodeValidation, err.Error())
	}
	wf, resp := d.lookupWorkflow(p.WorkflowID)
	if resp != nil {
		return resp
	}
	if d.revealer == nil {
		return uds.ErrorResponse(uds.ErrCodeInternal, "reveal is not available")
	}
	if err := d.revealer.Reveal(ctx, wf.Resolve()); err != nil {
		if errors.Is(err, runner.ErrNotFound) {
			return uds.ErrorResponse(uds.ErrCodeNotFound, err.Error())
		}
		return uds.ErrorResponse(uds.ErrCodeInternal, err.Error())
	}
	return uds.SuccessResponse(map[string]string{"status": "revealed", "workflow_id": wf.ID})
}

func (d *Daemon) handleReload(_ context.Context, _ *uds.Request) *uds.Response {
	n, err := d.Reload()
	if err != nil {
		return uds.ErrorResponse(uds.ErrCodeValidation, err.Error())
	}
	return uds.SuccessResponse(uds.ReloadResult{Workflows: n})
}

// lookupWorkflow finds ref by id or name, or returns the error response.
func (d *Daemon) lookupWorkflow(ref string) (model.Workflow, *uds.Response) {
	if ref == "" {
		return model.Workflow{}, uds.ErrorResponse(uds.ErrCodeValidation, "workflow_id is required")
	}
	wf, ok := model.FindWorkflow(d.workflows(), ref)
	if !ok {
		return model.Workflow{}, uds.ErrorResponse(uds.ErrCodeNotFound, fmt.Sprintf("workflow %q not found", ref))
	}
	return wf, nil
}
