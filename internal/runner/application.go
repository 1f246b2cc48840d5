package runner

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/msageha/deskflow/internal/model"
)

type ApplicationRunner struct {
	dir      ApplicationDirectory
	launcher ApplicationLauncher
	timeout  time.Duration
	poll     time.Duration
	launches singleflight.Group
}

func NewApplicationRunner(dir ApplicationDirectory, launcher ApplicationLauncher, timeout, poll time.Duration) *ApplicationRunner {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if poll <= 0 {
		poll = 100 * time.Millisecond
	}
	return &ApplicationRunner{dir: dir, launcher: launcher, timeout: timeout, poll: poll}
}

func (r *ApplicationRunner) Run(ctx context.Context, cmd model.ApplicationCommand) error {
	if cmd.Action == model.ApplicationActionClose {
		return r.close(ctx, cmd)
	}
	return r.open(ctx, cmd)
}

func (r *ApplicationRunner) open(ctx context.Context, cmd model.ApplicationCommand) error {
	bundleID := cmd.Application.BundleIdentifier
	app, err := r.dir.Lookup(ctx, bundleID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return notFound("application", bundleID)
		}
		return execFailed("lookup "+bundleID, err)
	}

	running, ok, err := r.findRunning(ctx, bundleID)
	if err != nil {
		return err
	}
	if ok {
		if cmd.HasModifier(model.ApplicationModifierOnlyIfNotRunning) ||
			cmd.HasModifier(model.ApplicationModifierBackground) {
			return nil
		}
		return execFailed("activate "+bundleID, r.launcher.Activate(ctx, running))
	}

	opts := LaunchOptions{
		Background: cmd.HasModifier(model.ApplicationModifierBackground),
		Hidden:     cmd.HasModifier(model.ApplicationModifierHidden),
	}
	// Concurrent opens of one bundle share a single launch; the options of
	// the first caller win. The launch outlives any one caller and is
	// bounded by the launch timeout only.
	launchCtx := context.WithoutCancel(ctx)
	ch := r.launches.DoChan(bundleID, func() (any, error) {
		return nil, r.launchAndWait(launchCtx, app, opts)
	})
	select {
	case res := <-ch:
		return res.Err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *ApplicationRunner) launchAndWait(ctx context.Context, app AppInfo, opts LaunchOptions) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	timedOut := &ExecutionError{Op: "launch " + app.BundleIdentifier, Err: ErrLaunchTimeout}

	if err := r.launcher.Launch(ctx, app, opts); err != nil {
		if ctx.Err() != nil {
			return timedOut
		}
		return execFailed("launch "+app.BundleIdentifier, err)
	}

	ticker := time.NewTicker(r.poll)
	defer ticker.Stop()

	for {
		_, ok, err := r.findRunning(ctx, app.BundleIdentifier)
		if err != nil {
			if ctx.Err() != nil {
				return timedOut
			}
			return err
		}
		if ok {
			return nil
		}
		select {
		case <-ticker.C:
		case <-ctx.Done():
			return timedOut
		}
	}
}

func (r *ApplicationRunner) close(ctx context.Context, cmd model.ApplicationCommand) error {
	bundleID := cmd.Application.BundleIdentifier
	running, ok, err := r.findRunning(ctx, bundleID)
	if err != nil || !ok {
		return err
	}
	return execFailed("terminate "+bundleID, r.launcher.Terminate(ctx, running))
}

func (r *ApplicationRunner) findRunning(ctx context.Context, bundleID string) (RunningApp, bool, error) {
	apps, err := r.dir.RunningApplications(ctx)
	if err != nil {
		return RunningApp{}, false, execFailed("list running applications", err)
	}
	for _, a := range apps {
		if a.BundleIdentifier == bundleID {
			return a, true, nil
		}
	}
	return RunningApp{}, false, nil
}
