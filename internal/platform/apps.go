package platform

import (
	"context"
	"fmt"
	"strconv"

	"github.com/msageha/deskflow/internal/runner"
)

const lookupProgram = `
ObjC.import('AppKit');
function run(argv) {
  const ws = $.NSWorkspace.sharedWorkspace;
  const url = ws.URLForApplicationWithBundleIdentifier(argv[0]);
  if (url.isNil()) return JSON.stringify(null);
  const path = ObjC.unwrap(url.path);
  const bundle = $.NSBundle.bundleWithPath(path);
  let name = bundle.isNil() ? '' : ObjC.unwrap(bundle.objectForInfoDictionaryKey('CFBundleName'));
  return JSON.stringify({bundle_id: argv[0], name: name || '', path: path});
}`

const runningProgram = `
ObjC.import('AppKit');
function run(argv) {
  const apps = $.NSWorkspace.sharedWorkspace.runningApplications;
  const out = [];
  for (let i = 0; i < apps.count; i++) {
    const a = apps.objectAtIndex(i);
    if (a.activationPolicy !== 0) continue;
    out.push({bundle_id: ObjC.unwrap(a.bundleIdentifier) || '', name: ObjC.unwrap(a.localizedName) || '', pid: a.processIdentifier});
  }
  return JSON.stringify(out);
}`

const frontmostProgram = `
ObjC.import('AppKit');
function run(argv) {
  const a = $.NSWorkspace.sharedWorkspace.frontmostApplication;
  if (a.isNil()) return JSON.stringify(null);
  return JSON.stringify({bundle_id: ObjC.unwrap(a.bundleIdentifier) || '', name: ObjC.unwrap(a.localizedName) || '', pid: a.processIdentifier});
}`

const activateProgram = `
ObjC.import('AppKit');
function run(argv) {
  const a = $.NSRunningApplication.runningApplicationWithProcessIdentifier(parseInt(argv[0], 10));
  if (a.isNil()) return 'missing';
  a.activateWithOptions($.NSApplicationActivateIgnoringOtherApps);
  return 'ok';
}`

const terminateProgram = `
ObjC.import('AppKit');
function run(argv) {
  const a = $.NSRunningApplication.runningApplicationWithProcessIdentifier(parseInt(argv[0], 10));
  if (a.isNil()) return 'missing';
  a.terminate;
  return 'ok';
}`

type appJSON struct {
	BundleID string `json:"bundle_id"`
	Name     string `json:"name"`
	Path     string `json:"path"`
	PID      int    `json:"pid"`
}

func (a appJSON) running() runner.RunningApp {
	return runner.RunningApp{BundleIdentifier: a.BundleID, Name: a.Name, PID: a.PID}
}

// Applications resolves, launches and terminates application bundles
// through NSWorkspace and open(1).
type Applications struct {
	Tool
}

func (a Applications) Lookup(ctx context.Context, bundleID string) (runner.AppInfo, error) {
	var info *appJSON
	if err := a.jxaJSON(ctx, &info, lookupProgram, bundleID); err != nil {
		return runner.AppInfo{}, err
	}
	if info == nil {
		return runner.AppInfo{}, fmt.Errorf("bundle %q: %w", bundleID, runner.ErrNotFound)
	}
	return runner.AppInfo{BundleIdentifier: info.BundleID, Name: info.Name, Path: info.Path}, nil
}

func (a Applications) RunningApplications(ctx context.Context) ([]runner.RunningApp, error) {
	var list []appJSON
	if err := a.jxaJSON(ctx, &list, runningProgram); err != nil {
		return nil, err
	}
	out := make([]runner.RunningApp, 0, len(list))
	for _, app := range list {
		out = append(out, app.running())
	}
	return out, nil
}

func (a Applications) FrontmostApplication(ctx context.Context) (runner.RunningApp, error) {
	var app *appJSON
	if err := a.jxaJSON(ctx, &app, frontmostProgram); err != nil {
		return runner.RunningApp{}, err
	}
	if app == nil {
		return runner.RunningApp{}, fmt.Errorf("frontmost application: %w", runner.ErrNotFound)
	}
	return app.running(), nil
}

func (a Applications) Launch(ctx context.Context, app runner.AppInfo, opts runner.LaunchOptions) error {
	return a.run(ctx, "open", launchArgs(app, opts)...)
}

func (a Applications) Activate(ctx context.Context, app runner.RunningApp) error {
	return a.byPID(ctx, activateProgram, app)
}

func (a Applications) Terminate(ctx context.Context, app runner.RunningApp) error {
	return a.byPID(ctx, terminateProgram, app)
}

func (a Applications) byPID(ctx context.Context, program string, app runner.RunningApp) error {
	out, err := a.jxa(ctx, program, strconv.Itoa(app.PID))
	if err != nil {
		return err
	}
	if out == "missing" {
		return fmt.Errorf("process %d (%s): %w", app.PID, app.BundleIdentifier, runner.ErrNotFound)
	}
	return nil
}

// launchArgs builds the open(1) arguments. -g keeps the application in
// the background, -j launches it hidden.
func launchArgs(app runner.AppInfo, opts runner.LaunchOptions) []string {
	var args []string
	if opts.Background {
		args = append(args, "-g")
	}
	if opts.Hidden {
		args = append(args, "-j")
	}
	if app.Path != "" {
		return append(args, "-a", app.Path)
	}
	return append(args, "-b", app.BundleIdentifier)
}
