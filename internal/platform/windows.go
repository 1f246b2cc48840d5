package platform

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/msageha/deskflow/internal/model"
	"github.com/msageha/deskflow/internal/runner"
)

// CGWindowListCopyWindowInfo options.
const (
	cgOnScreenOnly           = 1 << 0
	cgExcludeDesktopElements = 1 << 4
	windowListAllOptions     = cgExcludeDesktopElements
	windowListInSpaceOptions = cgOnScreenOnly | cgExcludeDesktopElements
	normalWindowLayer        = 0
)

// windowListProgram prints the window server list front to back along
// with the owning bundle identifiers and the frontmost pid.
const windowListProgram = `
ObjC.import('AppKit');
ObjC.import('CoreGraphics');
function run(argv) {
  const info = ObjC.castRefToObject($.CGWindowListCopyWindowInfo(parseInt(argv[0], 10), 0));
  const raw = ObjC.deepUnwrap(info) || [];
  const bundles = {};
  const apps = $.NSWorkspace.sharedWorkspace.runningApplications;
  for (let i = 0; i < apps.count; i++) {
    const a = apps.objectAtIndex(i);
    bundles[a.processIdentifier] = ObjC.unwrap(a.bundleIdentifier) || '';
  }
  const front = $.NSWorkspace.sharedWorkspace.frontmostApplication;
  const windows = raw.map(w => ({
    id: w.kCGWindowNumber, pid: w.kCGWindowOwnerPID, layer: w.kCGWindowLayer,
    owner: w.kCGWindowOwnerName || '', title: w.kCGWindowName || '',
    bundle_id: bundles[w.kCGWindowOwnerPID] || ''
  }));
  return JSON.stringify({front_pid: front.isNil() ? 0 : front.processIdentifier, windows: windows});
}`

const focusWindowProgram = `
function run(argv) {
  const se = Application('System Events');
  const procs = se.processes.whose({unixId: parseInt(argv[0], 10)});
  if (procs.length === 0) return 'missing';
  const p = procs[0];
  p.frontmost = true;
  if (argv[1] !== '') {
    const ws = p.windows.whose({name: argv[1]});
    if (ws.length > 0) ws[0].actions.byName('AXRaise').perform();
  }
  return 'ok';
}`

type windowJSON struct {
	ID       int    `json:"id"`
	PID      int    `json:"pid"`
	Layer    int    `json:"layer"`
	Owner    string `json:"owner"`
	Title    string `json:"title"`
	BundleID string `json:"bundle_id"`
}

type windowListJSON struct {
	FrontPID int          `json:"front_pid"`
	Windows  []windowJSON `json:"windows"`
}

// Windows reads the window server list and raises windows through
// System Events. Raising needs the accessibility permission.
type Windows struct {
	Tool
}

func (w Windows) VisibleWindows(ctx context.Context, scope model.WindowScope) ([]runner.Window, error) {
	opts := windowListInSpaceOptions
	if scope == model.ScopeAllWindows {
		opts = windowListAllOptions
	}
	out, err := w.jxa(ctx, windowListProgram, strconv.Itoa(opts))
	if err != nil {
		return nil, err
	}
	return parseWindowList([]byte(out), scope)
}

func (w Windows) FocusWindow(ctx context.Context, win runner.Window) error {
	out, err := w.jxa(ctx, focusWindowProgram, strconv.Itoa(win.PID), win.Title)
	if err != nil {
		return err
	}
	if out == "missing" {
		return fmt.Errorf("window %d: %w", win.ID, runner.ErrNotFound)
	}
	return nil
}

// parseWindowList keeps normal application windows and, for
// ScopeFrontApp, only those of the frontmost process.
func parseWindowList(data []byte, scope model.WindowScope) ([]runner.Window, error) {
	var list windowListJSON
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("decode window list: %w", err)
	}
	var out []runner.Window
	for _, w := range list.Windows {
		if w.Layer != normalWindowLayer {
			continue
		}
		if scope == model.ScopeFrontApp && w.PID != list.FrontPID {
			continue
		}
		out = append(out, runner.Window{
			ID:            w.ID,
			PID:           w.PID,
			OwnerBundleID: w.BundleID,
			OwnerName:     w.Owner,
			Title:         w.Title,
		})
	}
	return out, nil
}
