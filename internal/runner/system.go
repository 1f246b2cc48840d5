package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/msageha/deskflow/internal/model"
)

// DefaultMinimizeMenuTitles are the "Minimize All" item titles tried in
// order for each application.
var DefaultMinimizeMenuTitles = []string{"Minimize All"}

type SystemRunner struct {
	dir        ApplicationDirectory
	launcher   ApplicationLauncher
	windows    WindowList
	menus      MenuBar
	spaces     Spaces
	menuTitles []string
	logger     *slog.Logger
}

type SystemDeps struct {
	Directory  ApplicationDirectory
	Launcher   ApplicationLauncher
	Windows    WindowList
	Menus      MenuBar
	Spaces     Spaces
	MenuTitles []string
	Logger     *slog.Logger
}

func NewSystemRunner(deps SystemDeps) *SystemRunner {
	titles := deps.MenuTitles
	if len(titles) == 0 {
		titles = DefaultMinimizeMenuTitles
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &SystemRunner{
		dir:        deps.Directory,
		launcher:   deps.Launcher,
		windows:    deps.Windows,
		menus:      deps.Menus,
		spaces:     deps.Spaces,
		menuTitles: titles,
		logger:     logger,
	}
}

func (r *SystemRunner) Run(ctx context.Context, cmd model.SystemCommand) error {
	if scope, dir, ok := cmd.SystemKind.FocusNavigation(); ok {
		return r.moveFocus(ctx, scope, dir)
	}
	switch cmd.SystemKind {
	case model.SystemActivateLastApplication:
		return r.activateLastApplication(ctx)
	case model.SystemApplicationWindows:
		return execFailed("application windows", r.spaces.ApplicationWindows(ctx))
	case model.SystemMissionControl:
		return execFailed("mission control", r.spaces.MissionControl(ctx))
	case model.SystemShowDesktop:
		return execFailed("show desktop", r.spaces.ShowDesktop(ctx))
	case model.SystemMinimizeAllOpenWindows:
		return r.minimizeAll(ctx)
	}
	return fmt.Errorf("unknown system command %q", cmd.SystemKind)
}

func (r *SystemRunner) moveFocus(ctx context.Context, scope model.WindowScope, dir model.FocusDirection) error {
	windows, err := r.windows.VisibleWindows(ctx, scope)
	if err != nil {
		return execFailed("list windows", err)
	}
	target, ok := NextWindow(windows, dir)
	if !ok {
		return nil
	}
	return execFailed("focus window", r.windows.FocusWindow(ctx, target))
}

// NextWindow picks the focus target from a front-to-back window list.
// windows[0] is the focused window; targets cycle in ascending window id
// order so repeated presses visit every window. ok is false for lists
// with fewer than two windows.
func NextWindow(windows []Window, dir model.FocusDirection) (Window, bool) {
	if len(windows) < 2 {
		return Window{}, false
	}
	current := windows[0]
	order := append([]Window(nil), windows...)
	sort.SliceStable(order, func(i, j int) bool { return order[i].ID < order[j].ID })

	idx := 0
	for i, w := range order {
		if w.ID == current.ID {
			idx = i
			break
		}
	}
	n := len(order)
	if dir == model.FocusPrevious {
		return order[(idx-1+n)%n], true
	}
	return order[(idx+1)%n], true
}

func (r *SystemRunner) activateLastApplication(ctx context.Context) error {
	front, err := r.dir.FrontmostApplication(ctx)
	if err != nil {
		return execFailed("frontmost application", err)
	}
	windows, err := r.windows.VisibleWindows(ctx, model.ScopeAllWindows)
	if err != nil {
		return execFailed("list windows", err)
	}
	for _, w := range windows {
		if w.PID == front.PID {
			continue
		}
		app := RunningApp{BundleIdentifier: w.OwnerBundleID, Name: w.OwnerName, PID: w.PID}
		return execFailed("activate "+w.OwnerName, r.launcher.Activate(ctx, app))
	}
	return nil
}

// MinimizeReport lists, by application name, the outcome of MinimizeAll.
type MinimizeReport struct {
	Minimized []string
	NotFound  []string
	Failed    []string
}

// MinimizeAll presses "Minimize All" in every application that owns a
// window in the current space. Applications without the menu item, or
// whose menu press fails, are reported and skipped.
func (r *SystemRunner) MinimizeAll(ctx context.Context) (MinimizeReport, error) {
	var report MinimizeReport
	windows, err := r.windows.VisibleWindows(ctx, model.ScopeVisibleInSpace)
	if err != nil {
		return report, execFailed("list windows", err)
	}

	seen := make(map[int]bool)
	for _, w := range windows {
		if seen[w.PID] {
			continue
		}
		seen[w.PID] = true
		if err := ctx.Err(); err != nil {
			return report, err
		}

		err := r.pressAny(ctx, w.PID)
		switch {
		case err == nil:
			report.Minimized = append(report.Minimized, w.OwnerName)
		case IsCancellation(err):
			return report, err
		case errors.Is(err, ErrMenuItemNotFound):
			r.logger.Info("minimize_all_not_found", "app", w.OwnerName, "pid", w.PID)
			report.NotFound = append(report.NotFound, w.OwnerName)
		default:
			r.logger.Warn("minimize_all_failed", "app", w.OwnerName, "pid", w.PID, "error", err)
			report.Failed = append(report.Failed, w.OwnerName)
		}
	}
	return report, nil
}

// minimizeAll is MinimizeAll as a command: it fails with a resolution
// error when no application offered the menu item.
func (r *SystemRunner) minimizeAll(ctx context.Context) error {
	report, err := r.MinimizeAll(ctx)
	if err != nil {
		return err
	}
	r.logger.Info("minimize_all_done",
		"minimized", len(report.Minimized),
		"not_found", len(report.NotFound),
		"failed", len(report.Failed))
	if len(report.Minimized) == 0 && len(report.NotFound) > 0 {
		return notFound("menu item", r.menuTitles[0])
	}
	return nil
}

func (r *SystemRunner) pressAny(ctx context.Context, pid int) error {
	var err error
	for _, title := range r.menuTitles {
		err = r.menus.PressMenuItem(ctx, pid, title)
		if !errors.Is(err, ErrMenuItemNotFound) {
			return err
		}
	}
	return err
}
