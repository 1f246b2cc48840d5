// Package runner performs one command kind each against the operating
// system. Every runner depends only on the narrow capability interfaces
// in this file; internal/platform supplies the macOS implementations.
package runner

import (
	"context"

	"github.com/msageha/deskflow/internal/model"
)

// AppInfo is an installed application bundle.
type AppInfo struct {
	BundleIdentifier string
	Name             string
	Path             string
}

// RunningApp is a running application process.
type RunningApp struct {
	BundleIdentifier string
	Name             string
	PID              int
}

// Window is an on-screen window as reported by the window server.
type Window struct {
	ID            int
	PID           int
	OwnerBundleID string
	OwnerName     string
	Title         string
}

type ApplicationDirectory interface {
	// Lookup returns ErrNotFound (possibly wrapped) for unknown bundles.
	Lookup(ctx context.Context, bundleID string) (AppInfo, error)
	RunningApplications(ctx context.Context) ([]RunningApp, error)
	FrontmostApplication(ctx context.Context) (RunningApp, error)
}

type LaunchOptions struct {
	Background bool
	Hidden     bool
}

type ApplicationLauncher interface {
	Launch(ctx context.Context, app AppInfo, opts LaunchOptions) error
	Activate(ctx context.Context, app RunningApp) error
	Terminate(ctx context.Context, app RunningApp) error
}

type Opener interface {
	// Open opens a path or URL, with app when non-nil.
	Open(ctx context.Context, target string, app *model.Application) error
	// Reveal selects path in Finder.
	Reveal(ctx context.Context, path string) error
}

// WindowList enumerates windows front to back.
type WindowList interface {
	VisibleWindows(ctx context.Context, scope model.WindowScope) ([]Window, error)
	FocusWindow(ctx context.Context, w Window) error
}

// MenuBar presses menu items through the accessibility tree.
type MenuBar interface {
	// PressMenuItem returns ErrMenuItemNotFound when pid has no item
	// with that title.
	PressMenuItem(ctx context.Context, pid int, title string) error
}

type Spaces interface {
	MissionControl(ctx context.Context) error
	ApplicationWindows(ctx context.Context) error
	ShowDesktop(ctx context.Context) error
}

// ProcessResult is the outcome of a finished process.
type ProcessResult struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

// ScriptExecutor runs a script body out of process. A process that ran
// and exited non-zero is reported through ProcessResult, not err.
type ScriptExecutor interface {
	Execute(ctx context.Context, body string, lang model.ScriptLanguage) (ProcessResult, error)
}

type ShortcutInvoker interface {
	Shortcuts(ctx context.Context) ([]string, error)
	Invoke(ctx context.Context, identifier string) error
	View(ctx context.Context, identifier string) error
}

type Pasteboard interface {
	ReadAll() (string, error)
	WriteAll(text string) error
}
