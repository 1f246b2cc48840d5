package runner

import (
	"context"
	"sync"

	"github.com/msageha/deskflow/internal/input"
	"github.com/msageha/deskflow/internal/model"
)

type fakeDirectory struct {
	mu        sync.Mutex
	installed map[string]AppInfo
	running   []RunningApp
	front     RunningApp
	listErr   error
}

func (d *fakeDirectory) Lookup(_ context.Context, bundleID string) (AppInfo, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	app, ok := d.installed[bundleID]
	if !ok {
		return AppInfo{}, ErrNotFound
	}
	return app, nil
}

func (d *fakeDirectory) RunningApplications(context.Context) ([]RunningApp, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.listErr != nil {
		return nil, d.listErr
	}
	return append([]RunningApp(nil), d.running...), nil
}

func (d *fakeDirectory) FrontmostApplication(context.Context) (RunningApp, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.front, nil
}

func (d *fakeDirectory) setRunning(apps ...RunningApp) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.running = apps
}

type fakeLauncher struct {
	mu         sync.Mutex
	launched   []string
	opts       []LaunchOptions
	activated  []string
	terminated []string
	onLaunch   func(AppInfo)
	launchErr  error
}

func (l *fakeLauncher) Launch(_ context.Context, app AppInfo, opts LaunchOptions) error {
	l.mu.Lock()
	l.launched = append(l.launched, app.BundleIdentifier)
	l.opts = append(l.opts, opts)
	hook, err := l.onLaunch, l.launchErr
	l.mu.Unlock()
	if err != nil {
		return err
	}
	if hook != nil {
		hook(app)
	}
	return nil
}

func (l *fakeLauncher) Activate(_ context.Context, app RunningApp) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.activated = append(l.activated, app.BundleIdentifier)
	return nil
}

func (l *fakeLauncher) Terminate(_ context.Context, app RunningApp) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.terminated = append(l.terminated, app.BundleIdentifier)
	return nil
}

func (l *fakeLauncher) launchCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.launched)
}

type openCall struct {
	target string
	app    *model.Application
}

type fakeOpener struct {
	opened   []openCall
	revealed []string
	err      error
}

func (o *fakeOpener) Open(_ context.Context, target string, app *model.Application) error {
	o.opened = append(o.opened, openCall{target, app})
	return o.err
}

func (o *fakeOpener) Reveal(_ context.Context, path string) error {
	o.revealed = append(o.revealed, path)
	return o.err
}

type fakeWindows struct {
	byScope map[model.WindowScope][]Window
	focused []Window
	err     error
}

func (w *fakeWindows) VisibleWindows(_ context.Context, scope model.WindowScope) ([]Window, error) {
	if w.err != nil {
		return nil, w.err
	}
	return w.byScope[scope], nil
}

func (w *fakeWindows) FocusWindow(_ context.Context, win Window) error {
	w.focused = append(w.focused, win)
	return nil
}

type fakeMenus struct {
	results map[int]error
	pressed []int
	titles  []string
}

func (m *fakeMenus) PressMenuItem(_ context.Context, pid int, title string) error {
	m.pressed = append(m.pressed, pid)
	m.titles = append(m.titles, title)
	return m.results[pid]
}

type fakeSpaces struct{ calls []string }

func (s *fakeSpaces) MissionControl(context.Context) error {
	s.calls = append(s.calls, "missionControl")
	return nil
}

func (s *fakeSpaces) ApplicationWindows(context.Context) error {
	s.calls = append(s.calls, "applicationWindows")
	return nil
}

func (s *fakeSpaces) ShowDesktop(context.Context) error {
	s.calls = append(s.calls, "showDesktop")
	return nil
}

type fakeExecutor struct {
	bodies []string
	langs  []model.ScriptLanguage
	result ProcessResult
	err    error
	block  bool
}

func (e *fakeExecutor) Execute(ctx context.Context, body string, lang model.ScriptLanguage) (ProcessResult, error) {
	e.bodies = append(e.bodies, body)
	e.langs = append(e.langs, lang)
	if e.block {
		<-ctx.Done()
		return ProcessResult{ExitCode: -1}, ctx.Err()
	}
	return e.result, e.err
}

type fakeShortcuts struct {
	installed []string
	invoked   []string
	viewed    []string
}

func (s *fakeShortcuts) Shortcuts(context.Context) ([]string, error) { return s.installed, nil }

func (s *fakeShortcuts) Invoke(_ context.Context, id string) error {
	s.invoked = append(s.invoked, id)
	return nil
}

func (s *fakeShortcuts) View(_ context.Context, id string) error {
	s.viewed = append(s.viewed, id)
	return nil
}

type fakePasteboard struct {
	mu      sync.Mutex
	content string
	writes  []string
	readErr error
}

func (p *fakePasteboard) ReadAll() (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.readErr != nil {
		return "", p.readErr
	}
	return p.content, nil
}

func (p *fakePasteboard) WriteAll(text string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.content = text
	p.writes = append(p.writes, text)
	return nil
}

type fakePoster struct {
	mu     sync.Mutex
	events []input.KeyEvent
	typed  []string
}

func (p *fakePoster) PostKey(ev input.KeyEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return nil
}

func (p *fakePoster) TypeText(text string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.typed = append(p.typed, text)
	return nil
}
