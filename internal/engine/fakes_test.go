package engine

import (
	"context"
	"sync"

	"github.com/msageha/deskflow/internal/model"
	"github.com/msageha/deskflow/internal/runner"
)

type record struct {
	eventType string
	details   map[string]any
}

type memRecorder struct {
	mu      sync.Mutex
	records []record
}

func (r *memRecorder) Record(eventType string, details map[string]any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, record{eventType, details})
	return nil
}

func (r *memRecorder) ofType(eventType string) []record {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []record
	for _, rec := range r.records {
		if rec.eventType == eventType {
			out = append(out, rec)
		}
	}
	return out
}

// fakeRunners implements every engine runner interface and records the
// kinds it was asked to run. hook, when set, runs inside each call.
type fakeRunners struct {
	mu      sync.Mutex
	calls   []string
	errs    map[string]error
	hook    func(ctx context.Context, id string) error
	replays int
}

func (f *fakeRunners) call(ctx context.Context, kind string, meta model.MetaData) error {
	f.mu.Lock()
	f.calls = append(f.calls, kind+":"+meta.ID)
	err := f.errs[meta.ID]
	hook := f.hook
	f.mu.Unlock()
	if hook != nil {
		if herr := hook(ctx, meta.ID); herr != nil {
			return herr
		}
	}
	return err
}

func (f *fakeRunners) recorded() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeRunners) runners() Runners {
	return Runners{
		Application: appFake{f},
		Keyboard:    keyboardFake{f},
		Open:        openFake{f},
		Script:      scriptFake{f},
		Shortcut:    shortcutFake{f},
		Type:        typeFake{f},
		System:      systemFake{f},
	}
}

type appFake struct{ f *fakeRunners }

func (a appFake) Run(ctx context.Context, c model.ApplicationCommand) error {
	return a.f.call(ctx, "application", c.MetaData)
}

type keyboardFake struct{ f *fakeRunners }

func (k keyboardFake) Run(ctx context.Context, c model.KeyboardCommand) error {
	return k.f.call(ctx, "keyboard", c.MetaData)
}

func (k keyboardFake) Replay(context.Context) error {
	k.f.mu.Lock()
	defer k.f.mu.Unlock()
	k.f.replays++
	return nil
}

type openFake struct{ f *fakeRunners }

func (o openFake) Run(ctx context.Context, c model.OpenCommand) error {
	return o.f.call(ctx, "open", c.MetaData)
}

type scriptFake struct{ f *fakeRunners }

func (s scriptFake) Run(ctx context.Context, c model.ScriptCommand) (runner.ProcessResult, error) {
	return runner.ProcessResult{Stdout: "ok"}, s.f.call(ctx, "script", c.MetaData)
}

type shortcutFake struct{ f *fakeRunners }

func (s shortcutFake) Run(ctx context.Context, c model.ShortcutCommand) error {
	return s.f.call(ctx, "shortcut", c.MetaData)
}

type typeFake struct{ f *fakeRunners }

func (t typeFake) Run(ctx context.Context, c model.TypeCommand) error {
	return t.f.call(ctx, "type", c.MetaData)
}

type systemFake struct{ f *fakeRunners }

func (s systemFake) Run(ctx context.Context, c model.SystemCommand) error {
	return s.f.call(ctx, "systemCommand", c.MetaData)
}

func meta(id string) model.MetaData {
	return model.MetaData{ID: id, IsEnabled: true}
}

func scriptCmd(id string) model.Command {
	return model.ScriptCommand{MetaData: meta(id), Language: model.ScriptShell, Source: model.ScriptSource{Inline: "true"}}
}

type fakeOpener struct {
	mu       sync.Mutex
	opened   []string
	revealed []string
}

func (o *fakeOpener) Open(_ context.Context, target string, _ *model.Application) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.opened = append(o.opened, target)
	return nil
}

func (o *fakeOpener) Reveal(_ context.Context, path string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.revealed = append(o.revealed, path)
	return nil
}

type fakeShortcuts struct{ viewed []string }

func (s *fakeShortcuts) Shortcuts(context.Context) ([]string, error) { return nil, nil }
func (s *fakeShortcuts) Invoke(context.Context, string) error        { return nil }
func (s *fakeShortcuts) View(_ context.Context, id string) error {
	s.viewed = append(s.viewed, id)
	return nil
}

type fakeDirectory struct{}

func (fakeDirectory) Lookup(_ context.Context, bundleID string) (runner.AppInfo, error) {
	if bundleID == "com.apple.Safari" {
		return runner.AppInfo{BundleIdentifier: bundleID, Path: "/Applications/Safari.app"}, nil
	}
	return runner.AppInfo{}, runner.ErrNotFound
}

func (fakeDirectory) RunningApplications(context.Context) ([]runner.RunningApp, error) {
	return nil, nil
}

func (fakeDirectory) FrontmostApplication(context.Context) (runner.RunningApp, error) {
	return runner.RunningApp{}, nil
}
