package daemon

import (
	"context"
	"sort"

	"github.com/msageha/deskflow/internal/model"
	"github.com/msageha/deskflow/internal/runner"
)

// appSnapshot is the set of running bundles and the frontmost one at one
// poll.
type appSnapshot struct {
	running map[string]bool
	front   string
}

type appChange struct {
	BundleID string
	Context  model.ApplicationContext
}

// diffApplications lists what changed between two polls: closed bundles,
// then launched ones, then a new frontmost application. Within each
// group bundles are sorted.
func diffApplications(prev, next appSnapshot) []appChange {
	var closed, launched []string
	for id := range prev.running {
		if !next.running[id] {
			closed = append(closed, id)
		}
	}
	for id := range next.running {
		if !prev.running[id] {
			launched = append(launched, id)
		}
	}
	sort.Strings(closed)
	sort.Strings(launched)

	changes := make([]appChange, 0, len(closed)+len(launched)+1)
	for _, id := range closed {
		changes = append(changes, appChange{BundleID: id, Context: model.ContextClosed})
	}
	for _, id := range launched {
		changes = append(changes, appChange{BundleID: id, Context: model.ContextLaunched})
	}
	if next.front != "" && next.front != prev.front {
		changes = append(changes, appChange{BundleID: next.front, Context: model.ContextFrontMost})
	}
	return changes
}

// triggeredWorkflows returns the enabled workflows an application change
// fires, in config order.
func triggeredWorkflows(workflows []model.Workflow, ch appChange) []model.Workflow {
	var out []model.Workflow
	for _, w := range workflows {
		if !w.IsEnabled {
			continue
		}
		for _, at := range w.Trigger.Applications {
			if at.Fires(ch.BundleID, ch.Context) {
				out = append(out, w)
				break
			}
		}
	}
	return out
}

// shortcutWorkflows returns the enabled workflows bound to ks.
func shortcutWorkflows(workflows []model.Workflow, ks model.KeyShortcut) []model.Workflow {
	var out []model.Workflow
	for _, w := range workflows {
		if w.IsEnabled && w.MatchesShortcut(ks) {
			out = append(out, w)
		}
	}
	return out
}

func hasApplicationTriggers(workflows []model.Workflow) bool {
	for _, w := range workflows {
		if w.IsEnabled && len(w.Trigger.Applications) > 0 {
			return true
		}
	}
	return false
}

// appWatcher turns successive application directory polls into changes.
// The first poll only records a baseline.
type appWatcher struct {
	dir  runner.ApplicationDirectory
	prev *appSnapshot
}

func (w *appWatcher) poll(ctx context.Context) ([]appChange, error) {
	apps, err := w.dir.RunningApplications(ctx)
	if err != nil {
		return nil, err
	}
	next := appSnapshot{running: make(map[string]bool, len(apps))}
	for _, a := range apps {
		if a.BundleIdentifier != "" {
			next.running[a.BundleIdentifier] = true
		}
	}
	prev := w.prev
	if front, err := w.dir.FrontmostApplication(ctx); err == nil {
		next.front = front.BundleIdentifier
	} else if prev != nil {
		// no frontmost app (e.g. during a space switch) is not a change
		next.front = prev.front
	}

	w.prev = &next
	if prev == nil {
		return nil, nil
	}
	return diffApplications(*prev, next), nil
}

// reset forgets the baseline, so the next poll fires nothing.
func (w *appWatcher) reset() {
	w.prev = nil
}
