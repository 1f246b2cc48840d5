package runner

import (
	"context"

	"github.com/msageha/deskflow/internal/model"
)

type ShortcutRunner struct {
	invoker ShortcutInvoker
}

func NewShortcutRunner(invoker ShortcutInvoker) *ShortcutRunner {
	return &ShortcutRunner{invoker: invoker}
}

func (r *ShortcutRunner) Run(ctx context.Context, cmd model.ShortcutCommand) error {
	id := cmd.ShortcutIdentifier
	installed, err := r.invoker.Shortcuts(ctx)
	if err != nil {
		return execFailed("list shortcuts", err)
	}
	found := false
	for _, name := range installed {
		if name == id {
			found = true
			break
		}
	}
	if !found {
		return notFound("shortcut", id)
	}
	return execFailed("run shortcut "+id, r.invoker.Invoke(ctx, id))
}
