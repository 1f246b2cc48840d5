package platform

import (
	"context"

	"github.com/msageha/deskflow/internal/model"
)

// Opener opens paths and URLs with open(1).
type Opener struct {
	Tool
}

func (o Opener) Open(ctx context.Context, target string, app *model.Application) error {
	return o.run(ctx, "open", openArgs(target, app)...)
}

func (o Opener) Reveal(ctx context.Context, path string) error {
	return o.run(ctx, "open", "-R", path)
}

func openArgs(target string, app *model.Application) []string {
	switch {
	case app == nil:
		return []string{target}
	case app.Path != "":
		return []string{"-a", app.Path, target}
	case app.BundleIdentifier != "":
		return []string{"-b", app.BundleIdentifier, target}
	}
	return []string{target}
}
