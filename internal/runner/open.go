package runner

import (
	"context"
	"errors"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/msageha/deskflow/internal/model"
)

type OpenRunner struct {
	opener Opener
}

func NewOpenRunner(opener Opener) *OpenRunner {
	return &OpenRunner{opener: opener}
}

func (r *OpenRunner) Run(ctx context.Context, cmd model.OpenCommand) error {
	target, isURL, err := ResolveOpenTarget(cmd.Path)
	if err != nil {
		return err
	}
	if !isURL {
		if _, err := os.Stat(target); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return notFound("path", target)
			}
			return &ResolutionError{Target: "path", Name: target, Err: err}
		}
	}
	return execFailed("open "+target, r.opener.Open(ctx, target, cmd.Application))
}

// ResolveOpenTarget classifies raw as a URL or a filesystem path. Paths
// have a leading ~ expanded and file:// URLs are turned into paths.
func ResolveOpenTarget(raw string) (target string, isURL bool, err error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false, notFound("path", raw)
	}
	if u, perr := url.Parse(raw); perr == nil && len(u.Scheme) > 1 {
		if u.Scheme != "file" {
			return raw, true, nil
		}
		raw = u.Path
	}
	path, err := ExpandHome(raw)
	if err != nil {
		return "", false, err
	}
	return path, false, nil
}

// ExpandHome replaces a leading "~" or "~/" with the home directory.
func ExpandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", &ResolutionError{Target: "path", Name: path, Err: err}
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}
