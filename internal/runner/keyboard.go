package runner

import (
	"context"
	"time"

	"github.com/msageha/deskflow/internal/input"
	"github.com/msageha/deskflow/internal/model"
)

// SleepCtx sleeps for d or returns early with ctx.Err().
func SleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// KeyboardRunner posts each shortcut as one key-down and one key-up
// separated by gap, holding the event source for the whole command.
type KeyboardRunner struct {
	src *input.Source
	gap time.Duration
}

func NewKeyboardRunner(src *input.Source, gap time.Duration) *KeyboardRunner {
	return &KeyboardRunner{src: src, gap: gap}
}

func (r *KeyboardRunner) Run(ctx context.Context, cmd model.KeyboardCommand) error {
	if err := r.press(ctx, cmd.KeyboardShortcuts); err != nil {
		return err
	}
	r.src.Remember(cmd.KeyboardShortcuts)
	return nil
}

// Replay posts the shortcuts of the last successful keyboard command.
// With no previous command it does nothing.
func (r *KeyboardRunner) Replay(ctx context.Context) error {
	return r.press(ctx, r.src.LastShortcuts())
}

func (r *KeyboardRunner) press(ctx context.Context, shortcuts []model.KeyShortcut) error {
	if len(shortcuts) == 0 {
		return nil
	}
	gap := func(ctx context.Context) error { return SleepCtx(ctx, r.gap) }
	err := r.src.Exclusive(ctx, func(st input.Stream) error {
		for _, ks := range shortcuts {
			if err := input.PressShortcut(ctx, st, ks, gap); err != nil {
				return err
			}
		}
		return nil
	})
	return execFailed("post keyboard shortcut", err)
}
