package runner

import (
	"context"
	"time"

	"github.com/msageha/deskflow/internal/input"
	"github.com/msageha/deskflow/internal/model"
)

var pasteShortcut = model.KeyShortcut{Key: "v", Modifiers: []model.ModifierKey{model.ModifierCommand}}

// TypeRunner reproduces literal text. Typing mode posts one keystroke per
// rune; instant mode pastes through the clipboard and puts the previous
// clipboard contents back afterwards.
type TypeRunner struct {
	src          *input.Source
	pasteboard   Pasteboard
	gap          time.Duration
	restoreDelay time.Duration
}

func NewTypeRunner(src *input.Source, pasteboard Pasteboard, gap, restoreDelay time.Duration) *TypeRunner {
	return &TypeRunner{src: src, pasteboard: pasteboard, gap: gap, restoreDelay: restoreDelay}
}

func (r *TypeRunner) Run(ctx context.Context, cmd model.TypeCommand) error {
	if cmd.Mode == model.TypeModeInstant && r.pasteboard != nil {
		return r.paste(ctx, cmd.Input)
	}
	err := r.src.Exclusive(ctx, func(st input.Stream) error {
		return st.Type(ctx, cmd.Input)
	})
	return execFailed("type text", err)
}

func (r *TypeRunner) paste(ctx context.Context, text string) error {
	// Non-text contents cannot be read back, so they are not restored.
	previous, readErr := r.pasteboard.ReadAll()
	if err := r.pasteboard.WriteAll(text); err != nil {
		return execFailed("write clipboard", err)
	}
	if readErr == nil {
		defer func() { _ = r.pasteboard.WriteAll(previous) }()
	}

	gap := func(ctx context.Context) error { return SleepCtx(ctx, r.gap) }
	err := r.src.Exclusive(ctx, func(st input.Stream) error {
		return input.PressShortcut(ctx, st, pasteShortcut, gap)
	})
	if err != nil {
		return execFailed("paste text", err)
	}
	// the target application reads the clipboard asynchronously
	return SleepCtx(ctx, r.restoreDelay)
}
