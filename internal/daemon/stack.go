package daemon

import (
	"log/slog"
	"time"

	"github.com/msageha/deskflow/internal/engine"
	"github.com/msageha/deskflow/internal/events"
	"github.com/msageha/deskflow/internal/input"
	"github.com/msageha/deskflow/internal/model"
	"github.com/msageha/deskflow/internal/platform"
	"github.com/msageha/deskflow/internal/runner"
)

func ms(n int) time.Duration { return time.Duration(n) * time.Millisecond }

// NewEngine wires every runner to the macOS capabilities. The daemon and
// `deskflow exec` share it.
func NewEngine(ec model.EngineConfig, caps platform.Capabilities, bus *events.Bus, rec engine.RunRecorder, logger *slog.Logger) (*engine.Engine, error) {
	src := input.NewSource(caps.Keys)
	keyGap := ms(ec.KeyGapMs)

	runners := engine.Runners{
		Application: runner.NewApplicationRunner(caps.Applications, caps.Applications,
			time.Duration(ec.ApplicationLaunchTimeoutSec)*time.Second, ms(ec.LaunchPollMs)),
		Keyboard: runner.NewKeyboardRunner(src, keyGap),
		Open:     runner.NewOpenRunner(caps.Opener),
		Script:   runner.NewScriptRunner(caps.Scripts),
		Shortcut: runner.NewShortcutRunner(caps.Shortcuts),
		Type:     runner.NewTypeRunner(src, caps.Pasteboard, keyGap, ms(ec.ClipboardRestoreMs)),
		System: runner.NewSystemRunner(runner.SystemDeps{
			Directory: caps.Applications,
			Launcher:  caps.Applications,
			Windows:   caps.Windows,
			Menus:     caps.Menus,
			Spaces:    caps.Spaces,
			Logger:    logger,
		}),
	}

	opts := engine.Options{
		Runners:   runners,
		Directory: caps.Applications,
		Opener:    caps.Opener,
		Shortcuts: caps.Shortcuts,
		Bus:       bus,
		Recorder:  rec,
		Logger:    logger,
	}
	return engine.New(opts)
}
