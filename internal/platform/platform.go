package platform

import (
	"github.com/atotto/clipboard"

	"github.com/msageha/deskflow/internal/input"
)

// Pasteboard is the general pasteboard.
type Pasteboard struct{}

func (Pasteboard) ReadAll() (string, error) { return clipboard.ReadAll() }

func (Pasteboard) WriteAll(text string) error { return clipboard.WriteAll(text) }

// Capabilities bundles every macOS capability the runners need.
type Capabilities struct {
	Applications Applications
	Opener       Opener
	Windows      Windows
	Menus        Menus
	Spaces       Spaces
	Scripts      Scripts
	Shortcuts    Shortcuts
	Pasteboard   Pasteboard
	Keys         input.Poster
}

// New returns the capabilities backed by the system tools. shell runs
// shell scripts.
func New(shell string) Capabilities {
	return Capabilities{
		Scripts: Scripts{Shell: shell},
		Keys:    NewKeyPoster(),
	}
}
