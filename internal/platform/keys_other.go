//go:build !darwin

package platform

import (
	"github.com/msageha/deskflow/internal/input"
	"github.com/msageha/deskflow/internal/runner"
)

// KeyPoster rejects every event outside macOS.
type KeyPoster struct{}

func NewKeyPoster() input.Poster { return KeyPoster{} }

func (KeyPoster) PostKey(input.KeyEvent) error { return runner.ErrUnsupported }

func (KeyPoster) TypeText(string) error { return runner.ErrUnsupported }
