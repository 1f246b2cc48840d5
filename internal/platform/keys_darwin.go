//go:build darwin

package platform

import (
	"fmt"

	"github.com/go-vgo/robotgo"

	"github.com/msageha/deskflow/internal/input"
)

// KeyPoster posts key events through robotgo. The process needs the
// accessibility permission.
type KeyPoster struct{}

func NewKeyPoster() input.Poster { return KeyPoster{} }

func (KeyPoster) PostKey(ev input.KeyEvent) error {
	args := []any{ev.Type.String()}
	for _, m := range modifierNames(ev.Modifiers) {
		args = append(args, m)
	}
	if err := robotgo.KeyToggle(keyName(ev.Key), args...); err != nil {
		return fmt.Errorf("post key %s %s: %w", ev.Key, ev.Type, err)
	}
	return nil
}

func (KeyPoster) TypeText(text string) error {
	robotgo.TypeStr(text)
	return nil
}
