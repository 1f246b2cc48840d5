package platform

import (
	"strings"

	"github.com/msageha/deskflow/internal/model"
)

var keyAliases = map[string]string{
	"return":        "enter",
	"esc":           "escape",
	"del":           "delete",
	"forwarddelete": "delete",
	"↩":             "enter",
	"⎋":             "escape",
	"⌫":             "backspace",
	"⇥":             "tab",
	"↑":             "up",
	"↓":             "down",
	"←":             "left",
	"→":             "right",
	"pgup":          "pageup",
	"pgdn":          "pagedown",
}

// keyName maps a configured key to the name the key poster expects.
func keyName(key string) string {
	k := strings.ToLower(strings.TrimSpace(key))
	if alias, ok := keyAliases[k]; ok {
		return alias
	}
	return k
}

// modifierNames returns the poster's modifier names. The function key
// has no posting equivalent and is dropped.
func modifierNames(mods []model.ModifierKey) []string {
	var out []string
	for _, m := range mods {
		if m == model.ModifierFunction {
			continue
		}
		if name := m.Name(); name != "" {
			out = append(out, name)
		}
	}
	return out
}
