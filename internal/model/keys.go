package model

import (
	"fmt"
	"strings"
)

// ModifierKey is a keyboard modifier, stored by its compact symbol.
type ModifierKey string

const (
	ModifierShift    ModifierKey = "$"
	ModifierFunction ModifierKey = "fn"
	ModifierControl  ModifierKey = "^"
	ModifierOption   ModifierKey = "~"
	ModifierCommand  ModifierKey = "@"
)

// AllModifiers lists modifiers in canonical order.
var AllModifiers = []ModifierKey{
	ModifierShift,
	ModifierFunction,
	ModifierControl,
	ModifierOption,
	ModifierCommand,
}

// Pretty returns the glyph shown for the modifier.
func (m ModifierKey) Pretty() string {
	switch m {
	case ModifierFunction:
		return "ƒ"
	case ModifierShift:
		return "⇧"
	case ModifierControl:
		return "⌃"
	case ModifierOption:
		return "⌥"
	case ModifierCommand:
		return "⌘"
	}
	return string(m)
}

// Name returns the lowercase modifier name understood by key posting
// backends ("shift", "fn", "ctrl", "alt", "cmd").
func (m ModifierKey) Name() string {
	switch m {
	case ModifierShift:
		return "shift"
	case ModifierFunction:
		return "fn"
	case ModifierControl:
		return "ctrl"
	case ModifierOption:
		return "alt"
	case ModifierCommand:
		return "cmd"
	}
	return ""
}

// Valid reports whether m is a known modifier.
func (m ModifierKey) Valid() bool {
	return m.Name() != ""
}

// KeyShortcut is a key plus held modifiers.
type KeyShortcut struct {
	Key       string        `yaml:"key"`
	Modifiers []ModifierKey `yaml:"modifiers,omitempty"`
}

// Pretty renders the shortcut the way menus show it, e.g. "⌥⌘F".
func (k KeyShortcut) Pretty() string {
	var b strings.Builder
	for _, m := range k.Modifiers {
		b.WriteString(m.Pretty())
	}
	b.WriteString(strings.ToUpper(k.Key))
	return b.String()
}

// Spec renders the compact form accepted by ParseKeySpec, with modifiers
// in canonical order.
func (k KeyShortcut) Spec() string {
	var b strings.Builder
	for _, m := range AllModifiers {
		for _, have := range k.Modifiers {
			if have == m {
				b.WriteString(string(m))
				break
			}
		}
	}
	b.WriteString(k.Key)
	return b.String()
}

// Matches reports whether two shortcuts denote the same key chord,
// ignoring modifier order and key case.
func (k KeyShortcut) Matches(other KeyShortcut) bool {
	return strings.EqualFold(k.Spec(), other.Spec())
}

// ParseKeySpec parses a compact key spec such as "@~F" or "fn$space".
// Modifier symbols come first; the remainder is the key.
func ParseKeySpec(spec string) (KeyShortcut, error) {
	rest := strings.TrimSpace(spec)
	var mods []ModifierKey
	for rest != "" {
		matched := false
		for _, m := range AllModifiers {
			if strings.HasPrefix(rest, string(m)) && len(rest) > len(m) {
				mods = append(mods, m)
				rest = rest[len(m):]
				matched = true
				break
			}
		}
		if !matched {
			break
		}
	}
	if rest == "" {
		return KeyShortcut{}, fmt.Errorf("key spec %q has no key", spec)
	}
	return KeyShortcut{Key: rest, Modifiers: mods}, nil
}
