package model

import (
	"fmt"
	"strings"
)

// CommandKind is the tag of a Command variant.
type CommandKind string

const (
	KindApplication CommandKind = "application"
	KindBuiltIn     CommandKind = "builtIn"
	KindKeyboard    CommandKind = "keyboard"
	KindOpen        CommandKind = "open"
	KindScript      CommandKind = "script"
	KindShortcut    CommandKind = "shortcut"
	KindType        CommandKind = "type"
	KindSystem      CommandKind = "systemCommand"
)

var validCommandKinds = map[CommandKind]bool{
	KindApplication: true,
	KindBuiltIn:     true,
	KindKeyboard:    true,
	KindOpen:        true,
	KindScript:      true,
	KindShortcut:    true,
	KindType:        true,
	KindSystem:      true,
}

// MetaData is shared by every command variant.
type MetaData struct {
	ID           string `yaml:"id"`
	Name         string `yaml:"name,omitempty"`
	IsEnabled    bool   `yaml:"enabled"`
	Notification bool   `yaml:"notification,omitempty"`
}

// Command is one unit of automation work. The set of implementations is
// closed: only the variants in this package satisfy it.
type Command interface {
	Kind() CommandKind
	Meta() MetaData
	isCommand()
}

// ApplicationAction selects what an ApplicationCommand does.
type ApplicationAction string

const (
	ApplicationActionOpen  ApplicationAction = "open"
	ApplicationActionClose ApplicationAction = "close"
)

// ApplicationModifier adjusts how an application is opened.
type ApplicationModifier string

const (
	ApplicationModifierBackground       ApplicationModifier = "background"
	ApplicationModifierHidden           ApplicationModifier = "hidden"
	ApplicationModifierOnlyIfNotRunning ApplicationModifier = "onlyIfNotRunning"
)

// Application identifies an installed application bundle.
type Application struct {
	BundleIdentifier string `yaml:"bundle_identifier"`
	BundleName       string `yaml:"bundle_name,omitempty"`
	Path             string `yaml:"path,omitempty"`
}

type ApplicationCommand struct {
	MetaData    `yaml:",inline"`
	Action      ApplicationAction     `yaml:"action"`
	Modifiers   []ApplicationModifier `yaml:"modifiers,omitempty"`
	Application Application           `yaml:"application"`
}

// HasModifier reports whether m is set on the command.
func (c ApplicationCommand) HasModifier(m ApplicationModifier) bool {
	for _, have := range c.Modifiers {
		if have == m {
			return true
		}
	}
	return false
}

// BuiltInKind enumerates the commands implemented by deskflow itself.
type BuiltInKind string

const (
	BuiltInQuickRun            BuiltInKind = "quickRun"
	BuiltInRecordSequence      BuiltInKind = "recordSequence"
	BuiltInRepeatLastKeystroke BuiltInKind = "repeatLastKeystroke"
)

type BuiltInCommand struct {
	MetaData    `yaml:",inline"`
	BuiltInKind BuiltInKind `yaml:"builtin"`
}

type KeyboardCommand struct {
	MetaData          `yaml:",inline"`
	KeyboardShortcuts []KeyShortcut `yaml:"keyboard_shortcuts"`
}

type OpenCommand struct {
	MetaData    `yaml:",inline"`
	Path        string       `yaml:"path"`
	Application *Application `yaml:"application,omitempty"`
}

// ScriptLanguage selects the interpreter of a ScriptCommand.
type ScriptLanguage string

const (
	ScriptAppleScript ScriptLanguage = "appleScript"
	ScriptShell       ScriptLanguage = "shell"
)

// ScriptSource holds either a file path or an inline body. Path wins when
// both are set.
type ScriptSource struct {
	Path   string `yaml:"path,omitempty"`
	Inline string `yaml:"inline,omitempty"`
}

// IsPath reports whether the script body lives in a file.
func (s ScriptSource) IsPath() bool { return s.Path != "" }

type ScriptCommand struct {
	MetaData `yaml:",inline"`
	Language ScriptLanguage `yaml:"language"`
	Source   ScriptSource   `yaml:"source"`
}

type ShortcutCommand struct {
	MetaData           `yaml:",inline"`
	ShortcutIdentifier string `yaml:"shortcut"`
}

// TypeMode selects how a TypeCommand delivers its text.
type TypeMode string

const (
	TypeModeTyping  TypeMode = "typing"
	TypeModeInstant TypeMode = "instant"
)

type TypeCommand struct {
	MetaData `yaml:",inline"`
	Input    string   `yaml:"input"`
	Mode     TypeMode `yaml:"mode,omitempty"`
}

type SystemCommand struct {
	MetaData   `yaml:",inline"`
	SystemKind SystemCommandKind `yaml:"system"`
}

func (ApplicationCommand) Kind() CommandKind { return KindApplication }
func (BuiltInCommand) Kind() CommandKind     { return KindBuiltIn }
func (KeyboardCommand) Kind() CommandKind    { return KindKeyboard }
func (OpenCommand) Kind() CommandKind        { return KindOpen }
func (ScriptCommand) Kind() CommandKind      { return KindScript }
func (ShortcutCommand) Kind() CommandKind    { return KindShortcut }
func (TypeCommand) Kind() CommandKind        { return KindType }
func (SystemCommand) Kind() CommandKind      { return KindSystem }

func (c ApplicationCommand) Meta() MetaData { return c.MetaData }
func (c BuiltInCommand) Meta() MetaData     { return c.MetaData }
func (c KeyboardCommand) Meta() MetaData    { return c.MetaData }
func (c OpenCommand) Meta() MetaData        { return c.MetaData }
func (c ScriptCommand) Meta() MetaData      { return c.MetaData }
func (c ShortcutCommand) Meta() MetaData    { return c.MetaData }
func (c TypeCommand) Meta() MetaData        { return c.MetaData }
func (c SystemCommand) Meta() MetaData      { return c.MetaData }

func (ApplicationCommand) isCommand() {}
func (BuiltInCommand) isCommand()     {}
func (KeyboardCommand) isCommand()    {}
func (OpenCommand) isCommand()        {}
func (ScriptCommand) isCommand()      {}
func (ShortcutCommand) isCommand()    {}
func (TypeCommand) isCommand()        {}
func (SystemCommand) isCommand()      {}

// DisplayName returns the override name, falling back to a name derived
// from the command parameters.
func DisplayName(cmd Command) string {
	if name := cmd.Meta().Name; name != "" {
		return name
	}
	switch c := cmd.(type) {
	case ApplicationCommand:
		name := c.Application.BundleName
		if name == "" {
			name = c.Application.BundleIdentifier
		}
		if c.Action == ApplicationActionClose {
			return "Close " + name
		}
		return "Open " + name
	case BuiltInCommand:
		return string(c.BuiltInKind)
	case KeyboardCommand:
		specs := make([]string, 0, len(c.KeyboardShortcuts))
		for _, ks := range c.KeyboardShortcuts {
			specs = append(specs, ks.Pretty())
		}
		return "Run keyboard shortcut " + strings.Join(specs, " ")
	case OpenCommand:
		return "Open " + c.Path
	case ScriptCommand:
		if c.Source.IsPath() {
			return "Run " + c.Source.Path
		}
		return fmt.Sprintf("Run %s script", c.Language)
	case ShortcutCommand:
		return "Run shortcut " + c.ShortcutIdentifier
	case TypeCommand:
		return "Type input"
	case SystemCommand:
		return c.SystemKind.DisplayValue()
	}
	return string(cmd.Kind())
}

// Describe renders a single-line description used in run logs.
func Describe(cmd Command) string {
	meta := cmd.Meta()
	return fmt.Sprintf("%s(%s) %q", cmd.Kind(), meta.ID, DisplayName(cmd))
}
