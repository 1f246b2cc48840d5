package model

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Commands is an ordered command list with kind-tagged YAML encoding:
//
//   - kind: open
//     id: 6a1c...
//     path: ~/Downloads
type Commands []Command

func (cs *Commands) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.SequenceNode {
		return fmt.Errorf("line %d: commands must be a list", node.Line)
	}
	out := make(Commands, 0, len(node.Content))
	for i, item := range node.Content {
		cmd, err := decodeCommand(item)
		if err != nil {
			return fmt.Errorf("commands[%d]: %w", i, err)
		}
		out = append(out, cmd)
	}
	*cs = out
	return nil
}

func (cs Commands) MarshalYAML() (any, error) {
	seq := &yaml.Node{Kind: yaml.SequenceNode}
	for i, cmd := range cs {
		item := &yaml.Node{}
		if err := item.Encode(cmd); err != nil {
			return nil, fmt.Errorf("commands[%d]: %w", i, err)
		}
		kindKey := &yaml.Node{Kind: yaml.ScalarNode, Value: "kind"}
		kindVal := &yaml.Node{Kind: yaml.ScalarNode, Value: string(cmd.Kind())}
		item.Content = append([]*yaml.Node{kindKey, kindVal}, item.Content...)
		seq.Content = append(seq.Content, item)
	}
	return seq, nil
}

func decodeCommand(node *yaml.Node) (Command, error) {
	var head struct {
		Kind CommandKind `yaml:"kind"`
	}
	if err := node.Decode(&head); err != nil {
		return nil, err
	}
	if !validCommandKinds[head.Kind] {
		return nil, fmt.Errorf("line %d: unknown command kind %q", node.Line, head.Kind)
	}

	// Decoding into a pre-filled value keeps defaults for absent keys.
	meta := MetaData{IsEnabled: true}
	switch head.Kind {
	case KindApplication:
		c := ApplicationCommand{MetaData: meta, Action: ApplicationActionOpen}
		err := node.Decode(&c)
		return c, err
	case KindBuiltIn:
		c := BuiltInCommand{MetaData: meta}
		err := node.Decode(&c)
		return c, err
	case KindKeyboard:
		c := KeyboardCommand{MetaData: meta}
		err := node.Decode(&c)
		return c, err
	case KindOpen:
		c := OpenCommand{MetaData: meta}
		err := node.Decode(&c)
		return c, err
	case KindScript:
		c := ScriptCommand{MetaData: meta, Language: ScriptShell}
		err := node.Decode(&c)
		return c, err
	case KindShortcut:
		c := ShortcutCommand{MetaData: meta}
		err := node.Decode(&c)
		return c, err
	case KindType:
		c := TypeCommand{MetaData: meta, Mode: TypeModeTyping}
		err := node.Decode(&c)
		return c, err
	default:
		c := SystemCommand{MetaData: meta}
		err := node.Decode(&c)
		return c, err
	}
}

// ValidateCommand checks the per-kind parameters of cmd.
func ValidateCommand(cmd Command) error {
	meta := cmd.Meta()
	if meta.ID == "" {
		return fmt.Errorf("%s command has no id", cmd.Kind())
	}
	switch c := cmd.(type) {
	case ApplicationCommand:
		if c.Application.BundleIdentifier == "" {
			return fmt.Errorf("command %s: application.bundle_identifier is required", meta.ID)
		}
		if c.Action != ApplicationActionOpen && c.Action != ApplicationActionClose {
			return fmt.Errorf("command %s: unknown application action %q", meta.ID, c.Action)
		}
		for _, m := range c.Modifiers {
			switch m {
			case ApplicationModifierBackground, ApplicationModifierHidden, ApplicationModifierOnlyIfNotRunning:
			default:
				return fmt.Errorf("command %s: unknown application modifier %q", meta.ID, m)
			}
		}
	case BuiltInCommand:
		switch c.BuiltInKind {
		case BuiltInQuickRun, BuiltInRecordSequence, BuiltInRepeatLastKeystroke:
		default:
			return fmt.Errorf("command %s: unknown builtin %q", meta.ID, c.BuiltInKind)
		}
	case KeyboardCommand:
		if len(c.KeyboardShortcuts) == 0 {
			return fmt.Errorf("command %s: keyboard_shortcuts is empty", meta.ID)
		}
		for _, ks := range c.KeyboardShortcuts {
			if ks.Key == "" {
				return fmt.Errorf("command %s: keyboard shortcut without key", meta.ID)
			}
			for _, m := range ks.Modifiers {
				if !m.Valid() {
					return fmt.Errorf("command %s: unknown modifier %q", meta.ID, m)
				}
			}
		}
	case OpenCommand:
		if c.Path == "" {
			return fmt.Errorf("command %s: path is required", meta.ID)
		}
	case ScriptCommand:
		if c.Language != ScriptShell && c.Language != ScriptAppleScript {
			return fmt.Errorf("command %s: unknown script language %q", meta.ID, c.Language)
		}
		if c.Source.Path == "" && c.Source.Inline == "" {
			return fmt.Errorf("command %s: script source is empty", meta.ID)
		}
	case ShortcutCommand:
		if c.ShortcutIdentifier == "" {
			return fmt.Errorf("command %s: shortcut is required", meta.ID)
		}
	case TypeCommand:
		if c.Mode != TypeModeTyping && c.Mode != TypeModeInstant {
			return fmt.Errorf("command %s: unknown type mode %q", meta.ID, c.Mode)
		}
	case SystemCommand:
		if !c.SystemKind.Valid() {
			return fmt.Errorf("command %s: unknown system command %q", meta.ID, c.SystemKind)
		}
	}
	return nil
}
