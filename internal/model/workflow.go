package model

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// ExecutionMode selects how the run coordinator executes a workflow.
type ExecutionMode string

const (
	ExecutionSerial     ExecutionMode = "serial"
	ExecutionConcurrent ExecutionMode = "concurrent"
)

// ApplicationContext is the application event an application trigger fires on.
type ApplicationContext string

const (
	ContextLaunched  ApplicationContext = "launched"
	ContextClosed    ApplicationContext = "closed"
	ContextFrontMost ApplicationContext = "frontMost"
)

type ApplicationTrigger struct {
	BundleIdentifier string               `yaml:"bundle_identifier"`
	Contexts         []ApplicationContext `yaml:"contexts"`
}

// Fires reports whether the trigger is interested in ctx for bundleID.
func (t ApplicationTrigger) Fires(bundleID string, ctx ApplicationContext) bool {
	if t.BundleIdentifier != bundleID {
		return false
	}
	for _, c := range t.Contexts {
		if c == ctx {
			return true
		}
	}
	return false
}

// Trigger is either a set of keyboard shortcuts or application triggers.
type Trigger struct {
	KeyboardShortcuts []KeyShortcut        `yaml:"keyboard_shortcuts,omitempty"`
	Applications      []ApplicationTrigger `yaml:"applications,omitempty"`
}

type Workflow struct {
	ID        string        `yaml:"id"`
	Name      string        `yaml:"name"`
	IsEnabled bool          `yaml:"enabled"`
	Execution ExecutionMode `yaml:"execution,omitempty"`
	Trigger   Trigger       `yaml:"trigger,omitempty"`
	Commands  Commands      `yaml:"commands"`
}

// UnmarshalYAML defaults IsEnabled to true when the key is absent.
func (w *Workflow) UnmarshalYAML(node *yaml.Node) error {
	type plain Workflow
	p := plain{IsEnabled: true}
	if err := node.Decode(&p); err != nil {
		return err
	}
	*w = Workflow(p)
	return nil
}

// Resolve returns the enabled commands in list order. Disabled commands
// never reach the engine.
func (w Workflow) Resolve() []Command {
	out := make([]Command, 0, len(w.Commands))
	for _, cmd := range w.Commands {
		if cmd.Meta().IsEnabled {
			out = append(out, cmd)
		}
	}
	return out
}

// MatchesShortcut reports whether any keyboard trigger equals ks.
func (w Workflow) MatchesShortcut(ks KeyShortcut) bool {
	for _, have := range w.Trigger.KeyboardShortcuts {
		if have.Matches(ks) {
			return true
		}
	}
	return false
}

// Validate checks the workflow and its commands. Command ids must be
// unique within the workflow.
func (w Workflow) Validate() error {
	if w.ID == "" {
		return fmt.Errorf("workflow %q has no id", w.Name)
	}
	switch w.Execution {
	case "", ExecutionSerial, ExecutionConcurrent:
	default:
		return fmt.Errorf("workflow %s: unknown execution mode %q", w.ID, w.Execution)
	}
	seen := make(map[string]bool, len(w.Commands))
	for _, cmd := range w.Commands {
		if err := ValidateCommand(cmd); err != nil {
			return fmt.Errorf("workflow %s: %w", w.ID, err)
		}
		id := cmd.Meta().ID
		if seen[id] {
			return fmt.Errorf("workflow %s: duplicate command id %q", w.ID, id)
		}
		seen[id] = true
	}
	for _, at := range w.Trigger.Applications {
		for _, c := range at.Contexts {
			switch c {
			case ContextLaunched, ContextClosed, ContextFrontMost:
			default:
				return fmt.Errorf("workflow %s: unknown application context %q", w.ID, c)
			}
		}
	}
	return nil
}

// FindWorkflow looks a workflow up by id, then by case-insensitive name.
func FindWorkflow(workflows []Workflow, ref string) (Workflow, bool) {
	for _, w := range workflows {
		if w.ID == ref {
			return w, true
		}
	}
	for _, w := range workflows {
		if strings.EqualFold(w.Name, ref) {
			return w, true
		}
	}
	return Workflow{}, false
}
