// Package platform implements the runner capabilities on macOS.
//
// Everything talks to the system through command-line tools (open,
// osascript, shortcuts, mdfind) except key posting, which goes through
// robotgo, and the pasteboard, which goes through atotto/clipboard.
package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"
)

// commandFunc builds the *exec.Cmd for every external call; tests
// replace it to capture argument lists.
type commandFunc func(ctx context.Context, name string, args ...string) *exec.Cmd

// Tool runs external commands. The zero value uses exec.CommandContext.
type Tool struct {
	command commandFunc
}

func (t Tool) cmd(ctx context.Context, name string, args ...string) *exec.Cmd {
	if t.command != nil {
		return t.command(ctx, name, args...)
	}
	return exec.CommandContext(ctx, name, args...)
}

func (t Tool) run(ctx context.Context, name string, args ...string) error {
	_, err := t.output(ctx, name, args...)
	return err
}

func (t Tool) output(ctx context.Context, name string, args ...string) (string, error) {
	cmd := t.cmd(ctx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(stderr.String()))
	}
	return stdout.String(), nil
}

// jxa runs a JavaScript for Automation program. Arguments reach the
// program's run(argv) function untouched, so nothing needs quoting.
func (t Tool) jxa(ctx context.Context, program string, args ...string) (string, error) {
	argv := append([]string{"-l", "JavaScript", "-e", program}, args...)
	out, err := t.output(ctx, "osascript", argv...)
	return strings.TrimSpace(out), err
}

// jxaJSON runs program and decodes its JSON result into v.
func (t Tool) jxaJSON(ctx context.Context, v any, program string, args ...string) error {
	out, err := t.jxa(ctx, program, args...)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(out), v); err != nil {
		return fmt.Errorf("decode osascript output: %w", err)
	}
	return nil
}
