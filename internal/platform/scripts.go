package platform

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/msageha/deskflow/internal/model"
	"github.com/msageha/deskflow/internal/runner"
)

// Scripts runs shell scripts with Shell and AppleScript with osascript.
// The body is passed on stdin.
type Scripts struct {
	Tool
	Shell string
}

func (s Scripts) Execute(ctx context.Context, body string, lang model.ScriptLanguage) (runner.ProcessResult, error) {
	name, args, err := s.interpreter(lang)
	if err != nil {
		return runner.ProcessResult{}, err
	}
	cmd := s.cmd(ctx, name, args...)
	cmd.Stdin = strings.NewReader(body)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err = cmd.Run()
	res := runner.ProcessResult{Stdout: stdout.String(), Stderr: stderr.String()}
	if ctx.Err() != nil {
		return res, ctx.Err()
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		res.ExitCode = exitErr.ExitCode()
		return res, nil
	}
	if err != nil {
		return res, fmt.Errorf("%s: %w", name, err)
	}
	return res, nil
}

func (s Scripts) interpreter(lang model.ScriptLanguage) (string, []string, error) {
	switch lang {
	case model.ScriptShell:
		shell := s.Shell
		if shell == "" {
			shell = "/bin/zsh"
		}
		return shell, []string{"-s"}, nil
	case model.ScriptAppleScript:
		return "osascript", []string{"-"}, nil
	}
	return "", nil, fmt.Errorf("script language %q: %w", lang, runner.ErrUnsupported)
}

// Shortcuts drives the Shortcuts app through shortcuts(1).
type Shortcuts struct {
	Tool
}

func (s Shortcuts) Shortcuts(ctx context.Context) ([]string, error) {
	out, err := s.output(ctx, "shortcuts", "list")
	if err != nil {
		return nil, err
	}
	return parseShortcutList(out), nil
}

func (s Shortcuts) Invoke(ctx context.Context, identifier string) error {
	return s.run(ctx, "shortcuts", "run", identifier)
}

func (s Shortcuts) View(ctx context.Context, identifier string) error {
	return s.run(ctx, "shortcuts", "view", identifier)
}

func parseShortcutList(out string) []string {
	var names []string
	sc := bufio.NewScanner(strings.NewReader(out))
	for sc.Scan() {
		if name := strings.TrimSpace(sc.Text()); name != "" {
			names = append(names, name)
		}
	}
	return names
}
