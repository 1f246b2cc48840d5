package runner

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound marks a target that does not exist.
	ErrNotFound = errors.New("not found")
	// ErrLaunchTimeout is returned when a launched application does not
	// show up in the running list in time.
	ErrLaunchTimeout = errors.New("application launch timed out")
	// ErrMenuItemNotFound is returned by MenuBar implementations when the
	// process has no menu item with the requested title.
	ErrMenuItemNotFound = errors.New("menu item not found")
	// ErrUnsupported is returned for actions a platform cannot perform.
	ErrUnsupported = errors.New("unsupported on this platform")
)

// ResolutionError reports a target that could not be resolved.
type ResolutionError struct {
	Target string // "application", "path", "shortcut", "window", "script"
	Name   string
	Err    error
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("resolve %s %q: %v", e.Target, e.Name, e.Err)
}

func (e *ResolutionError) Unwrap() error { return e.Err }

// ExecutionError reports a failed OS or process call.
type ExecutionError struct {
	Op  string
	Err error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *ExecutionError) Unwrap() error { return e.Err }

// ExitError is a script that ran and exited non-zero.
type ExitError struct {
	Code   int
	Stderr string
}

func (e *ExitError) Error() string {
	msg := strings.TrimSpace(e.Stderr)
	if msg == "" {
		return fmt.Sprintf("exit status %d", e.Code)
	}
	return fmt.Sprintf("exit status %d: %s", e.Code, msg)
}

// IsCancellation reports whether err stems from context cancellation
// rather than a runner failure.
func IsCancellation(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

func notFound(target, name string) error {
	return &ResolutionError{Target: target, Name: name, Err: ErrNotFound}
}

// execFailed wraps err as an ExecutionError unless it is a cancellation,
// which is passed through untouched.
func execFailed(op string, err error) error {
	if err == nil || IsCancellation(err) {
		return err
	}
	var re *ResolutionError
	if errors.As(err, &re) {
		return err
	}
	return &ExecutionError{Op: op, Err: err}
}
