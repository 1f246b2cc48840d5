package model

import "fmt"

// SessionState is the lifecycle state of a run session.
type SessionState string

const (
	SessionIdle          SessionState = "idle"
	SessionRunning       SessionState = "running"
	SessionCompleted     SessionState = "completed"
	SessionFailedPartial SessionState = "failed_partial"
	SessionCancelled     SessionState = "cancelled"
)

// CommandStatus is the outcome of one command inside a session.
type CommandStatus string

const (
	CommandSucceeded CommandStatus = "succeeded"
	CommandFailed    CommandStatus = "failed"
	CommandAborted   CommandStatus = "aborted"
)

var terminalSessionStates = map[SessionState]bool{
	SessionCompleted:     true,
	SessionFailedPartial: true,
	SessionCancelled:     true,
}

// idle → running → terminal; running → running per executed command.
var validSessionTransitions = map[SessionState]map[SessionState]bool{
	SessionIdle: {
		SessionRunning:   true,
		SessionCancelled: true, // superseded before the goroutine started
	},
	SessionRunning: {
		SessionRunning:       true,
		SessionCompleted:     true,
		SessionFailedPartial: true,
		SessionCancelled:     true,
	},
}

func IsSessionTerminal(s SessionState) bool {
	return terminalSessionStates[s]
}

func ValidateSessionTransition(from, to SessionState) error {
	if IsSessionTerminal(from) {
		return fmt.Errorf("cannot transition from terminal session state %q", from)
	}
	allowed, ok := validSessionTransitions[from]
	if !ok {
		return fmt.Errorf("unknown session state %q", from)
	}
	if !allowed[to] {
		return fmt.Errorf("invalid session transition: %q → %q", from, to)
	}
	return nil
}
