package model

import "testing"

func TestIsSessionTerminal(t *testing.T) {
	tests := []struct {
		state    SessionState
		terminal bool
	}{
		{SessionIdle, false},
		{SessionRunning, false},
		{SessionCompleted, true},
		{SessionFailedPartial, true},
		{SessionCancelled, true},
	}
	for _, tt := range tests {
		t.Run(string(tt.state), func(t *testing.T) {
			if got := IsSessionTerminal(tt.state); got != tt.terminal {
				t.Errorf("IsSessionTerminal(%q) = %v, want %v", tt.state, got, tt.terminal)
			}
		})
	}
}

func TestValidateSessionTransition(t *testing.T) {
	tests := []struct {
		from, to SessionState
		valid    bool
	}{
		{SessionIdle, SessionRunning, true},
		{SessionIdle, SessionCancelled, true},
		{SessionIdle, SessionCompleted, false},
		{SessionRunning, SessionRunning, true},
		{SessionRunning, SessionCompleted, true},
		{SessionRunning, SessionFailedPartial, true},
		{SessionRunning, SessionCancelled, true},
		{SessionRunning, SessionIdle, false},
		{SessionCompleted, SessionRunning, false},
		{SessionCancelled, SessionRunning, false},
		{SessionFailedPartial, SessionCompleted, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			err := ValidateSessionTransition(tt.from, tt.to)
			if tt.valid && err != nil {
				t.Errorf("expected valid transition, got %v", err)
			}
			if !tt.valid && err == nil {
				t.Error("expected invalid transition")
			}
		})
	}
}
