package engine

import (
	"sync"

	"github.com/msageha/deskflow/internal/model"
)

// LastExecuted is the single-slot record of the most recent command that
// asked for a notification. Each Set overwrites the slot.
type LastExecuted struct {
	mu      sync.RWMutex
	cmd     model.Command
	version uint64
}

func (l *LastExecuted) Set(cmd model.Command) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.cmd = cmd
	l.version++
}

// Get returns the current command, or ok=false if none was set.
func (l *LastExecuted) Get() (cmd model.Command, ok bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.cmd, l.cmd != nil
}

// Version counts Set calls.
func (l *LastExecuted) Version() uint64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.version
}
