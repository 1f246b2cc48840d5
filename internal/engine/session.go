package engine

import (
	"context"
	"sync"
	"time"

	"github.com/msageha/deskflow/internal/model"
)

// Outcome is the result of one attempted command. Commands never reached
// because the session was cancelled have no Outcome.
type Outcome struct {
	CommandID     string
	Name          string
	Kind          model.CommandKind
	CorrelationID string
	Status        model.CommandStatus
	Err           error
	StartedAt     time.Time
	Duration      time.Duration
}

// RunRequest describes a batch to start.
type RunRequest struct {
	Mode         model.ExecutionMode
	Commands     []model.Command
	WorkflowID   string
	WorkflowName string
	// Trigger names what started the run, e.g. "cli", "keyboard", "frontMost".
	Trigger string
}

// Session is one in-flight, cancellable execution of a command batch.
type Session struct {
	ID           string
	Mode         model.ExecutionMode
	WorkflowID   string
	WorkflowName string
	Trigger      string
	CreatedAt    time.Time

	commands []model.Command
	ctx      context.Context
	cancel   context.CancelFunc
	done     chan struct{}

	mu         sync.Mutex
	state      model.SessionState
	outcomes   []Outcome
	finishedAt time.Time
}

func newSession(parent context.Context, req RunRequest) *Session {
	id := model.MustGenerateID(model.IDTypeSession)
	ctx, cancel := context.WithCancel(WithSessionID(parent, id))
	mode := req.Mode
	if mode == "" {
		mode = model.ExecutionSerial
	}
	return &Session{
		ID:           id,
		Mode:         mode,
		WorkflowID:   req.WorkflowID,
		WorkflowName: req.WorkflowName,
		Trigger:      req.Trigger,
		CreatedAt:    time.Now().UTC(),
		commands:     append([]model.Command(nil), req.Commands...),
		ctx:          ctx,
		cancel:       cancel,
		done:         make(chan struct{}),
		state:        model.SessionIdle,
	}
}

// Cancel requests cancellation. It does not wait; a runner inside a
// non-cancellable OS call may still finish that call.
func (s *Session) Cancel() { s.cancel() }

// Done is closed when the session reached a terminal state.
func (s *Session) Done() <-chan struct{} { return s.done }

// Wait blocks until the session finished or ctx is done.
func (s *Session) Wait(ctx context.Context) error {
	select {
	case <-s.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Session) State() model.SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) Outcomes() []Outcome {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Outcome(nil), s.outcomes...)
}

// Total is the number of commands in the batch.
func (s *Session) Total() int { return len(s.commands) }

func (s *Session) FinishedAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.finishedAt
}

func (s *Session) transition(to model.SessionState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := model.ValidateSessionTransition(s.state, to); err != nil {
		return err
	}
	s.state = to
	if model.IsSessionTerminal(to) {
		s.finishedAt = time.Now().UTC()
	}
	return nil
}

func (s *Session) addOutcome(o Outcome) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.outcomes = append(s.outcomes, o)
}

func (s *Session) failed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, o := range s.outcomes {
		if o.Status == model.CommandFailed {
			return true
		}
	}
	return false
}

// Summary is a serializable view of a session.
type Summary struct {
	ID           string              `json:"id" yaml:"id"`
	Mode         model.ExecutionMode `json:"mode" yaml:"mode"`
	WorkflowID   string              `json:"workflow_id,omitempty" yaml:"workflow_id,omitempty"`
	WorkflowName string              `json:"workflow_name,omitempty" yaml:"workflow_name,omitempty"`
	Trigger      string              `json:"trigger,omitempty" yaml:"trigger,omitempty"`
	State        model.SessionState  `json:"state" yaml:"state"`
	Total        int                 `json:"total" yaml:"total"`
	Succeeded    int                 `json:"succeeded" yaml:"succeeded"`
	Failed       int                 `json:"failed" yaml:"failed"`
	Aborted      int                 `json:"aborted" yaml:"aborted"`
	CreatedAt    time.Time           `json:"created_at" yaml:"created_at"`
	FinishedAt   *time.Time          `json:"finished_at,omitempty" yaml:"finished_at,omitempty"`
	Commands     []CommandSummary    `json:"commands,omitempty" yaml:"commands,omitempty"`
}

type CommandSummary struct {
	CommandID     string              `json:"command_id" yaml:"command_id"`
	Name          string              `json:"name" yaml:"name"`
	Kind          model.CommandKind   `json:"kind" yaml:"kind"`
	CorrelationID string              `json:"correlation_id" yaml:"correlation_id"`
	Status        model.CommandStatus `json:"status" yaml:"status"`
	Error         string              `json:"error,omitempty" yaml:"error,omitempty"`
	StartedAt     time.Time           `json:"started_at" yaml:"started_at"`
	DurationMs    int64               `json:"duration_ms" yaml:"duration_ms"`
}

func (s *Session) Summary() Summary {
	s.mu.Lock()
	defer s.mu.Unlock()

	sum := Summary{
		ID:           s.ID,
		Mode:         s.Mode,
		WorkflowID:   s.WorkflowID,
		WorkflowName: s.WorkflowName,
		Trigger:      s.Trigger,
		State:        s.state,
		Total:        len(s.commands),
		CreatedAt:    s.CreatedAt,
	}
	if !s.finishedAt.IsZero() {
		t := s.finishedAt
		sum.FinishedAt = &t
	}
	for _, o := range s.outcomes {
		cs := CommandSummary{
			CommandID:     o.CommandID,
			Name:          o.Name,
			Kind:          o.Kind,
			CorrelationID: o.CorrelationID,
			Status:        o.Status,
			StartedAt:     o.StartedAt,
			DurationMs:    o.Duration.Milliseconds(),
		}
		if o.Err != nil {
			cs.Error = o.Err.Error()
		}
		switch o.Status {
		case model.CommandSucceeded:
			sum.Succeeded++
		case model.CommandFailed:
			sum.Failed++
		case model.CommandAborted:
			sum.Aborted++
		}
		sum.Commands = append(sum.Commands, cs)
	}
	return sum
}
