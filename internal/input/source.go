// Package input is the bridge to the synthetic keyboard event source.
//
// One Source is shared by every runner that synthesizes input. Sequences
// that must not interleave (a key-down/key-up pair, a typed string) run
// inside Exclusive, which hands out a Stream bound to the source id.
package input

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"github.com/msageha/deskflow/internal/model"
)

// ErrStreamReleased is returned when a Stream is used after its
// Exclusive callback returned.
var ErrStreamReleased = errors.New("input stream released")

type EventType int

const (
	KeyDown EventType = iota
	KeyUp
)

func (t EventType) String() string {
	if t == KeyUp {
		return "up"
	}
	return "down"
}

// KeyEvent is one synthetic key transition.
type KeyEvent struct {
	Type      EventType
	Key       string
	Modifiers []model.ModifierKey
	SourceID  string
}

// Poster delivers events to the window server.
type Poster interface {
	PostKey(ev KeyEvent) error
	TypeText(text string) error
}

// Stream is exclusive access to the source for one sequence.
type Stream interface {
	Post(ctx context.Context, ev KeyEvent) error
	Type(ctx context.Context, text string) error
	SourceID() string
}

type Source struct {
	id     string
	poster Poster
	sem    *semaphore.Weighted

	mu   sync.Mutex
	last []model.KeyShortcut
}

func NewSource(poster Poster) *Source {
	return &Source{
		id:     uuid.NewString(),
		poster: poster,
		sem:    semaphore.NewWeighted(1),
	}
}

func (s *Source) ID() string { return s.id }

// Exclusive runs fn while holding the source. Waiting for the source
// honours ctx.
func (s *Source) Exclusive(ctx context.Context, fn func(Stream) error) error {
	if err := s.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	defer s.sem.Release(1)

	st := &stream{src: s}
	defer st.released.Store(true)
	return fn(st)
}

// Remember stores the shortcuts of the last keyboard command posted.
func (s *Source) Remember(shortcuts []model.KeyShortcut) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.last = append([]model.KeyShortcut(nil), shortcuts...)
}

// LastShortcuts returns what Remember stored, or nil.
func (s *Source) LastShortcuts() []model.KeyShortcut {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.KeyShortcut(nil), s.last...)
}

type stream struct {
	src      *Source
	released atomic.Bool
}

func (st *stream) SourceID() string { return st.src.id }

func (st *stream) Post(ctx context.Context, ev KeyEvent) error {
	if st.released.Load() {
		return ErrStreamReleased
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	ev.SourceID = st.src.id
	if err := st.src.poster.PostKey(ev); err != nil {
		return fmt.Errorf("post key %s %s: %w", ev.Key, ev.Type, err)
	}
	return nil
}

// Type posts text one rune at a time, checking ctx between runes.
func (st *stream) Type(ctx context.Context, text string) error {
	for _, r := range text {
		if st.released.Load() {
			return ErrStreamReleased
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := st.src.poster.TypeText(string(r)); err != nil {
			return fmt.Errorf("type %q: %w", r, err)
		}
	}
	return nil
}

// PressShortcut posts key-down, waits gap, then posts key-up for ks.
// Once the down event is out the up event is always posted, even if ctx
// is cancelled during the gap, so no key is left held.
func PressShortcut(ctx context.Context, st Stream, ks model.KeyShortcut, gap func(context.Context) error) error {
	down := KeyEvent{Type: KeyDown, Key: ks.Key, Modifiers: ks.Modifiers}
	if err := st.Post(ctx, down); err != nil {
		return err
	}
	var gapErr error
	if gap != nil {
		gapErr = gap(ctx)
	}
	up := KeyEvent{Type: KeyUp, Key: ks.Key, Modifiers: ks.Modifiers}
	if err := st.Post(context.WithoutCancel(ctx), up); err != nil {
		return err
	}
	return gapErr
}
