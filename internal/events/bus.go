package events

import (
	"sync"
	"time"
)

// EventType names an engine or daemon event.
type EventType string

const (
	// EventRunStarted is published when the coordinator starts a session.
	EventRunStarted EventType = "run_started"
	// EventRunFinished is published once per session with its final state.
	EventRunFinished EventType = "run_finished"
	// EventCommandStarted is published before a command is dispatched.
	EventCommandStarted   EventType = "command_started"
	EventCommandSucceeded EventType = "command_succeeded"
	EventCommandFailed    EventType = "command_failed"
	// EventCommandAborted is published when cancellation stops a command.
	EventCommandAborted EventType = "command_aborted"
	// EventCommandDone is published by the coordinator once a command and
	// its settle delay completed inside a live session.
	EventCommandDone EventType = "command_done"
	// EventLastExecuted carries the notification-flagged command that is
	// about to run.
	EventLastExecuted EventType = "last_executed"
	// EventConfigReloaded is published after config.yaml was re-read.
	EventConfigReloaded EventType = "config_reloaded"
	// EventApplicationChanged is published by the application trigger poller.
	EventApplicationChanged EventType = "application_changed"
)

type Event struct {
	Type      EventType
	Timestamp time.Time
	Data      map[string]any
}

type Subscriber func(Event)

// Bus is a non-blocking publish/subscribe bus. Each subscriber owns a
// buffered channel drained by its own goroutine; a full channel drops
// the event for that subscriber only.
type Bus struct {
	mu          sync.RWMutex
	subscribers map[EventType][]chan Event
	bufferSize  int
	closed      bool
}

func NewBus(bufferSize int) *Bus {
	if bufferSize <= 0 {
		bufferSize = 100
	}
	return &Bus{
		subscribers: make(map[EventType][]chan Event),
		bufferSize:  bufferSize,
	}
}

// Subscribe registers fn for eventType and returns an unsubscribe func.
// Panics inside fn are recovered.
func (b *Bus) Subscribe(eventType EventType, fn Subscriber) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan Event, b.bufferSize)
	if b.closed {
		close(ch)
		return func() {}
	}
	b.subscribers[eventType] = append(b.subscribers[eventType], ch)

	go func() {
		for event := range ch {
			func() {
				defer func() { _ = recover() }()
				fn(event)
			}()
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()

			subs := b.subscribers[eventType]
			for i, subCh := range subs {
				if subCh == ch {
					b.subscribers[eventType] = append(subs[:i:i], subs[i+1:]...)
					close(ch)
					break
				}
			}
		})
	}
}

// Publish delivers an event to every subscriber of eventType without
// blocking.
func (b *Bus) Publish(eventType EventType, data map[string]any) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	event := Event{
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		Data:      data,
	}

	for _, ch := range b.subscribers[eventType] {
		select {
		case ch <- event:
		default:
		}
	}
}

// Close closes every subscriber channel. Later Publish calls are no-ops.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.closed = true
	for eventType, subs := range b.subscribers {
		for _, ch := range subs {
			close(ch)
		}
		delete(b.subscribers, eventType)
	}
}
