package notify

import (
	"context"
	"log/slog"
	"time"

	"github.com/msageha/deskflow/internal/events"
)

// SendFunc delivers one notification.
type SendFunc func(ctx context.Context, title, message, sound string) error

// Bezel shows the name of each notification-flagged command as it starts.
type Bezel struct {
	title   string
	sound   string
	send    SendFunc
	timeout time.Duration
	logger  *slog.Logger
}

func NewBezel(title, sound string, send SendFunc, logger *slog.Logger) *Bezel {
	if send == nil {
		send = Send
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Bezel{
		title:   title,
		sound:   sound,
		send:    send,
		timeout: 5 * time.Second,
		logger:  logger,
	}
}

// Attach subscribes the bezel to last-executed events on bus and returns
// the unsubscribe func.
func (b *Bezel) Attach(bus *events.Bus) func() {
	return bus.Subscribe(events.EventLastExecuted, b.handle)
}

func (b *Bezel) handle(e events.Event) {
	name, _ := e.Data["name"].(string)
	if name == "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), b.timeout)
	defer cancel()
	if err := b.send(ctx, b.title, name, b.sound); err != nil {
		b.logger.Warn("notification_failed", "command", name, "error", err)
	}
}
