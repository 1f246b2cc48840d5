package history

import (
	"context"
	"log/slog"
	"time"

	"github.com/msageha/deskflow/internal/engine"
)

const recordTimeout = 5 * time.Second

// OnFinish returns a coordinator hook that records every finished
// session and keeps at most keep sessions. Failures are logged.
func (s *Store) OnFinish(keep int, logger *slog.Logger) func(*engine.Session) {
	if logger == nil {
		logger = slog.Default()
	}
	return func(sess *engine.Session) {
		ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
		defer cancel()

		if err := s.RecordSession(ctx, sess.Summary()); err != nil {
			logger.Warn("history_record_failed", "session_id", sess.ID, "error", err)
			return
		}
		if keep <= 0 {
			return
		}
		n, err := s.Prune(ctx, keep)
		if err != nil {
			logger.Warn("history_prune_failed", "error", err)
			return
		}
		if n > 0 {
			logger.Debug("history_pruned", "deleted", n, "keep", keep)
		}
	}
}
