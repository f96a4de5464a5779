package scheduler

import (
	"context"
	"log/slog"
	"time"

	"MediaScope/internal/ports"
)

// RetentionSweeper prunes history rows older than maxAge on a fixed
// interval. The first sweep runs immediately on start.
type RetentionSweeper struct {
	history  ports.HistoryRepository
	maxAge   time.Duration
	interval time.Duration
	logger   *slog.Logger
	stop     chan struct{}
}

// NewRetentionSweeper builds a sweeper; maxAge <= 0 disables it.
func NewRetentionSweeper(history ports.HistoryRepository, maxAge, interval time.Duration, logger *slog.Logger) *RetentionSweeper {
	if interval <= 0 {
		interval = 24 * time.Hour
	}
	return &RetentionSweeper{
		history:  history,
		maxAge:   maxAge,
		interval: interval,
		logger:   logger,
	}
}

// Start begins periodic sweeping until the context is canceled or Stop is
// called. Starting twice is a no-op.
func (s *RetentionSweeper) Start(ctx context.Context) {
	if s.history == nil || s.maxAge <= 0 {
		return
	}
	if s.stop != nil {
		return
	}

	s.stop = make(chan struct{})
	go func() {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		s.sweep(ctx, time.Now())
		for {
			select {
			case t := <-ticker.C:
				s.sweep(ctx, t)
			case <-ctx.Done():
				return
			case <-s.stop:
				return
			}
		}
	}()
}

// Stop halts the sweeping goroutine.
func (s *RetentionSweeper) Stop() {
	if s.stop == nil {
		return
	}
	close(s.stop)
	s.stop = nil
}

func (s *RetentionSweeper) sweep(ctx context.Context, now time.Time) {
	cutoff := now.Add(-s.maxAge)
	removed, err := s.history.PruneBefore(ctx, cutoff)
	if err != nil {
		s.warn("prune history", "cutoff", cutoff, "error", err)
		return
	}
	if removed > 0 {
		s.info("history pruned", "cutoff", cutoff, "removed", removed)
	}
}

func (s *RetentionSweeper) warn(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Warn(msg, args...)
	}
}

func (s *RetentionSweeper) info(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Info(msg, args...)
	}
}
