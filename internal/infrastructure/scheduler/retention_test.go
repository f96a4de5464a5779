package scheduler

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"MediaScope/internal/domain"
	"MediaScope/internal/logging"
)

type pruneRecorder struct {
	mu      sync.Mutex
	cutoffs []time.Time
}

func (p *pruneRecorder) Save(_ context.Context, _ domain.HistoryRow) error { return nil }

func (p *pruneRecorder) ListRecent(_ context.Context, _ int) ([]domain.HistoryRow, error) {
	return nil, nil
}

func (p *pruneRecorder) Clear(_ context.Context) error { return nil }

func (p *pruneRecorder) PruneBefore(_ context.Context, cutoff time.Time) (int64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cutoffs = append(p.cutoffs, cutoff)
	return 1, nil
}

func (p *pruneRecorder) calls() []time.Time {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]time.Time(nil), p.cutoffs...)
}

func TestSweeperRunsImmediately(t *testing.T) {
	t.Parallel()

	history := &pruneRecorder{}
	s := NewRetentionSweeper(history, 30*24*time.Hour, time.Hour,
		logging.NewWithWriter(io.Discard, "error"))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s.Start(ctx)
	defer s.Stop()

	assert.Eventually(t, func() bool {
		return len(history.calls()) >= 1
	}, time.Second, 10*time.Millisecond)

	cutoff := history.calls()[0]
	assert.WithinDuration(t, time.Now().Add(-30*24*time.Hour), cutoff, time.Minute)
}

func TestSweeperDisabledWithoutMaxAge(t *testing.T) {
	t.Parallel()

	history := &pruneRecorder{}
	s := NewRetentionSweeper(history, 0, time.Hour, nil)
	s.Start(context.Background())
	defer s.Stop()

	time.Sleep(50 * time.Millisecond)
	assert.Empty(t, history.calls())
}
