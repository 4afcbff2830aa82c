package expiry

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/replyscout/replyscout/internal/model"
	"github.com/replyscout/replyscout/internal/store/memstore"
)

func seedPending(t *testing.T, st *memstore.Store, id string, expiresAt time.Time) {
	t.Helper()
	_, err := st.Opportunities().InsertBatch(context.Background(), []*model.Opportunity{{
		OpportunityID:  id,
		AccountID:      "acct-a",
		PlatformPostID: "post-" + id,
		Status:         model.OpportunityPending,
		ExpiresAt:      expiresAt,
	}})
	require.NoError(t, err)
}

func TestSweepOnceExpiresOverdueOnly(t *testing.T) {
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	st := memstore.New()
	seedPending(t, st, "overdue-1", now.Add(-time.Minute))
	seedPending(t, st, "overdue-2", now)
	seedPending(t, st, "fresh", now.Add(time.Hour))

	w := NewWorker(st, Config{}, zerolog.Nop())
	w.now = func() time.Time { return now }

	require.NoError(t, w.sweepOnce(context.Background()))

	pending := model.OpportunityPending
	left, err := st.Opportunities().ListQueue(context.Background(), model.ListQueueRequest{
		AccountID: "acct-a",
		Status:    &pending,
		Now:       now,
	})
	require.NoError(t, err)
	require.Len(t, left, 1)
	assert.Equal(t, "fresh", left[0].OpportunityID)

	expired := model.OpportunityExpired
	gone, err := st.Opportunities().ListQueue(context.Background(), model.ListQueueRequest{
		AccountID: "acct-a",
		Status:    &expired,
		Now:       now,
	})
	require.NoError(t, err)
	assert.Len(t, gone, 2)
}

func TestSweepOnceDrainsBacklogBeyondBatchSize(t *testing.T) {
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	st := memstore.New()
	for i := 0; i < 5; i++ {
		seedPending(t, st, fmt.Sprintf("overdue-%d", i), now.Add(-time.Minute))
	}

	w := NewWorker(st, Config{BatchSize: 2}, zerolog.Nop())
	w.now = func() time.Time { return now }

	require.NoError(t, w.sweepOnce(context.Background()))

	expired := model.OpportunityExpired
	gone, err := st.Opportunities().ListQueue(context.Background(), model.ListQueueRequest{
		AccountID: "acct-a",
		Status:    &expired,
		Now:       now,
	})
	require.NoError(t, err)
	assert.Len(t, gone, 5)
}

func TestRunStopsOnContextCancel(t *testing.T) {
	w := NewWorker(memstore.New(), Config{Interval: time.Millisecond}, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	time.Sleep(5 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("worker did not stop")
	}
}
