package queue_test

import (
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/modwatch/sentinel/internal/database/types"
	"github.com/modwatch/sentinel/internal/database/types/enum"
	"github.com/modwatch/sentinel/internal/queue"
	"github.com/modwatch/sentinel/internal/setup/config"
	"github.com/redis/rueidis"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func setupTest(t *testing.T, mutate func(*config.Moderation)) *queue.Manager {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)

	client, err := rueidis.NewClient(rueidis.ClientOption{
		InitAddress:  []string{mr.Addr()},
		DisableCache: true,
	})
	require.NoError(t, err)

	cfg := config.DefaultModeration()
	if mutate != nil {
		mutate(&cfg)
	}

	manager := queue.NewManager(client, client, &cfg, zap.NewNop())

	t.Cleanup(func() {
		client.Close()
		mr.Close()
	})

	return manager
}

func newRequest(priority enum.Priority) *types.ModerationRequest {
	return &types.ModerationRequest{
		ID:          uuid.New().String(),
		Type:        enum.RequestTypeMessage,
		SubmitterID: 100,
		TargetID:    200,
		ScopeID:     300,
		Content:     "some content",
		Priority:    priority,
		SubmittedAt: time.Now(),
	}
}

func TestEnqueue(t *testing.T) {
	t.Parallel()

	manager := setupTest(t, nil)
	ctx := t.Context()

	req := newRequest(enum.PriorityMedium)

	receipt, err := manager.Enqueue(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, req.ID, receipt.RequestID)
	assert.Equal(t, enum.PriorityMedium, receipt.Priority)
	assert.Equal(t, 1, receipt.Position)

	length, err := manager.Length(ctx, enum.PriorityMedium)
	require.NoError(t, err)
	assert.Equal(t, 1, length)

	status, err := manager.GetStatus(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, queue.StatusPending, status)
}

func TestNextBatchPriorityOrder(t *testing.T) {
	t.Parallel()

	manager := setupTest(t, nil)
	ctx := t.Context()

	low := newRequest(enum.PriorityLow)
	critical := newRequest(enum.PriorityCritical)
	medium := newRequest(enum.PriorityMedium)

	for _, req := range []*types.ModerationRequest{low, critical, medium} {
		_, err := manager.Enqueue(ctx, req)
		require.NoError(t, err)
	}

	items, err := manager.NextBatch(ctx, 10)
	require.NoError(t, err)
	require.Len(t, items, 3)

	assert.Equal(t, critical.ID, items[0].Request.ID)
	assert.Equal(t, medium.ID, items[1].Request.ID)
	assert.Equal(t, low.ID, items[2].Request.ID)

	// Claimed items are gone from their lanes.
	for _, priority := range enum.PrioritiesByRank() {
		length, err := manager.Length(ctx, priority)
		require.NoError(t, err)
		assert.Zero(t, length)
	}
}

func TestNextBatchFIFOWithinLane(t *testing.T) {
	t.Parallel()

	manager := setupTest(t, nil)
	ctx := t.Context()

	first := newRequest(enum.PriorityHigh)
	second := newRequest(enum.PriorityHigh)

	_, err := manager.Enqueue(ctx, first)
	require.NoError(t, err)

	time.Sleep(5 * time.Millisecond)

	_, err = manager.Enqueue(ctx, second)
	require.NoError(t, err)

	items, err := manager.NextBatch(ctx, 10)
	require.NoError(t, err)
	require.Len(t, items, 2)

	assert.Equal(t, first.ID, items[0].Request.ID)
	assert.Equal(t, second.ID, items[1].Request.ID)
}

func TestNextBatchRespectsBatchSize(t *testing.T) {
	t.Parallel()

	manager := setupTest(t, nil)
	ctx := t.Context()

	for range 5 {
		_, err := manager.Enqueue(ctx, newRequest(enum.PriorityMedium))
		require.NoError(t, err)
	}

	items, err := manager.NextBatch(ctx, 3)
	require.NoError(t, err)
	assert.Len(t, items, 3)

	length, err := manager.Length(ctx, enum.PriorityMedium)
	require.NoError(t, err)
	assert.Equal(t, 2, length)
}

func TestNextBatchEmpty(t *testing.T) {
	t.Parallel()

	manager := setupTest(t, nil)

	_, err := manager.NextBatch(t.Context(), 10)
	require.ErrorIs(t, err, queue.ErrEmptyBatch)
}

func TestRetryBackoffDefersDelivery(t *testing.T) {
	t.Parallel()

	manager := setupTest(t, func(cfg *config.Moderation) {
		cfg.RetryBaseDelay = 60_000
	})
	ctx := t.Context()

	req := newRequest(enum.PriorityHigh)
	_, err := manager.Enqueue(ctx, req)
	require.NoError(t, err)

	items, err := manager.NextBatch(ctx, 1)
	require.NoError(t, err)
	require.Len(t, items, 1)

	require.NoError(t, manager.Retry(ctx, items[0], errors.New("scoring timeout")))

	// The rescheduled item is back in its lane but not ready yet.
	length, err := manager.Length(ctx, enum.PriorityHigh)
	require.NoError(t, err)
	assert.Equal(t, 1, length)

	_, err = manager.NextBatch(ctx, 1)
	require.ErrorIs(t, err, queue.ErrEmptyBatch)
}

func TestRetryImmediateRedelivery(t *testing.T) {
	t.Parallel()

	manager := setupTest(t, func(cfg *config.Moderation) {
		cfg.RetryBaseDelay = 0
	})
	ctx := t.Context()

	req := newRequest(enum.PriorityMedium)
	_, err := manager.Enqueue(ctx, req)
	require.NoError(t, err)

	items, err := manager.NextBatch(ctx, 1)
	require.NoError(t, err)

	require.NoError(t, manager.Retry(ctx, items[0], errors.New("transient")))

	items, err = manager.NextBatch(ctx, 1)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, req.ID, items[0].Request.ID)
	assert.Equal(t, 1, items[0].Attempts)
	assert.Equal(t, "transient", items[0].LastError)
}

func TestRetryDeadLettersAfterMaxAttempts(t *testing.T) {
	t.Parallel()

	manager := setupTest(t, func(cfg *config.Moderation) {
		cfg.RetryBaseDelay = 0
		cfg.MaxAttempts = 3
	})
	ctx := t.Context()

	req := newRequest(enum.PriorityCritical)
	_, err := manager.Enqueue(ctx, req)
	require.NoError(t, err)

	for attempt := 1; attempt <= 3; attempt++ {
		items, err := manager.NextBatch(ctx, 1)
		require.NoError(t, err)
		require.Len(t, items, 1)

		err = manager.Retry(ctx, items[0], errors.New("scoring failed"))
		if attempt < 3 {
			require.NoError(t, err)
			continue
		}

		require.ErrorIs(t, err, queue.ErrDeadLettered)
	}

	length, err := manager.Length(ctx, enum.PriorityCritical)
	require.NoError(t, err)
	assert.Zero(t, length)

	deadLetters, err := manager.DeadLetterLength(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, deadLetters)

	status, err := manager.GetStatus(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, queue.StatusDeadLettered, status)
}

func TestGetStatusMissing(t *testing.T) {
	t.Parallel()

	manager := setupTest(t, nil)

	status, err := manager.GetStatus(t.Context(), uuid.New().String())
	require.NoError(t, err)
	assert.Empty(t, status)
}
