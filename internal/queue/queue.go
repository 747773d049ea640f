package queue

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/bytedance/sonic"
	"github.com/modwatch/sentinel/internal/database/types"
	"github.com/modwatch/sentinel/internal/database/types/enum"
	"github.com/modwatch/sentinel/internal/setup/config"
	"github.com/redis/rueidis"
	"go.uber.org/zap"
)

var (
	// ErrDeadLettered signals that an item exhausted its attempts and was
	// moved to the dead-letter set instead of being rescheduled.
	ErrDeadLettered = errors.New("item moved to dead-letter set")

	// ErrEmptyBatch signals that no item across any priority lane is ready.
	ErrEmptyBatch = errors.New("no queue items ready")
)

const (
	// StatusExpiry controls how long request status records remain valid
	// in Redis before automatic cleanup.
	StatusExpiry = 1 * time.Hour

	// StatusPending indicates an item is waiting in a priority lane.
	StatusPending = "Pending"
	// StatusProcessing indicates a worker has claimed the item.
	StatusProcessing = "Processing"
	// StatusComplete indicates the item produced a decision.
	StatusComplete = "Complete"
	// StatusDeadLettered indicates the item failed all attempts.
	StatusDeadLettered = "DeadLettered"

	// StatusPrefix namespaces Redis keys storing request processing states.
	// Keys are formatted as "moderation:status:{requestID}".
	StatusPrefix = "moderation:status:"

	// deadLetterKey is the sorted set holding exhausted items, scored by
	// the time they were dead-lettered.
	deadLetterKey = "moderation:dead_letter"
)

// laneKey returns the sorted set key for one priority lane. The member
// score is the item's ready-at time in unix milliseconds, so FIFO order
// within a lane and retry backoff share one representation.
func laneKey(priority enum.Priority) string {
	return "moderation:queue:" + priority.String()
}

// Item wraps a moderation request with its delivery state while it moves
// through the priority lanes.
type Item struct {
	Request    *types.ModerationRequest `json:"request"`
	Attempts   int                      `json:"attempts"`
	EnqueuedAt time.Time                `json:"enqueuedAt"`
	LastError  string                   `json:"lastError,omitempty"`
}

// Manager orchestrates queue operations using Redis sorted sets, one lane
// per priority, plus a dead-letter set for items that exhausted their
// attempts. Claiming an item removes it from its lane; a worker that
// fails re-adds it through Retry with a backoff score. Status records
// live on a separate client so the queue database holds only lane data.
type Manager struct {
	client         rueidis.Client
	statusClient   rueidis.Client
	maxAttempts    int
	retryBaseDelay time.Duration
	logger         *zap.Logger
}

// NewManager initializes a queue manager with its required dependencies.
func NewManager(client, statusClient rueidis.Client, cfg *config.Moderation, logger *zap.Logger) *Manager {
	return &Manager{
		client:         client,
		statusClient:   statusClient,
		maxAttempts:    cfg.MaxAttempts,
		retryBaseDelay: time.Duration(cfg.RetryBaseDelay) * time.Millisecond,
		logger:         logger.Named("queue"),
	}
}

// Enqueue adds a request to its priority lane, ready immediately.
func (m *Manager) Enqueue(ctx context.Context, req *types.ModerationRequest) (*types.QueueReceipt, error) {
	now := time.Now()
	item := &Item{Request: req, EnqueuedAt: now}

	if err := m.add(ctx, laneKey(req.Priority), item, now); err != nil {
		return nil, err
	}

	if err := m.SetStatus(ctx, req.ID, StatusPending); err != nil {
		m.logger.Warn("Failed to set queue status", zap.String("requestID", req.ID), zap.Error(err))
	}

	length, _ := m.Length(ctx, req.Priority)

	return &types.QueueReceipt{
		RequestID:  req.ID,
		Priority:   req.Priority,
		Position:   length,
		EnqueuedAt: now,
	}, nil
}

// NextBatch claims up to batchSize ready items, draining lanes from
// critical down to low. Items whose backoff delay has not elapsed are
// left in place. Claimed items are removed from their lane; the caller
// owns redelivery through Retry.
func (m *Manager) NextBatch(ctx context.Context, batchSize int) ([]*Item, error) {
	now := strconv.FormatInt(time.Now().UnixMilli(), 10)
	items := make([]*Item, 0, batchSize)

	for _, priority := range enum.PrioritiesByRank() {
		if len(items) >= batchSize {
			break
		}

		key := laneKey(priority)

		members, err := m.client.Do(ctx, m.client.B().Zrangebyscore().
			Key(key).Min("-inf").Max(now).
			Limit(0, int64(batchSize-len(items))).Build(),
		).AsStrSlice()
		if err != nil {
			return nil, fmt.Errorf("failed to read queue lane %s: %w", priority, err)
		}

		for _, member := range members {
			removed, err := m.client.Do(ctx,
				m.client.B().Zrem().Key(key).Member(member).Build(),
			).ToInt64()
			if err != nil {
				return nil, fmt.Errorf("failed to claim queue item: %w", err)
			}

			// Another worker claimed it between the range and the remove.
			if removed == 0 {
				continue
			}

			var item Item
			if err := sonic.Unmarshal([]byte(member), &item); err != nil {
				m.logger.Error("Dropping undecodable queue item", zap.Error(err))
				continue
			}

			if err := m.SetStatus(ctx, item.Request.ID, StatusProcessing); err != nil {
				m.logger.Warn("Failed to set queue status",
					zap.String("requestID", item.Request.ID), zap.Error(err))
			}

			items = append(items, &item)
		}
	}

	if len(items) == 0 {
		return nil, ErrEmptyBatch
	}

	return items, nil
}

// Retry reschedules a failed item with exponential backoff. The delay is
// the configured base doubled per prior attempt. Once attempts reach the
// maximum the item moves to the dead-letter set and ErrDeadLettered is
// returned so the caller can produce the fallback decision.
func (m *Manager) Retry(ctx context.Context, item *Item, cause error) error {
	item.Attempts++
	if cause != nil {
		item.LastError = cause.Error()
	}

	if item.Attempts >= m.maxAttempts {
		if err := m.add(ctx, deadLetterKey, item, time.Now()); err != nil {
			return err
		}

		if err := m.SetStatus(ctx, item.Request.ID, StatusDeadLettered); err != nil {
			m.logger.Warn("Failed to set queue status",
				zap.String("requestID", item.Request.ID), zap.Error(err))
		}

		m.logger.Warn("Item dead-lettered",
			zap.String("requestID", item.Request.ID),
			zap.Int("attempts", item.Attempts),
			zap.String("lastError", item.LastError))

		return ErrDeadLettered
	}

	delay := m.retryBaseDelay << (item.Attempts - 1)
	readyAt := time.Now().Add(delay)

	if err := m.add(ctx, laneKey(item.Request.Priority), item, readyAt); err != nil {
		return err
	}

	if err := m.SetStatus(ctx, item.Request.ID, StatusPending); err != nil {
		m.logger.Warn("Failed to set queue status",
			zap.String("requestID", item.Request.ID), zap.Error(err))
	}

	m.logger.Debug("Item rescheduled",
		zap.String("requestID", item.Request.ID),
		zap.Int("attempts", item.Attempts),
		zap.Duration("delay", delay))

	return nil
}

// Length returns the number of items in one priority lane.
func (m *Manager) Length(ctx context.Context, priority enum.Priority) (int, error) {
	count, err := m.client.Do(ctx,
		m.client.B().Zcard().Key(laneKey(priority)).Build(),
	).ToInt64()
	if err != nil {
		return 0, fmt.Errorf("failed to get queue length: %w", err)
	}

	return int(count), nil
}

// DeadLetterLength returns the number of exhausted items awaiting review.
func (m *Manager) DeadLetterLength(ctx context.Context) (int, error) {
	count, err := m.client.Do(ctx,
		m.client.B().Zcard().Key(deadLetterKey).Build(),
	).ToInt64()
	if err != nil {
		return 0, fmt.Errorf("failed to get dead-letter length: %w", err)
	}

	return int(count), nil
}

// SetStatus records the processing state for a request with expiry.
func (m *Manager) SetStatus(ctx context.Context, requestID, status string) error {
	return m.statusClient.Do(ctx, m.statusClient.B().Set().
		Key(StatusPrefix+requestID).
		Value(status).
		Ex(StatusExpiry).
		Build()).Error()
}

// GetStatus returns the recorded processing state for a request, or an
// empty string when none exists.
func (m *Manager) GetStatus(ctx context.Context, requestID string) (string, error) {
	result := m.statusClient.Do(ctx, m.statusClient.B().Get().Key(StatusPrefix+requestID).Build())
	if err := result.Error(); err != nil {
		if rueidis.IsRedisNil(err) {
			return "", nil
		}

		return "", fmt.Errorf("failed to get queue status: %w", err)
	}

	return result.ToString()
}

// add serializes an item and writes it into a sorted set with the given
// ready time as its score.
func (m *Manager) add(ctx context.Context, key string, item *Item, readyAt time.Time) error {
	itemJSON, err := sonic.Marshal(item)
	if err != nil {
		return fmt.Errorf("failed to marshal queue item: %w", err)
	}

	err = m.client.Do(ctx, m.client.B().Zadd().Key(key).ScoreMember().
		ScoreMember(float64(readyAt.UnixMilli()), string(itemJSON)).Build(),
	).Error()
	if err != nil {
		return fmt.Errorf("failed to add item to %s: %w", key, err)
	}

	return nil
}
