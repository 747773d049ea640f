package models

import (
	"context"
	"fmt"
	"time"

	"github.com/modwatch/sentinel/internal/database/dbretry"
	"github.com/modwatch/sentinel/internal/database/types"
	"github.com/modwatch/sentinel/internal/database/types/enum"
	"github.com/uptrace/bun"
	"go.uber.org/zap"
)

// AuditModel handles database operations for the append-only audit log.
type AuditModel struct {
	db     *bun.DB
	logger *zap.Logger
}

// NewAudit creates a repository with database access for
// storing and retrieving audit log entries.
func NewAudit(db *bun.DB, logger *zap.Logger) *AuditModel {
	return &AuditModel{
		db:     db,
		logger: logger.Named("db_audit"),
	}
}

// Log stores one audit entry. Re-logging the same (request, action) pair
// is a no-op thanks to the unique index, so idempotent re-processing
// never duplicates entries.
func (r *AuditModel) Log(ctx context.Context, entry *types.AuditLogEntry) {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}

	err := dbretry.NoResult(ctx, func(ctx context.Context) error {
		_, err := r.db.NewInsert().
			Model(entry).
			On("CONFLICT (request_id, action_type) DO NOTHING").
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to log audit entry: %w", err)
		}

		return nil
	})
	if err != nil {
		r.logger.Error("Failed to log audit entry",
			zap.Error(err),
			zap.String("requestID", entry.RequestID),
			zap.Uint64("targetID", entry.TargetID),
			zap.String("actionType", entry.ActionType.String()))

		return
	}

	r.logger.Debug("Logged audit entry",
		zap.String("requestID", entry.RequestID),
		zap.Uint64("targetID", entry.TargetID),
		zap.String("actionType", entry.ActionType.String()))
}

// LogBatch stores multiple audit entries with the same conflict behavior.
func (r *AuditModel) LogBatch(ctx context.Context, entries []*types.AuditLogEntry) {
	if len(entries) == 0 {
		return
	}

	now := time.Now()

	for _, entry := range entries {
		if entry.CreatedAt.IsZero() {
			entry.CreatedAt = now
		}
	}

	err := dbretry.NoResult(ctx, func(ctx context.Context) error {
		_, err := r.db.NewInsert().
			Model(&entries).
			On("CONFLICT (request_id, action_type) DO NOTHING").
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to log batch audit entries: %w", err)
		}

		return nil
	})
	if err != nil {
		r.logger.Error("Failed to log batch audit entries",
			zap.Error(err),
			zap.Int("count", len(entries)))

		return
	}

	r.logger.Debug("Logged batch audit entries", zap.Int("count", len(entries)))
}

// GetEntries retrieves audit entries based on filter criteria, newest
// first, using keyset pagination.
func (r *AuditModel) GetEntries(
	ctx context.Context, filter types.AuditFilter, cursor *types.AuditCursor, limit int,
) ([]*types.AuditLogEntry, *types.AuditCursor, error) {
	var (
		entries    []*types.AuditLogEntry
		nextCursor *types.AuditCursor
	)

	err := dbretry.NoResult(ctx, func(ctx context.Context) error {
		query := r.db.NewSelect().Model(&entries)

		if filter.TargetID != 0 {
			query = query.Where("target_id = ?", filter.TargetID)
		}

		if filter.ScopeID != 0 {
			query = query.Where("scope_id = ?", filter.ScopeID)
		}

		if filter.ActionType != 0 {
			query = query.Where("action_type = ?", filter.ActionType)
		}

		if !filter.Since.IsZero() {
			query = query.Where("created_at >= ?", filter.Since)
		}

		if !filter.Until.IsZero() {
			query = query.Where("created_at <= ?", filter.Until)
		}

		if cursor != nil {
			query = query.Where("(created_at, id) < (?, ?)", cursor.CreatedAt, cursor.ID)
		}

		// Fetch one extra to detect whether more pages remain.
		err := query.
			Order("created_at DESC", "id DESC").
			Limit(limit + 1).
			Scan(ctx)
		if err != nil {
			return fmt.Errorf("failed to get audit entries: %w", err)
		}

		if len(entries) > limit {
			last := entries[limit-1]
			nextCursor = &types.AuditCursor{CreatedAt: last.CreatedAt, ID: last.ID}
			entries = entries[:limit]
		}

		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	return entries, nextCursor, nil
}

// GetSince retrieves all audit entries for one scope from the given time,
// feeding health report aggregation.
func (r *AuditModel) GetSince(
	ctx context.Context, scopeID uint64, since time.Time,
) ([]*types.AuditLogEntry, error) {
	return dbretry.Operation(ctx, func(ctx context.Context) ([]*types.AuditLogEntry, error) {
		var entries []*types.AuditLogEntry

		query := r.db.NewSelect().Model(&entries).
			Where("created_at >= ?", since)

		if scopeID != 0 {
			query = query.Where("scope_id = ?", scopeID)
		}

		if err := query.Order("created_at DESC").Scan(ctx); err != nil {
			return nil, fmt.Errorf("failed to get audit entries since %s: %w", since, err)
		}

		return entries, nil
	})
}

// CountModerationActions returns how many moderation-range entries exist
// for a target since the given time. Used by escalation heuristics.
func (r *AuditModel) CountModerationActions(
	ctx context.Context, targetID uint64, since time.Time,
) (int, error) {
	return dbretry.Operation(ctx, func(ctx context.Context) (int, error) {
		count, err := r.db.NewSelect().
			Model((*types.AuditLogEntry)(nil)).
			Where("target_id = ?", targetID).
			Where("action_type BETWEEN ? AND ?", enum.AuditActionRangeStart, enum.AuditActionRangeEnd).
			Where("created_at >= ?", since).
			Count(ctx)
		if err != nil {
			return 0, fmt.Errorf("failed to count moderation actions: %w", err)
		}

		return count, nil
	})
}
