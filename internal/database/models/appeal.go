package models

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/modwatch/sentinel/internal/database/dbretry"
	"github.com/modwatch/sentinel/internal/database/types"
	"github.com/modwatch/sentinel/internal/database/types/enum"
	"github.com/uptrace/bun"
	"go.uber.org/zap"
)

// AppealModel handles database operations for punishment appeals.
type AppealModel struct {
	db     *bun.DB
	logger *zap.Logger
}

// NewAppeal creates a repository with database access for appeals.
func NewAppeal(db *bun.DB, logger *zap.Logger) *AppealModel {
	return &AppealModel{
		db:     db,
		logger: logger.Named("db_appeal"),
	}
}

// Create stores a new appeal and fills in its generated ID.
func (r *AppealModel) Create(ctx context.Context, appeal *types.Appeal) error {
	return dbretry.NoResult(ctx, func(ctx context.Context) error {
		_, err := r.db.NewInsert().Model(appeal).Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to create appeal: %w", err)
		}

		return nil
	})
}

// GetByID retrieves one appeal.
func (r *AppealModel) GetByID(ctx context.Context, id int64) (*types.Appeal, error) {
	return dbretry.Operation(ctx, func(ctx context.Context) (*types.Appeal, error) {
		appeal := new(types.Appeal)

		err := r.db.NewSelect().Model(appeal).
			Where("id = ?", id).
			Scan(ctx)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, types.ErrAppealNotFound
			}

			return nil, fmt.Errorf("failed to get appeal: %w", err)
		}

		return appeal, nil
	})
}

// HasPending reports whether a punishment already has an unresolved appeal.
func (r *AppealModel) HasPending(ctx context.Context, punishmentID int64) (bool, error) {
	return dbretry.Operation(ctx, func(ctx context.Context) (bool, error) {
		exists, err := r.db.NewSelect().
			Model((*types.Appeal)(nil)).
			Where("punishment_id = ?", punishmentID).
			Where("status = ?", enum.AppealStatusPending).
			Exists(ctx)
		if err != nil {
			return false, fmt.Errorf("failed to check pending appeal: %w", err)
		}

		return exists, nil
	})
}

// ListPending retrieves unresolved appeals oldest-first for reviewers.
func (r *AppealModel) ListPending(ctx context.Context, limit int) ([]*types.Appeal, error) {
	return dbretry.Operation(ctx, func(ctx context.Context) ([]*types.Appeal, error) {
		var appeals []*types.Appeal

		err := r.db.NewSelect().Model(&appeals).
			Where("status = ?", enum.AppealStatusPending).
			Order("submitted_at ASC").
			Limit(limit).
			Scan(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list pending appeals: %w", err)
		}

		return appeals, nil
	})
}

// Resolve records the reviewer's verdict on a pending appeal. Returns
// ErrAppealAlreadyResolved when the appeal is no longer pending.
func (r *AppealModel) Resolve(
	ctx context.Context, id int64, status enum.AppealStatus, resolvedBy uint64, note string,
) error {
	return dbretry.NoResult(ctx, func(ctx context.Context) error {
		result, err := r.db.NewUpdate().
			Model((*types.Appeal)(nil)).
			Set("status = ?", status).
			Set("resolved_by = ?", resolvedBy).
			Set("resolved_at = ?", time.Now()).
			Set("resolution_note = ?", note).
			Where("id = ?", id).
			Where("status = ?", enum.AppealStatusPending).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to resolve appeal: %w", err)
		}

		affected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to check resolve result: %w", err)
		}

		if affected == 0 {
			return types.ErrAppealAlreadyResolved
		}

		return nil
	})
}
