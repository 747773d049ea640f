package models

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/modwatch/sentinel/internal/database/dbretry"
	"github.com/modwatch/sentinel/internal/database/types"
	"github.com/uptrace/bun"
	"go.uber.org/zap"
)

// PunishmentModel handles database operations for enforcement punishments.
type PunishmentModel struct {
	db     *bun.DB
	logger *zap.Logger
}

// NewPunishment creates a repository with database access for punishments.
func NewPunishment(db *bun.DB, logger *zap.Logger) *PunishmentModel {
	return &PunishmentModel{
		db:     db,
		logger: logger.Named("db_punishment"),
	}
}

// Create stores a new punishment and fills in its generated ID.
func (r *PunishmentModel) Create(ctx context.Context, punishment *types.Punishment) error {
	return dbretry.NoResult(ctx, func(ctx context.Context) error {
		_, err := r.db.NewInsert().Model(punishment).Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to create punishment: %w", err)
		}

		return nil
	})
}

// GetByID retrieves one punishment.
func (r *PunishmentModel) GetByID(ctx context.Context, id int64) (*types.Punishment, error) {
	return dbretry.Operation(ctx, func(ctx context.Context) (*types.Punishment, error) {
		punishment := new(types.Punishment)

		err := r.db.NewSelect().Model(punishment).
			Where("id = ?", id).
			Scan(ctx)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, types.ErrPunishmentNotFound
			}

			return nil, fmt.Errorf("failed to get punishment: %w", err)
		}

		return punishment, nil
	})
}

// GetActiveByUser retrieves the active punishments for one user.
func (r *PunishmentModel) GetActiveByUser(ctx context.Context, userID uint64) ([]*types.Punishment, error) {
	return dbretry.Operation(ctx, func(ctx context.Context) ([]*types.Punishment, error) {
		var punishments []*types.Punishment

		err := r.db.NewSelect().Model(&punishments).
			Where("user_id = ?", userID).
			Where("active = TRUE").
			Order("issued_at DESC").
			Scan(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to get active punishments: %w", err)
		}

		return punishments, nil
	})
}

// Revert deactivates a punishment and marks it reverted. Returns
// ErrPunishmentNotRevertible when it is already inactive.
func (r *PunishmentModel) Revert(ctx context.Context, id int64) error {
	return dbretry.NoResult(ctx, func(ctx context.Context) error {
		result, err := r.db.NewUpdate().
			Model((*types.Punishment)(nil)).
			Set("active = FALSE").
			Set("reverted = TRUE").
			Where("id = ?", id).
			Where("active = TRUE").
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to revert punishment: %w", err)
		}

		affected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to check revert result: %w", err)
		}

		if affected == 0 {
			return types.ErrPunishmentNotRevertible
		}

		return nil
	})
}

// ExpireOverdue deactivates punishments whose duration has elapsed and
// returns them so callers can lift the membership restriction.
func (r *PunishmentModel) ExpireOverdue(ctx context.Context, now time.Time) ([]*types.Punishment, error) {
	return dbretry.Operation(ctx, func(ctx context.Context) ([]*types.Punishment, error) {
		var expired []*types.Punishment

		_, err := r.db.NewUpdate().
			Model(&expired).
			Set("active = FALSE").
			Where("active = TRUE").
			Where("expires_at <= ?", now).
			Returning("*").
			Exec(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to expire punishments: %w", err)
		}

		if len(expired) > 0 {
			r.logger.Info("Expired punishments", zap.Int("count", len(expired)))
		}

		return expired, nil
	})
}
