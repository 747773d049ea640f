// Package maintenance contains the background worker that lifts expired
// punishments.
package maintenance

import (
	"context"
	"time"

	"github.com/modwatch/sentinel/internal/database"
	"github.com/modwatch/sentinel/internal/database/types/enum"
	"github.com/modwatch/sentinel/internal/membership"
	"github.com/modwatch/sentinel/internal/worker/core"
	"github.com/redis/rueidis"
	"go.uber.org/zap"
)

// SweepInterval is how often expired punishments are collected.
const SweepInterval = 1 * time.Minute

// Worker periodically deactivates punishments past their expiry and lifts
// the corresponding membership restriction.
type Worker struct {
	db         database.Client
	membership membership.Client
	reporter   *core.StatusReporter
	logger     *zap.Logger
}

// New creates a maintenance worker.
func New(
	db database.Client, member membership.Client,
	statusClient rueidis.Client, logger *zap.Logger,
) *Worker {
	return &Worker{
		db:         db,
		membership: member,
		reporter:   core.NewStatusReporter(statusClient, "maintenance", logger),
		logger:     logger.Named("maintenance_worker"),
	}
}

// Start runs the sweep loop until the context is cancelled.
func (w *Worker) Start(ctx context.Context) {
	w.logger.Info("Maintenance worker started", zap.String("workerID", w.reporter.GetWorkerID()))
	w.reporter.Start(ctx)

	defer w.reporter.Stop()

	ticker := time.NewTicker(SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("Maintenance worker stopped")
			return
		case <-ticker.C:
			w.sweep(ctx)
		}
	}
}

// sweep expires overdue punishments and lifts their restrictions.
func (w *Worker) sweep(ctx context.Context) {
	w.reporter.UpdateStatus("sweeping expired punishments")

	expired, err := w.db.Model().Punishment().ExpireOverdue(ctx, time.Now())
	if err != nil {
		w.logger.Error("Failed to expire punishments", zap.Error(err))
		w.reporter.SetHealthy(false)

		return
	}

	w.reporter.SetHealthy(true)

	for _, punishment := range expired {
		var err error

		switch punishment.Kind {
		case enum.PunishmentKindMute:
			err = w.membership.Unmute(ctx, punishment.UserID, punishment.ScopeID)
		case enum.PunishmentKindBan:
			err = w.membership.Unban(ctx, punishment.UserID, punishment.ScopeID)
		}

		if err != nil {
			w.logger.Error("Failed to lift expired punishment",
				zap.Int64("punishmentID", punishment.ID),
				zap.String("kind", punishment.Kind.String()),
				zap.Error(err))

			continue
		}

		w.logger.Info("Lifted expired punishment",
			zap.Int64("punishmentID", punishment.ID),
			zap.Uint64("userID", punishment.UserID),
			zap.String("kind", punishment.Kind.String()))
	}

	w.reporter.IncrementProcessed(len(expired))
	w.reporter.UpdateStatus("idle")
}
