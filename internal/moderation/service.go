// Package moderation exposes the content moderation pipeline as a single
// service: synchronous and asynchronous submission, appeals, history, and
// health reporting.
package moderation

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/modwatch/sentinel/internal/database"
	"github.com/modwatch/sentinel/internal/database/types"
	"github.com/modwatch/sentinel/internal/database/types/enum"
	"github.com/modwatch/sentinel/internal/enforce"
	"github.com/modwatch/sentinel/internal/membership"
	"github.com/modwatch/sentinel/internal/queue"
	"github.com/modwatch/sentinel/internal/scoring"
	"github.com/modwatch/sentinel/internal/setup/config"
	"github.com/modwatch/sentinel/internal/worker/core"
	"go.uber.org/zap"
)

// HistoryLimit caps how many audit entries a single history call returns.
const HistoryLimit = 50

// Service is the front door of the moderation pipeline. Submissions are
// scored inline when they fit the synchronous budget and fall back to the
// queue otherwise, so the caller always receives a decision or a receipt.
type Service struct {
	cfg        *config.Config
	scorer     *scoring.Scorer
	engine     *enforce.Engine
	queue      *queue.Manager
	db         database.Client
	membership membership.Client
	monitor    *core.Monitor
	counters   *counters
	logger     *zap.Logger
}

// NewService wires the pipeline components into a service.
func NewService(
	cfg *config.Config, scorer *scoring.Scorer, engine *enforce.Engine,
	queueMgr *queue.Manager, db database.Client, member membership.Client,
	monitor *core.Monitor, logger *zap.Logger,
) *Service {
	return &Service{
		cfg:        cfg,
		scorer:     scorer,
		engine:     engine,
		queue:      queueMgr,
		db:         db,
		membership: member,
		monitor:    monitor,
		counters:   &counters{},
		logger:     logger.Named("moderation"),
	}
}

// Submit runs a request through the pipeline synchronously. Resubmitting
// a processed request ID returns the original decision unchanged. When
// scoring cannot finish within the synchronous budget the request is
// queued for asynchronous processing and a provisional fallback decision
// is returned immediately.
func (s *Service) Submit(ctx context.Context, req *types.ModerationRequest) (*types.Decision, error) {
	if err := s.prepare(req); err != nil {
		return nil, err
	}

	if cached, ok := s.engine.CachedDecision(req.ID); ok {
		return cached, nil
	}

	s.counters.submitted.Add(1)

	scoreCtx, cancel := context.WithTimeout(ctx, time.Duration(s.cfg.Moderation.SyncTimeout)*time.Millisecond)
	defer cancel()

	assessment, err := s.scorer.Score(scoreCtx, req)
	if err != nil {
		s.logger.Warn("Synchronous scoring failed, queueing",
			zap.String("requestID", req.ID), zap.Error(err))

		if _, enqueueErr := s.queue.Enqueue(ctx, req); enqueueErr != nil {
			return nil, fmt.Errorf("failed to queue request after scoring failure: %w", enqueueErr)
		}

		// Provisional: the queued request will produce the durable
		// decision. Nothing is cached or audited here.
		return &types.Decision{
			Assessment: scoring.Fallback(req.ID, "queued for asynchronous processing"),
			Action: &types.EnforcementAction{
				RequestID: req.ID,
				Kind:      enum.ActionKindNone,
				Reason:    "pending asynchronous processing",
				DecidedAt: time.Now(),
			},
		}, nil
	}

	decision, err := s.engine.Decide(ctx, req, assessment)
	if err != nil {
		return nil, err
	}

	s.counters.completed.Add(1)

	return decision, nil
}

// SubmitAsync queues a request for background processing and returns a
// receipt with its queue position.
func (s *Service) SubmitAsync(ctx context.Context, req *types.ModerationRequest) (*types.QueueReceipt, error) {
	if err := s.prepare(req); err != nil {
		return nil, err
	}

	s.counters.submitted.Add(1)
	s.counters.queued.Add(1)

	return s.queue.Enqueue(ctx, req)
}

// GetDecision returns the decision for a processed request, if one exists yet.
func (s *Service) GetDecision(requestID string) (*types.Decision, bool) {
	return s.engine.CachedDecision(requestID)
}

// GetStatus returns the queue processing state for a request.
func (s *Service) GetStatus(ctx context.Context, requestID string) (string, error) {
	return s.queue.GetStatus(ctx, requestID)
}

// SubmitAppeal records a user's appeal against a punishment.
func (s *Service) SubmitAppeal(
	ctx context.Context, punishmentID int64, submitterID uint64, reason, evidence string,
) (*types.Appeal, error) {
	return s.db.Service().Appeal().Submit(ctx, punishmentID, submitterID, reason, evidence)
}

// ResolveAppeal records a reviewer verdict. Overturning an appeal lifts
// the reverted punishment's membership restriction.
func (s *Service) ResolveAppeal(
	ctx context.Context, appealID int64, reviewerID uint64, overturn bool, note string,
) (*types.Appeal, error) {
	appeal, reverted, err := s.db.Service().Appeal().Resolve(ctx, appealID, reviewerID, overturn, note)
	if err != nil {
		return nil, err
	}

	if reverted != nil {
		var liftErr error

		switch reverted.Kind {
		case enum.PunishmentKindMute:
			liftErr = s.membership.Unmute(ctx, reverted.UserID, reverted.ScopeID)
		case enum.PunishmentKindBan:
			liftErr = s.membership.Unban(ctx, reverted.UserID, reverted.ScopeID)
		}

		if liftErr != nil {
			s.logger.Error("Failed to lift reverted punishment",
				zap.Int64("punishmentID", reverted.ID), zap.Error(liftErr))
		}
	}

	return appeal, nil
}

// GetActivePunishments returns a user's in-force punishments, newest first.
func (s *Service) GetActivePunishments(ctx context.Context, userID uint64) ([]*types.Punishment, error) {
	return s.db.Model().Punishment().GetActiveByUser(ctx, userID)
}

// GetHistory returns the most recent audit entries for a target, newest
// first, capped at HistoryLimit per page.
func (s *Service) GetHistory(
	ctx context.Context, targetID uint64, cursor *types.AuditCursor, limit int,
) ([]*types.AuditLogEntry, *types.AuditCursor, error) {
	limit = min(max(limit, 1), HistoryLimit)

	return s.db.Model().Audit().GetEntries(ctx, types.AuditFilter{TargetID: targetID}, cursor, limit)
}

// GetHealthReport summarizes moderation activity for one scope.
func (s *Service) GetHealthReport(
	ctx context.Context, scopeID uint64, windowHours int,
) (*types.HealthReport, error) {
	return s.db.Service().Health().GenerateReport(ctx, scopeID, windowHours)
}

// prepare validates the request and assigns defaults for missing fields.
func (s *Service) prepare(req *types.ModerationRequest) error {
	if err := req.Validate(); err != nil {
		return err
	}

	if req.ID == "" {
		req.ID = uuid.New().String()
	}

	if req.SubmittedAt.IsZero() {
		req.SubmittedAt = time.Now()
	}

	return nil
}
