// Package enforce turns risk assessments into enforcement decisions and
// applies their side effects through the membership platform.
package enforce

import (
	"context"
	"fmt"
	"time"

	"github.com/modwatch/sentinel/internal/database"
	"github.com/modwatch/sentinel/internal/database/types"
	"github.com/modwatch/sentinel/internal/database/types/enum"
	"github.com/modwatch/sentinel/internal/membership"
	"github.com/modwatch/sentinel/internal/setup/config"
	"github.com/modwatch/sentinel/pkg/utils"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// auditStore is the slice of the audit model the engine records through.
type auditStore interface {
	Log(ctx context.Context, entry *types.AuditLogEntry)
	LogBatch(ctx context.Context, entries []*types.AuditLogEntry)
	CountModerationActions(ctx context.Context, targetID uint64, since time.Time) (int, error)
}

// punishmentStore persists punishment rows decided by the engine.
type punishmentStore interface {
	Create(ctx context.Context, punishment *types.Punishment) error
}

// Engine maps risk levels to enforcement actions. Decisions are cached by
// request ID so re-processing a delivered request returns the original
// decision without re-applying side effects; concurrent calls for one
// request ID share a single execution. Membership calls run behind a
// circuit breaker with retries; a tripped breaker fails closed by
// escalating to human moderators instead of silently dropping the action.
type Engine struct {
	audits      auditStore
	punishments punishmentStore
	membership  membership.Client
	breaker     *gobreaker.CircuitBreaker
	cache       *utils.TTLMap[string, *types.Decision]
	group       singleflight.Group

	muteDuration time.Duration
	banDuration  time.Duration
	logger       *zap.Logger
}

// NewEngine creates an enforcement engine.
func NewEngine(
	db database.Client, member membership.Client,
	cfg *config.Config, logger *zap.Logger,
) *Engine {
	engineLogger := logger.Named("enforce")

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "membership",
		MaxRequests: cfg.Breaker.MaxRequests,
		Interval:    time.Duration(cfg.Breaker.Interval) * time.Second,
		Timeout:     time.Duration(cfg.Breaker.Timeout) * time.Second,
		OnStateChange: func(name string, from, to gobreaker.State) {
			engineLogger.Warn("Circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	})

	return &Engine{
		audits:       db.Model().Audit(),
		punishments:  db.Model().Punishment(),
		membership:   member,
		breaker:      breaker,
		cache:        utils.NewTTLMap[string, *types.Decision](time.Duration(cfg.Moderation.DecisionCacheTTL) * time.Minute),
		muteDuration: time.Duration(cfg.Moderation.Punishments.MuteHours) * time.Hour,
		banDuration:  time.Duration(cfg.Moderation.Punishments.BanHours) * time.Hour,
		logger:       engineLogger,
	}
}

// CachedDecision returns the stored decision for a request ID, if any.
func (e *Engine) CachedDecision(requestID string) (*types.Decision, bool) {
	return e.cache.Get(requestID)
}

// Decide produces the enforcement decision for an assessed request.
// Calling it again with the same request ID returns the first decision
// unchanged, and concurrent calls for the same ID collapse into one
// execution, so side effects and audit entries are applied at most once.
func (e *Engine) Decide(
	ctx context.Context, req *types.ModerationRequest, assessment *types.RiskAssessment,
) (*types.Decision, error) {
	result, err, _ := e.group.Do(req.ID, func() (any, error) {
		return e.decide(ctx, req, assessment)
	})
	if err != nil {
		return nil, err
	}

	return result.(*types.Decision), nil
}

func (e *Engine) decide(
	ctx context.Context, req *types.ModerationRequest, assessment *types.RiskAssessment,
) (*types.Decision, error) {
	if cached, ok := e.cache.Get(req.ID); ok {
		return cached, nil
	}

	action := &types.EnforcementAction{
		RequestID: req.ID,
		DecidedAt: time.Now(),
	}

	// A degraded assessment carries no signal to act on. Record the
	// outage and allow the content through.
	if !assessment.ServiceAvailable {
		action.Kind = enum.ActionKindNone
		action.Reason = "scoring unavailable, fallback assessment served"

		e.audits.Log(ctx, e.entry(req, assessment, enum.AuditActionServiceDegraded, action.Reason))

		return e.store(req.ID, assessment, action), nil
	}

	entries := e.detectionEntries(req, assessment)

	switch assessment.RiskLevel {
	case enum.RiskLevelSafe, enum.RiskLevelLow:
		action.Kind = enum.ActionKindNone
		action.Reason = fmt.Sprintf("content allowed at %s risk", assessment.RiskLevel)

		entries = append(entries, e.entry(req, assessment, enum.AuditActionAutomatedEnforcement, action.Reason))

	case enum.RiskLevelMedium:
		action.Kind = enum.ActionKindFlagForReview
		action.Reason = fmt.Sprintf("flagged for review: %s (risk %.2f)",
			assessment.Violation, assessment.OverallRisk)

		entries = append(entries, e.entry(req, assessment, enum.AuditActionContentFlagged, action.Reason))

	case enum.RiskLevelHigh:
		action.Kind = enum.ActionKindBlock
		action.Reason = fmt.Sprintf("blocked: %s (risk %.2f)",
			assessment.Violation, assessment.OverallRisk)

		e.punish(ctx, req, action, enum.PunishmentKindMute, e.muteDuration)

		entries = append(entries, e.entry(req, assessment, enum.AuditActionContentBlocked, action.Reason))

	case enum.RiskLevelCritical:
		action.Kind = enum.ActionKindEscalate
		action.Escalated = true
		action.Reason = fmt.Sprintf("escalated: %s (risk %.2f)",
			assessment.Violation, assessment.OverallRisk)

		e.punish(ctx, req, action, enum.PunishmentKindBan, e.banDuration)
		e.notify(ctx, req, assessment)

		entries = append(entries, e.entry(req, assessment, enum.AuditActionEscalation, action.Reason))
	}

	e.audits.LogBatch(ctx, entries)

	e.logger.Info("Enforcement decided",
		zap.String("requestID", req.ID),
		zap.String("riskLevel", assessment.RiskLevel.String()),
		zap.String("action", action.Kind.String()),
		zap.Bool("escalated", action.Escalated))

	return e.store(req.ID, assessment, action), nil
}

// store writes the decision into the idempotency cache. When a concurrent
// decide for the same request got there first, its decision wins.
func (e *Engine) store(
	requestID string, assessment *types.RiskAssessment, action *types.EnforcementAction,
) *types.Decision {
	decision := &types.Decision{Assessment: assessment, Action: action}
	stored, _ := e.cache.SetIfAbsent(requestID, decision)

	return stored
}

// punish records the punishment row and applies the membership
// restriction. A side-effect failure escalates rather than silently
// leaving the punishment unapplied.
func (e *Engine) punish(
	ctx context.Context, req *types.ModerationRequest,
	action *types.EnforcementAction, kind enum.PunishmentKind, duration time.Duration,
) {
	punishment := &types.Punishment{
		RequestID: req.ID,
		UserID:    req.TargetID,
		ScopeID:   req.ScopeID,
		Kind:      kind,
		Reason:    action.Reason,
		IssuedAt:  time.Now(),
		ExpiresAt: time.Now().Add(duration),
		Active:    true,
	}

	if err := e.punishments.Create(ctx, punishment); err != nil {
		e.logger.Error("Failed to record punishment",
			zap.String("requestID", req.ID), zap.Error(err))
	} else {
		action.PunishmentID = punishment.ID
	}

	action.PunishmentDuration = duration

	apply := func() (any, error) {
		return e.breaker.Execute(func() (any, error) {
			switch kind {
			case enum.PunishmentKindMute:
				return nil, e.membership.Mute(ctx, req.TargetID, req.ScopeID, duration)
			case enum.PunishmentKindBan:
				return nil, e.membership.Ban(ctx, req.TargetID, req.ScopeID, duration)
			default:
				return nil, nil
			}
		})
	}

	if _, err := utils.WithRetry(ctx, apply, utils.GetSideEffectRetryOptions()); err != nil {
		e.logger.Error("Failed to apply punishment, escalating",
			zap.String("requestID", req.ID),
			zap.String("kind", kind.String()),
			zap.Error(err))

		action.Escalated = true
		e.notify(ctx, req, nil)
	}
}

// notify alerts human moderators, retrying through the breaker. Prior
// moderation history for the target is included so repeat offenders
// stand out.
func (e *Engine) notify(ctx context.Context, req *types.ModerationRequest, assessment *types.RiskAssessment) {
	message := fmt.Sprintf("request %s on user %d requires attention", req.ID, req.TargetID)
	if assessment != nil {
		message = fmt.Sprintf("request %s on user %d: %s risk (%.2f)",
			req.ID, req.TargetID, assessment.RiskLevel, assessment.OverallRisk)
	}

	count, err := e.audits.CountModerationActions(ctx, req.TargetID, time.Now().AddDate(0, 0, -30))
	if err != nil {
		e.logger.Warn("Failed to count prior moderation actions",
			zap.Uint64("targetID", req.TargetID), zap.Error(err))
	} else if count > 0 {
		message = fmt.Sprintf("%s; %d moderation actions in the last 30 days", message, count)
	}

	send := func() (any, error) {
		return e.breaker.Execute(func() (any, error) {
			return nil, e.membership.NotifyModerators(ctx, req.ScopeID, message)
		})
	}

	if _, err := utils.WithRetry(ctx, send, utils.GetSideEffectRetryOptions()); err != nil {
		e.logger.Error("Failed to notify moderators",
			zap.String("requestID", req.ID), zap.Error(err))
	}
}

// detectionEntries builds one audit entry per category that exceeded its
// threshold. They are written together with the terminal decision entry.
func (e *Engine) detectionEntries(
	req *types.ModerationRequest, assessment *types.RiskAssessment,
) []*types.AuditLogEntry {
	detections := map[string]enum.AuditActionType{
		"spam":  enum.AuditActionSpamDetection,
		"toxic": enum.AuditActionToxicityDetection,
		"nsfw":  enum.AuditActionNSFWDetection,
	}

	var entries []*types.AuditLogEntry

	for _, flag := range assessment.Flags {
		if actionType, ok := detections[flag]; ok {
			entries = append(entries, e.entry(req, assessment, actionType,
				fmt.Sprintf("%s signal exceeded threshold", flag)))
		}
	}

	return entries
}

// entry builds one audit entry for the request. Raw content is never
// stored; the structured options capture the decision context.
func (e *Engine) entry(
	req *types.ModerationRequest, assessment *types.RiskAssessment,
	actionType enum.AuditActionType, reason string,
) *types.AuditLogEntry {
	return &types.AuditLogEntry{
		RequestID:  req.ID,
		ActionType: actionType,
		TargetID:   req.TargetID,
		ScopeID:    req.ScopeID,
		Reason:     reason,
		Options: types.AuditOptions{
			RiskLevel:     assessment.RiskLevel,
			ViolationType: assessment.Violation,
			OverallRisk:   assessment.OverallRisk,
			ServicesUsed:  servicesUsed(assessment),
		},
	}
}

// servicesUsed reconstructs which scoring services contributed from the
// assessment flags.
func servicesUsed(assessment *types.RiskAssessment) []string {
	if !assessment.ServiceAvailable {
		return nil
	}

	services := []string{"patterns"}

	for _, flag := range assessment.Flags {
		switch flag {
		case "spam/classifier: statistical match":
			services = append(services, "classifier")
		default:
			if len(flag) > 18 && flag[:18] == "toxicity/sentiment" {
				services = append(services, "sentiment")
			}
		}
	}

	return services
}
