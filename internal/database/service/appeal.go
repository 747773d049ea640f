package service

import (
	"context"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/modwatch/sentinel/internal/database/types"
	"github.com/modwatch/sentinel/internal/database/types/enum"
	"go.uber.org/zap"
)

const (
	// AppealReasonMinLength is the shortest acceptable appeal reason in runes.
	AppealReasonMinLength = 10
	// AppealReasonMaxLength is the longest acceptable appeal reason in runes.
	AppealReasonMaxLength = 1000
)

// AppealStore persists appeals.
type AppealStore interface {
	Create(ctx context.Context, appeal *types.Appeal) error
	GetByID(ctx context.Context, id int64) (*types.Appeal, error)
	HasPending(ctx context.Context, punishmentID int64) (bool, error)
	ListPending(ctx context.Context, limit int) ([]*types.Appeal, error)
	Resolve(ctx context.Context, id int64, status enum.AppealStatus, resolvedBy uint64, note string) error
}

// PunishmentStore looks up and reverts punishments under appeal.
type PunishmentStore interface {
	GetByID(ctx context.Context, id int64) (*types.Punishment, error)
	Revert(ctx context.Context, id int64) error
}

// AuditRecorder appends audit entries for appeal lifecycle events.
type AuditRecorder interface {
	Log(ctx context.Context, entry *types.AuditLogEntry)
}

// ModeratorChecker reports whether a user holds moderation authority in a scope.
type ModeratorChecker interface {
	IsModerator(ctx context.Context, userID, scopeID uint64) (bool, error)
}

// AppealService handles the appeal lifecycle: submission validation,
// reviewer resolution, and punishment reversal on overturn.
type AppealService struct {
	appeal     AppealStore
	punishment PunishmentStore
	audit      AuditRecorder
	checker    ModeratorChecker
	logger     *zap.Logger
}

// NewAppeal creates an AppealService.
func NewAppeal(
	appeal AppealStore, punishment PunishmentStore, audit AuditRecorder,
	checker ModeratorChecker, logger *zap.Logger,
) *AppealService {
	return &AppealService{
		appeal:     appeal,
		punishment: punishment,
		audit:      audit,
		checker:    checker,
		logger:     logger.Named("appeal_service"),
	}
}

// Submit validates and records an appeal against a punishment. The
// punished user or a moderator of the punishment's scope may appeal,
// the reason must be within bounds, and a punishment can carry at most
// one pending appeal.
func (s *AppealService) Submit(
	ctx context.Context, punishmentID int64, submitterID uint64, reason, evidence string,
) (*types.Appeal, error) {
	if n := utf8.RuneCountInString(reason); n < AppealReasonMinLength || n > AppealReasonMaxLength {
		return nil, types.ErrAppealReasonLength
	}

	punishment, err := s.punishment.GetByID(ctx, punishmentID)
	if err != nil {
		return nil, err
	}

	if punishment.UserID != submitterID {
		moderator, err := s.checker.IsModerator(ctx, submitterID, punishment.ScopeID)
		if err != nil {
			return nil, fmt.Errorf("failed to check moderator authority: %w", err)
		}

		if !moderator {
			return nil, types.ErrAppealPermission
		}
	}

	pending, err := s.appeal.HasPending(ctx, punishmentID)
	if err != nil {
		return nil, err
	}

	if pending {
		return nil, types.ErrAppealAlreadyPending
	}

	appeal := &types.Appeal{
		PunishmentID: punishmentID,
		SubmitterID:  submitterID,
		Reason:       reason,
		Evidence:     evidence,
		Status:       enum.AppealStatusPending,
		SubmittedAt:  time.Now(),
	}

	if err := s.appeal.Create(ctx, appeal); err != nil {
		return nil, err
	}

	s.audit.Log(ctx, &types.AuditLogEntry{
		RequestID:  fmt.Sprintf("appeal-%d", appeal.ID),
		ActionType: enum.AuditActionAppealSubmission,
		TargetID:   submitterID,
		ScopeID:    punishment.ScopeID,
		Reason:     reason,
	})

	s.logger.Info("Appeal submitted",
		zap.Int64("appealID", appeal.ID),
		zap.Int64("punishmentID", punishmentID),
		zap.Uint64("submitterID", submitterID))

	return appeal, nil
}

// Resolve records a reviewer verdict. An overturned appeal reverts its
// punishment and returns it so the caller can lift the membership
// restriction; an upheld appeal leaves the punishment in place.
func (s *AppealService) Resolve(
	ctx context.Context, appealID int64, reviewerID uint64, overturn bool, note string,
) (*types.Appeal, *types.Punishment, error) {
	appeal, err := s.appeal.GetByID(ctx, appealID)
	if err != nil {
		return nil, nil, err
	}

	if appeal.Status != enum.AppealStatusPending {
		return nil, nil, types.ErrAppealAlreadyResolved
	}

	status := enum.AppealStatusUpheld
	if overturn {
		status = enum.AppealStatusOverturned
	}

	if err := s.appeal.Resolve(ctx, appealID, status, reviewerID, note); err != nil {
		return nil, nil, err
	}

	appeal.Status = status
	appeal.ResolvedBy = reviewerID
	appeal.ResolvedAt = time.Now()
	appeal.ResolutionNote = note

	s.audit.Log(ctx, &types.AuditLogEntry{
		RequestID:  fmt.Sprintf("appeal-%d", appeal.ID),
		ActionType: enum.AuditActionAppealResolution,
		TargetID:   appeal.SubmitterID,
		Reason:     fmt.Sprintf("appeal %s: %s", status, note),
	})

	var reverted *types.Punishment

	if overturn {
		punishment, err := s.punishment.GetByID(ctx, appeal.PunishmentID)
		if err != nil {
			return appeal, nil, err
		}

		if err := s.punishment.Revert(ctx, punishment.ID); err != nil {
			// Already expired or reverted; the verdict still stands.
			s.logger.Warn("Punishment not revertible",
				zap.Int64("punishmentID", punishment.ID), zap.Error(err))
		} else {
			punishment.Active = false
			punishment.Reverted = true
			reverted = punishment

			s.audit.Log(ctx, &types.AuditLogEntry{
				RequestID:  punishment.RequestID,
				ActionType: enum.AuditActionPunishmentReverted,
				TargetID:   punishment.UserID,
				ScopeID:    punishment.ScopeID,
				Reason:     fmt.Sprintf("appeal %d overturned", appeal.ID),
			})
		}
	}

	s.logger.Info("Appeal resolved",
		zap.Int64("appealID", appealID),
		zap.String("status", status.String()),
		zap.Uint64("reviewerID", reviewerID))

	return appeal, reverted, nil
}

// ListPending returns unresolved appeals oldest-first.
func (s *AppealService) ListPending(ctx context.Context, limit int) ([]*types.Appeal, error) {
	return s.appeal.ListPending(ctx, limit)
}
