package service

import (
	"context"
	"time"

	"github.com/modwatch/sentinel/internal/database/models"
	"github.com/modwatch/sentinel/internal/database/types"
	"github.com/modwatch/sentinel/internal/database/types/enum"
	"go.uber.org/zap"
)

const (
	// MinReportWindowHours bounds the shortest report window.
	MinReportWindowHours = 1
	// MaxReportWindowHours bounds the longest report window (30 days).
	MaxReportWindowHours = 720

	criticalActionLimit = 5
	highActionLimit     = 10
)

// HealthService aggregates audit history into per-scope health reports.
type HealthService struct {
	audit  *models.AuditModel
	logger *zap.Logger
}

// NewHealth creates a HealthService.
func NewHealth(audit *models.AuditModel, logger *zap.Logger) *HealthService {
	return &HealthService{
		audit:  audit,
		logger: logger.Named("health_service"),
	}
}

// GenerateReport summarizes moderation activity for one scope over the
// given window. The window is clamped to [1, 720] hours. Only terminal
// decision entries count as actions; detection entries feed the violation
// tallies through their recorded options.
func (s *HealthService) GenerateReport(
	ctx context.Context, scopeID uint64, windowHours int,
) (*types.HealthReport, error) {
	windowHours = min(max(windowHours, MinReportWindowHours), MaxReportWindowHours)
	since := time.Now().Add(-time.Duration(windowHours) * time.Hour)

	entries, err := s.audit.GetSince(ctx, scopeID, since)
	if err != nil {
		return nil, err
	}

	report := &types.HealthReport{
		ScopeID:               scopeID,
		WindowHours:           windowHours,
		Since:                 since,
		RiskLevelDistribution: make(map[enum.RiskLevel]int),
		TopViolationTypes:     make(map[enum.ViolationType]int),
	}

	for _, entry := range entries {
		if !isDecision(entry.ActionType) {
			continue
		}

		report.TotalActions++
		report.RiskLevelDistribution[entry.Options.RiskLevel]++

		if entry.Options.ViolationType != enum.ViolationTypeNone {
			report.TopViolationTypes[entry.Options.ViolationType]++
		}
	}

	report.Recommendations = buildRecommendations(report)

	s.logger.Debug("Generated health report",
		zap.Uint64("scopeID", scopeID),
		zap.Int("windowHours", windowHours),
		zap.Int("totalActions", report.TotalActions))

	return report, nil
}

// isDecision reports whether an entry records a terminal pipeline decision
// rather than a supporting detection or lifecycle event.
func isDecision(actionType enum.AuditActionType) bool {
	switch actionType {
	case enum.AuditActionAutomatedEnforcement,
		enum.AuditActionContentFlagged,
		enum.AuditActionContentBlocked,
		enum.AuditActionEscalation:
		return true
	default:
		return false
	}
}

// buildRecommendations derives advisory messages from the distribution.
// A quiet window yields exactly the healthy message and nothing else.
func buildRecommendations(report *types.HealthReport) []string {
	if report.TotalActions == 0 {
		return []string{"community appears healthy"}
	}

	var recommendations []string

	if report.RiskLevelDistribution[enum.RiskLevelCritical] > criticalActionLimit {
		recommendations = append(recommendations, "review and strengthen community guidelines")
	}

	if report.RiskLevelDistribution[enum.RiskLevelHigh] > highActionLimit {
		recommendations = append(recommendations, "increase moderation presence")
	}

	if len(recommendations) == 0 {
		recommendations = append(recommendations, "moderation activity within normal range")
	}

	return recommendations
}
