package scoring

import (
	"time"

	"github.com/modwatch/sentinel/internal/database/types"
	"github.com/modwatch/sentinel/internal/database/types/enum"
	"github.com/modwatch/sentinel/pkg/utils"
	"go.uber.org/zap"
)

// Thresholds are the independent per-category cutoffs for boolean
// category flags. Calibrated against operational data; these defaults
// match the values the fixtures were labeled with.
type Thresholds struct {
	Toxicity float64
	Spam     float64
	NSFW     float64
}

// DefaultThresholds returns the operational category cutoffs.
func DefaultThresholds() Thresholds {
	return Thresholds{Toxicity: 0.6, Spam: 0.5, NSFW: 0.4}
}

// LevelBounds are the ordered lower bounds for each risk level above safe.
// A score s maps to: safe < Low <= low < Medium <= medium < High <= high
// < Critical <= critical.
type LevelBounds struct {
	Low      float64
	Medium   float64
	High     float64
	Critical float64
}

// DefaultLevelBounds returns the operational risk level boundaries.
func DefaultLevelBounds() LevelBounds {
	return LevelBounds{Low: 0.2, Medium: 0.4, High: 0.6, Critical: 0.8}
}

// Aggregator combines per-category signals into one RiskAssessment.
// It owns the single fallback-construction path for degraded operation,
// so no call site builds its own "safe" result.
type Aggregator struct {
	thresholds Thresholds
	bounds     LevelBounds
	logger     *zap.Logger
}

// NewAggregator creates an aggregator with the given calibration.
func NewAggregator(thresholds Thresholds, bounds LevelBounds, logger *zap.Logger) *Aggregator {
	return &Aggregator{
		thresholds: thresholds,
		bounds:     bounds,
		logger:     logger.Named("aggregator"),
	}
}

// Aggregate combines category signals into a RiskAssessment. The overall
// risk is the maximum category score; the risk level always derives from
// the overall risk, never from a single category, so bucketing stays
// deterministic when several categories fire at once.
func (a *Aggregator) Aggregate(
	requestID string, sig CategorySignals, latency time.Duration,
) *types.RiskAssessment {
	toxicity := utils.Clamp01(sig.Toxicity.Score)
	spam := utils.Clamp01(sig.Spam.Score)
	nsfw := utils.Clamp01(sig.NSFW.Score)

	overall := max(toxicity, spam, nsfw)

	flags := make([]string, 0, len(sig.Toxicity.Flags)+len(sig.Spam.Flags)+len(sig.NSFW.Flags)+3)
	flags = append(flags, sig.Toxicity.Flags...)
	flags = append(flags, sig.Spam.Flags...)
	flags = append(flags, sig.NSFW.Flags...)

	// When several categories exceed their threshold all flags are kept,
	// and the highest-severity category selects the violation type.
	violation := enum.ViolationTypeNone

	if spam > a.thresholds.Spam {
		flags = append(flags, "spam")
		violation = enum.ViolationTypeSpam
	}

	if nsfw > a.thresholds.NSFW {
		flags = append(flags, "nsfw")

		if enum.ViolationTypeNSFW.Severity() > violation.Severity() {
			violation = enum.ViolationTypeNSFW
		}
	}

	if toxicity > a.thresholds.Toxicity {
		flags = append(flags, "toxic")

		if enum.ViolationTypeToxicity.Severity() > violation.Severity() {
			violation = enum.ViolationTypeToxicity
		}
	}

	assessment := &types.RiskAssessment{
		RequestID:           requestID,
		Toxicity:            toxicity,
		Spam:                spam,
		NSFW:                nsfw,
		OverallRisk:         overall,
		RiskLevel:           a.LevelFromScore(overall),
		Confidence:          overall,
		Violation:           violation,
		Flags:               flags,
		ProcessingLatencyMs: latency.Milliseconds(),
		ServiceAvailable:    true,
	}

	a.logger.Debug("Aggregated risk assessment",
		zap.String("requestID", requestID),
		zap.Float64("overallRisk", overall),
		zap.String("riskLevel", assessment.RiskLevel.String()),
		zap.String("violation", violation.String()))

	return assessment
}

// LevelFromScore buckets an overall risk score into a risk level. Pure
// and monotonic against the configured boundaries.
func (a *Aggregator) LevelFromScore(score float64) enum.RiskLevel {
	switch {
	case score >= a.bounds.Critical:
		return enum.RiskLevelCritical
	case score >= a.bounds.High:
		return enum.RiskLevelHigh
	case score >= a.bounds.Medium:
		return enum.RiskLevelMedium
	case score >= a.bounds.Low:
		return enum.RiskLevelLow
	default:
		return enum.RiskLevelSafe
	}
}

// Fallback builds the synthetic safe assessment served when scoring is
// unavailable. Callers always receive a usable result; upstream content
// flow is never blocked by a moderation outage.
func Fallback(requestID, reason string) *types.RiskAssessment {
	return &types.RiskAssessment{
		RequestID:        requestID,
		RiskLevel:        enum.RiskLevelSafe,
		Violation:        enum.ViolationTypeNone,
		Flags:            []string{"fallback: " + reason},
		ServiceAvailable: false,
	}
}
