package scoring_test

import (
	"testing"
	"time"

	"github.com/modwatch/sentinel/internal/database/types/enum"
	"github.com/modwatch/sentinel/internal/scoring"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func newTestAggregator(t *testing.T) *scoring.Aggregator {
	t.Helper()

	return scoring.NewAggregator(
		scoring.DefaultThresholds(), scoring.DefaultLevelBounds(), zap.NewNop(),
	)
}

func TestLevelFromScore(t *testing.T) {
	t.Parallel()

	a := newTestAggregator(t)

	tests := []struct {
		name  string
		score float64
		want  enum.RiskLevel
	}{
		{name: "zero", score: 0, want: enum.RiskLevelSafe},
		{name: "just below low", score: 0.199, want: enum.RiskLevelSafe},
		{name: "exactly low bound", score: 0.2, want: enum.RiskLevelLow},
		{name: "just below medium", score: 0.399, want: enum.RiskLevelLow},
		{name: "exactly medium bound", score: 0.4, want: enum.RiskLevelMedium},
		{name: "just below high", score: 0.599, want: enum.RiskLevelMedium},
		{name: "exactly high bound", score: 0.6, want: enum.RiskLevelHigh},
		{name: "just below critical", score: 0.799, want: enum.RiskLevelHigh},
		{name: "exactly critical bound", score: 0.8, want: enum.RiskLevelCritical},
		{name: "maximum", score: 1, want: enum.RiskLevelCritical},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.want, a.LevelFromScore(tt.score))
		})
	}
}

func TestAggregateOverallIsMax(t *testing.T) {
	t.Parallel()

	a := newTestAggregator(t)

	sig := scoring.CategorySignals{
		Toxicity: scoring.Signal{Score: 0.3},
		Spam:     scoring.Signal{Score: 0.7},
		NSFW:     scoring.Signal{Score: 0.1},
	}

	got := a.Aggregate("req-1", sig, time.Millisecond)

	assert.InDelta(t, 0.7, got.OverallRisk, 1e-9)
	assert.Equal(t, enum.RiskLevelHigh, got.RiskLevel)
	assert.Equal(t, enum.ViolationTypeSpam, got.Violation)
	assert.True(t, got.ServiceAvailable)
}

func TestAggregateClampsScores(t *testing.T) {
	t.Parallel()

	a := newTestAggregator(t)

	sig := scoring.CategorySignals{
		Toxicity: scoring.Signal{Score: 1.4},
		Spam:     scoring.Signal{Score: -0.2},
	}

	got := a.Aggregate("req-2", sig, time.Millisecond)

	assert.InDelta(t, 1.0, got.Toxicity, 1e-9)
	assert.InDelta(t, 0.0, got.Spam, 1e-9)
	assert.InDelta(t, 1.0, got.OverallRisk, 1e-9)
	assert.Equal(t, enum.RiskLevelCritical, got.RiskLevel)
}

func TestAggregateViolationSeverity(t *testing.T) {
	t.Parallel()

	a := newTestAggregator(t)

	tests := []struct {
		name string
		sig  scoring.CategorySignals
		want enum.ViolationType
	}{
		{
			name: "nothing exceeds thresholds",
			sig: scoring.CategorySignals{
				Toxicity: scoring.Signal{Score: 0.6},
				Spam:     scoring.Signal{Score: 0.5},
				NSFW:     scoring.Signal{Score: 0.4},
			},
			want: enum.ViolationTypeNone,
		},
		{
			name: "spam only",
			sig:  scoring.CategorySignals{Spam: scoring.Signal{Score: 0.55}},
			want: enum.ViolationTypeSpam,
		},
		{
			name: "toxicity outranks spam and nsfw",
			sig: scoring.CategorySignals{
				Toxicity: scoring.Signal{Score: 0.65},
				Spam:     scoring.Signal{Score: 0.9},
				NSFW:     scoring.Signal{Score: 0.9},
			},
			want: enum.ViolationTypeToxicity,
		},
		{
			name: "nsfw outranks spam",
			sig: scoring.CategorySignals{
				Spam: scoring.Signal{Score: 0.9},
				NSFW: scoring.Signal{Score: 0.5},
			},
			want: enum.ViolationTypeNSFW,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := a.Aggregate("req", tt.sig, 0)
			assert.Equal(t, tt.want, got.Violation)
		})
	}
}

func TestAggregateKeepsAllCategoryFlags(t *testing.T) {
	t.Parallel()

	a := newTestAggregator(t)

	sig := scoring.CategorySignals{
		Toxicity: scoring.Signal{Score: 0.7, Flags: []string{"toxicity/hate: slur"}},
		Spam:     scoring.Signal{Score: 0.8, Flags: []string{"spam/promotional: free"}},
		NSFW:     scoring.Signal{Score: 0.5},
	}

	got := a.Aggregate("req-3", sig, 0)

	assert.Contains(t, got.Flags, "toxicity/hate: slur")
	assert.Contains(t, got.Flags, "spam/promotional: free")
	assert.Contains(t, got.Flags, "spam")
	assert.Contains(t, got.Flags, "nsfw")
	assert.Contains(t, got.Flags, "toxic")
}

func TestFallback(t *testing.T) {
	t.Parallel()

	got := scoring.Fallback("req-9", "max attempts exhausted")

	assert.Equal(t, "req-9", got.RequestID)
	assert.Equal(t, enum.RiskLevelSafe, got.RiskLevel)
	assert.Equal(t, enum.ViolationTypeNone, got.Violation)
	assert.False(t, got.ServiceAvailable)
	assert.Zero(t, got.OverallRisk)
	assert.Equal(t, []string{"fallback: max attempts exhausted"}, got.Flags)
}
