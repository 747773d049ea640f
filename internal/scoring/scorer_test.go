package scoring_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/modwatch/sentinel/internal/database/types"
	"github.com/modwatch/sentinel/internal/database/types/enum"
	"github.com/modwatch/sentinel/internal/scoring"
	"github.com/modwatch/sentinel/internal/setup/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestScorer(t *testing.T) *scoring.Scorer {
	t.Helper()

	cfg := config.DefaultModeration()

	return scoring.NewScorer(&cfg, zap.NewNop())
}

func newMessageRequest(content string) *types.ModerationRequest {
	return &types.ModerationRequest{
		ID:          uuid.New().String(),
		Type:        enum.RequestTypeMessage,
		SubmitterID: 100,
		TargetID:    200,
		ScopeID:     300,
		Content:     content,
		Priority:    enum.PriorityMedium,
		SubmittedAt: time.Now(),
	}
}

func TestScoreFixtures(t *testing.T) {
	t.Parallel()

	scorer := newTestScorer(t)

	tests := []struct {
		name     string
		content  string
		toxic    bool
		spam     bool
		nsfw     bool
		minLevel enum.RiskLevel
	}{
		{
			name:     "friendly greeting",
			content:  "Hello everyone! Hope you're having a great day.",
			minLevel: enum.RiskLevelSafe,
		},
		{
			name:     "promotional blast",
			content:  "🚀🚀🚀 FREE MONEY GIVEAWAY!!! Click here NOW...",
			spam:     true,
			minLevel: enum.RiskLevelHigh,
		},
		{
			name:     "hostile rant",
			content:  "I hate everyone in this stupid server, you're all idiots and should die",
			toxic:    true,
			minLevel: enum.RiskLevelHigh,
		},
		{
			name:     "repeated sales pitch",
			content:  "BUY VIAGRA ONLINE CHEAP CHEAP CHEAP!!!",
			spam:     true,
			nsfw:     true,
			minLevel: enum.RiskLevelHigh,
		},
	}

	thresholds := scoring.DefaultThresholds()

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := scorer.Score(context.Background(), newMessageRequest(tt.content))
			require.NoError(t, err)

			assert.Equal(t, tt.toxic, got.Toxicity > thresholds.Toxicity, "toxicity %.2f", got.Toxicity)
			assert.Equal(t, tt.spam, got.Spam > thresholds.Spam, "spam %.2f", got.Spam)
			assert.Equal(t, tt.nsfw, got.NSFW > thresholds.NSFW, "nsfw %.2f", got.NSFW)
			assert.GreaterOrEqual(t, got.RiskLevel, tt.minLevel)
			assert.True(t, got.ServiceAvailable)

			if !tt.toxic && !tt.spam && !tt.nsfw {
				assert.Equal(t, enum.RiskLevelSafe, got.RiskLevel)
				assert.Equal(t, enum.ViolationTypeNone, got.Violation)
			}
		})
	}
}

func TestScoreBoundsAndOverall(t *testing.T) {
	t.Parallel()

	scorer := newTestScorer(t)

	contents := []string{
		"",
		"just a normal sentence about the weather",
		"I hate everyone in this stupid server, you're all idiots and should die",
		"🚀🚀🚀 FREE MONEY GIVEAWAY!!! Click here NOW...",
	}

	for _, content := range contents {
		got, err := scorer.Score(context.Background(), newMessageRequest(content))
		require.NoError(t, err)

		for name, score := range map[string]float64{
			"toxicity": got.Toxicity,
			"spam":     got.Spam,
			"nsfw":     got.NSFW,
			"overall":  got.OverallRisk,
		} {
			assert.GreaterOrEqual(t, score, 0.0, name)
			assert.LessOrEqual(t, score, 1.0, name)
		}

		assert.InDelta(t, max(got.Toxicity, got.Spam, got.NSFW), got.OverallRisk, 1e-9)
	}
}

func TestScoreDeterministic(t *testing.T) {
	t.Parallel()

	scorer := newTestScorer(t)
	req := newMessageRequest("BUY VIAGRA ONLINE CHEAP CHEAP CHEAP!!!")

	first, err := scorer.Score(context.Background(), req)
	require.NoError(t, err)

	second, err := scorer.Score(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, first.Toxicity, second.Toxicity)
	assert.Equal(t, first.Spam, second.Spam)
	assert.Equal(t, first.NSFW, second.NSFW)
	assert.Equal(t, first.RiskLevel, second.RiskLevel)
	assert.Equal(t, first.Violation, second.Violation)
	assert.ElementsMatch(t, first.Flags, second.Flags)
}

func TestScoreCancelledContext(t *testing.T) {
	t.Parallel()

	scorer := newTestScorer(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := scorer.Score(ctx, newMessageRequest("anything"))
	require.ErrorIs(t, err, context.Canceled)
}

func TestScoreEmptyContent(t *testing.T) {
	t.Parallel()

	scorer := newTestScorer(t)

	got, err := scorer.Score(context.Background(), newMessageRequest(""))
	require.NoError(t, err)

	assert.Zero(t, got.OverallRisk)
	assert.Equal(t, enum.RiskLevelSafe, got.RiskLevel)
}
