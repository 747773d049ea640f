package service

import (
	"testing"

	"github.com/modwatch/sentinel/internal/database/types"
	"github.com/modwatch/sentinel/internal/database/types/enum"
	"github.com/stretchr/testify/assert"
)

func TestBuildRecommendations(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		report *types.HealthReport
		want   []string
	}{
		{
			name:   "quiet window yields exactly the healthy message",
			report: &types.HealthReport{},
			want:   []string{"community appears healthy"},
		},
		{
			name: "normal activity",
			report: &types.HealthReport{
				TotalActions: 3,
				RiskLevelDistribution: map[enum.RiskLevel]int{
					enum.RiskLevelMedium: 3,
				},
			},
			want: []string{"moderation activity within normal range"},
		},
		{
			name: "critical spike",
			report: &types.HealthReport{
				TotalActions: 6,
				RiskLevelDistribution: map[enum.RiskLevel]int{
					enum.RiskLevelCritical: 6,
				},
			},
			want: []string{"review and strengthen community guidelines"},
		},
		{
			name: "high spike",
			report: &types.HealthReport{
				TotalActions: 11,
				RiskLevelDistribution: map[enum.RiskLevel]int{
					enum.RiskLevelHigh: 11,
				},
			},
			want: []string{"increase moderation presence"},
		},
		{
			name: "critical and high spikes stack",
			report: &types.HealthReport{
				TotalActions: 17,
				RiskLevelDistribution: map[enum.RiskLevel]int{
					enum.RiskLevelCritical: 6,
					enum.RiskLevelHigh:     11,
				},
			},
			want: []string{
				"review and strengthen community guidelines",
				"increase moderation presence",
			},
		},
		{
			name: "counts at the limits stay normal",
			report: &types.HealthReport{
				TotalActions: 15,
				RiskLevelDistribution: map[enum.RiskLevel]int{
					enum.RiskLevelCritical: 5,
					enum.RiskLevelHigh:     10,
				},
			},
			want: []string{"moderation activity within normal range"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.want, buildRecommendations(tt.report))
		})
	}
}
