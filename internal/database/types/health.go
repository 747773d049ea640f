package types

import (
	"time"

	"github.com/modwatch/sentinel/internal/database/types/enum"
)

// HealthReport summarizes moderation activity for one scope over a window.
type HealthReport struct {
	ScopeID               uint64                     `json:"scopeId"`
	WindowHours           int                        `json:"windowHours"`
	Since                 time.Time                  `json:"since"`
	TotalActions          int                        `json:"totalActions"`
	RiskLevelDistribution map[enum.RiskLevel]int     `json:"riskLevelDistribution"`
	TopViolationTypes     map[enum.ViolationType]int `json:"topViolationTypes"`
	Recommendations       []string                   `json:"recommendations"`
}
