package types

import (
	"time"

	"github.com/modwatch/sentinel/internal/database/types/enum"
)

// AuditOptions is the structured payload attached to an audit entry.
// It captures why a decision was made without storing raw content.
type AuditOptions struct {
	RiskLevel     enum.RiskLevel     `json:"riskLevel"`
	ViolationType enum.ViolationType `json:"violationType"`
	OverallRisk   float64            `json:"overallRisk"`
	ServicesUsed  []string           `json:"servicesUsed,omitempty"`
}

// AuditLogEntry is one append-only record of a pipeline decision.
// Entries are never mutated or deleted by this subsystem; the
// (request_id, action_type) pair is unique so idempotent re-processing
// cannot duplicate an entry.
type AuditLogEntry struct {
	ID         int64                `bun:",pk,autoincrement"`
	RequestID  string               `bun:",notnull"`
	ActionType enum.AuditActionType `bun:",notnull"`
	TargetID   uint64               `bun:",notnull"`
	ScopeID    uint64               `bun:",nullzero"`
	Reason     string               `bun:",notnull"`
	Options    AuditOptions         `bun:"type:jsonb"`
	CreatedAt  time.Time            `bun:",notnull"`
}

// AuditFilter narrows audit queries. Zero fields are ignored.
type AuditFilter struct {
	TargetID   uint64
	ScopeID    uint64
	ActionType enum.AuditActionType
	Since      time.Time
	Until      time.Time
}

// AuditCursor marks a stable position for keyset pagination over the log.
type AuditCursor struct {
	CreatedAt time.Time
	ID        int64
}
