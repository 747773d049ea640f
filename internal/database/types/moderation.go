package types

import (
	"errors"
	"time"

	"github.com/modwatch/sentinel/internal/database/types/enum"
)

var (
	ErrInvalidRequest = errors.New("invalid moderation request")
	ErrEmptyContent   = errors.New("moderation request has no content")
	ErrMissingTarget  = errors.New("moderation request has no target")
)

// ModerationRequest is the opaque unit of work ingested by the pipeline.
// It is immutable once enqueued; the ID doubles as the idempotency key.
type ModerationRequest struct {
	ID          string            `json:"id"`
	Type        enum.RequestType  `json:"type"`
	SubmitterID uint64            `json:"submitterId"`
	TargetID    uint64            `json:"targetId"`
	ScopeID     uint64            `json:"scopeId,omitempty"`
	Content     string            `json:"content"`
	Metadata    map[string]string `json:"metadata,omitempty"`
	Priority    enum.Priority     `json:"priority"`
	SubmittedAt time.Time         `json:"submittedAt"`
}

// Validate rejects malformed requests before they reach the queue.
func (r *ModerationRequest) Validate() error {
	if r == nil {
		return ErrInvalidRequest
	}

	if r.TargetID == 0 {
		return ErrMissingTarget
	}

	// Join events carry no content by nature; everything else must.
	if r.Content == "" && r.Type != enum.RequestTypeUserJoin {
		return ErrEmptyContent
	}

	return nil
}

// RiskAssessment is the scored outcome for one moderation request.
// Produced exactly once per request ID and cached for idempotent re-delivery.
type RiskAssessment struct {
	RequestID           string             `json:"requestId"`
	Toxicity            float64            `json:"toxicity"`
	Spam                float64            `json:"spam"`
	NSFW                float64            `json:"nsfw"`
	OverallRisk         float64            `json:"overallRisk"`
	RiskLevel           enum.RiskLevel     `json:"riskLevel"`
	Confidence          float64            `json:"confidence"`
	Violation           enum.ViolationType `json:"violation"`
	Flags               []string           `json:"flags"`
	ProcessingLatencyMs int64              `json:"processingLatencyMs"`
	ServiceAvailable    bool               `json:"serviceAvailable"`
}

// EnforcementAction is the single active action decided for a request.
type EnforcementAction struct {
	RequestID          string          `json:"requestId"`
	Kind               enum.ActionKind `json:"kind"`
	PunishmentID       int64           `json:"punishmentId,omitempty"`
	PunishmentDuration time.Duration   `json:"punishmentDurationSeconds,omitempty"`
	Reason             string          `json:"reason"`
	Escalated          bool            `json:"escalated"`
	DecidedAt          time.Time       `json:"decidedAt"`
}

// Decision pairs the assessment with the action taken, forming the unit
// stored in the idempotency cache.
type Decision struct {
	Assessment *RiskAssessment    `json:"assessment"`
	Action     *EnforcementAction `json:"action"`
}

// QueueReceipt acknowledges an asynchronous submission.
type QueueReceipt struct {
	RequestID  string        `json:"requestId"`
	Priority   enum.Priority `json:"priority"`
	Position   int           `json:"position"`
	EnqueuedAt time.Time     `json:"enqueuedAt"`
}
