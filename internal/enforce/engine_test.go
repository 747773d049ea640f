package enforce

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/modwatch/sentinel/internal/database/types"
	"github.com/modwatch/sentinel/internal/database/types/enum"
	"github.com/modwatch/sentinel/pkg/utils"
	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recordingAudit struct {
	mu      sync.Mutex
	entries []*types.AuditLogEntry
}

func (r *recordingAudit) Log(_ context.Context, entry *types.AuditLogEntry) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.entries = append(r.entries, entry)
}

func (r *recordingAudit) LogBatch(_ context.Context, entries []*types.AuditLogEntry) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.entries = append(r.entries, entries...)
}

func (r *recordingAudit) CountModerationActions(context.Context, uint64, time.Time) (int, error) {
	return 0, nil
}

func (r *recordingAudit) actionTypes() []enum.AuditActionType {
	r.mu.Lock()
	defer r.mu.Unlock()

	actionTypes := make([]enum.AuditActionType, 0, len(r.entries))
	for _, entry := range r.entries {
		actionTypes = append(actionTypes, entry.ActionType)
	}

	return actionTypes
}

type countingPunishments struct {
	created atomic.Int64
}

func (c *countingPunishments) Create(_ context.Context, punishment *types.Punishment) error {
	punishment.ID = c.created.Add(1)
	return nil
}

type countingMembership struct {
	mutes    atomic.Int64
	bans     atomic.Int64
	notifies atomic.Int64
}

func (c *countingMembership) Mute(context.Context, uint64, uint64, time.Duration) error {
	c.mutes.Add(1)
	return nil
}

func (c *countingMembership) Unmute(context.Context, uint64, uint64) error { return nil }

func (c *countingMembership) Ban(context.Context, uint64, uint64, time.Duration) error {
	c.bans.Add(1)
	return nil
}

func (c *countingMembership) Unban(context.Context, uint64, uint64) error { return nil }

func (c *countingMembership) NotifyModerators(context.Context, uint64, string) error {
	c.notifies.Add(1)
	return nil
}

func (c *countingMembership) IsModerator(context.Context, uint64, uint64) (bool, error) {
	return false, nil
}

func newTestEngine(audits *recordingAudit, punishments *countingPunishments, member *countingMembership) *Engine {
	return &Engine{
		audits:       audits,
		punishments:  punishments,
		membership:   member,
		breaker:      gobreaker.NewCircuitBreaker(gobreaker.Settings{Name: "membership"}),
		cache:        utils.NewTTLMap[string, *types.Decision](time.Minute),
		muteDuration: time.Hour,
		banDuration:  time.Hour,
		logger:       zap.NewNop(),
	}
}

func newRequest(id string) *types.ModerationRequest {
	return &types.ModerationRequest{
		ID:          id,
		Type:        enum.RequestTypeMessage,
		SubmitterID: 100,
		TargetID:    200,
		ScopeID:     300,
		Content:     "some content",
		Priority:    enum.PriorityMedium,
		SubmittedAt: time.Now(),
	}
}

func newAssessment(id string, level enum.RiskLevel) *types.RiskAssessment {
	return &types.RiskAssessment{
		RequestID:        id,
		Toxicity:         0.7,
		OverallRisk:      0.7,
		RiskLevel:        level,
		Confidence:       0.7,
		Violation:        enum.ViolationTypeToxicity,
		Flags:            []string{"toxic"},
		ServiceAvailable: true,
	}
}

func TestDecideActionByRiskLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		level     enum.RiskLevel
		wantKind  enum.ActionKind
		wantMutes int64
		wantBans  int64
	}{
		{name: "safe allows", level: enum.RiskLevelSafe, wantKind: enum.ActionKindNone},
		{name: "low allows", level: enum.RiskLevelLow, wantKind: enum.ActionKindNone},
		{name: "medium flags", level: enum.RiskLevelMedium, wantKind: enum.ActionKindFlagForReview},
		{name: "high blocks and mutes", level: enum.RiskLevelHigh, wantKind: enum.ActionKindBlock, wantMutes: 1},
		{name: "critical escalates and bans", level: enum.RiskLevelCritical, wantKind: enum.ActionKindEscalate, wantBans: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			member := &countingMembership{}
			engine := newTestEngine(&recordingAudit{}, &countingPunishments{}, member)

			decision, err := engine.Decide(t.Context(), newRequest(tt.name), newAssessment(tt.name, tt.level))
			require.NoError(t, err)

			assert.Equal(t, tt.wantKind, decision.Action.Kind)
			assert.Equal(t, tt.wantMutes, member.mutes.Load())
			assert.Equal(t, tt.wantBans, member.bans.Load())
			assert.Equal(t, tt.level == enum.RiskLevelCritical, decision.Action.Escalated)
		})
	}
}

func TestDecideRepeatedRequestReturnsStoredDecision(t *testing.T) {
	t.Parallel()

	punishments := &countingPunishments{}
	member := &countingMembership{}
	engine := newTestEngine(&recordingAudit{}, punishments, member)

	req := newRequest("repeat-1")
	assessment := newAssessment(req.ID, enum.RiskLevelHigh)

	first, err := engine.Decide(t.Context(), req, assessment)
	require.NoError(t, err)

	second, err := engine.Decide(t.Context(), req, assessment)
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, int64(1), punishments.created.Load())
	assert.Equal(t, int64(1), member.mutes.Load())
}

func TestDecideConcurrentCallsEnforceOnce(t *testing.T) {
	t.Parallel()

	punishments := &countingPunishments{}
	member := &countingMembership{}
	engine := newTestEngine(&recordingAudit{}, punishments, member)

	req := newRequest("concurrent-1")
	assessment := newAssessment(req.ID, enum.RiskLevelCritical)

	var wg sync.WaitGroup

	for range 8 {
		wg.Add(1)

		go func() {
			defer wg.Done()

			decision, err := engine.Decide(context.Background(), req, assessment)
			assert.NoError(t, err)
			assert.Equal(t, enum.ActionKindEscalate, decision.Action.Kind)
		}()
	}

	wg.Wait()

	assert.Equal(t, int64(1), punishments.created.Load())
	assert.Equal(t, int64(1), member.bans.Load())
	assert.Equal(t, int64(1), member.notifies.Load())
}

func TestDecideDegradedAssessmentAllowsThrough(t *testing.T) {
	t.Parallel()

	audits := &recordingAudit{}
	punishments := &countingPunishments{}
	member := &countingMembership{}
	engine := newTestEngine(audits, punishments, member)

	req := newRequest("degraded-1")
	assessment := &types.RiskAssessment{
		RequestID:        req.ID,
		RiskLevel:        enum.RiskLevelSafe,
		Violation:        enum.ViolationTypeNone,
		Flags:            []string{"fallback: scoring attempts exhausted"},
		ServiceAvailable: false,
	}

	decision, err := engine.Decide(t.Context(), req, assessment)
	require.NoError(t, err)

	assert.Equal(t, enum.ActionKindNone, decision.Action.Kind)
	assert.Equal(t, int64(0), punishments.created.Load())
	assert.Equal(t, []enum.AuditActionType{enum.AuditActionServiceDegraded}, audits.actionTypes())
}

func TestDecideRecordsDetectionAndTerminalEntries(t *testing.T) {
	t.Parallel()

	audits := &recordingAudit{}
	engine := newTestEngine(audits, &countingPunishments{}, &countingMembership{})

	req := newRequest("entries-1")
	assessment := newAssessment(req.ID, enum.RiskLevelMedium)
	assessment.Flags = []string{"spam", "toxic"}

	_, err := engine.Decide(t.Context(), req, assessment)
	require.NoError(t, err)

	assert.Equal(t, []enum.AuditActionType{
		enum.AuditActionSpamDetection,
		enum.AuditActionToxicityDetection,
		enum.AuditActionContentFlagged,
	}, audits.actionTypes())
}
