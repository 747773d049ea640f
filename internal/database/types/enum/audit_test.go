package enum_test

import (
	"testing"

	"github.com/modwatch/sentinel/internal/database/types/enum"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuditActionCodes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		action enum.AuditActionType
		code   int
		name   string
	}{
		{enum.AuditActionAutomatedEnforcement, 989, "automated_enforcement"},
		{enum.AuditActionSpamDetection, 990, "spam_detection"},
		{enum.AuditActionToxicityDetection, 991, "toxicity_detection"},
		{enum.AuditActionNSFWDetection, 992, "nsfw_detection"},
		{enum.AuditActionContentFlagged, 993, "content_flagged"},
		{enum.AuditActionContentBlocked, 994, "content_blocked"},
		{enum.AuditActionEscalation, 995, "escalation"},
		{enum.AuditActionAppealSubmission, 996, "appeal_submission"},
		{enum.AuditActionAppealResolution, 997, "appeal_resolution"},
		{enum.AuditActionPunishmentReverted, 998, "punishment_reverted"},
		{enum.AuditActionServiceDegraded, 999, "service_degraded"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.code, tt.action.Code())
			assert.Equal(t, tt.name, tt.action.String())
			assert.True(t, tt.action.IsModeration())

			resolved, ok := enum.AuditActionFromCode(tt.code)
			require.True(t, ok)
			assert.Equal(t, tt.action, resolved)
		})
	}
}

func TestAuditActionFromCodeUnknown(t *testing.T) {
	t.Parallel()

	_, ok := enum.AuditActionFromCode(42)
	assert.False(t, ok)

	// Reserved but unassigned codes inside the range resolve to nothing.
	_, ok = enum.AuditActionFromCode(988)
	assert.False(t, ok)
}

func TestPrioritiesByRank(t *testing.T) {
	t.Parallel()

	ranked := enum.PrioritiesByRank()
	require.Len(t, ranked, 4)

	assert.Equal(t, enum.PriorityCritical, ranked[0])
	assert.Equal(t, enum.PriorityHigh, ranked[1])
	assert.Equal(t, enum.PriorityMedium, ranked[2])
	assert.Equal(t, enum.PriorityLow, ranked[3])
}

func TestViolationSeverityOrdering(t *testing.T) {
	t.Parallel()

	assert.Greater(t, enum.ViolationTypeToxicity.Severity(), enum.ViolationTypeNSFW.Severity())
	assert.Greater(t, enum.ViolationTypeNSFW.Severity(), enum.ViolationTypeSpam.Severity())
	assert.Greater(t, enum.ViolationTypeSpam.Severity(), enum.ViolationTypeNone.Severity())
}
