package enum

// AuditActionType identifies the kind of event recorded in the audit log.
// Moderation events occupy the reserved code range [989, 999], distinct
// from general audit events. Codes are stable wire values; call sites must
// go through this enum rather than hard-coding numbers.
type AuditActionType int

const (
	// AuditActionRangeStart is the first code reserved for moderation events.
	AuditActionRangeStart = 989
	// AuditActionRangeEnd is the last code reserved for moderation events.
	AuditActionRangeEnd = 999
)

const (
	// AuditActionAutomatedEnforcement records a decision that allowed content.
	AuditActionAutomatedEnforcement AuditActionType = 989
	// AuditActionSpamDetection records a spam signal exceeding its threshold.
	AuditActionSpamDetection AuditActionType = 990
	// AuditActionToxicityDetection records a toxicity signal exceeding its threshold.
	AuditActionToxicityDetection AuditActionType = 991
	// AuditActionNSFWDetection records an NSFW signal exceeding its threshold.
	AuditActionNSFWDetection AuditActionType = 992
	// AuditActionContentFlagged records content queued for human review.
	AuditActionContentFlagged AuditActionType = 993
	// AuditActionContentBlocked records content blocked with a punishment.
	AuditActionContentBlocked AuditActionType = 994
	// AuditActionEscalation records a critical decision escalated to moderators.
	AuditActionEscalation AuditActionType = 995
	// AuditActionAppealSubmission records a user submitting an appeal.
	AuditActionAppealSubmission AuditActionType = 996
	// AuditActionAppealResolution records a moderator resolving an appeal.
	AuditActionAppealResolution AuditActionType = 997
	// AuditActionPunishmentReverted records an overturned punishment being reversed.
	AuditActionPunishmentReverted AuditActionType = 998
	// AuditActionServiceDegraded records a fallback assessment being served.
	AuditActionServiceDegraded AuditActionType = 999
)

var auditActionNames = map[AuditActionType]string{
	AuditActionAutomatedEnforcement: "automated_enforcement",
	AuditActionSpamDetection:        "spam_detection",
	AuditActionToxicityDetection:    "toxicity_detection",
	AuditActionNSFWDetection:        "nsfw_detection",
	AuditActionContentFlagged:       "content_flagged",
	AuditActionContentBlocked:       "content_blocked",
	AuditActionEscalation:           "escalation",
	AuditActionAppealSubmission:     "appeal_submission",
	AuditActionAppealResolution:     "appeal_resolution",
	AuditActionPunishmentReverted:   "punishment_reverted",
	AuditActionServiceDegraded:      "service_degraded",
}

func (a AuditActionType) String() string {
	if name, ok := auditActionNames[a]; ok {
		return name
	}

	return "unknown"
}

// Code returns the stable wire value for the action type.
func (a AuditActionType) Code() int {
	return int(a)
}

// IsModeration reports whether the code falls in the reserved moderation range.
func (a AuditActionType) IsModeration() bool {
	return int(a) >= AuditActionRangeStart && int(a) <= AuditActionRangeEnd
}

// AuditActionFromCode resolves a stored code back to its action type.
func AuditActionFromCode(code int) (AuditActionType, bool) {
	a := AuditActionType(code)
	_, ok := auditActionNames[a]

	return a, ok
}
