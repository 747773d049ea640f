package enum

// RiskLevel represents the ordinal risk bucket derived from an overall risk score.
type RiskLevel int

const (
	// RiskLevelSafe indicates content with no detected risk signals.
	RiskLevelSafe RiskLevel = iota
	// RiskLevelLow indicates minor signals that require no action.
	RiskLevelLow
	// RiskLevelMedium indicates content that should be flagged for human review.
	RiskLevelMedium
	// RiskLevelHigh indicates content that is blocked with a bounded punishment.
	RiskLevelHigh
	// RiskLevelCritical indicates content that is blocked and escalated to moderators.
	RiskLevelCritical
)

var riskLevelNames = map[RiskLevel]string{
	RiskLevelSafe:     "safe",
	RiskLevelLow:      "low",
	RiskLevelMedium:   "medium",
	RiskLevelHigh:     "high",
	RiskLevelCritical: "critical",
}

func (r RiskLevel) String() string {
	if name, ok := riskLevelNames[r]; ok {
		return name
	}

	return "unknown"
}

// RiskLevels returns all levels in ascending severity order.
func RiskLevels() []RiskLevel {
	return []RiskLevel{RiskLevelSafe, RiskLevelLow, RiskLevelMedium, RiskLevelHigh, RiskLevelCritical}
}

// ViolationType identifies which signal category drove an enforcement decision.
type ViolationType int

const (
	ViolationTypeNone ViolationType = iota
	ViolationTypeSpam
	ViolationTypeNSFW
	ViolationTypeToxicity
)

var violationTypeNames = map[ViolationType]string{
	ViolationTypeNone:     "none",
	ViolationTypeSpam:     "spam",
	ViolationTypeNSFW:     "nsfw",
	ViolationTypeToxicity: "toxicity",
}

func (v ViolationType) String() string {
	if name, ok := violationTypeNames[v]; ok {
		return name
	}

	return "unknown"
}

// Severity orders violation categories for tie-breaking when multiple
// categories exceed their thresholds. Higher values win.
func (v ViolationType) Severity() int {
	return int(v)
}
