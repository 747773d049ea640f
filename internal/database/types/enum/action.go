package enum

// ActionKind represents the enforcement outcome for an analyzed request.
type ActionKind int

const (
	// ActionKindNone allows the content through without restriction.
	ActionKindNone ActionKind = iota
	// ActionKindFlagForReview queues the content for human moderator review.
	ActionKindFlagForReview
	// ActionKindBlock rejects the content and applies a bounded punishment.
	ActionKindBlock
	// ActionKindEscalate blocks the content and notifies moderators.
	ActionKindEscalate
)

var actionKindNames = map[ActionKind]string{
	ActionKindNone:          "none",
	ActionKindFlagForReview: "flag_for_review",
	ActionKindBlock:         "block",
	ActionKindEscalate:      "escalate",
}

func (a ActionKind) String() string {
	if name, ok := actionKindNames[a]; ok {
		return name
	}

	return "unknown"
}

// PunishmentKind represents the membership restriction applied by a block.
type PunishmentKind int

const (
	PunishmentKindMute PunishmentKind = iota
	PunishmentKindBan
)

var punishmentKindNames = map[PunishmentKind]string{
	PunishmentKindMute: "mute",
	PunishmentKindBan:  "ban",
}

func (p PunishmentKind) String() string {
	if name, ok := punishmentKindNames[p]; ok {
		return name
	}

	return "unknown"
}

// AppealStatus represents the lifecycle state of an appeal.
type AppealStatus int

const (
	AppealStatusPending AppealStatus = iota
	AppealStatusUpheld
	AppealStatusOverturned
)

var appealStatusNames = map[AppealStatus]string{
	AppealStatusPending:    "pending",
	AppealStatusUpheld:     "upheld",
	AppealStatusOverturned: "overturned",
}

func (a AppealStatus) String() string {
	if name, ok := appealStatusNames[a]; ok {
		return name
	}

	return "unknown"
}
