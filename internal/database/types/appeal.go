package types

import (
	"errors"
	"time"

	"github.com/modwatch/sentinel/internal/database/types/enum"
)

var (
	ErrPunishmentNotFound      = errors.New("punishment not found")
	ErrAppealNotFound          = errors.New("appeal not found")
	ErrAppealReasonLength      = errors.New("appeal reason must be between 10 and 1000 characters")
	ErrAppealPermission        = errors.New("submitter may not appeal this punishment")
	ErrAppealAlreadyPending    = errors.New("punishment already has a pending appeal")
	ErrAppealAlreadyResolved   = errors.New("appeal has already been resolved")
	ErrPunishmentNotRevertible = errors.New("punishment is no longer active")
)

// Punishment is a restriction applied by the enforcement engine. It backs
// appeal validation and reversal; the membership collaborator applies the
// actual mute/ban side effect.
type Punishment struct {
	ID        int64               `bun:",pk,autoincrement"`
	RequestID string              `bun:",notnull"`
	UserID    uint64              `bun:",notnull"`
	ScopeID   uint64              `bun:",nullzero"`
	Kind      enum.PunishmentKind `bun:",notnull"`
	Reason    string              `bun:",notnull"`
	IssuedAt  time.Time           `bun:",notnull"`
	ExpiresAt time.Time           `bun:",notnull"`
	Active    bool                `bun:",notnull"`
	Reverted  bool                `bun:",notnull"`
}

// Appeal is a user-initiated request to have an automated enforcement
// action reviewed by a human.
type Appeal struct {
	ID             int64             `bun:",pk,autoincrement"`
	PunishmentID   int64             `bun:",notnull"`
	SubmitterID    uint64            `bun:",notnull"`
	Reason         string            `bun:",notnull"`
	Evidence       string            `bun:",nullzero"`
	Status         enum.AppealStatus `bun:",notnull"`
	SubmittedAt    time.Time         `bun:",notnull"`
	ResolvedBy     uint64            `bun:",nullzero"`
	ResolvedAt     time.Time         `bun:",nullzero"`
	ResolutionNote string            `bun:",nullzero"`
}
