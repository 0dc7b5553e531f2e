package models

import (
	"time"
)

// BombState is the lifecycle state of a member's bomb warning
type BombState string

const (
	// BombStateClear means the member has no active bomb
	BombStateClear BombState = "clear"
	// BombStateArmed means an active bomb is counting down
	BombStateArmed BombState = "armed"
	// BombStateExpired means the countdown reached zero; terminal until
	// manually resolved or a monthly reset occurs
	BombStateExpired BombState = "expired"
)

// BombDeactivationReason records why a bomb was deactivated
type BombDeactivationReason string

const (
	BombReasonCaughtUp BombDeactivationReason = "caught_up"
	BombReasonExpired  BombDeactivationReason = "expired"
	BombReasonReset    BombDeactivationReason = "reset"
	BombReasonManual   BombDeactivationReason = "manual"
)

// Bomb represents a warning instance for a member who has been behind quota
// for too many consecutive days. At most one active bomb per member.
type Bomb struct {
	ID                 int64                  `db:"id"`
	MemberID           int64                  `db:"member_id"`
	ClubID             int64                  `db:"club_id"`
	ActivationDate     time.Time              `db:"activation_date"`
	DaysRemaining      int                    `db:"days_remaining"`
	IsActive           bool                   `db:"is_active"`
	DeactivationDate   *time.Time             `db:"deactivation_date"`
	DeactivationReason BombDeactivationReason `db:"deactivation_reason"`
	CreatedAt          time.Time              `db:"created_at"`
}

// State derives the lifecycle state from the stored fields
func (b *Bomb) State() BombState {
	if b == nil || !b.IsActive {
		return BombStateClear
	}
	if b.DaysRemaining <= 0 {
		return BombStateExpired
	}
	return BombStateArmed
}
