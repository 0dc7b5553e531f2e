package service

import (
	"time"

	"clubquota/models"
)

// BombDecision is the outcome of evaluating one member's bomb for one
// processed day. At most one of Activate, Deactivate and Decrement is set.
type BombDecision struct {
	Activate           bool
	Deactivate         bool
	DeactivationReason models.BombDeactivationReason
	Decrement          bool
	// Expires is set together with Decrement when the countdown reaches zero
	// this day: the bomb goes Armed -> Expired and a kick is required.
	Expires bool
}

// EvaluateBomb runs the per-day bomb transition rules for a member.
//
// Order matters:
//  1. a non-negative day defuses any active bomb (caught up), full stop;
//  2. a deficit day arms a bomb once the consecutive-days-behind streak
//     reaches the club trigger, provided none is active — the fresh bomb does
//     not tick on its activation day;
//  3. otherwise a deficit day ticks an Armed bomb down one, expiring it at
//     zero;
//  4. an Expired bomb on a deficit day just stays Expired until an operator
//     resolves it or a reset clears it.
//
// daysBehind is the streak already advanced for the day under evaluation.
func EvaluateBomb(club *models.Club, daysBehind int, deficitSurplus int64, bomb *models.Bomb) BombDecision {
	state := bomb.State()

	if deficitSurplus >= 0 {
		if state == models.BombStateArmed || state == models.BombStateExpired {
			return BombDecision{Deactivate: true, DeactivationReason: models.BombReasonCaughtUp}
		}
		return BombDecision{}
	}

	if state == models.BombStateClear {
		if daysBehind >= club.BombTriggerDays {
			return BombDecision{Activate: true}
		}
		return BombDecision{}
	}

	if state == models.BombStateArmed {
		return BombDecision{Decrement: true, Expires: bomb.DaysRemaining == 1}
	}

	// Expired and still behind: terminal until manual resolution or reset
	return BombDecision{}
}

// ArmBomb builds a fresh Armed bomb for a member. The caller persists it.
func ArmBomb(club *models.Club, member *models.Member, date time.Time) *models.Bomb {
	return &models.Bomb{
		MemberID:       member.ID,
		ClubID:         club.ID,
		ActivationDate: date,
		DaysRemaining:  club.BombCountdownDays,
		IsActive:       true,
	}
}

// DefuseBomb deactivates an active bomb in place. Defusing a Clear bomb is a
// programming error.
func DefuseBomb(bomb *models.Bomb, date time.Time, reason models.BombDeactivationReason) error {
	if bomb.State() == models.BombStateClear {
		return &InvalidTransitionError{From: models.BombStateClear, Op: "defuse"}
	}
	bomb.IsActive = false
	bomb.DeactivationDate = &date
	bomb.DeactivationReason = reason
	return nil
}

// TickBomb decrements an Armed bomb's countdown in place. Ticking a bomb in
// any other state is a programming error; in particular an Expired bomb never
// counts below zero.
func TickBomb(bomb *models.Bomb) error {
	if bomb.State() != models.BombStateArmed {
		return &InvalidTransitionError{From: bomb.State(), Op: "tick"}
	}
	bomb.DaysRemaining--
	return nil
}
