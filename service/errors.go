package service

import (
	"errors"
	"fmt"

	"clubquota/models"
)

// Sentinel errors for the reconciliation orchestrator. Callers distinguish
// expected contention and idempotence rejections from real failures with
// errors.Is.
var (
	// ErrLockUnavailable means the club's run lock is held by another run
	ErrLockUnavailable = errors.New("run lock unavailable")

	// ErrConcurrentRunRejected wraps ErrLockUnavailable for callers of
	// RunOnce; the caller should wait for the next schedule, not retry
	ErrConcurrentRunRejected = fmt.Errorf("concurrent run rejected: %w", ErrLockUnavailable)

	// ErrEmptySnapshot means the snapshot held no member readings; this is a
	// data-source failure, never a mass departure
	ErrEmptySnapshot = errors.New("snapshot contains no members")

	// ErrAlreadyProcessed means the club already committed a run for the
	// snapshot's date
	ErrAlreadyProcessed = errors.New("date already processed for club")

	// ErrInvalidTimezone means a club's configured timezone does not resolve
	ErrInvalidTimezone = errors.New("invalid timezone")
)

// InvalidTransitionError marks a bomb state machine misuse, such as
// decrementing a countdown while Clear. It is a programming error, not an
// operator-facing condition.
type InvalidTransitionError struct {
	From models.BombState
	Op   string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid bomb transition: cannot %s while %s", e.Op, e.From)
}
