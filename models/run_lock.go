package models

import (
	"time"

	"github.com/google/uuid"
)

// RunLock is the per-club mutual-exclusion token guarding reconciliation
// runs. It lives in the database so a crashed process cannot hold a club
// locked forever; locks older than the stale timeout are reclaimed.
type RunLock struct {
	ClubID   int64     `db:"club_id"`
	LockedAt time.Time `db:"locked_at"`
	LockedBy string    `db:"locked_by"`
	RunID    uuid.UUID `db:"run_id"`
}
