package models

import (
	"time"
)

// QuotaHistory represents one member's quota standing on one processed date.
// Entries are append-only within a tracking period and cleared wholesale on
// a monthly reset.
type QuotaHistory struct {
	ID             int64     `db:"id"`
	MemberID       int64     `db:"member_id"`
	ClubID         int64     `db:"club_id"`
	Date           time.Time `db:"date"`
	CumulativeFans int64     `db:"cumulative_fans"`
	ExpectedFans   int64     `db:"expected_fans"`
	DeficitSurplus int64     `db:"deficit_surplus"`
	DaysBehind     int       `db:"days_behind"`
	CreatedAt      time.Time `db:"created_at"`
}
