package models

import (
	"time"
)

// QuotaRequirement represents one entry in a club's quota schedule. Changes
// apply prospectively from their effective date, never retroactively.
type QuotaRequirement struct {
	ID            int64     `db:"id"`
	ClubID        int64     `db:"club_id"`
	EffectiveDate time.Time `db:"effective_date"`
	DailyQuota    int64     `db:"daily_quota"`
	SetBy         string    `db:"set_by"`
	CreatedAt     time.Time `db:"created_at"`
}
