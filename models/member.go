package models

import (
	"time"
)

// Member represents a club member tracked against the daily quota
type Member struct {
	ID                  int64     `db:"id"`
	ClubID              int64     `db:"club_id"`
	TrainerID           string    `db:"trainer_id"`
	TrainerName         string    `db:"trainer_name"`
	JoinDate            time.Time `db:"join_date"`
	IsActive            bool      `db:"is_active"`
	ManuallyDeactivated bool      `db:"manually_deactivated"`
	LastSeen            time.Time `db:"last_seen"`
	LastFanCount        int64     `db:"last_fan_count"`
	DaysBehind          int       `db:"days_behind"`
	CreatedAt           time.Time `db:"created_at"`
	UpdatedAt           time.Time `db:"updated_at"`
}
