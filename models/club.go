package models

import (
	"fmt"
	"time"
)

// Club represents a tracked club with its own quota, schedule, and roster
type Club struct {
	ID                int64      `db:"id"`
	Name              string     `db:"name"`
	CircleID          string     `db:"circle_id"`
	ScrapeURL         string     `db:"scrape_url"`
	DailyQuota        int64      `db:"daily_quota"`
	Timezone          string     `db:"timezone"`
	ScrapeHour        int        `db:"scrape_hour"`
	ScrapeMinute      int        `db:"scrape_minute"`
	BombTriggerDays   int        `db:"bomb_trigger_days"`
	BombCountdownDays int        `db:"bomb_countdown_days"`
	ResetThreshold    float64    `db:"reset_threshold"`
	IsActive          bool       `db:"is_active"`
	LastProcessedDate *time.Time `db:"last_processed_date"`
	ReportChannelID   int64      `db:"report_channel_id"`
	AlertChannelID    int64      `db:"alert_channel_id"`
	CreatedAt         time.Time  `db:"created_at"`
	UpdatedAt         time.Time  `db:"updated_at"`
}

// Validate checks the club configuration invariants. A club that fails
// validation must never be scheduled for a run.
func (c *Club) Validate() error {
	if c.DailyQuota <= 0 {
		return fmt.Errorf("daily quota must be positive, got %d", c.DailyQuota)
	}
	if c.BombTriggerDays < 1 {
		return fmt.Errorf("bomb trigger days must be at least 1, got %d", c.BombTriggerDays)
	}
	if c.BombCountdownDays < 1 {
		return fmt.Errorf("bomb countdown days must be at least 1, got %d", c.BombCountdownDays)
	}
	if c.ResetThreshold <= 0 || c.ResetThreshold > 1 {
		return fmt.Errorf("reset threshold must be in (0, 1], got %f", c.ResetThreshold)
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}
	return nil
}
