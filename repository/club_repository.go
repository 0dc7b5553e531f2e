package repository

import (
	"context"
	"fmt"
	"time"

	"clubquota/database"
	"clubquota/models"

	"github.com/jackc/pgx/v5"
)

type ClubRepository struct {
	q queryable
}

// NewClubRepository creates a new club repository backed by the pool
func NewClubRepository(db *database.DB) *ClubRepository {
	return &ClubRepository{q: db.Pool}
}

func newClubRepositoryWithTx(tx pgx.Tx) *ClubRepository {
	return &ClubRepository{q: tx}
}

const clubColumns = `id, name, circle_id, scrape_url, daily_quota, timezone,
	scrape_hour, scrape_minute, bomb_trigger_days, bomb_countdown_days,
	reset_threshold, is_active, last_processed_date, report_channel_id,
	alert_channel_id, created_at, updated_at`

func scanClub(row pgx.Row) (*models.Club, error) {
	var club models.Club
	err := row.Scan(
		&club.ID, &club.Name, &club.CircleID, &club.ScrapeURL,
		&club.DailyQuota, &club.Timezone, &club.ScrapeHour, &club.ScrapeMinute,
		&club.BombTriggerDays, &club.BombCountdownDays, &club.ResetThreshold,
		&club.IsActive, &club.LastProcessedDate, &club.ReportChannelID,
		&club.AlertChannelID, &club.CreatedAt, &club.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &club, nil
}

func (r *ClubRepository) GetByID(ctx context.Context, id int64) (*models.Club, error) {
	query := `SELECT ` + clubColumns + ` FROM clubs WHERE id = $1`

	club, err := scanClub(r.q.QueryRow(ctx, query, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get club by id: %w", err)
	}
	return club, nil
}

func (r *ClubRepository) GetByName(ctx context.Context, name string) (*models.Club, error) {
	query := `SELECT ` + clubColumns + ` FROM clubs WHERE name = $1`

	club, err := scanClub(r.q.QueryRow(ctx, query, name))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get club by name: %w", err)
	}
	return club, nil
}

func (r *ClubRepository) GetAllActive(ctx context.Context) ([]*models.Club, error) {
	query := `SELECT ` + clubColumns + ` FROM clubs WHERE is_active ORDER BY id`

	rows, err := r.q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query active clubs: %w", err)
	}
	defer rows.Close()

	var clubs []*models.Club
	for rows.Next() {
		club, err := scanClub(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan club: %w", err)
		}
		clubs = append(clubs, club)
	}
	return clubs, rows.Err()
}

func (r *ClubRepository) Create(ctx context.Context, club *models.Club) error {
	query := `
		INSERT INTO clubs (name, circle_id, scrape_url, daily_quota, timezone,
			scrape_hour, scrape_minute, bomb_trigger_days, bomb_countdown_days,
			reset_threshold, is_active, report_channel_id, alert_channel_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id, created_at, updated_at`

	err := r.q.QueryRow(ctx, query,
		club.Name, club.CircleID, club.ScrapeURL, club.DailyQuota,
		club.Timezone, club.ScrapeHour, club.ScrapeMinute,
		club.BombTriggerDays, club.BombCountdownDays, club.ResetThreshold,
		club.IsActive, club.ReportChannelID, club.AlertChannelID,
	).Scan(&club.ID, &club.CreatedAt, &club.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create club: %w", err)
	}
	return nil
}

func (r *ClubRepository) Update(ctx context.Context, club *models.Club) error {
	query := `
		UPDATE clubs
		SET name = $2, circle_id = $3, scrape_url = $4, daily_quota = $5,
			timezone = $6, scrape_hour = $7, scrape_minute = $8,
			bomb_trigger_days = $9, bomb_countdown_days = $10,
			reset_threshold = $11, is_active = $12, report_channel_id = $13,
			alert_channel_id = $14, updated_at = NOW()
		WHERE id = $1`

	tag, err := r.q.Exec(ctx, query,
		club.ID, club.Name, club.CircleID, club.ScrapeURL, club.DailyQuota,
		club.Timezone, club.ScrapeHour, club.ScrapeMinute,
		club.BombTriggerDays, club.BombCountdownDays, club.ResetThreshold,
		club.IsActive, club.ReportChannelID, club.AlertChannelID,
	)
	if err != nil {
		return fmt.Errorf("failed to update club: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("club %d not found", club.ID)
	}
	return nil
}

func (r *ClubRepository) SetLastProcessedDate(ctx context.Context, clubID int64, date time.Time) error {
	query := `UPDATE clubs SET last_processed_date = $2, updated_at = NOW() WHERE id = $1`

	tag, err := r.q.Exec(ctx, query, clubID, date)
	if err != nil {
		return fmt.Errorf("failed to set last processed date: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("club %d not found", clubID)
	}
	return nil
}
