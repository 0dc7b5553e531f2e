package repository

import (
	"context"
	"fmt"

	"clubquota/database"
	"clubquota/models"

	"github.com/jackc/pgx/v5"
)

type QuotaRequirementRepository struct {
	q queryable
}

// NewQuotaRequirementRepository creates a new quota requirement repository backed by the pool
func NewQuotaRequirementRepository(db *database.DB) *QuotaRequirementRepository {
	return &QuotaRequirementRepository{q: db.Pool}
}

func newQuotaRequirementRepositoryWithTx(tx pgx.Tx) *QuotaRequirementRepository {
	return &QuotaRequirementRepository{q: tx}
}

func (r *QuotaRequirementRepository) Create(ctx context.Context, req *models.QuotaRequirement) error {
	// Setting a quota twice for the same date replaces the earlier entry
	query := `
		INSERT INTO quota_requirements (club_id, effective_date, daily_quota, set_by)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (club_id, effective_date) DO UPDATE
		SET daily_quota = EXCLUDED.daily_quota,
			set_by = EXCLUDED.set_by
		RETURNING id, created_at`

	err := r.q.QueryRow(ctx, query,
		req.ClubID, req.EffectiveDate, req.DailyQuota, req.SetBy,
	).Scan(&req.ID, &req.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create quota requirement: %w", err)
	}
	return nil
}

func (r *QuotaRequirementRepository) GetSchedule(ctx context.Context, clubID int64) ([]*models.QuotaRequirement, error) {
	query := `
		SELECT id, club_id, effective_date, daily_quota, set_by, created_at
		FROM quota_requirements
		WHERE club_id = $1
		ORDER BY effective_date`

	rows, err := r.q.Query(ctx, query, clubID)
	if err != nil {
		return nil, fmt.Errorf("failed to query quota schedule: %w", err)
	}
	defer rows.Close()

	var schedule []*models.QuotaRequirement
	for rows.Next() {
		var req models.QuotaRequirement
		err := rows.Scan(&req.ID, &req.ClubID, &req.EffectiveDate,
			&req.DailyQuota, &req.SetBy, &req.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan quota requirement: %w", err)
		}
		schedule = append(schedule, &req)
	}
	return schedule, rows.Err()
}

func (r *QuotaRequirementRepository) ClearForClub(ctx context.Context, clubID int64) error {
	query := `DELETE FROM quota_requirements WHERE club_id = $1`

	if _, err := r.q.Exec(ctx, query, clubID); err != nil {
		return fmt.Errorf("failed to clear quota requirements: %w", err)
	}
	return nil
}
