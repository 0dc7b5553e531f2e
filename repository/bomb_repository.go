package repository

import (
	"context"
	"fmt"
	"time"

	"clubquota/database"
	"clubquota/models"

	"github.com/jackc/pgx/v5"
)

type BombRepository struct {
	q queryable
}

// NewBombRepository creates a new bomb repository backed by the pool
func NewBombRepository(db *database.DB) *BombRepository {
	return &BombRepository{q: db.Pool}
}

func newBombRepositoryWithTx(tx pgx.Tx) *BombRepository {
	return &BombRepository{q: tx}
}

const bombColumns = `id, member_id, club_id, activation_date, days_remaining,
	is_active, deactivation_date, deactivation_reason, created_at`

func scanBomb(row pgx.Row) (*models.Bomb, error) {
	var bomb models.Bomb
	err := row.Scan(
		&bomb.ID, &bomb.MemberID, &bomb.ClubID, &bomb.ActivationDate,
		&bomb.DaysRemaining, &bomb.IsActive, &bomb.DeactivationDate,
		&bomb.DeactivationReason, &bomb.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &bomb, nil
}

func (r *BombRepository) Create(ctx context.Context, bomb *models.Bomb) error {
	query := `
		INSERT INTO bombs (member_id, club_id, activation_date, days_remaining,
			is_active, deactivation_reason)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`

	err := r.q.QueryRow(ctx, query,
		bomb.MemberID, bomb.ClubID, bomb.ActivationDate, bomb.DaysRemaining,
		bomb.IsActive, bomb.DeactivationReason,
	).Scan(&bomb.ID, &bomb.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create bomb: %w", err)
	}
	return nil
}

func (r *BombRepository) GetActiveForMember(ctx context.Context, memberID int64) (*models.Bomb, error) {
	query := `SELECT ` + bombColumns + ` FROM bombs
		WHERE member_id = $1 AND is_active`

	bomb, err := scanBomb(r.q.QueryRow(ctx, query, memberID))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get active bomb: %w", err)
	}
	return bomb, nil
}

func (r *BombRepository) GetAllActive(ctx context.Context, clubID int64) ([]*models.Bomb, error) {
	query := `SELECT ` + bombColumns + ` FROM bombs
		WHERE club_id = $1 AND is_active
		ORDER BY days_remaining, member_id`

	rows, err := r.q.Query(ctx, query, clubID)
	if err != nil {
		return nil, fmt.Errorf("failed to query active bombs: %w", err)
	}
	defer rows.Close()

	var bombs []*models.Bomb
	for rows.Next() {
		bomb, err := scanBomb(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan bomb: %w", err)
		}
		bombs = append(bombs, bomb)
	}
	return bombs, rows.Err()
}

func (r *BombRepository) Update(ctx context.Context, bomb *models.Bomb) error {
	query := `
		UPDATE bombs
		SET days_remaining = $2, is_active = $3, deactivation_date = $4,
			deactivation_reason = $5
		WHERE id = $1`

	tag, err := r.q.Exec(ctx, query,
		bomb.ID, bomb.DaysRemaining, bomb.IsActive,
		bomb.DeactivationDate, bomb.DeactivationReason,
	)
	if err != nil {
		return fmt.Errorf("failed to update bomb: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("bomb %d not found", bomb.ID)
	}
	return nil
}

func (r *BombRepository) DeactivateAllForClub(ctx context.Context, clubID int64, date time.Time, reason models.BombDeactivationReason) ([]*models.Bomb, error) {
	query := `
		UPDATE bombs
		SET is_active = FALSE, deactivation_date = $2, deactivation_reason = $3
		WHERE club_id = $1 AND is_active
		RETURNING ` + bombColumns

	rows, err := r.q.Query(ctx, query, clubID, date, string(reason))
	if err != nil {
		return nil, fmt.Errorf("failed to deactivate bombs: %w", err)
	}
	defer rows.Close()

	var bombs []*models.Bomb
	for rows.Next() {
		bomb, err := scanBomb(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan deactivated bomb: %w", err)
		}
		bombs = append(bombs, bomb)
	}
	return bombs, rows.Err()
}
