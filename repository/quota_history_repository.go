package repository

import (
	"context"
	"fmt"
	"time"

	"clubquota/database"
	"clubquota/models"

	"github.com/jackc/pgx/v5"
)

type QuotaHistoryRepository struct {
	q queryable
}

// NewQuotaHistoryRepository creates a new quota history repository backed by the pool
func NewQuotaHistoryRepository(db *database.DB) *QuotaHistoryRepository {
	return &QuotaHistoryRepository{q: db.Pool}
}

func newQuotaHistoryRepositoryWithTx(tx pgx.Tx) *QuotaHistoryRepository {
	return &QuotaHistoryRepository{q: tx}
}

const historyColumns = `id, member_id, club_id, date, cumulative_fans,
	expected_fans, deficit_surplus, days_behind, created_at`

func scanHistory(row pgx.Row) (*models.QuotaHistory, error) {
	var entry models.QuotaHistory
	err := row.Scan(
		&entry.ID, &entry.MemberID, &entry.ClubID, &entry.Date,
		&entry.CumulativeFans, &entry.ExpectedFans, &entry.DeficitSurplus,
		&entry.DaysBehind, &entry.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

func (r *QuotaHistoryRepository) Upsert(ctx context.Context, entry *models.QuotaHistory) error {
	// Re-running a day replaces that day's entry rather than duplicating it
	query := `
		INSERT INTO quota_history (member_id, club_id, date, cumulative_fans,
			expected_fans, deficit_surplus, days_behind)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (member_id, date) DO UPDATE
		SET cumulative_fans = EXCLUDED.cumulative_fans,
			expected_fans = EXCLUDED.expected_fans,
			deficit_surplus = EXCLUDED.deficit_surplus,
			days_behind = EXCLUDED.days_behind
		RETURNING id, created_at`

	err := r.q.QueryRow(ctx, query,
		entry.MemberID, entry.ClubID, entry.Date, entry.CumulativeFans,
		entry.ExpectedFans, entry.DeficitSurplus, entry.DaysBehind,
	).Scan(&entry.ID, &entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert quota history: %w", err)
	}
	return nil
}

func (r *QuotaHistoryRepository) GetLatestForMember(ctx context.Context, memberID int64) (*models.QuotaHistory, error) {
	query := `SELECT ` + historyColumns + ` FROM quota_history
		WHERE member_id = $1
		ORDER BY date DESC
		LIMIT 1`

	entry, err := scanHistory(r.q.QueryRow(ctx, query, memberID))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest quota history: %w", err)
	}
	return entry, nil
}

func (r *QuotaHistoryRepository) GetLastNDays(ctx context.Context, memberID int64, n int) ([]*models.QuotaHistory, error) {
	query := `SELECT ` + historyColumns + ` FROM quota_history
		WHERE member_id = $1
		ORDER BY date DESC
		LIMIT $2`

	rows, err := r.q.Query(ctx, query, memberID, n)
	if err != nil {
		return nil, fmt.Errorf("failed to query quota history: %w", err)
	}
	defer rows.Close()

	var entries []*models.QuotaHistory
	for rows.Next() {
		entry, err := scanHistory(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan quota history: %w", err)
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

func (r *QuotaHistoryRepository) GetForDate(ctx context.Context, clubID int64, date time.Time) ([]*models.QuotaHistory, error) {
	query := `SELECT ` + historyColumns + ` FROM quota_history
		WHERE club_id = $1 AND date = $2
		ORDER BY member_id`

	rows, err := r.q.Query(ctx, query, clubID, date)
	if err != nil {
		return nil, fmt.Errorf("failed to query quota history for date: %w", err)
	}
	defer rows.Close()

	var entries []*models.QuotaHistory
	for rows.Next() {
		entry, err := scanHistory(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan quota history: %w", err)
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

func (r *QuotaHistoryRepository) ClearForClub(ctx context.Context, clubID int64) error {
	query := `DELETE FROM quota_history WHERE club_id = $1`

	if _, err := r.q.Exec(ctx, query, clubID); err != nil {
		return fmt.Errorf("failed to clear quota history: %w", err)
	}
	return nil
}
