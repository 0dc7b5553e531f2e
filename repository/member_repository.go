package repository

import (
	"context"
	"fmt"

	"clubquota/database"
	"clubquota/models"

	"github.com/jackc/pgx/v5"
)

type MemberRepository struct {
	q queryable
}

// NewMemberRepository creates a new member repository backed by the pool
func NewMemberRepository(db *database.DB) *MemberRepository {
	return &MemberRepository{q: db.Pool}
}

func newMemberRepositoryWithTx(tx pgx.Tx) *MemberRepository {
	return &MemberRepository{q: tx}
}

const memberColumns = `id, club_id, trainer_id, trainer_name, join_date,
	is_active, manually_deactivated, last_seen, last_fan_count, days_behind,
	created_at, updated_at`

func scanMember(row pgx.Row) (*models.Member, error) {
	var member models.Member
	err := row.Scan(
		&member.ID, &member.ClubID, &member.TrainerID, &member.TrainerName,
		&member.JoinDate, &member.IsActive, &member.ManuallyDeactivated,
		&member.LastSeen, &member.LastFanCount, &member.DaysBehind,
		&member.CreatedAt, &member.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &member, nil
}

func (r *MemberRepository) getOne(ctx context.Context, query string, args ...any) (*models.Member, error) {
	member, err := scanMember(r.q.QueryRow(ctx, query, args...))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return member, nil
}

func (r *MemberRepository) getMany(ctx context.Context, query string, args ...any) ([]*models.Member, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var members []*models.Member
	for rows.Next() {
		member, err := scanMember(rows)
		if err != nil {
			return nil, err
		}
		members = append(members, member)
	}
	return members, rows.Err()
}

func (r *MemberRepository) GetByID(ctx context.Context, id int64) (*models.Member, error) {
	query := `SELECT ` + memberColumns + ` FROM members WHERE id = $1`

	member, err := r.getOne(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get member by id: %w", err)
	}
	return member, nil
}

func (r *MemberRepository) GetByTrainerID(ctx context.Context, clubID int64, trainerID string) (*models.Member, error) {
	query := `SELECT ` + memberColumns + ` FROM members WHERE club_id = $1 AND trainer_id = $2`

	member, err := r.getOne(ctx, query, clubID, trainerID)
	if err != nil {
		return nil, fmt.Errorf("failed to get member by trainer id: %w", err)
	}
	return member, nil
}

func (r *MemberRepository) GetByName(ctx context.Context, clubID int64, trainerName string) (*models.Member, error) {
	// Names are not unique; prefer the active member if both exist
	query := `SELECT ` + memberColumns + ` FROM members
		WHERE club_id = $1 AND trainer_name = $2
		ORDER BY is_active DESC, id
		LIMIT 1`

	member, err := r.getOne(ctx, query, clubID, trainerName)
	if err != nil {
		return nil, fmt.Errorf("failed to get member by name: %w", err)
	}
	return member, nil
}

func (r *MemberRepository) GetAllActive(ctx context.Context, clubID int64) ([]*models.Member, error) {
	query := `SELECT ` + memberColumns + ` FROM members
		WHERE club_id = $1 AND is_active
		ORDER BY trainer_id`

	members, err := r.getMany(ctx, query, clubID)
	if err != nil {
		return nil, fmt.Errorf("failed to query active members: %w", err)
	}
	return members, nil
}

func (r *MemberRepository) GetAllInactive(ctx context.Context, clubID int64) ([]*models.Member, error) {
	query := `SELECT ` + memberColumns + ` FROM members
		WHERE club_id = $1 AND NOT is_active
		ORDER BY trainer_id`

	members, err := r.getMany(ctx, query, clubID)
	if err != nil {
		return nil, fmt.Errorf("failed to query inactive members: %w", err)
	}
	return members, nil
}

func (r *MemberRepository) Create(ctx context.Context, member *models.Member) error {
	query := `
		INSERT INTO members (club_id, trainer_id, trainer_name, join_date,
			is_active, manually_deactivated, last_seen, last_fan_count, days_behind)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at, updated_at`

	err := r.q.QueryRow(ctx, query,
		member.ClubID, member.TrainerID, member.TrainerName, member.JoinDate,
		member.IsActive, member.ManuallyDeactivated, member.LastSeen,
		member.LastFanCount, member.DaysBehind,
	).Scan(&member.ID, &member.CreatedAt, &member.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create member: %w", err)
	}
	return nil
}

func (r *MemberRepository) Update(ctx context.Context, member *models.Member) error {
	query := `
		UPDATE members
		SET trainer_name = $2, last_seen = $3, last_fan_count = $4,
			days_behind = $5, updated_at = NOW()
		WHERE id = $1`

	tag, err := r.q.Exec(ctx, query,
		member.ID, member.TrainerName, member.LastSeen,
		member.LastFanCount, member.DaysBehind,
	)
	if err != nil {
		return fmt.Errorf("failed to update member: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("member %d not found", member.ID)
	}
	return nil
}

func (r *MemberRepository) Deactivate(ctx context.Context, memberID int64, manual bool) error {
	query := `
		UPDATE members
		SET is_active = FALSE, manually_deactivated = $2, updated_at = NOW()
		WHERE id = $1`

	tag, err := r.q.Exec(ctx, query, memberID, manual)
	if err != nil {
		return fmt.Errorf("failed to deactivate member: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("member %d not found", memberID)
	}
	return nil
}

func (r *MemberRepository) Reactivate(ctx context.Context, memberID int64) error {
	query := `
		UPDATE members
		SET is_active = TRUE, manually_deactivated = FALSE, days_behind = 0,
			updated_at = NOW()
		WHERE id = $1`

	tag, err := r.q.Exec(ctx, query, memberID)
	if err != nil {
		return fmt.Errorf("failed to reactivate member: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("member %d not found", memberID)
	}
	return nil
}
