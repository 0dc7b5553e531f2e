package repository

import (
	"context"
	"fmt"
	"time"

	"clubquota/database"
	"clubquota/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// RunLockRepository manages the per-club run lock. It always runs against
// the pool, never inside a unit of work: a lock taken inside the run's
// transaction would be invisible to other processes until commit, which
// defeats its purpose.
type RunLockRepository struct {
	q queryable
}

// NewRunLockRepository creates a new run lock repository backed by the pool
func NewRunLockRepository(db *database.DB) *RunLockRepository {
	return &RunLockRepository{q: db.Pool}
}

func (r *RunLockRepository) Acquire(ctx context.Context, clubID int64, lockedBy string, runID uuid.UUID, staleAfter time.Duration) (bool, error) {
	// Reclaim locks left behind by crashed processes first
	cleanup := `DELETE FROM run_locks WHERE club_id = $1 AND locked_at < $2`
	if _, err := r.q.Exec(ctx, cleanup, clubID, time.Now().Add(-staleAfter)); err != nil {
		return false, fmt.Errorf("failed to reclaim stale lock: %w", err)
	}

	query := `
		INSERT INTO run_locks (club_id, locked_by, run_id)
		VALUES ($1, $2, $3)
		ON CONFLICT (club_id) DO NOTHING
		RETURNING club_id`

	var got int64
	err := r.q.QueryRow(ctx, query, clubID, lockedBy, runID).Scan(&got)
	if err == pgx.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to acquire run lock: %w", err)
	}
	return true, nil
}

func (r *RunLockRepository) Release(ctx context.Context, clubID int64) error {
	query := `DELETE FROM run_locks WHERE club_id = $1`

	if _, err := r.q.Exec(ctx, query, clubID); err != nil {
		return fmt.Errorf("failed to release run lock: %w", err)
	}
	return nil
}

func (r *RunLockRepository) Get(ctx context.Context, clubID int64) (*models.RunLock, error) {
	query := `SELECT club_id, locked_at, locked_by, run_id FROM run_locks WHERE club_id = $1`

	var lock models.RunLock
	err := r.q.QueryRow(ctx, query, clubID).Scan(
		&lock.ClubID, &lock.LockedAt, &lock.LockedBy, &lock.RunID,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run lock: %w", err)
	}
	return &lock, nil
}
