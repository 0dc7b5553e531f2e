package service

import (
	"context"
	"time"

	"clubquota/events"
	"clubquota/models"

	"github.com/google/uuid"
)

// ClubRepository defines the interface for club data access
type ClubRepository interface {
	// GetByID retrieves a club by its ID
	GetByID(ctx context.Context, id int64) (*models.Club, error)

	// GetByName retrieves a club by its display name
	GetByName(ctx context.Context, name string) (*models.Club, error)

	// GetAllActive returns all active clubs
	GetAllActive(ctx context.Context) ([]*models.Club, error)

	// Create creates a new club and fills in its generated fields
	Create(ctx context.Context, club *models.Club) error

	// Update updates a club's configuration
	Update(ctx context.Context, club *models.Club) error

	// SetLastProcessedDate records the last date a reconciliation run
	// committed for a club
	SetLastProcessedDate(ctx context.Context, clubID int64, date time.Time) error
}

// MemberRepository defines the interface for member data access
type MemberRepository interface {
	// GetByID retrieves a member by its ID
	GetByID(ctx context.Context, id int64) (*models.Member, error)

	// GetByTrainerID retrieves a member by external trainer ID within a club
	GetByTrainerID(ctx context.Context, clubID int64, trainerID string) (*models.Member, error)

	// GetByName retrieves a member by trainer name within a club
	GetByName(ctx context.Context, clubID int64, trainerName string) (*models.Member, error)

	// GetAllActive returns all active members for a club, ordered by trainer ID
	GetAllActive(ctx context.Context, clubID int64) ([]*models.Member, error)

	// GetAllInactive returns all inactive members for a club
	GetAllInactive(ctx context.Context, clubID int64) ([]*models.Member, error)

	// Create creates a new member and fills in its generated fields
	Create(ctx context.Context, member *models.Member) error

	// Update persists a member's mutable tracking fields (name, last seen,
	// last fan count, consecutive days behind)
	Update(ctx context.Context, member *models.Member) error

	// Deactivate marks a member inactive, recording whether an operator did it
	Deactivate(ctx context.Context, memberID int64, manual bool) error

	// Reactivate marks a member active again and clears the manual flag
	Reactivate(ctx context.Context, memberID int64) error
}

// QuotaHistoryRepository defines the interface for quota history data access
type QuotaHistoryRepository interface {
	// Upsert creates or replaces the history entry for a member and date
	Upsert(ctx context.Context, entry *models.QuotaHistory) error

	// GetLatestForMember returns the most recent entry for a member
	GetLatestForMember(ctx context.Context, memberID int64) (*models.QuotaHistory, error)

	// GetLastNDays returns the most recent n entries for a member, newest first
	GetLastNDays(ctx context.Context, memberID int64, n int) ([]*models.QuotaHistory, error)

	// GetForDate returns all entries for a club on a specific date
	GetForDate(ctx context.Context, clubID int64, date time.Time) ([]*models.QuotaHistory, error)

	// ClearForClub deletes all history for a club (monthly reset)
	ClearForClub(ctx context.Context, clubID int64) error
}

// QuotaRequirementRepository defines the interface for quota schedule access
type QuotaRequirementRepository interface {
	// Create adds a schedule entry; the change applies prospectively
	Create(ctx context.Context, req *models.QuotaRequirement) error

	// GetSchedule returns a club's schedule ordered by effective date ascending
	GetSchedule(ctx context.Context, clubID int64) ([]*models.QuotaRequirement, error)

	// ClearForClub deletes the schedule for a club (monthly reset)
	ClearForClub(ctx context.Context, clubID int64) error
}

// BombRepository defines the interface for bomb data access
type BombRepository interface {
	// Create creates a new bomb and fills in its generated fields
	Create(ctx context.Context, bomb *models.Bomb) error

	// GetActiveForMember returns the member's active bomb, or nil
	GetActiveForMember(ctx context.Context, memberID int64) (*models.Bomb, error)

	// GetAllActive returns all active bombs for a club, fewest days remaining first
	GetAllActive(ctx context.Context, clubID int64) ([]*models.Bomb, error)

	// Update persists countdown and deactivation changes
	Update(ctx context.Context, bomb *models.Bomb) error

	// DeactivateAllForClub deactivates every active bomb for a club with the
	// given reason (monthly reset) and returns the bombs it deactivated
	DeactivateAllForClub(ctx context.Context, clubID int64, date time.Time, reason models.BombDeactivationReason) ([]*models.Bomb, error)
}

// RunLockRepository defines the interface for the per-club run lock. Lock
// operations deliberately bypass the unit of work: a lock must be visible to
// other processes the moment it is taken and must be releasable even when the
// run's transaction rolls back.
type RunLockRepository interface {
	// Acquire attempts to take the lock for a club. Locks older than
	// staleAfter are reclaimed first. Returns false if the lock is held.
	Acquire(ctx context.Context, clubID int64, lockedBy string, runID uuid.UUID, staleAfter time.Duration) (bool, error)

	// Release drops the lock for a club
	Release(ctx context.Context, clubID int64) error

	// Get returns the current lock for a club, or nil
	Get(ctx context.Context, clubID int64) (*models.RunLock, error)
}

// SnapshotSource is the capability interface for data-source adapters. The
// orchestrator and scheduler depend only on this contract; the API client and
// the headless-browser scraper both implement it.
type SnapshotSource interface {
	// FetchSnapshot reads the current cumulative fan counts for a club
	FetchSnapshot(ctx context.Context, club *models.Club) (*models.Snapshot, error)
}

// ReconciliationService defines the interface for the run orchestrator
type ReconciliationService interface {
	// RunOnce executes one atomic reconciliation run for a club against a
	// snapshot. At most one run per club may be in flight; re-processing an
	// already processed date is rejected.
	RunOnce(ctx context.Context, club *models.Club, snapshot *models.Snapshot) (*models.RunResult, error)
}

// ClubService defines the interface for club administration
type ClubService interface {
	// CreateClub creates a club after validating its configuration
	CreateClub(ctx context.Context, club *models.Club) error

	// GetClubByName retrieves a club by name
	GetClubByName(ctx context.Context, name string) (*models.Club, error)

	// ListActiveClubs returns all active clubs
	ListActiveClubs(ctx context.Context) ([]*models.Club, error)

	// UpdateClub updates a club's configuration after validating it
	UpdateClub(ctx context.Context, club *models.Club) error

	// SetQuota records a quota change effective from the given date
	SetQuota(ctx context.Context, clubID int64, effectiveDate time.Time, amount int64, setBy string) error
}

// MemberAdminService defines the interface for operator member management
type MemberAdminService interface {
	// AddMember manually registers a member with an explicit join date
	AddMember(ctx context.Context, clubID int64, trainerID, trainerName string, joinDate time.Time) (*models.Member, error)

	// DeactivateMember manually deactivates a member; it will not be
	// auto-reactivated when it reappears in a snapshot
	DeactivateMember(ctx context.Context, clubID int64, trainerName string) error

	// ReactivateMember manually reactivates a member and clears the manual flag
	ReactivateMember(ctx context.Context, clubID int64, trainerName string) error
}

// StatusService defines the interface for status queries used by commands
// and reports
type StatusService interface {
	// GetMemberStatus returns a member with its latest history and active bomb
	GetMemberStatus(ctx context.Context, clubID int64, trainerName string) (*MemberStatusDetail, error)

	// GetClubSummary returns the latest standing of every active member
	GetClubSummary(ctx context.Context, clubID int64) (*ClubSummary, error)

	// GetClubHistory returns every member's history entry for one date
	GetClubHistory(ctx context.Context, clubID int64, date time.Time) ([]*models.QuotaHistory, error)
}

// MemberStatusDetail bundles a member with its latest tracking state.
// Recent holds the member's last daily entries, newest first.
type MemberStatusDetail struct {
	Member  *models.Member
	History *models.QuotaHistory
	Recent  []*models.QuotaHistory
	Bomb    *models.Bomb
}

// ClubSummary is the latest standing of a club's roster
type ClubSummary struct {
	Club    *models.Club
	OnTrack []*MemberStatusDetail
	Behind  []*MemberStatusDetail
	Bombs   []*MemberStatusDetail
}

// EventPublisher defines the interface for publishing events
type EventPublisher interface {
	Publish(event events.Event)
}

// UnitOfWork defines the interface for transactional repository operations
type UnitOfWork interface {
	// Begin starts a new transaction
	Begin(ctx context.Context) error

	// Commit commits the transaction
	Commit() error

	// Rollback rolls back the transaction
	Rollback() error

	// Repository getters
	ClubRepository() ClubRepository
	MemberRepository() MemberRepository
	QuotaHistoryRepository() QuotaHistoryRepository
	QuotaRequirementRepository() QuotaRequirementRepository
	BombRepository() BombRepository
	EventBus() EventPublisher
}

// UnitOfWorkFactory defines the interface for creating UnitOfWork instances
type UnitOfWorkFactory interface {
	// Create returns a new UnitOfWork
	Create() UnitOfWork
}
