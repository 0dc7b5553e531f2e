package service

import (
	"context"
	"time"

	"clubquota/events"
	"clubquota/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockClubRepository is a mock implementation of ClubRepository
type MockClubRepository struct {
	mock.Mock
}

func (m *MockClubRepository) GetByID(ctx context.Context, id int64) (*models.Club, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Club), args.Error(1)
}

func (m *MockClubRepository) GetByName(ctx context.Context, name string) (*models.Club, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Club), args.Error(1)
}

func (m *MockClubRepository) GetAllActive(ctx context.Context) ([]*models.Club, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Club), args.Error(1)
}

func (m *MockClubRepository) Create(ctx context.Context, club *models.Club) error {
	args := m.Called(ctx, club)
	return args.Error(0)
}

func (m *MockClubRepository) Update(ctx context.Context, club *models.Club) error {
	args := m.Called(ctx, club)
	return args.Error(0)
}

func (m *MockClubRepository) SetLastProcessedDate(ctx context.Context, clubID int64, date time.Time) error {
	args := m.Called(ctx, clubID, date)
	return args.Error(0)
}

// MockMemberRepository is a mock implementation of MemberRepository
type MockMemberRepository struct {
	mock.Mock
}

func (m *MockMemberRepository) GetByID(ctx context.Context, id int64) (*models.Member, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Member), args.Error(1)
}

func (m *MockMemberRepository) GetByTrainerID(ctx context.Context, clubID int64, trainerID string) (*models.Member, error) {
	args := m.Called(ctx, clubID, trainerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Member), args.Error(1)
}

func (m *MockMemberRepository) GetByName(ctx context.Context, clubID int64, trainerName string) (*models.Member, error) {
	args := m.Called(ctx, clubID, trainerName)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Member), args.Error(1)
}

func (m *MockMemberRepository) GetAllActive(ctx context.Context, clubID int64) ([]*models.Member, error) {
	args := m.Called(ctx, clubID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Member), args.Error(1)
}

func (m *MockMemberRepository) GetAllInactive(ctx context.Context, clubID int64) ([]*models.Member, error) {
	args := m.Called(ctx, clubID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Member), args.Error(1)
}

func (m *MockMemberRepository) Create(ctx context.Context, member *models.Member) error {
	args := m.Called(ctx, member)
	return args.Error(0)
}

func (m *MockMemberRepository) Update(ctx context.Context, member *models.Member) error {
	args := m.Called(ctx, member)
	return args.Error(0)
}

func (m *MockMemberRepository) Deactivate(ctx context.Context, memberID int64, manual bool) error {
	args := m.Called(ctx, memberID, manual)
	return args.Error(0)
}

func (m *MockMemberRepository) Reactivate(ctx context.Context, memberID int64) error {
	args := m.Called(ctx, memberID)
	return args.Error(0)
}

// MockQuotaHistoryRepository is a mock implementation of QuotaHistoryRepository
type MockQuotaHistoryRepository struct {
	mock.Mock
}

func (m *MockQuotaHistoryRepository) Upsert(ctx context.Context, entry *models.QuotaHistory) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockQuotaHistoryRepository) GetLatestForMember(ctx context.Context, memberID int64) (*models.QuotaHistory, error) {
	args := m.Called(ctx, memberID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.QuotaHistory), args.Error(1)
}

func (m *MockQuotaHistoryRepository) GetLastNDays(ctx context.Context, memberID int64, n int) ([]*models.QuotaHistory, error) {
	args := m.Called(ctx, memberID, n)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.QuotaHistory), args.Error(1)
}

func (m *MockQuotaHistoryRepository) GetForDate(ctx context.Context, clubID int64, date time.Time) ([]*models.QuotaHistory, error) {
	args := m.Called(ctx, clubID, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.QuotaHistory), args.Error(1)
}

func (m *MockQuotaHistoryRepository) ClearForClub(ctx context.Context, clubID int64) error {
	args := m.Called(ctx, clubID)
	return args.Error(0)
}

// MockQuotaRequirementRepository is a mock implementation of QuotaRequirementRepository
type MockQuotaRequirementRepository struct {
	mock.Mock
}

func (m *MockQuotaRequirementRepository) Create(ctx context.Context, req *models.QuotaRequirement) error {
	args := m.Called(ctx, req)
	return args.Error(0)
}

func (m *MockQuotaRequirementRepository) GetSchedule(ctx context.Context, clubID int64) ([]*models.QuotaRequirement, error) {
	args := m.Called(ctx, clubID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.QuotaRequirement), args.Error(1)
}

func (m *MockQuotaRequirementRepository) ClearForClub(ctx context.Context, clubID int64) error {
	args := m.Called(ctx, clubID)
	return args.Error(0)
}

// MockBombRepository is a mock implementation of BombRepository
type MockBombRepository struct {
	mock.Mock
}

func (m *MockBombRepository) Create(ctx context.Context, bomb *models.Bomb) error {
	args := m.Called(ctx, bomb)
	return args.Error(0)
}

func (m *MockBombRepository) GetActiveForMember(ctx context.Context, memberID int64) (*models.Bomb, error) {
	args := m.Called(ctx, memberID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Bomb), args.Error(1)
}

func (m *MockBombRepository) GetAllActive(ctx context.Context, clubID int64) ([]*models.Bomb, error) {
	args := m.Called(ctx, clubID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Bomb), args.Error(1)
}

func (m *MockBombRepository) Update(ctx context.Context, bomb *models.Bomb) error {
	args := m.Called(ctx, bomb)
	return args.Error(0)
}

func (m *MockBombRepository) DeactivateAllForClub(ctx context.Context, clubID int64, date time.Time, reason models.BombDeactivationReason) ([]*models.Bomb, error) {
	args := m.Called(ctx, clubID, date, reason)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Bomb), args.Error(1)
}

// MockRunLockRepository is a mock implementation of RunLockRepository
type MockRunLockRepository struct {
	mock.Mock
}

func (m *MockRunLockRepository) Acquire(ctx context.Context, clubID int64, lockedBy string, runID uuid.UUID, staleAfter time.Duration) (bool, error) {
	args := m.Called(ctx, clubID, lockedBy, runID, staleAfter)
	return args.Bool(0), args.Error(1)
}

func (m *MockRunLockRepository) Release(ctx context.Context, clubID int64) error {
	args := m.Called(ctx, clubID)
	return args.Error(0)
}

func (m *MockRunLockRepository) Get(ctx context.Context, clubID int64) (*models.RunLock, error) {
	args := m.Called(ctx, clubID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.RunLock), args.Error(1)
}

// MockSnapshotSource is a mock implementation of SnapshotSource
type MockSnapshotSource struct {
	mock.Mock
}

func (m *MockSnapshotSource) FetchSnapshot(ctx context.Context, club *models.Club) (*models.Snapshot, error) {
	args := m.Called(ctx, club)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Snapshot), args.Error(1)
}

// MockEventPublisher is a mock implementation of EventPublisher for testing
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(event events.Event) {
	m.Called(event)
}

// recordingPublisher collects published events for assertions without
// per-event expectations
type recordingPublisher struct {
	events []events.Event
}

func (p *recordingPublisher) Publish(event events.Event) {
	p.events = append(p.events, event)
}

// MockUnitOfWork is a mock implementation of UnitOfWork. Repositories are
// plain fields rather than expectations; use SetRepositories to wire them.
type MockUnitOfWork struct {
	mock.Mock
	clubRepo        ClubRepository
	memberRepo      MemberRepository
	historyRepo     QuotaHistoryRepository
	requirementRepo QuotaRequirementRepository
	bombRepo        BombRepository
	publisher       EventPublisher
}

// SetRepositories wires the repositories this unit of work hands out
func (m *MockUnitOfWork) SetRepositories(
	clubRepo ClubRepository,
	memberRepo MemberRepository,
	historyRepo QuotaHistoryRepository,
	requirementRepo QuotaRequirementRepository,
	bombRepo BombRepository,
) {
	m.clubRepo = clubRepo
	m.memberRepo = memberRepo
	m.historyRepo = historyRepo
	m.requirementRepo = requirementRepo
	m.bombRepo = bombRepo
}

// SetEventPublisher wires the publisher returned by EventBus
func (m *MockUnitOfWork) SetEventPublisher(publisher EventPublisher) {
	m.publisher = publisher
}

func (m *MockUnitOfWork) Begin(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockUnitOfWork) Commit() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockUnitOfWork) Rollback() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockUnitOfWork) ClubRepository() ClubRepository {
	return m.clubRepo
}

func (m *MockUnitOfWork) MemberRepository() MemberRepository {
	return m.memberRepo
}

func (m *MockUnitOfWork) QuotaHistoryRepository() QuotaHistoryRepository {
	return m.historyRepo
}

func (m *MockUnitOfWork) QuotaRequirementRepository() QuotaRequirementRepository {
	return m.requirementRepo
}

func (m *MockUnitOfWork) BombRepository() BombRepository {
	return m.bombRepo
}

func (m *MockUnitOfWork) EventBus() EventPublisher {
	if m.publisher == nil {
		return &recordingPublisher{}
	}
	return m.publisher
}

// MockUnitOfWorkFactory is a mock implementation of UnitOfWorkFactory
type MockUnitOfWorkFactory struct {
	mock.Mock
}

func (m *MockUnitOfWorkFactory) Create() UnitOfWork {
	args := m.Called()
	return args.Get(0).(UnitOfWork)
}
