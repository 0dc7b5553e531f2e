package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"clubquota/events"
	"clubquota/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type runFixture struct {
	factory         *MockUnitOfWorkFactory
	uow             *MockUnitOfWork
	lockRepo        *MockRunLockRepository
	clubRepo        *MockClubRepository
	memberRepo      *MockMemberRepository
	historyRepo     *MockQuotaHistoryRepository
	requirementRepo *MockQuotaRequirementRepository
	bombRepo        *MockBombRepository
	service         ReconciliationService
}

func newRunFixture() *runFixture {
	f := &runFixture{
		factory:         new(MockUnitOfWorkFactory),
		uow:             new(MockUnitOfWork),
		lockRepo:        new(MockRunLockRepository),
		clubRepo:        new(MockClubRepository),
		memberRepo:      new(MockMemberRepository),
		historyRepo:     new(MockQuotaHistoryRepository),
		requirementRepo: new(MockQuotaRequirementRepository),
		bombRepo:        new(MockBombRepository),
	}
	f.uow.SetRepositories(f.clubRepo, f.memberRepo, f.historyRepo, f.requirementRepo, f.bombRepo)
	f.service = NewReconciliationService(f.factory, f.lockRepo, "test-worker", 30*time.Minute)
	return f
}

func (f *runFixture) expectLockCycle(clubID int64) {
	f.lockRepo.On("Acquire", mock.Anything, clubID, "test-worker",
		mock.AnythingOfType("uuid.UUID"), 30*time.Minute).Return(true, nil)
	f.lockRepo.On("Release", mock.Anything, clubID).Return(nil)
}

func (f *runFixture) expectTransaction(ctx context.Context) {
	f.factory.On("Create").Return(f.uow)
	f.uow.On("Begin", ctx).Return(nil)
	f.uow.On("Commit").Return(nil)
	f.uow.On("Rollback").Return(nil)
}

func TestReconciliationService_RunOnce_HappyPath(t *testing.T) {
	ctx := context.Background()
	loc, _ := time.LoadLocation("Europe/Amsterdam")

	club := testClub()
	fetchedAt := time.Date(2026, 3, 5, 16, 0, 0, 0, loc)
	monthStart := time.Date(2026, 3, 1, 0, 0, 0, 0, loc)

	memberA := &models.Member{ID: 1, ClubID: 1, TrainerID: "100", TrainerName: "alpha",
		JoinDate: monthStart, IsActive: true, LastFanCount: 4_000_000}
	memberB := &models.Member{ID: 2, ClubID: 1, TrainerID: "200", TrainerName: "beta",
		JoinDate: monthStart, IsActive: true, LastFanCount: 3_500_000}

	// Day 5: target is 5M. A has a surplus, B a deficit.
	snapshot := models.NewSnapshot(fetchedAt, []models.SnapshotEntry{
		{TrainerID: "100", TrainerName: "alpha", FanCount: 5_200_000},
		{TrainerID: "200", TrainerName: "beta", FanCount: 4_500_000},
	})

	f := newRunFixture()
	f.expectLockCycle(club.ID)
	f.expectTransaction(ctx)

	f.memberRepo.On("GetAllActive", ctx, club.ID).Return([]*models.Member{memberA, memberB}, nil)
	f.memberRepo.On("GetAllInactive", ctx, club.ID).Return([]*models.Member{}, nil)
	f.requirementRepo.On("GetSchedule", ctx, club.ID).Return([]*models.QuotaRequirement{}, nil)
	f.bombRepo.On("GetActiveForMember", ctx, mock.AnythingOfType("int64")).Return(nil, nil)
	f.memberRepo.On("Update", ctx, mock.AnythingOfType("*models.Member")).Return(nil)
	f.historyRepo.On("Upsert", ctx, mock.MatchedBy(func(h *models.QuotaHistory) bool {
		if h.MemberID == 1 {
			return h.DeficitSurplus == 200_000 && h.ExpectedFans == 5_000_000 && h.DaysBehind == 0
		}
		return h.DeficitSurplus == -500_000 && h.DaysBehind == 1
	})).Return(nil)
	f.clubRepo.On("SetLastProcessedDate", ctx, club.ID, mock.AnythingOfType("time.Time")).Return(nil)

	result, err := f.service.RunOnce(ctx, club, snapshot)
	require.NoError(t, err)
	require.NotNil(t, result)

	assert.False(t, result.ResetDetected)
	require.Len(t, result.Outcomes, 2)
	assert.Equal(t, models.MemberStatusOnTrack, result.Outcomes[0].Status)
	assert.Equal(t, models.MemberStatusBehind, result.Outcomes[1].Status)
	assert.Empty(t, result.ActivatedBombs)
	assert.Equal(t, "2026-03-05", result.ProcessedDate.Format("2006-01-02"))
	require.NotNil(t, club.LastProcessedDate)

	f.lockRepo.AssertExpectations(t)
	f.uow.AssertExpectations(t)
	f.historyRepo.AssertExpectations(t)
}

func TestReconciliationService_RunOnce_ConcurrentRejected(t *testing.T) {
	ctx := context.Background()
	club := testClub()

	f := newRunFixture()
	f.lockRepo.On("Acquire", mock.Anything, club.ID, "test-worker",
		mock.AnythingOfType("uuid.UUID"), 30*time.Minute).Return(false, nil)

	snapshot := models.NewSnapshot(time.Now(), []models.SnapshotEntry{
		{TrainerID: "1", FanCount: 1},
	})

	result, err := f.service.RunOnce(ctx, club, snapshot)
	assert.Nil(t, result)
	assert.ErrorIs(t, err, ErrConcurrentRunRejected)
	assert.ErrorIs(t, err, ErrLockUnavailable)

	// The lock was never taken, so it must not be released
	f.lockRepo.AssertNotCalled(t, "Release", mock.Anything, mock.Anything)
}

func TestReconciliationService_RunOnce_EmptySnapshot(t *testing.T) {
	ctx := context.Background()
	club := testClub()

	f := newRunFixture()
	f.expectLockCycle(club.ID)

	result, err := f.service.RunOnce(ctx, club, models.NewSnapshot(time.Now(), nil))
	assert.Nil(t, result)
	assert.ErrorIs(t, err, ErrEmptySnapshot)

	// Lock released even on the error path
	f.lockRepo.AssertCalled(t, "Release", mock.Anything, club.ID)
}

func TestReconciliationService_RunOnce_AlreadyProcessed(t *testing.T) {
	ctx := context.Background()
	loc, _ := time.LoadLocation("Europe/Amsterdam")

	club := testClub()
	processed := time.Date(2026, 3, 5, 0, 0, 0, 0, loc)
	club.LastProcessedDate = &processed

	f := newRunFixture()
	f.expectLockCycle(club.ID)

	// Same calendar day, later time
	snapshot := models.NewSnapshot(time.Date(2026, 3, 5, 18, 0, 0, 0, loc), []models.SnapshotEntry{
		{TrainerID: "1", FanCount: 1},
	})

	result, err := f.service.RunOnce(ctx, club, snapshot)
	assert.Nil(t, result)
	assert.ErrorIs(t, err, ErrAlreadyProcessed)

	f.lockRepo.AssertCalled(t, "Release", mock.Anything, club.ID)
	f.factory.AssertNotCalled(t, "Create")
}

func TestReconciliationService_RunOnce_InvalidClub(t *testing.T) {
	ctx := context.Background()
	club := testClub()
	club.DailyQuota = 0

	f := newRunFixture()

	result, err := f.service.RunOnce(ctx, club, models.NewSnapshot(time.Now(), nil))
	assert.Nil(t, result)
	assert.Error(t, err)
	f.lockRepo.AssertNotCalled(t, "Acquire", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestReconciliationService_RunOnce_ResetDay(t *testing.T) {
	ctx := context.Background()
	loc, _ := time.LoadLocation("Europe/Amsterdam")

	club := testClub()
	fetchedAt := time.Date(2026, 4, 1, 16, 0, 0, 0, loc)
	monthStart := time.Date(2026, 3, 1, 0, 0, 0, 0, loc)

	memberA := &models.Member{ID: 1, ClubID: 1, TrainerID: "100", TrainerName: "alpha",
		JoinDate: monthStart, IsActive: true, LastFanCount: 30_000_000, DaysBehind: 2}
	memberB := &models.Member{ID: 2, ClubID: 1, TrainerID: "200", TrainerName: "beta",
		JoinDate: monthStart, IsActive: true, LastFanCount: 28_000_000}

	// Both counters collapsed: the monthly reset
	snapshot := models.NewSnapshot(fetchedAt, []models.SnapshotEntry{
		{TrainerID: "100", TrainerName: "alpha", FanCount: 1_200_000},
		{TrainerID: "200", TrainerName: "beta", FanCount: 600_000},
	})

	clearedBomb := &models.Bomb{ID: 7, MemberID: 2, ClubID: 1, IsActive: false,
		DeactivationReason: models.BombReasonReset}

	f := newRunFixture()
	f.expectLockCycle(club.ID)
	f.expectTransaction(ctx)

	f.memberRepo.On("GetAllActive", ctx, club.ID).Return([]*models.Member{memberA, memberB}, nil)
	f.memberRepo.On("GetAllInactive", ctx, club.ID).Return([]*models.Member{}, nil)
	f.historyRepo.On("ClearForClub", ctx, club.ID).Return(nil)
	f.requirementRepo.On("ClearForClub", ctx, club.ID).Return(nil)
	f.bombRepo.On("DeactivateAllForClub", ctx, club.ID, mock.AnythingOfType("time.Time"),
		models.BombReasonReset).Return([]*models.Bomb{clearedBomb}, nil)
	f.requirementRepo.On("GetSchedule", ctx, club.ID).Return([]*models.QuotaRequirement{}, nil)
	f.bombRepo.On("GetActiveForMember", ctx, mock.AnythingOfType("int64")).Return(nil, nil)
	f.memberRepo.On("Update", ctx, mock.AnythingOfType("*models.Member")).Return(nil)
	// On the reset day the target is a single day's quota
	f.historyRepo.On("Upsert", ctx, mock.MatchedBy(func(h *models.QuotaHistory) bool {
		return h.ExpectedFans == 1_000_000
	})).Return(nil)
	f.clubRepo.On("SetLastProcessedDate", ctx, club.ID, mock.AnythingOfType("time.Time")).Return(nil)

	result, err := f.service.RunOnce(ctx, club, snapshot)
	require.NoError(t, err)

	assert.True(t, result.ResetDetected)
	assert.Contains(t, result.DeactivatedBombs, clearedBomb)
	require.Len(t, result.Outcomes, 2)
	for _, o := range result.Outcomes {
		assert.Equal(t, models.MemberStatusReset, o.Status)
	}
	// Join dates survive the reset; streaks do not
	assert.Equal(t, monthStart, memberA.JoinDate)
	assert.Zero(t, result.Outcomes[0].Member.DaysBehind)

	f.historyRepo.AssertExpectations(t)
	f.bombRepo.AssertExpectations(t)
}

func TestReconciliationService_RunOnce_RosterChanges(t *testing.T) {
	ctx := context.Background()
	loc, _ := time.LoadLocation("Europe/Amsterdam")

	club := testClub()
	fetchedAt := time.Date(2026, 3, 10, 16, 0, 0, 0, loc)
	monthStart := time.Date(2026, 3, 1, 0, 0, 0, 0, loc)

	staying := &models.Member{ID: 1, ClubID: 1, TrainerID: "100", TrainerName: "alpha",
		JoinDate: monthStart, IsActive: true, LastFanCount: 9_000_000}
	departing := &models.Member{ID: 2, ClubID: 1, TrainerID: "200", TrainerName: "beta",
		JoinDate: monthStart, IsActive: true, LastFanCount: 8_000_000}

	snapshot := models.NewSnapshot(fetchedAt, []models.SnapshotEntry{
		{TrainerID: "100", TrainerName: "alpha", FanCount: 11_000_000},
		{TrainerID: "300", TrainerName: "newbie", FanCount: 500_000},
	})

	f := newRunFixture()
	f.expectLockCycle(club.ID)
	f.expectTransaction(ctx)

	f.memberRepo.On("GetAllActive", ctx, club.ID).Return([]*models.Member{staying, departing}, nil)
	f.memberRepo.On("GetAllInactive", ctx, club.ID).Return([]*models.Member{}, nil)
	f.memberRepo.On("Create", ctx, mock.MatchedBy(func(m *models.Member) bool {
		// A newcomer's join date is the processing date
		return m.TrainerID == "300" && m.JoinDate.Format("2006-01-02") == "2026-03-10"
	})).Return(nil).Run(func(args mock.Arguments) {
		args.Get(1).(*models.Member).ID = 3
	})
	f.memberRepo.On("Deactivate", ctx, int64(2), false).Return(nil)
	f.requirementRepo.On("GetSchedule", ctx, club.ID).Return([]*models.QuotaRequirement{}, nil)
	f.bombRepo.On("GetActiveForMember", ctx, mock.AnythingOfType("int64")).Return(nil, nil)
	f.memberRepo.On("Update", ctx, mock.AnythingOfType("*models.Member")).Return(nil)
	f.historyRepo.On("Upsert", ctx, mock.AnythingOfType("*models.QuotaHistory")).Return(nil)
	f.clubRepo.On("SetLastProcessedDate", ctx, club.ID, mock.AnythingOfType("time.Time")).Return(nil)

	result, err := f.service.RunOnce(ctx, club, snapshot)
	require.NoError(t, err)

	assert.Equal(t, 1, result.NewMembers)
	assert.Equal(t, 1, result.Departed)

	statuses := make(map[string]models.MemberStatus)
	for _, o := range result.Outcomes {
		statuses[o.Member.TrainerID] = o.Status
	}
	assert.Equal(t, models.MemberStatusNew, statuses["300"])
	assert.Equal(t, models.MemberStatusDeactivated, statuses["200"])

	f.memberRepo.AssertExpectations(t)
}

func TestReconciliationService_RunOnce_FailedMemberLeavesNoPartialState(t *testing.T) {
	ctx := context.Background()
	loc, _ := time.LoadLocation("Europe/Amsterdam")

	club := testClub()
	fetchedAt := time.Date(2026, 3, 5, 16, 0, 0, 0, loc)
	monthStart := time.Date(2026, 3, 1, 0, 0, 0, 0, loc)

	// Two days behind already; today's deficit would arm a bomb
	arming := &models.Member{ID: 1, ClubID: 1, TrainerID: "100", TrainerName: "arming",
		JoinDate: monthStart, IsActive: true, DaysBehind: 2, LastFanCount: 900_000}
	healthy := &models.Member{ID: 2, ClubID: 1, TrainerID: "200", TrainerName: "healthy",
		JoinDate: monthStart, IsActive: true, LastFanCount: 5_000_000}

	snapshot := models.NewSnapshot(fetchedAt, []models.SnapshotEntry{
		{TrainerID: "100", TrainerName: "arming", FanCount: 1_000_000},
		{TrainerID: "200", TrainerName: "healthy", FanCount: 6_000_000},
	})

	f := newRunFixture()
	f.expectLockCycle(club.ID)
	f.expectTransaction(ctx)

	published := &recordingPublisher{}
	f.uow.SetEventPublisher(published)

	f.memberRepo.On("GetAllActive", ctx, club.ID).Return([]*models.Member{arming, healthy}, nil)
	f.memberRepo.On("GetAllInactive", ctx, club.ID).Return([]*models.Member{}, nil)
	f.requirementRepo.On("GetSchedule", ctx, club.ID).Return([]*models.QuotaRequirement{}, nil)
	f.bombRepo.On("GetActiveForMember", ctx, mock.AnythingOfType("int64")).Return(nil, nil)
	f.memberRepo.On("Update", ctx, mock.MatchedBy(func(m *models.Member) bool {
		return m.ID == 1
	})).Return(errors.New("write rejected"))
	f.memberRepo.On("Update", ctx, mock.MatchedBy(func(m *models.Member) bool {
		return m.ID == 2
	})).Return(nil)
	f.historyRepo.On("Upsert", ctx, mock.MatchedBy(func(h *models.QuotaHistory) bool {
		return h.MemberID == 2
	})).Return(nil)
	f.clubRepo.On("SetLastProcessedDate", ctx, club.ID, mock.AnythingOfType("time.Time")).Return(nil)

	result, err := f.service.RunOnce(ctx, club, snapshot)
	require.NoError(t, err)

	require.Len(t, result.Errors, 1)
	assert.Equal(t, "100", result.Errors[0].TrainerID)

	// The bomb the failed member would have armed must not surface anywhere:
	// not in the database, not in the result, not as an announcement
	f.bombRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	assert.Empty(t, result.ActivatedBombs)
	for _, event := range published.events {
		_, isActivation := event.(events.BombActivatedEvent)
		assert.False(t, isActivation, "no activation may be announced for a failed member")
	}

	// The healthy member and the run itself still commit
	require.Len(t, result.Outcomes, 1)
	assert.Equal(t, "200", result.Outcomes[0].Member.TrainerID)
	f.uow.AssertCalled(t, "Commit")
}

func TestReconciliationService_RunOnce_MemberErrorDegrades(t *testing.T) {
	ctx := context.Background()
	loc, _ := time.LoadLocation("Europe/Amsterdam")

	club := testClub()
	fetchedAt := time.Date(2026, 3, 5, 16, 0, 0, 0, loc)
	monthStart := time.Date(2026, 3, 1, 0, 0, 0, 0, loc)

	broken := &models.Member{ID: 1, ClubID: 1, TrainerID: "100", TrainerName: "broken",
		JoinDate: monthStart, IsActive: true, LastFanCount: 4_000_000}
	healthy := &models.Member{ID: 2, ClubID: 1, TrainerID: "200", TrainerName: "healthy",
		JoinDate: monthStart, IsActive: true, LastFanCount: 5_000_000}

	snapshot := models.NewSnapshot(fetchedAt, []models.SnapshotEntry{
		{TrainerID: "100", TrainerName: "broken", FanCount: 5_100_000},
		{TrainerID: "200", TrainerName: "healthy", FanCount: 6_000_000},
	})

	f := newRunFixture()
	f.expectLockCycle(club.ID)
	f.expectTransaction(ctx)

	f.memberRepo.On("GetAllActive", ctx, club.ID).Return([]*models.Member{broken, healthy}, nil)
	f.memberRepo.On("GetAllInactive", ctx, club.ID).Return([]*models.Member{}, nil)
	f.requirementRepo.On("GetSchedule", ctx, club.ID).Return([]*models.QuotaRequirement{}, nil)
	f.bombRepo.On("GetActiveForMember", ctx, int64(1)).Return(nil, errors.New("row corrupted"))
	f.bombRepo.On("GetActiveForMember", ctx, int64(2)).Return(nil, nil)
	f.memberRepo.On("Update", ctx, mock.MatchedBy(func(m *models.Member) bool {
		return m.ID == 2
	})).Return(nil)
	f.historyRepo.On("Upsert", ctx, mock.MatchedBy(func(h *models.QuotaHistory) bool {
		return h.MemberID == 2
	})).Return(nil)
	f.clubRepo.On("SetLastProcessedDate", ctx, club.ID, mock.AnythingOfType("time.Time")).Return(nil)

	result, err := f.service.RunOnce(ctx, club, snapshot)
	require.NoError(t, err, "one bad member must not abort the run")

	require.Len(t, result.Errors, 1)
	assert.Equal(t, "100", result.Errors[0].TrainerID)
	require.Len(t, result.Outcomes, 1)
	assert.Equal(t, "200", result.Outcomes[0].Member.TrainerID)

	f.uow.AssertCalled(t, "Commit")
}
