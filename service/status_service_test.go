package service

import (
	"context"
	"testing"
	"time"

	"clubquota/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type statusFixture struct {
	factory     *MockUnitOfWorkFactory
	uow         *MockUnitOfWork
	clubRepo    *MockClubRepository
	memberRepo  *MockMemberRepository
	historyRepo *MockQuotaHistoryRepository
	bombRepo    *MockBombRepository
	service     StatusService
}

func newStatusFixture(ctx context.Context) *statusFixture {
	f := &statusFixture{
		factory:     new(MockUnitOfWorkFactory),
		uow:         new(MockUnitOfWork),
		clubRepo:    new(MockClubRepository),
		memberRepo:  new(MockMemberRepository),
		historyRepo: new(MockQuotaHistoryRepository),
		bombRepo:    new(MockBombRepository),
	}
	f.uow.SetRepositories(f.clubRepo, f.memberRepo, f.historyRepo, new(MockQuotaRequirementRepository), f.bombRepo)
	f.factory.On("Create").Return(f.uow)
	f.uow.On("Begin", ctx).Return(nil)
	f.uow.On("Rollback").Return(nil)
	f.service = NewStatusService(f.factory)
	return f
}

func TestStatusService_GetMemberStatus(t *testing.T) {
	ctx := context.Background()
	f := newStatusFixture(ctx)

	member := &models.Member{ID: 4, ClubID: 1, TrainerID: "100", TrainerName: "alpha", IsActive: true}
	day := func(d int) time.Time { return time.Date(2026, 3, d, 0, 0, 0, 0, time.UTC) }
	trend := []*models.QuotaHistory{
		{MemberID: 4, Date: day(5), CumulativeFans: 5_200_000, DeficitSurplus: 200_000},
		{MemberID: 4, Date: day(4), CumulativeFans: 3_900_000, DeficitSurplus: -100_000},
	}

	f.memberRepo.On("GetByName", ctx, int64(1), "alpha").Return(member, nil)
	f.historyRepo.On("GetLatestForMember", ctx, int64(4)).Return(trend[0], nil)
	f.historyRepo.On("GetLastNDays", ctx, int64(4), memberTrendDays).Return(trend, nil)
	f.bombRepo.On("GetActiveForMember", ctx, int64(4)).Return(nil, nil)

	detail, err := f.service.GetMemberStatus(ctx, 1, "alpha")
	require.NoError(t, err)
	require.NotNil(t, detail)

	assert.Equal(t, member, detail.Member)
	assert.Equal(t, trend[0], detail.History)
	require.Len(t, detail.Recent, 2)
	assert.True(t, detail.Recent[0].Date.After(detail.Recent[1].Date), "newest first")
	assert.Nil(t, detail.Bomb)

	f.historyRepo.AssertExpectations(t)
}

func TestStatusService_GetMemberStatus_Unknown(t *testing.T) {
	ctx := context.Background()
	f := newStatusFixture(ctx)

	f.memberRepo.On("GetByName", ctx, int64(1), "ghost").Return(nil, nil)

	detail, err := f.service.GetMemberStatus(ctx, 1, "ghost")
	require.NoError(t, err)
	assert.Nil(t, detail)

	f.historyRepo.AssertNotCalled(t, "GetLastNDays", mock.Anything, mock.Anything, mock.Anything)
}

func TestStatusService_GetClubHistory(t *testing.T) {
	ctx := context.Background()
	f := newStatusFixture(ctx)

	date := time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC)
	entries := []*models.QuotaHistory{
		{MemberID: 1, ClubID: 1, Date: date, CumulativeFans: 5_200_000},
		{MemberID: 2, ClubID: 1, Date: date, CumulativeFans: 4_500_000},
	}
	f.historyRepo.On("GetForDate", ctx, int64(1), date).Return(entries, nil)

	got, err := f.service.GetClubHistory(ctx, 1, date)
	require.NoError(t, err)
	assert.Equal(t, entries, got)

	f.historyRepo.AssertExpectations(t)
}
