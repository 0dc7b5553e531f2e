package adminapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"clubquota/models"
	"clubquota/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockClubService struct {
	mock.Mock
}

func (m *mockClubService) CreateClub(ctx context.Context, club *models.Club) error {
	args := m.Called(ctx, club)
	return args.Error(0)
}

func (m *mockClubService) GetClubByName(ctx context.Context, name string) (*models.Club, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Club), args.Error(1)
}

func (m *mockClubService) ListActiveClubs(ctx context.Context) ([]*models.Club, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Club), args.Error(1)
}

func (m *mockClubService) UpdateClub(ctx context.Context, club *models.Club) error {
	args := m.Called(ctx, club)
	return args.Error(0)
}

func (m *mockClubService) SetQuota(ctx context.Context, clubID int64, effectiveDate time.Time, amount int64, setBy string) error {
	args := m.Called(ctx, clubID, effectiveDate, amount, setBy)
	return args.Error(0)
}

type mockStatusService struct {
	mock.Mock
}

func (m *mockStatusService) GetMemberStatus(ctx context.Context, clubID int64, trainerName string) (*service.MemberStatusDetail, error) {
	args := m.Called(ctx, clubID, trainerName)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.MemberStatusDetail), args.Error(1)
}

func (m *mockStatusService) GetClubSummary(ctx context.Context, clubID int64) (*service.ClubSummary, error) {
	args := m.Called(ctx, clubID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ClubSummary), args.Error(1)
}

func (m *mockStatusService) GetClubHistory(ctx context.Context, clubID int64, date time.Time) ([]*models.QuotaHistory, error) {
	args := m.Called(ctx, clubID, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.QuotaHistory), args.Error(1)
}

type mockReconciliation struct {
	mock.Mock
}

func (m *mockReconciliation) RunOnce(ctx context.Context, club *models.Club, snapshot *models.Snapshot) (*models.RunResult, error) {
	args := m.Called(ctx, club, snapshot)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.RunResult), args.Error(1)
}

func testServer(clubSvc *mockClubService, statusSvc *mockStatusService, recon *mockReconciliation, source *service.MockSnapshotSource) *Server {
	return NewServer(":0", clubSvc, statusSvc, recon, source, time.Minute)
}

func apiClub() *models.Club {
	lastRun := time.Date(2026, 3, 3, 0, 0, 0, 0, time.UTC)
	return &models.Club{
		ID:                1,
		Name:              "umapyoi",
		DailyQuota:        1_000_000,
		Timezone:          "Europe/Amsterdam",
		ScrapeHour:        16,
		IsActive:          true,
		LastProcessedDate: &lastRun,
	}
}

func TestServer_Health(t *testing.T) {
	server := testServer(new(mockClubService), new(mockStatusService), new(mockReconciliation), new(service.MockSnapshotSource))

	rec := httptest.NewRecorder()
	server.httpServer.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestServer_ListClubs(t *testing.T) {
	clubSvc := new(mockClubService)
	clubSvc.On("ListActiveClubs", mock.Anything).Return([]*models.Club{apiClub()}, nil)

	server := testServer(clubSvc, new(mockStatusService), new(mockReconciliation), new(service.MockSnapshotSource))

	rec := httptest.NewRecorder()
	server.httpServer.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/clubs", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var views []clubView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &views))
	require.Len(t, views, 1)
	assert.Equal(t, "umapyoi", views[0].Name)
	assert.Equal(t, int64(1_000_000), views[0].DailyQuota)
	assert.Equal(t, "2026-03-03", views[0].LastProcessedDate)

	clubSvc.AssertExpectations(t)
}

func TestServer_ClubStatus(t *testing.T) {
	club := apiClub()
	clubSvc := new(mockClubService)
	clubSvc.On("GetClubByName", mock.Anything, "umapyoi").Return(club, nil)

	statusSvc := new(mockStatusService)
	statusSvc.On("GetClubSummary", mock.Anything, int64(1)).Return(&service.ClubSummary{
		Club: club,
		OnTrack: []*service.MemberStatusDetail{
			{
				Member:  &models.Member{TrainerID: "100", TrainerName: "alpha"},
				History: &models.QuotaHistory{CumulativeFans: 3_200_000, ExpectedFans: 3_000_000, DeficitSurplus: 200_000},
			},
		},
		Behind: []*service.MemberStatusDetail{
			{
				Member:  &models.Member{TrainerID: "200", TrainerName: "beta"},
				History: &models.QuotaHistory{CumulativeFans: 2_500_000, ExpectedFans: 3_000_000, DeficitSurplus: -500_000, DaysBehind: 2},
				Bomb:    &models.Bomb{IsActive: true, DaysRemaining: 5},
			},
		},
	}, nil)

	server := testServer(clubSvc, statusSvc, new(mockReconciliation), new(service.MockSnapshotSource))

	rec := httptest.NewRecorder()
	server.httpServer.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/clubs/umapyoi/status", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var view clubStatusView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	require.Len(t, view.OnTrack, 1)
	require.Len(t, view.Behind, 1)
	assert.Equal(t, "clear", view.OnTrack[0].BombState)
	assert.Equal(t, "armed", view.Behind[0].BombState)
	assert.Equal(t, 5, view.Behind[0].BombDays)
	assert.Equal(t, int64(-500_000), view.Behind[0].DeficitSurplus)
}

func TestServer_ClubStatus_NotFound(t *testing.T) {
	clubSvc := new(mockClubService)
	clubSvc.On("GetClubByName", mock.Anything, "ghost").Return(nil, nil)

	server := testServer(clubSvc, new(mockStatusService), new(mockReconciliation), new(service.MockSnapshotSource))

	rec := httptest.NewRecorder()
	server.httpServer.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/clubs/ghost/status", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServer_ClubHistory(t *testing.T) {
	club := apiClub()
	lastRun := *club.LastProcessedDate

	clubSvc := new(mockClubService)
	clubSvc.On("GetClubByName", mock.Anything, "umapyoi").Return(club, nil)

	statusSvc := new(mockStatusService)
	statusSvc.On("GetClubHistory", mock.Anything, int64(1), lastRun).Return([]*models.QuotaHistory{
		{MemberID: 1, ClubID: 1, Date: lastRun, CumulativeFans: 3_200_000, ExpectedFans: 3_000_000, DeficitSurplus: 200_000},
		{MemberID: 2, ClubID: 1, Date: lastRun, CumulativeFans: 2_500_000, ExpectedFans: 3_000_000, DeficitSurplus: -500_000, DaysBehind: 2},
	}, nil)

	server := testServer(clubSvc, statusSvc, new(mockReconciliation), new(service.MockSnapshotSource))

	// No ?date= defaults to the club's last processed date
	rec := httptest.NewRecorder()
	server.httpServer.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/clubs/umapyoi/history", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var views []historyView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &views))
	require.Len(t, views, 2)
	assert.Equal(t, "2026-03-03", views[0].Date)
	assert.Equal(t, int64(-500_000), views[1].DeficitSurplus)
	assert.Equal(t, 2, views[1].DaysBehind)

	statusSvc.AssertExpectations(t)
}

func TestServer_ClubHistory_ExplicitDate(t *testing.T) {
	club := apiClub()
	asked := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	clubSvc := new(mockClubService)
	clubSvc.On("GetClubByName", mock.Anything, "umapyoi").Return(club, nil)

	statusSvc := new(mockStatusService)
	statusSvc.On("GetClubHistory", mock.Anything, int64(1), asked).Return([]*models.QuotaHistory{}, nil)

	server := testServer(clubSvc, statusSvc, new(mockReconciliation), new(service.MockSnapshotSource))

	rec := httptest.NewRecorder()
	server.httpServer.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/clubs/umapyoi/history?date=2026-03-01", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	rec = httptest.NewRecorder()
	server.httpServer.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/clubs/umapyoi/history?date=March+1st", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestServer_ClubCheck(t *testing.T) {
	club := apiClub()
	snapshot := models.NewSnapshot(time.Now(), []models.SnapshotEntry{
		{TrainerID: "100", TrainerName: "alpha", FanCount: 3_200_000},
	})

	clubSvc := new(mockClubService)
	clubSvc.On("GetClubByName", mock.Anything, "umapyoi").Return(club, nil)

	source := new(service.MockSnapshotSource)
	source.On("FetchSnapshot", mock.Anything, club).Return(snapshot, nil)

	recon := new(mockReconciliation)
	recon.On("RunOnce", mock.Anything, club, snapshot).Return(&models.RunResult{
		Club:          club,
		ProcessedDate: time.Date(2026, 3, 4, 0, 0, 0, 0, time.UTC),
		Outcomes: []models.MemberOutcome{
			{Member: &models.Member{TrainerName: "alpha"}, Status: models.MemberStatusOnTrack, DeficitSurplus: 200_000},
		},
	}, nil)

	server := testServer(clubSvc, new(mockStatusService), recon, source)

	rec := httptest.NewRecorder()
	server.httpServer.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/clubs/umapyoi/check", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var resp checkResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "2026-03-04", resp.ProcessedDate)
	assert.Equal(t, 1, resp.OnTrack)
	assert.Equal(t, 0, resp.Behind)

	recon.AssertExpectations(t)
	source.AssertExpectations(t)
}

func TestServer_ClubCheck_AlreadyProcessed(t *testing.T) {
	club := apiClub()
	snapshot := models.NewSnapshot(time.Now(), []models.SnapshotEntry{
		{TrainerID: "100", TrainerName: "alpha", FanCount: 1},
	})

	clubSvc := new(mockClubService)
	clubSvc.On("GetClubByName", mock.Anything, "umapyoi").Return(club, nil)

	source := new(service.MockSnapshotSource)
	source.On("FetchSnapshot", mock.Anything, club).Return(snapshot, nil)

	recon := new(mockReconciliation)
	recon.On("RunOnce", mock.Anything, club, snapshot).Return(nil, service.ErrAlreadyProcessed)

	server := testServer(clubSvc, new(mockStatusService), recon, source)

	rec := httptest.NewRecorder()
	server.httpServer.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/clubs/umapyoi/check", nil))

	assert.Equal(t, http.StatusConflict, rec.Code)
}
