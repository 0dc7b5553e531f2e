package adminapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"clubquota/models"
	"clubquota/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	log "github.com/sirupsen/logrus"
)

// Server is the operator-facing HTTP API. It exposes read-only status and a
// manual run trigger for use from scripts and monitoring, mirroring what the
// slash commands offer inside Discord.
type Server struct {
	httpServer *http.Server

	clubService    service.ClubService
	statusService  service.StatusService
	reconciliation service.ReconciliationService
	source         service.SnapshotSource
	fetchTimeout   time.Duration
}

// NewServer creates the admin API server listening on addr
func NewServer(addr string, clubService service.ClubService, statusService service.StatusService,
	reconciliation service.ReconciliationService, source service.SnapshotSource, fetchTimeout time.Duration) *Server {

	s := &Server{
		clubService:    clubService,
		statusService:  statusService,
		reconciliation: reconciliation,
		source:         source,
		fetchTimeout:   fetchTimeout,
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(10 * time.Minute))

	r.Get("/healthz", s.handleHealth)
	r.Get("/clubs", s.handleListClubs)
	r.Get("/clubs/{name}/status", s.handleClubStatus)
	r.Get("/clubs/{name}/history", s.handleClubHistory)
	r.Post("/clubs/{name}/check", s.handleClubCheck)

	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Start begins serving in a background goroutine
func (s *Server) Start() {
	go func() {
		log.WithField("addr", s.httpServer.Addr).Info("Admin API listening")
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Error("Admin API server failed")
		}
	}()
}

// Shutdown stops the server, waiting for in-flight requests
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type clubView struct {
	ID                int64  `json:"id"`
	Name              string `json:"name"`
	DailyQuota        int64  `json:"daily_quota"`
	Timezone          string `json:"timezone"`
	ScrapeHour        int    `json:"scrape_hour"`
	ScrapeMinute      int    `json:"scrape_minute"`
	LastProcessedDate string `json:"last_processed_date,omitempty"`
}

func (s *Server) handleListClubs(w http.ResponseWriter, r *http.Request) {
	clubs, err := s.clubService.ListActiveClubs(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	views := make([]clubView, 0, len(clubs))
	for _, club := range clubs {
		views = append(views, toClubView(club))
	}
	writeJSON(w, http.StatusOK, views)
}

type memberView struct {
	TrainerID      string `json:"trainer_id"`
	TrainerName    string `json:"trainer_name"`
	CumulativeFans int64  `json:"cumulative_fans"`
	ExpectedFans   int64  `json:"expected_fans"`
	DeficitSurplus int64  `json:"deficit_surplus"`
	DaysBehind     int    `json:"days_behind"`
	BombState      string `json:"bomb_state"`
	BombDays       int    `json:"bomb_days_remaining,omitempty"`
}

type clubStatusView struct {
	Club    clubView     `json:"club"`
	OnTrack []memberView `json:"on_track"`
	Behind  []memberView `json:"behind"`
}

func (s *Server) handleClubStatus(w http.ResponseWriter, r *http.Request) {
	club, ok := s.lookupClub(w, r)
	if !ok {
		return
	}

	summary, err := s.statusService.GetClubSummary(r.Context(), club.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	view := clubStatusView{
		Club:    toClubView(summary.Club),
		OnTrack: toMemberViews(summary.OnTrack),
		Behind:  toMemberViews(summary.Behind),
	}
	writeJSON(w, http.StatusOK, view)
}

type historyView struct {
	MemberID       int64  `json:"member_id"`
	Date           string `json:"date"`
	CumulativeFans int64  `json:"cumulative_fans"`
	ExpectedFans   int64  `json:"expected_fans"`
	DeficitSurplus int64  `json:"deficit_surplus"`
	DaysBehind     int    `json:"days_behind"`
}

// handleClubHistory returns every member's entry for one processed date,
// defaulting to the club's most recent run
func (s *Server) handleClubHistory(w http.ResponseWriter, r *http.Request) {
	club, ok := s.lookupClub(w, r)
	if !ok {
		return
	}

	var date time.Time
	if raw := r.URL.Query().Get("date"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Errorf("invalid date %q, want YYYY-MM-DD", raw))
			return
		}
		date = parsed
	} else if club.LastProcessedDate != nil {
		date = *club.LastProcessedDate
	} else {
		writeError(w, http.StatusBadRequest, errors.New("club has no processed run yet; pass ?date=YYYY-MM-DD"))
		return
	}

	entries, err := s.statusService.GetClubHistory(r.Context(), club.ID, date)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	views := make([]historyView, 0, len(entries))
	for _, e := range entries {
		views = append(views, historyView{
			MemberID:       e.MemberID,
			Date:           e.Date.Format("2006-01-02"),
			CumulativeFans: e.CumulativeFans,
			ExpectedFans:   e.ExpectedFans,
			DeficitSurplus: e.DeficitSurplus,
			DaysBehind:     e.DaysBehind,
		})
	}
	writeJSON(w, http.StatusOK, views)
}

type checkResponse struct {
	ProcessedDate string `json:"processed_date"`
	ResetDetected bool   `json:"reset_detected"`
	OnTrack       int    `json:"on_track"`
	Behind        int    `json:"behind"`
	NewMembers    int    `json:"new_members"`
	Departed      int    `json:"departed"`
	MembersToKick int    `json:"members_to_kick"`
	Errors        int    `json:"member_errors"`
}

func (s *Server) handleClubCheck(w http.ResponseWriter, r *http.Request) {
	club, ok := s.lookupClub(w, r)
	if !ok {
		return
	}

	fetchCtx, cancel := context.WithTimeout(r.Context(), s.fetchTimeout)
	defer cancel()

	snapshot, err := s.source.FetchSnapshot(fetchCtx, club)
	if err != nil {
		writeError(w, http.StatusBadGateway, err)
		return
	}

	result, err := s.reconciliation.RunOnce(r.Context(), club, snapshot)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrAlreadyProcessed):
			writeError(w, http.StatusConflict, err)
		case errors.Is(err, service.ErrConcurrentRunRejected):
			writeError(w, http.StatusConflict, err)
		default:
			writeError(w, http.StatusInternalServerError, err)
		}
		return
	}

	writeJSON(w, http.StatusOK, checkResponse{
		ProcessedDate: result.ProcessedDate.Format("2006-01-02"),
		ResetDetected: result.ResetDetected,
		OnTrack:       len(result.OnTrack()),
		Behind:        len(result.Behind()),
		NewMembers:    result.NewMembers,
		Departed:      result.Departed,
		MembersToKick: len(result.MembersToKick),
		Errors:        len(result.Errors),
	})
}

func (s *Server) lookupClub(w http.ResponseWriter, r *http.Request) (*models.Club, bool) {
	name := chi.URLParam(r, "name")
	club, err := s.clubService.GetClubByName(r.Context(), name)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return nil, false
	}
	if club == nil {
		writeError(w, http.StatusNotFound, errors.New("club not found"))
		return nil, false
	}
	return club, true
}

func toClubView(club *models.Club) clubView {
	v := clubView{
		ID:           club.ID,
		Name:         club.Name,
		DailyQuota:   club.DailyQuota,
		Timezone:     club.Timezone,
		ScrapeHour:   club.ScrapeHour,
		ScrapeMinute: club.ScrapeMinute,
	}
	if club.LastProcessedDate != nil {
		v.LastProcessedDate = club.LastProcessedDate.Format("2006-01-02")
	}
	return v
}

func toMemberViews(details []*service.MemberStatusDetail) []memberView {
	views := make([]memberView, 0, len(details))
	for _, d := range details {
		v := memberView{
			TrainerID:      d.Member.TrainerID,
			TrainerName:    d.Member.TrainerName,
			CumulativeFans: d.History.CumulativeFans,
			ExpectedFans:   d.History.ExpectedFans,
			DeficitSurplus: d.History.DeficitSurplus,
			DaysBehind:     d.History.DaysBehind,
			BombState:      string(d.Bomb.State()),
		}
		if d.Bomb != nil && d.Bomb.IsActive {
			v.BombDays = d.Bomb.DaysRemaining
		}
		views = append(views, v)
	}
	return views
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.WithError(err).Error("Failed to encode response")
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
