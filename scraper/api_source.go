package scraper

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"clubquota/models"
	"clubquota/service"

	log "github.com/sirupsen/logrus"
)

// APISource reads cumulative fan counts from the circle stats API. The API
// exposes one document per circle and month with a lifetime-cumulative
// daily_fans array per member.
type APISource struct {
	baseURL string
	client  *http.Client

	// injectable clock for month-boundary tests
	now func() time.Time
}

var _ service.SnapshotSource = (*APISource)(nil)

// NewAPISource creates a snapshot source backed by the circle stats API
func NewAPISource(baseURL string) *APISource {
	return &APISource{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 30 * time.Second},
		now:     time.Now,
	}
}

type apiMember struct {
	ViewerID    json.Number `json:"viewer_id"`
	TrainerName string      `json:"trainer_name"`
	DailyFans   []int64     `json:"daily_fans"`
}

type apiResponse struct {
	Members []apiMember `json:"members"`
}

// FetchSnapshot reads the current month's readings for a club.
//
// On the first calendar day of a month the new month's document is not
// populated yet, so the previous month is fetched instead and the snapshot is
// dated to that month's last day. The current month's index 0, when available,
// corrects each member's final total: it captures fans earned between the
// previous month's last reading and the actual counter reset.
func (s *APISource) FetchSnapshot(ctx context.Context, club *models.Club) (*models.Snapshot, error) {
	loc, err := time.LoadLocation(club.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid club timezone %q: %w", club.Timezone, err)
	}

	now := s.now().In(loc)
	year, month, day := now.Date()

	fetchYear, fetchMonth := year, month
	dayIndex := day
	fetchedAt := now

	var endpointTotals map[string]int64
	if day == 1 {
		fetchYear, fetchMonth = previousMonth(year, month)
		lastDay := daysInMonth(fetchYear, fetchMonth)
		dayIndex = lastDay
		fetchedAt = time.Date(fetchYear, fetchMonth, lastDay, 12, 0, 0, 0, loc)
		log.WithFields(log.Fields{
			"circle":   club.CircleID,
			"fallback": fmt.Sprintf("%d-%02d", fetchYear, fetchMonth),
		}).Info("First of month: fetching previous month as primary source")

		// Best effort; the previous month's last reading stands without it
		current, cErr := s.fetchMonth(ctx, club.CircleID, year, int(month))
		if cErr != nil {
			log.WithError(cErr).Warn("Month-boundary correction unavailable, using previous month's last reading")
		} else {
			endpointTotals = make(map[string]int64, len(current.Members))
			for _, m := range current.Members {
				if len(m.DailyFans) > 0 && m.DailyFans[0] > 0 {
					endpointTotals[m.ViewerID.String()] = m.DailyFans[0]
				}
			}
		}
	}

	primary, err := s.fetchMonth(ctx, club.CircleID, fetchYear, int(fetchMonth))
	if err != nil {
		return nil, err
	}

	entries := parseMembers(primary.Members, dayIndex, endpointTotals)
	log.WithFields(log.Fields{
		"circle":  club.CircleID,
		"members": len(entries),
		"date":    fetchedAt.Format("2006-01-02"),
	}).Info("Snapshot fetched from API")

	return models.NewSnapshot(fetchedAt, entries), nil
}

func (s *APISource) fetchMonth(ctx context.Context, circleID string, year int, month int) (*apiResponse, error) {
	q := url.Values{}
	q.Set("circle_id", circleID)
	q.Set("year", strconv.Itoa(year))
	q.Set("month", strconv.Itoa(month))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: %v", ErrFetchTimeout, err)
		}
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%w: circle %q", ErrCircleNotFound, circleID)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("%w: status %d for %d-%02d", ErrMalformedResponse, resp.StatusCode, year, month)
	}

	var parsed apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if parsed.Members == nil {
		return nil, fmt.Errorf("%w: missing members field", ErrMalformedResponse)
	}
	return &parsed, nil
}

// parseMembers converts lifetime-cumulative readings into this-month
// cumulative fan counts. dayIndex is 1-based.
func parseMembers(members []apiMember, dayIndex int, endpointTotals map[string]int64) []models.SnapshotEntry {
	var entries []models.SnapshotEntry

	for _, m := range members {
		trainerID := m.ViewerID.String()
		if trainerID == "" || m.TrainerName == "" {
			log.WithField("trainer", m.TrainerName).Warn("Skipping member with missing identity")
			continue
		}
		if dayIndex > len(m.DailyFans) {
			log.WithFields(log.Fields{"trainer": m.TrainerName, "day": dayIndex}).Warn("Day exceeds data length, skipping")
			continue
		}

		lifetime := m.DailyFans[dayIndex-1]
		if lifetime == 0 {
			// Zero on the current day means the member left the circle
			continue
		}

		// The first non-zero reading is the member's lifetime total at join;
		// everything above it was earned this month.
		var starting int64
		for _, fans := range m.DailyFans[:dayIndex] {
			if fans > 0 {
				starting = fans
				break
			}
		}
		monthly := lifetime - starting

		if endpoint, ok := endpointTotals[trainerID]; ok && endpoint >= starting {
			if corrected := endpoint - starting; corrected > monthly {
				monthly = corrected
			}
		}

		entries = append(entries, models.SnapshotEntry{
			TrainerID:   trainerID,
			TrainerName: m.TrainerName,
			FanCount:    monthly,
		})
	}
	return entries
}

func previousMonth(year int, month time.Month) (int, time.Month) {
	if month == time.January {
		return year - 1, time.December
	}
	return year, month - 1
}

func daysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
