package scraper

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"clubquota/models"
	"clubquota/service"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	log "github.com/sirupsen/logrus"
)

// BrowserSource reads fan counts by driving a headless browser against the
// club's profile page. It is the fallback for clubs whose data is only
// published as a rendered member table, and is an order of magnitude slower
// than the API source.
type BrowserSource struct {
	timeout time.Duration
}

var _ service.SnapshotSource = (*BrowserSource)(nil)

// NewBrowserSource creates a headless-browser snapshot source
func NewBrowserSource(timeout time.Duration) *BrowserSource {
	return &BrowserSource{timeout: timeout}
}

// FetchSnapshot renders the club page and parses the member table. Each row
// carries the trainer id, trainer name and this-month cumulative fan count.
func (s *BrowserSource) FetchSnapshot(ctx context.Context, club *models.Club) (*models.Snapshot, error) {
	if club.ScrapeURL == "" {
		return nil, fmt.Errorf("club %q has no scrape URL configured", club.Name)
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	l := launcher.New().Headless(true)
	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}
	defer l.Cleanup()

	browser := rod.New().ControlURL(controlURL).Context(ctx)
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("failed to connect to browser: %w", err)
	}
	defer browser.Close()

	page, err := browser.Page(proto.TargetCreateTarget{URL: pageURL(club.ScrapeURL)})
	if err != nil {
		return nil, fmt.Errorf("failed to open page: %w", err)
	}
	defer page.Close()

	if err := page.WaitLoad(); err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%w: page load", ErrFetchTimeout)
		}
		return nil, fmt.Errorf("failed to load page: %w", err)
	}

	table, err := page.Element("table.club-member-table")
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%w: waiting for member table", ErrFetchTimeout)
		}
		return nil, fmt.Errorf("%w: member table not found", ErrMalformedResponse)
	}

	rows, err := table.Elements("tbody tr")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	fetchedAt := time.Now()
	var entries []models.SnapshotEntry
	for _, row := range rows {
		cells, err := row.Elements("td")
		if err != nil || len(cells) < 3 {
			continue
		}

		trainerID, err := cells[0].Text()
		if err != nil {
			continue
		}
		trainerName, err := cells[1].Text()
		if err != nil {
			continue
		}
		fanText, err := cells[2].Text()
		if err != nil {
			continue
		}

		fans, err := parseFanCount(fanText)
		if err != nil {
			log.WithFields(log.Fields{"trainer": trainerName, "value": fanText}).Warn("Unparseable fan count, skipping row")
			continue
		}

		entries = append(entries, models.SnapshotEntry{
			TrainerID:   strings.TrimSpace(trainerID),
			TrainerName: strings.TrimSpace(trainerName),
			FanCount:    fans,
		})
	}

	log.WithFields(log.Fields{
		"club":    club.Name,
		"members": len(entries),
	}).Info("Snapshot scraped from club page")

	return models.NewSnapshot(fetchedAt, entries), nil
}

// parseFanCount strips display formatting ("12,345,678") down to an integer
func parseFanCount(text string) (int64, error) {
	clean := strings.Map(func(r rune) rune {
		if r == ',' || r == ' ' || r == '\u00a0' {
			return -1
		}
		return r
	}, strings.TrimSpace(text))
	return strconv.ParseInt(clean, 10, 64)
}

// pageURL defaults bare hosts to https
func pageURL(u string) string {
	if strings.HasPrefix(u, "http://") || strings.HasPrefix(u, "https://") {
		return u
	}
	return "https://" + u
}
