package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"clubquota/config"
	"clubquota/models"
	"clubquota/service"

	log "github.com/sirupsen/logrus"
)

const retryDelay = 10 * time.Second

// scheduler drives the daily quota check for every active club. Each club is
// checked once per calendar day in its own timezone, at its configured hour
// and minute.
type scheduler struct {
	bot    *Bot
	stopCh chan struct{}
	wg     sync.WaitGroup

	mu         sync.Mutex
	dispatched map[string]bool // "clubID_date" runs already started today
}

func newScheduler(bot *Bot) *scheduler {
	return &scheduler{
		bot:        bot,
		stopCh:     make(chan struct{}),
		dispatched: make(map[string]bool),
	}
}

func (s *scheduler) start() {
	s.wg.Add(1)
	go s.loop()
	log.Info("Daily check scheduler started")
}

func (s *scheduler) stop() {
	close(s.stopCh)
	s.wg.Wait()
}

func (s *scheduler) loop() {
	defer s.wg.Done()

	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopCh:
			return
		case now := <-ticker.C:
			s.tick(now)
		}
	}
}

// tick checks every active club against its local clock and dispatches due runs
func (s *scheduler) tick(now time.Time) {
	ctx := context.Background()

	clubs, err := s.bot.clubService.ListActiveClubs(ctx)
	if err != nil {
		log.WithError(err).Error("Scheduler failed to list clubs")
		return
	}

	for _, club := range clubs {
		loc, err := service.Location(club.Timezone)
		if err != nil {
			log.WithError(err).WithField("club", club.Name).Error("Club has invalid timezone, skipping")
			continue
		}

		local := now.In(loc)
		if local.Hour() != club.ScrapeHour || local.Minute() < club.ScrapeMinute {
			continue
		}

		key := runKey(club.ID, local)
		if !s.claim(key) {
			continue
		}

		s.wg.Add(1)
		go func(club *models.Club) {
			defer s.wg.Done()
			s.runWithRetries(club)
		}(club)
	}
}

// claim marks a run key as dispatched; returns false if it already was.
// Only keys from strictly older dates are pruned: clubs in different
// timezones sit on different local dates at the same instant, and a club
// still on yesterday must not evict another club's guard for today.
func (s *scheduler) claim(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.dispatched[key] {
		return false
	}

	datePart := key[strings.IndexByte(key, '_')+1:]
	for k := range s.dispatched {
		if k[strings.IndexByte(k, '_')+1:] < datePart {
			delete(s.dispatched, k)
		}
	}

	s.dispatched[key] = true
	return true
}

func runKey(clubID int64, local time.Time) string {
	return fmt.Sprintf("%d_%s", clubID, local.Format("2006-01-02"))
}

// runWithRetries runs the daily check, retrying transient failures. Rejections
// from the idempotence and lock guards are terminal, not failures.
func (s *scheduler) runWithRetries(club *models.Club) {
	attempts := config.Get().FetchRetryAttempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		result, err := s.bot.runOnce(context.Background(), club)
		if err == nil {
			log.WithFields(log.Fields{
				"club":    club.Name,
				"date":    result.ProcessedDate.Format("2006-01-02"),
				"onTrack": len(result.OnTrack()),
				"behind":  len(result.Behind()),
			}).Info("Scheduled daily check complete")
			return
		}

		if errors.Is(err, service.ErrAlreadyProcessed) || errors.Is(err, service.ErrConcurrentRunRejected) {
			log.WithError(err).WithField("club", club.Name).Info("Scheduled daily check skipped")
			return
		}

		lastErr = err
		log.WithError(err).WithFields(log.Fields{
			"club":    club.Name,
			"attempt": attempt,
		}).Warn("Daily check attempt failed")

		if attempt < attempts {
			select {
			case <-s.stopCh:
				return
			case <-time.After(retryDelay):
			}
		}
	}

	log.WithError(lastErr).WithField("club", club.Name).Error("Daily check failed after all retries")
	s.bot.postCheckFailure(club, lastErr)
}

// runOnce fetches a fresh snapshot for a club and reconciles it. Shared by
// the scheduler and the /check command.
func (b *Bot) runOnce(ctx context.Context, club *models.Club) (*models.RunResult, error) {
	fetchCtx, cancel := context.WithTimeout(ctx, b.config.FetchTimeout)
	defer cancel()

	snapshot, err := b.source.FetchSnapshot(fetchCtx, club)
	if err != nil {
		return nil, fmt.Errorf("snapshot fetch failed: %w", err)
	}

	return b.reconciliation.RunOnce(ctx, club, snapshot)
}
