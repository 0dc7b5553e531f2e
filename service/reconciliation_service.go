package service

import (
	"context"
	"fmt"
	"time"

	"clubquota/events"
	"clubquota/models"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// reconciliationService implements the ReconciliationService interface
type reconciliationService struct {
	uowFactory UnitOfWorkFactory
	lockRepo   RunLockRepository
	calculator *QuotaCalculator
	lockedBy   string
	staleAfter time.Duration
}

// NewReconciliationService creates a new reconciliation orchestrator
func NewReconciliationService(uowFactory UnitOfWorkFactory, lockRepo RunLockRepository, lockedBy string, staleAfter time.Duration) ReconciliationService {
	return &reconciliationService{
		uowFactory: uowFactory,
		lockRepo:   lockRepo,
		calculator: NewQuotaCalculator(),
		lockedBy:   lockedBy,
		staleAfter: staleAfter,
	}
}

// RunOnce executes one atomic reconciliation run for a club.
//
// The pipeline order is fixed: lock, snapshot validation, idempotence check,
// reset detection, roster reconciliation, per-member quota and bomb
// evaluation, single transactional commit. The run lock is released on every
// exit path; all entity mutations commit together or not at all.
func (s *reconciliationService) RunOnce(ctx context.Context, club *models.Club, snapshot *models.Snapshot) (result *models.RunResult, err error) {
	if err := club.Validate(); err != nil {
		return nil, fmt.Errorf("club %q configuration rejected: %w", club.Name, err)
	}

	runID := uuid.New()
	acquired, err := s.lockRepo.Acquire(ctx, club.ID, s.lockedBy, runID, s.staleAfter)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire run lock for club %d: %w", club.ID, err)
	}
	if !acquired {
		return nil, ErrConcurrentRunRejected
	}
	defer func() {
		// Release must survive context cancellation, panics and early returns.
		if rErr := s.lockRepo.Release(context.Background(), club.ID); rErr != nil {
			log.WithError(rErr).WithField("clubID", club.ID).Error("Failed to release run lock")
		}
	}()

	if snapshot.IsEmpty() {
		return nil, ErrEmptySnapshot
	}

	loc, err := Location(club.Timezone)
	if err != nil {
		return nil, err
	}
	processedDate := DateIn(snapshot.FetchedAt, loc)

	if club.LastProcessedDate != nil && !IsNewDay(*club.LastProcessedDate, processedDate, loc) {
		return nil, fmt.Errorf("%w: club %d, date %s", ErrAlreadyProcessed, club.ID, processedDate.Format("2006-01-02"))
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback() // No-op if already committed

	result = &models.RunResult{
		Club:          club,
		ProcessedDate: processedDate,
	}

	activeMembers, err := uow.MemberRepository().GetAllActive(ctx, club.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load active members: %w", err)
	}
	inactiveMembers, err := uow.MemberRepository().GetAllInactive(ctx, club.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load inactive members: %w", err)
	}

	// Step 3: reset detection, before any roster mutation
	result.ResetDetected = DetectReset(snapshot, activeMembers, club.ResetThreshold)
	if result.ResetDetected {
		if err := s.applyReset(ctx, uow, club, processedDate, activeMembers, result); err != nil {
			return nil, err
		}
	}

	// Step 4: roster reconciliation
	memberByTrainer, statusByTrainer, err := s.applyRosterChanges(ctx, uow, club, snapshot, processedDate, activeMembers, inactiveMembers, result)
	if err != nil {
		return nil, err
	}

	schedule, err := uow.QuotaRequirementRepository().GetSchedule(ctx, club.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load quota schedule: %w", err)
	}

	// Step 5: per-member quota and bomb evaluation in stable trainer-id order.
	// One bad record degrades to a flagged skip, never an aborted run.
	for _, trainerID := range snapshot.TrainerIDs() {
		member, ok := memberByTrainer[trainerID]
		if !ok {
			// Present in the snapshot but manually deactivated
			continue
		}
		if mErr := s.processMember(ctx, uow, club, member, snapshot.Entries[trainerID], schedule, processedDate, loc, statusByTrainer[trainerID], result); mErr != nil {
			log.WithError(mErr).WithFields(log.Fields{
				"club":    club.Name,
				"trainer": member.TrainerName,
			}).Error("Member processing failed, skipping")
			result.Errors = append(result.Errors, models.MemberError{
				TrainerID:   trainerID,
				TrainerName: member.TrainerName,
				Err:         mErr,
			})
		}
	}

	if err := uow.ClubRepository().SetLastProcessedDate(ctx, club.ID, processedDate); err != nil {
		return nil, fmt.Errorf("failed to record processed date: %w", err)
	}

	uow.EventBus().Publish(events.RunCompletedEvent{Result: result})

	// Step 6: everything commits together or not at all
	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit run: %w", err)
	}

	club.LastProcessedDate = &processedDate

	log.WithFields(log.Fields{
		"club":          club.Name,
		"date":          processedDate.Format("2006-01-02"),
		"members":       len(result.Outcomes),
		"new":           result.NewMembers,
		"departed":      result.Departed,
		"bombsArmed":    len(result.ActivatedBombs),
		"bombsDefused":  len(result.DeactivatedBombs),
		"kicksRequired": len(result.MembersToKick),
		"reset":         result.ResetDetected,
		"errors":        len(result.Errors),
	}).Info("Reconciliation run committed")

	return result, nil
}

// applyReset clears the club's tracking period: quota history, quota
// schedule and all bombs go; join dates and active flags stay.
func (s *reconciliationService) applyReset(ctx context.Context, uow UnitOfWork, club *models.Club,
	processedDate time.Time, activeMembers []*models.Member, result *models.RunResult) error {

	log.WithField("club", club.Name).Warn("Applying monthly reset: clearing history, schedule and bombs")

	if err := uow.QuotaHistoryRepository().ClearForClub(ctx, club.ID); err != nil {
		return fmt.Errorf("failed to clear quota history on reset: %w", err)
	}
	if err := uow.QuotaRequirementRepository().ClearForClub(ctx, club.ID); err != nil {
		return fmt.Errorf("failed to clear quota schedule on reset: %w", err)
	}
	cleared, err := uow.BombRepository().DeactivateAllForClub(ctx, club.ID, processedDate, models.BombReasonReset)
	if err != nil {
		return fmt.Errorf("failed to clear bombs on reset: %w", err)
	}
	result.DeactivatedBombs = append(result.DeactivatedBombs, cleared...)

	// The streak belongs to the closed tracking period
	for _, member := range activeMembers {
		member.DaysBehind = 0
	}

	uow.EventBus().Publish(events.ResetDetectedEvent{Club: club})
	return nil
}

// applyRosterChanges persists the reconciler's decisions and returns the
// processable members keyed by trainer id, plus the roster-derived status
// (new/reactivated) for members whose outcome should not just reflect the
// day's deficit.
func (s *reconciliationService) applyRosterChanges(ctx context.Context, uow UnitOfWork, club *models.Club,
	snapshot *models.Snapshot, processedDate time.Time, activeMembers, inactiveMembers []*models.Member,
	result *models.RunResult) (map[string]*models.Member, map[string]models.MemberStatus, error) {

	changes := ReconcileRoster(snapshot, activeMembers, inactiveMembers)

	memberByTrainer := make(map[string]*models.Member, len(activeMembers)+len(changes.Newcomers)+len(changes.Returners))
	statusByTrainer := make(map[string]models.MemberStatus)
	for _, m := range activeMembers {
		memberByTrainer[m.TrainerID] = m
	}

	for _, entry := range changes.Newcomers {
		member := &models.Member{
			ClubID:      club.ID,
			TrainerID:   entry.TrainerID,
			TrainerName: entry.TrainerName,
			JoinDate:    processedDate,
			IsActive:    true,
			LastSeen:    processedDate,
		}
		if err := uow.MemberRepository().Create(ctx, member); err != nil {
			return nil, nil, fmt.Errorf("failed to create member %q: %w", entry.TrainerName, err)
		}
		memberByTrainer[member.TrainerID] = member
		statusByTrainer[member.TrainerID] = models.MemberStatusNew
		result.NewMembers++
		log.WithFields(log.Fields{"club": club.Name, "trainer": member.TrainerName}).Info("New member joined")
	}

	for _, member := range changes.Returners {
		if err := uow.MemberRepository().Reactivate(ctx, member.ID); err != nil {
			return nil, nil, fmt.Errorf("failed to reactivate member %q: %w", member.TrainerName, err)
		}
		member.IsActive = true
		member.ManuallyDeactivated = false
		// Fresh tracking window: the old streak and bomb history do not follow
		member.DaysBehind = 0
		memberByTrainer[member.TrainerID] = member
		statusByTrainer[member.TrainerID] = models.MemberStatusReactivated
		result.Reactivated++
		log.WithFields(log.Fields{"club": club.Name, "trainer": member.TrainerName}).Info("Member returned, reactivated")
	}

	for _, member := range changes.Departures {
		if err := uow.MemberRepository().Deactivate(ctx, member.ID, false); err != nil {
			return nil, nil, fmt.Errorf("failed to deactivate member %q: %w", member.TrainerName, err)
		}
		delete(memberByTrainer, member.TrainerID)
		result.Departed++
		result.Outcomes = append(result.Outcomes, models.MemberOutcome{
			Member: member,
			Status: models.MemberStatusDeactivated,
		})
		log.WithFields(log.Fields{"club": club.Name, "trainer": member.TrainerName}).Info("Member departed, deactivated")
	}

	return memberByTrainer, statusByTrainer, nil
}

// processMember runs the quota calculator and bomb state machine for one
// member and records the outcome. All state transitions are computed before
// the first write: a member whose persistence fails mid-way must not leave a
// half-written bomb in the shared transaction, nor show up in the run result
// or its announcements.
func (s *reconciliationService) processMember(ctx context.Context, uow UnitOfWork, club *models.Club,
	member *models.Member, entry models.SnapshotEntry, schedule []*models.QuotaRequirement,
	processedDate time.Time, loc *time.Location, rosterStatus models.MemberStatus, result *models.RunResult) error {

	var expected int64
	if result.ResetDetected {
		expected = s.calculator.ExpectedFansSince(processedDate, club, schedule, processedDate, loc)
	} else {
		expected = s.calculator.ExpectedFans(member, club, schedule, processedDate, loc)
	}
	deficit := s.calculator.DeficitSurplus(entry.FanCount, expected)
	daysBehind := s.calculator.NextDaysBehind(member.DaysBehind, deficit)

	bomb, err := uow.BombRepository().GetActiveForMember(ctx, member.ID)
	if err != nil {
		return fmt.Errorf("failed to load active bomb: %w", err)
	}

	decision := EvaluateBomb(club, daysBehind, deficit, bomb)
	switch {
	case decision.Activate:
		bomb = ArmBomb(club, member, processedDate)
	case decision.Deactivate:
		if err := DefuseBomb(bomb, processedDate, decision.DeactivationReason); err != nil {
			return err
		}
	case decision.Decrement:
		if err := TickBomb(bomb); err != nil {
			return err
		}
	}

	member.DaysBehind = daysBehind
	member.TrainerName = entry.TrainerName
	member.LastSeen = processedDate
	member.LastFanCount = entry.FanCount
	if err := uow.MemberRepository().Update(ctx, member); err != nil {
		return fmt.Errorf("failed to update member: %w", err)
	}

	if err := uow.QuotaHistoryRepository().Upsert(ctx, &models.QuotaHistory{
		MemberID:       member.ID,
		ClubID:         club.ID,
		Date:           processedDate,
		CumulativeFans: entry.FanCount,
		ExpectedFans:   expected,
		DeficitSurplus: deficit,
		DaysBehind:     member.DaysBehind,
	}); err != nil {
		return fmt.Errorf("failed to record quota history: %w", err)
	}

	switch {
	case decision.Activate:
		if err := uow.BombRepository().Create(ctx, bomb); err != nil {
			return fmt.Errorf("failed to arm bomb: %w", err)
		}
	case decision.Deactivate, decision.Decrement:
		if err := uow.BombRepository().Update(ctx, bomb); err != nil {
			return fmt.Errorf("failed to persist bomb: %w", err)
		}
	}

	// Every write succeeded; now the member may appear in the result and
	// the run's announcements
	switch {
	case decision.Activate:
		result.ActivatedBombs = append(result.ActivatedBombs, bomb)
		uow.EventBus().Publish(events.BombActivatedEvent{Club: club, Member: member, Bomb: bomb})
	case decision.Deactivate:
		result.DeactivatedBombs = append(result.DeactivatedBombs, bomb)
		uow.EventBus().Publish(events.BombDeactivatedEvent{Club: club, Member: member, Bomb: bomb, Reason: decision.DeactivationReason})
	case decision.Decrement:
		if decision.Expires {
			result.ExpiredBombs = append(result.ExpiredBombs, bomb)
			result.MembersToKick = append(result.MembersToKick, member)
			uow.EventBus().Publish(events.KickRequiredEvent{Club: club, Member: member, Bomb: bomb})
		}
	}

	status := rosterStatus
	if status == "" {
		switch {
		case result.ResetDetected:
			status = models.MemberStatusReset
		case deficit < 0:
			status = models.MemberStatusBehind
		default:
			status = models.MemberStatusOnTrack
		}
	}

	result.Outcomes = append(result.Outcomes, models.MemberOutcome{
		Member:         member,
		Status:         status,
		CumulativeFans: entry.FanCount,
		ExpectedFans:   expected,
		DeficitSurplus: deficit,
		DaysBehind:     member.DaysBehind,
		BombState:      bomb.State(),
	})
	return nil
}
