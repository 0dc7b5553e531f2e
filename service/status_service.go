package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"clubquota/models"
)

// memberTrendDays is how many recent daily entries a member status includes
const memberTrendDays = 7

// statusService implements the StatusService interface
type statusService struct {
	uowFactory UnitOfWorkFactory
}

// NewStatusService creates a new status service
func NewStatusService(uowFactory UnitOfWorkFactory) StatusService {
	return &statusService{uowFactory: uowFactory}
}

func (s *statusService) GetMemberStatus(ctx context.Context, clubID int64, trainerName string) (*MemberStatusDetail, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	member, err := uow.MemberRepository().GetByName(ctx, clubID, trainerName)
	if err != nil {
		return nil, fmt.Errorf("failed to load member: %w", err)
	}
	if member == nil {
		return nil, nil
	}

	history, err := uow.QuotaHistoryRepository().GetLatestForMember(ctx, member.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}
	recent, err := uow.QuotaHistoryRepository().GetLastNDays(ctx, member.ID, memberTrendDays)
	if err != nil {
		return nil, fmt.Errorf("failed to load history trend: %w", err)
	}
	bomb, err := uow.BombRepository().GetActiveForMember(ctx, member.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load bomb: %w", err)
	}

	return &MemberStatusDetail{Member: member, History: history, Recent: recent, Bomb: bomb}, nil
}

func (s *statusService) GetClubSummary(ctx context.Context, clubID int64) (*ClubSummary, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	club, err := uow.ClubRepository().GetByID(ctx, clubID)
	if err != nil {
		return nil, fmt.Errorf("failed to load club: %w", err)
	}
	if club == nil {
		return nil, fmt.Errorf("club %d not found", clubID)
	}

	members, err := uow.MemberRepository().GetAllActive(ctx, clubID)
	if err != nil {
		return nil, fmt.Errorf("failed to load members: %w", err)
	}

	summary := &ClubSummary{Club: club}
	for _, member := range members {
		history, err := uow.QuotaHistoryRepository().GetLatestForMember(ctx, member.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to load history for %q: %w", member.TrainerName, err)
		}
		if history == nil {
			// Not yet processed by any run
			continue
		}
		bomb, err := uow.BombRepository().GetActiveForMember(ctx, member.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to load bomb for %q: %w", member.TrainerName, err)
		}

		detail := &MemberStatusDetail{Member: member, History: history, Bomb: bomb}
		if history.DeficitSurplus >= 0 {
			summary.OnTrack = append(summary.OnTrack, detail)
		} else {
			summary.Behind = append(summary.Behind, detail)
		}
		if bomb != nil {
			summary.Bombs = append(summary.Bombs, detail)
		}
	}

	// Best surplus first, deepest deficit first, shortest fuse first
	sort.Slice(summary.OnTrack, func(i, j int) bool {
		return summary.OnTrack[i].History.DeficitSurplus > summary.OnTrack[j].History.DeficitSurplus
	})
	sort.Slice(summary.Behind, func(i, j int) bool {
		return summary.Behind[i].History.DeficitSurplus < summary.Behind[j].History.DeficitSurplus
	})
	sort.Slice(summary.Bombs, func(i, j int) bool {
		return summary.Bombs[i].Bomb.DaysRemaining < summary.Bombs[j].Bomb.DaysRemaining
	})

	return summary, nil
}

func (s *statusService) GetClubHistory(ctx context.Context, clubID int64, date time.Time) ([]*models.QuotaHistory, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	entries, err := uow.QuotaHistoryRepository().GetForDate(ctx, clubID, date)
	if err != nil {
		return nil, fmt.Errorf("failed to load history for date: %w", err)
	}
	return entries, nil
}
