package service

import (
	"context"
	"fmt"
	"time"

	"clubquota/models"

	log "github.com/sirupsen/logrus"
)

// memberAdminService implements the MemberAdminService interface
type memberAdminService struct {
	uowFactory UnitOfWorkFactory
}

// NewMemberAdminService creates a new member admin service
func NewMemberAdminService(uowFactory UnitOfWorkFactory) MemberAdminService {
	return &memberAdminService{uowFactory: uowFactory}
}

func (s *memberAdminService) AddMember(ctx context.Context, clubID int64, trainerID, trainerName string, joinDate time.Time) (*models.Member, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	existing, err := uow.MemberRepository().GetByTrainerID(ctx, clubID, trainerID)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing member: %w", err)
	}
	if existing != nil {
		return nil, fmt.Errorf("member with trainer id %q already exists", trainerID)
	}

	member := &models.Member{
		ClubID:      clubID,
		TrainerID:   trainerID,
		TrainerName: trainerName,
		JoinDate:    joinDate,
		IsActive:    true,
		LastSeen:    joinDate,
	}
	if err := uow.MemberRepository().Create(ctx, member); err != nil {
		return nil, fmt.Errorf("failed to create member: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit: %w", err)
	}

	log.WithFields(log.Fields{"trainer": trainerName, "clubID": clubID}).Info("Member added manually")
	return member, nil
}

func (s *memberAdminService) DeactivateMember(ctx context.Context, clubID int64, trainerName string) error {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	member, err := uow.MemberRepository().GetByName(ctx, clubID, trainerName)
	if err != nil {
		return fmt.Errorf("failed to load member: %w", err)
	}
	if member == nil {
		return fmt.Errorf("member %q not found", trainerName)
	}

	// Operator-initiated: the member stays out even if it reappears in a snapshot
	if err := uow.MemberRepository().Deactivate(ctx, member.ID, true); err != nil {
		return fmt.Errorf("failed to deactivate member: %w", err)
	}

	bomb, err := uow.BombRepository().GetActiveForMember(ctx, member.ID)
	if err != nil {
		return fmt.Errorf("failed to load active bomb: %w", err)
	}
	if bomb != nil {
		// Removing a member whose countdown ran out resolves the expiry;
		// any other active bomb is an operator defusal
		reason := models.BombReasonManual
		if bomb.State() == models.BombStateExpired {
			reason = models.BombReasonExpired
		}
		if err := DefuseBomb(bomb, time.Now(), reason); err != nil {
			return err
		}
		if err := uow.BombRepository().Update(ctx, bomb); err != nil {
			return fmt.Errorf("failed to defuse bomb: %w", err)
		}
	}

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}

	log.WithFields(log.Fields{"trainer": trainerName, "clubID": clubID}).Info("Member manually deactivated")
	return nil
}

func (s *memberAdminService) ReactivateMember(ctx context.Context, clubID int64, trainerName string) error {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	member, err := uow.MemberRepository().GetByName(ctx, clubID, trainerName)
	if err != nil {
		return fmt.Errorf("failed to load member: %w", err)
	}
	if member == nil {
		return fmt.Errorf("member %q not found", trainerName)
	}
	if member.IsActive {
		return fmt.Errorf("member %q is already active", trainerName)
	}

	if err := uow.MemberRepository().Reactivate(ctx, member.ID); err != nil {
		return fmt.Errorf("failed to reactivate member: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}

	log.WithFields(log.Fields{"trainer": trainerName, "clubID": clubID}).Info("Member manually reactivated")
	return nil
}
