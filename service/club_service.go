package service

import (
	"context"
	"fmt"
	"time"

	"clubquota/models"

	log "github.com/sirupsen/logrus"
)

// clubService implements the ClubService interface
type clubService struct {
	uowFactory UnitOfWorkFactory
}

// NewClubService creates a new club service
func NewClubService(uowFactory UnitOfWorkFactory) ClubService {
	return &clubService{uowFactory: uowFactory}
}

func (s *clubService) CreateClub(ctx context.Context, club *models.Club) error {
	// Configuration errors are fatal at setup time, before any run is scheduled
	if err := club.Validate(); err != nil {
		return fmt.Errorf("club configuration rejected: %w", err)
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	existing, err := uow.ClubRepository().GetByName(ctx, club.Name)
	if err != nil {
		return fmt.Errorf("failed to check existing club: %w", err)
	}
	if existing != nil {
		return fmt.Errorf("club %q already exists", club.Name)
	}

	if err := uow.ClubRepository().Create(ctx, club); err != nil {
		return fmt.Errorf("failed to create club: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}

	log.WithField("club", club.Name).Info("Club created")
	return nil
}

func (s *clubService) GetClubByName(ctx context.Context, name string) (*models.Club, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	return uow.ClubRepository().GetByName(ctx, name)
}

func (s *clubService) ListActiveClubs(ctx context.Context) ([]*models.Club, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	return uow.ClubRepository().GetAllActive(ctx)
}

func (s *clubService) UpdateClub(ctx context.Context, club *models.Club) error {
	if err := club.Validate(); err != nil {
		return fmt.Errorf("club configuration rejected: %w", err)
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	if err := uow.ClubRepository().Update(ctx, club); err != nil {
		return fmt.Errorf("failed to update club: %w", err)
	}

	return uow.Commit()
}

func (s *clubService) SetQuota(ctx context.Context, clubID int64, effectiveDate time.Time, amount int64, setBy string) error {
	if amount <= 0 {
		return fmt.Errorf("quota amount must be positive, got %d", amount)
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	club, err := uow.ClubRepository().GetByID(ctx, clubID)
	if err != nil {
		return fmt.Errorf("failed to load club: %w", err)
	}
	if club == nil {
		return fmt.Errorf("club %d not found", clubID)
	}

	if err := uow.QuotaRequirementRepository().Create(ctx, &models.QuotaRequirement{
		ClubID:        clubID,
		EffectiveDate: effectiveDate,
		DailyQuota:    amount,
		SetBy:         setBy,
	}); err != nil {
		return fmt.Errorf("failed to record quota change: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}

	log.WithFields(log.Fields{
		"club":      club.Name,
		"quota":     amount,
		"effective": effectiveDate.Format("2006-01-02"),
		"setBy":     setBy,
	}).Info("Quota change recorded")
	return nil
}
