package repository

import (
	"context"
	"fmt"

	"clubquota/database"
	"clubquota/events"
	"clubquota/service"

	"github.com/jackc/pgx/v5"
)

// unitOfWork implements the service.UnitOfWork interface
type unitOfWork struct {
	db               *database.DB
	tx               pgx.Tx
	ctx              context.Context
	transactionalBus *events.TransactionalBus
	clubRepo         service.ClubRepository
	memberRepo       service.MemberRepository
	historyRepo      service.QuotaHistoryRepository
	requirementRepo  service.QuotaRequirementRepository
	bombRepo         service.BombRepository
}

type unitOfWorkFactory struct {
	db       *database.DB
	eventBus *events.Bus
}

// NewUnitOfWorkFactory creates a new UnitOfWork factory
func NewUnitOfWorkFactory(db *database.DB, eventBus *events.Bus) service.UnitOfWorkFactory {
	return &unitOfWorkFactory{
		db:       db,
		eventBus: eventBus,
	}
}

func (f *unitOfWorkFactory) Create() service.UnitOfWork {
	return &unitOfWork{
		db:               f.db,
		transactionalBus: events.NewTransactionalBus(f.eventBus),
	}
}

// Begin starts a new transaction
func (u *unitOfWork) Begin(ctx context.Context) error {
	if u.tx != nil {
		return fmt.Errorf("transaction already started")
	}

	tx, err := u.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	u.tx = tx
	u.ctx = ctx

	// Create repositories bound to the transaction
	u.clubRepo = newClubRepositoryWithTx(tx)
	u.memberRepo = newMemberRepositoryWithTx(tx)
	u.historyRepo = newQuotaHistoryRepositoryWithTx(tx)
	u.requirementRepo = newQuotaRequirementRepositoryWithTx(tx)
	u.bombRepo = newBombRepositoryWithTx(tx)

	return nil
}

// Commit commits the transaction and flushes pending events
func (u *unitOfWork) Commit() error {
	if u.tx == nil {
		return fmt.Errorf("no transaction to commit")
	}

	if err := u.tx.Commit(u.ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	u.tx = nil

	if u.transactionalBus != nil {
		u.transactionalBus.Flush(u.ctx)
	}

	return nil
}

// Rollback rolls back the transaction and discards pending events
func (u *unitOfWork) Rollback() error {
	if u.tx == nil {
		return nil // Nothing to rollback
	}

	err := u.tx.Rollback(u.ctx)
	if err != nil && err != pgx.ErrTxClosed {
		return fmt.Errorf("failed to rollback transaction: %w", err)
	}

	u.tx = nil

	if u.transactionalBus != nil {
		u.transactionalBus.Discard()
	}

	return nil
}

// ClubRepository returns the club repository for this unit of work
func (u *unitOfWork) ClubRepository() service.ClubRepository {
	if u.clubRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.clubRepo
}

// MemberRepository returns the member repository for this unit of work
func (u *unitOfWork) MemberRepository() service.MemberRepository {
	if u.memberRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.memberRepo
}

// QuotaHistoryRepository returns the quota history repository for this unit of work
func (u *unitOfWork) QuotaHistoryRepository() service.QuotaHistoryRepository {
	if u.historyRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.historyRepo
}

// QuotaRequirementRepository returns the quota requirement repository for this unit of work
func (u *unitOfWork) QuotaRequirementRepository() service.QuotaRequirementRepository {
	if u.requirementRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.requirementRepo
}

// BombRepository returns the bomb repository for this unit of work
func (u *unitOfWork) BombRepository() service.BombRepository {
	if u.bombRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.bombRepo
}

// EventBus returns the transactional event bus for this unit of work
func (u *unitOfWork) EventBus() service.EventPublisher {
	if u.transactionalBus == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.transactionalBus
}
