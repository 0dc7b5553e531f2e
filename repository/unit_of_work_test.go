package repository

import (
	"context"
	"testing"
	"time"

	"clubquota/events"
	"clubquota/repository/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnitOfWork_CommitAndRollback(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)
	ctx := context.Background()

	clubRepo := NewClubRepository(testDB.DB)
	club := testutil.CreateTestClub("uow")
	require.NoError(t, clubRepo.Create(ctx, club))

	bus := events.NewBus()
	factory := NewUnitOfWorkFactory(testDB.DB, bus)
	joinDate := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

	t.Run("committed work is visible", func(t *testing.T) {
		uow := factory.Create()
		require.NoError(t, uow.Begin(ctx))

		member := testutil.CreateTestMember(club.ID, "1", "committed", joinDate)
		require.NoError(t, uow.MemberRepository().Create(ctx, member))
		require.NoError(t, uow.Commit())

		got, err := NewMemberRepository(testDB.DB).GetByTrainerID(ctx, club.ID, "1")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, "committed", got.TrainerName)
	})

	t.Run("rolled back work is discarded", func(t *testing.T) {
		uow := factory.Create()
		require.NoError(t, uow.Begin(ctx))

		member := testutil.CreateTestMember(club.ID, "2", "discarded", joinDate)
		require.NoError(t, uow.MemberRepository().Create(ctx, member))
		require.NoError(t, uow.Rollback())

		got, err := NewMemberRepository(testDB.DB).GetByTrainerID(ctx, club.ID, "2")
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("rollback after commit is a no-op", func(t *testing.T) {
		uow := factory.Create()
		require.NoError(t, uow.Begin(ctx))
		require.NoError(t, uow.Commit())
		require.NoError(t, uow.Rollback())
	})

	t.Run("repository access before begin panics", func(t *testing.T) {
		uow := factory.Create()
		assert.Panics(t, func() { uow.MemberRepository() })
	})
}

func TestUnitOfWork_EventsFollowTransaction(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)
	ctx := context.Background()

	bus := events.NewBus()
	received := make(chan events.Event, 4)
	bus.Subscribe(events.EventTypeRunCompleted, func(ctx context.Context, e events.Event) {
		received <- e
	})

	factory := NewUnitOfWorkFactory(testDB.DB, bus)

	t.Run("events flush on commit", func(t *testing.T) {
		uow := factory.Create()
		require.NoError(t, uow.Begin(ctx))
		uow.EventBus().Publish(events.RunCompletedEvent{})
		require.NoError(t, uow.Commit())

		select {
		case <-received:
		case <-time.After(2 * time.Second):
			t.Fatal("expected event after commit")
		}
	})

	t.Run("events discard on rollback", func(t *testing.T) {
		uow := factory.Create()
		require.NoError(t, uow.Begin(ctx))
		uow.EventBus().Publish(events.RunCompletedEvent{})
		require.NoError(t, uow.Rollback())

		select {
		case <-received:
			t.Fatal("event should have been discarded on rollback")
		case <-time.After(200 * time.Millisecond):
		}
	})
}
