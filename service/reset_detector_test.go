package service

import (
	"testing"
	"time"

	"clubquota/models"

	"github.com/stretchr/testify/assert"
)

func snapshotOf(entries ...models.SnapshotEntry) *models.Snapshot {
	return models.NewSnapshot(time.Now(), entries)
}

func TestDetectReset(t *testing.T) {
	members := []*models.Member{
		{TrainerID: "1", LastFanCount: 5_000_000},
		{TrainerID: "2", LastFanCount: 8_000_000},
		{TrainerID: "3", LastFanCount: 3_000_000},
		{TrainerID: "4", LastFanCount: 6_000_000},
	}

	t.Run("all counters dropped signals reset", func(t *testing.T) {
		snap := snapshotOf(
			models.SnapshotEntry{TrainerID: "1", FanCount: 900_000},
			models.SnapshotEntry{TrainerID: "2", FanCount: 1_100_000},
			models.SnapshotEntry{TrainerID: "3", FanCount: 200_000},
			models.SnapshotEntry{TrainerID: "4", FanCount: 800_000},
		)
		assert.True(t, DetectReset(snap, members, 0.5))
	})

	t.Run("single drop below threshold is a data error, not a reset", func(t *testing.T) {
		snap := snapshotOf(
			models.SnapshotEntry{TrainerID: "1", FanCount: 100_000},
			models.SnapshotEntry{TrainerID: "2", FanCount: 9_000_000},
			models.SnapshotEntry{TrainerID: "3", FanCount: 4_000_000},
			models.SnapshotEntry{TrainerID: "4", FanCount: 7_000_000},
		)
		assert.False(t, DetectReset(snap, members, 0.5))
	})

	t.Run("exactly at threshold triggers", func(t *testing.T) {
		snap := snapshotOf(
			models.SnapshotEntry{TrainerID: "1", FanCount: 100_000},
			models.SnapshotEntry{TrainerID: "2", FanCount: 200_000},
			models.SnapshotEntry{TrainerID: "3", FanCount: 4_000_000},
			models.SnapshotEntry{TrainerID: "4", FanCount: 7_000_000},
		)
		assert.True(t, DetectReset(snap, members, 0.5))
	})

	t.Run("equal counters do not vote as dropped", func(t *testing.T) {
		snap := snapshotOf(
			models.SnapshotEntry{TrainerID: "1", FanCount: 5_000_000},
			models.SnapshotEntry{TrainerID: "2", FanCount: 8_000_000},
			models.SnapshotEntry{TrainerID: "3", FanCount: 3_000_000},
			models.SnapshotEntry{TrainerID: "4", FanCount: 6_000_000},
		)
		assert.False(t, DetectReset(snap, members, 0.5))
	})

	t.Run("members without previous reading never vote", func(t *testing.T) {
		fresh := []*models.Member{
			{TrainerID: "1", LastFanCount: 0},
			{TrainerID: "2", LastFanCount: 0},
		}
		snap := snapshotOf(
			models.SnapshotEntry{TrainerID: "1", FanCount: 500_000},
			models.SnapshotEntry{TrainerID: "2", FanCount: 700_000},
		)
		assert.False(t, DetectReset(snap, fresh, 0.5))
	})

	t.Run("members absent from snapshot never vote", func(t *testing.T) {
		snap := snapshotOf(
			models.SnapshotEntry{TrainerID: "1", FanCount: 100_000},
		)
		// 1 of 1 eligible dropped
		assert.True(t, DetectReset(snap, members, 0.5))
	})

	t.Run("empty roster", func(t *testing.T) {
		snap := snapshotOf(models.SnapshotEntry{TrainerID: "9", FanCount: 1})
		assert.False(t, DetectReset(snap, nil, 0.5))
	})
}
