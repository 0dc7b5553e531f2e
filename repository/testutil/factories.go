package testutil

import (
	"time"

	"clubquota/models"
)

// CreateTestClub creates a test club with default values
func CreateTestClub(name string) *models.Club {
	return &models.Club{
		Name:              name,
		CircleID:          "circle-" + name,
		DailyQuota:        1_000_000,
		Timezone:          "Europe/Amsterdam",
		ScrapeHour:        16,
		BombTriggerDays:   3,
		BombCountdownDays: 7,
		ResetThreshold:    0.5,
		IsActive:          true,
	}
}

// CreateTestMember creates a test member with default values
func CreateTestMember(clubID int64, trainerID, trainerName string, joinDate time.Time) *models.Member {
	return &models.Member{
		ClubID:      clubID,
		TrainerID:   trainerID,
		TrainerName: trainerName,
		JoinDate:    joinDate,
		IsActive:    true,
		LastSeen:    joinDate,
	}
}

// CreateTestHistory creates a quota history entry with specific standing
func CreateTestHistory(memberID, clubID int64, date time.Time, cumulative, expected int64) *models.QuotaHistory {
	return &models.QuotaHistory{
		MemberID:       memberID,
		ClubID:         clubID,
		Date:           date,
		CumulativeFans: cumulative,
		ExpectedFans:   expected,
		DeficitSurplus: cumulative - expected,
	}
}

// CreateTestBomb creates an active bomb for a member
func CreateTestBomb(memberID, clubID int64, activationDate time.Time, daysRemaining int) *models.Bomb {
	return &models.Bomb{
		MemberID:       memberID,
		ClubID:         clubID,
		ActivationDate: activationDate,
		DaysRemaining:  daysRemaining,
		IsActive:       true,
	}
}
