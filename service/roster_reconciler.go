package service

import (
	"clubquota/models"
)

// RosterChanges is the decision set produced by diffing a snapshot against
// the stored roster. The three slices are disjoint.
type RosterChanges struct {
	// Newcomers are snapshot entries with no stored member at all
	Newcomers []models.SnapshotEntry

	// Returners are stored inactive members present in the snapshot that were
	// not manually deactivated
	Returners []*models.Member

	// Departures are stored active members absent from the snapshot
	Departures []*models.Member
}

// ReconcileRoster diffs the snapshot's member set against the stored active
// and inactive members of a club.
//
// A member an operator deactivated by hand is deliberately excluded from
// automatic reactivation even when it reappears; only the manual reactivate
// command brings it back.
func ReconcileRoster(snapshot *models.Snapshot, active, inactive []*models.Member) RosterChanges {
	activeByTrainer := make(map[string]*models.Member, len(active))
	for _, m := range active {
		activeByTrainer[m.TrainerID] = m
	}
	inactiveByTrainer := make(map[string]*models.Member, len(inactive))
	for _, m := range inactive {
		inactiveByTrainer[m.TrainerID] = m
	}

	var changes RosterChanges

	for _, trainerID := range snapshot.TrainerIDs() {
		if _, ok := activeByTrainer[trainerID]; ok {
			continue
		}
		if stored, ok := inactiveByTrainer[trainerID]; ok {
			if !stored.ManuallyDeactivated {
				changes.Returners = append(changes.Returners, stored)
			}
			continue
		}
		changes.Newcomers = append(changes.Newcomers, snapshot.Entries[trainerID])
	}

	for _, m := range active {
		if _, ok := snapshot.Entries[m.TrainerID]; !ok {
			changes.Departures = append(changes.Departures, m)
		}
	}

	return changes
}
