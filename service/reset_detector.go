package service

import (
	"clubquota/models"

	log "github.com/sirupsen/logrus"
)

// DetectReset decides whether a snapshot represents the monthly game-world
// counter reset rather than a normal incremental day.
//
// A single member showing a lower counter than last known could be a data
// error, so detection aggregates across the roster: a reset is signaled only
// when at least threshold (fraction) of the active members with a previous
// reading show a strictly lower counter. Members without a previous reading
// (fresh roster, first run) never vote.
func DetectReset(snapshot *models.Snapshot, activeMembers []*models.Member, threshold float64) bool {
	var eligible, dropped int
	for _, member := range activeMembers {
		entry, ok := snapshot.Entries[member.TrainerID]
		if !ok || member.LastFanCount <= 0 {
			continue
		}
		eligible++
		if entry.FanCount < member.LastFanCount {
			dropped++
		}
	}

	if eligible == 0 {
		return false
	}

	fraction := float64(dropped) / float64(eligible)
	if fraction >= threshold {
		log.WithFields(log.Fields{
			"dropped":  dropped,
			"eligible": eligible,
			"fraction": fraction,
		}).Warn("Counter reset detected across roster")
		return true
	}
	return false
}
