package models

import (
	"sort"
	"time"
)

// MemberStatus categorizes a member's outcome within a reconciliation run
type MemberStatus string

const (
	MemberStatusOnTrack     MemberStatus = "on_track"
	MemberStatusBehind      MemberStatus = "behind"
	MemberStatusReset       MemberStatus = "reset"
	MemberStatusNew         MemberStatus = "new"
	MemberStatusDeactivated MemberStatus = "deactivated"
	MemberStatusReactivated MemberStatus = "reactivated"
)

// MemberOutcome is one member's result within a run
type MemberOutcome struct {
	Member         *Member
	Status         MemberStatus
	CumulativeFans int64
	ExpectedFans   int64
	DeficitSurplus int64
	DaysBehind     int
	BombState      BombState
}

// MemberError records a member-level failure that did not abort the run
type MemberError struct {
	TrainerID   string
	TrainerName string
	Err         error
}

// RunResult is the engine's output for one reconciliation run. It is handed
// to the reporting layer and never persisted.
type RunResult struct {
	Club             *Club
	ProcessedDate    time.Time
	ResetDetected    bool
	Outcomes         []MemberOutcome
	ActivatedBombs   []*Bomb
	DeactivatedBombs []*Bomb
	ExpiredBombs     []*Bomb
	MembersToKick    []*Member
	NewMembers       int
	Departed         int
	Reactivated      int
	Errors           []MemberError
}

// OnTrack returns the outcomes with a non-negative deficit, best surplus first
func (r *RunResult) OnTrack() []MemberOutcome {
	return r.filterSorted(func(o MemberOutcome) bool { return o.DeficitSurplus >= 0 }, true)
}

// Behind returns the outcomes with a deficit, most behind first
func (r *RunResult) Behind() []MemberOutcome {
	return r.filterSorted(func(o MemberOutcome) bool { return o.DeficitSurplus < 0 }, false)
}

func (r *RunResult) filterSorted(keep func(MemberOutcome) bool, desc bool) []MemberOutcome {
	var out []MemberOutcome
	for _, o := range r.Outcomes {
		if keep(o) {
			out = append(out, o)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if desc {
			return out[i].DeficitSurplus > out[j].DeficitSurplus
		}
		return out[i].DeficitSurplus < out[j].DeficitSurplus
	})
	return out
}
