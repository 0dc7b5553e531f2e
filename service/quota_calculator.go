package service

import (
	"time"

	"clubquota/models"
)

// QuotaCalculator computes expected cumulative targets and deficits. It is
// pure: all inputs arrive as values, all arithmetic is integer fan counts.
type QuotaCalculator struct{}

// NewQuotaCalculator creates a new quota calculator
func NewQuotaCalculator() *QuotaCalculator {
	return &QuotaCalculator{}
}

// ExpectedFans returns the cumulative target for a member as of a date.
//
// Accrual is scoped to the current tracking period (the calendar month in the
// club's timezone): cumulative fan counters zero on the monthly reset, so the
// target restarts with them. Each day from max(join date, first of month)
// through asOf inclusive contributes the quota amount effective on that day.
// Quota changes apply prospectively only; a change on day 10 does not alter
// what days 1-9 accrued. The first tracked day counts in full.
func (c *QuotaCalculator) ExpectedFans(member *models.Member, club *models.Club,
	schedule []*models.QuotaRequirement, asOf time.Time, loc *time.Location) int64 {

	start := DateIn(member.JoinDate, loc)
	monthStart := FirstOfMonth(asOf, loc)
	if start.Before(monthStart) {
		start = monthStart
	}
	return c.ExpectedFansSince(start, club, schedule, asOf, loc)
}

// ExpectedFansSince accrues the target from an explicit period start instead
// of the month boundary. The orchestrator uses this on a detected reset day,
// when the post-reset counters become the new baseline.
func (c *QuotaCalculator) ExpectedFansSince(start time.Time, club *models.Club,
	schedule []*models.QuotaRequirement, asOf time.Time, loc *time.Location) int64 {

	from := DateIn(start, loc)
	end := DateIn(asOf, loc)
	if end.Before(from) {
		return 0
	}

	var expected int64
	for day := from; !day.After(end); day = day.AddDate(0, 0, 1) {
		expected += quotaOn(day, club.DailyQuota, schedule, loc)
	}
	return expected
}

// quotaOn returns the quota amount effective on a given day: the schedule
// entry with the latest effective date not after the day, or the club default
// when no entry applies yet.
func quotaOn(day time.Time, defaultQuota int64, schedule []*models.QuotaRequirement, loc *time.Location) int64 {
	amount := defaultQuota
	for _, req := range schedule {
		if DateIn(req.EffectiveDate, loc).After(day) {
			break
		}
		amount = req.DailyQuota
	}
	return amount
}

// DeficitSurplus returns actual minus expected; negative means behind
func (c *QuotaCalculator) DeficitSurplus(actual, expected int64) int64 {
	return actual - expected
}

// NextDaysBehind advances the consecutive-days-behind counter for one
// processed day. Any non-negative day resets the streak to zero.
func (c *QuotaCalculator) NextDaysBehind(previous int, deficitSurplus int64) int {
	if deficitSurplus >= 0 {
		return 0
	}
	return previous + 1
}
