package bot

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScheduler_ClaimOncePerClubDay(t *testing.T) {
	s := newScheduler(nil)

	assert.True(t, s.claim("1_2026-03-10"))
	assert.False(t, s.claim("1_2026-03-10"))

	// A second club, still on yesterday in its own timezone, claims its
	// local date without disturbing the first club's guard
	assert.True(t, s.claim("2_2026-03-09"))
	assert.False(t, s.claim("1_2026-03-10"))
	assert.False(t, s.claim("2_2026-03-09"))
}

func TestScheduler_ClaimPrunesOlderDates(t *testing.T) {
	s := newScheduler(nil)

	require.True(t, s.claim("1_2026-03-09"))
	require.True(t, s.claim("1_2026-03-10"))

	s.mu.Lock()
	_, stale := s.dispatched["1_2026-03-09"]
	s.mu.Unlock()
	assert.False(t, stale, "yesterday's key is gone")

	assert.False(t, s.claim("1_2026-03-10"))
}

func TestRunKey(t *testing.T) {
	loc, err := time.LoadLocation("Europe/Amsterdam")
	require.NoError(t, err)

	local := time.Date(2026, 3, 10, 16, 0, 0, 0, loc)
	assert.Equal(t, "7_2026-03-10", runKey(7, local))
}
