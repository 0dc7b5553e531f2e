package common

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormatFans(t *testing.T) {
	tests := []struct {
		name     string
		fans     int64
		expected string
	}{
		{"zero", 0, "0"},
		{"small", 999, "999"},
		{"thousands", 1000, "1,000"},
		{"daily quota", 1000000, "1,000,000"},
		{"large", 52500000, "52,500,000"},
		{"negative", -500000, "-500,000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, FormatFans(tt.fans))
		})
	}
}

func TestFormatDeficit(t *testing.T) {
	assert.Equal(t, "+200,000", FormatDeficit(200000))
	assert.Equal(t, "+0", FormatDeficit(0))
	assert.Equal(t, "-1,500,000", FormatDeficit(-1500000))
}

func TestFormatDiscordTimestamp(t *testing.T) {
	ts := time.Date(2026, 3, 3, 16, 0, 0, 0, time.UTC)
	assert.Equal(t, "<t:1772553600:D>", FormatDiscordTimestamp(ts, "D"))
}
