package common

import (
	"fmt"
	"strconv"
	"time"
)

// FormatFans formats a fan count with thousands separators for display
func FormatFans(fans int64) string {
	s := strconv.FormatInt(fans, 10)
	negative := false
	if fans < 0 {
		negative = true
		s = s[1:]
	}

	var out []byte
	for i, d := range []byte(s) {
		if i > 0 && (len(s)-i)%3 == 0 {
			out = append(out, ',')
		}
		out = append(out, d)
	}

	if negative {
		return "-" + string(out)
	}
	return string(out)
}

// FormatDeficit formats a deficit/surplus with an explicit sign so readers can
// tell surplus from deficit at a glance
func FormatDeficit(amount int64) string {
	if amount >= 0 {
		return "+" + FormatFans(amount)
	}
	return FormatFans(amount)
}

// FormatDiscordTimestamp formats a time as a Discord timestamp that renders
// in each viewer's local timezone
func FormatDiscordTimestamp(t time.Time, style string) string {
	return fmt.Sprintf("<t:%d:%s>", t.Unix(), style)
}
