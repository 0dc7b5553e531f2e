package bot

import (
	"fmt"
	"strings"

	"clubquota/bot/common"
	"clubquota/models"
	"clubquota/service"

	"github.com/bwmarrin/discordgo"
)

// Brand colors for embeds
const (
	ColorPrimary = 0x5865F2 // Discord blurple
	ColorSuccess = 0x57F287 // Green
	ColorDanger  = 0xED4245 // Red
	ColorWarning = 0xFEE75C // Yellow
)

const maxListedMembers = 20

// buildDailyReportEmbed renders a run result as the daily report
func buildDailyReportEmbed(result *models.RunResult) *discordgo.MessageEmbed {
	behind := result.Behind()
	onTrack := result.OnTrack()

	color := ColorSuccess
	if len(behind) > 0 {
		color = ColorWarning
	}
	if len(result.MembersToKick) > 0 {
		color = ColorDanger
	}

	embed := &discordgo.MessageEmbed{
		Title: fmt.Sprintf("📊 Daily Report — %s", result.Club.Name),
		Description: fmt.Sprintf("Standings for %s. Quota is cumulative for the month.",
			result.ProcessedDate.Format("Monday, January 2")),
		Color:  color,
		Fields: []*discordgo.MessageEmbedField{},
	}

	if result.ResetDetected {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  "🔄 Monthly Reset",
			Value: "Fan counters reset upstream. History cleared, all bombs defused, tracking restarted from today.",
		})
	}

	if len(onTrack) > 0 {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  fmt.Sprintf("✅ On Track (%d)", len(onTrack)),
			Value: formatOutcomes(onTrack),
		})
	}
	if len(behind) > 0 {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  fmt.Sprintf("⚠️ Behind (%d)", len(behind)),
			Value: formatOutcomes(behind),
		})
	}

	if result.NewMembers > 0 || result.Departed > 0 || result.Reactivated > 0 {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  "Roster",
			Value: fmt.Sprintf("%d joined, %d departed, %d returned", result.NewMembers, result.Departed, result.Reactivated),
		})
	}

	if len(result.Errors) > 0 {
		var lines []string
		for _, e := range result.Errors {
			lines = append(lines, fmt.Sprintf("%s: %v", e.TrainerName, e.Err))
		}
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  fmt.Sprintf("❗ Skipped (%d)", len(result.Errors)),
			Value: strings.Join(lines, "\n"),
		})
	}

	return embed
}

// formatOutcomes renders member standings, truncated to keep the embed under
// Discord's field limits
func formatOutcomes(outcomes []models.MemberOutcome) string {
	var lines []string
	for idx, o := range outcomes {
		if idx == maxListedMembers {
			lines = append(lines, fmt.Sprintf("…and %d more", len(outcomes)-maxListedMembers))
			break
		}
		line := fmt.Sprintf("**%s** — %s fans (%s)",
			o.Member.TrainerName, common.FormatFans(o.CumulativeFans), common.FormatDeficit(o.DeficitSurplus))
		if o.BombState == models.BombStateArmed {
			line += " 💣"
		}
		if o.BombState == models.BombStateExpired {
			line += " 💥"
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

// buildBombActivatedEmbed announces a newly armed bomb
func buildBombActivatedEmbed(club *models.Club, member *models.Member, bomb *models.Bomb) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title: "💣 Bomb Armed",
		Description: fmt.Sprintf("**%s** has been behind quota for %d consecutive days.\nThey have **%d days** to catch up to the cumulative requirement.",
			member.TrainerName, club.BombTriggerDays, bomb.DaysRemaining),
		Color:  ColorWarning,
		Footer: &discordgo.MessageEmbedFooter{Text: club.Name},
	}
}

// buildBombDeactivatedEmbed announces a defused bomb
func buildBombDeactivatedEmbed(club *models.Club, member *models.Member, reason models.BombDeactivationReason) *discordgo.MessageEmbed {
	var desc string
	switch reason {
	case models.BombReasonCaughtUp:
		desc = fmt.Sprintf("**%s** caught up to the cumulative quota. Bomb defused.", member.TrainerName)
	case models.BombReasonReset:
		desc = fmt.Sprintf("Bomb for **%s** cleared by the monthly reset.", member.TrainerName)
	case models.BombReasonManual:
		desc = fmt.Sprintf("Bomb for **%s** cleared by an operator.", member.TrainerName)
	default:
		desc = fmt.Sprintf("Bomb for **%s** deactivated.", member.TrainerName)
	}

	return &discordgo.MessageEmbed{
		Title:       "✅ Bomb Defused",
		Description: desc,
		Color:       ColorSuccess,
		Footer:      &discordgo.MessageEmbedFooter{Text: club.Name},
	}
}

// buildKickRequiredEmbed announces an expired bomb. The engine never removes
// members; operators act on this.
func buildKickRequiredEmbed(club *models.Club, member *models.Member) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title: "💥 Bomb Expired — Action Required",
		Description: fmt.Sprintf("**%s** (trainer %s) ran out the %d-day countdown and is still behind quota.\nRemoval from the club is an operator decision; the tracker will not do it.",
			member.TrainerName, member.TrainerID, club.BombCountdownDays),
		Color:  ColorDanger,
		Footer: &discordgo.MessageEmbedFooter{Text: club.Name},
	}
}

// buildResetEmbed announces a detected monthly counter reset
func buildResetEmbed(club *models.Club) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title: "🔄 Monthly Reset Detected",
		Description: fmt.Sprintf("Fan counters for **%s** reset upstream. Quota history and schedule cleared, all bombs defused. Everyone starts the new month at zero.",
			club.Name),
		Color: ColorPrimary,
	}
}

// buildClubListEmbed lists all tracked clubs
func buildClubListEmbed(clubs []*models.Club) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title: "Tracked Clubs",
		Color: ColorPrimary,
	}

	if len(clubs) == 0 {
		embed.Description = "No clubs are tracked yet. Use `/club create` to register one."
		return embed
	}

	var lines []string
	for _, club := range clubs {
		source := "browser"
		if club.CircleID != "" {
			source = "API"
		}
		line := fmt.Sprintf("**%s** — quota %s/day, check %02d:%02d %s, source %s",
			club.Name, common.FormatFans(club.DailyQuota), club.ScrapeHour, club.ScrapeMinute, club.Timezone, source)
		if club.LastProcessedDate != nil {
			line += fmt.Sprintf(", last run %s", club.LastProcessedDate.Format("2006-01-02"))
		}
		lines = append(lines, line)
	}
	embed.Description = strings.Join(lines, "\n")
	return embed
}

// buildClubSummaryEmbed renders the current standings of a club's roster
func buildClubSummaryEmbed(summary *service.ClubSummary) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title: fmt.Sprintf("📊 %s — Current Standings", summary.Club.Name),
		Color: ColorPrimary,
	}

	if summary.Club.LastProcessedDate != nil {
		embed.Description = fmt.Sprintf("As of %s.", summary.Club.LastProcessedDate.Format("2006-01-02"))
	} else {
		embed.Description = "No daily check has run yet."
	}

	if len(summary.OnTrack) > 0 {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  fmt.Sprintf("✅ On Track (%d)", len(summary.OnTrack)),
			Value: formatDetails(summary.OnTrack),
		})
	}
	if len(summary.Behind) > 0 {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  fmt.Sprintf("⚠️ Behind (%d)", len(summary.Behind)),
			Value: formatDetails(summary.Behind),
		})
	}
	if len(summary.Bombs) > 0 {
		var lines []string
		for _, d := range summary.Bombs {
			switch d.Bomb.State() {
			case models.BombStateExpired:
				lines = append(lines, fmt.Sprintf("💥 **%s** — countdown expired", d.Member.TrainerName))
			default:
				lines = append(lines, fmt.Sprintf("💣 **%s** — %d days remaining", d.Member.TrainerName, d.Bomb.DaysRemaining))
			}
		}
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  fmt.Sprintf("💣 Active Bombs (%d)", len(summary.Bombs)),
			Value: strings.Join(lines, "\n"),
		})
	}

	return embed
}

func formatDetails(details []*service.MemberStatusDetail) string {
	var lines []string
	for idx, d := range details {
		if idx == maxListedMembers {
			lines = append(lines, fmt.Sprintf("…and %d more", len(details)-maxListedMembers))
			break
		}
		lines = append(lines, fmt.Sprintf("**%s** — %s fans (%s)",
			d.Member.TrainerName, common.FormatFans(d.History.CumulativeFans), common.FormatDeficit(d.History.DeficitSurplus)))
	}
	return strings.Join(lines, "\n")
}

// buildMemberStatusEmbed renders one member's quota standing
func buildMemberStatusEmbed(club *models.Club, detail *service.MemberStatusDetail) *discordgo.MessageEmbed {
	member := detail.Member

	embed := &discordgo.MessageEmbed{
		Title:  fmt.Sprintf("Trainer %s", member.TrainerName),
		Color:  ColorPrimary,
		Footer: &discordgo.MessageEmbedFooter{Text: club.Name},
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Trainer ID", Value: member.TrainerID, Inline: true},
			{Name: "Joined", Value: member.JoinDate.Format("2006-01-02"), Inline: true},
		},
	}

	if !member.IsActive {
		embed.Color = ColorDanger
		state := "Inactive (departed)"
		if member.ManuallyDeactivated {
			state = "Inactive (deactivated by operator)"
		}
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{Name: "State", Value: state, Inline: true})
	}

	if detail.History == nil {
		embed.Description = "Not yet processed by a daily check."
		return embed
	}

	h := detail.History
	embed.Fields = append(embed.Fields,
		&discordgo.MessageEmbedField{Name: "Fans This Month", Value: common.FormatFans(h.CumulativeFans), Inline: true},
		&discordgo.MessageEmbedField{Name: "Required", Value: common.FormatFans(h.ExpectedFans), Inline: true},
		&discordgo.MessageEmbedField{Name: "Deficit/Surplus", Value: common.FormatDeficit(h.DeficitSurplus), Inline: true},
		&discordgo.MessageEmbedField{Name: "Last Checked", Value: h.Date.Format("2006-01-02"), Inline: true},
	)

	if len(detail.Recent) > 1 {
		var lines []string
		for i := len(detail.Recent) - 1; i >= 0; i-- {
			e := detail.Recent[i]
			lines = append(lines, fmt.Sprintf("%s — %s fans (%s)",
				e.Date.Format("Jan 2"), common.FormatFans(e.CumulativeFans), common.FormatDeficit(e.DeficitSurplus)))
		}
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name: "Recent Days", Value: strings.Join(lines, "\n"),
		})
	}

	if h.DeficitSurplus < 0 {
		embed.Color = ColorWarning
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name: "Consecutive Days Behind", Value: fmt.Sprintf("%d", h.DaysBehind), Inline: true,
		})
	}

	switch detail.Bomb.State() {
	case models.BombStateArmed:
		embed.Color = ColorWarning
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name: "💣 Bomb", Value: fmt.Sprintf("Armed, %d days remaining", detail.Bomb.DaysRemaining), Inline: true,
		})
	case models.BombStateExpired:
		embed.Color = ColorDanger
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name: "💥 Bomb", Value: "Countdown expired, operator action required", Inline: true,
		})
	}

	return embed
}
