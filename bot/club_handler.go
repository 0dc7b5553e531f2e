package bot

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"clubquota/bot/common"
	"clubquota/config"
	"clubquota/models"
	"clubquota/service"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

// handleClub routes the /club subcommands
func (b *Bot) handleClub(s *discordgo.Session, i *discordgo.InteractionCreate) {
	options := i.ApplicationCommandData().Options
	if len(options) == 0 {
		b.respondWithError(s, i, "Missing subcommand")
		return
	}

	switch options[0].Name {
	case "create":
		b.handleClubCreate(s, i, options[0])
	case "list":
		b.handleClubList(s, i)
	case "edit":
		b.handleClubEdit(s, i, options[0])
	default:
		b.respondWithError(s, i, "Unknown subcommand")
	}
}

func (b *Bot) handleClubCreate(s *discordgo.Session, i *discordgo.InteractionCreate, sub *discordgo.ApplicationCommandInteractionDataOption) {
	opts := optionMap(sub.Options)
	cfg := config.Get()

	club := &models.Club{
		Name:              opts["name"].StringValue(),
		DailyQuota:        cfg.DefaultDailyQuota,
		Timezone:          cfg.DefaultTimezone,
		ScrapeHour:        16,
		BombTriggerDays:   cfg.DefaultBombTriggerDays,
		BombCountdownDays: cfg.DefaultBombCountdownDays,
		ResetThreshold:    cfg.DefaultResetThreshold,
		IsActive:          true,
	}

	channel := opts["report_channel"].ChannelValue(s)
	channelID, err := strconv.ParseInt(channel.ID, 10, 64)
	if err != nil {
		b.respondWithError(s, i, "Invalid report channel")
		return
	}
	club.ReportChannelID = channelID
	club.AlertChannelID = channelID

	if opt, ok := opts["circle_id"]; ok {
		club.CircleID = opt.StringValue()
	}
	if opt, ok := opts["scrape_url"]; ok {
		club.ScrapeURL = opt.StringValue()
	}
	if opt, ok := opts["alert_channel"]; ok {
		alertID, err := strconv.ParseInt(opt.ChannelValue(s).ID, 10, 64)
		if err != nil {
			b.respondWithError(s, i, "Invalid alert channel")
			return
		}
		club.AlertChannelID = alertID
	}
	if opt, ok := opts["daily_quota"]; ok {
		club.DailyQuota = opt.IntValue()
	}
	if opt, ok := opts["timezone"]; ok {
		club.Timezone = opt.StringValue()
	}

	if club.CircleID == "" && club.ScrapeURL == "" {
		b.respondWithError(s, i, "Provide a circle_id or a scrape_url so the club can be checked")
		return
	}

	ctx := context.Background()
	if err := b.clubService.CreateClub(ctx, club); err != nil {
		log.WithError(err).WithField("club", club.Name).Error("Failed to create club")
		b.respondWithError(s, i, fmt.Sprintf("Failed to create club: %v", err))
		return
	}

	msg := fmt.Sprintf("Club **%s** registered. Daily quota %s fans, checks at %02d:%02d %s.",
		club.Name, common.FormatFans(club.DailyQuota), club.ScrapeHour, club.ScrapeMinute, club.Timezone)
	if err := common.RespondWithSuccess(s, i, msg, false); err != nil {
		log.Errorf("Error responding to club create: %v", err)
	}
}

func (b *Bot) handleClubList(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx := context.Background()
	clubs, err := b.clubService.ListActiveClubs(ctx)
	if err != nil {
		log.WithError(err).Error("Failed to list clubs")
		b.respondWithError(s, i, "Failed to list clubs")
		return
	}

	if err := common.RespondWithEmbed(s, i, buildClubListEmbed(clubs), false); err != nil {
		log.Errorf("Error responding to club list: %v", err)
	}
}

func (b *Bot) handleClubEdit(s *discordgo.Session, i *discordgo.InteractionCreate, sub *discordgo.ApplicationCommandInteractionDataOption) {
	opts := optionMap(sub.Options)
	ctx := context.Background()

	club, err := b.clubService.GetClubByName(ctx, opts["name"].StringValue())
	if err != nil {
		log.WithError(err).Error("Failed to load club")
		b.respondWithError(s, i, "Failed to load club")
		return
	}
	if club == nil {
		b.respondWithError(s, i, fmt.Sprintf("Club %q not found", opts["name"].StringValue()))
		return
	}

	if opt, ok := opts["scrape_hour"]; ok {
		hour := int(opt.IntValue())
		if hour < 0 || hour > 23 {
			b.respondWithError(s, i, "scrape_hour must be between 0 and 23")
			return
		}
		club.ScrapeHour = hour
	}
	if opt, ok := opts["scrape_minute"]; ok {
		minute := int(opt.IntValue())
		if minute < 0 || minute > 59 {
			b.respondWithError(s, i, "scrape_minute must be between 0 and 59")
			return
		}
		club.ScrapeMinute = minute
	}
	if opt, ok := opts["report_channel"]; ok {
		channelID, err := strconv.ParseInt(opt.ChannelValue(s).ID, 10, 64)
		if err != nil {
			b.respondWithError(s, i, "Invalid report channel")
			return
		}
		club.ReportChannelID = channelID
	}
	if opt, ok := opts["alert_channel"]; ok {
		channelID, err := strconv.ParseInt(opt.ChannelValue(s).ID, 10, 64)
		if err != nil {
			b.respondWithError(s, i, "Invalid alert channel")
			return
		}
		club.AlertChannelID = channelID
	}

	if err := b.clubService.UpdateClub(ctx, club); err != nil {
		log.WithError(err).WithField("club", club.Name).Error("Failed to update club")
		b.respondWithError(s, i, fmt.Sprintf("Failed to update club: %v", err))
		return
	}

	msg := fmt.Sprintf("Club **%s** updated. Daily check at %02d:%02d %s.",
		club.Name, club.ScrapeHour, club.ScrapeMinute, club.Timezone)
	if err := common.RespondWithSuccess(s, i, msg, false); err != nil {
		log.Errorf("Error responding to club edit: %v", err)
	}
}

// handleQuota routes the /quota subcommands
func (b *Bot) handleQuota(s *discordgo.Session, i *discordgo.InteractionCreate) {
	options := i.ApplicationCommandData().Options
	if len(options) == 0 || options[0].Name != "set" {
		b.respondWithError(s, i, "Unknown subcommand")
		return
	}

	opts := optionMap(options[0].Options)
	ctx := context.Background()

	club, err := b.clubService.GetClubByName(ctx, opts["club"].StringValue())
	if err != nil {
		log.WithError(err).Error("Failed to load club")
		b.respondWithError(s, i, "Failed to load club")
		return
	}
	if club == nil {
		b.respondWithError(s, i, fmt.Sprintf("Club %q not found", opts["club"].StringValue()))
		return
	}

	amount := opts["amount"].IntValue()

	loc, err := service.Location(club.Timezone)
	if err != nil {
		b.respondWithError(s, i, fmt.Sprintf("Club has an invalid timezone: %v", err))
		return
	}
	effectiveDate := service.DateIn(time.Now(), loc)
	if opt, ok := opts["effective_date"]; ok {
		parsed, err := time.ParseInLocation("2006-01-02", opt.StringValue(), loc)
		if err != nil {
			b.respondWithError(s, i, "effective_date must be YYYY-MM-DD")
			return
		}
		effectiveDate = parsed
	}

	if err := b.clubService.SetQuota(ctx, club.ID, effectiveDate, amount, interactionUser(i)); err != nil {
		log.WithError(err).WithField("club", club.Name).Error("Failed to set quota")
		b.respondWithError(s, i, fmt.Sprintf("Failed to set quota: %v", err))
		return
	}

	msg := fmt.Sprintf("Daily quota for **%s** is %s fans from %s. Days already processed keep their old requirement.",
		club.Name, common.FormatFans(amount), effectiveDate.Format("2006-01-02"))
	if err := common.RespondWithSuccess(s, i, msg, false); err != nil {
		log.Errorf("Error responding to quota set: %v", err)
	}
}
