package bot

import (
	"context"
	"errors"
	"fmt"

	"clubquota/bot/common"
	"clubquota/models"
	"clubquota/service"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

// handleStatus shows a club's current standings
func (b *Bot) handleStatus(s *discordgo.Session, i *discordgo.InteractionCreate) {
	opts := optionMap(i.ApplicationCommandData().Options)
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

	summary, err := b.statusService.GetClubSummary(ctx, club.ID)
	if err != nil {
		log.WithError(err).WithField("club", club.Name).Error("Failed to load club summary")
		b.respondWithError(s, i, "Failed to load club summary")
		return
	}

	if err := common.RespondWithEmbed(s, i, buildClubSummaryEmbed(summary), false); err != nil {
		log.Errorf("Error responding to status: %v", err)
	}
}

// handleCheck runs the daily quota check for a club on demand
func (b *Bot) handleCheck(s *discordgo.Session, i *discordgo.InteractionCreate) {
	opts := optionMap(i.ApplicationCommandData().Options)
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

	// Fetching and reconciling can exceed the 3 second interaction window
	if err := common.DeferResponse(s, i, false); err != nil {
		log.Errorf("Error deferring check response: %v", err)
		return
	}

	result, err := b.runOnce(ctx, club)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrAlreadyProcessed):
			common.FollowUpWithError(s, i, fmt.Sprintf("Today's check for **%s** has already run.", club.Name))
		case errors.Is(err, service.ErrConcurrentRunRejected):
			common.FollowUpWithError(s, i, fmt.Sprintf("A check for **%s** is already in progress.", club.Name))
		default:
			log.WithError(err).WithField("club", club.Name).Error("Manual check failed")
			common.FollowUpWithError(s, i, fmt.Sprintf("Check failed: %v", err))
		}
		return
	}

	common.FollowUpWithSuccess(s, i, checkSummaryLine(result), false)
}

func checkSummaryLine(result *models.RunResult) string {
	line := fmt.Sprintf("Check for **%s** complete: %d on track, %d behind",
		result.Club.Name, len(result.OnTrack()), len(result.Behind()))
	if result.ResetDetected {
		line += ". Monthly counter reset detected, tracking restarted"
	}
	if len(result.MembersToKick) > 0 {
		line += fmt.Sprintf(". %d member(s) need operator action", len(result.MembersToKick))
	}
	line += ". Full report posted to the report channel."
	return line
}
