package bot

import (
	"context"
	"fmt"
	"time"

	"clubquota/bot/common"
	"clubquota/models"
	"clubquota/service"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

// handleMember routes the /member subcommands
func (b *Bot) handleMember(s *discordgo.Session, i *discordgo.InteractionCreate) {
	options := i.ApplicationCommandData().Options
	if len(options) == 0 {
		b.respondWithError(s, i, "Missing subcommand")
		return
	}

	sub := options[0]
	opts := optionMap(sub.Options)
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

	switch sub.Name {
	case "add":
		b.handleMemberAdd(s, i, club, opts)
	case "deactivate":
		b.handleMemberDeactivate(s, i, club, opts)
	case "reactivate":
		b.handleMemberReactivate(s, i, club, opts)
	case "status":
		b.handleMemberStatus(s, i, club, opts)
	default:
		b.respondWithError(s, i, "Unknown subcommand")
	}
}

func (b *Bot) handleMemberAdd(s *discordgo.Session, i *discordgo.InteractionCreate, club *models.Club,
	opts map[string]*discordgo.ApplicationCommandInteractionDataOption) {

	loc, err := service.Location(club.Timezone)
	if err != nil {
		b.respondWithError(s, i, fmt.Sprintf("Club has an invalid timezone: %v", err))
		return
	}

	joinDate := service.DateIn(time.Now(), loc)
	if opt, ok := opts["join_date"]; ok {
		parsed, err := time.ParseInLocation("2006-01-02", opt.StringValue(), loc)
		if err != nil {
			b.respondWithError(s, i, "join_date must be YYYY-MM-DD")
			return
		}
		joinDate = parsed
	}

	trainerID := opts["trainer_id"].StringValue()
	trainerName := opts["trainer_name"].StringValue()

	member, err := b.memberAdminService.AddMember(context.Background(), club.ID, trainerID, trainerName, joinDate)
	if err != nil {
		log.WithError(err).WithField("trainer", trainerName).Error("Failed to add member")
		b.respondWithError(s, i, fmt.Sprintf("Failed to add member: %v", err))
		return
	}

	msg := fmt.Sprintf("**%s** (trainer %s) is tracked from %s. The first day counts in full.",
		member.TrainerName, member.TrainerID, joinDate.Format("2006-01-02"))
	if err := common.RespondWithSuccess(s, i, msg, false); err != nil {
		log.Errorf("Error responding to member add: %v", err)
	}
}

func (b *Bot) handleMemberDeactivate(s *discordgo.Session, i *discordgo.InteractionCreate, club *models.Club,
	opts map[string]*discordgo.ApplicationCommandInteractionDataOption) {

	trainerName := opts["trainer_name"].StringValue()

	if err := b.memberAdminService.DeactivateMember(context.Background(), club.ID, trainerName); err != nil {
		log.WithError(err).WithField("trainer", trainerName).Error("Failed to deactivate member")
		b.respondWithError(s, i, fmt.Sprintf("Failed to deactivate member: %v", err))
		return
	}

	msg := fmt.Sprintf("**%s** is no longer tracked. It will stay out even if it reappears in a snapshot; use `/member reactivate` to resume tracking.", trainerName)
	if err := common.RespondWithSuccess(s, i, msg, false); err != nil {
		log.Errorf("Error responding to member deactivate: %v", err)
	}
}

func (b *Bot) handleMemberReactivate(s *discordgo.Session, i *discordgo.InteractionCreate, club *models.Club,
	opts map[string]*discordgo.ApplicationCommandInteractionDataOption) {

	trainerName := opts["trainer_name"].StringValue()

	if err := b.memberAdminService.ReactivateMember(context.Background(), club.ID, trainerName); err != nil {
		log.WithError(err).WithField("trainer", trainerName).Error("Failed to reactivate member")
		b.respondWithError(s, i, fmt.Sprintf("Failed to reactivate member: %v", err))
		return
	}

	msg := fmt.Sprintf("**%s** is tracked again with a clean slate.", trainerName)
	if err := common.RespondWithSuccess(s, i, msg, false); err != nil {
		log.Errorf("Error responding to member reactivate: %v", err)
	}
}

func (b *Bot) handleMemberStatus(s *discordgo.Session, i *discordgo.InteractionCreate, club *models.Club,
	opts map[string]*discordgo.ApplicationCommandInteractionDataOption) {

	trainerName := opts["trainer_name"].StringValue()

	detail, err := b.statusService.GetMemberStatus(context.Background(), club.ID, trainerName)
	if err != nil {
		log.WithError(err).WithField("trainer", trainerName).Error("Failed to load member status")
		b.respondWithError(s, i, "Failed to load member status")
		return
	}
	if detail == nil {
		b.respondWithError(s, i, fmt.Sprintf("Member %q not found in club %q", trainerName, club.Name))
		return
	}

	if err := common.RespondWithEmbed(s, i, buildMemberStatusEmbed(club, detail), false); err != nil {
		log.Errorf("Error responding to member status: %v", err)
	}
}
