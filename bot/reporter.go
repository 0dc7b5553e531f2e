package bot

import (
	"context"
	"fmt"
	"strconv"

	"clubquota/events"
	"clubquota/models"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

// subscribeEvents wires reconciliation events to Discord channels. Daily
// reports go to the club's report channel; bomb and reset notices go to the
// alert channel, falling back to the report channel when none is set.
func (b *Bot) subscribeEvents(bus *events.Bus) {
	bus.Subscribe(events.EventTypeRunCompleted, func(ctx context.Context, event events.Event) {
		e, ok := event.(events.RunCompletedEvent)
		if !ok {
			return
		}
		b.postToChannel(e.Result.Club.ReportChannelID, buildDailyReportEmbed(e.Result))
	})

	bus.Subscribe(events.EventTypeBombActivated, func(ctx context.Context, event events.Event) {
		e, ok := event.(events.BombActivatedEvent)
		if !ok {
			return
		}
		b.postToChannel(alertChannel(e.Club), buildBombActivatedEmbed(e.Club, e.Member, e.Bomb))
	})

	bus.Subscribe(events.EventTypeBombDeactivated, func(ctx context.Context, event events.Event) {
		e, ok := event.(events.BombDeactivatedEvent)
		if !ok {
			return
		}
		// Reset defusals are covered by the reset notice itself
		if e.Reason == models.BombReasonReset {
			return
		}
		b.postToChannel(alertChannel(e.Club), buildBombDeactivatedEmbed(e.Club, e.Member, e.Reason))
	})

	bus.Subscribe(events.EventTypeKickRequired, func(ctx context.Context, event events.Event) {
		e, ok := event.(events.KickRequiredEvent)
		if !ok {
			return
		}
		b.postToChannel(alertChannel(e.Club), buildKickRequiredEmbed(e.Club, e.Member))
	})

	bus.Subscribe(events.EventTypeResetDetected, func(ctx context.Context, event events.Event) {
		e, ok := event.(events.ResetDetectedEvent)
		if !ok {
			return
		}
		b.postToChannel(alertChannel(e.Club), buildResetEmbed(e.Club))
	})
}

func alertChannel(club *models.Club) int64 {
	if club.AlertChannelID != 0 {
		return club.AlertChannelID
	}
	return club.ReportChannelID
}

func (b *Bot) postToChannel(channelID int64, embed *discordgo.MessageEmbed) {
	if channelID == 0 {
		log.WithField("title", embed.Title).Warn("No channel configured, dropping notification")
		return
	}

	_, err := b.session.ChannelMessageSendEmbed(strconv.FormatInt(channelID, 10), embed)
	if err != nil {
		log.WithError(err).WithFields(log.Fields{
			"channelID": channelID,
			"title":     embed.Title,
		}).Error("Failed to post notification")
	}
}

// postCheckFailure tells operators that a scheduled check gave up
func (b *Bot) postCheckFailure(club *models.Club, runErr error) {
	channelID := alertChannel(club)
	if channelID == 0 {
		return
	}

	msg := fmt.Sprintf("❌ Daily check for **%s** failed after all retries: %v", club.Name, runErr)
	if _, err := b.session.ChannelMessageSend(strconv.FormatInt(channelID, 10), msg); err != nil {
		log.WithError(err).WithField("club", club.Name).Error("Failed to post check failure")
	}
}
