package bot

import (
	"fmt"
	"time"

	"clubquota/events"
	"clubquota/service"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

// Config holds bot configuration
type Config struct {
	Token   string
	GuildID string

	// FetchTimeout bounds a single snapshot fetch during a scheduled run
	FetchTimeout time.Duration
}

// Bot represents the Discord bot for club quota tracking
type Bot struct {
	session   *discordgo.Session
	config    Config
	scheduler *scheduler

	clubService        service.ClubService
	memberAdminService service.MemberAdminService
	statusService      service.StatusService
	reconciliation     service.ReconciliationService
	source             service.SnapshotSource
}

// New creates a new bot instance, connects to Discord, and registers the
// slash commands. The scheduler is not started; call StartScheduler once the
// rest of the process is wired.
func New(config Config, clubService service.ClubService, memberAdminService service.MemberAdminService,
	statusService service.StatusService, reconciliation service.ReconciliationService,
	source service.SnapshotSource, eventBus *events.Bus) (*Bot, error) {

	session, err := discordgo.New("Bot " + config.Token)
	if err != nil {
		return nil, fmt.Errorf("failed to create Discord session: %w", err)
	}

	if config.FetchTimeout <= 0 {
		config.FetchTimeout = 5 * time.Minute
	}

	bot := &Bot{
		session:            session,
		config:             config,
		clubService:        clubService,
		memberAdminService: memberAdminService,
		statusService:      statusService,
		reconciliation:     reconciliation,
		source:             source,
	}
	bot.scheduler = newScheduler(bot)

	session.AddHandler(bot.handleReady)
	session.AddHandler(bot.handleInteraction)

	session.Identify.Intents = discordgo.IntentsGuilds | discordgo.IntentsGuildMessages

	if err := session.Open(); err != nil {
		return nil, fmt.Errorf("failed to open Discord connection: %w", err)
	}

	if err := bot.registerCommands(); err != nil {
		session.Close()
		return nil, fmt.Errorf("failed to register commands: %w", err)
	}

	bot.subscribeEvents(eventBus)

	return bot, nil
}

// StartScheduler begins the per-club daily check loop
func (b *Bot) StartScheduler() {
	b.scheduler.start()
}

// Close shuts down the scheduler and the Discord connection
func (b *Bot) Close() error {
	b.scheduler.stop()
	return b.session.Close()
}

func (b *Bot) handleReady(s *discordgo.Session, r *discordgo.Ready) {
	log.WithFields(log.Fields{
		"username": r.User.Username,
		"guilds":   len(r.Guilds),
	}).Info("Bot connected to Discord")
}

// handleInteraction routes slash commands to their handlers
func (b *Bot) handleInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}

	data := i.ApplicationCommandData()
	log.WithFields(log.Fields{
		"command": data.Name,
		"user":    interactionUser(i),
	}).Debug("Handling slash command")

	switch data.Name {
	case "club":
		b.handleClub(s, i)
	case "quota":
		b.handleQuota(s, i)
	case "member":
		b.handleMember(s, i)
	case "status":
		b.handleStatus(s, i)
	case "check":
		b.handleCheck(s, i)
	default:
		b.respondWithError(s, i, "Unknown command")
	}
}

// respondWithError sends an ephemeral error message to the user
func (b *Bot) respondWithError(s *discordgo.Session, i *discordgo.InteractionCreate, message string) {
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: "❌ " + message,
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	})
	if err != nil {
		log.Errorf("Error sending error response: %v", err)
	}
}

func interactionUser(i *discordgo.InteractionCreate) string {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User.Username
	}
	if i.User != nil {
		return i.User.Username
	}
	return "unknown"
}

// optionMap flattens a command's options for lookup by name
func optionMap(options []*discordgo.ApplicationCommandInteractionDataOption) map[string]*discordgo.ApplicationCommandInteractionDataOption {
	m := make(map[string]*discordgo.ApplicationCommandInteractionDataOption, len(options))
	for _, opt := range options {
		m[opt.Name] = opt
	}
	return m
}
