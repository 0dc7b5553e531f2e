package cmd

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"clubquota/adminapi"
	"clubquota/bot"
	"clubquota/config"
	"clubquota/database"
	"clubquota/events"
	"clubquota/repository"
	"clubquota/scraper"
	"clubquota/service"
)

// Run initializes and starts the application
func Run(ctx context.Context) error {
	log.Println("Starting club quota tracker...")

	// Load configuration
	cfg := config.Get()

	// Initialize database connection
	log.Println("Connecting to database...")
	db, err := database.NewConnection(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	// Initialize event bus
	eventBus := events.NewBus()

	// Initialize unit of work factory and the out-of-band lock repository
	uowFactory := repository.NewUnitOfWorkFactory(db, eventBus)
	lockRepo := repository.NewRunLockRepository(db)

	// Initialize services
	log.Println("Initializing services...")
	clubService := service.NewClubService(uowFactory)
	memberAdminService := service.NewMemberAdminService(uowFactory)
	statusService := service.NewStatusService(uowFactory)

	hostname, err := os.Hostname()
	if err != nil {
		hostname = "clubquota"
	}
	staleAfter := time.Duration(cfg.LockStaleMinutes) * time.Minute
	reconciliationService := service.NewReconciliationService(uowFactory, lockRepo, hostname, staleAfter)

	// Pick the snapshot source
	var source service.SnapshotSource
	if cfg.UseCircleAPI {
		log.Println("Using circle API snapshot source")
		source = scraper.NewAPISource(cfg.CircleAPIBase)
	} else {
		log.Println("Using headless browser snapshot source")
		source = scraper.NewBrowserSource(5 * time.Minute)
	}

	// Initialize Discord bot
	log.Println("Initializing Discord bot...")
	botConfig := bot.Config{
		Token:   cfg.DiscordToken,
		GuildID: cfg.DiscordGuildID,
	}
	discordBot, err := bot.New(botConfig, clubService, memberAdminService, statusService, reconciliationService, source, eventBus)
	if err != nil {
		return fmt.Errorf("failed to initialize Discord bot: %w", err)
	}
	discordBot.StartScheduler()

	// Start the admin HTTP API
	adminServer := adminapi.NewServer(cfg.AdminAPIAddr, clubService, statusService, reconciliationService, source, 5*time.Minute)
	adminServer.Start()

	// Wait for context cancellation
	log.Printf("Tracker is running in %s mode...", cfg.Environment)
	<-ctx.Done()

	// Cleanup resources
	log.Println("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := adminServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("Error shutting down admin API: %v", err)
	}
	if err := discordBot.Close(); err != nil {
		log.Printf("Error closing Discord bot: %v", err)
	}

	log.Println("Closing database connection...")
	db.Close()

	log.Println("Shutdown completed")
	return nil
}
