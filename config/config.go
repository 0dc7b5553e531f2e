package config

import (
	"fmt"
	"os"
	"strconv"
	"sync"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	// Discord configuration
	DiscordToken   string
	DiscordGuildID string

	// Database configuration
	DatabaseURL string

	// Admin HTTP API
	AdminAPIAddr string

	// Snapshot source configuration
	UseCircleAPI  bool   // circle API when true, headless browser scraper otherwise
	CircleAPIBase string // base URL of the circle fan-count API

	// Defaults applied to newly created clubs
	DefaultDailyQuota        int64
	DefaultBombTriggerDays   int
	DefaultBombCountdownDays int
	DefaultResetThreshold    float64
	DefaultTimezone          string

	// Scheduler configuration
	FetchRetryAttempts int
	LockStaleMinutes   int

	// Environment
	Environment string // "development", "production" or "test"
}

var (
	instance *Config
	once     sync.Once
)

// Get returns the global configuration instance
func Get() *Config {
	once.Do(func() {
		var err error
		instance, err = load()
		if err != nil {
			panic(fmt.Sprintf("failed to load config: %v", err))
		}
	})
	return instance
}

// load loads configuration from the environment, reading .env first if present
func load() (*Config, error) {
	// Missing .env is fine; real deployments set the environment directly
	_ = godotenv.Load()

	config := &Config{
		DiscordToken:   os.Getenv("DISCORD_TOKEN"),
		DiscordGuildID: os.Getenv("DISCORD_GUILD_ID"),
		DatabaseURL:    os.Getenv("DATABASE_URL"),

		AdminAPIAddr: os.Getenv("ADMIN_API_ADDR"),

		UseCircleAPI:  os.Getenv("USE_CIRCLE_API") != "false",
		CircleAPIBase: os.Getenv("CIRCLE_API_BASE"),

		// Club defaults
		DefaultDailyQuota:        1_000_000,
		DefaultBombTriggerDays:   3,
		DefaultBombCountdownDays: 7,
		DefaultResetThreshold:    0.5,
		DefaultTimezone:          "Europe/Amsterdam",

		FetchRetryAttempts: 3,
		LockStaleMinutes:   30,

		Environment: os.Getenv("ENVIRONMENT"),
	}

	if config.AdminAPIAddr == "" {
		config.AdminAPIAddr = ":8085"
	}
	if config.CircleAPIBase == "" {
		config.CircleAPIBase = "https://uma.moe/api/v4/circles"
	}

	// Override defaults if environment variables are set
	if quota := os.Getenv("DEFAULT_DAILY_QUOTA"); quota != "" {
		if parsed, err := strconv.ParseInt(quota, 10, 64); err == nil {
			config.DefaultDailyQuota = parsed
		}
	}
	if trigger := os.Getenv("DEFAULT_BOMB_TRIGGER_DAYS"); trigger != "" {
		if parsed, err := strconv.Atoi(trigger); err == nil {
			config.DefaultBombTriggerDays = parsed
		}
	}
	if countdown := os.Getenv("DEFAULT_BOMB_COUNTDOWN_DAYS"); countdown != "" {
		if parsed, err := strconv.Atoi(countdown); err == nil {
			config.DefaultBombCountdownDays = parsed
		}
	}
	if threshold := os.Getenv("DEFAULT_RESET_THRESHOLD"); threshold != "" {
		if parsed, err := strconv.ParseFloat(threshold, 64); err == nil && parsed > 0 && parsed <= 1 {
			config.DefaultResetThreshold = parsed
		}
	}
	if tz := os.Getenv("DEFAULT_TIMEZONE"); tz != "" {
		config.DefaultTimezone = tz
	}
	if stale := os.Getenv("LOCK_STALE_MINUTES"); stale != "" {
		if parsed, err := strconv.Atoi(stale); err == nil && parsed > 0 {
			config.LockStaleMinutes = parsed
		}
	}

	// Set default environment if not specified
	if config.Environment == "" {
		config.Environment = "development"
	}

	if config.Environment != "test" {
		// Validate required configuration
		if config.DiscordToken == "" {
			return nil, fmt.Errorf("DISCORD_TOKEN is required")
		}
		if config.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required")
		}
	}

	return config, nil
}
