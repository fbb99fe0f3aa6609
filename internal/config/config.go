package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	Token             string
	RunChannelID      string
	DatabaseURL       string
	GuildID           string
	MigrationsPath    string
	DefaultLocale     string
	ExpiryPollMinutes int
	DefaultPoints     int64
}

// Load reads the configuration from environment variables and validates it.
func Load() (*Config, error) {
	// .env is optional when the variables come from the environment
	// (Docker, CI, etc.).
	_ = godotenv.Load()

	cfg := &Config{
		Token:          os.Getenv("TOKEN"),
		RunChannelID:   os.Getenv("RUN_CHANNEL_ID"),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		GuildID:        os.Getenv("GUILD_ID"),
		MigrationsPath: os.Getenv("MIGRATIONS_PATH"),
		DefaultLocale:  os.Getenv("DEFAULT_LOCALE"),
	}

	if v := os.Getenv("EXPIRY_POLL_MINUTES"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("config: EXPIRY_POLL_MINUTES must be a positive integer, got %q", v)
		}
		cfg.ExpiryPollMinutes = n
	}
	if v := os.Getenv("DEFAULT_POINTS"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil || n < 0 {
			return nil, fmt.Errorf("config: DEFAULT_POINTS must be a non-negative integer, got %q", v)
		}
		cfg.DefaultPoints = n
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// validate applies all the rules on the loaded configuration and fills the
// local-friendly defaults.
func (c *Config) validate() error {
	if strings.TrimSpace(c.Token) == "" {
		return fmt.Errorf("config: TOKEN is required and cannot be empty")
	}

	if strings.TrimSpace(c.RunChannelID) == "" {
		return fmt.Errorf("config: RUN_CHANNEL_ID is required and cannot be empty")
	}

	for _, r := range c.RunChannelID {
		if r < '0' || r > '9' {
			return fmt.Errorf("config: RUN_CHANNEL_ID must be a Discord channel ID (digits only)")
		}
	}

	if strings.TrimSpace(c.DatabaseURL) == "" {
		// Useful default when DATABASE_URL is not provided locally.
		c.DatabaseURL = "postgres://localhost:5432/runbot?sslmode=disable"
	}

	parsed, err := url.Parse(c.DatabaseURL)
	if err != nil {
		return fmt.Errorf("config: invalid DATABASE_URL (%q): %w", c.DatabaseURL, err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("config: invalid DATABASE_URL (%q): missing scheme or host", c.DatabaseURL)
	}

	if strings.TrimSpace(c.MigrationsPath) == "" {
		c.MigrationsPath = "migrations"
	}
	if strings.TrimSpace(c.DefaultLocale) == "" {
		c.DefaultLocale = "en"
	}
	if c.ExpiryPollMinutes == 0 {
		c.ExpiryPollMinutes = 5
	}
	if c.DefaultPoints == 0 {
		c.DefaultPoints = 10
	}

	return nil
}
