package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all configuration for the reddit-tracker service
type Config struct {
	// Server settings
	Port          int
	SessionSecret string

	// Reddit API settings
	RedditClientID     string
	RedditClientSecret string
	RedditUserAgent    string

	// Tracking settings
	DBPath      string
	TopN        int
	ReplyWindow time.Duration

	// Batch settings
	WorkerCount int

	// Job registry settings
	JobTTL time.Duration
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Port:               getEnvInt("PORT", 8080),
		SessionSecret:      os.Getenv("SESSION_SECRET"),
		RedditClientID:     os.Getenv("REDDIT_CLIENT_ID"),
		RedditClientSecret: os.Getenv("REDDIT_CLIENT_SECRET"),
		RedditUserAgent:    getEnv("REDDIT_USER_AGENT", "reddit-tracker/1.0"),
		DBPath:             getEnv("DB_PATH", "comment_tracker.db"),
		TopN:               getEnvInt("TOP_N_COMMENTS", 5),
		ReplyWindow:        time.Duration(getEnvInt("REPLY_WINDOW_HOURS", 72)) * time.Hour,
		WorkerCount:        getEnvInt("WORKER_COUNT", 5),
		JobTTL:             time.Duration(getEnvInt("JOB_TTL_MINUTES", 60)) * time.Minute,
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// validate checks that all required configuration is present
func (c *Config) validate() error {
	if c.RedditClientID == "" {
		return fmt.Errorf("REDDIT_CLIENT_ID is required")
	}
	if c.RedditClientSecret == "" {
		return fmt.Errorf("REDDIT_CLIENT_SECRET is required")
	}
	c.applyDefaults()
	return nil
}

func (c *Config) applyDefaults() {
	if c.TopN <= 0 {
		c.TopN = 5
	}
	if c.ReplyWindow <= 0 {
		c.ReplyWindow = 72 * time.Hour
	}
	if c.WorkerCount <= 0 {
		c.WorkerCount = 5
	}
	if c.JobTTL <= 0 {
		c.JobTTL = time.Hour
	}
}

// getEnv gets environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt gets environment variable as int with a default value
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
