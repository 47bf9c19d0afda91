// package config loads application configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration.
type Config struct {
	// database: a postgres url, otherwise a sqlite file path
	DatabaseURL string

	// nats, empty disables alert streaming
	NatsURL string

	// telegram (mtproto user session)
	TGApiID   int
	TGApiHash string

	// alert delivery through the bot api
	BotToken     string
	AlertChatIDs []int64

	// ingestion
	ReportTimezone        string
	IngestQueueSize       int
	MonitorRegisteredOnly bool
	SeedFile              string

	// server
	HTTPPort int

	// logging
	LogLevel string
	LogFile  string
}

// Load reads configuration from environment variables with sensible defaults.
// A .env file in the working directory is applied first when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		DatabaseURL:           getEnv("DATABASE_URL", "telegram_content.db"),
		NatsURL:               getEnv("NATS_URL", ""),
		TGApiID:               getEnvInt("TG_API_ID", 0),
		TGApiHash:             getEnv("TG_API_HASH", ""),
		BotToken:              getEnv("BOT_TOKEN", ""),
		ReportTimezone:        getEnv("REPORT_TIMEZONE", "Europe/Moscow"),
		IngestQueueSize:       getEnvInt("INGEST_QUEUE_SIZE", 256),
		MonitorRegisteredOnly: getEnvBool("MONITOR_REGISTERED_ONLY", false),
		SeedFile:              getEnv("SEED_FILE", ""),
		HTTPPort:              getEnvInt("HTTP_PORT", 3100),
		LogLevel:              getEnv("LOG_LEVEL", "info"),
		LogFile:               getEnv("LOG_FILE", "./logs/monitor.log"),
	}

	ids, err := parseChatIDs(getEnv("ALERT_CHAT_IDS", ""))
	if err != nil {
		return nil, fmt.Errorf("ALERT_CHAT_IDS: %w", err)
	}
	cfg.AlertChatIDs = ids

	if _, err := cfg.Location(); err != nil {
		return nil, err
	}
	if cfg.IngestQueueSize <= 0 {
		cfg.IngestQueueSize = 1
	}

	return cfg, nil
}

// Location resolves ReportTimezone.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.ReportTimezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", c.ReportTimezone, err)
	}
	return loc, nil
}

func parseChatIDs(raw string) ([]int64, error) {
	var ids []int64
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid chat id %q", part)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// getEnv returns the value of an environment variable or a default value.
func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

// getEnvInt returns the integer value of an environment variable or a default.
func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return defaultVal
}
