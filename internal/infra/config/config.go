package config

import (
	"fmt"
	"os"
	"strconv"
	"strings" // For LogLevel normalization
	"time"

	"github.com/joho/godotenv"
)

// AppConfig holds all configuration for the application
type AppConfig struct {
	LogLevel    string
	Environment string

	// Contact sheet
	SheetPath  string
	SheetName  string
	OwnerEmail string         // fallback recipient when the sheet's recipient cell is blank
	Timezone   string         // display timezone for "today" and the daily trigger
	Location   *time.Location // parsed Timezone

	// Scan
	SliceSize           int
	ContinuationDelay   time.Duration
	AccumulatorTTL      time.Duration
	ReconcileInterval   time.Duration
	InstallDailyOnServe bool

	// Persistence
	StoreDriver   string // "postgres" or "sqlite"
	DatabaseURL   string
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Mail
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	MailFrom     string

	// Operator surfaces
	MetricsAddr     string
	TelegramToken   string // optional; the operator bot starts only when set
	AdminTelegramID int64
}

// Load reads configuration from environment variables and .env file (if present).
func Load() (*AppConfig, error) {
	// Attempt to load .env file. Errors are ignored if the file doesn't exist.
	// godotenv.Load will not override existing env variables.
	_ = godotenv.Load()

	cfg := &AppConfig{}
	var err error

	cfg.LogLevel = strings.ToLower(os.Getenv("LOG_LEVEL"))
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info" // Default log level
	}

	cfg.Environment = strings.ToLower(os.Getenv("ENVIRONMENT"))
	if cfg.Environment == "" {
		cfg.Environment = "development" // Default environment
	}

	cfg.SheetPath = os.Getenv("SHEET_PATH")
	if cfg.SheetPath == "" {
		return nil, fmt.Errorf("SHEET_PATH is not set")
	}
	cfg.SheetName = os.Getenv("SHEET_NAME") // empty means the workbook's active sheet

	cfg.OwnerEmail = os.Getenv("OWNER_EMAIL")
	if cfg.OwnerEmail == "" {
		return nil, fmt.Errorf("OWNER_EMAIL is not set")
	}

	cfg.Timezone = os.Getenv("TIMEZONE")
	if cfg.Timezone == "" {
		cfg.Timezone = "UTC"
	}
	cfg.Location, err = time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE: %w", err)
	}

	if cfg.SliceSize, err = intEnv("SCAN_SLICE_SIZE", 900); err != nil {
		return nil, err
	}
	if cfg.SliceSize <= 0 {
		return nil, fmt.Errorf("invalid SCAN_SLICE_SIZE: must be positive")
	}
	if cfg.ContinuationDelay, err = durationEnv("SCAN_CONTINUATION_DELAY", 2*time.Minute); err != nil {
		return nil, err
	}
	if cfg.AccumulatorTTL, err = durationEnv("SCAN_ACCUMULATOR_TTL", time.Hour); err != nil {
		return nil, err
	}
	if cfg.ReconcileInterval, err = durationEnv("SCHEDULER_RECONCILE_INTERVAL", 30*time.Second); err != nil {
		return nil, err
	}
	cfg.InstallDailyOnServe = strings.ToLower(os.Getenv("INSTALL_DAILY_ON_SERVE")) == "true"

	cfg.StoreDriver = strings.ToLower(os.Getenv("STORE_DRIVER"))
	if cfg.StoreDriver == "" {
		cfg.StoreDriver = "postgres"
	}
	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is not set")
	}

	cfg.RedisAddr = os.Getenv("REDIS_ADDR")
	if cfg.RedisAddr == "" {
		cfg.RedisAddr = "localhost:6379"
	}
	cfg.RedisPassword = os.Getenv("REDIS_PASSWORD")
	if cfg.RedisDB, err = intEnv("REDIS_DB", 0); err != nil {
		return nil, err
	}

	cfg.SMTPHost = os.Getenv("SMTP_HOST")
	if cfg.SMTPHost == "" {
		return nil, fmt.Errorf("SMTP_HOST is not set")
	}
	if cfg.SMTPPort, err = intEnv("SMTP_PORT", 587); err != nil {
		return nil, err
	}
	cfg.SMTPUsername = os.Getenv("SMTP_USERNAME")
	cfg.SMTPPassword = os.Getenv("SMTP_PASSWORD")
	cfg.MailFrom = os.Getenv("MAIL_FROM")
	if cfg.MailFrom == "" {
		cfg.MailFrom = cfg.OwnerEmail
	}

	cfg.MetricsAddr = os.Getenv("METRICS_ADDR")
	if cfg.MetricsAddr == "" {
		cfg.MetricsAddr = ":9090"
	}

	cfg.TelegramToken = os.Getenv("TELEGRAM_TOKEN")
	if adminIDStr := os.Getenv("ADMIN_TELEGRAM_ID"); adminIDStr != "" {
		cfg.AdminTelegramID, err = strconv.ParseInt(adminIDStr, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid ADMIN_TELEGRAM_ID: %w", err)
		}
	}
	if cfg.TelegramToken != "" && cfg.AdminTelegramID == 0 {
		return nil, fmt.Errorf("ADMIN_TELEGRAM_ID is required when TELEGRAM_TOKEN is set")
	}

	return cfg, nil
}

func intEnv(key string, def int) (int, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return v, nil
}

func durationEnv(key string, def time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def, nil
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	if v <= 0 {
		return 0, fmt.Errorf("invalid %s: must be positive", key)
	}
	return v, nil
}
