package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/xxxsen/common/logger"
)

const (
	StorePostgres = "postgres"
	StoreMemory   = "memory"

	DeliveryBestEffort = "best_effort"
	DeliveryStrict     = "strict"
)

const (
	envDBDSN    = "EASYLEDGER_DB_DSN"
	envPort     = "EASYLEDGER_PORT"
	envLogLevel = "EASYLEDGER_LOG_LEVEL"
)

type Config struct {
	Port          int              `json:"port"`
	Store         string           `json:"store"`
	Database      DatabaseConfig   `json:"database"`
	LogConfig     logger.LogConfig `json:"log_config"`
	OTP           OTPConfig        `json:"otp"`
	Notifier      NotifierConfig   `json:"notifier"`
	CORSAllowlist []string         `json:"cors_allowlist"`
	RateLimit     RateLimitConfig  `json:"rate_limit"`
	Cleanup       CleanupConfig    `json:"cleanup"`
}

type DatabaseConfig struct {
	DSN      string `json:"dsn"`
	Host     string `json:"host"`
	Port     int    `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	DBName   string `json:"dbname"`
	SSLMode  string `json:"sslmode"`
}

type OTPConfig struct {
	TTLSeconds     int    `json:"ttl_seconds"`
	CodeLength     int    `json:"code_length"`
	DeliveryPolicy string `json:"delivery_policy"`
	Subject        string `json:"subject"`
}

// NotifierConfig selects a delivery channel; Data is decoded by the channel itself.
type NotifierConfig struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

type RateLimitConfig struct {
	RequestsPerSecond float64 `json:"requests_per_second"`
	Burst             int     `json:"burst"`
}

type CleanupConfig struct {
	Spec           string `json:"spec"`
	RetentionHours int    `json:"retention_hours"`
}

// LoadEnvFile loads KEY=VALUE pairs into the process environment. Existing
// variables are not overwritten.
func LoadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load env file: %w", err)
	}
	return nil
}

func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	var cfg Config
	if err := json.NewDecoder(file).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := applyEnv(&cfg); err != nil {
		return nil, err
	}
	if err := normalize(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyEnv(cfg *Config) error {
	if v := strings.TrimSpace(os.Getenv(envDBDSN)); v != "" {
		cfg.Database.DSN = v
	}
	if v := strings.TrimSpace(os.Getenv(envPort)); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s must be a number: %w", envPort, err)
		}
		cfg.Port = port
	}
	if v := strings.TrimSpace(os.Getenv(envLogLevel)); v != "" {
		cfg.LogConfig.Level = v
	}
	return nil
}

func normalize(cfg *Config) error {
	if cfg.Port == 0 {
		return fmt.Errorf("port is required")
	}
	if cfg.LogConfig.Level == "" {
		cfg.LogConfig.Level = "info"
	}
	cfg.Store = strings.ToLower(strings.TrimSpace(cfg.Store))
	if cfg.Store == "" {
		cfg.Store = StorePostgres
	}
	switch cfg.Store {
	case StorePostgres:
		if cfg.Database.DSN == "" && cfg.Database.Host == "" {
			return fmt.Errorf("database.dsn or database.host is required for postgres store")
		}
		if cfg.Database.DSN == "" && cfg.Database.Port == 0 {
			cfg.Database.Port = 5432
		}
	case StoreMemory:
	default:
		return fmt.Errorf("store must be postgres or memory")
	}

	if cfg.OTP.TTLSeconds == 0 {
		cfg.OTP.TTLSeconds = 600
	}
	if cfg.OTP.TTLSeconds < 0 {
		return fmt.Errorf("otp.ttl_seconds must be positive")
	}
	if cfg.OTP.CodeLength == 0 {
		cfg.OTP.CodeLength = 4
	}
	if cfg.OTP.CodeLength < 0 || cfg.OTP.CodeLength > 32 {
		return fmt.Errorf("otp.code_length must be between 1 and 32")
	}
	cfg.OTP.DeliveryPolicy = strings.ToLower(strings.TrimSpace(cfg.OTP.DeliveryPolicy))
	switch cfg.OTP.DeliveryPolicy {
	case "":
		cfg.OTP.DeliveryPolicy = DeliveryBestEffort
	case DeliveryBestEffort, DeliveryStrict:
	default:
		return fmt.Errorf("otp.delivery_policy must be best_effort or strict")
	}
	if cfg.OTP.Subject == "" {
		cfg.OTP.Subject = "Your verification code"
	}

	if cfg.Notifier.Type == "" {
		cfg.Notifier.Type = "log"
	}
	if cfg.RateLimit.RequestsPerSecond < 0 {
		return fmt.Errorf("rate_limit.requests_per_second must not be negative")
	}
	if cfg.RateLimit.RequestsPerSecond > 0 && cfg.RateLimit.Burst <= 0 {
		cfg.RateLimit.Burst = 1
	}
	if cfg.Cleanup.RetentionHours == 0 {
		cfg.Cleanup.RetentionHours = 24
	}
	return nil
}
