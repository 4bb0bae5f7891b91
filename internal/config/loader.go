package config

import (
	"os"
	"strconv"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads a TOML configuration file at path, merges it on top of the
// built-in defaults, applies SURESCAN_* environment variable overrides, and
// returns the final Config. The returned Config has NOT been validated; the
// caller should invoke Config.Validate() after Load.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return nil, err
		}
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides reads well-known SURESCAN_* environment variables and
// overwrites the corresponding Config fields when a variable is set. This
// lets operators inject secrets at deploy time without touching the TOML
// file.
func applyEnvOverrides(cfg *Config) {
	// Server
	setInt(&cfg.Server.Port, "SURESCAN_SERVER_PORT")
	setStr(&cfg.Server.APIKey, "SURESCAN_SERVER_API_KEY")

	// Redis
	setStr(&cfg.Redis.Addr, "SURESCAN_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "SURESCAN_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "SURESCAN_REDIS_DB")
	setInt(&cfg.Redis.PoolSize, "SURESCAN_REDIS_POOL_SIZE")
	setBool(&cfg.Redis.TLSEnabled, "SURESCAN_REDIS_TLS_ENABLED")
	setStr(&cfg.Redis.Channel, "SURESCAN_REDIS_CHANNEL")

	// Postgres
	setStr(&cfg.Postgres.DSN, "SURESCAN_POSTGRES_DSN")
	setStr(&cfg.Postgres.Host, "SURESCAN_POSTGRES_HOST")
	setInt(&cfg.Postgres.Port, "SURESCAN_POSTGRES_PORT")
	setStr(&cfg.Postgres.Database, "SURESCAN_POSTGRES_DATABASE")
	setStr(&cfg.Postgres.User, "SURESCAN_POSTGRES_USER")
	setStr(&cfg.Postgres.Password, "SURESCAN_POSTGRES_PASSWORD")
	setStr(&cfg.Postgres.SSLMode, "SURESCAN_POSTGRES_SSL_MODE")
	setBool(&cfg.Postgres.RunMigrations, "SURESCAN_POSTGRES_RUN_MIGRATIONS")

	// S3
	setStr(&cfg.S3.Endpoint, "SURESCAN_S3_ENDPOINT")
	setStr(&cfg.S3.Region, "SURESCAN_S3_REGION")
	setStr(&cfg.S3.Bucket, "SURESCAN_S3_BUCKET")
	setStr(&cfg.S3.AccessKey, "SURESCAN_S3_ACCESS_KEY")
	setStr(&cfg.S3.SecretKey, "SURESCAN_S3_SECRET_KEY")
	setBool(&cfg.S3.UseSSL, "SURESCAN_S3_USE_SSL")
	setBool(&cfg.S3.ForcePathStyle, "SURESCAN_S3_FORCE_PATH_STYLE")

	// Detector
	setFloat64(&cfg.Detector.TotalStake, "SURESCAN_DETECTOR_TOTAL_STAKE")
	setFloat64(&cfg.Detector.MinProfitPct, "SURESCAN_DETECTOR_MIN_PROFIT_PCT")

	// Advisor
	setStr(&cfg.Advisor.URL, "SURESCAN_ADVISOR_URL")
	setStr(&cfg.Advisor.APIKey, "SURESCAN_ADVISOR_API_KEY")

	// Notify
	setStr(&cfg.Notify.SlackWebhookURL, "SURESCAN_NOTIFY_SLACK_WEBHOOK_URL")
	setStr(&cfg.Notify.DiscordWebhookURL, "SURESCAN_NOTIFY_DISCORD_WEBHOOK_URL")
	setStr(&cfg.Notify.MinTier, "SURESCAN_NOTIFY_MIN_TIER")

	// Top-level
	setStr(&cfg.LogLevel, "SURESCAN_LOG_LEVEL")
}

// Typed env-var helpers. Each only mutates the target when the environment
// variable is present and non-empty.

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setFloat64(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}
