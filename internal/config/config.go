// Package config defines the top-level configuration for the scanner and
// provides validation helpers.
package config

import (
	"fmt"
	"strings"

	"github.com/arbiterlabs/surescan/internal/domain"
)

// Config is the root configuration structure. Fields are populated from a TOML
// file and then optionally overridden by SURESCAN_* environment variables.
type Config struct {
	Server   ServerConfig   `toml:"server"`
	Redis    RedisConfig    `toml:"redis"`
	Postgres PostgresConfig `toml:"postgres"`
	S3       S3Config       `toml:"s3"`
	Detector DetectorConfig `toml:"detector"`
	Heat     HeatConfig     `toml:"heat"`
	Policy   PolicyConfig   `toml:"policy"`
	Advisor  AdvisorConfig  `toml:"advisor"`
	Dedup    DedupConfig    `toml:"dedup"`
	Notify   NotifyConfig   `toml:"notify"`
	LogLevel string         `toml:"log_level"`
}

// ServerConfig holds the operator HTTP API parameters.
type ServerConfig struct {
	Port   int    `toml:"port"`
	APIKey string `toml:"api_key"`
}

// RedisConfig holds Redis connection parameters. An empty addr disables Redis
// and falls back to the in-process dedup cache.
type RedisConfig struct {
	Addr       string `toml:"addr"`
	Password   string `toml:"password"`
	DB         int    `toml:"db"`
	PoolSize   int    `toml:"pool_size"`
	MaxRetries int    `toml:"max_retries"`
	TLSEnabled bool   `toml:"tls_enabled"`
	Channel    string `toml:"channel"` // pub/sub channel for decision events
}

// PostgresConfig holds PostgreSQL connection parameters. Leaving both dsn and
// host empty disables persistence; heat state then lives only in memory.
type PostgresConfig struct {
	DSN                  string `toml:"dsn"`
	Host                 string `toml:"host"`
	Port                 int    `toml:"port"`
	Database             string `toml:"database"`
	User                 string `toml:"user"`
	Password             string `toml:"password"`
	SSLMode              string `toml:"ssl_mode"`
	PoolMaxConns         int    `toml:"pool_max_conns"`
	PoolMinConns         int    `toml:"pool_min_conns"`
	RunMigrations        bool   `toml:"run_migrations"`
	FlushIntervalMinutes int    `toml:"flush_interval_minutes"` // heat snapshot cadence
}

// S3Config holds object storage parameters for the daily decision archive.
// An empty bucket disables archival.
type S3Config struct {
	Endpoint       string `toml:"endpoint"`
	Region         string `toml:"region"`
	Bucket         string `toml:"bucket"`
	AccessKey      string `toml:"access_key"`
	SecretKey      string `toml:"secret_key"`
	UseSSL         bool   `toml:"use_ssl"`
	ForcePathStyle bool   `toml:"force_path_style"`
	Prefix         string `toml:"prefix"`
}

// DetectorConfig holds arbitrage detection parameters.
type DetectorConfig struct {
	TotalStake      float64 `toml:"total_stake"`
	MinProfitPct    float64 `toml:"min_profit_pct"`
	LightningMinPct float64 `toml:"lightning_min_pct"`
	FireMinPct      float64 `toml:"fire_min_pct"`
	// CompleteMarkets maps a market name to the selections required for a
	// group to be considered coverable, e.g. "1x2" -> [home, draw, away].
	CompleteMarkets map[string][]string `toml:"complete_markets"`
}

// HeatConfig holds the venue heat ledger thresholds.
type HeatConfig struct {
	HalfLifeHours     float64 `toml:"half_life_hours"`
	BetIncrement      float64 `toml:"bet_increment"`
	WinRateIncrement  float64 `toml:"win_rate_increment"`
	DailyCapIncrement float64 `toml:"daily_cap_increment"`
	MaxWinRate        float64 `toml:"max_win_rate"`
	MaxArbsPerDay     int     `toml:"max_arbs_per_day"`
	CriticalScore     float64 `toml:"critical_score"`
	CoolingHours      float64 `toml:"cooling_hours"`
}

// PolicyConfig holds the decision policy thresholds.
type PolicyConfig struct {
	MaxWinRate      float64            `toml:"max_win_rate"`
	CoverBetProb    float64            `toml:"cover_bet_prob"`
	DelayProb       float64            `toml:"delay_prob"`
	DelayMinSeconds int                `toml:"delay_min_seconds"`
	DelayMaxSeconds int                `toml:"delay_max_seconds"`
	SkipProbs       map[string]float64 `toml:"skip_probs"` // keyed by heat band
	CoolingHours    float64            `toml:"cooling_hours"`
}

// AdvisorConfig holds the optional external advisory service parameters. An
// empty URL disables the advisor.
type AdvisorConfig struct {
	URL            string `toml:"url"`
	APIKey         string `toml:"api_key"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
	CallsPerMin    int    `toml:"calls_per_min"`
	BurstSize      int    `toml:"burst_size"`
}

// DedupConfig holds the fingerprint dedup window parameters.
type DedupConfig struct {
	TTLMinutes           int `toml:"ttl_minutes"`
	SweepIntervalMinutes int `toml:"sweep_interval_minutes"`
}

// NotifyConfig holds the alert webhook parameters.
type NotifyConfig struct {
	SlackWebhookURL   string `toml:"slack_webhook_url"`
	DiscordWebhookURL string `toml:"discord_webhook_url"`
	MinTier           string `toml:"min_tier"`
	TimeoutSeconds    int    `toml:"timeout_seconds"`
}

// Defaults returns a Config populated with working development defaults.
// Everything optional (redis, postgres, s3, advisor, webhooks) is off.
func Defaults() Config {
	return Config{
		Server: ServerConfig{
			Port: 8080,
		},
		Redis: RedisConfig{
			PoolSize:   10,
			MaxRetries: 3,
			Channel:    "decisions",
		},
		Postgres: PostgresConfig{
			Port:                 5432,
			SSLMode:              "disable",
			PoolMaxConns:         10,
			PoolMinConns:         2,
			RunMigrations:        true,
			FlushIntervalMinutes: 5,
		},
		S3: S3Config{
			Region: "us-east-1",
			UseSSL: true,
			Prefix: "decisions",
		},
		Detector: DetectorConfig{
			TotalStake:      1000,
			MinProfitPct:    0,
			LightningMinPct: 1.5,
			FireMinPct:      3.0,
			CompleteMarkets: map[string][]string{},
		},
		Heat: HeatConfig{
			HalfLifeHours:     18,
			BetIncrement:      6,
			WinRateIncrement:  10,
			DailyCapIncrement: 8,
			MaxWinRate:        0.72,
			MaxArbsPerDay:     12,
			CriticalScore:     90,
			CoolingHours:      24,
		},
		Policy: PolicyConfig{
			MaxWinRate:      0.72,
			CoverBetProb:    0.05,
			DelayProb:       0.25,
			DelayMinSeconds: 30,
			DelayMaxSeconds: 600,
			SkipProbs: map[string]float64{
				"elevated": 0.15,
				"hot":      0.30,
				"very_hot": 0.50,
			},
			CoolingHours: 24,
		},
		Advisor: AdvisorConfig{
			TimeoutSeconds: 3,
			CallsPerMin:    30,
			BurstSize:      5,
		},
		Dedup: DedupConfig{
			TTLMinutes:           5,
			SweepIntervalMinutes: 5,
		},
		Notify: NotifyConfig{
			MinTier:        "lightning",
			TimeoutSeconds: 10,
		},
		LogLevel: "info",
	}
}

// validLogLevels enumerates the accepted values for Config.LogLevel.
var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

var validTiers = map[string]bool{
	"info":      true,
	"lightning": true,
	"fire":      true,
}

// Validate checks Config for obviously invalid or missing values and returns a
// combined error describing every problem found. Component-level thresholds
// (heat, policy) are validated again by their constructors.
func (c *Config) Validate() error {
	var errs []string

	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		errs = append(errs, fmt.Sprintf("unknown log_level %q (valid: debug, info, warn, error)", c.LogLevel))
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server: port must be 1-65535, got %d", c.Server.Port))
	}

	if c.Redis.Addr != "" && c.Redis.PoolSize < 1 {
		errs = append(errs, "redis: pool_size must be >= 1")
	}

	if c.postgresEnabled() {
		if strings.TrimSpace(c.Postgres.DSN) == "" {
			if c.Postgres.Database == "" {
				errs = append(errs, "postgres: database must not be empty (or set postgres.dsn)")
			}
			if c.Postgres.Port <= 0 || c.Postgres.Port > 65535 {
				errs = append(errs, fmt.Sprintf("postgres: port must be 1-65535, got %d", c.Postgres.Port))
			}
		}
		if c.Postgres.PoolMaxConns < 1 {
			errs = append(errs, "postgres: pool_max_conns must be >= 1")
		}
		if c.Postgres.PoolMinConns > c.Postgres.PoolMaxConns {
			errs = append(errs, "postgres: pool_min_conns must not exceed pool_max_conns")
		}
		if c.Postgres.FlushIntervalMinutes < 1 {
			errs = append(errs, "postgres: flush_interval_minutes must be >= 1")
		}
	}

	if c.S3.Bucket != "" && c.S3.Region == "" {
		errs = append(errs, "s3: region must not be empty when a bucket is configured")
	}

	if c.Detector.TotalStake <= 0 {
		errs = append(errs, "detector: total_stake must be > 0")
	}
	if c.Detector.MinProfitPct < 0 {
		errs = append(errs, "detector: min_profit_pct must be >= 0")
	}
	if c.Detector.LightningMinPct <= 0 || c.Detector.FireMinPct <= c.Detector.LightningMinPct {
		errs = append(errs, "detector: tier thresholds must satisfy 0 < lightning_min_pct < fire_min_pct")
	}

	if c.Advisor.URL != "" {
		if c.Advisor.TimeoutSeconds < 1 {
			errs = append(errs, "advisor: timeout_seconds must be >= 1")
		}
		if c.Advisor.CallsPerMin < 1 {
			errs = append(errs, "advisor: calls_per_min must be >= 1")
		}
	}

	if c.Dedup.TTLMinutes < 1 {
		errs = append(errs, "dedup: ttl_minutes must be >= 1")
	}
	if c.Dedup.SweepIntervalMinutes < 1 {
		errs = append(errs, "dedup: sweep_interval_minutes must be >= 1")
	}

	if !validTiers[strings.ToLower(c.Notify.MinTier)] {
		errs = append(errs, fmt.Sprintf("notify: unknown min_tier %q (valid: info, lightning, fire)", c.Notify.MinTier))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s: %w", strings.Join(errs, "\n  - "), domain.ErrConfiguration)
	}
	return nil
}

func (c *Config) postgresEnabled() bool {
	return strings.TrimSpace(c.Postgres.DSN) != "" || c.Postgres.Host != ""
}

// PostgresEnabled reports whether persistence is configured.
func (c *Config) PostgresEnabled() bool { return c.postgresEnabled() }

// RedisEnabled reports whether Redis is configured.
func (c *Config) RedisEnabled() bool { return c.Redis.Addr != "" }

// S3Enabled reports whether decision archival is configured.
func (c *Config) S3Enabled() bool { return c.S3.Bucket != "" }

// AdvisorEnabled reports whether the external advisor is configured.
func (c *Config) AdvisorEnabled() bool { return c.Advisor.URL != "" }
