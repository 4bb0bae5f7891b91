package app

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	s3blob "github.com/arbiterlabs/surescan/internal/blob/s3"
	"github.com/arbiterlabs/surescan/internal/cache/redis"
	"github.com/arbiterlabs/surescan/internal/config"
	"github.com/arbiterlabs/surescan/internal/detector"
	"github.com/arbiterlabs/surescan/internal/domain"
	"github.com/arbiterlabs/surescan/internal/heat"
	"github.com/arbiterlabs/surescan/internal/notify"
	"github.com/arbiterlabs/surescan/internal/pipeline"
	"github.com/arbiterlabs/surescan/internal/policy"
	"github.com/arbiterlabs/surescan/internal/server"
	"github.com/arbiterlabs/surescan/internal/server/handler"
	"github.com/arbiterlabs/surescan/internal/store/postgres"
)

// Dependencies bundles everything the running application needs. It is
// constructed by Wire and torn down by the returned cleanup function.
type Dependencies struct {
	Ledger      *heat.Ledger
	Detector    *detector.Detector
	Policy      *policy.Policy
	Coordinator *pipeline.Coordinator
	Server      *server.Server

	// MemDedup is set only when Redis is not configured; its sweep loop needs
	// to run alongside the server.
	MemDedup *pipeline.MemoryDedup

	// HeatStore is set only when Postgres is configured; the flush loop
	// snapshots the ledger into it.
	HeatStore domain.HeatStore

	// Archiver is set only when both Postgres and S3 are configured.
	Archiver *pipeline.Archiver
}

// Wire constructs all concrete dependency implementations from the given
// configuration and returns them together with a cleanup function that should
// be called on shutdown to release resources.
func Wire(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	deps := &Dependencies{}

	ledger, err := heat.NewLedger(heat.Config{
		HalfLifeHours:     cfg.Heat.HalfLifeHours,
		BetIncrement:      cfg.Heat.BetIncrement,
		WinRateIncrement:  cfg.Heat.WinRateIncrement,
		DailyCapIncrement: cfg.Heat.DailyCapIncrement,
		MaxWinRate:        cfg.Heat.MaxWinRate,
		MaxArbsPerDay:     cfg.Heat.MaxArbsPerDay,
		CriticalScore:     cfg.Heat.CriticalScore,
		CoolingHours:      cfg.Heat.CoolingHours,
	}, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("wire: heat ledger: %w", err)
	}
	deps.Ledger = ledger

	deps.Detector = detector.New(detector.Config{
		TotalStake:      cfg.Detector.TotalStake,
		MinProfitPct:    cfg.Detector.MinProfitPct,
		LightningMinPct: cfg.Detector.LightningMinPct,
		FireMinPct:      cfg.Detector.FireMinPct,
		CompleteMarkets: cfg.Detector.CompleteMarkets,
	}, logger)

	// --- Redis (optional: shared dedup window and decision pub/sub) ---
	var dedup domain.DedupCache
	var bus domain.SignalBus
	dedupTTL := time.Duration(cfg.Dedup.TTLMinutes) * time.Minute
	if cfg.RedisEnabled() {
		redisClient, err := redis.New(ctx, redis.ClientConfig{
			Addr:       cfg.Redis.Addr,
			Password:   cfg.Redis.Password,
			DB:         cfg.Redis.DB,
			PoolSize:   cfg.Redis.PoolSize,
			MaxRetries: cfg.Redis.MaxRetries,
			TLSEnabled: cfg.Redis.TLSEnabled,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: redis: %w", err)
		}
		closers = append(closers, func() { _ = redisClient.Close() })

		dedup = redis.NewDedupCache(redisClient, dedupTTL)
		bus = redis.NewSignalBus(redisClient)
	} else {
		mem := pipeline.NewMemoryDedup(dedupTTL)
		deps.MemDedup = mem
		dedup = mem
	}

	// --- Postgres (optional: heat snapshots and the decision log) ---
	var decisions domain.DecisionStore
	if cfg.PostgresEnabled() {
		pgClient, err := postgres.New(ctx, postgres.ClientConfig{
			DSN:      cfg.Postgres.DSN,
			Host:     cfg.Postgres.Host,
			Port:     cfg.Postgres.Port,
			Database: cfg.Postgres.Database,
			User:     cfg.Postgres.User,
			Password: cfg.Postgres.Password,
			SSLMode:  cfg.Postgres.SSLMode,
			MaxConns: cfg.Postgres.PoolMaxConns,
			MinConns: cfg.Postgres.PoolMinConns,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: postgres: %w", err)
		}
		closers = append(closers, pgClient.Close)

		if cfg.Postgres.RunMigrations {
			if err := pgClient.RunMigrations(ctx); err != nil {
				cleanup()
				return nil, nil, fmt.Errorf("wire: postgres migrations: %w", err)
			}
		}

		heatStore := postgres.NewHeatStore(pgClient)
		deps.HeatStore = heatStore
		decisions = postgres.NewDecisionStore(pgClient)

		states, err := heatStore.LoadAll(ctx)
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: restore heat state: %w", err)
		}
		ledger.Restore(states)
	}

	// --- S3 (optional: daily decision archive; needs the decision log) ---
	if cfg.S3Enabled() && decisions != nil {
		s3Client, err := s3blob.New(ctx, s3blob.ClientConfig{
			Endpoint:       cfg.S3.Endpoint,
			Region:         cfg.S3.Region,
			Bucket:         cfg.S3.Bucket,
			AccessKey:      cfg.S3.AccessKey,
			SecretKey:      cfg.S3.SecretKey,
			UseSSL:         cfg.S3.UseSSL,
			ForcePathStyle: cfg.S3.ForcePathStyle,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: s3: %w", err)
		}
		deps.Archiver = pipeline.NewArchiver(decisions, s3blob.NewWriter(s3Client), cfg.S3.Prefix, logger)
	}

	// --- Decision policy ---
	var advisor policy.Advisor
	if cfg.AdvisorEnabled() {
		advisor = policy.NewHTTPAdvisor(policy.AdvisorConfig{
			URL:         cfg.Advisor.URL,
			APIKey:      cfg.Advisor.APIKey,
			Timeout:     time.Duration(cfg.Advisor.TimeoutSeconds) * time.Second,
			CallsPerMin: cfg.Advisor.CallsPerMin,
			BurstSize:   cfg.Advisor.BurstSize,
		})
	}

	skipProbs := make(map[domain.HeatBand]float64, len(cfg.Policy.SkipProbs))
	for band, p := range cfg.Policy.SkipProbs {
		skipProbs[domain.HeatBand(band)] = p
	}
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	pol, err := policy.New(policy.Config{
		MaxWinRate:      cfg.Policy.MaxWinRate,
		CoverBetProb:    cfg.Policy.CoverBetProb,
		DelayProb:       cfg.Policy.DelayProb,
		DelayMinSeconds: cfg.Policy.DelayMinSeconds,
		DelayMaxSeconds: cfg.Policy.DelayMaxSeconds,
		SkipProbs:       skipProbs,
		CoolingHours:    cfg.Policy.CoolingHours,
		AdvisorTimeout:  time.Duration(cfg.Advisor.TimeoutSeconds) * time.Second,
	}, ledger, advisor, rng, logger)
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("wire: policy: %w", err)
	}
	deps.Policy = pol

	// --- Alerts ---
	var senders []notify.Sender
	if cfg.Notify.SlackWebhookURL != "" {
		senders = append(senders, notify.NewSlackSender(cfg.Notify.SlackWebhookURL))
	}
	if cfg.Notify.DiscordWebhookURL != "" {
		senders = append(senders, notify.NewDiscordSender(cfg.Notify.DiscordWebhookURL))
	}
	var alerts pipeline.AlertSink
	if len(senders) > 0 {
		alerts = notify.NewNotifier(senders, domain.Tier(cfg.Notify.MinTier), logger)
	}

	deps.Coordinator = pipeline.NewCoordinator(pipeline.CoordinatorConfig{
		NotifyTimeout: time.Duration(cfg.Notify.TimeoutSeconds) * time.Second,
		Channel:       cfg.Redis.Channel,
	}, deps.Detector, pol, dedup, alerts, bus, decisions, logger)

	// --- HTTP server ---
	deps.Server = server.NewServer(server.Config{
		Port:   cfg.Server.Port,
		APIKey: cfg.Server.APIKey,
	}, server.Handlers{
		Health: handler.NewHealthHandler(logger),
		Quotes: handler.NewQuotesHandler(deps.Coordinator, logger),
		Heat:   handler.NewHeatHandler(ledger, logger),
		Promo:  handler.NewPromoHandler(logger),
	}, logger)

	return deps, cleanup, nil
}
