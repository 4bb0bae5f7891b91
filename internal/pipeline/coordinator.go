// Package pipeline wires detection, dedup, and decisioning into one
// request-to-decision flow, and runs the supporting background loops.
package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/arbiterlabs/surescan/internal/detector"
	"github.com/arbiterlabs/surescan/internal/domain"
	"github.com/arbiterlabs/surescan/internal/policy"
)

// AlertSink receives (opportunity, decision) pairs for delivery. Delivery is
// at-most-once-attempted: the coordinator never retries and never surfaces a
// delivery failure.
type AlertSink interface {
	AlertOpportunity(ctx context.Context, opp domain.Opportunity, dec domain.Decision) error
}

// CoordinatorConfig holds pipeline timing parameters.
type CoordinatorConfig struct {
	// NotifyTimeout bounds the detached fire-and-forget delivery attempt.
	NotifyTimeout time.Duration
	// Channel is the signal bus channel decisions are published on.
	Channel string
}

// Result pairs an opportunity with the decision made for it. Non-arb groups
// carry no decision.
type Result struct {
	Opportunity domain.Opportunity `json:"opportunity"`
	Decision    *domain.Decision   `json:"decision,omitempty"`
}

// Coordinator runs quote batches through detection, fingerprint dedup, and
// the decision policy. Batches are independent units of work; two batches
// only contend on the dedup cache and on shared venue heat.
type Coordinator struct {
	cfg       CoordinatorConfig
	detector  *detector.Detector
	policy    *policy.Policy
	dedup     domain.DedupCache
	alerts    AlertSink            // optional
	bus       domain.SignalBus     // optional
	decisions domain.DecisionStore // optional
	logger    *slog.Logger
}

// NewCoordinator creates a Coordinator. alerts, bus, and decisions may be nil.
func NewCoordinator(
	cfg CoordinatorConfig,
	det *detector.Detector,
	pol *policy.Policy,
	dedup domain.DedupCache,
	alerts AlertSink,
	bus domain.SignalBus,
	decisions domain.DecisionStore,
	logger *slog.Logger,
) *Coordinator {
	if cfg.NotifyTimeout <= 0 {
		cfg.NotifyTimeout = 10 * time.Second
	}
	if cfg.Channel == "" {
		cfg.Channel = "decisions"
	}
	return &Coordinator{
		cfg:       cfg,
		detector:  det,
		policy:    pol,
		dedup:     dedup,
		alerts:    alerts,
		bus:       bus,
		decisions: decisions,
		logger:    logger.With(slog.String("component", "coordinator")),
	}
}

// Process runs one quote batch to completion and returns the surviving
// results. Duplicate fingerprints within the dedup TTL are dropped without a
// decision or alert. A malformed quote rejects the whole batch; any other
// per-opportunity failure is isolated to its fingerprint.
func (c *Coordinator) Process(ctx context.Context, quotes []domain.Quote) ([]Result, error) {
	opps, err := c.detector.Detect(quotes)
	if err != nil {
		if errors.Is(err, domain.ErrValidation) {
			return nil, fmt.Errorf("coordinator: %w", err)
		}
		// Incomplete markets skip their group only.
		c.logger.Warn("detection skipped incomplete markets", slog.String("error", err.Error()))
	}

	results := make([]Result, 0, len(opps))
	for _, opp := range opps {
		if !opp.HasArb {
			results = append(results, Result{Opportunity: opp})
			continue
		}

		dup, derr := c.dedup.Seen(ctx, opp.Fingerprint)
		if derr != nil {
			// Fail open: a broken dedup backend must not stall decisions.
			c.logger.Warn("dedup check failed",
				slog.String("fingerprint", opp.Fingerprint),
				slog.String("error", derr.Error()),
			)
		}
		if dup {
			c.logger.Debug("duplicate opportunity dropped",
				slog.String("fingerprint", opp.Fingerprint),
			)
			continue
		}

		dec := c.policy.Decide(ctx, opp)
		results = append(results, Result{Opportunity: opp, Decision: &dec})

		c.record(ctx, opp, dec)
		c.publish(ctx, opp, dec)
		c.deliver(opp, dec)
	}
	return results, nil
}

// record persists the decision when a store is configured. Failures are
// logged, never propagated.
func (c *Coordinator) record(ctx context.Context, opp domain.Opportunity, dec domain.Decision) {
	if c.decisions == nil {
		return
	}
	rec := domain.DecisionRecord{
		Decision:  dec,
		EventID:   opp.EventID,
		Market:    opp.Market,
		Tier:      opp.Tier,
		ProfitPct: opp.ProfitPct,
		IsLive:    opp.IsLive,
		Venues:    opp.Venues(),
	}
	if err := c.decisions.Insert(ctx, rec); err != nil {
		c.logger.Warn("decision insert failed",
			slog.String("fingerprint", dec.Fingerprint),
			slog.String("error", err.Error()),
		)
	}
}

// publish puts the (opportunity, decision) pair on the signal bus for
// out-of-band consumers.
func (c *Coordinator) publish(ctx context.Context, opp domain.Opportunity, dec domain.Decision) {
	if c.bus == nil {
		return
	}
	payload, err := json.Marshal(Result{Opportunity: opp, Decision: &dec})
	if err != nil {
		return
	}
	if err := c.bus.Publish(ctx, c.cfg.Channel, payload); err != nil {
		c.logger.Warn("decision publish failed",
			slog.String("fingerprint", dec.Fingerprint),
			slog.String("error", err.Error()),
		)
	}
}

// deliver hands the pair to the alert collaborator on a detached context so a
// slow webhook cannot block or outlive-cancel the batch.
func (c *Coordinator) deliver(opp domain.Opportunity, dec domain.Decision) {
	if c.alerts == nil {
		return
	}
	go func() {
		nctx, cancel := context.WithTimeout(context.Background(), c.cfg.NotifyTimeout)
		defer cancel()
		if err := c.alerts.AlertOpportunity(nctx, opp, dec); err != nil {
			c.logger.Warn("alert delivery failed",
				slog.String("fingerprint", dec.Fingerprint),
				slog.String("error", err.Error()),
			)
		}
	}()
}
