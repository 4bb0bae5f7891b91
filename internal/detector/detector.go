// Package detector finds riskless cross-venue arbitrage in quote batches and
// sizes the hedged legs. Detection is a pure function of its input: the same
// quotes always produce the same opportunities.
package detector

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/arbiterlabs/surescan/internal/domain"
)

// Config holds the tunable parameters for opportunity detection.
type Config struct {
	// TotalStake is the notional amount legs are sized against.
	TotalStake float64
	// MinProfitPct filters emitted opportunities only; implied sums and profit
	// are always computed on the unfiltered set. Zero disables the filter.
	MinProfitPct float64
	// FireMinPct and LightningMinPct are the tier thresholds.
	FireMinPct      float64
	LightningMinPct float64
	// CompleteMarkets maps a market key to the full selection set the caller
	// declares that market to have. A declared market whose quotes do not
	// cover every selection fails with ErrIncompleteMarket; undeclared
	// markets are taken as-is.
	CompleteMarkets map[string][]string
}

// Detector groups quotes by (event, market), picks the best price per
// selection, and classifies any arbitrage found.
type Detector struct {
	cfg    Config
	logger *slog.Logger

	now func() time.Time
}

// New creates a Detector.
func New(cfg Config, logger *slog.Logger) *Detector {
	return &Detector{
		cfg:    cfg,
		logger: logger.With(slog.String("component", "detector")),
		now:    time.Now,
	}
}

type groupKey struct {
	eventID string
	market  string
}

// Detect evaluates a quote batch and returns the opportunities that pass the
// profit filter. A malformed quote rejects the whole batch with
// ErrValidation. Declared-complete markets with missing selections are
// skipped and reported via a joined ErrIncompleteMarket; the remaining groups
// still produce opportunities. Markets with fewer than two distinct
// selections are skipped silently.
func (d *Detector) Detect(quotes []domain.Quote) ([]domain.Opportunity, error) {
	for _, q := range quotes {
		if err := q.Validate(); err != nil {
			return nil, fmt.Errorf("detector: %w", err)
		}
	}

	// Group in input order so tie-breaks stay deterministic.
	order := make([]groupKey, 0, len(quotes))
	groups := make(map[groupKey][]domain.Quote, len(quotes))
	for _, q := range quotes {
		key := groupKey{eventID: q.EventID, market: q.Market}
		if _, ok := groups[key]; !ok {
			order = append(order, key)
		}
		groups[key] = append(groups[key], q)
	}

	var opps []domain.Opportunity
	var errs []error
	for _, key := range order {
		opp, err := d.evaluateGroup(key, groups[key])
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if opp == nil {
			continue
		}
		if d.cfg.MinProfitPct > 0 && opp.ProfitPct < d.cfg.MinProfitPct {
			continue
		}
		opps = append(opps, *opp)
	}
	return opps, errors.Join(errs...)
}

// evaluateGroup computes one opportunity for a single (event, market) group.
// A nil opportunity with nil error means the group was silently skipped.
func (d *Detector) evaluateGroup(key groupKey, group []domain.Quote) (*domain.Opportunity, error) {
	// Best price per selection, first quote encountered wins ties.
	selOrder := make([]string, 0, len(group))
	best := make(map[string]domain.Quote, len(group))
	isLive := false
	for _, q := range group {
		if q.IsLive {
			isLive = true
		}
		cur, ok := best[q.Selection]
		if !ok {
			selOrder = append(selOrder, q.Selection)
			best[q.Selection] = q
			continue
		}
		if q.Price > cur.Price {
			best[q.Selection] = q
		}
	}

	if len(best) < 2 {
		d.logger.Debug("market skipped: fewer than two selections",
			slog.String("event_id", key.eventID),
			slog.String("market", key.market),
		)
		return nil, nil
	}

	if declared, ok := d.cfg.CompleteMarkets[key.market]; ok {
		if missing := missingSelections(declared, best); len(missing) > 0 {
			return nil, fmt.Errorf("detector: market %s/%s missing selections %v: %w",
				key.eventID, key.market, missing, domain.ErrIncompleteMarket)
		}
	}

	var impliedSum float64
	for _, sel := range selOrder {
		impliedSum += 1.0 / best[sel].Price
	}

	hasArb := impliedSum < 1.0
	profitPct := 0.0
	if hasArb {
		profitPct = (1.0/impliedSum - 1.0) * 100
	}

	tier := d.classify(profitPct)
	if isLive && hasArb {
		tier = tier.Promote()
	}

	venues := make([]string, 0, len(selOrder))
	for _, sel := range selOrder {
		venues = append(venues, best[sel].Venue)
	}

	opp := &domain.Opportunity{
		Fingerprint:    domain.Fingerprint(key.eventID, key.market, venues),
		EventID:        key.eventID,
		Market:         key.market,
		ImpliedProbSum: impliedSum,
		HasArb:         hasArb,
		ProfitPct:      profitPct,
		Tier:           tier,
		IsLive:         isLive,
		TotalStake:     d.cfg.TotalStake,
		DetectedAt:     d.now().UTC(),
	}

	if hasArb {
		legs := make([]domain.Leg, 0, len(selOrder))
		for _, sel := range selOrder {
			q := best[sel]
			legs = append(legs, domain.Leg{Venue: q.Venue, Selection: sel, Price: q.Price})
		}
		sized, err := AllocateStakes(d.cfg.TotalStake, impliedSum, legs)
		if err != nil {
			return nil, fmt.Errorf("detector: size %s/%s: %w", key.eventID, key.market, err)
		}
		opp.Legs = sized
		opp.GuaranteedProfit = GuaranteedProfit(sized)

		d.logger.Debug("arbitrage detected",
			slog.String("fingerprint", opp.Fingerprint),
			slog.String("event_id", key.eventID),
			slog.String("market", key.market),
			slog.Float64("profit_pct", profitPct),
			slog.String("tier", string(tier)),
			slog.Bool("is_live", isLive),
		)
	}

	return opp, nil
}

func (d *Detector) classify(profitPct float64) domain.Tier {
	switch {
	case profitPct >= d.cfg.FireMinPct:
		return domain.TierFire
	case profitPct >= d.cfg.LightningMinPct:
		return domain.TierLightning
	default:
		return domain.TierInfo
	}
}

func missingSelections(declared []string, best map[string]domain.Quote) []string {
	var missing []string
	for _, sel := range declared {
		if _, ok := best[sel]; !ok {
			missing = append(missing, sel)
		}
	}
	return missing
}
