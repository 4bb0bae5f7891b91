// Package policy decides whether a detected opportunity is acted on, given the
// anchor venue's accumulated heat. The rule chain is deterministic; the
// probabilistic rules draw from an injectable random source so behavior is
// reproducible under a fixed seed.
package policy

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/arbiterlabs/surescan/internal/domain"
	"github.com/arbiterlabs/surescan/internal/heat"
)

// Config holds the decision thresholds.
type Config struct {
	MaxWinRate      float64
	CoverBetProb    float64
	DelayProb       float64
	DelayMinSeconds int
	DelayMaxSeconds int
	// SkipProbs is the per-band probability of strategically passing on an
	// opportunity. The curve is configuration, not law: zero for cool and
	// warm, rising through the hotter bands by default.
	SkipProbs      map[domain.HeatBand]float64
	CoolingHours   float64
	AdvisorTimeout time.Duration
}

// Validate checks the thresholds.
func (c Config) Validate() error {
	if c.MaxWinRate <= 0 || c.MaxWinRate > 1 {
		return fmt.Errorf("policy: max_win_rate %.3f must be in (0, 1]: %w", c.MaxWinRate, domain.ErrConfiguration)
	}
	if c.CoverBetProb < 0 || c.CoverBetProb > 1 {
		return fmt.Errorf("policy: cover_bet_prob %.3f must be in [0, 1]: %w", c.CoverBetProb, domain.ErrConfiguration)
	}
	if c.DelayProb < 0 || c.DelayProb > 1 {
		return fmt.Errorf("policy: delay_prob %.3f must be in [0, 1]: %w", c.DelayProb, domain.ErrConfiguration)
	}
	if c.DelayMinSeconds < 0 || c.DelayMaxSeconds < c.DelayMinSeconds {
		return fmt.Errorf("policy: delay window [%d, %d] is invalid: %w", c.DelayMinSeconds, c.DelayMaxSeconds, domain.ErrConfiguration)
	}
	for band, p := range c.SkipProbs {
		if p < 0 || p > 1 {
			return fmt.Errorf("policy: skip_prob for band %s is %.3f, must be in [0, 1]: %w", band, p, domain.ErrConfiguration)
		}
	}
	if c.CoolingHours <= 0 {
		return fmt.Errorf("policy: cooling_hours %.1f must be positive: %w", c.CoolingHours, domain.ErrConfiguration)
	}
	return nil
}

// Policy evaluates opportunities against the heat ledger, optionally letting
// an external advisor override the rule-based result.
type Policy struct {
	cfg     Config
	ledger  *heat.Ledger
	advisor Advisor // optional
	logger  *slog.Logger

	rngMu sync.Mutex
	rng   domain.Rand

	now func() time.Time
}

// New creates a Policy. advisor may be nil, in which case decisions are purely
// rule-based.
func New(cfg Config, ledger *heat.Ledger, advisor Advisor, rng domain.Rand, logger *slog.Logger) (*Policy, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Policy{
		cfg:     cfg,
		ledger:  ledger,
		advisor: advisor,
		rng:     rng,
		logger:  logger.With(slog.String("component", "decision_policy")),
		now:     time.Now,
	}, nil
}

// coverMenu are the small recreational wagers suggested alongside a COVER
// decision to break the pattern of only betting +EV lines.
var coverMenu = []string{
	"small $5-15 parlay on a popular game",
	"$10-25 moneyline on a heavy favorite",
	"$5-10 player prop on a star player",
	"$10-20 same-game parlay",
}

// Decide evaluates one opportunity. The decision anchors on the leg with the
// lowest implied probability (highest price): the side a bettor would
// repeatedly re-bet, and so the one the venue is most likely to notice.
//
// Rule order: active cooling, critical heat, banded strategic skip, cover
// (win rate or random draw), take. A take may be converted into a delay to
// avoid fixed-cadence betting signatures. The advisor, when configured, may
// override the result but can never block or fail it.
func (p *Policy) Decide(ctx context.Context, opp domain.Opportunity) domain.Decision {
	venue := anchorVenue(opp)
	st := p.ledger.Observe(venue)
	now := p.now().UTC()

	dec := p.ruleDecision(opp, st, venue, now)

	if p.advisor != nil {
		if ov := p.consultAdvisor(ctx, opp, st); ov != nil {
			dec.Action = ov.Action
			dec.StakeModifier = clamp01(ov.StakeModifier)
			dec.Rationale = "advisor override: " + ov.Rationale
		}
	}
	return dec
}

func (p *Policy) ruleDecision(opp domain.Opportunity, st domain.HeatState, venue string, now time.Time) domain.Decision {
	dec := domain.Decision{
		ID:          uuid.NewString(),
		Fingerprint: opp.Fingerprint,
		DecidedAt:   now,
	}
	band := st.Band()

	// 1. Active cooling period.
	if st.Cooling(now) {
		remaining := st.CoolingUntil.Sub(now).Round(time.Minute)
		dec.Action = domain.ActionCool
		dec.StakeModifier = 0
		dec.Rationale = fmt.Sprintf("%s is cooling for another %s (heat %.0f/100)", venue, remaining, st.HeatScore)
		return dec
	}

	// 2. Critical heat forces a new cooling period.
	if band == domain.BandCritical {
		p.ledger.ForceCool(venue, p.cfg.CoolingHours)
		dec.Action = domain.ActionCool
		dec.StakeModifier = 0
		dec.Rationale = fmt.Sprintf("%s heat %.0f/100 is critical, starting %.0fh cooling", venue, st.HeatScore, p.cfg.CoolingHours)
		return dec
	}

	// 3. Strategic skip, probability rising with the heat band.
	if skipProb := p.cfg.SkipProbs[band]; skipProb > 0 && p.draw() < skipProb {
		dec.Action = domain.ActionSkip
		dec.StakeModifier = 0
		dec.Rationale = fmt.Sprintf("strategic skip (%.0f%% at band %s, heat %.0f/100) to stay recreational",
			skipProb*100, band, st.HeatScore)
		return dec
	}

	// 4. Cover bet when the win rate looks suspicious, or occasionally at
	// random to break the pattern.
	wantCover := st.WinRate() > p.cfg.MaxWinRate
	if !wantCover && p.cfg.CoverBetProb > 0 {
		wantCover = p.draw() < p.cfg.CoverBetProb
	}
	if wantCover {
		suggestion := coverMenu[p.intn(len(coverMenu))]
		dec.Action = domain.ActionCover
		dec.StakeModifier = band.StakeModifier()
		dec.Rationale = fmt.Sprintf("place a %s at %s before this arb (win rate %.0f%%, heat %.0f/100)",
			suggestion, venue, st.WinRate()*100, st.HeatScore)
		return dec
	}

	// 5. Take, at the band's stake modifier; maybe delayed.
	dec.Action = domain.ActionTake
	dec.StakeModifier = band.StakeModifier()
	dec.Rationale = fmt.Sprintf("take %.2f%% %s arb, heat %.0f/100 (band %s), stake x%.1f",
		opp.ProfitPct, opp.Tier, st.HeatScore, band, dec.StakeModifier)

	if p.cfg.DelayProb > 0 && p.draw() < p.cfg.DelayProb {
		dec.Action = domain.ActionDelay
		dec.DelaySeconds = p.cfg.DelayMinSeconds
		if spread := p.cfg.DelayMaxSeconds - p.cfg.DelayMinSeconds; spread > 0 {
			dec.DelaySeconds += p.intn(spread + 1)
		}
		dec.Rationale = fmt.Sprintf("wait %ds before placing; %s", dec.DelaySeconds, dec.Rationale)
	}
	return dec
}

func (p *Policy) consultAdvisor(ctx context.Context, opp domain.Opportunity, st domain.HeatState) *Override {
	actx, cancel := context.WithTimeout(ctx, p.cfg.AdvisorTimeout)
	defer cancel()

	ov, err := p.advisor.Advise(actx, opp, st)
	if err != nil {
		p.logger.Debug("advisory unavailable, using rule-based decision",
			slog.String("fingerprint", opp.Fingerprint),
			slog.String("error", err.Error()),
		)
		return nil
	}
	if ov == nil {
		return nil
	}
	if !domain.ValidAction(ov.Action) {
		p.logger.Warn("advisor returned unknown action, ignoring",
			slog.String("action", string(ov.Action)),
		)
		return nil
	}
	return ov
}

func (p *Policy) draw() float64 {
	p.rngMu.Lock()
	defer p.rngMu.Unlock()
	return p.rng.Float64()
}

func (p *Policy) intn(n int) int {
	p.rngMu.Lock()
	defer p.rngMu.Unlock()
	return p.rng.Intn(n)
}

// anchorVenue returns the venue of the leg with the lowest implied
// probability. Falls back to the first leg's venue when prices tie.
func anchorVenue(opp domain.Opportunity) string {
	if len(opp.Legs) == 0 {
		return ""
	}
	anchor := opp.Legs[0]
	for _, l := range opp.Legs[1:] {
		if l.Price > anchor.Price {
			anchor = l
		}
	}
	return anchor.Venue
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
