package domain

import (
	"fmt"
	"time"
)

// PromoType identifies the kind of promotional offer being converted.
type PromoType string

const (
	PromoFreeBet     PromoType = "free_bet"
	PromoProfitBoost PromoType = "profit_boost"
)

// PromoRequest is a single-shot conversion request. Nothing is stored.
type PromoRequest struct {
	Type       PromoType `json:"promo_type"`
	Amount     float64   `json:"amount"`
	Price      float64   `json:"price"`       // promo-side decimal odds
	HedgePrice float64   `json:"hedge_price"` // opposing-side decimal odds
	// ReturnsStake applies to free bets only: whether the stake is returned
	// with winnings.
	ReturnsStake bool `json:"returns_stake,omitempty"`
	// BoostPct applies to profit boosts only. It is surfaced in the result's
	// effective odds but does not change the hedge sizing.
	BoostPct float64 `json:"boost_pct,omitempty"`
}

// Validate checks the request parameters.
func (r PromoRequest) Validate() error {
	if r.Type != PromoFreeBet && r.Type != PromoProfitBoost {
		return fmt.Errorf("promo: unknown promo_type %q: %w", r.Type, ErrValidation)
	}
	if r.Amount <= 0 {
		return fmt.Errorf("promo: amount %.2f must be positive: %w", r.Amount, ErrValidation)
	}
	if r.Price <= 1.0 {
		return fmt.Errorf("promo: price %.4f must be > 1.0: %w", r.Price, ErrValidation)
	}
	if r.HedgePrice <= 1.0 {
		return fmt.Errorf("promo: hedge_price %.4f must be > 1.0: %w", r.HedgePrice, ErrValidation)
	}
	if r.BoostPct < 0 {
		return fmt.Errorf("promo: boost_pct %.2f must be >= 0: %w", r.BoostPct, ErrValidation)
	}
	return nil
}

// PromoResult is the hedge sizing for a promo conversion. The realized profit
// is the same whichever side wins.
type PromoResult struct {
	Type             PromoType `json:"promo_type"`
	Amount           float64   `json:"promo_amount"`
	PromoPayout      float64   `json:"promo_payout"`
	HedgeStake       float64   `json:"hedge_stake"`
	GuaranteedProfit float64   `json:"guaranteed_profit"`
	ConversionRate   float64   `json:"conversion_rate"`
	EffectiveOdds    float64   `json:"effective_odds"`
	Rationale        string    `json:"rationale"`
	ConvertedAt      time.Time `json:"converted_at"`
}
