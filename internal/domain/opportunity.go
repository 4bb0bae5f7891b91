package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"
	"time"
)

// Tier is the coarse urgency classification of an opportunity.
type Tier string

const (
	TierInfo      Tier = "info"
	TierLightning Tier = "lightning"
	TierFire      Tier = "fire"
)

// Promote returns the next tier up. Fire saturates.
func (t Tier) Promote() Tier {
	switch t {
	case TierInfo:
		return TierLightning
	case TierLightning:
		return TierFire
	default:
		return TierFire
	}
}

// Leg is one sized bet on one outcome at one venue, part of a hedged
// opportunity.
type Leg struct {
	Venue     string  `json:"venue"`
	Selection string  `json:"selection"`
	Price     float64 `json:"price"`
	Stake     float64 `json:"stake"`
	Payout    float64 `json:"payout"`
}

// ImpliedProb returns the implied probability of the leg's price.
func (l Leg) ImpliedProb() float64 {
	return 1.0 / l.Price
}

// Opportunity is a derived, ephemeral view of one (event, market) group. It is
// recomputed on every detection pass and never persisted as-is.
type Opportunity struct {
	Fingerprint      string    `json:"fingerprint"`
	EventID          string    `json:"event_id"`
	Market           string    `json:"market"`
	ImpliedProbSum   float64   `json:"implied_prob_sum"`
	HasArb           bool      `json:"has_arb"`
	ProfitPct        float64   `json:"profit_pct"`
	Tier             Tier      `json:"tier"`
	IsLive           bool      `json:"is_live"`
	TotalStake       float64   `json:"total_stake"`
	GuaranteedProfit float64   `json:"guaranteed_profit"`
	Legs             []Leg     `json:"legs"`
	DetectedAt       time.Time `json:"detected_at"`
}

// Venues returns the distinct venues across the legs, in leg order.
func (o Opportunity) Venues() []string {
	seen := make(map[string]bool, len(o.Legs))
	out := make([]string, 0, len(o.Legs))
	for _, l := range o.Legs {
		if !seen[l.Venue] {
			seen[l.Venue] = true
			out = append(out, l.Venue)
		}
	}
	return out
}

// Fingerprint derives the deterministic identity of an opportunity from its
// event, market, and participating venue set. The venue set is sorted and
// de-duplicated so the same opportunity observed from reordered quotes hashes
// identically.
func Fingerprint(eventID, market string, venues []string) string {
	uniq := make(map[string]bool, len(venues))
	set := make([]string, 0, len(venues))
	for _, v := range venues {
		if !uniq[v] {
			uniq[v] = true
			set = append(set, v)
		}
	}
	sort.Strings(set)

	sum := sha256.Sum256([]byte(eventID + "|" + market + "|" + strings.Join(set, ",")))
	return hex.EncodeToString(sum[:12])
}
