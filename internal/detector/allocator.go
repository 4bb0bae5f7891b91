package detector

import (
	"fmt"

	"github.com/arbiterlabs/surescan/internal/domain"
)

// AllocateStakes sizes every leg so that all payouts are equal. The shared
// target payout is totalStake / impliedSum and each leg stakes target / price,
// which makes the stakes sum to exactly totalStake. When impliedSum < 1 the
// shared payout exceeds totalStake and the excess is the guaranteed profit.
func AllocateStakes(totalStake, impliedSum float64, legs []domain.Leg) ([]domain.Leg, error) {
	if totalStake <= 0 {
		return nil, fmt.Errorf("allocator: total_stake %.2f must be positive: %w", totalStake, domain.ErrValidation)
	}
	if impliedSum <= 0 {
		return nil, fmt.Errorf("allocator: implied probability sum %.6f must be positive: %w", impliedSum, domain.ErrValidation)
	}
	for _, l := range legs {
		if l.Price <= 1.0 {
			return nil, fmt.Errorf("allocator: price %.4f must be > 1.0 (%s @ %s): %w", l.Price, l.Selection, l.Venue, domain.ErrValidation)
		}
	}

	target := totalStake / impliedSum
	out := make([]domain.Leg, len(legs))
	for i, l := range legs {
		l.Stake = target / l.Price
		l.Payout = l.Stake * l.Price
		out[i] = l
	}
	return out, nil
}

// GuaranteedProfit returns the shared payout minus the sum of the allocated
// stakes. Positive exactly when impliedSum < 1.
func GuaranteedProfit(legs []domain.Leg) float64 {
	if len(legs) == 0 {
		return 0
	}
	var staked float64
	for _, l := range legs {
		staked += l.Stake
	}
	return legs[0].Payout - staked
}
