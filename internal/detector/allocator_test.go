package detector

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arbiterlabs/surescan/internal/domain"
)

func TestAllocateStakesEqualPayouts(t *testing.T) {
	legs := []domain.Leg{
		{Venue: "alpha", Selection: "home", Price: 2.15},
		{Venue: "beta", Selection: "away", Price: 2.05},
	}
	impliedSum := 1/2.15 + 1/2.05

	sized, err := AllocateStakes(1000, impliedSum, legs)
	require.NoError(t, err)
	require.Len(t, sized, 2)

	assert.InEpsilon(t, sized[0].Payout, sized[1].Payout, 1e-6)
	assert.InDelta(t, 1000, sized[0].Stake+sized[1].Stake, 1e-6)
	assert.InDelta(t, 49.40, GuaranteedProfit(sized), 0.01)
}

func TestAllocateStakesThreeWay(t *testing.T) {
	legs := []domain.Leg{
		{Venue: "alpha", Selection: "home", Price: 3.10},
		{Venue: "beta", Selection: "draw", Price: 3.60},
		{Venue: "gamma", Selection: "away", Price: 3.40},
	}
	impliedSum := 1/3.10 + 1/3.60 + 1/3.40

	sized, err := AllocateStakes(500, impliedSum, legs)
	require.NoError(t, err)

	assert.InEpsilon(t, sized[0].Payout, sized[1].Payout, 1e-6)
	assert.InEpsilon(t, sized[1].Payout, sized[2].Payout, 1e-6)
	assert.InDelta(t, 500, sized[0].Stake+sized[1].Stake+sized[2].Stake, 1e-6)
	assert.Positive(t, GuaranteedProfit(sized))
}

func TestAllocateStakesValidation(t *testing.T) {
	legs := []domain.Leg{{Venue: "alpha", Selection: "home", Price: 2.15}}

	_, err := AllocateStakes(0, 0.95, legs)
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = AllocateStakes(1000, 0, legs)
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = AllocateStakes(1000, 0.95, []domain.Leg{{Venue: "alpha", Selection: "home", Price: 1.0}})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestGuaranteedProfitNoLegs(t *testing.T) {
	assert.Zero(t, GuaranteedProfit(nil))
}
