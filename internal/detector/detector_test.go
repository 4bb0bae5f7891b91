package detector

import (
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arbiterlabs/surescan/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testConfig() Config {
	return Config{
		TotalStake:      1000,
		LightningMinPct: 1.5,
		FireMinPct:      3.0,
	}
}

func quote(event, market, venue, sel string, price float64, live bool) domain.Quote {
	return domain.Quote{
		EventID:    event,
		Market:     market,
		Venue:      venue,
		Selection:  sel,
		Price:      price,
		CapturedAt: time.Now().UTC(),
		IsLive:     live,
	}
}

func TestDetectTwoLegArb(t *testing.T) {
	d := New(testConfig(), testLogger())

	opps, err := d.Detect([]domain.Quote{
		quote("ev1", "moneyline", "alpha", "home", 2.15, false),
		quote("ev1", "moneyline", "beta", "away", 2.05, false),
	})
	require.NoError(t, err)
	require.Len(t, opps, 1)

	opp := opps[0]
	assert.True(t, opp.HasArb)
	assert.InDelta(t, 0.95292, opp.ImpliedProbSum, 0.00001)
	assert.InDelta(t, 4.94, opp.ProfitPct, 0.01)
	assert.Equal(t, domain.TierFire, opp.Tier)
	assert.NotEmpty(t, opp.Fingerprint)

	require.Len(t, opp.Legs, 2)
	assert.InDelta(t, 488.09, opp.Legs[0].Stake, 0.01)
	assert.InDelta(t, 511.90, opp.Legs[1].Stake, 0.01)

	// Payouts equalize and the excess over the total stake is the profit.
	assert.InEpsilon(t, opp.Legs[0].Payout, opp.Legs[1].Payout, 1e-6)
	assert.InDelta(t, 1049.40, opp.Legs[0].Payout, 0.01)
	assert.InDelta(t, 49.40, opp.GuaranteedProfit, 0.01)
	assert.InDelta(t, 1000, opp.Legs[0].Stake+opp.Legs[1].Stake, 1e-6)
}

func TestDetectNoArb(t *testing.T) {
	d := New(testConfig(), testLogger())

	opps, err := d.Detect([]domain.Quote{
		quote("ev1", "moneyline", "alpha", "home", 1.90, false),
		quote("ev1", "moneyline", "beta", "away", 1.90, false),
	})
	require.NoError(t, err)
	require.Len(t, opps, 1)

	opp := opps[0]
	assert.False(t, opp.HasArb)
	assert.Greater(t, opp.ImpliedProbSum, 1.0)
	assert.Zero(t, opp.ProfitPct)
	assert.Empty(t, opp.Legs)
	assert.Zero(t, opp.GuaranteedProfit)
	assert.Equal(t, domain.TierInfo, opp.Tier)
}

func TestDetectLiveBoost(t *testing.T) {
	// 2.05 / 2.05 gives a 2.5% edge: lightning pre-market, fire in play.
	pre := []domain.Quote{
		quote("ev1", "moneyline", "alpha", "home", 2.05, false),
		quote("ev1", "moneyline", "beta", "away", 2.05, false),
	}
	live := []domain.Quote{
		quote("ev1", "moneyline", "alpha", "home", 2.05, true),
		quote("ev1", "moneyline", "beta", "away", 2.05, false),
	}

	d := New(testConfig(), testLogger())

	opps, err := d.Detect(pre)
	require.NoError(t, err)
	require.Len(t, opps, 1)
	assert.Equal(t, domain.TierLightning, opps[0].Tier)
	assert.False(t, opps[0].IsLive)

	opps, err = d.Detect(live)
	require.NoError(t, err)
	require.Len(t, opps, 1)
	assert.Equal(t, domain.TierFire, opps[0].Tier)
	assert.True(t, opps[0].IsLive)
}

func TestDetectLiveBoostSaturates(t *testing.T) {
	d := New(testConfig(), testLogger())

	opps, err := d.Detect([]domain.Quote{
		quote("ev1", "moneyline", "alpha", "home", 2.15, true),
		quote("ev1", "moneyline", "beta", "away", 2.05, false),
	})
	require.NoError(t, err)
	require.Len(t, opps, 1)
	assert.Equal(t, domain.TierFire, opps[0].Tier)
}

func TestDetectLiveNonArbNotBoosted(t *testing.T) {
	d := New(testConfig(), testLogger())

	opps, err := d.Detect([]domain.Quote{
		quote("ev1", "moneyline", "alpha", "home", 1.90, true),
		quote("ev1", "moneyline", "beta", "away", 1.90, false),
	})
	require.NoError(t, err)
	require.Len(t, opps, 1)
	assert.Equal(t, domain.TierInfo, opps[0].Tier)
}

func TestDetectMalformedQuoteRejectsBatch(t *testing.T) {
	d := New(testConfig(), testLogger())

	opps, err := d.Detect([]domain.Quote{
		quote("ev1", "moneyline", "alpha", "home", 2.15, false),
		quote("ev2", "moneyline", "beta", "away", 1.0, false),
	})
	require.ErrorIs(t, err, domain.ErrValidation)
	assert.Nil(t, opps)
}

func TestDetectIncompleteMarketSkipsGroupOnly(t *testing.T) {
	cfg := testConfig()
	cfg.CompleteMarkets = map[string][]string{
		"1x2": {"home", "draw", "away"},
	}
	d := New(cfg, testLogger())

	opps, err := d.Detect([]domain.Quote{
		// Declared-complete market missing its draw leg.
		quote("ev1", "1x2", "alpha", "home", 3.10, false),
		quote("ev1", "1x2", "beta", "away", 3.20, false),
		// Healthy undeclared market in the same batch.
		quote("ev2", "moneyline", "alpha", "home", 2.15, false),
		quote("ev2", "moneyline", "beta", "away", 2.05, false),
	})
	require.ErrorIs(t, err, domain.ErrIncompleteMarket)
	require.Len(t, opps, 1)
	assert.Equal(t, "ev2", opps[0].EventID)
}

func TestDetectSingleSelectionSkippedSilently(t *testing.T) {
	d := New(testConfig(), testLogger())

	opps, err := d.Detect([]domain.Quote{
		quote("ev1", "moneyline", "alpha", "home", 2.15, false),
		quote("ev1", "moneyline", "beta", "home", 2.20, false),
	})
	require.NoError(t, err)
	assert.Empty(t, opps)
}

func TestDetectBestPricePerSelection(t *testing.T) {
	d := New(testConfig(), testLogger())

	opps, err := d.Detect([]domain.Quote{
		quote("ev1", "moneyline", "alpha", "home", 2.05, false),
		quote("ev1", "moneyline", "gamma", "home", 2.15, false),
		quote("ev1", "moneyline", "beta", "away", 2.05, false),
		quote("ev1", "moneyline", "delta", "away", 2.05, false), // tie, first wins
	})
	require.NoError(t, err)
	require.Len(t, opps, 1)

	require.Len(t, opps[0].Legs, 2)
	assert.Equal(t, "gamma", opps[0].Legs[0].Venue)
	assert.Equal(t, 2.15, opps[0].Legs[0].Price)
	assert.Equal(t, "beta", opps[0].Legs[1].Venue)
}

func TestDetectMinProfitFilter(t *testing.T) {
	cfg := testConfig()
	cfg.MinProfitPct = 3.0
	d := New(cfg, testLogger())

	opps, err := d.Detect([]domain.Quote{
		// 2.5% edge, below the filter.
		quote("ev1", "moneyline", "alpha", "home", 2.05, false),
		quote("ev1", "moneyline", "beta", "away", 2.05, false),
		// 4.94% edge, passes.
		quote("ev2", "moneyline", "alpha", "home", 2.15, false),
		quote("ev2", "moneyline", "beta", "away", 2.05, false),
	})
	require.NoError(t, err)
	require.Len(t, opps, 1)
	assert.Equal(t, "ev2", opps[0].EventID)
}

func TestDetectDeterministicFingerprint(t *testing.T) {
	d := New(testConfig(), testLogger())

	batch := []domain.Quote{
		quote("ev1", "moneyline", "alpha", "home", 2.15, false),
		quote("ev1", "moneyline", "beta", "away", 2.05, false),
	}
	reordered := []domain.Quote{batch[1], batch[0]}

	first, err := d.Detect(batch)
	require.NoError(t, err)
	second, err := d.Detect(reordered)
	require.NoError(t, err)

	require.Len(t, first, 1)
	require.Len(t, second, 1)
	assert.Equal(t, first[0].Fingerprint, second[0].Fingerprint)
}

func TestDetectStakeScaling(t *testing.T) {
	batch := []domain.Quote{
		quote("ev1", "moneyline", "alpha", "home", 2.15, false),
		quote("ev1", "moneyline", "beta", "away", 2.05, false),
	}

	small := New(testConfig(), testLogger())
	cfg := testConfig()
	cfg.TotalStake = 2000
	big := New(cfg, testLogger())

	so, err := small.Detect(batch)
	require.NoError(t, err)
	bo, err := big.Detect(batch)
	require.NoError(t, err)

	require.Len(t, so, 1)
	require.Len(t, bo, 1)

	// Profit percentage is scale-free; absolute figures double.
	assert.InDelta(t, so[0].ProfitPct, bo[0].ProfitPct, 1e-9)
	assert.InDelta(t, 2*so[0].GuaranteedProfit, bo[0].GuaranteedProfit, 1e-6)
	for i := range so[0].Legs {
		assert.InDelta(t, 2*so[0].Legs[i].Stake, bo[0].Legs[i].Stake, 1e-6)
	}
}

func TestDetectJoinedIncompleteErrors(t *testing.T) {
	cfg := testConfig()
	cfg.CompleteMarkets = map[string][]string{"1x2": {"home", "draw", "away"}}
	d := New(cfg, testLogger())

	_, err := d.Detect([]domain.Quote{
		quote("ev1", "1x2", "alpha", "home", 3.10, false),
		quote("ev1", "1x2", "alpha", "away", 3.10, false),
		quote("ev2", "1x2", "beta", "home", 3.10, false),
		quote("ev2", "1x2", "beta", "draw", 3.40, false),
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrIncompleteMarket))
}
