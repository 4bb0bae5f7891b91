package heat

import (
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
		HalfLifeHours:     18,
		BetIncrement:      6,
		WinRateIncrement:  10,
		DailyCapIncrement: 8,
		MaxWinRate:        0.62,
		MaxArbsPerDay:     4,
		CriticalScore:     90,
		CoolingHours:      24,
	}
}

func newTestLedger(t *testing.T, cfg Config, now time.Time) *Ledger {
	t.Helper()
	l, err := NewLedger(cfg, testLogger())
	require.NoError(t, err)
	l.now = func() time.Time { return now }
	return l
}

func TestConfigValidate(t *testing.T) {
	require.NoError(t, testConfig().Validate())

	bad := testConfig()
	bad.HalfLifeHours = 0
	assert.ErrorIs(t, bad.Validate(), domain.ErrConfiguration)

	bad = testConfig()
	bad.MaxWinRate = 1.5
	assert.ErrorIs(t, bad.Validate(), domain.ErrConfiguration)

	bad = testConfig()
	bad.MaxArbsPerDay = 0
	assert.ErrorIs(t, bad.Validate(), domain.ErrConfiguration)

	bad = testConfig()
	bad.BetIncrement = -1
	assert.ErrorIs(t, bad.Validate(), domain.ErrConfiguration)
}

func TestDecayOneHalfLife(t *testing.T) {
	t0 := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	l := newTestLedger(t, testConfig(), t0)

	l.Restore([]domain.HeatState{{
		Venue:       "alpha",
		HeatScore:   80,
		LastEventAt: t0,
		DayBoundary: "2026-03-10",
	}})

	l.now = func() time.Time { return t0.Add(18 * time.Hour) }
	st := l.Observe("alpha")
	assert.InDelta(t, 40, st.HeatScore, 0.0001)
}

func TestDecayDoesNotCompound(t *testing.T) {
	t0 := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	l := newTestLedger(t, testConfig(), t0)

	l.Restore([]domain.HeatState{{
		Venue:       "alpha",
		HeatScore:   80,
		LastEventAt: t0,
		DayBoundary: "2026-03-10",
	}})

	// Two observations at the same instant must not decay twice.
	l.now = func() time.Time { return t0.Add(18 * time.Hour) }
	first := l.Observe("alpha")
	second := l.Observe("alpha")
	assert.InDelta(t, first.HeatScore, second.HeatScore, 1e-9)

	// And another half-life halves it again, from 40 to 20.
	l.now = func() time.Time { return t0.Add(36 * time.Hour) }
	st := l.Observe("alpha")
	assert.InDelta(t, 20, st.HeatScore, 0.0001)
}

func TestRecordBetIncrement(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	l := newTestLedger(t, testConfig(), now)

	st := l.Record("alpha", OutcomeLoss, false)
	assert.InDelta(t, 6, st.HeatScore, 1e-9)
	assert.Equal(t, 1, st.TotalBets)
	assert.Equal(t, 1, st.Losses)
	assert.Zero(t, st.ConsecutiveWins)
	assert.Zero(t, st.ArbBetsToday)
}

func TestRecordWinRateIncrement(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	l := newTestLedger(t, testConfig(), now)

	// A single win makes the win rate 1.0, above the 0.62 threshold.
	st := l.Record("alpha", OutcomeWin, false)
	assert.InDelta(t, 16, st.HeatScore, 1e-9)
	assert.Equal(t, 1, st.ConsecutiveWins)
	assert.InDelta(t, 1.0, st.WinRate(), 1e-9)
}

func TestRecordLossResetsStreak(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	l := newTestLedger(t, testConfig(), now)

	l.Record("alpha", OutcomeWin, false)
	l.Record("alpha", OutcomeWin, false)
	st := l.Record("alpha", OutcomeLoss, false)
	assert.Zero(t, st.ConsecutiveWins)
	assert.Equal(t, 2, st.Wins)
	assert.Equal(t, 1, st.Losses)
}

func TestRecordDailyCapIncrement(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	l := newTestLedger(t, testConfig(), now)

	// Losses only, so the win-rate increment never fires.
	var prev float64
	for i := 0; i < 4; i++ {
		prev = l.Record("alpha", OutcomeLoss, true).HeatScore
	}
	st := l.Record("alpha", OutcomeLoss, true)

	assert.Equal(t, 5, st.ArbBetsToday)
	// The bet over the daily cap adds the extra increment on top of the
	// per-bet one.
	assert.InDelta(t, prev+6+8, st.HeatScore, 1e-9)
}

func TestDailyCounterResetsOnUTCDate(t *testing.T) {
	t0 := time.Date(2026, 3, 10, 23, 0, 0, 0, time.UTC)
	l := newTestLedger(t, testConfig(), t0)

	l.Record("alpha", OutcomeLoss, true)
	l.Record("alpha", OutcomeLoss, true)
	assert.Equal(t, 2, l.Observe("alpha").ArbBetsToday)

	// Two hours later it is the next UTC day.
	l.now = func() time.Time { return t0.Add(2 * time.Hour) }
	st := l.Observe("alpha")
	assert.Zero(t, st.ArbBetsToday)
	assert.Equal(t, 2, st.TotalBets) // lifetime counters survive the rollover
}

func TestCriticalScoreForcesCooling(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	cfg := testConfig()
	cfg.CriticalScore = 10
	cfg.BetIncrement = 12
	l := newTestLedger(t, cfg, now)

	st := l.Record("alpha", OutcomeLoss, false)
	require.NotNil(t, st.CoolingUntil)
	assert.True(t, st.Cooling(now))
	assert.Equal(t, now.Add(24*time.Hour), *st.CoolingUntil)
}

func TestForceCool(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	l := newTestLedger(t, testConfig(), now)

	st := l.ForceCool("alpha", 6)
	require.NotNil(t, st.CoolingUntil)
	assert.Equal(t, now.Add(6*time.Hour), *st.CoolingUntil)
	assert.True(t, st.Cooling(now))
	assert.False(t, st.Cooling(now.Add(7*time.Hour)))
}

func TestScoreClampedAt100(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	cfg := testConfig()
	cfg.BetIncrement = 60
	l := newTestLedger(t, cfg, now)

	l.Record("alpha", OutcomeLoss, false)
	st := l.Record("alpha", OutcomeLoss, false)
	assert.InDelta(t, 100, st.HeatScore, 1e-9)
}

func TestAllSnapshotsEveryVenue(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	l := newTestLedger(t, testConfig(), now)

	l.Record("alpha", OutcomeLoss, false)
	l.Record("beta", OutcomeWin, true)

	states := l.All()
	require.Len(t, states, 2)
	venues := map[string]bool{}
	for _, st := range states {
		venues[st.Venue] = true
	}
	assert.True(t, venues["alpha"])
	assert.True(t, venues["beta"])
}

func TestRestoreOverwrites(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	l := newTestLedger(t, testConfig(), now)

	l.Record("alpha", OutcomeLoss, false)
	l.Restore([]domain.HeatState{{
		Venue:       "alpha",
		HeatScore:   42,
		TotalBets:   7,
		LastEventAt: now,
		DayBoundary: "2026-03-10",
	}})

	st := l.Observe("alpha")
	assert.InDelta(t, 42, st.HeatScore, 1e-9)
	assert.Equal(t, 7, st.TotalBets)
}
