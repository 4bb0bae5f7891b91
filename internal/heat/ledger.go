// Package heat tracks per-venue risk state. Every recorded bet adds heat, heat
// decays with a configurable half-life, and a venue that runs too hot is
// forced into a cooling period during which no opportunities are taken there.
package heat

import (
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/arbiterlabs/surescan/internal/domain"
)

const dayLayout = "2006-01-02"

// Outcome is the settled result of a recorded bet.
type Outcome string

const (
	OutcomeWin  Outcome = "win"
	OutcomeLoss Outcome = "loss"
)

// Config holds the ledger thresholds. Invalid values are fatal at startup.
type Config struct {
	HalfLifeHours     float64 // heat decay half-life
	BetIncrement      float64 // heat added per recorded bet
	WinRateIncrement  float64 // extra heat when win rate exceeds MaxWinRate
	DailyCapIncrement float64 // extra heat when arb_bets_today exceeds MaxArbsPerDay
	MaxWinRate        float64
	MaxArbsPerDay     int
	CriticalScore     float64 // score at which cooling is forced
	CoolingHours      float64 // length of a forced cooling period
}

// Validate checks the thresholds.
func (c Config) Validate() error {
	if c.HalfLifeHours <= 0 {
		return fmt.Errorf("heat: half_life_hours %.2f must be positive: %w", c.HalfLifeHours, domain.ErrConfiguration)
	}
	if c.MaxWinRate <= 0 || c.MaxWinRate > 1 {
		return fmt.Errorf("heat: max_win_rate %.3f must be in (0, 1]: %w", c.MaxWinRate, domain.ErrConfiguration)
	}
	if c.MaxArbsPerDay < 1 {
		return fmt.Errorf("heat: max_arbs_per_day %d must be >= 1: %w", c.MaxArbsPerDay, domain.ErrConfiguration)
	}
	if c.CriticalScore <= 0 || c.CriticalScore > 100 {
		return fmt.Errorf("heat: critical_score %.1f must be in (0, 100]: %w", c.CriticalScore, domain.ErrConfiguration)
	}
	if c.CoolingHours <= 0 {
		return fmt.Errorf("heat: cooling_hours %.1f must be positive: %w", c.CoolingHours, domain.ErrConfiguration)
	}
	if c.BetIncrement < 0 || c.WinRateIncrement < 0 || c.DailyCapIncrement < 0 {
		return fmt.Errorf("heat: increments must be >= 0: %w", domain.ErrConfiguration)
	}
	return nil
}

// venueEntry pairs one venue's state with its own lock so operations on
// different venues never contend.
type venueEntry struct {
	mu    sync.Mutex
	state domain.HeatState
}

// Ledger is the process-wide heat state machine. The outer lock only guards
// the map shape; each venue has its own mutex, so updates to distinct venues
// proceed concurrently while updates to the same venue serialize.
type Ledger struct {
	cfg    Config
	logger *slog.Logger

	mu     sync.RWMutex
	venues map[string]*venueEntry

	now func() time.Time
}

// NewLedger creates a Ledger. Venue states are created lazily on first
// reference.
func NewLedger(cfg Config, logger *slog.Logger) (*Ledger, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Ledger{
		cfg:    cfg,
		logger: logger.With(slog.String("component", "heat_ledger")),
		venues: make(map[string]*venueEntry),
		now:    time.Now,
	}, nil
}

func (l *Ledger) entry(venue string) *venueEntry {
	l.mu.RLock()
	e, ok := l.venues[venue]
	l.mu.RUnlock()
	if ok {
		return e
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if e, ok = l.venues[venue]; ok {
		return e
	}
	e = &venueEntry{state: domain.HeatState{Venue: venue}}
	l.venues[venue] = e
	return e
}

// Observe returns the venue's current state after applying lazy decay and the
// daily counter rollover. It does not record an event.
func (l *Ledger) Observe(venue string) domain.HeatState {
	e := l.entry(venue)
	e.mu.Lock()
	defer e.mu.Unlock()
	l.refreshLocked(e, l.now().UTC())
	return e.state
}

// Record applies a settled bet outcome to the venue: decay first, then
// counters, then the heat increments, then cooling if the score crossed the
// critical threshold.
func (l *Ledger) Record(venue string, outcome Outcome, isArbBet bool) domain.HeatState {
	now := l.now().UTC()
	e := l.entry(venue)
	e.mu.Lock()
	defer e.mu.Unlock()

	l.refreshLocked(e, now)
	st := &e.state

	st.TotalBets++
	if outcome == OutcomeWin {
		st.Wins++
		st.ConsecutiveWins++
	} else {
		st.Losses++
		st.ConsecutiveWins = 0
	}
	if isArbBet {
		st.ArbBetsToday++
	}

	heat := l.cfg.BetIncrement
	if st.WinRate() > l.cfg.MaxWinRate {
		heat += l.cfg.WinRateIncrement
	}
	if st.ArbBetsToday > l.cfg.MaxArbsPerDay {
		heat += l.cfg.DailyCapIncrement
	}
	st.HeatScore = clamp(st.HeatScore+heat, 0, 100)
	st.LastEventAt = now

	if st.HeatScore >= l.cfg.CriticalScore {
		until := now.Add(time.Duration(l.cfg.CoolingHours * float64(time.Hour)))
		st.CoolingUntil = &until
		l.logger.Warn("venue entered cooling",
			slog.String("venue", venue),
			slog.Float64("heat_score", st.HeatScore),
			slog.Time("cooling_until", until),
		)
	}

	l.logger.Debug("bet recorded",
		slog.String("venue", venue),
		slog.String("outcome", string(outcome)),
		slog.Bool("is_arb", isArbBet),
		slog.Float64("heat_score", st.HeatScore),
		slog.Int("arb_bets_today", st.ArbBetsToday),
	)
	return *st
}

// ForceCool puts the venue into a cooling period regardless of its score.
func (l *Ledger) ForceCool(venue string, hours float64) domain.HeatState {
	now := l.now().UTC()
	e := l.entry(venue)
	e.mu.Lock()
	defer e.mu.Unlock()

	l.refreshLocked(e, now)
	until := now.Add(time.Duration(hours * float64(time.Hour)))
	e.state.CoolingUntil = &until
	l.logger.Info("forced cooling",
		slog.String("venue", venue),
		slog.Float64("hours", hours),
		slog.Float64("heat_score", e.state.HeatScore),
	)
	return e.state
}

// All returns a decayed snapshot of every tracked venue.
func (l *Ledger) All() []domain.HeatState {
	l.mu.RLock()
	entries := make([]*venueEntry, 0, len(l.venues))
	for _, e := range l.venues {
		entries = append(entries, e)
	}
	l.mu.RUnlock()

	now := l.now().UTC()
	out := make([]domain.HeatState, 0, len(entries))
	for _, e := range entries {
		e.mu.Lock()
		l.refreshLocked(e, now)
		out = append(out, e.state)
		e.mu.Unlock()
	}
	return out
}

// Restore seeds the ledger from persisted snapshots. Intended for startup,
// before any traffic; existing entries for the same venue are overwritten.
func (l *Ledger) Restore(states []domain.HeatState) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, st := range states {
		if st.Venue == "" {
			continue
		}
		l.venues[st.Venue] = &venueEntry{state: st}
	}
	l.logger.Info("heat state restored", slog.Int("venues", len(states)))
}

// refreshLocked applies lazy exponential decay since the last event and rolls
// the daily counters when the UTC date has advanced. LastEventAt moves forward
// with each decay application so decay never compounds twice over the same
// interval. Caller holds e.mu.
func (l *Ledger) refreshLocked(e *venueEntry, now time.Time) {
	st := &e.state

	if !st.LastEventAt.IsZero() && st.HeatScore > 0 {
		elapsedHours := now.Sub(st.LastEventAt).Hours()
		if elapsedHours > 0 {
			st.HeatScore *= math.Pow(0.5, elapsedHours/l.cfg.HalfLifeHours)
			st.LastEventAt = now
		}
	}

	today := now.Format(dayLayout)
	if st.DayBoundary != today {
		st.DayBoundary = today
		st.ArbBetsToday = 0
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
