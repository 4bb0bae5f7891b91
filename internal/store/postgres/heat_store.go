package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/arbiterlabs/surescan/internal/domain"
)

// HeatStore persists venue heat snapshots. The ledger flushes its full state
// here periodically and restores from it on startup.
type HeatStore struct {
	pool *pgxpool.Pool
}

// NewHeatStore creates a HeatStore backed by the given client.
func NewHeatStore(c *Client) *HeatStore {
	return &HeatStore{pool: c.Pool()}
}

// UpsertAll writes every snapshot in one batch, inserting new venues and
// overwriting existing rows.
func (s *HeatStore) UpsertAll(ctx context.Context, states []domain.HeatState) error {
	if len(states) == 0 {
		return nil
	}

	const query = `
		INSERT INTO venue_heat (
			venue, heat_score, wins, losses, total_bets, arb_bets_today,
			consecutive_wins, last_event_at, day_boundary, cooling_until, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW())
		ON CONFLICT (venue) DO UPDATE SET
			heat_score       = EXCLUDED.heat_score,
			wins             = EXCLUDED.wins,
			losses           = EXCLUDED.losses,
			total_bets       = EXCLUDED.total_bets,
			arb_bets_today   = EXCLUDED.arb_bets_today,
			consecutive_wins = EXCLUDED.consecutive_wins,
			last_event_at    = EXCLUDED.last_event_at,
			day_boundary     = EXCLUDED.day_boundary,
			cooling_until    = EXCLUDED.cooling_until,
			updated_at       = NOW()`

	batch := &pgx.Batch{}
	for _, st := range states {
		var lastEvent *time.Time
		if !st.LastEventAt.IsZero() {
			t := st.LastEventAt
			lastEvent = &t
		}
		batch.Queue(query,
			st.Venue, st.HeatScore, st.Wins, st.Losses, st.TotalBets,
			st.ArbBetsToday, st.ConsecutiveWins, lastEvent, st.DayBoundary,
			st.CoolingUntil,
		)
	}

	results := s.pool.SendBatch(ctx, batch)
	defer results.Close()
	for range states {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("postgres: upsert venue heat: %w", err)
		}
	}
	return nil
}

// LoadAll returns every stored venue snapshot.
func (s *HeatStore) LoadAll(ctx context.Context) ([]domain.HeatState, error) {
	const query = `
		SELECT venue, heat_score, wins, losses, total_bets, arb_bets_today,
		       consecutive_wins, last_event_at, day_boundary, cooling_until
		FROM venue_heat
		ORDER BY venue`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("postgres: load venue heat: %w", err)
	}
	defer rows.Close()

	var states []domain.HeatState
	for rows.Next() {
		var st domain.HeatState
		var lastEvent *time.Time
		if err := rows.Scan(
			&st.Venue, &st.HeatScore, &st.Wins, &st.Losses, &st.TotalBets,
			&st.ArbBetsToday, &st.ConsecutiveWins, &lastEvent, &st.DayBoundary,
			&st.CoolingUntil,
		); err != nil {
			return nil, fmt.Errorf("postgres: scan venue heat: %w", err)
		}
		if lastEvent != nil {
			st.LastEventAt = *lastEvent
		}
		states = append(states, st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: iterate venue heat: %w", err)
	}
	return states, nil
}
