package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/arbiterlabs/surescan/internal/domain"
)

// DecisionStore appends decision records for operator review and daily
// archival.
type DecisionStore struct {
	pool *pgxpool.Pool
}

// NewDecisionStore creates a DecisionStore backed by the given client.
func NewDecisionStore(c *Client) *DecisionStore {
	return &DecisionStore{pool: c.Pool()}
}

// Insert writes one decision record.
func (s *DecisionStore) Insert(ctx context.Context, rec domain.DecisionRecord) error {
	const query = `
		INSERT INTO decisions (
			id, fingerprint, event_id, market, tier, profit_pct, is_live,
			venues, action, stake_modifier, delay_seconds, rationale, decided_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

	_, err := s.pool.Exec(ctx, query,
		rec.ID, rec.Fingerprint, rec.EventID, rec.Market, string(rec.Tier),
		rec.ProfitPct, rec.IsLive, rec.Venues, string(rec.Action),
		rec.StakeModifier, rec.DelaySeconds, rec.Rationale, rec.DecidedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: insert decision %s: %w", rec.ID, err)
	}
	return nil
}

// ListRange returns decisions with decided_at in [from, to), oldest first.
func (s *DecisionStore) ListRange(ctx context.Context, from, to time.Time) ([]domain.DecisionRecord, error) {
	const query = `
		SELECT id, fingerprint, event_id, market, tier, profit_pct, is_live,
		       venues, action, stake_modifier, delay_seconds, rationale, decided_at
		FROM decisions
		WHERE decided_at >= $1 AND decided_at < $2
		ORDER BY decided_at`

	rows, err := s.pool.Query(ctx, query, from, to)
	if err != nil {
		return nil, fmt.Errorf("postgres: list decisions: %w", err)
	}
	defer rows.Close()

	var recs []domain.DecisionRecord
	for rows.Next() {
		var rec domain.DecisionRecord
		var tier, action string
		if err := rows.Scan(
			&rec.ID, &rec.Fingerprint, &rec.EventID, &rec.Market, &tier,
			&rec.ProfitPct, &rec.IsLive, &rec.Venues, &action,
			&rec.StakeModifier, &rec.DelaySeconds, &rec.Rationale, &rec.DecidedAt,
		); err != nil {
			return nil, fmt.Errorf("postgres: scan decision: %w", err)
		}
		rec.Tier = domain.Tier(tier)
		rec.Action = domain.Action(action)
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: iterate decisions: %w", err)
	}
	return recs, nil
}
