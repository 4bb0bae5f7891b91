package domain

import (
	"context"
	"time"
)

// HeatStore persists heat state snapshots so accumulated venue heat survives a
// restart. The ledger itself is the source of truth while the process runs.
type HeatStore interface {
	UpsertAll(ctx context.Context, states []HeatState) error
	LoadAll(ctx context.Context) ([]HeatState, error)
}

// DecisionStore records decisions for operator review and archival.
type DecisionStore interface {
	Insert(ctx context.Context, rec DecisionRecord) error
	ListRange(ctx context.Context, from, to time.Time) ([]DecisionRecord, error)
}
