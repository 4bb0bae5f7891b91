package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/arbiterlabs/surescan/internal/domain"
)

// Archiver dumps each UTC day's decisions to object storage as JSONL for cold
// retention and offline analysis.
type Archiver struct {
	decisions domain.DecisionStore
	blob      domain.BlobWriter
	prefix    string
	logger    *slog.Logger

	now func() time.Time
}

// NewArchiver creates an Archiver writing under the given key prefix.
func NewArchiver(decisions domain.DecisionStore, blob domain.BlobWriter, prefix string, logger *slog.Logger) *Archiver {
	if prefix == "" {
		prefix = "decisions"
	}
	return &Archiver{
		decisions: decisions,
		blob:      blob,
		prefix:    prefix,
		logger:    logger.With(slog.String("component", "archiver")),
		now:       time.Now,
	}
}

// ArchiveDay uploads all decisions recorded on the given UTC day. Days with no
// decisions produce no object.
func (a *Archiver) ArchiveDay(ctx context.Context, day time.Time) error {
	from := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	to := from.Add(24 * time.Hour)

	recs, err := a.decisions.ListRange(ctx, from, to)
	if err != nil {
		return fmt.Errorf("archiver: list decisions for %s: %w", from.Format("2006-01-02"), err)
	}
	if len(recs) == 0 {
		a.logger.Debug("nothing to archive", slog.Time("day", from))
		return nil
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, rec := range recs {
		if err := enc.Encode(rec); err != nil {
			return fmt.Errorf("archiver: encode decision %s: %w", rec.ID, err)
		}
	}

	key := fmt.Sprintf("%s/%s.jsonl", a.prefix, from.Format("2006/01/02"))
	if err := a.blob.Put(ctx, key, &buf, "application/x-ndjson"); err != nil {
		return fmt.Errorf("archiver: upload %s: %w", key, err)
	}

	a.logger.Info("archived decisions",
		slog.String("key", key),
		slog.Int("count", len(recs)),
	)
	return nil
}

// RunDaily archives the previous UTC day shortly after each midnight, until
// the context is cancelled. A failed run is retried the next day; the store
// still holds the data.
func (a *Archiver) RunDaily(ctx context.Context) error {
	for {
		now := a.now().UTC()
		next := time.Date(now.Year(), now.Month(), now.Day(), 0, 5, 0, 0, time.UTC).Add(24 * time.Hour)

		timer := time.NewTimer(next.Sub(now))
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}

		prev := a.now().UTC().Add(-24 * time.Hour)
		if err := a.ArchiveDay(ctx, prev); err != nil {
			a.logger.Error("archive run failed", slog.String("error", err.Error()))
		}
	}
}
