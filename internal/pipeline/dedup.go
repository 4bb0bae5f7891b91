package pipeline

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// MemoryDedup is an in-process TTL cache of opportunity fingerprints. Expiry
// is checked lazily on lookup; Sweep exists only to bound memory growth. It is
// safe for concurrent use.
type MemoryDedup struct {
	mu   sync.Mutex
	seen map[string]time.Time // fingerprint -> first seen
	ttl  time.Duration

	now func() time.Time
}

// NewMemoryDedup creates a MemoryDedup with the given TTL window.
func NewMemoryDedup(ttl time.Duration) *MemoryDedup {
	return &MemoryDedup{
		seen: make(map[string]time.Time),
		ttl:  ttl,
		now:  time.Now,
	}
}

// Seen records the fingerprint and reports whether it was already present and
// unexpired. Check and insert happen under one lock.
func (d *MemoryDedup) Seen(_ context.Context, fingerprint string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := d.now()
	if first, ok := d.seen[fingerprint]; ok && now.Sub(first) < d.ttl {
		return true, nil
	}
	d.seen[fingerprint] = now
	return false, nil
}

// Sweep removes expired entries.
func (d *MemoryDedup) Sweep() {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := d.now()
	for fp, first := range d.seen {
		if now.Sub(first) >= d.ttl {
			delete(d.seen, fp)
		}
	}
}

// RunSweep sweeps on a ticker until the context is cancelled.
func (d *MemoryDedup) RunSweep(ctx context.Context, interval time.Duration, logger *slog.Logger) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			d.Sweep()
			logger.Debug("dedup cache swept")
		}
	}
}
