package pipeline

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryDedupSeen(t *testing.T) {
	d := NewMemoryDedup(10 * time.Minute)

	seen, err := d.Seen(context.Background(), "fp1")
	require.NoError(t, err)
	assert.False(t, seen)

	seen, err = d.Seen(context.Background(), "fp1")
	require.NoError(t, err)
	assert.True(t, seen)

	seen, err = d.Seen(context.Background(), "fp2")
	require.NoError(t, err)
	assert.False(t, seen)
}

func TestMemoryDedupExpiry(t *testing.T) {
	t0 := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	d := NewMemoryDedup(10 * time.Minute)
	d.now = func() time.Time { return t0 }

	seen, err := d.Seen(context.Background(), "fp1")
	require.NoError(t, err)
	require.False(t, seen)

	// Inside the window the fingerprint still counts as seen.
	d.now = func() time.Time { return t0.Add(9 * time.Minute) }
	seen, err = d.Seen(context.Background(), "fp1")
	require.NoError(t, err)
	assert.True(t, seen)

	// After the window it is fresh again. The check above did not extend the
	// window; the first sighting's timestamp is authoritative.
	d.now = func() time.Time { return t0.Add(10 * time.Minute) }
	seen, err = d.Seen(context.Background(), "fp1")
	require.NoError(t, err)
	assert.False(t, seen)
}

func TestMemoryDedupSweep(t *testing.T) {
	t0 := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	d := NewMemoryDedup(10 * time.Minute)
	d.now = func() time.Time { return t0 }

	_, _ = d.Seen(context.Background(), "old")
	d.now = func() time.Time { return t0.Add(5 * time.Minute) }
	_, _ = d.Seen(context.Background(), "fresh")

	d.now = func() time.Time { return t0.Add(11 * time.Minute) }
	d.Sweep()

	d.mu.Lock()
	defer d.mu.Unlock()
	assert.NotContains(t, d.seen, "old")
	assert.Contains(t, d.seen, "fresh")
}
