package pipeline

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arbiterlabs/surescan/internal/domain"
)

type capturingBlob struct {
	mu   sync.Mutex
	keys []string
	data map[string][]byte
}

func (b *capturingBlob) Put(_ context.Context, path string, data io.Reader, _ string) error {
	buf, err := io.ReadAll(data)
	if err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.data == nil {
		b.data = make(map[string][]byte)
	}
	b.keys = append(b.keys, path)
	b.data[path] = buf
	return nil
}

func decisionAt(id string, at time.Time) domain.DecisionRecord {
	return domain.DecisionRecord{
		Decision: domain.Decision{
			ID:          id,
			Fingerprint: "fp-" + id,
			Action:      domain.ActionTake,
			DecidedAt:   at,
		},
		EventID: "ev1",
		Market:  "moneyline",
		Tier:    domain.TierFire,
		Venues:  []string{"alpha", "beta"},
	}
}

func TestArchiveDayWritesJSONL(t *testing.T) {
	day := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	store := &recordingStore{recs: []domain.DecisionRecord{
		decisionAt("a", day.Add(2*time.Hour)),
		decisionAt("b", day.Add(20*time.Hour)),
		decisionAt("c", day.Add(26*time.Hour)), // next day, excluded
	}}
	blob := &capturingBlob{}
	a := NewArchiver(store, blob, "decisions", testLogger())

	require.NoError(t, a.ArchiveDay(context.Background(), day))

	require.Len(t, blob.keys, 1)
	assert.Equal(t, "decisions/2026/03/10.jsonl", blob.keys[0])

	// One JSON document per line, in decided order.
	var ids []string
	sc := bufio.NewScanner(bytes.NewReader(blob.data[blob.keys[0]]))
	for sc.Scan() {
		var rec domain.DecisionRecord
		require.NoError(t, json.Unmarshal(sc.Bytes(), &rec))
		ids = append(ids, rec.ID)
	}
	assert.Equal(t, []string{"a", "b"}, ids)
}

func TestArchiveDayEmptySkipsUpload(t *testing.T) {
	blob := &capturingBlob{}
	a := NewArchiver(&recordingStore{}, blob, "", testLogger())

	day := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	require.NoError(t, a.ArchiveDay(context.Background(), day))
	assert.Empty(t, blob.keys)
}
