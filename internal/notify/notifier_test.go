package notify

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arbiterlabs/surescan/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeSender struct {
	mu       sync.Mutex
	name     string
	err      error
	titles   []string
	messages []string
}

func (f *fakeSender) Send(_ context.Context, title, message string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.titles = append(f.titles, title)
	f.messages = append(f.messages, message)
	return nil
}

func (f *fakeSender) Name() string { return f.name }

func fireOpp() domain.Opportunity {
	return domain.Opportunity{
		Fingerprint:      "abc123",
		EventID:          "ev1",
		Market:           "moneyline",
		ProfitPct:        4.94,
		Tier:             domain.TierFire,
		HasArb:           true,
		TotalStake:       1000,
		GuaranteedProfit: 49.40,
		Legs: []domain.Leg{
			{Venue: "alpha", Selection: "home", Price: 2.15, Stake: 488.09, Payout: 1049.40},
			{Venue: "beta", Selection: "away", Price: 2.05, Stake: 511.90, Payout: 1049.40},
		},
	}
}

func takeDecision() domain.Decision {
	return domain.Decision{
		ID:            "d1",
		Fingerprint:   "abc123",
		Action:        domain.ActionTake,
		StakeModifier: 0.8,
		Rationale:     "take 4.94% fire arb",
	}
}

func TestAlertDeliversToAllSenders(t *testing.T) {
	a := &fakeSender{name: "slack"}
	b := &fakeSender{name: "discord"}
	n := NewNotifier([]Sender{a, b}, domain.TierLightning, testLogger())

	err := n.AlertOpportunity(context.Background(), fireOpp(), takeDecision())
	require.NoError(t, err)

	require.Len(t, a.titles, 1)
	require.Len(t, b.titles, 1)
	assert.Contains(t, a.titles[0], "FIRE")
	assert.Contains(t, a.titles[0], "+4.94%")
	assert.Contains(t, a.messages[0], "$488.09")
	assert.Contains(t, a.messages[0], "TAKE")
	assert.Contains(t, a.messages[0], "stake x0.8")
}

func TestAlertBelowMinTierDropped(t *testing.T) {
	s := &fakeSender{name: "slack"}
	n := NewNotifier([]Sender{s}, domain.TierFire, testLogger())

	opp := fireOpp()
	opp.Tier = domain.TierLightning
	require.NoError(t, n.AlertOpportunity(context.Background(), opp, takeDecision()))
	assert.Empty(t, s.titles)
}

func TestAlertSenderFailureDoesNotBlockOthers(t *testing.T) {
	broken := &fakeSender{name: "slack", err: errors.New("webhook gone")}
	ok := &fakeSender{name: "discord"}
	n := NewNotifier([]Sender{broken, ok}, domain.TierInfo, testLogger())

	err := n.AlertOpportunity(context.Background(), fireOpp(), takeDecision())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "slack")
	require.Len(t, ok.titles, 1)
}

func TestAlertDelayDecisionFormatting(t *testing.T) {
	s := &fakeSender{name: "slack"}
	n := NewNotifier([]Sender{s}, "", testLogger())

	dec := takeDecision()
	dec.Action = domain.ActionDelay
	dec.StakeModifier = 1.0
	dec.DelaySeconds = 120
	require.NoError(t, n.AlertOpportunity(context.Background(), fireOpp(), dec))

	require.Len(t, s.messages, 1)
	assert.Contains(t, s.messages[0], "DELAY")
	assert.Contains(t, s.messages[0], "after 120s")
}
