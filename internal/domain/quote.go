package domain

import (
	"fmt"
	"strings"
	"time"
)

// Quote is one normalized price observation: a single selection priced by a
// single venue at a point in time. Quotes are immutable once created and are
// not retained beyond the detection pass they arrive in.
type Quote struct {
	EventID    string    `json:"event_id"`
	Sport      string    `json:"sport,omitempty"`
	Market     string    `json:"market"`
	Venue      string    `json:"venue"`
	Selection  string    `json:"selection"`
	Price      float64   `json:"price"` // decimal odds, > 1.0
	CapturedAt time.Time `json:"captured_at"`
	IsLive     bool      `json:"is_live"`
}

// Validate checks that the quote is well formed. A malformed quote rejects the
// whole batch it arrived in.
func (q Quote) Validate() error {
	if strings.TrimSpace(q.EventID) == "" {
		return fmt.Errorf("quote: empty event_id: %w", ErrValidation)
	}
	if strings.TrimSpace(q.Market) == "" {
		return fmt.Errorf("quote: empty market for event %s: %w", q.EventID, ErrValidation)
	}
	if strings.TrimSpace(q.Venue) == "" {
		return fmt.Errorf("quote: empty venue for event %s: %w", q.EventID, ErrValidation)
	}
	if strings.TrimSpace(q.Selection) == "" {
		return fmt.Errorf("quote: empty selection for event %s: %w", q.EventID, ErrValidation)
	}
	if q.Price <= 1.0 {
		return fmt.Errorf("quote: price %.4f must be > 1.0 (%s @ %s): %w", q.Price, q.Selection, q.Venue, ErrValidation)
	}
	return nil
}
