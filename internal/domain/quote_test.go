package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuoteValidate(t *testing.T) {
	valid := Quote{
		EventID:   "ev1",
		Market:    "moneyline",
		Venue:     "alpha",
		Selection: "home",
		Price:     2.15,
	}
	require.NoError(t, valid.Validate())

	cases := []struct {
		name   string
		mutate func(*Quote)
	}{
		{"empty event", func(q *Quote) { q.EventID = " " }},
		{"empty market", func(q *Quote) { q.Market = "" }},
		{"empty venue", func(q *Quote) { q.Venue = "" }},
		{"empty selection", func(q *Quote) { q.Selection = "" }},
		{"price at even money floor", func(q *Quote) { q.Price = 1.0 }},
		{"negative price", func(q *Quote) { q.Price = -2.0 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			q := valid
			tc.mutate(&q)
			assert.ErrorIs(t, q.Validate(), ErrValidation)
		})
	}
}
