package domain

import "time"

// Action is the outcome of evaluating an opportunity against a venue's heat.
type Action string

const (
	ActionTake  Action = "take"
	ActionSkip  Action = "skip"
	ActionCover Action = "cover" // place a small unrelated wager first
	ActionDelay Action = "delay" // take, but after a randomized backoff
	ActionCool  Action = "cool"  // venue is in a mandatory pause
)

// ValidAction reports whether a is one of the known actions. Used to sanity
// check advisory overrides before applying them.
func ValidAction(a Action) bool {
	switch a {
	case ActionTake, ActionSkip, ActionCover, ActionDelay, ActionCool:
		return true
	}
	return false
}

// Decision is the ephemeral result of the decision policy for one opportunity.
type Decision struct {
	ID            string    `json:"id"`
	Fingerprint   string    `json:"fingerprint"`
	Action        Action    `json:"action"`
	StakeModifier float64   `json:"stake_modifier"` // 0..1
	DelaySeconds  int       `json:"delay_seconds,omitempty"`
	Rationale     string    `json:"rationale"`
	DecidedAt     time.Time `json:"decided_at"`
}

// DecisionRecord is the persisted form of a decision together with the
// opportunity summary it was made for.
type DecisionRecord struct {
	Decision
	EventID   string   `json:"event_id"`
	Market    string   `json:"market"`
	Tier      Tier     `json:"tier"`
	ProfitPct float64  `json:"profit_pct"`
	IsLive    bool     `json:"is_live"`
	Venues    []string `json:"venues"`
}
