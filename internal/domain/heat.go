package domain

import "time"

// HeatBand buckets a heat score into the ranges the decision rules act on.
type HeatBand string

const (
	BandCool     HeatBand = "cool"     // [0, 35)
	BandWarm     HeatBand = "warm"     // [35, 55)
	BandElevated HeatBand = "elevated" // [55, 70)
	BandHot      HeatBand = "hot"      // [70, 85)
	BandVeryHot  HeatBand = "very_hot" // [85, 90)
	BandCritical HeatBand = "critical" // [90, 100]
)

// BandFor maps a heat score to its band.
func BandFor(score float64) HeatBand {
	switch {
	case score < 35:
		return BandCool
	case score < 55:
		return BandWarm
	case score < 70:
		return BandElevated
	case score < 85:
		return BandHot
	case score < 90:
		return BandVeryHot
	default:
		return BandCritical
	}
}

// StakeModifier returns the stake reduction factor applied when taking an
// opportunity in this band.
func (b HeatBand) StakeModifier() float64 {
	switch b {
	case BandHot:
		return 0.8
	case BandVeryHot:
		return 0.6
	case BandCritical:
		return 0
	default:
		return 1.0
	}
}

// HeatState is the long-lived risk profile of one venue. Instances are created
// lazily on first reference and mutated only through the heat ledger.
type HeatState struct {
	Venue           string     `json:"venue"`
	HeatScore       float64    `json:"heat_score"` // 0..100
	Wins            int        `json:"wins"`
	Losses          int        `json:"losses"`
	TotalBets       int        `json:"total_bets"`
	ArbBetsToday    int        `json:"arb_bets_today"`
	ConsecutiveWins int        `json:"consecutive_wins"`
	LastEventAt     time.Time  `json:"last_event_at"`
	DayBoundary     string     `json:"day_boundary"` // UTC date of last daily reset, YYYY-MM-DD
	CoolingUntil    *time.Time `json:"cooling_until,omitempty"`
}

// WinRate returns the cumulative win rate, 0 when no bets are recorded.
func (s HeatState) WinRate() float64 {
	if s.TotalBets == 0 {
		return 0
	}
	return float64(s.Wins) / float64(s.TotalBets)
}

// Band returns the heat band for the current score.
func (s HeatState) Band() HeatBand {
	return BandFor(s.HeatScore)
}

// Cooling reports whether a cooling period is in effect at the given time.
func (s HeatState) Cooling(now time.Time) bool {
	return s.CoolingUntil != nil && now.Before(*s.CoolingUntil)
}
