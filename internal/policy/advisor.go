package policy

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/arbiterlabs/surescan/internal/domain"
)

// Override is an advisory decision that replaces the rule-based result.
type Override struct {
	Action        domain.Action `json:"action"`
	StakeModifier float64       `json:"stake_modifier"`
	Rationale     string        `json:"rationale"`
}

// Advisor is the optional external collaborator that may override rule-based
// decisions. A nil override means "no opinion". Implementations must respect
// the context deadline; errors and timeouts are recovered by the caller.
type Advisor interface {
	Advise(ctx context.Context, opp domain.Opportunity, st domain.HeatState) (*Override, error)
}

// AdvisorConfig configures the HTTP advisor client.
type AdvisorConfig struct {
	URL         string
	APIKey      string
	Timeout     time.Duration
	CallsPerMin int // advisory call budget; excess calls are skipped, not queued
	BurstSize   int
}

// HTTPAdvisor consults an external advisory service over HTTP. Calls are
// budgeted with a client-side limiter so a flood of opportunities cannot
// hammer the service; over-budget calls return ErrAdvisoryUnavailable
// immediately and the rule-based decision stands.
type HTTPAdvisor struct {
	url     string
	apiKey  string
	client  *http.Client
	limiter *rate.Limiter
}

// NewHTTPAdvisor creates an HTTPAdvisor.
func NewHTTPAdvisor(cfg AdvisorConfig) *HTTPAdvisor {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 500 * time.Millisecond
	}
	perMin := cfg.CallsPerMin
	if perMin <= 0 {
		perMin = 60
	}
	burst := cfg.BurstSize
	if burst <= 0 {
		burst = 5
	}
	return &HTTPAdvisor{
		url:     cfg.URL,
		apiKey:  cfg.APIKey,
		client:  &http.Client{Timeout: timeout},
		limiter: rate.NewLimiter(rate.Limit(float64(perMin)/60.0), burst),
	}
}

// advisoryRequest is the narrow request contract: summaries only, never the
// full internal state.
type advisoryRequest struct {
	OpportunitySummary opportunitySummary `json:"opportunity_summary"`
	HeatSummary        heatSummary        `json:"heat_summary"`
}

type opportunitySummary struct {
	Fingerprint string  `json:"fingerprint"`
	Market      string  `json:"market"`
	ProfitPct   float64 `json:"profit_pct"`
	Tier        string  `json:"tier"`
	IsLive      bool    `json:"is_live"`
	LegCount    int     `json:"leg_count"`
}

type heatSummary struct {
	Venue           string  `json:"venue"`
	HeatScore       float64 `json:"heat_score"`
	Band            string  `json:"band"`
	WinRate         float64 `json:"win_rate"`
	TotalBets       int     `json:"total_bets"`
	ArbBetsToday    int     `json:"arb_bets_today"`
	ConsecutiveWins int     `json:"consecutive_wins"`
}

// Advise posts the summaries and parses an override. Every failure mode maps
// to ErrAdvisoryUnavailable so the policy can treat them uniformly.
func (a *HTTPAdvisor) Advise(ctx context.Context, opp domain.Opportunity, st domain.HeatState) (*Override, error) {
	if !a.limiter.Allow() {
		return nil, fmt.Errorf("advisor: call budget exhausted: %w", domain.ErrAdvisoryUnavailable)
	}

	body, err := json.Marshal(advisoryRequest{
		OpportunitySummary: opportunitySummary{
			Fingerprint: opp.Fingerprint,
			Market:      opp.Market,
			ProfitPct:   domain.Round4(opp.ProfitPct),
			Tier:        string(opp.Tier),
			IsLive:      opp.IsLive,
			LegCount:    len(opp.Legs),
		},
		HeatSummary: heatSummary{
			Venue:           st.Venue,
			HeatScore:       st.HeatScore,
			Band:            string(st.Band()),
			WinRate:         domain.Round4(st.WinRate()),
			TotalBets:       st.TotalBets,
			ArbBetsToday:    st.ArbBetsToday,
			ConsecutiveWins: st.ConsecutiveWins,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("advisor: marshal request: %w", domain.ErrAdvisoryUnavailable)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("advisor: create request: %w", domain.ErrAdvisoryUnavailable)
	}
	req.Header.Set("Content-Type", "application/json")
	if a.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+a.apiKey)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("advisor: %v: %w", err, domain.ErrAdvisoryUnavailable)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("advisor: unexpected status %d: %w", resp.StatusCode, domain.ErrAdvisoryUnavailable)
	}

	var ov Override
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<16)).Decode(&ov); err != nil {
		return nil, fmt.Errorf("advisor: decode response: %w", domain.ErrAdvisoryUnavailable)
	}
	if ov.Action == "" {
		return nil, nil // advisor declined to override
	}
	return &ov, nil
}
