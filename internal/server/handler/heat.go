package handler

import (
	"log/slog"
	"net/http"

	"github.com/arbiterlabs/surescan/internal/domain"
	"github.com/arbiterlabs/surescan/internal/heat"
)

// HeatLedger is the slice of the ledger the HTTP surface needs.
type HeatLedger interface {
	Observe(venue string) domain.HeatState
	Record(venue string, outcome heat.Outcome, isArbBet bool) domain.HeatState
	ForceCool(venue string, hours float64) domain.HeatState
	All() []domain.HeatState
}

// HeatHandler exposes venue heat state for operator inspection and feedback.
type HeatHandler struct {
	ledger HeatLedger
	logger *slog.Logger
}

// NewHeatHandler creates a HeatHandler.
func NewHeatHandler(ledger HeatLedger, logger *slog.Logger) *HeatHandler {
	return &HeatHandler{
		ledger: ledger,
		logger: logger.With(slog.String("handler", "heat")),
	}
}

// heatView augments a snapshot with its derived band and win rate.
type heatView struct {
	domain.HeatState
	Band    domain.HeatBand `json:"band"`
	WinRate float64         `json:"win_rate"`
}

func toView(st domain.HeatState) heatView {
	return heatView{
		HeatState: st,
		Band:      st.Band(),
		WinRate:   domain.Round4(st.WinRate()),
	}
}

// ListHeat returns a decayed snapshot of every tracked venue.
// GET /api/heat
func (h *HeatHandler) ListHeat(w http.ResponseWriter, r *http.Request) {
	states := h.ledger.All()
	views := make([]heatView, 0, len(states))
	for _, st := range states {
		views = append(views, toView(st))
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"venues": views,
		"count":  len(views),
	})
}

// GetHeat returns the current state of one venue. Unknown venues materialize
// with zero heat rather than 404, matching the ledger's lazy-create behavior.
// GET /api/heat/{venue}
func (h *HeatHandler) GetHeat(w http.ResponseWriter, r *http.Request) {
	venue := r.PathValue("venue")
	if venue == "" {
		writeError(w, http.StatusBadRequest, "venue is required")
		return
	}
	writeJSON(w, http.StatusOK, toView(h.ledger.Observe(venue)))
}

type coolRequest struct {
	Hours float64 `json:"hours"`
}

// ForceCool puts a venue into a cooling period on operator request.
// POST /api/heat/{venue}/cool
func (h *HeatHandler) ForceCool(w http.ResponseWriter, r *http.Request) {
	venue := r.PathValue("venue")
	if venue == "" {
		writeError(w, http.StatusBadRequest, "venue is required")
		return
	}

	var req coolRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.Hours <= 0 {
		req.Hours = 24
	}

	h.logger.Info("operator forced cooling",
		slog.String("venue", venue),
		slog.Float64("hours", req.Hours),
	)
	writeJSON(w, http.StatusOK, toView(h.ledger.ForceCool(venue, req.Hours)))
}

type recordRequest struct {
	Outcome string `json:"outcome"`
	IsArb   bool   `json:"is_arb"`
}

// RecordOutcome feeds a settled bet result back into the ledger.
// POST /api/heat/{venue}/record
func (h *HeatHandler) RecordOutcome(w http.ResponseWriter, r *http.Request) {
	venue := r.PathValue("venue")
	if venue == "" {
		writeError(w, http.StatusBadRequest, "venue is required")
		return
	}

	var req recordRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	outcome := heat.Outcome(req.Outcome)
	if outcome != heat.OutcomeWin && outcome != heat.OutcomeLoss {
		writeError(w, http.StatusBadRequest, `outcome must be "win" or "loss"`)
		return
	}

	writeJSON(w, http.StatusOK, toView(h.ledger.Record(venue, outcome, req.IsArb)))
}
