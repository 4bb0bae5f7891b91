package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/arbiterlabs/surescan/internal/detector"
	"github.com/arbiterlabs/surescan/internal/domain"
)

// PromoHandler converts promotional offers into hedged cash.
type PromoHandler struct {
	logger *slog.Logger
}

// NewPromoHandler creates a PromoHandler.
func NewPromoHandler(logger *slog.Logger) *PromoHandler {
	return &PromoHandler{logger: logger.With(slog.String("handler", "promo"))}
}

// Convert sizes the hedge for the posted promo and returns the locked-in
// outcome.
// POST /api/promo/convert
func (h *PromoHandler) Convert(w http.ResponseWriter, r *http.Request) {
	var req domain.PromoRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	result, err := detector.ConvertPromo(req)
	if err != nil {
		if errors.Is(err, domain.ErrValidation) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.Error("promo conversion failed", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "promo conversion failed")
		return
	}

	writeJSON(w, http.StatusOK, result)
}
