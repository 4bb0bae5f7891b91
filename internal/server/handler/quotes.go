package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/arbiterlabs/surescan/internal/domain"
	"github.com/arbiterlabs/surescan/internal/pipeline"
)

// QuoteProcessor runs one quote batch through detection and decisioning.
type QuoteProcessor interface {
	Process(ctx context.Context, quotes []domain.Quote) ([]pipeline.Result, error)
}

// QuotesHandler accepts quote batches from feed adapters.
type QuotesHandler struct {
	processor QuoteProcessor
	logger    *slog.Logger
}

// NewQuotesHandler creates a QuotesHandler.
func NewQuotesHandler(processor QuoteProcessor, logger *slog.Logger) *QuotesHandler {
	return &QuotesHandler{
		processor: processor,
		logger:    logger.With(slog.String("handler", "quotes")),
	}
}

type quotesRequest struct {
	Quotes []domain.Quote `json:"quotes"`
}

// SubmitQuotes runs the posted quote batch and returns the surviving
// opportunities with their decisions.
// POST /api/quotes
func (h *QuotesHandler) SubmitQuotes(w http.ResponseWriter, r *http.Request) {
	var req quotesRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if len(req.Quotes) == 0 {
		writeError(w, http.StatusBadRequest, "quotes must not be empty")
		return
	}

	results, err := h.processor.Process(r.Context(), req.Quotes)
	if err != nil {
		if errors.Is(err, domain.ErrValidation) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.Error("quote batch failed", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "quote batch failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"results": results,
		"count":   len(results),
	})
}
