package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/albumpages/paper-shipping/internal/database"
	"github.com/albumpages/paper-shipping/internal/rates"
)

const (
	defaultQuoteLimit = 20
	maxQuoteLimit     = 100
)

// GetShippingRates quotes the session cart to a destination and records the quote
func (h *Handler) GetShippingRates(w http.ResponseWriter, r *http.Request) {
	var addr rates.Address
	if err := decodeJSON(w, r, &addr); err != nil {
		h.errorResponse(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if err := addr.Validate(); err != nil {
		h.validationResponse(w, []string{err.Error()})
		return
	}

	_, c, err := h.loadCart(r)
	if err != nil {
		h.logger.Error("failed to load cart", zap.Error(err))
		h.errorResponse(w, http.StatusInternalServerError, "Failed to load cart")
		return
	}
	if c.IsEmpty() {
		h.errorResponse(w, http.StatusBadRequest, "Cart is empty")
		return
	}

	quote, err := h.rates.Quote(r.Context(), addr, c)
	if err != nil {
		if errors.Is(err, rates.ErrInvalidAddress) {
			h.validationResponse(w, []string{err.Error()})
			return
		}
		h.logger.Error("shipping rate calculation failed", zap.Error(err))
		h.jsonResponse(w, http.StatusInternalServerError, envelope{
			Success: false,
			Message: "Failed to calculate shipping rates",
			Data:    map[string]any{"rates": rates.FallbackRates()},
		})
		return
	}

	quoteID := h.recordQuote(addr, quote)
	h.success(w, http.StatusOK, map[string]any{
		"rates":     quote.Rates,
		"breakdown": quote.Breakdown,
		"fallback":  quote.Fallback,
		"quote_id":  quoteID,
	})
}

// recordQuote stores the quote in the history table. A failure is logged and
// the customer still gets their rates.
func (h *Handler) recordQuote(addr rates.Address, quote rates.Quote) string {
	data, err := json.Marshal(quote.Rates)
	if err != nil {
		h.logger.Warn("failed to encode quote rates", zap.Error(err))
		return ""
	}
	record := &database.QuoteRecord{
		Zip:         addr.Zip,
		PackageType: quote.Breakdown.PackageType,
		WeightOz:    quote.Breakdown.TotalWeightOz,
		Rates:       data,
		Fallback:    quote.Fallback,
	}
	if err := h.db.SaveQuote(record); err != nil {
		h.logger.Warn("failed to record quote", zap.String("zip", addr.Zip), zap.Error(err))
		return ""
	}
	return record.ID
}

// GetShippingBreakdown returns the package weight and dimensions of the session cart
func (h *Handler) GetShippingBreakdown(w http.ResponseWriter, r *http.Request) {
	_, c, err := h.loadCart(r)
	if err != nil {
		h.logger.Error("failed to load cart", zap.Error(err))
		h.errorResponse(w, http.StatusInternalServerError, "Failed to load cart")
		return
	}
	if c.IsEmpty() {
		h.errorResponse(w, http.StatusBadRequest, "Cart is empty")
		return
	}
	h.success(w, http.StatusOK, h.calc.Breakdown(c))
}

// TestCarrierConnection asks the carrier for one known rate
func (h *Handler) TestCarrierConnection(w http.ResponseWriter, r *http.Request) {
	connected := h.rates.TestConnection(r.Context())
	message := "Failed to connect to Endicia API"
	if connected {
		message = "Successfully connected to Endicia API"
	}
	h.jsonResponse(w, http.StatusOK, envelope{
		Success: connected,
		Message: message,
		Data: map[string]bool{
			"configured": h.carrier.IsConfigured(),
			"test_mode":  h.carrier.TestMode(),
		},
	})
}

// GetMailClasses describes the shipping tiers that are quoted
func (h *Handler) GetMailClasses(w http.ResponseWriter, r *http.Request) {
	h.success(w, http.StatusOK, rates.MailClasses())
}

// GetRecentQuotes lists recorded quotes, newest first
func (h *Handler) GetRecentQuotes(w http.ResponseWriter, r *http.Request) {
	limit := defaultQuoteLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			h.errorResponse(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, maxQuoteLimit)
	}

	quotes, err := h.db.GetRecentQuotes(limit)
	if err != nil {
		h.logger.Error("failed to load quotes", zap.Error(err))
		h.errorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}
	h.success(w, http.StatusOK, quotes)
}
