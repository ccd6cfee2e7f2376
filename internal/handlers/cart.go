package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/sessions"
	"go.uber.org/zap"

	"github.com/albumpages/paper-shipping/internal/cart"
)

// cartView is the cart as returned to clients
type cartView struct {
	Lines     []cart.Line `json:"lines"`
	Subtotal  float64     `json:"subtotal"`
	ItemCount int         `json:"item_count"`
}

func viewOf(c *cart.Cart) cartView {
	lines := c.Lines
	if lines == nil {
		lines = []cart.Line{}
	}
	count := 0
	for _, line := range lines {
		count += line.Qty()
	}
	return cartView{Lines: lines, Subtotal: c.Subtotal(), ItemCount: count}
}

func (h *Handler) loadCart(r *http.Request) (*sessions.Session, *cart.Cart, error) {
	session, err := h.sessions.Get(r, h.sessionName)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load session: %w", err)
	}
	return session, cart.Load(session), nil
}

func (h *Handler) saveCart(w http.ResponseWriter, r *http.Request, session *sessions.Session, c *cart.Cart) error {
	if err := cart.Store(session, c); err != nil {
		return err
	}
	if err := session.Save(r, w); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// cartLineRequest is the body of POST /api/cart
type cartLineRequest struct {
	Country     string       `json:"country"`
	Period      string       `json:"period"`
	Quantity    *int         `json:"quantity"`
	OrderGroups []cart.Group `json:"order_groups"`
}

func (req cartLineRequest) check() []string {
	var problems []string
	switch {
	case req.Quantity == nil:
		problems = append(problems, "The quantity field is required.")
	case *req.Quantity < 1:
		problems = append(problems, "The quantity field must be at least 1.")
	}
	if len(req.OrderGroups) == 0 {
		problems = append(problems, "The order_groups field is required.")
	}
	for i, group := range req.OrderGroups {
		if group.TotalPages < 1 {
			problems = append(problems, fmt.Sprintf("The order_groups.%d.totalPages field must be at least 1.", i))
		}
	}
	return problems
}

// GetCart returns the session cart
func (h *Handler) GetCart(w http.ResponseWriter, r *http.Request) {
	_, c, err := h.loadCart(r)
	if err != nil {
		h.logger.Error("failed to load cart", zap.Error(err))
		h.errorResponse(w, http.StatusInternalServerError, "Failed to load cart")
		return
	}
	h.success(w, http.StatusOK, viewOf(c))
}

// AddToCart prices a line from its paper choices and appends it
func (h *Handler) AddToCart(w http.ResponseWriter, r *http.Request) {
	var req cartLineRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.errorResponse(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if problems := req.check(); len(problems) > 0 {
		h.validationResponse(w, problems)
		return
	}

	line := cart.Line{
		Country:     req.Country,
		Period:      req.Period,
		Quantity:    req.Quantity,
		OrderGroups: req.OrderGroups,
	}
	total, err := cart.Price(h.resolver, line)
	if err != nil {
		h.configurationError(w, err)
		return
	}
	line.Total = total

	session, c, err := h.loadCart(r)
	if err != nil {
		h.logger.Error("failed to load cart", zap.Error(err))
		h.errorResponse(w, http.StatusInternalServerError, "Failed to load cart")
		return
	}
	added := c.Add(line)
	if err := h.saveCart(w, r, session, c); err != nil {
		h.logger.Error("failed to save cart", zap.Error(err))
		h.errorResponse(w, http.StatusInternalServerError, "Failed to save cart")
		return
	}

	h.success(w, http.StatusCreated, map[string]any{
		"line": added,
		"cart": viewOf(c),
	})
}

// cartQuantityRequest is the body of PATCH /api/cart/{id}
type cartQuantityRequest struct {
	Quantity *int `json:"quantity"`
}

// UpdateCartLine changes the quantity of a line
func (h *Handler) UpdateCartLine(w http.ResponseWriter, r *http.Request) {
	var req cartQuantityRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.errorResponse(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if req.Quantity == nil {
		h.validationResponse(w, []string{"The quantity field is required."})
		return
	}

	session, c, err := h.loadCart(r)
	if err != nil {
		h.logger.Error("failed to load cart", zap.Error(err))
		h.errorResponse(w, http.StatusInternalServerError, "Failed to load cart")
		return
	}

	line, err := c.SetQuantity(chi.URLParam(r, "id"), *req.Quantity)
	switch {
	case errors.Is(err, cart.ErrInvalidQuantity):
		h.validationResponse(w, []string{"The quantity field must be at least 1."})
		return
	case errors.Is(err, cart.ErrLineNotFound):
		h.errorResponse(w, http.StatusNotFound, "Cart item not found")
		return
	case err != nil:
		h.errorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}

	if err := h.saveCart(w, r, session, c); err != nil {
		h.logger.Error("failed to save cart", zap.Error(err))
		h.errorResponse(w, http.StatusInternalServerError, "Failed to save cart")
		return
	}
	h.success(w, http.StatusOK, map[string]any{
		"line": line,
		"cart": viewOf(c),
	})
}

// RemoveCartLine deletes a line
func (h *Handler) RemoveCartLine(w http.ResponseWriter, r *http.Request) {
	session, c, err := h.loadCart(r)
	if err != nil {
		h.logger.Error("failed to load cart", zap.Error(err))
		h.errorResponse(w, http.StatusInternalServerError, "Failed to load cart")
		return
	}
	if err := c.Remove(chi.URLParam(r, "id")); err != nil {
		h.errorResponse(w, http.StatusNotFound, "Cart item not found")
		return
	}
	if err := h.saveCart(w, r, session, c); err != nil {
		h.logger.Error("failed to save cart", zap.Error(err))
		h.errorResponse(w, http.StatusInternalServerError, "Failed to save cart")
		return
	}
	h.success(w, http.StatusOK, viewOf(c))
}

// ClearCart empties the cart
func (h *Handler) ClearCart(w http.ResponseWriter, r *http.Request) {
	session, c, err := h.loadCart(r)
	if err != nil {
		h.logger.Error("failed to load cart", zap.Error(err))
		h.errorResponse(w, http.StatusInternalServerError, "Failed to load cart")
		return
	}
	c.Clear()
	if err := h.saveCart(w, r, session, c); err != nil {
		h.logger.Error("failed to save cart", zap.Error(err))
		h.errorResponse(w, http.StatusInternalServerError, "Failed to save cart")
		return
	}
	h.success(w, http.StatusOK, viewOf(c))
}
