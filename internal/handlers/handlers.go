package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/gorilla/sessions"
	"go.uber.org/zap"

	"github.com/albumpages/paper-shipping/internal/calculator"
	"github.com/albumpages/paper-shipping/internal/catalog"
	"github.com/albumpages/paper-shipping/internal/database"
	"github.com/albumpages/paper-shipping/internal/paper"
	"github.com/albumpages/paper-shipping/internal/rates"
)

const (
	defaultSessionName = "album-pages-session"
	maxBodyBytes       = 1 << 20
)

// CarrierStatus reports how the carrier client is set up
type CarrierStatus interface {
	IsConfigured() bool
	TestMode() bool
}

// Config holds the dependencies of the HTTP handlers
type Config struct {
	Catalog     *catalog.Catalog
	Calculator  *calculator.Calculator
	Rates       *rates.Service
	Carrier     CarrierStatus
	DB          *database.DB
	Sessions    sessions.Store
	SessionName string
	Logger      *zap.Logger
}

// Handler holds dependencies for HTTP handlers
type Handler struct {
	catalog     *catalog.Catalog
	resolver    *paper.Resolver
	calc        *calculator.Calculator
	rates       *rates.Service
	carrier     CarrierStatus
	db          *database.DB
	sessions    sessions.Store
	sessionName string
	logger      *zap.Logger
}

// NewHandler creates a new handler
func NewHandler(cfg Config) *Handler {
	if cfg.SessionName == "" {
		cfg.SessionName = defaultSessionName
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Handler{
		catalog:     cfg.Catalog,
		resolver:    paper.NewResolver(cfg.Catalog),
		calc:        cfg.Calculator,
		rates:       cfg.Rates,
		carrier:     cfg.Carrier,
		db:          cfg.DB,
		sessions:    cfg.Sessions,
		sessionName: cfg.SessionName,
		logger:      cfg.Logger,
	}
}

// envelope is the body of every API response
type envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
}

// JSON response helper
func (h *Handler) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", zap.Error(err))
	}
}

func (h *Handler) success(w http.ResponseWriter, status int, data any) {
	h.jsonResponse(w, status, envelope{Success: true, Data: data})
}

// Error response helper
func (h *Handler) errorResponse(w http.ResponseWriter, status int, message string) {
	h.jsonResponse(w, status, envelope{Success: false, Message: message})
}

// validationResponse reports every problem found in a request body
func (h *Handler) validationResponse(w http.ResponseWriter, problems []string) {
	h.jsonResponse(w, http.StatusUnprocessableEntity, envelope{
		Success: false,
		Message: problems[0],
		Data:    map[string][]string{"errors": problems},
	})
}

var errEmptyBody = errors.New("request body is required")

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return errEmptyBody
		}
		return err
	}
	return nil
}

// HealthCheck returns API health status
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	if err := h.db.PingContext(r.Context()); err != nil {
		h.logger.Error("database ping failed", zap.Error(err))
		status = "degraded"
	}
	h.success(w, http.StatusOK, map[string]any{
		"status":             status,
		"carrier_configured": h.carrier.IsConfigured(),
		"test_mode":          h.carrier.TestMode(),
		"paper_sizes":        len(h.catalog.Sizes()),
		"paper_types":        len(h.catalog.PaperTypes()),
	})
}
