package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/albumpages/paper-shipping/internal/catalog"
	"github.com/albumpages/paper-shipping/internal/paper"
)

// configurationRequest is the body of the paper-configuration endpoints
type configurationRequest struct {
	Size    string            `json:"size"`
	Options catalog.Selection `json:"options"`
	Pages   *int              `json:"pages"`
}

// check lists what is missing from the request. Calculate needs every
// category spelled out; the other endpoints fall back to size defaults.
func (req configurationRequest) check(requireAllOptions bool) []string {
	var problems []string
	if strings.TrimSpace(req.Size) == "" {
		problems = append(problems, "The size field is required.")
	}
	if req.Options == nil {
		problems = append(problems, "The options field is required.")
	} else if requireAllOptions {
		for _, category := range catalog.Categories {
			if strings.TrimSpace(req.Options[category]) == "" {
				problems = append(problems, fmt.Sprintf("The options.%s field is required.", category))
			}
		}
	}
	if req.Pages != nil && *req.Pages < 1 {
		problems = append(problems, "The pages field must be at least 1.")
	}
	return problems
}

// readConfiguration decodes and builds the configuration, writing the error
// response itself when it cannot.
func (h *Handler) readConfiguration(w http.ResponseWriter, r *http.Request, requireAllOptions bool) (*paper.Configuration, configurationRequest, bool) {
	var req configurationRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.errorResponse(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return nil, req, false
	}
	if problems := req.check(requireAllOptions); len(problems) > 0 {
		h.validationResponse(w, problems)
		return nil, req, false
	}

	config, err := paper.NewConfiguration(h.catalog, strings.TrimSpace(req.Size), req.Options)
	if err != nil {
		h.configurationError(w, err)
		return nil, req, false
	}
	return config, req, true
}

func (h *Handler) configurationError(w http.ResponseWriter, err error) {
	var cfgErr *paper.ConfigurationError
	if errors.As(err, &cfgErr) {
		h.errorResponse(w, http.StatusBadRequest, cfgErr.Message)
		return
	}
	h.logger.Error("unexpected configuration failure", zap.Error(err))
	h.errorResponse(w, http.StatusInternalServerError, err.Error())
}

// ListPaperSizes returns the active paper sizes in display order
func (h *Handler) ListPaperSizes(w http.ResponseWriter, r *http.Request) {
	h.success(w, http.StatusOK, h.catalog.Sizes())
}

// GetDefaultPaperSize returns the default paper size
func (h *Handler) GetDefaultPaperSize(w http.ResponseWriter, r *http.Request) {
	h.success(w, http.StatusOK, h.catalog.DefaultSize())
}

// GetPaperSize returns one paper size
func (h *Handler) GetPaperSize(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	size, ok := h.catalog.Size(id)
	if !ok {
		h.errorResponse(w, http.StatusNotFound, fmt.Sprintf("Paper size '%s' not found", id))
		return
	}
	h.success(w, http.StatusOK, size)
}

// GetPaperSizeOptions returns the options offered for a size, per category
func (h *Handler) GetPaperSizeOptions(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	size, ok := h.catalog.Size(id)
	if !ok {
		h.errorResponse(w, http.StatusNotFound, fmt.Sprintf("Paper size '%s' not found", id))
		return
	}
	h.success(w, http.StatusOK, h.catalog.AllAvailableOptions(size))
}

// CalculateConfiguration prices a fully specified configuration
func (h *Handler) CalculateConfiguration(w http.ResponseWriter, r *http.Request) {
	config, req, ok := h.readConfiguration(w, r, true)
	if !ok {
		return
	}
	h.success(w, http.StatusOK, config.Specifications(req.Pages))
}

// ValidateConfiguration reports every rule a configuration breaks
func (h *Handler) ValidateConfiguration(w http.ResponseWriter, r *http.Request) {
	var req configurationRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.errorResponse(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if problems := req.check(false); len(problems) > 0 {
		h.validationResponse(w, problems)
		return
	}

	config, err := paper.NewConfiguration(h.catalog, strings.TrimSpace(req.Size), req.Options)
	if err != nil {
		var cfgErr *paper.ConfigurationError
		if !errors.As(err, &cfgErr) {
			h.configurationError(w, err)
			return
		}
		h.jsonResponse(w, http.StatusBadRequest, envelope{
			Success: false,
			Message: cfgErr.Message,
			Data:    paper.Validation{Valid: false, Errors: []string{cfgErr.Message}},
		})
		return
	}
	h.success(w, http.StatusOK, config.Validate())
}

// ConfigurationSpecifications returns the full specifications of a configuration
func (h *Handler) ConfigurationSpecifications(w http.ResponseWriter, r *http.Request) {
	config, req, ok := h.readConfiguration(w, r, false)
	if !ok {
		return
	}
	h.success(w, http.StatusOK, config.Specifications(req.Pages))
}

// ConfigurationDisplayName returns the display name and SKU of a configuration
func (h *Handler) ConfigurationDisplayName(w http.ResponseWriter, r *http.Request) {
	config, _, ok := h.readConfiguration(w, r, false)
	if !ok {
		return
	}
	h.success(w, http.StatusOK, map[string]string{
		"display_name": config.DisplayName(),
		"sku":          config.SKU(),
	})
}

// ListPaperTypes returns the active legacy paper types
func (h *Handler) ListPaperTypes(w http.ResponseWriter, r *http.Request) {
	h.success(w, http.StatusOK, map[string]any{
		"paper_types": h.catalog.PaperTypes(),
		"default":     h.catalog.DefaultPaperType().ID,
	})
}

// GetPaperType returns one legacy paper type with its grouped specifications
func (h *Handler) GetPaperType(w http.ResponseWriter, r *http.Request) {
	pt, ok := h.catalog.PaperType(chi.URLParam(r, "id"))
	if !ok {
		h.errorResponse(w, http.StatusNotFound, "Paper type not found")
		return
	}
	h.success(w, http.StatusOK, map[string]any{
		"paper_type":     pt,
		"specifications": pt.Specifications(),
	})
}

// paperTypeCalculation is the body of POST /api/paper-types/calculate
type paperTypeCalculation struct {
	PaperTypeID string `json:"paper_type_id"`
	Pages       *int   `json:"pages"`
}

// CalculatePaperType prices a page count on a legacy paper type
func (h *Handler) CalculatePaperType(w http.ResponseWriter, r *http.Request) {
	var req paperTypeCalculation
	if err := decodeJSON(w, r, &req); err != nil {
		h.errorResponse(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	var problems []string
	if strings.TrimSpace(req.PaperTypeID) == "" {
		problems = append(problems, "The paper_type_id field is required.")
	}
	switch {
	case req.Pages == nil:
		problems = append(problems, "The pages field is required.")
	case *req.Pages < 1:
		problems = append(problems, "The pages field must be at least 1.")
	}
	if len(problems) > 0 {
		h.validationResponse(w, problems)
		return
	}

	pt, ok := h.catalog.PaperType(strings.TrimSpace(req.PaperTypeID))
	if !ok {
		h.errorResponse(w, http.StatusNotFound, "Paper type not found")
		return
	}

	pages := *req.Pages
	h.success(w, http.StatusOK, map[string]any{
		"paper_type":       pt.Name,
		"pages":            pages,
		"price_per_page":   pt.PricePerPage,
		"total_price":      pt.CalculatePrice(pages),
		"weight_oz":        pt.CalculateWeight(pages),
		"thickness_inches": pt.CalculateThickness(pages),
	})
}

// PaperTypesForAlbum returns the paper types that fit an album family
func (h *Handler) PaperTypesForAlbum(w http.ResponseWriter, r *http.Request) {
	album := chi.URLParam(r, "albumType")
	types := h.catalog.PaperTypesForAlbum(album)
	if len(types) == 0 {
		h.errorResponse(w, http.StatusNotFound, "Album type not found or no compatible paper types")
		return
	}
	h.success(w, http.StatusOK, map[string]any{
		"album_type":  album,
		"paper_types": types,
	})
}
