package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/albumpages/paper-shipping/internal/observability"
)

const requestTimeout = 60 * time.Second

// Routes builds the API router
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(observability.RequestLogger(h.logger))
	r.Use(observability.Recoverer(h.logger))
	r.Use(middleware.Timeout(requestTimeout))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		h.errorResponse(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		h.errorResponse(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", h.HealthCheck)

		r.Route("/paper-sizes", func(r chi.Router) {
			r.Get("/", h.ListPaperSizes)
			r.Get("/default", h.GetDefaultPaperSize)
			r.Get("/{id}", h.GetPaperSize)
			r.Get("/{id}/options", h.GetPaperSizeOptions)
		})

		r.Route("/paper-configurations", func(r chi.Router) {
			r.Post("/calculate", h.CalculateConfiguration)
			r.Post("/validate", h.ValidateConfiguration)
			r.Post("/specifications", h.ConfigurationSpecifications)
			r.Post("/display-name", h.ConfigurationDisplayName)
		})

		r.Route("/paper-types", func(r chi.Router) {
			r.Get("/", h.ListPaperTypes)
			r.Post("/calculate", h.CalculatePaperType)
			r.Get("/album/{albumType}", h.PaperTypesForAlbum)
			r.Get("/{id}", h.GetPaperType)
		})

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", h.GetCart)
			r.Post("/", h.AddToCart)
			r.Delete("/", h.ClearCart)
			r.Patch("/{id}", h.UpdateCartLine)
			r.Delete("/{id}", h.RemoveCartLine)
		})

		r.Route("/shipping", func(r chi.Router) {
			r.Post("/rates", h.GetShippingRates)
			r.Get("/breakdown", h.GetShippingBreakdown)
			r.Get("/test", h.TestCarrierConnection)
			r.Get("/mail-classes", h.GetMailClasses)
			r.Get("/quotes", h.GetRecentQuotes)
		})
	})

	return r
}
