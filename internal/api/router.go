package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/ndewijer/Investment-Portfolio-Planner/internal/api/handlers"
	custommiddleware "github.com/ndewijer/Investment-Portfolio-Planner/internal/api/middleware"
	"github.com/ndewijer/Investment-Portfolio-Planner/internal/config"
	"github.com/ndewijer/Investment-Portfolio-Planner/internal/service"
)

// NewRouter creates and configures the HTTP router
func NewRouter(
	systemService *service.SystemService,
	plannedChangeService *service.PlannedChangeService,
	cfg *config.Config,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(custommiddleware.Logger)
	r.Use(middleware.Recoverer)

	// CORS middleware
	corsMiddleware := custommiddleware.NewCORS(cfg.CORS.AllowedOrigins)
	r.Use(corsMiddleware.Handler)

	// API routes
	r.Route("/api", func(r chi.Router) {
		// System namespace
		r.Route("/system", func(r chi.Router) {
			systemHandler := handlers.NewSystemHandler(systemService)
			r.Get("/health", systemHandler.Health)
			r.Get("/version", systemHandler.Version)
		})

		r.Route("/planned-change", func(r chi.Router) {
			plannedChangeHandler := handlers.NewPlannedChangeHandler(plannedChangeService)
			r.Post("/", plannedChangeHandler.CreatePlannedChange)
			r.Post("/validate", plannedChangeHandler.ValidatePlannedChange)
			r.Post("/preview", plannedChangeHandler.PreviewPlannedChange)

			r.With(custommiddleware.ValidateUUIDMiddleware).
				Get("/portfolio/{uuid}", plannedChangeHandler.PlannedChangesPerPortfolio)

			r.Route("/{uuid}", func(r chi.Router) {
				r.Use(custommiddleware.ValidateUUIDMiddleware)
				r.Get("/", plannedChangeHandler.GetPlannedChange)
				r.Put("/", plannedChangeHandler.UpdatePlannedChange)
				r.Delete("/", plannedChangeHandler.DeletePlannedChange)
			})
		})
	})

	return r
}
