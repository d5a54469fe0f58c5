package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// SetupRoutes configures all API routes.
func SetupRoutes(h *Handlers) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestID)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", h.HealthCheck)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/platforms", h.ListPlatforms)

		r.Post("/performance/fetch", h.FetchPerformance)
		r.Post("/reports/generate", h.GenerateReport)
		r.Post("/budget/optimize", h.OptimizeBudget)
		r.Post("/adcopy/generate", h.GenerateAdCopy)

		r.Route("/campaigns/{campaignID}", func(r chi.Router) {
			r.Put("/budget", h.UpdateBudget)
			r.Post("/pause", h.PauseCampaign)
			r.Post("/resume", h.ResumeCampaign)
			r.Get("/audience", h.AudienceInsights)
		})

		r.Get("/automation/roi", h.AutomationROI)
	})

	return r
}
