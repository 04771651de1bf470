package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// SetupRoutes configures all API routes.
func SetupRoutes(h *Handlers) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestID)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", h.HealthCheck)

		// HCP engagement
		r.Route("/hcps/{id}", func(r chi.Router) {
			r.Get("/channel-health", h.GetChannelHealth)
			r.Get("/nba", h.GetNBA)
			r.Get("/saturation", h.GetSaturation)
			r.Get("/saturation/pause-projection", h.ProjectPause)
			r.Post("/exposures", h.RecordExposure)
		})

		// Batch NBA generation and prioritization
		r.Route("/nba", func(r chi.Router) {
			r.Post("/batch", h.BatchNBA)
			r.Post("/prioritize", h.PrioritizeNBA)
		})

		r.Post("/constraints/check", h.CheckConstraints)
		r.Post("/compliance/windows", h.CreateComplianceWindow)

		// Execution plan lifecycle
		r.Route("/plans", func(r chi.Router) {
			r.Post("/", h.CreatePlan)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.GetPlan)
				r.Delete("/", h.DeletePlan)
				r.Post("/book", h.BookPlan)
				r.Post("/execute", h.ExecutePlan)
				r.Post("/pause", h.PausePlan)
				r.Post("/resume", h.ResumePlan)
				r.Post("/cancel", h.CancelPlan)
				r.Post("/release", h.ReleasePlan)
				r.Get("/rebalance/suggest", h.SuggestRebalance)
				r.Post("/rebalance", h.RebalancePlan)
				r.Get("/report", h.GetPlanReport)
				r.Get("/score", h.GetPlanScore)
			})
		})
	})

	return r
}
