package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.corsMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		// Health check (no auth required)
		r.Get("/health", s.handleHealth)

		// Captive portal endpoints (no auth: visitors are anonymous)
		r.Post("/auth/login", s.handleLogin)
		r.Post("/portal/register", s.handleRegister)
		r.Get("/portal/config", s.handleGetPortalConfig)
		r.Get("/questions/random", s.handleRandomQuestion)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(s.authMiddleware)

			r.Post("/auth/logout", s.handleLogout)
			r.Get("/auth/me", s.handleMe)

			// Geography (read-only, scoped)
			r.Route("/geography", func(r chi.Router) {
				r.Get("/states", s.handleListStates)
				r.Get("/municipalities", s.handleListMunicipalities)
				r.Get("/parishes", s.handleListParishes)
				r.Get("/stats", s.handleGeographyStats)
			})

			// Portal user endpoints
			r.Route("/users", func(r chi.Router) {
				r.Get("/", s.handleListUsers)
				r.Post("/", s.handleCreateUser)
				r.Get("/{id}", s.handleGetUser)
			})

			// Access point endpoints
			r.Route("/access-points", func(r chi.Router) {
				r.Get("/", s.handleListAccessPoints)
				r.Post("/", s.handleCreateAccessPoint)

				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", s.handleGetAccessPoint)
					r.Put("/", s.handleUpdateAccessPoint)
					r.Delete("/", s.handleDeleteAccessPoint)
				})
			})

			// Question endpoints (state-scoped content)
			r.Route("/questions", func(r chi.Router) {
				r.Get("/", s.handleListQuestions)
				r.Post("/", s.handleCreateQuestion)

				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", s.handleGetQuestion)
					r.Put("/", s.handleUpdateQuestion)
					r.Delete("/", s.handleDeleteQuestion)
				})
			})

			// Dashboard
			r.Route("/dashboard", func(r chi.Router) {
				r.Get("/stats", s.handleDashboardStats)
				r.Get("/parishes", s.handleDashboardParishes)
				r.Get("/ws", s.handleDashboardWS)
			})

			// Portal config writes require auth
			r.Put("/portal/config", s.handleSetPortalConfig)

			// Admin management (superadmin only)
			r.Route("/admins", func(r chi.Router) {
				r.Use(s.superadminOnly)

				r.Get("/", s.handleListAdmins)
				r.Post("/", s.handleCreateAdmin)

				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", s.handleGetAdmin)
					r.Put("/", s.handleUpdateAdmin)
					r.Delete("/", s.handleDeleteAdmin)
				})
			})
		})
	})

	return r
}

// handleHealth returns the server health status.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": s.version,
	})
}
