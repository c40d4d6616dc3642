package handler

import (
	"net/http"

	"github.com/CodeWithGeorg/Academic/internal/domain"
	"github.com/CodeWithGeorg/Academic/internal/middleware"
	"github.com/CodeWithGeorg/Academic/pkg/logging"
	"github.com/go-chi/chi/v5"
)

// NewRouter wires every route of the server.
func NewRouter(reg *Registry, logger *logging.Logger) http.Handler {
	if logger == nil {
		logger = logging.Nop()
	}
	authHandler := NewAuthHandler(reg)
	adminHandler := NewAdminHandler(reg)
	dashboardHandler := NewDashboardHandler(reg)
	fileHandler := NewFileHandler(reg)

	signedIn := middleware.NewGuardMiddleware(reg.Manager)
	adminOnly := middleware.NewGuardMiddleware(reg.Manager, domain.RoleAdmin)
	anyRole := middleware.NewGuardMiddleware(reg.Manager, domain.RoleClient, domain.RoleAdmin)

	r := chi.NewRouter()
	r.Use(middleware.NewLoggingMiddleware(logger))
	r.Use(func(next http.Handler) http.Handler {
		return http.MaxBytesHandler(next, MaxUploadSize+(1<<20))
	})
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Group(func(r chi.Router) {
		r.Use(reg.Middleware)

		r.Get("/login", authHandler.LoginPage)

		r.Route("/auth", func(r chi.Router) {
			authHandler.RegisterRoutes(r)
		})
		r.Route("/admin", func(r chi.Router) {
			adminHandler.RegisterRoutes(r, adminOnly)
		})
		r.Route("/dashboard", func(r chi.Router) {
			dashboardHandler.RegisterRoutes(r, anyRole)
		})
		r.Route("/files", func(r chi.Router) {
			fileHandler.RegisterRoutes(r, signedIn)
		})
	})
	return r
}
