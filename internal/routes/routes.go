package routes

import (
	"net/http"

	"github.com/finchworks/gatehouse/internal/auth"
	"github.com/finchworks/gatehouse/internal/handlers"
	"github.com/finchworks/gatehouse/internal/middleware"
	"github.com/finchworks/gatehouse/internal/security"
	pkghttp "github.com/finchworks/gatehouse/pkg/http"
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all application routes
func RegisterRoutes(
	router chi.Router,
	gate *security.RateLimitGate,
	ipConfig *pkghttp.IPConfig,
	verifier *auth.TokenVerifier,
	adminRole string,
	attemptHandler *handlers.AttemptHandler,
	sessionHandler *handlers.SessionHandler,
	passwordHandler *handlers.PasswordHandler,
	auditHandler *handlers.AuditHandler,
	adminHandler *handlers.AdminHandler,
	healthCheck http.HandlerFunc,
) {
	router.Get("/health", healthCheck)

	router.Route("/v1", func(r chi.Router) {
		// Every collaborator request passes the blocklist gate first, so a
		// blocked origin is rejected before any credential handling happens.
		r.Group(func(r chi.Router) {
			r.Use(middleware.BlocklistGate(gate, ipConfig))
			r.With(middleware.RateLimitByIP(middleware.DefaultAttemptRateLimit())).
				Post("/attempts", attemptHandler.RecordAttempt)
			r.Post("/sessions/check", sessionHandler.Check)
			r.Post("/sessions/touch", sessionHandler.Touch)
			r.Post("/passwords/validate", passwordHandler.Validate)
		})

		// Admin security dashboard
		r.Group(func(r chi.Router) {
			r.Use(auth.Middleware(verifier))
			r.Use(auth.RequireRole(adminRole))

			r.Get("/audit/recent", auditHandler.Recent)
			r.Get("/audit/users/{id}", auditHandler.ByUser)
			r.Get("/audit/failed-logins", auditHandler.FailedLogins)
			r.Get("/audit/suspicious", auditHandler.Suspicious)

			r.Post("/admin/employees/{id}/unlock", adminHandler.UnlockEmployee)
			r.Post("/admin/attempts/clear", adminHandler.ClearAttempts)
			r.Get("/admin/blocklist", adminHandler.ListBlockedIPs)
			r.Post("/admin/blocklist/unblock", adminHandler.UnblockIP)
			r.Get("/admin/policy", adminHandler.GetPolicy)
			r.Put("/admin/policy", adminHandler.UpdatePolicy)
		})
	})
}
