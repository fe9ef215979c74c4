// Package http provides HTTP routing and middleware configuration
// for the account service.
package http

import (
	"net/http"

	"github.com/atinyakov/GophAccounts/internal/middleware"
	"go.uber.org/zap"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
)

// NewRouter constructs and returns an HTTP handler that serves
// the account API.
//
// Routes:
//
//	GET    /api/health                      → Health (no certificate required)
//	GET    /api/accounts                    → List
//	POST   /api/accounts                    → Create
//	POST   /api/accounts/validate           → Validate
//	GET    /api/accounts/{id}               → Get
//	PUT    /api/accounts/{id}               → Update
//	DELETE /api/accounts/{id}               → Delete
//	PUT    /api/accounts/{id}/type          → SetType
//	POST   /api/accounts/{id}/tags          → AddTag
//	PUT    /api/accounts/{id}/tags/{index}  → EditTag
//	DELETE /api/accounts/{id}/tags/{index}  → RemoveTag
//
// Middleware chain (applied in order):
//  1. AllowContentType("application/json") — rejects non-JSON bodies
//  2. WithRequestLogging(logger)            — logs each request
//  3. CertAuth                              — enforces TLS client certificate auth
func NewRouter(accountHandler *AccountHandler, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(chiMiddleware.AllowContentType("application/json"))
	r.Use(middleware.WithRequestLogging(logger))
	r.Use(middleware.CertAuth)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", Health)

		r.Route("/accounts", func(r chi.Router) {
			r.Get("/", accountHandler.List)
			r.Post("/", accountHandler.Create)
			r.Post("/validate", accountHandler.Validate)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", accountHandler.Get)
				r.Put("/", accountHandler.Update)
				r.Delete("/", accountHandler.Delete)
				r.Put("/type", accountHandler.SetType)
				r.Post("/tags", accountHandler.AddTag)
				r.Put("/tags/{index}", accountHandler.EditTag)
				r.Delete("/tags/{index}", accountHandler.RemoveTag)
			})
		})
	})

	return r
}
