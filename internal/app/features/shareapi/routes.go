package shareapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mariam168/notakok/internal/app/system/apicors"
	"github.com/mariam168/notakok/internal/app/system/auth"
)

// Routes returns a router with the share-link endpoints. Minting,
// listing and revoking require an authenticated user; resolution is
// anonymous and served with permissive CORS so any origin can embed a
// share page.
//
// When mounted at /api/share:
//   - POST   /api/share
//   - GET    /api/share
//   - DELETE /api/share/{key}  (key = link id)
//   - POST   /api/share/{key}  (anonymous resolve, key = access key)
//
// The two {key} routes share a placeholder name because chi forbids
// different wildcard names at the same position.
func Routes(h *Handler) http.Handler {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		pr.Use(auth.RequireUser)
		pr.Post("/", h.CreateHandler)
		pr.Get("/", h.ListHandler)
		pr.Delete("/{key}", h.RevokeHandler)
	})

	r.Group(func(ar chi.Router) {
		ar.Use(apicors.Middleware())
		ar.Post("/{key}", h.ResolveHandler)
		// Registered so preflight requests reach the CORS middleware,
		// which answers them itself.
		ar.Options("/{key}", func(http.ResponseWriter, *http.Request) {})
	})

	return r
}
