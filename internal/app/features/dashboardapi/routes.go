package dashboardapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mariam168/notakok/internal/app/system/auth"
)

// Routes returns a router with the dashboard endpoint.
//
// When mounted at /api/dashboard:
//   - GET /api/dashboard/stats
func Routes(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(auth.RequireUser)

	r.Get("/stats", h.StatsHandler)

	return r
}
